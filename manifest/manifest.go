// Package manifest handles jolt.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up by Load and
// FindAndLoad.
const FileName = "jolt.toml"

// Defaults applied after validation.
const (
	DefaultMethod       = "main"
	DefaultMaxCallDepth = 1024
	DefaultHistoryLimit = 10
)

// Manifest represents a jolt.toml project configuration.
type Manifest struct {
	Project   Project   `toml:"project"`
	Classpath Classpath `toml:"classpath"`
	Run       Run       `toml:"run"`
	Limits    Limits    `toml:"limits"`
	Trace     Trace     `toml:"trace"`
	History   History   `toml:"history"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the jolt.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Classpath lists directories, JARs and class files, relative to Dir.
type Classpath struct {
	Entries []string `toml:"entries"`
}

// Run selects the entry point.
type Run struct {
	Main   string   `toml:"main"` // overrides a JAR's Main-Class
	Method string   `toml:"method"`
	Args   []string `toml:"args"`
}

// Limits bounds execution.
type Limits struct {
	MaxCallDepth int `toml:"max-call-depth"`
}

// Trace configures the execution trace file.
type Trace struct {
	Output string `toml:"output"`
}

// History configures the run history database.
type History struct {
	Database string `toml:"database"`
	Limit    int    `toml:"limit"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Load parses and validates the jolt.toml file in the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(path, data, dir)
}

// Parse decodes jolt.toml content. path is only used in error messages;
// dir becomes Manifest.Dir.
func Parse(path string, data []byte, dir string) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.Dir = abs
	m.applyDefaults()
	return &m, nil
}

// Default returns the configuration used when no jolt.toml exists.
func Default(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m := &Manifest{Dir: abs}
	m.applyDefaults()
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Run.Method == "" {
		m.Run.Method = DefaultMethod
	}
	if m.Limits.MaxCallDepth == 0 {
		m.Limits.MaxCallDepth = DefaultMaxCallDepth
	}
	if len(m.Classpath.Entries) == 0 {
		m.Classpath.Entries = []string{"."}
	}
	if m.History.Limit == 0 {
		m.History.Limit = DefaultHistoryLimit
	}
}

// FindAndLoad walks up from startDir to find a jolt.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ClasspathEntries returns the classpath with relative entries resolved
// against Dir.
func (m *Manifest) ClasspathEntries() []string {
	paths := make([]string, 0, len(m.Classpath.Entries))
	for _, e := range m.Classpath.Entries {
		paths = append(paths, m.resolve(e))
	}
	return paths
}

// TracePath returns the trace output file, or "" when tracing is off.
func (m *Manifest) TracePath() string {
	return m.resolve(m.Trace.Output)
}

// HistoryPath returns the history database file, or "" when run history
// is off.
func (m *Manifest) HistoryPath() string {
	return m.resolve(m.History.Database)
}

// EntryClass returns Run.Main in internal form ("com/example/Main").
func (m *Manifest) EntryClass() string {
	return strings.ReplaceAll(m.Run.Main, ".", "/")
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
