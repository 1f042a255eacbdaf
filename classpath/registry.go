package classpath

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chazu/jolt/classfile"
	"github.com/tliron/commonlog"
)

// ErrEnvironment marks failures outside the class bytes themselves:
// missing paths, unreadable archives and unsupported entries.
var ErrEnvironment = errors.New("environment error")

// Registry maps binary class names to decoded classes. It is filled by
// Load and never changes afterwards, so any number of engines may share
// it.
type Registry struct {
	classes  map[string]*classfile.Class
	sources  map[string]string
	raw      map[string][]byte
	manifest JarManifest
	log      commonlog.Logger
}

// Load reads every classpath entry in order. An entry is a directory
// (searched recursively for .class and .jar files), a .jar archive or a
// single .class file. When two entries define the same class the first
// one wins.
func Load(entries ...string) (*Registry, error) {
	r := &Registry{
		classes: make(map[string]*classfile.Class),
		sources: make(map[string]string),
		raw:     make(map[string][]byte),
		log:     commonlog.GetLogger("jolt.classpath"),
	}
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		if err := r.loadEntry(entry); err != nil {
			return nil, err
		}
	}
	r.log.Infof("loaded %d classes from %d classpath entries", len(r.classes), len(entries))
	return r, nil
}

// SplitList splits a classpath string on the OS list separator, dropping
// empty elements.
func SplitList(path string) []string {
	var out []string
	for _, p := range filepath.SplitList(path) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) loadEntry(entry string) error {
	info, err := os.Stat(entry)
	if err != nil {
		return fmt.Errorf("%w: classpath entry: %v", ErrEnvironment, err)
	}
	if info.IsDir() {
		return r.loadDir(entry)
	}
	return r.loadFile(entry)
}

func (r *Registry) loadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEnvironment, err)
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".class", ".jar":
			return r.loadFile(path)
		}
		return nil
	})
}

func (r *Registry) loadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".class":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEnvironment, err)
		}
		return r.add(path, data)
	case ".jar", ".zip":
		return r.loadJar(path)
	}
	return fmt.Errorf("%w: %s: not a directory, .jar or .class file", ErrEnvironment, path)
}

func (r *Registry) loadJar(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrEnvironment, path, err)
	}
	defer zr.Close()

	r.log.Debugf("reading %s (%d entries)", path, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case f.Name == ManifestPath:
			data, err := readZipFile(f)
			if err != nil {
				return fmt.Errorf("%w: %s!/%s: %v", ErrEnvironment, path, f.Name, err)
			}
			if r.manifest == nil {
				r.manifest = ParseManifest(data)
			}
		case strings.HasSuffix(f.Name, ".class"):
			data, err := readZipFile(f)
			if err != nil {
				return fmt.Errorf("%w: %s!/%s: %v", ErrEnvironment, path, f.Name, err)
			}
			if err := r.add(path+"!/"+f.Name, data); err != nil {
				return err
			}
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (r *Registry) add(source string, data []byte) error {
	c, err := classfile.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	if prev, ok := r.sources[c.ThisClass]; ok {
		r.log.Noticef("class %s in %s is shadowed by %s", c.ThisClass, source, prev)
		return nil
	}
	r.classes[c.ThisClass] = c
	r.sources[c.ThisClass] = source
	r.raw[c.ThisClass] = data
	r.log.Debugf("loaded %s from %s", c.ThisClass, source)
	return nil
}

// Class implements vm.ClassLookup. Dotted names are accepted.
func (r *Registry) Class(name string) (*classfile.Class, bool) {
	c, ok := r.classes[strings.ReplaceAll(name, ".", "/")]
	return c, ok
}

// Names returns every loaded class name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded classes.
func (r *Registry) Len() int { return len(r.classes) }

// Source returns the file (or "archive.jar!/entry") a class came from.
func (r *Registry) Source(name string) (string, bool) {
	s, ok := r.sources[strings.ReplaceAll(name, ".", "/")]
	return s, ok
}

// Bytes returns the class file a class was decoded from.
func (r *Registry) Bytes(name string) ([]byte, bool) {
	b, ok := r.raw[strings.ReplaceAll(name, ".", "/")]
	return b, ok
}

// Manifest returns the manifest of the first JAR on the classpath that
// has one, or nil.
func (r *Registry) Manifest() JarManifest {
	return r.manifest
}
