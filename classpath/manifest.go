package classpath

import (
	"bufio"
	"bytes"
	"strings"
)

// ManifestPath is where a JAR keeps its manifest.
const ManifestPath = "META-INF/MANIFEST.MF"

// JarManifest holds the main attributes of a JAR manifest.
type JarManifest map[string]string

// MainClass returns the Main-Class attribute in internal form
// ("com/example/Main"), or "" when the JAR has none.
func (m JarManifest) MainClass() string {
	return strings.ReplaceAll(m["Main-Class"], ".", "/")
}

// ParseManifest reads "Key: Value" lines. A line starting with a single
// space continues the previous value. Lines without a colon and anything
// after the first blank line (per-entry sections) are ignored.
func ParseManifest(data []byte) JarManifest {
	m := make(JarManifest)
	var last string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			if len(m) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, " ") {
			if last != "" {
				m[last] += line[1:]
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			last = ""
			continue
		}
		last = strings.TrimSpace(key)
		m[last] = strings.TrimSpace(value)
	}
	return m
}
