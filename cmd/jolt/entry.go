package main

import (
	"strings"
	"unicode"

	"github.com/chazu/jolt/classpath"
	"github.com/chazu/jolt/manifest"
)

// parseEntry splits "-m" values. Class names are package-qualified
// ("com.example.Main" or "com/example/Main"); a trailing segment that
// starts with a lower-case letter names the method.
func parseEntry(entry string) (className, methodName string) {
	entry = strings.ReplaceAll(entry, "/", ".")
	i := strings.LastIndex(entry, ".")
	if i <= 0 || i == len(entry)-1 {
		return strings.ReplaceAll(entry, ".", "/"), ""
	}
	last := entry[i+1:]
	if unicode.IsLower([]rune(last)[0]) {
		return strings.ReplaceAll(entry[:i], ".", "/"), last
	}
	return strings.ReplaceAll(entry, ".", "/"), ""
}

// resolveEntry picks the entry class and method: -m first, then [run] main,
// then the Main-Class of the first JAR on the class path.
func resolveEntry(o *options, m *manifest.Manifest, reg *classpath.Registry) (className, methodName string) {
	methodName = m.Run.Method
	if o.entry != "" {
		c, meth := parseEntry(o.entry)
		if meth != "" {
			methodName = meth
		}
		return c, methodName
	}
	if c := m.EntryClass(); c != "" {
		return c, methodName
	}
	if jm := reg.Manifest(); jm != nil {
		return jm.MainClass(), methodName
	}
	return "", methodName
}

// exitStatus maps an entry method's int result onto a process exit status.
// Only the low 8 bits reach the parent, so a non-zero result whose low
// byte is zero becomes 1 rather than reading as success.
func exitStatus(code int) int {
	if code != 0 && code&0xFF == 0 {
		return 1
	}
	return code & 0xFF
}
