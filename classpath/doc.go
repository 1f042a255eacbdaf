// Package classpath loads classes from directories, JAR archives and
// individual class files into a read-only Registry that the execution
// engine resolves class names against.
package classpath
