// Jolt CLI - decodes class files and runs their static methods
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/jolt/classpath"
	"github.com/chazu/jolt/manifest"
	"github.com/chazu/jolt/runlog"
	"github.com/chazu/jolt/vm"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	classpath string
	jar       string
	entry     string
	configDir string
	dump      string
	hex       bool
	trace     string
	history   bool
	verbose   bool
	args      []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("jolt", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.classpath, "cp", "", "Class path: directories, .jar and .class files separated by "+string(os.PathListSeparator))
	fs.StringVar(&o.jar, "jar", "", "Run the Main-Class of this JAR")
	fs.StringVar(&o.entry, "m", "", "Entry point (e.g., 'com.example.Main' or 'com.example.Main.start')")
	fs.StringVar(&o.configDir, "config", "", "Directory holding jolt.toml (default: search upward from the working directory)")
	fs.StringVar(&o.dump, "dump", "", "Print the summary and disassembly of a class instead of running")
	fs.BoolVar(&o.hex, "hex", false, "With -dump, also print a hex dump of the class file")
	fs.StringVar(&o.trace, "trace", "", "Write the CBOR execution trace to this file")
	fs.BoolVar(&o.history, "history", false, "Print recent runs from the history database")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jolt [options] [args...]\n\n")
		fmt.Fprintf(stderr, "Loads classes from the class path and runs a static entry method.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  jolt -jar app.jar 1 2                   # Run the JAR's Main-Class\n")
		fmt.Fprintf(stderr, "  jolt -cp build/classes -m demo.Main      # Run demo/Main.main\n")
		fmt.Fprintf(stderr, "  jolt -cp build -m demo.Main.start        # Run another static method\n")
		fmt.Fprintf(stderr, "  jolt -cp build -dump demo.Main -hex      # Disassemble a class\n")
		fmt.Fprintf(stderr, "  jolt -cp build -m demo.Main -trace t.cbor # Record the execution trace\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.args = fs.Args()
	return &o, nil
}

// run is main without the os.Exit, returning the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := loadManifest(o.configDir)
	if err != nil {
		report(stderr, err)
		return 1
	}

	verbosity := m.Log.Verbosity
	if o.verbose {
		verbosity += 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("jolt")
	log.Debugf("project dir %s", m.Dir)

	if o.history {
		if err := printHistory(m, stdout); err != nil {
			report(stderr, err)
			return 1
		}
		return 0
	}

	entries := m.ClasspathEntries()
	if o.classpath != "" {
		entries = classpath.SplitList(o.classpath)
	}
	if o.jar != "" {
		entries = append([]string{o.jar}, entries...)
	}
	reg, err := classpath.Load(entries...)
	if err != nil {
		report(stderr, err)
		return 1
	}

	if o.dump != "" {
		if err := dumpClass(reg, o.dump, o.hex, stdout); err != nil {
			report(stderr, err)
			return 1
		}
		return 0
	}

	className, methodName := resolveEntry(o, m, reg)
	if className == "" {
		report(stderr, errors.New("no entry point: use -m, -jar, or [run] main in jolt.toml"))
		return 1
	}
	progArgs := o.args
	if len(progArgs) == 0 {
		progArgs = m.Run.Args
	}

	tracePath := m.TracePath()
	if o.trace != "" {
		tracePath = o.trace
	}
	historyPath := m.HistoryPath()

	opts := []vm.Option{vm.WithMaxDepth(m.Limits.MaxCallDepth)}
	var rec *vm.Recorder
	if tracePath != "" || historyPath != "" {
		rec = vm.NewRecorder(nil)
		opts = append(opts, vm.WithTracer(rec))
	}

	engine := vm.NewEngine(reg, opts...)
	res, runErr := engine.InvokeAndRun(className, methodName, progArgs)
	if runErr == nil {
		log.Infof("%s.%s exited with %d after %d steps", className, methodName, res.ExitCode, res.Steps)
	}

	var digest string
	if rec != nil {
		digest, err = rec.Events().Digest()
		if err != nil {
			report(stderr, err)
			return 1
		}
	}
	if tracePath != "" {
		if err := writeTrace(tracePath, rec.Events()); err != nil {
			report(stderr, err)
			return 1
		}
	}
	if historyPath != "" {
		if err := recordRun(historyPath, className, methodName, res, digest, runErr); err != nil {
			report(stderr, err)
			return 1
		}
	}

	if runErr != nil {
		report(stderr, runErr)
		return 1
	}
	return exitStatus(res.ExitCode)
}

func loadManifest(configDir string) (*manifest.Manifest, error) {
	if configDir != "" {
		return manifest.Load(configDir)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil || m != nil {
		return m, err
	}
	return manifest.Default(".")
}

func dumpClass(reg *classpath.Registry, name string, withHex bool, w io.Writer) error {
	c, ok := reg.Class(name)
	if !ok {
		return fmt.Errorf("%w: %s", vm.ErrClassNotFound, name)
	}
	if src, ok := reg.Source(name); ok {
		fmt.Fprintf(w, "; from %s\n", src)
	}
	fmt.Fprint(w, vm.DisassembleClass(c))
	if withHex {
		data, _ := reg.Bytes(name)
		fmt.Fprintf(w, "\n%s", hex.Dump(data))
	}
	return nil
}

func writeTrace(path string, t vm.Trace) error {
	data, err := vm.EncodeTrace(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating trace dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

func recordRun(path, className, methodName string, res vm.Result, digest string, runErr error) error {
	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	log := commonlog.GetLogger("jolt")
	if prev, err := store.Last(ctx, className, methodName); err == nil && prev.TraceDigest != digest {
		log.Warningf("trace of %s.%s differs from run %s", className, methodName, prev.ID)
	}

	r := runlog.Run{
		Class:       className,
		Method:      methodName,
		ExitCode:    res.ExitCode,
		Steps:       res.Steps,
		TraceDigest: digest,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	_, err = store.Record(ctx, r)
	return err
}

func printHistory(m *manifest.Manifest, w io.Writer) error {
	path := m.HistoryPath()
	if path == "" {
		return errors.New("no history database configured ([history] database in jolt.toml)")
	}
	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), m.History.Limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := fmt.Sprintf("exit %d", r.ExitCode)
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Fprintf(w, "%s  %s  %s.%s  steps=%d  trace=%s  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), short(r.ID, 8), r.Class, r.Method, r.Steps, short(r.TraceDigest, 12), status)
	}
	return nil
}

func short(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
