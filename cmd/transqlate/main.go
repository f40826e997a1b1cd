package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/transqlate/transqlate/pkg/compat"
	"github.com/transqlate/transqlate/pkg/config"
	"github.com/transqlate/transqlate/pkg/dialect"
	"github.com/transqlate/transqlate/pkg/emit"
	"github.com/transqlate/transqlate/pkg/lexer"
	"github.com/transqlate/transqlate/pkg/log"
	"github.com/transqlate/transqlate/pkg/parser"
	"github.com/transqlate/transqlate/pkg/translate"
	"github.com/transqlate/transqlate/pkg/verify"
	"github.com/transqlate/transqlate/pkg/version"
	"github.com/transqlate/transqlate/pkg/watch"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("transqlate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		fromName = fs.String("from", "", "Source dialect")
		toName   = fs.String("to", "", "Target dialect")
		policy   = fs.String("policy", "", "Emit policy: strict, best-effort, annotate")
		workers  = fs.Int("workers", 0, "Batch parallelism (0 = default)")

		outFile  = fs.String("o", "", "Output file (default: stdout)")
		outFileL = fs.String("output", "", "Output file (default: stdout)")

		configFile  = fs.String("c", "", "Configuration file path")
		configFileL = fs.String("config", "", "Configuration file path")

		checkOnly = fs.Bool("check", false, "Report required features without translating")

		doVerify  = fs.Bool("verify", false, "Prepare translated statements against a live engine")
		verifyDSN = fs.String("verify-dsn", "", "DSN for --verify (sqlite defaults to in-memory)")

		watchFiles  = fs.Bool("w", false, "Watch script directories and retranslate on change")
		watchFilesL = fs.Bool("watch", false, "Watch script directories and retranslate on change")

		logLevel  = fs.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat = fs.String("log-format", "", "Log format (text, json)")

		showHelp     = fs.Bool("h", false, "Show help")
		showHelpL    = fs.Bool("help", false, "Show help")
		showVersion  = fs.Bool("v", false, "Show version")
		showVersionL = fs.Bool("version", false, "Show version")
	)

	fs.Usage = func() {
		printUsage(stderr)
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Coalesce short and long flags
	if *configFileL != "" {
		*configFile = *configFileL
	}
	if *outFileL != "" {
		*outFile = *outFileL
	}
	if *watchFilesL {
		*watchFiles = true
	}
	if *showHelpL {
		*showHelp = true
	}
	if *showVersionL {
		*showVersion = true
	}

	if *showHelp {
		printUsage(stdout)
		return 0
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.Full())
		return 0
	}

	// Build configuration: file first, flags on top
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "error loading config: %v\n", err)
			return 1
		}
	}
	if *fromName != "" {
		cfg.Source = *fromName
	}
	if *toName != "" {
		cfg.Target = *toName
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *doVerify {
		cfg.Verify.Enabled = true
	}
	if *verifyDSN != "" {
		cfg.Verify.DSN = *verifyDSN
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if cfg.Source == "" || cfg.Target == "" {
		fmt.Fprintln(stderr, "error: --from and --to are required")
		fs.Usage()
		return 2
	}

	source, err := cfg.Dialect(cfg.Source)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	target, err := cfg.Dialect(cfg.Target)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	pol, err := emit.ParsePolicy(cfg.Policy)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	format, _ := log.ParseFormat(cfg.Log.Format)
	logger := log.New(log.Config{
		DefaultLevel: level,
		Format:       format,
		Output:       stderr,
	})
	defer logger.Close()

	app := &app{
		cfg:    cfg,
		source: source,
		target: target,
		policy: pol,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}

	if *checkOnly {
		return app.check(fs.Args(), stdin)
	}
	if *watchFiles {
		return app.watch(fs.Args())
	}
	return app.translate(fs.Args(), stdin, *outFile)
}

// app carries the resolved configuration through the subcommand paths.
type app struct {
	cfg    config.Config
	source *dialect.Dialect
	target *dialect.Dialect
	policy emit.Policy
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func (a *app) translator() (*translate.Translator, error) {
	return translate.New(translate.Options{
		Source:  a.source,
		Target:  a.target,
		Policy:  a.policy,
		Workers: a.cfg.Workers,
		Logger:  a.logger,
	})
}

// readInputs returns the concatenated contents of the named files, or all
// of stdin when none are given.
func readInputs(paths []string, stdin io.Reader) (string, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	var sb strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// translate is the default mode: read, translate, write, summarize.
func (a *app) translate(paths []string, stdin io.Reader, outFile string) int {
	input, err := readInputs(paths, stdin)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	tr, err := a.translator()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	results, sum, err := tr.Batch(context.Background(), input)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	var checker verify.Checker
	if a.cfg.Verify.Enabled {
		checker, err = verify.New(context.Background(), a.target, a.cfg.Verify.DSN)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return 1
		}
		defer checker.Close()
	}

	out := a.stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	failed := sum.Failed
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.stderr, "error: statement %d: %v\n", res.Index+1, res.Err)
			continue
		}
		for _, warning := range res.Warnings {
			fmt.Fprintf(a.stderr, "warning: statement %d: %s\n", res.Index+1, warning.Message)
		}
		if checker != nil && !res.Skipped {
			if err := checker.Check(context.Background(), res.Output); err != nil {
				fmt.Fprintf(a.stderr, "error: statement %d: %v\n", res.Index+1, err)
				failed++
				continue
			}
		}
		fmt.Fprintf(out, "%s;\n", res.Output)
	}

	fmt.Fprintf(a.stderr, "%d/%d statements translated (%d skipped, %d failed) in %s\n",
		sum.Translated, sum.Total, sum.Skipped, failed, sum.Elapsed.Round(time.Millisecond))
	if failed > 0 {
		return 1
	}
	return 0
}

// check parses the input and reports which features each statement needs
// and which of those the target lacks, without emitting anything.
func (a *app) check(paths []string, stdin io.Reader) int {
	input, err := readInputs(paths, stdin)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	stmts, err := lexer.SplitStatements(input, a.source)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	failed := 0
	for i, text := range stmts {
		stmt, _, err := parser.Parse(text, a.source)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: statement %d: %v\n", i+1, err)
			failed++
			continue
		}
		features := compat.RequiredFeatures(stmt)
		missing := compat.Check(stmt, a.target)

		names := make([]string, len(features))
		for j, f := range features {
			names[j] = f.String()
		}
		line := fmt.Sprintf("statement %d: requires [%s]", i+1, strings.Join(names, " "))
		if len(missing) > 0 {
			mnames := make([]string, len(missing))
			for j, f := range missing {
				mnames[j] = f.String()
			}
			line += fmt.Sprintf("; missing on %s: [%s]", a.target.Name, strings.Join(mnames, " "))
			failed++
		}
		fmt.Fprintln(a.stdout, line)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// watch retranslates script files on change until interrupted. Output goes
// next to each source file with the target dialect in the name.
func (a *app) watch(roots []string) int {
	if len(roots) == 0 {
		fmt.Fprintln(a.stderr, "error: watch mode needs at least one directory")
		return 2
	}

	tr, err := a.translator()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	onChange := func(changed, removed []string) {
		for _, path := range changed {
			if err := a.translateFile(tr, path); err != nil {
				fmt.Fprintf(a.stderr, "error: %s: %v\n", path, err)
			}
		}
		for _, path := range removed {
			out := outputPath(path, a.target.Name)
			if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(a.stderr, "error: %s: %v\n", out, err)
			}
		}
	}

	w, err := watch.New(roots, a.logger, onChange)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	if err := w.Start(); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	defer w.Stop()

	// Translate everything once before settling into watch
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".sql") {
				return err
			}
			if isTranslated(path) {
				return nil
			}
			if terr := a.translateFile(tr, path); terr != nil {
				fmt.Fprintf(a.stderr, "error: %s: %v\n", path, terr)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return 1
		}
	}

	fmt.Fprintf(a.stdout, "watching %s for changes, Ctrl-C to stop\n", strings.Join(roots, ", "))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	a.logger.System().Info("shutdown signal received", "signal", sig.String())
	fmt.Fprintln(a.stdout, "stopped")
	return 0
}

// translateFile translates one script and writes the result alongside it.
func (a *app) translateFile(tr *translate.Translator, path string) error {
	if isTranslated(path) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	results, _, err := tr.Batch(context.Background(), string(data))
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, res := range results {
		if res.Err != nil {
			return fmt.Errorf("statement %d: %w", res.Index+1, res.Err)
		}
		sb.WriteString(res.Output)
		sb.WriteString(";\n")
	}
	out := outputPath(path, a.target.Name)
	if err := os.WriteFile(out, []byte(sb.String()), 0644); err != nil {
		return err
	}
	a.logger.Translate().Info("script translated", "source", path, "output", out)
	return nil
}

// outputPath derives the translated file name: queries.sql -> queries.mysql.sql
func outputPath(path, target string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "." + target + ".sql"
}

// isTranslated reports whether path looks like one of our own outputs, so
// the initial walk and the watcher never translate translations.
func isTranslated(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, name := range dialect.Names() {
		if strings.HasSuffix(base, "."+name) {
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `transqlate - SQL statement translator between database dialects

Usage:
  transqlate --from <dialect> --to <dialect> [options] [file ...]

Reads statements from the named files, or stdin when none are given, and
writes the translated statements to stdout.

Dialects:
  postgres (postgresql, pg), mysql (mariadb), oracle (plsql),
  sqlserver (mssql, tsql), sqlite

Translation Options:
  --from <dialect>         Source dialect (required)
  --to <dialect>           Target dialect (required)
  --policy <name>          strict, best-effort or annotate (default: strict)
  --workers <n>            Batch parallelism (default: 4)
  -o, --output <file>      Output file (default: stdout)

Modes:
  --check                  Report required features per statement, no output
  --verify                 Prepare translated statements against a live engine
  --verify-dsn <dsn>       Connection string for --verify
  -w, --watch              Watch directories, retranslate .sql files on change

Configuration:
  -c, --config <file>      YAML configuration file

Logging:
  --log-level <level>      Log level: debug, info, warn, error (default: info)
  --log-format <format>    Log format: text, json (default: text)

General:
  -h, --help               Show help
  -v, --version            Show version

Statement Directives:
  -- @xlate: skip                  Pass the next statement through untouched
  -- @xlate: policy=best-effort    Override the policy for the next statement

Examples:
  # Translate a script from SQL Server to PostgreSQL
  transqlate --from sqlserver --to postgres queries.sql

  # Pipe from stdin with a relaxed policy
  cat dump.sql | transqlate --from mysql --to sqlite --policy best-effort

  # Report portability issues without translating
  transqlate --from postgres --to mysql --check migrations/*.sql

  # Keep translated copies up to date while editing
  transqlate --from postgres --to sqlite -w ./sql

Exit Codes:
  0  Success
  1  Runtime or translation error
  2  CLI usage error
`)
}
