// Command annotate runs the annotation pipeline over a JSON-lines or TSV
// document stream, or serves it over HTTP with --port.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/cognicore/annotator/internal/server"
	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/columns"
	"github.com/cognicore/annotator/pkg/annotator/config"
	"github.com/cognicore/annotator/pkg/annotator/format"
	"github.com/cognicore/annotator/pkg/annotator/input"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
	"github.com/cognicore/annotator/pkg/annotator/ledger/sqlite"
	"github.com/cognicore/annotator/pkg/annotator/metrics"
	"github.com/cognicore/annotator/pkg/annotator/sink"
)

const (
	exitOK       = 0
	exitConfig   = 1
	exitResource = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals so tests can drive it.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "annotate: %v\n", err)
		return exitConfig
	}

	cfg, helped, err := parseConfig(args, stderr)
	if helped {
		return exitOK
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "annotate: %v\n", err)
		return exitConfig
	}

	log, closeLog, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "annotate: %v\n", err)
		return exitConfig
	}
	defer closeLog()

	if cfg.ServerMode() {
		err = serve(ctx, cfg, log)
	} else {
		err = batch(ctx, cfg, log, stdin, stdout)
	}
	code := exitCode(err)
	if err != nil {
		log.WithError(err).WithField("exit_code", code).Error("annotate failed")
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, internalerr.ErrInvalidConfig):
		return exitConfig
	default:
		return exitResource
	}
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	return nil
}

// parseConfig layers defaults, the --config YAML file, ANNOTATE_* variables
// and flags, in increasing precedence. The YAML values become the flag
// defaults so kingpin resolves the rest.
func parseConfig(args []string, stderr io.Writer) (config.Config, bool, error) {
	cfg := config.Default()
	configPath := scanConfigFlag(args)
	if configPath == "" {
		configPath = os.Getenv("ANNOTATE_CONFIG")
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, false, err
		}
		cfg = loaded
	}

	helped := false
	app := kingpin.New("annotate", "Annotate documents with tokens, POS tags, lemmas, entities and dependencies.")
	app.Writer(stderr)
	app.Terminate(func(int) { helped = true })
	app.DefaultEnvars()

	var ignored string
	app.Flag("config", "YAML configuration file.").Envar("ANNOTATE_CONFIG").StringVar(&ignored)

	app.Flag("input", "Input file; empty or - reads stdin.").Default(cfg.Input.Path).StringVar(&cfg.Input.Path)
	app.Flag("format", "Input framing.").Default(cfg.Input.Format).EnumVar(&cfg.Input.Format, "json", "tsv")
	app.Flag("id-key", "Dotted JSON path of the document id.").Default(cfg.Input.IDKey).StringVar(&cfg.Input.IDKey)
	app.Flag("text-key", "Dotted JSON path of the document text.").Default(cfg.Input.TextKey).StringVar(&cfg.Input.TextKey)
	app.Flag("id-column", "Zero-based TSV column of the document id.").Default(strconv.Itoa(cfg.Input.IDColumn)).IntVar(&cfg.Input.IDColumn)
	app.Flag("text-column", "Zero-based TSV column of the document text.").Default(strconv.Itoa(cfg.Input.TextColumn)).IntVar(&cfg.Input.TextColumn)
	app.Flag("delimiter", `TSV delimiter; \t is a tab.`).Default(escapeTab(cfg.Input.Delimiter)).StringVar(&cfg.Input.Delimiter)
	app.Flag("strip-html", "Strip HTML markup from document text.").Default(strconv.FormatBool(cfg.Input.StripHTML)).BoolVar(&cfg.Input.StripHTML)

	app.Flag("annotators", "Comma-separated annotation stages.").Default(cfg.Engine.Annotators).StringVar(&cfg.Engine.Annotators)
	app.Flag("max-sentence-length", "Skip sentences with more tokens; 0 disables.").Default(strconv.Itoa(cfg.Engine.MaxSentenceLength)).IntVar(&cfg.Engine.MaxSentenceLength)
	app.Flag("lexicon", "YAML lemma dictionary merged over the built-in one.").Default(cfg.Engine.Lexicon).StringVar(&cfg.Engine.Lexicon)
	app.Flag("gazetteer", "YAML entity gazetteer merged over the built-in one.").Default(cfg.Engine.Gazetteer).StringVar(&cfg.Engine.Gazetteer)

	app.Flag("output-dir", "Write per-type column files here instead of TSV rows.").Default(cfg.Output.Dir).StringVar(&cfg.Output.Dir)
	app.Flag("columns", "Comma-separated column subset for --output-dir.").Default(cfg.Output.Columns).StringVar(&cfg.Output.Columns)

	app.Flag("ledger", "SQLite ledger of document outcomes.").Default(cfg.Ledger.Path).StringVar(&cfg.Ledger.Path)
	app.Flag("resume", "Skip documents the ledger marks emitted.").Default(strconv.FormatBool(cfg.Ledger.Resume)).BoolVar(&cfg.Ledger.Resume)

	app.Flag("port", "Serve HTTP on this port instead of running a batch.").Default(strconv.Itoa(cfg.Server.Port)).IntVar(&cfg.Server.Port)
	app.Flag("shutdown-timeout", "Time allowed to drain HTTP connections.").Default(cfg.Server.ShutdownTimeout.String()).DurationVar(&cfg.Server.ShutdownTimeout)

	app.Flag("log-level", "Log level.").Default(cfg.Log.Level).StringVar(&cfg.Log.Level)
	app.Flag("log-format", "Log format: text or json.").Default(cfg.Log.Format).EnumVar(&cfg.Log.Format, "text", "json")
	app.Flag("log-file", "Write logs to a rotating file instead of stderr.").Default(cfg.Log.File).StringVar(&cfg.Log.File)

	if _, err := app.Parse(args); err != nil {
		return cfg, helped, fmt.Errorf("%v: %w", err, internalerr.ErrInvalidConfig)
	}
	cfg.Input.Delimiter = unescapeTab(cfg.Input.Delimiter)
	return cfg, helped, nil
}

func scanConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
	}
	return ""
}

func escapeTab(s string) string   { return strings.ReplaceAll(s, "\t", `\t`) }
func unescapeTab(s string) string { return strings.ReplaceAll(s, `\t`, "\t") }

func newLogger(cfg config.Log, stderr io.Writer) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetOutput(stderr)
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, internalerr.ErrInvalidConfig)
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	closer := func() {}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		log.SetOutput(rotating)
		closer = func() { _ = rotating.Close() }
	}
	return log, closer, nil
}

func serve(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	eng, err := cfg.BuildEngine(log)
	if err != nil {
		return err
	}
	m := metrics.New()
	ann, err := annotator.New(annotator.Options{Engine: eng, Metrics: m, Logger: log})
	if err != nil {
		return err
	}
	srv := server.New(server.Options{
		Annotator: ann,
		Cleaner:   cfg.InputOptions().Cleaner,
		Metrics:   m,
		Logger:    log,
	})
	return srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port), cfg.Server.ShutdownTimeout)
}

func batch(ctx context.Context, cfg config.Config, log *logrus.Logger, stdin io.Reader, stdout io.Writer) error {
	eng, err := cfg.BuildEngine(log)
	if err != nil {
		return err
	}
	m := metrics.New()

	src, source, closeSrc, err := openInput(cfg, stdin)
	if err != nil {
		return err
	}
	defer closeSrc()

	opts := cfg.InputOptions()
	opts.OnSkip = func(line int, err error) {
		m.InputSkipped()
		log.WithFields(logrus.Fields{"line": line}).WithError(err).Warn("skipping input line")
	}
	reader, err := input.NewReader(src, opts)
	if err != nil {
		return err
	}

	var failures sink.FailureLog
	if _, failedPath := cfg.Paths(); failedPath != "" {
		failures = sink.NewLazyFileFailureLog(failedPath)
	}

	var led ledger.Ledger
	if cfg.Ledger.Path != "" {
		led, err = sqlite.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer led.Close()
	}

	annOpts := annotator.Options{
		Engine:   eng,
		Failures: failures,
		Ledger:   led,
		Source:   source,
		Resume:   cfg.Ledger.Resume,
		Metrics:  m,
		Logger:   log,
	}
	if err := annOpts.Validate(); err != nil {
		return err
	}

	// Output files are created last so setup failures leave none behind.
	records, discard, err := openRecordSink(cfg, stdout)
	if err != nil {
		return err
	}
	annOpts.Sink = records
	ann, err := annotator.New(annOpts)
	if err != nil {
		discard()
		return err
	}

	start := time.Now()
	stats, err := ann.Run(ctx, reader)
	fields := logrus.Fields{
		"documents":  stats.Documents,
		"emitted":    stats.Emitted,
		"failed":     stats.Failed,
		"suppressed": stats.Suppressed,
		"skipped":    stats.Skipped,
		"resumed":    stats.Resumed,
		"sentences":  stats.Sentences,
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}
	if sink.OpenedFailureLog(failures) {
		_, failedPath := cfg.Paths()
		fields["failure_log"] = failedPath
	}
	log.WithFields(fields).Info("batch finished")
	if err != nil && stats.Emitted == 0 {
		discard()
	}
	return err
}

// openInput returns the document stream and the ledger source key.
func openInput(cfg config.Config, stdin io.Reader) (io.Reader, string, func(), error) {
	if cfg.Stdin() {
		return stdin, "-", func() {}, nil
	}
	f, err := os.Open(cfg.Input.Path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open input: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	source := cfg.Input.Path
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	return f, source, func() { _ = f.Close() }, nil
}

// openRecordSink opens the configured output. discard closes it and removes
// column files it created; it is a no-op for TSV output.
func openRecordSink(cfg config.Config, stdout io.Writer) (annotator.RecordSink, func(), error) {
	if cfg.Output.Dir != "" {
		schema, err := cfg.Schema()
		if err != nil {
			return nil, nil, err
		}
		cols, err := columns.NewSink(cfg.Output.Dir, schema)
		if err != nil {
			return nil, nil, err
		}
		return cols, func() { _ = cols.Writer().Remove() }, nil
	}
	if parsedPath, _ := cfg.Paths(); parsedPath != "" {
		out, err := sink.OpenFile(parsedPath)
		if err != nil {
			return nil, nil, err
		}
		tsv := format.NewTSVSink(out)
		return tsv, func() { _ = tsv.Close() }, nil
	}
	tsv := format.NewTSVSink(sink.NewWriter(stdout))
	return tsv, func() { _ = tsv.Close() }, nil
}
