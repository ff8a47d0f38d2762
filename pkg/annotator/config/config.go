package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotator/pkg/annotator/columns"
	"github.com/cognicore/annotator/pkg/annotator/engine"
	"github.com/cognicore/annotator/pkg/annotator/input"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Config is the complete run configuration. Zero values are filled from
// Default before a file is decoded over them.
type Config struct {
	Input  Input  `yaml:"input"`
	Engine Engine `yaml:"engine"`
	Output Output `yaml:"output"`
	Ledger Ledger `yaml:"ledger"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

// Input describes the document source and its framing.
type Input struct {
	Path         string `yaml:"path"` // empty or "-" reads stdin
	Format       string `yaml:"format"`
	IDKey        string `yaml:"id_key"`
	TextKey      string `yaml:"text_key"`
	IDColumn     int    `yaml:"id_column"`
	TextColumn   int    `yaml:"text_column"`
	Delimiter    string `yaml:"delimiter"`
	StripHTML    bool   `yaml:"strip_html"`
	MaxLineBytes int    `yaml:"max_line_bytes"`
}

// Engine configures the rule-based annotation engine.
type Engine struct {
	Annotators        string `yaml:"annotators"`
	MaxSentenceLength int    `yaml:"max_sentence_length"`
	Lexicon           string `yaml:"lexicon"`
	Gazetteer         string `yaml:"gazetteer"`
}

// Output selects TSV rows (Dir empty) or columnar files in Dir.
type Output struct {
	Dir     string `yaml:"dir"`
	Columns string `yaml:"columns"`
}

type Ledger struct {
	Path   string `yaml:"path"`
	Resume bool   `yaml:"resume"`
}

// Server enables HTTP mode when Port is non-zero.
type Server struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultAnnotators is the full pipeline.
const DefaultAnnotators = "tokenize,ssplit,pos,lemma,ner,depparse"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Input: Input{
			Format:       string(input.FramingJSON),
			IDKey:        "id",
			TextKey:      "text",
			IDColumn:     0,
			TextColumn:   1,
			Delimiter:    "\t",
			MaxLineBytes: input.DefaultMaxLineBytes,
		},
		Engine: Engine{
			Annotators: DefaultAnnotators,
		},
		Server: Server{
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load decodes a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	return cfg, nil
}

// Stdin reports whether documents are read from standard input.
func (c Config) Stdin() bool {
	return c.Input.Path == "" || c.Input.Path == "-"
}

// ServerMode reports whether the HTTP front end should run.
func (c Config) ServerMode() bool {
	return c.Server.Port != 0
}

// Paths returns the TSV output and failure log paths derived from the input
// path. Both are empty when reading stdin.
func (c Config) Paths() (parsed, failed string) {
	if c.Stdin() {
		return "", ""
	}
	return c.Input.Path + ".parsed", c.Input.Path + ".failed"
}

// Validate checks option values and the existence of referenced files.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch input.Framing(c.Input.Format) {
	case input.FramingJSON:
		if strings.TrimSpace(c.Input.IDKey) == "" || strings.TrimSpace(c.Input.TextKey) == "" {
			add("json input needs id and text keys")
		}
	case input.FramingTSV:
		if c.Input.IDColumn < 0 || c.Input.TextColumn < 0 {
			add("tsv columns must be non-negative")
		}
		if c.Input.Delimiter == "" {
			add("tsv delimiter is empty")
		}
	default:
		add("unknown input format %q", c.Input.Format)
	}
	if c.Input.MaxLineBytes < 0 {
		add("max_line_bytes must be >= 0")
	}
	if !c.Stdin() && !c.ServerMode() {
		if err := requireFile(c.Input.Path); err != nil {
			add("input: %v", err)
		}
	}

	if stages, err := engine.ParseStages(c.Engine.Annotators); err != nil {
		add("%v", err)
	} else if len(stages) == 0 {
		add("no annotators configured")
	}
	if c.Engine.MaxSentenceLength < 0 {
		add("max_sentence_length must be >= 0")
	}
	for _, ref := range []struct{ name, path string }{
		{"lexicon", c.Engine.Lexicon},
		{"gazetteer", c.Engine.Gazetteer},
	} {
		if ref.path == "" {
			continue
		}
		if err := requireFile(ref.path); err != nil {
			add("%s: %v", ref.name, err)
		}
	}

	if c.Output.Columns != "" {
		if c.Output.Dir == "" {
			add("columns requires an output dir")
		} else if _, err := columns.ParseSchema(c.Output.Columns); err != nil {
			add("%v", err)
		}
	}

	if c.Ledger.Resume && c.Ledger.Path == "" {
		add("resume requires a ledger path")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		add("shutdown_timeout must be >= 0")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("%v", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("unknown log format %q", c.Log.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, "; "), internalerr.ErrInvalidConfig)
	}
	return nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
