package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/annotator/pkg/annotator/columns"
	"github.com/cognicore/annotator/pkg/annotator/engine"
	"github.com/cognicore/annotator/pkg/annotator/input"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/lexicon"
)

// InputOptions translates the input section into reader options.
func (c Config) InputOptions() input.Options {
	opts := input.DefaultOptions()
	opts.Framing = input.Framing(c.Input.Format)
	opts.IDKey = c.Input.IDKey
	opts.TextKey = c.Input.TextKey
	opts.IDColumn = c.Input.IDColumn
	opts.TextColumn = c.Input.TextColumn
	opts.Delimiter = c.Input.Delimiter
	if c.Input.MaxLineBytes > 0 {
		opts.MaxLineBytes = c.Input.MaxLineBytes
	}
	opts.Cleaner = &input.Cleaner{StripHTML: c.Input.StripHTML}
	return opts
}

// Schema returns the configured column subset, or the default schema.
func (c Config) Schema() ([]string, error) {
	if c.Output.Columns == "" {
		return append([]string(nil), columns.DefaultSchema...), nil
	}
	return columns.ParseSchema(c.Output.Columns)
}

// EngineOptions loads the lexicon and gazetteer files, layering them over
// the built-in dictionaries, and returns engine options ready for New.
func (c Config) EngineOptions(log logrus.FieldLogger) (engine.Options, error) {
	stages, err := engine.ParseStages(c.Engine.Annotators)
	if err != nil {
		return engine.Options{}, err
	}

	lex := lexicon.Default()
	if c.Engine.Lexicon != "" {
		extra, err := lexicon.LoadFromYAML(c.Engine.Lexicon)
		if err != nil {
			return engine.Options{}, fmt.Errorf("load lexicon: %v: %w", err, internalerr.ErrInvalidConfig)
		}
		lex.Merge(extra)
	}

	gaz := engine.DefaultGazetteer()
	if c.Engine.Gazetteer != "" {
		extra, err := engine.LoadGazetteer(c.Engine.Gazetteer)
		if err != nil {
			return engine.Options{}, fmt.Errorf("load gazetteer: %v: %w", err, internalerr.ErrInvalidConfig)
		}
		gaz.Merge(extra)
	}

	return engine.Options{
		Stages:            stages,
		MaxSentenceLength: c.Engine.MaxSentenceLength,
		Lexicon:           lex,
		Gazetteer:         gaz,
		Logger:            log,
	}, nil
}

// BuildEngine constructs the rule engine described by the config.
func (c Config) BuildEngine(log logrus.FieldLogger) (*engine.Rules, error) {
	opts, err := c.EngineOptions(log)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.WithFields(logrus.Fields{
			"annotators": c.Engine.Annotators,
			"lemmas":     opts.Lexicon.Stats().Lemmas,
			"entities":   opts.Gazetteer.Len(),
		}).Debug("engine configured")
	}
	return engine.New(opts)
}
