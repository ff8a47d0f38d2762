// Package annotator drives batch annotation: it reads documents, runs them
// through an engine one at a time, isolates per-document failures and
// writes one record per sentence to a sink.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/engine"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
	"github.com/cognicore/annotator/pkg/annotator/metrics"
	"github.com/cognicore/annotator/pkg/annotator/sink"
)

// RecordSink receives the sentences of successfully annotated documents.
// format.TSVSink and columns.Sink implement it.
type RecordSink interface {
	WriteSentence(id string, index int, s annotation.SentenceAnnotation) error
	Flush() error
	Close() error
}

// Source yields documents until io.EOF. *input.Reader implements it.
type Source interface {
	Next() (annotation.Document, error)
}

// Options configures an Annotator.
type Options struct {
	Engine   engine.Engine
	Sink     RecordSink      // nil discards records
	Failures sink.FailureLog // nil reports failures through Logger

	// Ledger, when set, records every document outcome under Source.
	Ledger ledger.Ledger
	Source string
	// Resume skips documents the ledger already marks emitted.
	Resume bool

	Metrics *metrics.Collector
	Logger  logrus.FieldLogger
}

// Stats summarizes one Run.
type Stats struct {
	Documents  int // documents read, resumed ones included
	Emitted    int
	Failed     int
	Suppressed int // annotated but not written because the id was empty
	Skipped    int // malformed input lines
	Resumed    int // skipped because a previous run emitted them
	Sentences  int
}

// Annotator is the batch orchestrator. AnnotateDocument is safe for
// concurrent use; Run may be called once.
type Annotator struct {
	engine   engine.Engine
	sink     RecordSink
	failures sink.FailureLog
	ledger   ledger.Ledger
	source   string
	resume   bool
	metrics  *metrics.Collector
	log      logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
	mu        sync.Mutex
	ran       bool
}

// Validate reports option combinations New rejects. Sink is not consulted,
// so callers can check before creating output files.
func (o Options) Validate() error {
	if o.Engine == nil {
		return fmt.Errorf("annotator needs an engine: %w", internalerr.ErrInvalidConfig)
	}
	if o.Resume && o.Ledger == nil {
		return fmt.Errorf("resume needs a ledger: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

// New validates opts and builds an Annotator.
func New(opts Options) (*Annotator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	out := opts.Sink
	if out == nil {
		out = discardRecords{}
	}
	failures := opts.Failures
	if failures == nil {
		failures = sink.NewLoggerFailureLog(log)
	}

	return &Annotator{
		engine:   opts.Engine,
		sink:     out,
		failures: failures,
		ledger:   opts.Ledger,
		source:   opts.Source,
		resume:   opts.Resume,
		metrics:  opts.Metrics,
		log:      log,
	}, nil
}

// AnnotateDocument runs the engine over one document. A panic inside the
// engine is returned as an error wrapping ErrAnnotation with the stack.
func (a *Annotator) AnnotateDocument(ctx context.Context, doc annotation.Document) (res annotation.DocumentResult, err error) {
	res.DocumentID = doc.ID
	defer func() {
		if r := recover(); r != nil {
			res.Sentences = nil
			err = fmt.Errorf("panic: %v\n%s: %w", r, debug.Stack(), internalerr.ErrAnnotation)
		}
	}()

	sents, err := a.engine.Annotate(ctx, doc.Text)
	if err != nil {
		if !errors.Is(err, internalerr.ErrAnnotation) {
			err = fmt.Errorf("%v: %w", err, internalerr.ErrAnnotation)
		}
		return res, err
	}
	for i, s := range sents {
		if verr := s.Validate(); verr != nil {
			return res, fmt.Errorf("sentence %d: %v: %w", i+1, verr, internalerr.ErrAnnotation)
		}
	}
	res.Sentences = sents
	return res, nil
}

// Run reads src until io.EOF. Document failures are written to the failure
// log and do not stop the run; sink, failure log and ledger errors do and
// wrap ErrResource. Cancellation is observed between documents. The sinks
// are flushed and closed before Run returns.
func (a *Annotator) Run(ctx context.Context, src Source) (stats Stats, err error) {
	a.mu.Lock()
	if a.ran {
		a.mu.Unlock()
		return stats, fmt.Errorf("annotator already ran: %w", sink.ErrClosed)
	}
	a.ran = true
	a.mu.Unlock()

	defer func() {
		if s, ok := src.(interface{ Skipped() int }); ok {
			stats.Skipped = s.Skipped()
		}
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()

	log := a.log
	runID := ""
	if a.ledger != nil {
		run, lerr := a.ledger.StartRun(ctx, a.source)
		if lerr != nil {
			return stats, fmt.Errorf("start run: %v: %w", lerr, internalerr.ErrResource)
		}
		runID = run.ID
		log = log.WithField("run_id", runID)
		defer func() {
			if ferr := a.ledger.FinishRun(context.WithoutCancel(ctx), runID); ferr != nil && err == nil {
				err = fmt.Errorf("finish run: %v: %w", ferr, internalerr.ErrResource)
			}
		}()
	}

	for {
		if err := ctx.Err(); err != nil {
			log.WithField("documents", stats.Documents).Warn("run interrupted")
			return stats, err
		}

		doc, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read input: %v: %w", err, internalerr.ErrResource)
		}
		stats.Documents++

		dlog := log.WithField("doc_id", doc.ID)
		if l, ok := src.(interface{ Line() int }); ok {
			dlog = dlog.WithField("line", l.Line())
		}

		if a.resume && doc.ID != "" {
			done, err := a.alreadyEmitted(ctx, runID, doc.ID)
			if err != nil {
				return stats, err
			}
			if done {
				stats.Resumed++
				dlog.Debug("already emitted, skipping")
				continue
			}
		}

		if err := a.process(ctx, runID, doc, &stats, dlog); err != nil {
			return stats, err
		}
	}

	if err := a.sink.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %v: %w", err, internalerr.ErrResource)
	}
	return stats, nil
}

func (a *Annotator) process(ctx context.Context, runID string, doc annotation.Document, stats *Stats, log logrus.FieldLogger) error {
	start := time.Now()
	// a started document always finishes
	res, err := a.AnnotateDocument(context.WithoutCancel(ctx), doc)
	a.metrics.ObserveAnnotate(time.Since(start))

	if err != nil {
		stats.Failed++
		if _, logged := a.failures.(*sink.LoggerFailureLog); !logged {
			log.WithError(err).Warn("annotation failed")
		}
		if ferr := a.failures.Record(doc.ID, err.Error()); ferr != nil {
			return fmt.Errorf("record failure for %q: %v: %w", doc.ID, ferr, internalerr.ErrResource)
		}
		a.metrics.Document(string(ledger.OutcomeFailed), 0)
		return a.record(ctx, runID, doc.ID, ledger.OutcomeFailed, 0, err.Error())
	}

	n := len(res.Sentences)
	if doc.ID == "" {
		stats.Suppressed++
		log.WithField("sentences", n).Debug("empty document id, output suppressed")
		a.metrics.Document(string(ledger.OutcomeSuppressed), 0)
		return a.record(ctx, runID, doc.ID, ledger.OutcomeSuppressed, 0, "")
	}

	for i, s := range res.Sentences {
		if err := a.sink.WriteSentence(doc.ID, i+1, s); err != nil {
			return fmt.Errorf("write %q sentence %d: %v: %w", doc.ID, i+1, err, internalerr.ErrResource)
		}
	}
	if a.ledger != nil {
		// records must be durable before the ledger marks them emitted
		if err := a.sink.Flush(); err != nil {
			return fmt.Errorf("flush output: %v: %w", err, internalerr.ErrResource)
		}
	}
	stats.Emitted++
	stats.Sentences += n
	log.WithFields(logrus.Fields{"sentences": n, "outcome": ledger.OutcomeEmitted}).Debug("document emitted")
	a.metrics.Document(string(ledger.OutcomeEmitted), n)
	return a.record(ctx, runID, doc.ID, ledger.OutcomeEmitted, n, "")
}

// alreadyEmitted reports whether an earlier run emitted id. Entries written
// by the current run do not count, so repeated ids in one input are all
// processed.
func (a *Annotator) alreadyEmitted(ctx context.Context, runID, id string) (bool, error) {
	e, ok, err := a.ledger.Lookup(ctx, a.source, id)
	if err != nil {
		return false, fmt.Errorf("ledger lookup %q: %v: %w", id, err, internalerr.ErrResource)
	}
	return ok && e.Outcome == ledger.OutcomeEmitted && e.RunID != runID, nil
}

func (a *Annotator) record(ctx context.Context, runID, id string, outcome ledger.Outcome, sentences int, msg string) error {
	if a.ledger == nil {
		return nil
	}
	err := a.ledger.Record(context.WithoutCancel(ctx), ledger.Entry{
		Source:     a.source,
		DocumentID: id,
		Outcome:    outcome,
		RunID:      runID,
		Sentences:  sentences,
		Message:    msg,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ledger record %q: %v: %w", id, err, internalerr.ErrResource)
	}
	return nil
}

// Close flushes and closes the record sink and the failure log. It is
// idempotent; Run calls it on every exit path.
func (a *Annotator) Close() error {
	a.closeOnce.Do(func() {
		if err := a.sink.Close(); err != nil {
			a.closeErr = fmt.Errorf("close output: %v: %w", err, internalerr.ErrResource)
		}
		if err := a.failures.Close(); err != nil && a.closeErr == nil {
			a.closeErr = fmt.Errorf("close failure log: %v: %w", err, internalerr.ErrResource)
		}
	})
	return a.closeErr
}

type discardRecords struct{}

func (discardRecords) WriteSentence(string, int, annotation.SentenceAnnotation) error { return nil }
func (discardRecords) Flush() error                                                 { return nil }
func (discardRecords) Close() error                                                 { return nil }
