// Package server exposes document annotation over HTTP. Each request is
// one document; nothing is written to the batch sinks.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/format"
	"github.com/cognicore/annotator/pkg/annotator/ids"
	"github.com/cognicore/annotator/pkg/annotator/input"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
	"github.com/cognicore/annotator/pkg/annotator/metrics"
)

// DocumentAnnotator is the per-document step; *annotator.Annotator
// implements it.
type DocumentAnnotator interface {
	AnnotateDocument(ctx context.Context, doc annotation.Document) (annotation.DocumentResult, error)
}

// Options configures a Server.
type Options struct {
	Annotator DocumentAnnotator
	Cleaner   *input.Cleaner
	Metrics   *metrics.Collector
	Logger    logrus.FieldLogger
	BodyLimit int // bytes; 0 uses 16 MiB
}

// Server wraps a fiber app serving /annotate, /annotate.tsv, /healthz and
// /metrics.
type Server struct {
	app       *fiber.App
	annotator DocumentAnnotator
	cleaner   *input.Cleaner
	metrics   *metrics.Collector
	log       logrus.FieldLogger
	formatter format.Formatter
}

type annotateRequest struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the fiber app and registers routes.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	limit := opts.BodyLimit
	if limit <= 0 {
		limit = 16 << 20
	}

	s := &Server{
		annotator: opts.Annotator,
		cleaner:   opts.Cleaner,
		metrics:   opts.Metrics,
		log:       log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "annotator",
		BodyLimit:             limit,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: ids.New,
	}))
	s.app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	s.app.Use(s.logRequests)

	s.app.Post("/annotate", s.annotateJSON)
	s.app.Post("/annotate.tsv", s.annotateTSV)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Run serves on addr until ctx is done, then drains connections for at most
// timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %v: %w", addr, err, internalerr.ErrResource)
	case <-ctx.Done():
	}

	s.log.Info("draining connections and shutting down")
	if err := s.app.ShutdownWithTimeout(timeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	entry := s.log.WithFields(logrus.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"latency":    time.Since(start).String(),
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Warn("request")
	} else {
		entry.Debug("request")
	}
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

// readDocument accepts {"id": ..., "text": ...} or, for text/plain bodies,
// the raw text with the id in the "id" query parameter.
func (s *Server) readDocument(c *fiber.Ctx) (annotation.Document, error) {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.HasPrefix(ct, fiber.MIMETextPlain) {
		return annotation.Document{ID: c.Query("id"), Text: s.cleaner.Clean(string(c.Body()))}, nil
	}

	var req annotateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return annotation.Document{}, fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.Text == nil {
		return annotation.Document{}, fiber.NewError(fiber.StatusBadRequest, `missing "text"`)
	}
	return annotation.Document{ID: req.ID, Text: s.cleaner.Clean(*req.Text)}, nil
}

func (s *Server) annotate(c *fiber.Ctx) (annotation.DocumentResult, error) {
	doc, err := s.readDocument(c)
	if err != nil {
		return annotation.DocumentResult{}, err
	}

	start := time.Now()
	res, err := s.annotator.AnnotateDocument(c.UserContext(), doc)
	s.metrics.ObserveAnnotate(time.Since(start))
	if err != nil {
		s.metrics.Document(string(ledger.OutcomeFailed), 0)
		s.log.WithError(err).WithField("doc_id", doc.ID).Warn("annotation failed")
		if errors.Is(err, internalerr.ErrAnnotation) {
			return res, fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return res, err
	}
	s.metrics.Document(string(ledger.OutcomeEmitted), len(res.Sentences))
	return res, nil
}

func (s *Server) annotateJSON(c *fiber.Ctx) error {
	res, err := s.annotate(c)
	if err != nil {
		return err
	}
	if res.Sentences == nil {
		res.Sentences = []annotation.SentenceAnnotation{}
	}
	return c.JSON(res)
}

// annotateTSV writes one record per sentence. An empty document id yields
// an empty body, as in batch mode.
func (s *Server) annotateTSV(c *fiber.Ctx) error {
	res, err := s.annotate(c)
	if err != nil {
		return err
	}
	var b strings.Builder
	if res.DocumentID != "" {
		for i, sent := range res.Sentences {
			b.WriteString(s.formatter.Format(res.DocumentID, i+1, sent).TSV())
			b.WriteByte('\n')
		}
	}
	c.Set(fiber.HeaderContentType, "text/tab-separated-values; charset=utf-8")
	return c.SendString(b.String())
}
