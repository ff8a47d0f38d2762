package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/engine"
	"github.com/cognicore/annotator/pkg/annotator/ids"
	"github.com/cognicore/annotator/pkg/annotator/input"
	"github.com/cognicore/annotator/pkg/annotator/metrics"
)

func newTestServer(t *testing.T, eng engine.Engine) (*Server, *metrics.Collector) {
	t.Helper()
	if eng == nil {
		rules, err := engine.New(engine.Options{Stages: engine.AllStages})
		if err != nil {
			t.Fatalf("engine.New failed: %v", err)
		}
		eng = rules
	}
	ann, err := annotator.New(annotator.Options{Engine: eng})
	if err != nil {
		t.Fatalf("annotator.New failed: %v", err)
	}
	m := metrics.New()
	return New(Options{Annotator: ann, Cleaner: &input.Cleaner{StripHTML: true}, Metrics: m}), m
}

func do(t *testing.T, s *Server, method, path, contentType, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("Expected ok status, got %s", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, _ := do(t, s, http.MethodGet, "/healthz", "", "")
	rid := resp.Header.Get("X-Request-ID")
	if _, err := ids.Time(rid); err != nil {
		t.Errorf("Expected ULID request id, got %q (%v)", rid, err)
	}
}

func TestAnnotateJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/annotate", "application/json",
		`{"id":"d1","text":"Cats run. Dogs sleep."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var res annotation.DocumentResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if res.DocumentID != "d1" {
		t.Errorf("Expected document id d1, got %q", res.DocumentID)
	}
	if len(res.Sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(res.Sentences))
	}
	first := res.Sentences[0]
	if len(first.Tokens) != 3 || len(first.POS) != 3 || len(first.DepHeads) != 3 {
		t.Errorf("Expected aligned annotations, got %+v", first)
	}
}

func TestAnnotatePlainText(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/annotate?id=raw", "text/plain; charset=utf-8", "<p>Hello world.</p>")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var res annotation.DocumentResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatal(err)
	}
	if res.DocumentID != "raw" || len(res.Sentences) != 1 {
		t.Fatalf("Unexpected result: %+v", res)
	}
	if got := res.Sentences[0].Sentence; got != "Hello world." {
		t.Errorf("Expected markup stripped, got %q", got)
	}
}

func TestAnnotateEmptyText(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/annotate", "application/json", `{"id":"e","text":""}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"sentences":[]`) {
		t.Errorf("Expected empty sentence list, got %s", body)
	}
}

func TestAnnotateBadRequest(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"id":`},
		{"missing text", `{"id":"x"}`},
		{"wrong type", `{"id":"x","text":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, s, http.MethodPost, "/annotate", "application/json", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
			if !strings.Contains(body, `"error"`) {
				t.Errorf("Expected error body, got %s", body)
			}
		})
	}
}

func TestAnnotateFailure(t *testing.T) {
	failing := engine.Func(func(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error) {
		if text == "panic" {
			panic("kaboom")
		}
		return nil, errors.New("engine refused")
	})
	s, _ := newTestServer(t, failing)

	for _, text := range []string{"refuse", "panic"} {
		resp, body := do(t, s, http.MethodPost, "/annotate", "application/json", `{"id":"x","text":"`+text+`"}`)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", text, resp.StatusCode)
		}
		var e errorResponse
		if err := json.Unmarshal([]byte(body), &e); err != nil || e.Error == "" {
			t.Errorf("%s: expected error message, got %s", text, body)
		}
	}
}

func TestAnnotateTSV(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/annotate.tsv", "application/json", `{"id":"d2","text":"Hello world."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/tab-separated-values") {
		t.Errorf("Unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "d2\t1\tHello world.\t") {
		t.Errorf("Expected one record for d2, got %q", body)
	}
}

func TestAnnotateTSVEmptyID(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/annotate.tsv", "application/json", `{"text":"Hello world."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body != "" {
		t.Errorf("Expected empty body for empty id, got %q", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/annotate", "application/json", `{"id":"a","text":"One. Two."}`)

	resp, body := do(t, s, http.MethodGet, "/metrics", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `annotator_documents_total{outcome="emitted"} 1`) {
		t.Errorf("Expected emitted counter in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "annotator_sentences_total 2") {
		t.Errorf("Expected sentence counter in exposition")
	}
}

func TestMetricsDisabled(t *testing.T) {
	ann, err := annotator.New(annotator.Options{Engine: engine.Func(func(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error) {
		return nil, nil
	})})
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{Annotator: ann})
	resp, _ := do(t, s, http.MethodGet, "/metrics", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 without a collector, got %d", resp.StatusCode)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
