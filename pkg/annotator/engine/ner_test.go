package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

func nerTags(tokens []string) []string {
	var tagger Tagger
	return NewRecognizer(nil).Tag(tokens, tagger.Tag(tokens))
}

func TestRecognizer(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{
			"gazetteer longest match",
			[]string{"She", "moved", "to", "New", "York", "City", "."},
			[]string{"O", "O", "O", "LOCATION", "LOCATION", "LOCATION", "O"},
		},
		{
			"person after title",
			[]string{"Mr.", "Smith", "arrived", "."},
			[]string{"O", "PERSON", "O", "O"},
		},
		{
			"date and percent",
			[]string{"On", "March", "5", ",", "2021", ",", "prices", "rose", "10", "%", "."},
			[]string{"O", "DATE", "DATE", "DATE", "DATE", "O", "O", "O", "PERCENT", "PERCENT", "O"},
		},
		{
			"money",
			[]string{"It", "cost", "$", "5", "."},
			[]string{"O", "O", "MONEY", "MONEY", "O"},
		},
		{
			"organization suffix",
			[]string{"Acme", "Widgets", "Inc.", "reported", "."},
			[]string{"ORGANIZATION", "ORGANIZATION", "ORGANIZATION", "O", "O"},
		},
		{
			"location after preposition",
			[]string{"He", "lives", "in", "Springfield", "."},
			[]string{"O", "O", "O", "LOCATION", "O"},
		},
		{
			"two-word name",
			[]string{"Yesterday", "Jane", "Doe", "called", "."},
			[]string{"DATE", "PERSON", "PERSON", "O", "O"},
		},
		{
			"lowercase gazetteer word",
			[]string{"we", "ate", "turkey", "in", "china", "cups"},
			[]string{"O", "O", "O", "O", "O", "O"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nerTags(tt.tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGazetteerAddOverrides(t *testing.T) {
	g := NewGazetteer()
	g.Add("LOCATION", []string{"Georgia"})
	g.Add("PERSON", []string{"Georgia"})

	got := NewRecognizer(g).Tag([]string{"Georgia", "smiled"}, nil)
	if got[0] != "PERSON" {
		t.Errorf("Expected later Add to win, got %q", got[0])
	}
}

func TestGazetteerMerge(t *testing.T) {
	g := NewGazetteer()
	g.Add("MISC", []string{"Nobel Peace Prize"})
	base := DefaultGazetteer()
	n := base.Len()
	base.Merge(g)

	if base.Len() != n+1 {
		t.Errorf("Expected %d phrases after merge, got %d", n+1, base.Len())
	}
	tags := NewRecognizer(base).Tag([]string{"the", "Nobel", "Peace", "Prize"}, nil)
	want := []string{"O", "MISC", "MISC", "MISC"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Expected %q, got %q", want, tags)
	}
}

func TestLoadGazetteer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaz.yaml")
	content := `entities:
  location: [Gotham, Metropolis]
  ORGANIZATION:
    - Wayne Enterprises
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGazetteer(path)
	if err != nil {
		t.Fatalf("LoadGazetteer failed: %v", err)
	}
	if g.Len() != 3 {
		t.Errorf("Expected 3 phrases, got %d", g.Len())
	}
	if want := []string{"LOCATION", "ORGANIZATION"}; !reflect.DeepEqual(g.Types(), want) {
		t.Errorf("Expected types %v, got %v", want, g.Types())
	}

	tags := NewRecognizer(g).Tag([]string{"Wayne", "Enterprises", "left", "Gotham"}, nil)
	want := []string{"ORGANIZATION", "ORGANIZATION", "O", "LOCATION"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Expected %q, got %q", want, tags)
	}
}

func TestLoadGazetteerErrors(t *testing.T) {
	if _, err := LoadGazetteer(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("entities: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadGazetteer(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
