package request

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/portfolio-rag/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  hola  ", 0, 0, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Question() != "hola" {
		t.Errorf("Question() = %q, want trimmed", r.Question())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if !r.IncludeMetadata() {
		t.Error("IncludeMetadata() = false")
	}
}

func TestNew_ConfiguredDefault(t *testing.T) {
	r, err := New("q", 0, 8, 20, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TopK() != 8 {
		t.Errorf("TopK() = %d, want 8", r.TopK())
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	tests := []struct {
		name string
		k    int
		max  int
		want int
	}{
		{"negative uses default", -3, 20, DefaultTopK},
		{"above max", 100, 20, 20},
		{"within range", 7, 20, 7},
		{"global max", 1000, 0, MaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New("q", tt.k, 0, tt.max, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.TopK() != tt.want {
				t.Errorf("TopK() = %d, want %d", r.TopK(), tt.want)
			}
		})
	}
}

func TestNew_EmptyQuestion(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := New(q, 5, 0, 0, true)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("New(%q) err = %v, want ErrInvalidInput", q, err)
		}
	}
}
