package domain

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// recordingEmbedder returns one fixed vector per call and keeps every text it saw.
type recordingEmbedder struct {
	vec    []float32
	tokens int
	err    error
	seen   []string
}

func (r *recordingEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	r.seen = append(r.seen, text)
	if r.err != nil {
		return EmbeddingResult{}, r.err
	}
	return EmbeddingResult{Embedding: r.vec, PromptTokens: r.tokens, TotalTokens: r.tokens}, nil
}

// recordingBatchEmbedder also serves the batch path.
type recordingBatchEmbedder struct {
	recordingEmbedder
	batches [][]string
}

func (r *recordingBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	r.batches = append(r.batches, texts)
	if r.err != nil {
		return BatchEmbeddingResult{}, r.err
	}
	out := BatchEmbeddingResult{TotalTokens: r.tokens * len(texts)}
	for range texts {
		out.Embeddings = append(out.Embeddings, r.vec)
	}
	return out, nil
}

func TestInstructionEmbedder_Embed(t *testing.T) {
	tests := []struct {
		instruction, text, want string
	}{
		{"query: ", "apps críticas en Chile", "query: apps críticas en Chile"},
		{"", "apps críticas en Chile", "apps críticas en Chile"},
	}
	for _, tt := range tests {
		inner := &recordingEmbedder{vec: []float32{1, 0, 0}}
		res, err := NewInstructionEmbedder(inner, tt.instruction).Embed(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("instruction %q: %v", tt.instruction, err)
		}
		if len(inner.seen) != 1 || inner.seen[0] != tt.want {
			t.Errorf("instruction %q: inner saw %q, want %q", tt.instruction, inner.seen, tt.want)
		}
		if len(res.Embedding) != 3 {
			t.Errorf("instruction %q: vector length %d", tt.instruction, len(res.Embedding))
		}
	}
}

func TestInstructionEmbedder_EmbedWrapsError(t *testing.T) {
	inner := &recordingEmbedder{err: ErrEmbeddingProviderError}
	_, err := NewInstructionEmbedder(inner, "query: ").Embed(context.Background(), "x")
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError in chain, got %v", err)
	}
}

func TestInstructionEmbedder_BatchUsesInnerBatch(t *testing.T) {
	inner := &recordingBatchEmbedder{recordingEmbedder: recordingEmbedder{vec: []float32{0.5}, tokens: 4}}
	res, err := NewInstructionEmbedder(inner, "passage: ").BatchEmbed(context.Background(), []string{"CRM", "ERP"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(inner.batches) != 1 || len(inner.seen) != 0 {
		t.Fatalf("expected one batch call and no single calls, got %d/%d", len(inner.batches), len(inner.seen))
	}
	if want := []string{"passage: CRM", "passage: ERP"}; !reflect.DeepEqual(inner.batches[0], want) {
		t.Errorf("batch texts = %q, want %q", inner.batches[0], want)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 8 {
		t.Errorf("embeddings=%d tokens=%d", len(res.Embeddings), res.TotalTokens)
	}
}

func TestInstructionEmbedder_BatchFallsBackToSingle(t *testing.T) {
	inner := &recordingEmbedder{vec: []float32{0.5}, tokens: 3}
	res, err := NewInstructionEmbedder(inner, "q: ").BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if want := []string{"q: a", "q: b"}; !reflect.DeepEqual(inner.seen, want) {
		t.Errorf("single calls = %q, want %q", inner.seen, want)
	}
	if res.TotalTokens != 6 {
		t.Errorf("total tokens = %d, want 6", res.TotalTokens)
	}
}

func TestInstructionEmbedder_BatchWrapsError(t *testing.T) {
	inner := &recordingBatchEmbedder{recordingEmbedder: recordingEmbedder{err: ErrEmbeddingProviderError}}
	_, err := NewInstructionEmbedder(inner, "x: ").BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError in chain, got %v", err)
	}
}

func TestBatchFallback(t *testing.T) {
	inner := &recordingEmbedder{vec: []float32{0.1, 0.2}, tokens: 5}
	res, err := BatchFallback(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchFallback: %v", err)
	}
	if len(res.Embeddings) != 3 || res.PromptTokens != 15 || res.TotalTokens != 15 {
		t.Fatalf("got %d embeddings, tokens %d/%d", len(res.Embeddings), res.PromptTokens, res.TotalTokens)
	}

	empty, err := BatchFallback(context.Background(), inner, nil)
	if err != nil || len(empty.Embeddings) != 0 {
		t.Fatalf("empty input: %v %v", empty.Embeddings, err)
	}
}

func TestBatchFallback_StopsOnFirstError(t *testing.T) {
	boom := errors.New("provider down")
	inner := &recordingEmbedder{err: boom}
	_, err := BatchFallback(context.Background(), inner, []string{"a", "b"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(inner.seen) != 1 {
		t.Fatalf("expected to stop after first failure, calls=%d", len(inner.seen))
	}
}
