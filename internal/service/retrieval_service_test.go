package service

import (
	"context"
	"errors"
	"testing"

	"doc-chat-go/internal/model"
	"doc-chat-go/pkg/qdrant"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubSearcher struct {
	points []qdrant.ScoredPoint
	err    error
	limit  int
}

func (s *stubSearcher) Search(ctx context.Context, vector []float32, documentID uint, limit int) ([]qdrant.ScoredPoint, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

type stubChunkRepo struct {
	vectorIDs []string
}

func (s *stubChunkRepo) BatchCreate(chunks []model.DocumentChunk) error { return nil }
func (s *stubChunkRepo) FindByDocument(documentID uint) ([]model.DocumentChunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) FindVectorIDsByDocument(documentID uint) ([]string, error) {
	return s.vectorIDs, nil
}
func (s *stubChunkRepo) DeleteByDocument(documentID uint) error { return nil }

func TestSearchRejectsInvalidTopK(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{}, &stubSearcher{}, &stubChunkRepo{})
	for _, topK := range []int{0, -1, -10} {
		if _, err := svc.Search(context.Background(), 1, "query", topK); !errors.Is(err, ErrInvalidTopK) {
			t.Fatalf("topK=%d: expected ErrInvalidTopK, got %v", topK, err)
		}
	}
}

func TestSearchFiltersOrphanVectors(t *testing.T) {
	searcher := &stubSearcher{points: []qdrant.ScoredPoint{
		{ID: "v1", Score: 0.92, Payload: qdrant.Payload{DocumentID: 1, ChunkNumber: 0, Content: "alive"}},
		{ID: "orphan", Score: 0.88, Payload: qdrant.Payload{DocumentID: 1, ChunkNumber: 7, Content: "deleted"}},
		{ID: "v2", Score: 0.61, Payload: qdrant.Payload{DocumentID: 1, ChunkNumber: 2, Content: "also alive"}},
	}}
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1, 0}}, searcher, &stubChunkRepo{vectorIDs: []string{"v1", "v2"}})

	hits, err := svc.Search(context.Background(), 1, "query", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "alive" || hits[1].Content != "also alive" {
		t.Fatalf("ranking not preserved: %v", hits)
	}
	if hits[0].Score != 0.92 || hits[1].Score != 0.61 {
		t.Fatalf("scores not carried through: %v", hits)
	}
	if searcher.limit != 3 {
		t.Fatalf("expected limit 3 passed to index, got %d", searcher.limit)
	}
}

func TestSearchEmptyIndexResult(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, &stubSearcher{}, &stubChunkRepo{})
	hits, err := svc.Search(context.Background(), 1, "query", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hits)
	}
}

func TestSearchEmbeddingError(t *testing.T) {
	wantErr := errors.New("embedding down")
	svc := NewRetrievalService(&stubEmbedder{err: wantErr}, &stubSearcher{}, &stubChunkRepo{})
	if _, err := svc.Search(context.Background(), 1, "query", 3); !errors.Is(err, wantErr) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}
