package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attunehealth/attune-backend/internal/platform/logger"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
)

type fakeEmbedder struct {
	embedFn    func(ctx context.Context, inputs []string) ([][]float32, error)
	embedOneFn func(ctx context.Context, input string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	if f.embedOneFn != nil {
		return f.embedOneFn(ctx, input)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeStore struct {
	queryFn  func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error)
	upsertFn func(ctx context.Context, namespace string, vectors []vectorstore.Vector) error
	deleteFn func(ctx context.Context, namespace string, ids []string) error
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, namespace, vectors)
	}
	return nil
}

func (f *fakeStore) Query(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, namespace, q, topK, filter)
	}
	return []vectorstore.Match{}, nil
}

func (f *fakeStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, namespace, ids)
	}
	return nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func match(id string, score float64, payload map[string]any) vectorstore.Match {
	return vectorstore.Match{ID: id, Score: score, Payload: payload}
}

func chunkPayload(docID uuid.UUID, title, category, text string) map[string]any {
	return map[string]any{
		payloadDocumentID:     docID.String(),
		payloadDocumentTitle:  title,
		payloadSourceCategory: category,
		payloadText:           text,
		payloadChunkIndex:     0,
	}
}

func TestRetrieveBlankQueryReturnsEmpty(t *testing.T) {
	embedCalls := 0
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{
		embedOneFn: func(ctx context.Context, input string) ([]float32, error) {
			embedCalls++
			return []float32{1}, nil
		},
	}, &fakeStore{}, policy.Retrieval{})

	got, err := r.Retrieve(context.Background(), uuid.New(), "   ", RetrieveOptions{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("result count: want=0 got=%d", len(got))
	}
	if embedCalls != 0 {
		t.Fatalf("embed calls: want=0 got=%d", embedCalls)
	}
}

func TestRetrieveRequiresOwner(t *testing.T) {
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, &fakeStore{}, policy.Retrieval{})

	_, err := r.Retrieve(context.Background(), uuid.Nil, "anxiety coping", RetrieveOptions{})
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorInvalidOwner {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorInvalidOwner, depErr.Code)
	}
}

func TestRetrieveQueriesOwnerNamespace(t *testing.T) {
	ownerID := uuid.New()
	var gotNamespace string
	store := &fakeStore{
		queryFn: func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
			gotNamespace = namespace
			return []vectorstore.Match{}, nil
		},
	}
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, store, policy.Retrieval{})

	got, err := r.Retrieve(context.Background(), ownerID, "sleep hygiene", RetrieveOptions{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("result count: want=0 got=%d", len(got))
	}
	if gotNamespace != ownerID.String() {
		t.Fatalf("namespace: want=%s got=%s", ownerID.String(), gotNamespace)
	}
}

func TestRetrieveFiltersBelowThresholdAndSorts(t *testing.T) {
	docID := uuid.New()
	store := &fakeStore{
		queryFn: func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
			return []vectorstore.Match{
				match("chunk-b", 0.82, chunkPayload(docID, "CBT Worksheets", "worksheet", "thought record")),
				match("chunk-a", 0.91, chunkPayload(docID, "CBT Worksheets", "worksheet", "exposure ladder")),
				match("chunk-c", 0.42, chunkPayload(docID, "CBT Worksheets", "worksheet", "low relevance")),
				match("chunk-d", 0.91, chunkPayload(docID, "CBT Worksheets", "worksheet", "tie breaker")),
			}, nil
		},
	}
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, store, policy.Retrieval{Limit: 5, MinSimilarity: 0.7})

	got, err := r.Retrieve(context.Background(), uuid.New(), "exposure hierarchy", RetrieveOptions{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("result count: want=3 got=%d", len(got))
	}
	wantOrder := []string{"chunk-a", "chunk-d", "chunk-b"}
	for i, want := range wantOrder {
		if got[i].ChunkID != want {
			t.Fatalf("result %d: want=%s got=%s", i, want, got[i].ChunkID)
		}
	}
	for _, rc := range got {
		if rc.Similarity < 0.7 {
			t.Fatalf("similarity below floor: %v", rc.Similarity)
		}
	}
	if got[0].DocumentID != docID {
		t.Fatalf("document id: want=%s got=%s", docID, got[0].DocumentID)
	}
	if got[0].Content != "exposure ladder" {
		t.Fatalf("content: want=%q got=%q", "exposure ladder", got[0].Content)
	}
}

func TestRetrieveSourceCategoryFilter(t *testing.T) {
	docID := uuid.New()
	var gotFilter map[string]any
	store := &fakeStore{
		queryFn: func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
			gotFilter = filter
			return []vectorstore.Match{
				match("chunk-1", 0.9, chunkPayload(docID, "Worksheets", "worksheet", "keep")),
				match("chunk-2", 0.9, chunkPayload(docID, "Old Notes", "session_note", "drop")),
			}, nil
		},
	}
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, store, policy.Retrieval{})

	got, err := r.Retrieve(context.Background(), uuid.New(), "worksheet", RetrieveOptions{
		SourceCategories: []string{"worksheet"},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if gotFilter == nil {
		t.Fatalf("expected category filter passed to store")
	}
	if len(got) != 1 {
		t.Fatalf("result count: want=1 got=%d", len(got))
	}
	if got[0].ChunkID != "chunk-1" {
		t.Fatalf("result: want=chunk-1 got=%s", got[0].ChunkID)
	}
}

func TestRetrieveAppliesLimit(t *testing.T) {
	docID := uuid.New()
	store := &fakeStore{
		queryFn: func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
			return []vectorstore.Match{
				match("chunk-1", 0.99, chunkPayload(docID, "t", "c", "a")),
				match("chunk-2", 0.98, chunkPayload(docID, "t", "c", "b")),
				match("chunk-3", 0.97, chunkPayload(docID, "t", "c", "c")),
			}, nil
		},
	}
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, store, policy.Retrieval{})

	got, err := r.Retrieve(context.Background(), uuid.New(), "query", RetrieveOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("result count: want=2 got=%d", len(got))
	}
}

func TestRetrieveEmbeddingFailureSurfaces(t *testing.T) {
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{
		embedOneFn: func(ctx context.Context, input string) ([]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}, &fakeStore{}, policy.Retrieval{})

	_, err := r.Retrieve(context.Background(), uuid.New(), "query", RetrieveOptions{})
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorEmbeddingUnavailable {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorEmbeddingUnavailable, depErr.Code)
	}
}

func TestRetrieveStoreFailureSurfaces(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.Match, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{}, store, policy.Retrieval{})

	_, err := r.Retrieve(context.Background(), uuid.New(), "query", RetrieveOptions{})
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorStoreUnavailable {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorStoreUnavailable, depErr.Code)
	}
}

func TestRetrieveDeadlineClassifiedAsTimeout(t *testing.T) {
	r := NewRetriever(newTestLogger(t), &fakeEmbedder{
		embedOneFn: func(ctx context.Context, input string) ([]float32, error) {
			return nil, context.DeadlineExceeded
		},
	}, &fakeStore{}, policy.Retrieval{})

	_, err := r.Retrieve(context.Background(), uuid.New(), "query", RetrieveOptions{Timeout: time.Second})
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorTimeout {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorTimeout, depErr.Code)
	}
	if !depErr.Timeout() {
		t.Fatalf("Timeout(): want=true got=false")
	}
}
