package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
	"github.com/attunehealth/attune-backend/internal/types"
)

func testDocument(ownerID uuid.UUID, text string) types.Document {
	return types.Document{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          "Anxiety Protocol",
		SourceCategory: "protocol",
		Text:           text,
	}
}

func TestIndexEmptyDocument(t *testing.T) {
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, &fakeStore{}, policy.Chunking{})

	got, err := ix.Index(context.Background(), testDocument(uuid.New(), "   \n "))
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("record count: want=0 got=%d", len(got))
	}
}

func TestIndexRequiresOwner(t *testing.T) {
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, &fakeStore{}, policy.Chunking{})

	_, err := ix.Index(context.Background(), testDocument(uuid.Nil, "some text"))
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorInvalidOwner {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorInvalidOwner, depErr.Code)
	}
}

func TestIndexUpsertsChunksWithPayload(t *testing.T) {
	ownerID := uuid.New()
	doc := testDocument(ownerID, strings.Repeat("The protocol begins with psychoeducation. ", 60))

	var mu sync.Mutex
	var gotNamespace string
	var gotVectors []vectorstore.Vector
	store := &fakeStore{
		upsertFn: func(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
			mu.Lock()
			defer mu.Unlock()
			gotNamespace = namespace
			gotVectors = append(gotVectors, vectors...)
			return nil
		},
	}
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, store, policy.Chunking{TargetSize: 400, Overlap: 80})

	records, err := ix.Index(context.Background(), doc)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("record count: want>=2 got=%d", len(records))
	}
	if gotNamespace != ownerID.String() {
		t.Fatalf("namespace: want=%s got=%s", ownerID.String(), gotNamespace)
	}
	if len(gotVectors) != len(records) {
		t.Fatalf("vector count: want=%d got=%d", len(records), len(gotVectors))
	}

	for i, rec := range records {
		if rec.ID == uuid.Nil {
			t.Fatalf("record %d: missing id", i)
		}
		if rec.DocumentID != doc.ID {
			t.Fatalf("record %d document id: want=%s got=%s", i, doc.ID, rec.DocumentID)
		}
		if rec.Index != i {
			t.Fatalf("record %d index: want=%d got=%d", i, i, rec.Index)
		}
		var emb []float32
		if err := json.Unmarshal(rec.Embedding, &emb); err != nil {
			t.Fatalf("record %d embedding decode: %v", i, err)
		}
		if len(emb) == 0 {
			t.Fatalf("record %d: empty embedding", i)
		}
	}

	byID := map[string]vectorstore.Vector{}
	for _, v := range gotVectors {
		byID[v.ID] = v
	}
	first := byID[records[0].ID.String()]
	if first.ID == "" {
		t.Fatalf("vector for first record not upserted")
	}
	if first.Metadata[payloadDocumentID] != doc.ID.String() {
		t.Fatalf("payload document id: want=%s got=%v", doc.ID.String(), first.Metadata[payloadDocumentID])
	}
	if first.Metadata[payloadDocumentTitle] != doc.Title {
		t.Fatalf("payload title: want=%q got=%v", doc.Title, first.Metadata[payloadDocumentTitle])
	}
	if first.Metadata[payloadSourceCategory] != doc.SourceCategory {
		t.Fatalf("payload category: want=%q got=%v", doc.SourceCategory, first.Metadata[payloadSourceCategory])
	}
	if first.Metadata[payloadText] != records[0].Content {
		t.Fatalf("payload text mismatch for first chunk")
	}
}

func TestIndexEmbeddingFailureSurfaces(t *testing.T) {
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{
		embedFn: func(ctx context.Context, inputs []string) ([][]float32, error) {
			return nil, errors.New("auth failed")
		},
	}, &fakeStore{}, policy.Chunking{})

	_, err := ix.Index(context.Background(), testDocument(uuid.New(), "some clinical text"))
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorEmbeddingUnavailable {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorEmbeddingUnavailable, depErr.Code)
	}
}

func TestIndexStoreFailureSurfaces(t *testing.T) {
	store := &fakeStore{
		upsertFn: func(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
			return errors.New("unavailable")
		},
	}
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, store, policy.Chunking{})

	_, err := ix.Index(context.Background(), testDocument(uuid.New(), "some clinical text"))
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("error type: want=*DependencyError got=%T", err)
	}
	if depErr.Code != DependencyErrorStoreUnavailable {
		t.Fatalf("error code: want=%s got=%s", DependencyErrorStoreUnavailable, depErr.Code)
	}
}

func TestRemoveDeletesFromOwnerNamespace(t *testing.T) {
	ownerID := uuid.New()
	var gotNamespace string
	var gotIDs []string
	store := &fakeStore{
		deleteFn: func(ctx context.Context, namespace string, ids []string) error {
			gotNamespace = namespace
			gotIDs = ids
			return nil
		},
	}
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, store, policy.Chunking{})

	if err := ix.Remove(context.Background(), ownerID, []string{"chunk-1", "chunk-2"}); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if gotNamespace != ownerID.String() {
		t.Fatalf("namespace: want=%s got=%s", ownerID.String(), gotNamespace)
	}
	if len(gotIDs) != 2 {
		t.Fatalf("id count: want=2 got=%d", len(gotIDs))
	}
}

func TestRemoveNoIDsIsNoop(t *testing.T) {
	deleteCalls := 0
	store := &fakeStore{
		deleteFn: func(ctx context.Context, namespace string, ids []string) error {
			deleteCalls++
			return nil
		},
	}
	ix := NewIndexer(newTestLogger(t), &fakeEmbedder{}, store, policy.Chunking{})

	if err := ix.Remove(context.Background(), uuid.New(), nil); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if deleteCalls != 0 {
		t.Fatalf("delete calls: want=0 got=%d", deleteCalls)
	}
}
