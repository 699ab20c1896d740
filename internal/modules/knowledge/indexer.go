package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/attunehealth/attune-backend/internal/observability"
	"github.com/attunehealth/attune-backend/internal/platform/ctxutil"
	"github.com/attunehealth/attune-backend/internal/platform/logger"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
	"github.com/attunehealth/attune-backend/internal/types"
)

const (
	embedBatchSize   = 64
	embedConcurrency = 4
)

type Indexer struct {
	log      *logger.Logger
	embedder Embedder
	store    vectorstore.Store
	chunking ChunkConfig
}

func NewIndexer(log *logger.Logger, embedder Embedder, store vectorstore.Store, chunking policy.Chunking) *Indexer {
	return &Indexer{
		log:      log,
		embedder: embedder,
		store:    store,
		chunking: ChunkConfigFromPolicy(chunking),
	}
}

// Index chunks the document, embeds the chunks, and upserts them into the
// owner's namespace. The returned records carry the embeddings so callers can
// persist them alongside the document. A document with no usable text indexes
// to nothing and returns an empty slice.
func (ix *Indexer) Index(ctx context.Context, doc types.Document) ([]types.DocumentChunk, error) {
	ctx = ctxutil.Default(ctx)

	if doc.OwnerID == uuid.Nil {
		return nil, depErr("index", DependencyErrorInvalidOwner, errors.New("owner id is required"))
	}
	chunks := ChunkSemantic(doc.Text, ix.chunking)
	if len(chunks) == 0 {
		return []types.DocumentChunk{}, nil
	}

	embeddings, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	records := make([]types.DocumentChunk, len(chunks))
	vectors := make([]vectorstore.Vector, len(chunks))
	now := time.Now().UTC()
	for i, ch := range chunks {
		id := uuid.New()
		embJSON, merr := json.Marshal(embeddings[i])
		if merr != nil {
			return nil, depErr("index", DependencyErrorEmbeddingUnavailable, merr)
		}
		records[i] = types.DocumentChunk{
			ID:          id,
			DocumentID:  doc.ID,
			Index:       ch.Index,
			Content:     ch.Content,
			StartOffset: ch.StartOffset,
			EndOffset:   ch.EndOffset,
			Embedding:   datatypes.JSON(embJSON),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		vectors[i] = vectorstore.Vector{
			ID:     id.String(),
			Values: embeddings[i],
			Metadata: map[string]any{
				payloadDocumentID:     doc.ID.String(),
				payloadDocumentTitle:  doc.Title,
				payloadSourceCategory: doc.SourceCategory,
				payloadText:           ch.Content,
				payloadChunkIndex:     ch.Index,
			},
		}
	}

	if err := ix.store.Upsert(ctx, doc.OwnerID.String(), vectors); err != nil {
		return nil, classifyDependencyError("upsert_store", DependencyErrorStoreUnavailable, err)
	}

	ix.log.WithContext(ctx).Info("Indexed document",
		"document_id", doc.ID.String(),
		"owner_id", doc.OwnerID.String(),
		"chunk_count", len(records),
	)
	return records, nil
}

// Remove deletes previously indexed chunk vectors from the owner's namespace.
func (ix *Indexer) Remove(ctx context.Context, ownerID uuid.UUID, chunkIDs []string) error {
	ctx = ctxutil.Default(ctx)
	if ownerID == uuid.Nil {
		return depErr("remove", DependencyErrorInvalidOwner, errors.New("owner id is required"))
	}
	if len(chunkIDs) == 0 {
		return nil
	}
	if err := ix.store.DeleteIDs(ctx, ownerID.String(), chunkIDs); err != nil {
		return classifyDependencyError("delete_store", DependencyErrorStoreUnavailable, err)
	}
	return nil
}

// embedChunks runs batched embedding requests with bounded concurrency and
// preserves chunk order in the result.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	metrics := observability.Current()
	embeddings := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batchStart := start
		batch := chunks[start:end]
		g.Go(func() error {
			inputs := make([]string, len(batch))
			for i, ch := range batch {
				inputs[i] = ch.Content
			}
			callStart := time.Now()
			vecs, err := ix.embedder.Embed(gctx, inputs)
			if err != nil {
				metrics.ObserveEmbedding("error", time.Since(callStart))
				return classifyDependencyError("embed_chunks", DependencyErrorEmbeddingUnavailable, err)
			}
			metrics.ObserveEmbedding("success", time.Since(callStart))
			if len(vecs) != len(batch) {
				return depErr("embed_chunks", DependencyErrorEmbeddingUnavailable,
					errors.New("embedding count does not match input count"))
			}
			copy(embeddings[batchStart:], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}
