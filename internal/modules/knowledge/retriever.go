package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attunehealth/attune-backend/internal/normalization"
	"github.com/attunehealth/attune-backend/internal/observability"
	"github.com/attunehealth/attune-backend/internal/platform/ctxutil"
	"github.com/attunehealth/attune-backend/internal/platform/logger"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
	"github.com/attunehealth/attune-backend/internal/types"
)

// Payload keys written at index time and read back at query time.
const (
	payloadDocumentID     = "document_id"
	payloadDocumentTitle  = "document_title"
	payloadSourceCategory = "source_category"
	payloadText           = "text"
	payloadChunkIndex     = "chunk_index"
)

// Embedder is the slice of the embedding client retrieval depends on.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	EmbedOne(ctx context.Context, input string) ([]float32, error)
}

type Retriever struct {
	log      *logger.Logger
	embedder Embedder
	store    vectorstore.Store
	defaults policy.Retrieval
}

func NewRetriever(log *logger.Logger, embedder Embedder, store vectorstore.Store, defaults policy.Retrieval) *Retriever {
	def := policy.Default().Retrieval
	if defaults.Limit <= 0 {
		defaults.Limit = def.Limit
	}
	if defaults.MinSimilarity <= 0 || defaults.MinSimilarity > 1 {
		defaults.MinSimilarity = def.MinSimilarity
	}
	return &Retriever{log: log, embedder: embedder, store: store, defaults: defaults}
}

// RetrieveOptions narrows or loosens a single retrieval. Zero values fall
// back to the configured defaults.
type RetrieveOptions struct {
	Limit            int
	MinSimilarity    float64
	SourceCategories []string
	Timeout          time.Duration
}

// Retrieve embeds the query and returns the owner's most similar chunks at or
// above the similarity floor, ordered by descending similarity with chunk id
// as the tie break. A blank query returns an empty slice without touching the
// providers.
func (r *Retriever) Retrieve(ctx context.Context, ownerID uuid.UUID, query string, opts RetrieveOptions) ([]types.RetrievedChunk, error) {
	ctx = ctxutil.Default(ctx)
	metrics := observability.Current()

	query = strings.TrimSpace(query)
	if query == "" {
		return []types.RetrievedChunk{}, nil
	}
	if ownerID == uuid.Nil {
		metrics.IncRetrieval("invalid_owner")
		return nil, depErr("retrieve", DependencyErrorInvalidOwner, errors.New("owner id is required"))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = r.defaults.Limit
	}
	minSim := opts.MinSimilarity
	if minSim <= 0 || minSim > 1 {
		minSim = r.defaults.MinSimilarity
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	embedStart := time.Now()
	vec, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		metrics.ObserveEmbedding("error", time.Since(embedStart))
		metrics.IncRetrieval("embed_error")
		return nil, classifyDependencyError("embed_query", DependencyErrorEmbeddingUnavailable, err)
	}
	metrics.ObserveEmbedding("success", time.Since(embedStart))

	categories := cleanCategories(opts.SourceCategories)
	var filter map[string]any
	if len(categories) > 0 {
		filter = map[string]any{payloadSourceCategory: map[string]any{"$in": categories}}
	}

	matches, err := r.store.Query(ctx, ownerID.String(), vec, limit, filter)
	if err != nil {
		metrics.IncRetrieval("store_error")
		return nil, classifyDependencyError("query_store", DependencyErrorStoreUnavailable, err)
	}

	out := make([]types.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		if m.Score < minSim {
			continue
		}
		rc := retrievedChunkFromMatch(m)
		if len(categories) > 0 && !categoryAllowed(rc.SourceCategory, categories) {
			continue
		}
		out = append(out, rc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if len(out) > limit {
		out = out[:limit]
	}

	metrics.IncRetrieval("success")
	r.log.WithContext(ctx).Debug("Retrieved knowledge chunks",
		"owner_id", ownerID.String(),
		"match_count", len(out),
		"limit", limit,
		"min_similarity", minSim,
	)
	return out, nil
}

func retrievedChunkFromMatch(m vectorstore.Match) types.RetrievedChunk {
	rc := types.RetrievedChunk{
		ChunkID:    m.ID,
		Similarity: m.Score,
	}
	if m.Payload == nil {
		return rc
	}
	if raw, ok := m.Payload[payloadDocumentID].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			rc.DocumentID = id
		}
	}
	if s, ok := m.Payload[payloadText].(string); ok {
		rc.Content = s
	}
	if s, ok := m.Payload[payloadDocumentTitle].(string); ok {
		rc.DocumentTitle = s
	}
	if s, ok := m.Payload[payloadSourceCategory].(string); ok {
		rc.SourceCategory = s
	}
	return rc
}

func cleanCategories(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func categoryAllowed(category string, allowed []string) bool {
	for _, c := range allowed {
		if normalization.Fold(c) == normalization.Fold(category) {
			return true
		}
	}
	return false
}

// classifyDependencyError maps provider failures onto the retrieval error
// taxonomy, distinguishing timeouts from plain unavailability.
func classifyDependencyError(op string, fallback DependencyErrorCode, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return depErr(op, DependencyErrorTimeout, err)
	}
	var ta timeoutAware
	if errors.As(err, &ta) && ta.Timeout() {
		return depErr(op, DependencyErrorTimeout, err)
	}
	return depErr(op, fallback, err)
}
