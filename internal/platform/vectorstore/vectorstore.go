package vectorstore

import "context"

// Store is the vector index abstraction the knowledge module depends on.
// Namespaces carry tenant isolation: every read and write is scoped to the
// owning therapist's namespace and adapters must never return points from
// another namespace.
type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	// Query returns matches ordered by descending score (higher is better)
	// together with their stored payloads.
	Query(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]Match, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}
