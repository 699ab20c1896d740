package app

import (
	"github.com/attunehealth/attune-backend/internal/modules/knowledge"
	"github.com/attunehealth/attune-backend/internal/observability"
	"github.com/attunehealth/attune-backend/internal/platform/envutil"
	"github.com/attunehealth/attune-backend/internal/platform/logger"
	"github.com/attunehealth/attune-backend/internal/platform/openai"
	"github.com/attunehealth/attune-backend/internal/platform/policy"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
)

// Core wires the content-processing services behind environment config. The
// aggregation, risk, and plan packages are pure and need no wiring; only the
// knowledge path carries external providers.
type Core struct {
	Log       *logger.Logger
	Policy    policy.Policy
	Embedder  openai.Client
	Vectors   vectorstore.Store
	Retriever *knowledge.Retriever
	Indexer   *knowledge.Indexer
}

func New() (*Core, error) {
	log, err := logger.New(envutil.String("APP_ENV", "dev"))
	if err != nil {
		return nil, err
	}
	observability.Init(log)

	pol, err := policy.ResolveFromEnv()
	if err != nil {
		log.Error("Policy load failed", "error", err)
		return nil, err
	}

	embedder, err := openai.NewClient(log)
	if err != nil {
		log.Error("Embedding client init failed", "error", err)
		return nil, err
	}

	vectors, err := resolveVectorStore(log)
	if err != nil {
		return nil, err
	}

	return &Core{
		Log:       log,
		Policy:    pol,
		Embedder:  embedder,
		Vectors:   vectors,
		Retriever: knowledge.NewRetriever(log, embedder, vectors, pol.Retrieval),
		Indexer:   knowledge.NewIndexer(log, embedder, vectors, pol.Chunking),
	}, nil
}
