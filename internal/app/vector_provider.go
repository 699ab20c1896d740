package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/attunehealth/attune-backend/internal/observability"
	"github.com/attunehealth/attune-backend/internal/platform/logger"
	"github.com/attunehealth/attune-backend/internal/platform/qdrant"
	"github.com/attunehealth/attune-backend/internal/platform/vectorstore"
)

var newQdrantStore = qdrant.NewStore

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorMissingURL       VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidURL       VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingColl      VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingVectorDim VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidVectorDim VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorConfigFailed     VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed    VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorInitFailed       VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore builds the qdrant-backed store from environment config
// and wraps it with operation metrics.
func resolveVectorStore(log *logger.Logger) (vectorstore.Store, error) {
	const provider = "qdrant"

	cfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		classified := classifyVectorProviderBootstrapError(provider, err)
		logVectorBootstrapFailure(log, provider, classified)
		return nil, classified
	}

	log.Info(
		"Connecting vector store",
		"provider", provider,
		"qdrant_url", cfg.URL,
		"qdrant_collection", cfg.Collection,
		"qdrant_namespace_prefix", cfg.NamespacePrefix,
		"qdrant_vector_dim", cfg.VectorDim,
	)

	vs, err := newQdrantStore(log, cfg)
	if err != nil {
		classified := classifyVectorProviderBootstrapError(provider, err)
		logVectorBootstrapFailure(log, provider, classified)
		return nil, classified
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveVectorStoreOperation(provider, "bootstrap", "success", 0)
	}
	return instrumentVectorStore(provider, vs), nil
}

func logVectorBootstrapFailure(log *logger.Logger, provider string, err error) {
	code := vectorProviderBootstrapErrorCode(err)
	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveVectorStoreOperation(provider, "bootstrap", string(code), 0)
	}
	log.Error(
		"Vector store provider bootstrap failed",
		"provider", provider,
		"error_code", code,
		"error", err,
	)
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorConnectFailed, Provider: provider, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorConnectFailed, Provider: provider, Cause: err}
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorConnectFailed, Provider: provider, Cause: err}
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		code := VectorProviderBootstrapErrorConfigFailed
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			code = VectorProviderBootstrapErrorMissingURL
		case qdrant.ConfigErrorInvalidURL:
			code = VectorProviderBootstrapErrorInvalidURL
		case qdrant.ConfigErrorMissingCollection:
			code = VectorProviderBootstrapErrorMissingColl
		case qdrant.ConfigErrorMissingVectorDim:
			code = VectorProviderBootstrapErrorMissingVectorDim
		case qdrant.ConfigErrorInvalidVectorDim:
			code = VectorProviderBootstrapErrorInvalidVectorDim
		}
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	return &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorInitFailed, Provider: provider, Cause: err}
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
