package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/attunehealth/attune-backend/internal/platform/ctxutil"
	"github.com/attunehealth/attune-backend/internal/platform/envutil"
	"github.com/attunehealth/attune-backend/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://api.openai.com"
	defaultEmbedModel = "text-embedding-3-small"
	defaultEmbedDim   = 1536
	maxErrorBodyBytes = 1024
)

// Client is the embedding provider consumed by the knowledge module. The
// rest of the core treats it as a black box returning fixed-length vectors.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	EmbedOne(ctx context.Context, input string) ([]float32, error)
	// Dim reports the configured vector dimensionality; it must match the
	// vector store collection schema.
	Dim() int
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	embedModel string
	embedDim   int
	http       *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, opErr("bootstrap", OperationErrorMissingAPIKey, "OPENAI_API_KEY is required", nil)
	}

	c := &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    strings.TrimRight(envutil.String("OPENAI_BASE_URL", defaultBaseURL), "/"),
		apiKey:     apiKey,
		embedModel: envutil.String("OPENAI_EMBED_MODEL", defaultEmbedModel),
		embedDim:   envutil.Int("OPENAI_EMBED_DIM", defaultEmbedDim),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	log.Info(
		"OpenAI embedding client ready",
		"base_url", c.baseURL,
		"embed_model", c.embedModel,
		"embed_dim", c.embedDim,
	)
	return c, nil
}

func (c *client) Dim() int {
	if c == nil {
		return 0
	}
	return c.embedDim
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	const op = "embed"
	if c == nil {
		return nil, opErr(op, OperationErrorTransportFailed, "client not initialized", nil)
	}
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	// The embeddings endpoint rejects empty strings; a single space keeps
	// positional alignment with the caller's inputs.
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{
		Model: c.embedModel,
		Input: clean,
	}
	var resp embeddingsResponse
	if err := c.do(ctx, op, "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}

	for i, vec := range out {
		if vec == nil {
			return nil, opErr(
				op,
				OperationErrorBadResponse,
				fmt.Sprintf("embeddings response missing index %d (requested=%d returned=%d)", i, len(clean), len(resp.Data)),
				nil,
			)
		}
		if c.embedDim > 0 && len(vec) != c.embedDim {
			return nil, opErr(
				op,
				OperationErrorBadResponse,
				fmt.Sprintf("embedding dimension mismatch: expected=%d got=%d", c.embedDim, len(vec)),
				nil,
			)
		}
	}
	return out, nil
}

func (c *client) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, opErr(
			"embed",
			OperationErrorBadResponse,
			fmt.Sprintf("expected 1 embedding, got %d", len(vecs)),
			nil,
		)
	}
	return vecs[0], nil
}

func (c *client) do(ctx context.Context, op, path string, in any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "openai request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       classifyStatus(resp.StatusCode),
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("openai http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode response failed", err)
	}
	return nil
}

func classifyStatus(status int) OperationErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return OperationErrorAuthFailed
	case http.StatusTooManyRequests:
		return OperationErrorQuotaExceeded
	default:
		return OperationErrorBadResponse
	}
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
