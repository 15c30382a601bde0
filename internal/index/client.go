package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Point is one ranked similarity match returned by the index.
// Payload carries the chunk content plus its metadata map.
type Point struct {
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Client is a minimal REST client for a Qdrant collection.
// It only issues point searches; collection management and ingestion are
// owned by the indexing pipeline, not this service.
type Client struct {
	url        string
	apiKey     string
	collection string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration // zero = 30s
}

// NewClient creates a Qdrant client. logger may be nil.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SearchParams tune one similarity search.
type SearchParams struct {
	Limit int
	// ScoreThreshold suppresses matches below this similarity. Zero disables it.
	ScoreThreshold float32
	// Predicate restricts matches by payload metadata. Nil searches everything.
	Predicate Predicate
}

// Search runs a similarity search and returns points ranked by score.
// An empty result is a valid outcome, not an error. Transport and service
// failures propagate to the caller; there are no retries.
func (c *Client) Search(ctx context.Context, vector []float32, params SearchParams) ([]Point, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        params.Limit,
		"with_payload": true,
	}
	if params.ScoreThreshold > 0 {
		body["score_threshold"] = params.ScoreThreshold
	}
	if filter := FilterJSON(params.Predicate); filter != nil {
		body["filter"] = filter
	}

	var resp struct {
		Result []Point `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.url, c.collection)
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	c.logger.Debug("vector search completed",
		"collection", c.collection,
		"limit", params.Limit,
		"results", len(resp.Result),
	)
	return resp.Result, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Read a bounded slice of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", url, resp.Status, bytes.TrimSpace(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
