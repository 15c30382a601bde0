package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/wattsjs/askcisco/internal/index"
)

// Searcher is the vector index surface the retriever depends on.
type Searcher interface {
	Search(ctx context.Context, vector []float32, params index.SearchParams) ([]index.Point, error)
}

// Config tunes retrieval.
type Config struct {
	// Limit caps how many chunks one search returns.
	Limit int
	// ScoreThreshold suppresses matches below this similarity. Zero disables it.
	ScoreThreshold float32
}

// Retriever embeds a query and searches the vector index for matching
// documentation chunks.
//
// Retriever is safe for concurrent use by multiple goroutines.
type Retriever struct {
	embedder ai.Embedder
	index    Searcher
	cfg      Config
	logger   *slog.Logger
}

// NewRetriever creates a Retriever. logger may be nil.
func NewRetriever(embedder ai.Embedder, idx Searcher, cfg Config, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    idx,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve returns documents matching the query and filter, ranked by
// similarity. An empty result is a valid outcome. Results are not
// deduplicated; callers collapse chunks with Dedupe.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter Filter) ([]Document, error) {
	resp, err := r.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(query, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	points, err := r.index.Search(ctx, resp.Embeddings[0].Embedding, index.SearchParams{
		Limit:          r.cfg.Limit,
		ScoreThreshold: r.cfg.ScoreThreshold,
		Predicate:      filter.Predicate(),
	})
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	docs := make([]Document, len(points))
	for i, p := range points {
		docs[i] = documentFromPoint(p)
	}

	r.logger.Debug("retrieved documents",
		"query_length", len(query),
		"product", filter.Product,
		"version", filter.Version,
		"count", len(docs),
	)
	return docs, nil
}
