package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/wattsjs/askcisco/internal/cache"
	"github.com/wattsjs/askcisco/internal/retrieval"
)

// DocumentRetriever is the retrieval surface the pipeline depends on.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, filter retrieval.Filter) ([]retrieval.Document, error)
}

// AnswerCache is the answer store surface the pipeline depends on.
type AnswerCache interface {
	Lookup(ctx context.Context, filter retrieval.Filter, question string) (string, error)
	Save(ctx context.Context, filter retrieval.Filter, question, answer string) error
}

// Pipeline answers one chat request at a time. Each request is an
// independent, stateless invocation; the only shared state lives behind the
// injected cache and retriever.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	g         *genkit.Genkit
	model     string
	condenser *Condenser
	retriever DocumentRetriever
	answers   AnswerCache // nil disables answer caching
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline. answers may be nil to disable caching;
// logger may be nil.
func NewPipeline(g *genkit.Genkit, model string, condenser *Condenser, retriever DocumentRetriever, answers AnswerCache, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		g:         g,
		model:     model,
		condenser: condenser,
		retriever: retriever,
		answers:   answers,
		logger:    logger,
	}
}

// Exchange is one prepared request, ready to stream. Prepare runs everything
// up to and including prompt assembly; Stream runs the generation call and
// the conditional cache write.
type Exchange struct {
	// Sources is the deduplicated citation metadata attached to the
	// response header. Never nil.
	Sources []retrieval.Metadata
	// CacheHit reports whether Prepare found a stored answer, in which
	// case Answer holds it and Stream performs no generation call.
	CacheHit bool
	// Answer is the cached answer text. Empty unless CacheHit.
	Answer string

	p         *Pipeline
	messages  []*ai.Message
	cacheable bool
	filter    retrieval.Filter
	question  string
}

// Prepare validates the request, condenses the conversation into a query,
// consults the answer cache, retrieves and deduplicates documents, and
// assembles the prompt. No generation call is made except condensation.
//
// Errors from validation wrap ErrMalformedRequest; everything else is a
// downstream failure. A cache read failure is treated as a miss.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (*Exchange, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	singleTurn := req.singleTurn()
	question := req.firstUserQuestion()

	// Only single-turn conversations touch the cache: the key encodes just
	// the first question, so a multi-turn answer stored under it would be
	// wrong for the next client asking that question cold.
	if singleTurn && p.answers != nil {
		answer, err := p.answers.Lookup(ctx, req.Filter, question)
		switch {
		case err == nil:
			p.logger.Info("answer served from cache")
			return &Exchange{
				Sources:  []retrieval.Metadata{},
				CacheHit: true,
				Answer:   answer,
				p:        p,
			}, nil
		case !errors.Is(err, cache.ErrMiss):
			p.logger.Warn("cache lookup failed, continuing to generation", "error", err)
		}
	}

	query, err := p.condenser.Condense(ctx, req)
	if err != nil {
		return nil, err
	}

	docs, err := p.retriever.Retrieve(ctx, query, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}
	// Chunks of the same source all contribute context, but the citation
	// metadata lists each source once.
	unique := retrieval.Dedupe(docs)
	sources := make([]retrieval.Metadata, len(unique))
	for i, doc := range unique {
		sources[i] = doc.Metadata()
	}

	p.logger.Debug("prepared exchange",
		"single_turn", singleTurn,
		"documents", len(docs),
	)
	return &Exchange{
		Sources:   sources,
		p:         p,
		messages:  assemblePrompt(docs, req.priorUserTurns(), query),
		cacheable: singleTurn && p.answers != nil,
		filter:    req.Filter,
		question:  question,
	}, nil
}

// Stream runs the generation call, forwarding each produced chunk to onChunk
// as soon as it arrives, and returns the full answer text. On a cache hit the
// stored answer is delivered as a single chunk.
//
// The answer is written to the cache only after the stream completes
// normally. A canceled context or a mid-stream failure never caches; a cache
// write failure is logged and dropped, never surfaced.
func (e *Exchange) Stream(ctx context.Context, onChunk func(string) error) (string, error) {
	if e.CacheHit {
		if err := onChunk(e.Answer); err != nil {
			return "", err
		}
		return e.Answer, nil
	}

	resp, err := genkit.Generate(ctx, e.p.g,
		ai.WithModelName(e.p.model),
		ai.WithMessages(e.messages...),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return onChunk(chunk.Text())
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	answer := resp.Text()

	if e.cacheable {
		// The response is already fully delivered; request teardown must
		// not cut the write short.
		saveCtx := context.WithoutCancel(ctx)
		if err := e.p.answers.Save(saveCtx, e.filter, e.question, answer); err != nil {
			e.p.logger.Warn("caching answer failed", "error", err)
		}
	}
	return answer, nil
}
