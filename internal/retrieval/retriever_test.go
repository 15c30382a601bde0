package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/wattsjs/askcisco/internal/index"
	"github.com/wattsjs/askcisco/internal/log"
)

type mockEmbedder struct {
	err    error
	empty  bool
	inputs []string
}

func (m *mockEmbedder) Name() string            { return "mock-embedder" }
func (m *mockEmbedder) Register(_ api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		m.inputs = append(m.inputs, doc.Content[0].Text)
		vec := []float32{0.1, 0.2, 0.3}
		if m.empty {
			vec = nil
		}
		embeddings[i] = &ai.Embedding{Embedding: vec}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

type mockSearcher struct {
	points []index.Point
	err    error

	gotVector []float32
	gotParams index.SearchParams
}

func (m *mockSearcher) Search(ctx context.Context, vector []float32, params index.SearchParams) ([]index.Point, error) {
	m.gotVector = vector
	m.gotParams = params
	return m.points, m.err
}

func TestRetrieve(t *testing.T) {
	searcher := &mockSearcher{points: []index.Point{
		{
			Score: 0.92,
			Payload: map[string]any{
				"content": "Configure the uplink.",
				"metadata": map[string]any{
					"source":   "https://docs.example.com/uplink",
					"title":    "Uplink Configuration",
					"subtitle": "WAN",
					"product":  "meraki",
					"products": []any{"meraki", "mx"},
					"versions": []any{"2.0"},
					"outdated": false,
				},
			},
		},
		{
			Score:   0.71,
			Payload: map[string]any{"content": "Bare chunk."},
		},
	}}
	embedder := &mockEmbedder{}
	r := NewRetriever(embedder, searcher, Config{Limit: 8, ScoreThreshold: 0.7}, log.NewNop())

	docs, err := r.Retrieve(context.Background(), "how do I configure the uplink", Filter{Product: "Meraki"})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(embedder.inputs) != 1 || embedder.inputs[0] != "how do I configure the uplink" {
		t.Errorf("embedded inputs = %v, want the query text", embedder.inputs)
	}
	if !reflect.DeepEqual(searcher.gotVector, []float32{0.1, 0.2, 0.3}) {
		t.Errorf("search vector = %v", searcher.gotVector)
	}
	if searcher.gotParams.Limit != 8 {
		t.Errorf("search limit = %d, want 8", searcher.gotParams.Limit)
	}
	if searcher.gotParams.Predicate == nil {
		t.Error("search predicate missing for explicit filter")
	}

	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	want := Document{
		Content:  "Configure the uplink.",
		Source:   "https://docs.example.com/uplink",
		Title:    "Uplink Configuration",
		Subtitle: "WAN",
		Products: []string{"meraki", "mx"},
		Versions: []string{"2.0"},
	}
	if !reflect.DeepEqual(docs[0], want) {
		t.Errorf("docs[0] = %#v, want %#v", docs[0], want)
	}
	if docs[1].Content != "Bare chunk." || docs[1].Source != "" {
		t.Errorf("docs[1] = %#v, want content-only document", docs[1])
	}
}

func TestRetrieve_EmptyResult(t *testing.T) {
	r := NewRetriever(&mockEmbedder{}, &mockSearcher{}, Config{Limit: 8}, log.NewNop())

	docs, err := r.Retrieve(context.Background(), "unknown topic", Filter{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("len(docs) = %d, want 0", len(docs))
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	r := NewRetriever(&mockEmbedder{err: wantErr}, &mockSearcher{}, Config{Limit: 8}, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "q", Filter{}); !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestRetrieve_EmptyEmbedding(t *testing.T) {
	r := NewRetriever(&mockEmbedder{empty: true}, &mockSearcher{}, Config{Limit: 8}, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "q", Filter{}); err == nil {
		t.Fatal("Retrieve() error = nil, want error on empty embedding")
	}
}

func TestRetrieve_SearchError(t *testing.T) {
	wantErr := errors.New("connection refused")
	r := NewRetriever(&mockEmbedder{}, &mockSearcher{err: wantErr}, Config{Limit: 8}, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "q", Filter{}); !errors.Is(err, wantErr) {
		t.Errorf("Retrieve() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestDocumentFromPoint_MergesScalarAndPluralTags(t *testing.T) {
	doc := documentFromPoint(index.Point{Payload: map[string]any{
		"content": "text",
		"metadata": map[string]any{
			"source":   "s",
			"version":  "1.0",
			"versions": []any{"1.0", "2.0"},
			"outdated": true,
		},
	}})

	if !reflect.DeepEqual(doc.Versions, []string{"1.0", "2.0"}) {
		t.Errorf("Versions = %v, want merged without duplicates", doc.Versions)
	}
	if !doc.Outdated {
		t.Error("Outdated = false, want true")
	}
}
