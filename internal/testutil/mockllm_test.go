package testutil

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/go-cmp/cmp"
)

func TestMockLLM_PatternMatching(t *testing.T) {
	t.Parallel()

	m := NewMockLLM("fallback answer")
	m.AddResponse("uplink", "configure the uplink like so")
	m.AddResponse("uplink status", "never reached, first match wins")

	tests := []struct {
		input string
		want  string
	}{
		{"how do I check UPLINK status", "configure the uplink like so"},
		{"unrelated question", "fallback answer"},
	}
	for _, tt := range tests {
		req := &ai.ModelRequest{
			Messages: []*ai.Message{ai.NewUserMessage(ai.NewTextPart(tt.input))},
		}
		resp, err := m.generate(context.Background(), req, nil)
		if err != nil {
			t.Fatalf("generate(%q) error = %v", tt.input, err)
		}
		if got := resp.Message.Text(); got != tt.want {
			t.Errorf("generate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMockLLM_StreamingChunksConcatenate(t *testing.T) {
	t.Parallel()

	m := NewMockLLM("a multi word streamed answer")
	var chunks []string
	cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		chunks = append(chunks, chunk.Text())
		return nil
	}

	req := &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserMessage(ai.NewTextPart("q"))},
	}
	resp, err := m.generate(context.Background(), req, cb)
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want multi-chunk streaming", len(chunks))
	}
	if got := strings.Join(chunks, ""); got != resp.Message.Text() {
		t.Errorf("concatenated chunks = %q, want %q", got, resp.Message.Text())
	}
}

func TestMockLLM_CallRecordingAndFailure(t *testing.T) {
	t.Parallel()

	m := NewMockLLM("ok")
	req := &ai.ModelRequest{
		Messages: []*ai.Message{
			ai.NewSystemMessage(ai.NewTextPart("instructions")),
			ai.NewUserMessage(ai.NewTextPart("hello")),
		},
	}
	if _, err := m.generate(context.Background(), req, nil); err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	calls := m.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].UserMessage != "hello" || calls[0].Response != "ok" {
		t.Errorf("call = %+v", calls[0])
	}
	if len(calls[0].Messages) != 2 {
		t.Errorf("recorded %d prompt messages, want 2", len(calls[0].Messages))
	}

	wantErr := errors.New("model down")
	m.FailWith(wantErr)
	if _, err := m.generate(context.Background(), req, nil); !errors.Is(err, wantErr) {
		t.Errorf("generate() error = %v, want injected failure", err)
	}

	m.Reset()
	if got := len(m.Calls()); got != 0 {
		t.Errorf("Calls() after Reset = %d, want 0", got)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewMockEmbedder(8)
	ctx := context.Background()

	embed := func(text string) []float32 {
		resp, err := e.embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			t.Fatalf("embed(%q) error = %v", text, err)
		}
		return resp.Embeddings[0].Embedding
	}

	a := embed("same text")
	b := embed("same text")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same text produced different vectors (-a +b):\n%s", diff)
	}
	if len(a) != 8 {
		t.Errorf("vector dimension = %d, want 8", len(a))
	}

	e.SetVector("pinned", []float32{1, 0, 0, 0, 0, 0, 0, 0})
	if got := embed("pinned"); got[0] != 1 {
		t.Errorf("SetVector not honored: %v", got)
	}
}
