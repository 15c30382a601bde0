package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

const condenseInstruction = `Below is a conversation between a user and an assistant, followed by the user's latest question. The latest question may refer back to the conversation. Rewrite it as a single standalone question that can be understood without the conversation. Keep the original language of the question. Reply with the rewritten question only.

Conversation:
%s

Latest question: %s`

// Condenser rewrites a follow-up question into a standalone query so
// retrieval does not depend on conversation history.
type Condenser struct {
	g      *genkit.Genkit
	model  string
	logger *slog.Logger
}

// NewCondenser creates a Condenser using the named model. logger may be nil.
func NewCondenser(g *genkit.Genkit, model string, logger *slog.Logger) *Condenser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Condenser{g: g, model: model, logger: logger}
}

// Condense returns the retrieval query for the conversation. Single-turn
// conversations pass through untouched. Multi-turn conversations are rewritten
// by one non-streamed, zero-temperature generation call; if the model returns
// nothing usable the instruction text itself serves as a degraded query
// rather than failing the request.
func (c *Condenser) Condense(ctx context.Context, req Request) (string, error) {
	last := req.lastUserMessage()
	if req.singleTurn() {
		return last.Content, nil
	}

	instruction := fmt.Sprintf(condenseInstruction, transcript(req.Messages), last.Content)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithMessages(
			ai.NewUserMessage(ai.NewTextPart(instruction)),
			ai.NewUserMessage(ai.NewTextPart(last.Content)),
		),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("condensing question: %w", err)
	}

	query := strings.TrimSpace(resp.Text())
	if query == "" {
		c.logger.Warn("condenser returned empty text, using instruction as query")
		return instruction, nil
	}

	c.logger.Debug("condensed follow-up question",
		"turns", len(req.Messages),
		"query_length", len(query),
	)
	return query, nil
}

// transcript renders every message except the last as "User:"/"System:"
// lines, in conversation order.
func transcript(messages []Message) string {
	var b strings.Builder
	for _, m := range messages[:len(messages)-1] {
		if blank(m.Content) {
			continue
		}
		if m.Role == RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("System: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
