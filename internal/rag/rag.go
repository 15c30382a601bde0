// Package rag implements the question-answering pipeline: condense the
// conversation into a standalone query, retrieve matching documentation,
// assemble a grounded prompt, and stream the generated answer while caching
// completed single-turn answers.
package rag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wattsjs/askcisco/internal/retrieval"
)

// Message roles accepted in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrMalformedRequest marks a request rejected before any downstream call.
var ErrMalformedRequest = errors.New("rag: malformed request")

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat invocation: the ordered conversation plus an optional
// product/version filter.
type Request struct {
	Messages []Message        `json:"messages"`
	Filter   retrieval.Filter `json:"filter"`
}

// Validate rejects requests with no messages or no user-authored turn.
// Errors wrap ErrMalformedRequest.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrMalformedRequest)
	}
	for _, m := range r.Messages {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("%w: unknown role %q", ErrMalformedRequest, m.Role)
		}
	}
	if len(r.userMessages()) == 0 {
		return fmt.Errorf("%w: no user message", ErrMalformedRequest)
	}
	return nil
}

func (r Request) userMessages() []Message {
	var user []Message
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			user = append(user, m)
		}
	}
	return user
}

// firstUserQuestion returns the literal text of the first user turn, the
// only part of the conversation that participates in cache keys.
func (r Request) firstUserQuestion() string {
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// lastUserMessage returns the latest user turn.
func (r Request) lastUserMessage() Message {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i]
		}
	}
	return Message{}
}

// singleTurn reports whether the conversation has exactly one user turn.
// Only single-turn conversations are cacheable: the cache key does not
// encode history.
func (r Request) singleTurn() bool {
	return len(r.userMessages()) == 1
}

// priorUserTurns returns every user turn except the last.
func (r Request) priorUserTurns() []Message {
	user := r.userMessages()
	if len(user) <= 1 {
		return nil
	}
	return user[:len(user)-1]
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
