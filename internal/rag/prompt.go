package rag

import (
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/wattsjs/askcisco/internal/retrieval"
)

const personaInstruction = `You are a technical expert on Cisco products and networking technology. Answer the user's question using only the information in your training data below. Always refer to the provided material as your "training data", never as context, documents, or search results.

Rules:
- Be concise and factual. Use markdown formatting.
- Cite the sources you drew from. Only use Source links that appear verbatim in your training data; never invent or guess a link.
- Never name specific customers and never include names, emails, or any other personal information.`

const closingInstruction = `Answer with full technical depth. When your training data contains wording that answers the question directly, quote the exact wording. End the answer with a markdown list of the Source links you used.`

const noContextInstruction = `You were asked a question but no relevant material exists in your training data. Tell the user, briefly and politely, that you have no information on this topic and suggest they rephrase the question or adjust the product and version filters.`

const historyPrefix = "Earlier in this conversation I asked: "

// assemblePrompt builds the ordered message sequence for the generation call.
//
// With documents, the sequence is: the persona instruction, one system
// message per context block, the closing instruction, then the prior user
// turns marked as history, and finally the current question. Without
// documents, the "no information" instruction plus the question; the user
// message must be present because providers reject a prompt with only
// system content.
func assemblePrompt(docs []retrieval.Document, prior []Message, question string) []*ai.Message {
	if len(docs) == 0 {
		return []*ai.Message{
			ai.NewSystemMessage(ai.NewTextPart(noContextInstruction)),
			ai.NewUserMessage(ai.NewTextPart(question)),
		}
	}

	messages := make([]*ai.Message, 0, len(docs)+len(prior)+3)
	messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(personaInstruction)))
	for _, doc := range docs {
		messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(contextBlock(doc))))
	}
	messages = append(messages, ai.NewSystemMessage(ai.NewTextPart(closingInstruction)))

	for _, turn := range prior {
		messages = append(messages, ai.NewUserMessage(ai.NewTextPart(historyPrefix+turn.Content)))
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(question)))
	return messages
}

// contextBlock renders one retrieved document for the prompt.
func contextBlock(doc retrieval.Document) string {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString("Title: ")
		b.WriteString(doc.Title)
		b.WriteString("\n")
	}
	if doc.Subtitle != "" {
		b.WriteString("Subtitle: ")
		b.WriteString(doc.Subtitle)
		b.WriteString("\n")
	}
	b.WriteString("Document:\n")
	b.WriteString(doc.Content)
	b.WriteString("\nSource: ")
	b.WriteString(doc.Source)
	return b.String()
}
