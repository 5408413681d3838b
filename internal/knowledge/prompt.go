package knowledge

import (
	"strings"

	"github.com/ruslanv/pdfchat/internal/retrieval"
)

// contextTokenBudget caps how much retrieved text goes into a prompt.
// The chat model's window also holds the question and the answer, so the
// context gets a conservative slice of it.
const contextTokenBudget = 2048

const systemPrompt = "You are a helpful assistant that answers questions " +
	"about the user's documents. Use the provided document context to answer. " +
	"If the context does not contain the answer, say so instead of guessing."

// EstimateTokens approximates the token count of text. Four characters
// per token is a reasonable average for English prose.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// buildPrompt assembles the user prompt from retrieved chunks and the
// question. Chunks are added in score order until the token budget runs
// out; with no chunks the question is passed through bare.
func buildPrompt(chunks []retrieval.ContextChunk, question string) string {
	if len(chunks) == 0 {
		return question
	}

	var sb strings.Builder
	sb.WriteString("Document context:\n\n")

	used := EstimateTokens(sb.String())
	for _, c := range chunks {
		cost := EstimateTokens(c.Text) + 2
		if used+cost > contextTokenBudget {
			break
		}
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
		used += cost
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
