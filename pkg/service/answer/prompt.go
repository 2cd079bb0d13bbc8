package answer

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/pythia/pkg/domain/model"
)

// NoContextSentinel is the fixed context substituted when retrieval yields
// nothing. Generation backends treat it as "no match", never as an error.
const NoContextSentinel = "No relevant documentation found for this query."

const systemPrompt = `You are an expert developer documentation assistant. Your role is to:

1. Answer technical questions accurately based on the provided documentation context
2. Be concise and developer-friendly in your responses
3. Include code examples when relevant
4. If the answer is not found in the context, clearly state that
5. Never make up information - only use what's in the documentation
6. Format responses with proper markdown for readability

Always prioritize accuracy over completeness. If you're unsure, say so.`

// buildUserPrompt embeds the retrieved context and the question into the
// user-turn prompt
func buildUserPrompt(query, docContext string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following documentation context, please answer the question.\n\n")
	sb.WriteString("Documentation Context:\n---\n")
	sb.WriteString(docContext)
	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	sb.WriteString("Please provide a clear, accurate answer based only on the documentation above.")
	return sb.String()
}

// truncateTurns keeps at most maxTurns user/assistant exchanges, dropping the
// oldest first. The bound here is in the turn unit; the memory store's
// retention bound (messages) is a separate concern.
func truncateTurns(history []model.HistoryEntry, maxTurns int) []model.HistoryEntry {
	if maxTurns <= 0 {
		return nil
	}
	bound := 2 * maxTurns
	if len(history) <= bound {
		return history
	}
	return history[len(history)-bound:]
}

// renderHistory flattens prior turns into a transcript block for backends
// that take a single prompt string
func renderHistory(history []model.HistoryEntry) string {
	if len(history) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, entry := range history {
		fmt.Fprintf(&sb, "%s: %s\n", entry.Role, entry.Content)
	}
	return sb.String()
}
