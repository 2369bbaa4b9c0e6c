package prompt

import (
	"fmt"
	"strings"

	"rag-chat-be/pkg/retrieval"
)

// Build renders the generation prompt from the user message and the retrieved
// passages. Pure function: the output is fully determined by its inputs.
//
// With no passages the generator is told to answer from its own knowledge.
// With passages, each one is emitted under a stable "Passage N" label in the
// given rank order, followed by a fixed instruction and the user message.
// Passage text is never truncated here; length limits are the generation
// service's concern.
func Build(message string, passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return fmt.Sprintf("The user asked: \"%s\". Please answer from your own knowledge.", message)
	}

	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Use the following context passages to answer the user. Be factual, cite only from passages.\n\n")

	for i, passage := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("Passage %d:\n%s", i+1, passage.Text))
	}

	sb.WriteString("\n\nUser: ")
	sb.WriteString(message)
	sb.WriteString("\nAssistant:")

	return sb.String()
}
