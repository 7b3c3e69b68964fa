package prompt

import (
	"strings"

	"docqa/internal/domain"
)

const groundedTemplate = `Use the following context to answer the question at the end. Answer directly, without restating the question. If the context does not contain the answer, say you don't know instead of guessing.

Context:
%CONTEXT%

Question: %QUESTION%
Answer:`

const emptyContext = "(no documents matched this question)"

// Builder assembles the grounding prompt from retrieved chunks and the user
// question. Output is fully deterministic for a given input.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// Build joins the chunk texts in rank order, separated by blank lines, and
// fills the grounding template. An empty chunk list still produces a well
// formed prompt.
func (b *Builder) Build(question string, chunks []domain.Chunk) string {
	context := emptyContext
	if len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, ch := range chunks {
			parts[i] = strings.TrimSpace(ch.Text)
		}
		context = strings.Join(parts, "\n\n")
	}
	out := strings.Replace(groundedTemplate, "%CONTEXT%", context, 1)
	return strings.Replace(out, "%QUESTION%", strings.TrimSpace(question), 1)
}
