package prompt

import (
	"strings"

	"doc-assistant-be/pkg/store"
)

// Builder assembles the grounded generation prompt from a query and the
// retrieved candidates.
type Builder struct {
	contextBudget int // max runes of passage context injected into a prompt
}

// NewBuilder creates a prompt builder. contextBudget ≤ 0 disables truncation.
func NewBuilder(contextBudget int) *Builder {
	return &Builder{contextBudget: contextBudget}
}

// Build creates the full prompt: tagged passages in rank order, bounded by
// the context budget, followed by the task contract (cite sources, admit
// when the context is insufficient) and the user question.
func (b *Builder) Build(query string, candidates []store.Candidate) string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt, candidates)
	b.writeTask(&prompt, len(candidates) > 0)
	b.writeUserQuery(&prompt, query)

	return prompt.String()
}

// Context returns just the bounded passage block, exposed separately so
// callers can log or persist what the model actually saw.
func (b *Builder) Context(candidates []store.Candidate) string {
	parts := make([]string, 0, len(candidates))
	used := 0
	for _, c := range candidates {
		passage := "[Source: " + c.SourceDocument + "]\n" + c.Text
		runes := []rune(passage)
		if b.contextBudget > 0 && used+len(runes) > b.contextBudget {
			remaining := b.contextBudget - used
			if remaining <= 0 {
				break
			}
			parts = append(parts, string(runes[:remaining]))
			break
		}
		used += len(runes)
		parts = append(parts, passage)
	}
	return strings.Join(parts, "\n\n")
}

func (b *Builder) writeReferenceMaterial(prompt *strings.Builder, candidates []store.Candidate) {
	if len(candidates) == 0 {
		return
	}
	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(b.Context(candidates))
	prompt.WriteString("\n</reference_material>\n\n")
}

func (b *Builder) writeTask(prompt *strings.Builder, hasContext bool) {
	prompt.WriteString("<task>\n")
	if hasContext {
		prompt.WriteString("Answer the user's question using ONLY the reference material above.\n")
		prompt.WriteString("Cite the source document name when you use information from a passage.\n")
		prompt.WriteString("If the material does not contain the answer, say so explicitly instead of guessing.\n")
	} else {
		prompt.WriteString("No supporting documents were found for this question.\n")
		prompt.WriteString("State clearly that nothing in the indexed documents covers it, then answer briefly from general knowledge if you can.\n")
	}
	prompt.WriteString("</task>\n\n")
}

func (b *Builder) writeUserQuery(prompt *strings.Builder, query string) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_question>")
}
