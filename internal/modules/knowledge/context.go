package knowledge

import (
	"fmt"
	"strings"

	"github.com/attunehealth/attune-backend/internal/types"
)

// FormatContext renders retrieved chunks as a numbered reference block
// suitable for prompt grounding. Chunks without a title fall back to the
// source category, then to an untitled label.
func FormatContext(chunks []types.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant practice materials:\n\n")
	for i, ch := range chunks {
		label := strings.TrimSpace(ch.DocumentTitle)
		if label == "" {
			label = strings.TrimSpace(ch.SourceCategory)
		}
		if label == "" {
			label = "untitled source"
		}
		fmt.Fprintf(&b, "[%d] %s (similarity %.2f)\n", i+1, label, ch.Similarity)
		content := strings.TrimSpace(ch.Content)
		if content != "" {
			b.WriteString(content)
			b.WriteString("\n")
		}
		if i < len(chunks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
