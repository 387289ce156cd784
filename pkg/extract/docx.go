package extract

import (
	"bytes"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// extractDocx returns the paragraph texts of a Word document joined by "\n".
func extractDocx(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	return joinParagraphs(text), nil
}

// joinParagraphs drops the blank lines docconv leaves around paragraph,
// header and footer boundaries.
func joinParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n")
}
