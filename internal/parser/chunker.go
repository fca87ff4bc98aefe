package parser

import (
	"strings"

	"docqa/internal/models"
)

const defaultChunkSize = 1000

// SplitText splits text into non-overlapping segments of at most width
// characters, breaking at whitespace. A single word longer than width is
// hard-sliced so no segment ever exceeds the limit. Pure function of its
// input.
func SplitText(text string, width int) []string {
	if width <= 0 {
		width = defaultChunkSize
	}

	var chunks []string
	var b strings.Builder
	for _, word := range strings.Fields(text) {
		for len(word) > width {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, word[:width])
			word = word[width:]
		}
		if word == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+1+len(word) > width {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// Chunks splits extracted document text and tags each segment with its
// source filename and a 1-based chunk id.
func Chunks(text, filename string, width int) []models.Chunk {
	parts := SplitText(text, width)
	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			Content:        part,
			SourceFilename: filename,
			ChunkID:        i + 1,
		})
	}
	return chunks
}
