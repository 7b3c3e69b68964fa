package chunker

import (
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

// separators in preference order: paragraph break, line break, word break.
// If none fits, the window is cut hard at the size limit.
var separators = []string{"\n\n", "\n", " "}

// CharacterChunker splits text into overlapping fixed-size character windows,
// cutting at the most natural boundary available inside each window.
type CharacterChunker struct {
	chunkSize    int
	chunkOverlap int
}

func NewCharacterChunker(chunkSize, chunkOverlap int) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &CharacterChunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split produces chunks of at most chunkSize runes. Every non-final chunk's
// trailing chunkOverlap runes reappear as the next chunk's leading runes, so
// context is never lost across a cut. Whitespace-only input yields nothing.
func (c *CharacterChunker) Split(text, sourceID string) []domain.Chunk {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	seq := 0
	for start < len(runes) {
		if len(runes)-start <= c.chunkSize {
			chunks = append(chunks, domain.Chunk{
				Text:     string(runes[start:]),
				SourceID: sourceID,
				Sequence: seq,
			})
			break
		}
		cut := c.cutPoint(runes[start : start+c.chunkSize])
		chunks = append(chunks, domain.Chunk{
			Text:     string(runes[start : start+cut]),
			SourceID: sourceID,
			Sequence: seq,
		})
		start += cut - c.chunkOverlap
		seq++
	}
	return chunks
}

// cutPoint returns how many runes of the window to keep, ending just after
// the last occurrence of the best available separator. A cut must land past
// the overlap region or the splitter would stop advancing, in which case the
// next separator (or a hard cut) is used instead.
func (c *CharacterChunker) cutPoint(window []rune) int {
	s := string(window)
	for _, sep := range separators {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			continue
		}
		cut := utf8.RuneCountInString(s[:i]) + utf8.RuneCountInString(sep)
		if cut > c.chunkOverlap {
			return cut
		}
	}
	return len(window)
}
