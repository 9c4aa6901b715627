package chunker

import (
	"strings"

	"campusmind/internal/domain"
)

// Profile is a (size, overlap) chunking parameter pair, measured in runes.
type Profile struct {
	Size    int
	Overlap int
}

// Splitter cuts text into overlapping segments of at most Size runes, each
// consecutive pair sharing exactly Overlap runes. Cuts prefer natural
// boundaries: paragraph break, then line break, then sentence end, then word
// break, falling back to a hard cut when none exists within the window.
type Splitter struct {
	size    int
	overlap int
}

// New creates a splitter for the given profile, clamping invalid parameters.
func New(p Profile) *Splitter {
	size := p.Size
	overlap := p.Overlap
	if size <= 0 {
		size = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split returns the ordered chunk texts covering text. The final chunk may
// be shorter than the target size. Same input always yields the same output.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	start := 0
	for {
		hardEnd := start + s.size
		if hardEnd >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		end := s.cut(runes, start, hardEnd)
		chunks = append(chunks, string(runes[start:end]))
		// Exact overlap: the next chunk re-reads the last Overlap runes.
		start = end - s.overlap
	}
}

// cut picks the end of the chunk starting at start, scanning backwards from
// the hard limit for the best boundary. The lower bound keeps every chunk
// strictly longer than the overlap so splitting always advances.
func (s *Splitter) cut(runes []rune, start, hardEnd int) int {
	lo := start + s.overlap
	if lo >= hardEnd-1 {
		return hardEnd
	}
	for i := hardEnd - 1; i > lo; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := hardEnd - 1; i > lo; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := hardEnd - 1; i > lo; i-- {
		if sentenceEnd(runes, i) {
			return i + 1
		}
	}
	for i := hardEnd - 1; i > lo; i-- {
		if runes[i] == ' ' || runes[i] == '\t' {
			return i + 1
		}
	}
	return hardEnd
}

var _ domain.Chunker = (*Splitter)(nil)

func sentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
	default:
		return false
	}
	if i+1 >= len(runes) {
		return true
	}
	next := runes[i+1]
	return next == ' ' || next == '\n' || next == '\t'
}
