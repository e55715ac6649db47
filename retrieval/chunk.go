package retrieval

import (
	"regexp"
	"strings"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunk is one piece of a document with its origin.
type Chunk struct {
	Source string
	Text   string
}

// Splitter cuts documents into overlapping chunks on paragraph boundaries.
// Sizes count runes.
type Splitter struct {
	Size    int
	Overlap int
}

// NewSplitter returns a splitter with the default size and overlap.
func NewSplitter() Splitter {
	return Splitter{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Split chunks every document. Paragraphs are packed together up to Size; a
// paragraph longer than Size is cut into windows that overlap by Overlap.
// When a packed chunk closes, its trailing paragraphs that fit in Overlap
// start the next one.
func (s Splitter) Split(docs ...Document) []Chunk {
	var out []Chunk
	for _, d := range docs {
		for _, text := range s.splitText(d.Text) {
			out = append(out, Chunk{Source: d.Source, Text: text})
		}
	}
	return out
}

func (s Splitter) splitText(text string) []string {
	size, overlap := s.Size, s.Overlap
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		out     []string
		pending []string
		length  int
	)
	emit := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, strings.Join(pending, "\n\n"))

		// Carry the tail that fits in the overlap into the next chunk.
		var carry []string
		carried := 0
		for i := len(pending) - 1; i >= 0; i-- {
			next := carried + runeLen(pending[i])
			if len(carry) > 0 {
				next += 2
			}
			if next > overlap {
				break
			}
			carry = append([]string{pending[i]}, carry...)
			carried = next
		}
		if len(carry) == len(pending) {
			carry, carried = nil, 0
		}
		pending, length = carry, carried
	}

	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n := runeLen(p)
		if n > size {
			emit()
			pending, length = nil, 0
			out = append(out, window(p, size, overlap)...)
			continue
		}
		if length > 0 && length+2+n > size {
			emit()
			if length > 0 && length+2+n > size {
				pending, length = nil, 0
			}
		}
		if length > 0 {
			length += 2
		}
		pending = append(pending, p)
		length += n
	}
	if len(pending) > 0 {
		out = append(out, strings.Join(pending, "\n\n"))
	}
	return out
}

// window cuts s into size-rune pieces, each starting size-overlap after the
// previous one.
func window(s string, size, overlap int) []string {
	r := []rune(s)
	step := size - overlap
	var out []string
	for i := 0; i < len(r); i += step {
		end := min(i+size, len(r))
		if piece := strings.TrimSpace(string(r[i:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(r) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
