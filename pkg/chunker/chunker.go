// Package chunker fits long texts into a token budget on paragraph
// boundaries.
package chunker

import (
	"regexp"
	"strings"
)

// Counter maps text to a token count.
type Counter interface {
	Count(text string) int
}

const separator = "\n\n"

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Paragraphs splits text on blank lines. Whitespace-only paragraphs are
// dropped and surrounding newlines are trimmed.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		p = strings.Trim(p, "\r\n")
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Truncate keeps leading paragraphs while the running token count stays at
// or under max, stopping at the first paragraph that would exceed it.
func Truncate(text string, tok Counter, max int) string {
	var kept []string
	total := 0
	for _, p := range Paragraphs(text) {
		n := tok.Count(p)
		if total+n > max {
			break
		}
		total += n
		kept = append(kept, p)
	}
	return strings.Join(kept, separator)
}

// Chunk is an ordered group of paragraphs and their combined token count.
type Chunk struct {
	Paragraphs []string
	Tokens     int
}

func (c Chunk) Text() string {
	return strings.Join(c.Paragraphs, separator)
}

// Chunks partitions the paragraphs of text in order. A new chunk starts
// whenever the next paragraph would push the current one over max; a
// paragraph larger than max alone becomes its own chunk.
func Chunks(text string, tok Counter, max int) []Chunk {
	var chunks []Chunk
	var cur Chunk
	for _, p := range Paragraphs(text) {
		n := tok.Count(p)
		if len(cur.Paragraphs) > 0 && cur.Tokens+n > max {
			chunks = append(chunks, cur)
			cur = Chunk{}
		}
		cur.Paragraphs = append(cur.Paragraphs, p)
		cur.Tokens += n
	}
	if len(cur.Paragraphs) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// Segment is Chunks rendered as text, paragraphs joined by blank lines.
func Segment(text string, tok Counter, max int) []string {
	chunks := Chunks(text, tok, max)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text()
	}
	return out
}
