// Package tokenizer turns text into tokens for budgeting and keyword counts.
//
// Model tokenizers live outside this process; the tokenizers here are
// deterministic stand-ins whose counts track word-level model token counts.
package tokenizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type Tokenizer interface {
	Tokens(text string) []string
	Count(text string) int
}

// wordPattern keeps words with internal apostrophes or hyphens together and
// emits every other non-space rune as its own token.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’\-][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// Words splits text into words and punctuation marks.
type Words struct{}

func (Words) Tokens(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

func (w Words) Count(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// Whitespace splits text on runs of whitespace.
type Whitespace struct{}

func (Whitespace) Tokens(text string) []string {
	return strings.Fields(text)
}

func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

// ByName returns the tokenizer registered under name.
func ByName(name string) (Tokenizer, error) {
	switch strings.ToLower(name) {
	case "", "words":
		return Words{}, nil
	case "whitespace":
		return Whitespace{}, nil
	}
	return nil, fmt.Errorf("unknown tokenizer %q (want words or whitespace)", name)
}

func isWord(token string) bool {
	for _, r := range token {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return false
}
