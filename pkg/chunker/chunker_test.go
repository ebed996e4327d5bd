package chunker

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/google/go-cmp/cmp"
)

var words = tokenizer.Whitespace{}

func TestParagraphs(t *testing.T) {
	text := "\n\nFirst para\nstill first.\n\n\n  \nSecond.\n \t\nThird.\n"
	want := []string{"First para\nstill first.", "Second.", "Third."}
	if diff := cmp.Diff(want, Paragraphs(text)); diff != "" {
		t.Errorf("Paragraphs() mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	text := "one two three\n\nfour five\n\nsix seven eight nine\n\nten"

	tests := []struct {
		name string
		max  int
		want string
	}{
		{"fits all", 100, "one two three\n\nfour five\n\nsix seven eight nine\n\nten"},
		{"exact budget", 5, "one two three\n\nfour five"},
		{"stops at first overflow", 8, "one two three\n\nfour five"},
		{"first paragraph too large", 2, ""},
		{"zero budget", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(text, words, tt.max); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	text := "a b c\n\nd e\n\nf g h i j k l\n\nm\n\nn o"

	got := Segment(text, words, 5)
	want := []string{
		"a b c\n\nd e",
		"f g h i j k l",
		"m\n\nn o",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Segment() mismatch (-want +got):\n%s", diff)
	}

	if got := Segment("", words, 5); len(got) != 0 {
		t.Errorf("Segment(\"\") = %q, want no chunks", got)
	}
}

func randomText(r *rand.Rand) string {
	paras := make([]string, r.Intn(30))
	for i := range paras {
		ws := make([]string, 1+r.Intn(12))
		for j := range ws {
			ws[j] = strings.Repeat("x", 1+r.Intn(5))
		}
		paras[i] = strings.Join(ws, " ")
	}
	return strings.Join(paras, strings.Repeat("\n", 2+r.Intn(2)))
}

func TestChunks_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		text := randomText(r)
		max := 1 + r.Intn(20)
		paras := Paragraphs(text)

		var rejoined []string
		for _, c := range Chunks(text, words, max) {
			if len(c.Paragraphs) == 0 {
				t.Fatalf("empty chunk for %q", text)
			}
			if c.Tokens > max && len(c.Paragraphs) > 1 {
				t.Fatalf("chunk of %d paragraphs has %d tokens > %d", len(c.Paragraphs), c.Tokens, max)
			}
			if c.Tokens != words.Count(c.Text()) {
				t.Fatalf("chunk tokens = %d, recount = %d", c.Tokens, words.Count(c.Text()))
			}
			rejoined = append(rejoined, c.Paragraphs...)
		}
		if diff := cmp.Diff(paras, rejoined); diff != "" {
			t.Fatalf("chunks are not a partition of the paragraphs (-want +got):\n%s", diff)
		}

		truncated := Paragraphs(Truncate(text, words, max))
		if len(truncated) > len(paras) {
			t.Fatalf("truncate grew the text")
		}
		if diff := cmp.Diff(paras[:len(truncated)], truncated); len(truncated) > 0 && diff != "" {
			t.Fatalf("truncate is not a prefix (-want +got):\n%s", diff)
		}
		if n := words.Count(Truncate(text, words, max)); n > max {
			t.Fatalf("truncate has %d tokens > %d", n, max)
		}
	}
}
