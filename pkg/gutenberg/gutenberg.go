// Package gutenberg downloads plain-text books from Project Gutenberg and
// strips the license boilerplate around the text.
package gutenberg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/litchar/pkg/fetcher"
)

const DefaultMirror = "https://www.gutenberg.org"

var ErrNotFound = errors.New("no plain-text edition found")

// Getter fetches a URL.
type Getter interface {
	Get(ctx context.Context, url string) (*fetcher.Page, error)
}

type Client struct {
	getter Getter
	mirror string
	logger *slog.Logger
}

// NewClient downloads from mirror (DefaultMirror if empty).
func NewClient(g Getter, mirror string, logger *slog.Logger) *Client {
	if mirror == "" {
		mirror = DefaultMirror
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{getter: g, mirror: strings.TrimRight(mirror, "/"), logger: logger}
}

// candidates lists the locations a book's text may live at, newest layout
// first.
func (c *Client) candidates(id int64) []string {
	return []string{
		fmt.Sprintf("%s/cache/epub/%d/pg%d.txt", c.mirror, id, id),
		fmt.Sprintf("%s/files/%d/%d-0.txt", c.mirror, id, id),
		fmt.Sprintf("%s/files/%d/%d.txt", c.mirror, id, id),
	}
}

// Text returns the raw text of book id, boilerplate included.
func (c *Client) Text(ctx context.Context, id int64) ([]byte, error) {
	var lastErr error
	for _, u := range c.candidates(id) {
		page, err := c.getter.Get(ctx, u)
		if err == nil {
			return page.Body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("Book not at location", "book_id", id, "url", u, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w for book %d: %w", ErrNotFound, id, lastErr)
}

var startMarkers = []string{
	"*** START OF THE PROJECT GUTENBERG",
	"*** START OF THIS PROJECT GUTENBERG",
	"***START OF THE PROJECT GUTENBERG",
	"*** START OF THE COPYRIGHTED PROJECT GUTENBERG",
	"*END*THE SMALL PRINT!",
	"*END THE SMALL PRINT",
	"*SMALL PRINT!",
}

var endMarkers = []string{
	"*** END OF THE PROJECT GUTENBERG",
	"*** END OF THIS PROJECT GUTENBERG",
	"***END OF THE PROJECT GUTENBERG",
	"*** END OF THE COPYRIGHTED PROJECT GUTENBERG",
	"End of the Project Gutenberg",
	"End of Project Gutenberg",
	"END OF THE PROJECT GUTENBERG",
	"End of this Project Gutenberg",
}

func hasMarker(line string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// StripHeaders removes everything up to and including the last start
// marker line and everything from the first end marker line on. Text
// without markers is returned trimmed but otherwise unchanged.
func StripHeaders(text []byte) []byte {
	lines := strings.Split(strings.ReplaceAll(string(text), "\r\n", "\n"), "\n")

	start := 0
	for i, line := range lines {
		if hasMarker(strings.TrimSpace(line), startMarkers) {
			start = i + 1
		}
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if hasMarker(strings.TrimSpace(lines[i]), endMarkers) {
			end = i
			break
		}
	}

	body := strings.Join(lines[start:end], "\n")
	return []byte(strings.Trim(body, "\n\t "))
}
