// Package snapshot repairs Wayback Machine fetches that were redirected to a
// capture newer than the configured cutoff.
//
// Archive URLs look like
//
//	https://web.archive.org/web/20221109035530/https://www.sparknotes.com/lit/...
//
// Split on "/", the capture timestamp is segment 4.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/litchar/pkg/fetcher"
)

const (
	timestampSegment = 4

	// DefaultMaxRetries bounds how many years the resolver walks back.
	DefaultMaxRetries = 4

	layoutFull = "20060102150405"
	layoutYear = "2006"
)

// DefaultCutoff is the first instant whose captures are considered too recent.
var DefaultCutoff = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrBadTimestamp is returned when an archive URL carries a timestamp segment
// that is neither YYYYMMDDhhmmss nor YYYY. It is an input error and is not
// worth retrying.
var ErrBadTimestamp = errors.New("unparseable snapshot timestamp")

// Getter fetches a URL.
type Getter interface {
	Get(ctx context.Context, url string) (*fetcher.Page, error)
}

// Resolver replaces archive captures served on or after its cutoff with
// older ones.
type Resolver struct {
	getter     Getter
	cutoff     time.Time
	maxRetries int
	logger     *slog.Logger
}

// NewResolver returns a Resolver that refetches through g. A nil logger uses
// slog.Default.
func NewResolver(g Getter, cutoff time.Time, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{getter: g, cutoff: cutoff, maxRetries: DefaultMaxRetries, logger: logger}
}

// Cutoff returns the configured cutoff instant.
func (r *Resolver) Cutoff() time.Time { return r.cutoff }

// ParseTimestamp accepts YYYYMMDDhhmmss or a bare YYYY.
func ParseTimestamp(s string) (time.Time, error) {
	var layout string
	switch len(s) {
	case len(layoutFull):
		layout = layoutFull
	case len(layoutYear):
		layout = layoutYear
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return t, nil
}

// formatLike renders t in the same form as the timestamp it replaces.
func formatLike(t time.Time, original string) string {
	if len(original) == len(layoutYear) {
		return t.Format(layoutYear)
	}
	return t.Format(layoutFull)
}

// tooRecent reports whether the capture served at finalURL is on or after
// the cutoff. URLs without a timestamp segment are never too recent.
func (r *Resolver) tooRecent(finalURL string) (bool, error) {
	segs := strings.Split(finalURL, "/")
	if len(segs) <= timestampSegment {
		return false, nil
	}
	ts, err := ParseTimestamp(segs[timestampSegment])
	if err != nil {
		return false, err
	}
	return !ts.Before(r.cutoff), nil
}

// Resolve checks page, fetched for requestedURL, against the cutoff.
//
// If the served capture predates the cutoff, page is returned with valid=true
// and nothing is fetched. Otherwise the requested timestamp is moved back one
// year at a time, up to four times, until a capture before the cutoff is
// served. When every rewrite is still too recent, the last fetched page is
// returned with valid=false.
func (r *Resolver) Resolve(ctx context.Context, page *fetcher.Page, requestedURL string) (*fetcher.Page, bool, error) {
	segs := strings.Split(requestedURL, "/")
	if len(segs) <= timestampSegment {
		return page, true, nil
	}
	original := segs[timestampSegment]
	requested, err := ParseTimestamp(original)
	if err != nil {
		return nil, false, err
	}

	recent, err := r.tooRecent(page.FinalURL)
	if err != nil {
		return nil, false, err
	}
	if !recent {
		return page, true, nil
	}

	current := page
	for i := 1; i <= r.maxRetries; i++ {
		segs[timestampSegment] = formatLike(requested.AddDate(-i, 0, 0), original)
		rewritten := strings.Join(segs, "/")
		r.logger.Info("Snapshot too recent, stepping back", "served", current.FinalURL, "retry", rewritten, "cutoff", r.cutoff.Format(layoutFull))

		current, err = r.getter.Get(ctx, rewritten)
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch older snapshot: %w", err)
		}
		recent, err = r.tooRecent(current.FinalURL)
		if err != nil {
			return nil, false, err
		}
		if !recent {
			return current, true, nil
		}
	}

	r.logger.Warn("No snapshot before cutoff", "url", requestedURL, "served", current.FinalURL)
	return current, false, nil
}
