package common

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/caching"
	"github.com/dtnitsch/litchar/pkg/fetcher"
	"github.com/dtnitsch/litchar/pkg/retry"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the JSON stderr logger every command uses.
// --quiet wins over --verbose.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// NewFetcher builds a fetcher from the shared --cache-dir, --cache-ttl and
// --timeout flags. An empty --cache-dir disables the response cache.
func NewFetcher(c *cli.Context, logger *slog.Logger, recorder fetcher.AccessRecorder) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithLogger(logger),
		fetcher.WithTimeout(c.Duration("timeout")),
	}
	if dir := c.String("cache-dir"); dir != "" {
		cache, err := caching.NewCache(dir, c.Duration("cache-ttl"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		opts = append(opts, fetcher.WithCache(cache))
	}
	if recorder != nil {
		opts = append(opts, fetcher.WithRecorder(recorder))
	}
	return fetcher.NewFetcher(opts...), nil
}

// RetryPolicy reads --max-attempts and --exp-base and logs each retry.
func RetryPolicy(c *cli.Context, logger *slog.Logger) retry.Policy {
	p := retry.Default()
	p.MaxAttempts = c.Int("max-attempts")
	p.ExpBase = c.Float64("exp-base")
	p.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("Retrying", "attempt", attempt, "wait", wait.String(), "error", err)
	}
	return p
}

// ItemPolicy retries single character pages: --item-attempts tries in
// total with a constant --item-wait between them.
func ItemPolicy(c *cli.Context, logger *slog.Logger) retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Int("item-attempts") - 1,
		ExpBase:     1,
		Unit:        c.Duration("item-wait"),
		OnRetry: func(attempt int, wait time.Duration, err error) {
			logger.Debug("Retrying item", "attempt", attempt, "wait", wait.String(), "error", err)
		},
	}
}

// ParseCutoff accepts the same YYYYMMDDhhmmss or YYYY forms as archive
// timestamps.
func ParseCutoff(s string) (time.Time, error) {
	layouts := []string{"20060102150405", "20060102", "2006"}
	for _, layout := range layouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid snapshot cutoff %q", s)
}

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	urlPattern          = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.:]*[a-zA-Z0-9](/[^\s]*)?$`)
)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidURL reports whether a sanitized URL is an absolute http(s) URL.
func ValidURL(cleaned string) bool {
	if cleaned == "" || strings.Contains(cleaned, " ") {
		return false
	}
	if !urlPattern.MatchString(cleaned) {
		return false
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return false
	}
	return true
}

// SanitizeBooks cleans every row's URL and splits the rows into usable and
// invalid ones. Invalid rows keep their original URL for reporting.
func SanitizeBooks(books []models.Book) ([]models.Book, []models.Book) {
	valid := make([]models.Book, 0, len(books))
	var invalid []models.Book

	for _, b := range books {
		cleaned := SanitizeURL(b.URL)
		if !ValidURL(cleaned) {
			invalid = append(invalid, b)
			continue
		}
		b.URL = cleaned
		valid = append(valid, b)
	}
	return valid, invalid
}
