package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/litchar/pkg/fetcher"
)

const target = "https://www.cliffsnotes.com/literature/p/the-portrait-of-a-lady/character-list"

// archive serves captures: requesting a timestamp redirects to the capture
// listed for its year, or echoes the request when none is listed.
type archive struct {
	captures map[string]string // requested year -> served timestamp
	requests []string
}

func (a *archive) Get(_ context.Context, url string) (*fetcher.Page, error) {
	a.requests = append(a.requests, url)
	segs := strings.Split(url, "/")
	served := segs[timestampSegment]
	if ts, ok := a.captures[served[:4]]; ok {
		served = ts
	}
	segs[timestampSegment] = served
	return &fetcher.Page{RequestURL: url, FinalURL: strings.Join(segs, "/"), StatusCode: 200}, nil
}

func archived(ts string) string {
	return "https://web.archive.org/web/" + ts + "/" + target
}

var cutoff = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestResolve_BeforeCutoff(t *testing.T) {
	a := &archive{}
	r := NewResolver(a, cutoff, nil)

	page := &fetcher.Page{FinalURL: archived("20230616062923")}
	got, valid, err := r.Resolve(context.Background(), page, archived("20230616062923"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !valid {
		t.Error("valid = false, want true")
	}
	if got != page {
		t.Error("Resolve() returned a different page, want the original")
	}
	if len(a.requests) != 0 {
		t.Errorf("requests = %v, want none", a.requests)
	}
}

func TestResolve_StepsBackUntilValid(t *testing.T) {
	a := &archive{captures: map[string]string{
		"2024": "20240301000000",
		"2023": "20240201000000",
		"2022": "20240105000000", // archive redirects to a newer capture
		"2021": "20210701120000",
	}}
	r := NewResolver(a, cutoff, nil)

	requested := archived("20250616062923")
	page := &fetcher.Page{FinalURL: archived("20250616062923")}

	got, valid, err := r.Resolve(context.Background(), page, requested)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !valid {
		t.Error("valid = false, want true")
	}
	want := []string{
		archived("20240616062923"),
		archived("20230616062923"),
		archived("20220616062923"),
		archived("20210616062923"),
	}
	if strings.Join(a.requests, "\n") != strings.Join(want, "\n") {
		t.Errorf("requests =\n%s\nwant\n%s", strings.Join(a.requests, "\n"), strings.Join(want, "\n"))
	}
	if got.FinalURL != archived("20210701120000") {
		t.Errorf("FinalURL = %q, want the 2021 capture", got.FinalURL)
	}
}

func TestResolve_Exhausted(t *testing.T) {
	a := &archive{captures: map[string]string{
		"2029": "20290101000000",
		"2028": "20290101000000",
		"2027": "20290101000000",
		"2026": "20290101000000",
		"2025": "20290101000000",
	}}
	r := NewResolver(a, cutoff, nil)

	page := &fetcher.Page{FinalURL: archived("20290101000000")}
	got, valid, err := r.Resolve(context.Background(), page, archived("2029"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if valid {
		t.Error("valid = true, want false")
	}
	if len(a.requests) != DefaultMaxRetries {
		t.Fatalf("requests = %d, want %d", len(a.requests), DefaultMaxRetries)
	}
	if a.requests[0] != archived("2028") || a.requests[3] != archived("2025") {
		t.Errorf("requests = %v, want years 2028..2025", a.requests)
	}
	if got.RequestURL != archived("2025") {
		t.Errorf("returned page for %q, want the last fetched", got.RequestURL)
	}
}

func TestResolve_NoTimestampSegment(t *testing.T) {
	a := &archive{}
	r := NewResolver(a, cutoff, nil)

	page := &fetcher.Page{FinalURL: "https://web.archive.org/web/20290101000000/x"}
	_, valid, err := r.Resolve(context.Background(), page, "https://example.com/x")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !valid {
		t.Error("valid = false, want true")
	}
	if len(a.requests) != 0 {
		t.Errorf("requests = %v, want none", a.requests)
	}
}

func TestResolve_BadTimestamp(t *testing.T) {
	r := NewResolver(&archive{}, cutoff, nil)
	page := &fetcher.Page{FinalURL: archived("20230616062923")}

	_, _, err := r.Resolve(context.Background(), page, archived("latest"))
	if !errors.Is(err, ErrBadTimestamp) {
		t.Errorf("Resolve() error = %v, want ErrBadTimestamp", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"20221109035530", time.Date(2022, 11, 9, 3, 55, 30, 0, time.UTC), false},
		{"2022", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"202211", time.Time{}, true},
		{"2022110903553x", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", got, tt.want)
			}
		})
	}
}
