package common

import (
	"testing"
	"time"

	"github.com/dtnitsch/litchar/models"
	"github.com/google/go-cmp/cmp"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  https://www.litcharts.com/lit/emma  ", "https://www.litcharts.com/lit/emma"},
		{"[Emma](https://www.litcharts.com/lit/emma)", "https://www.litcharts.com/lit/emma"},
		{"<https://www.gradesaver.com/emma>,", "https://www.gradesaver.com/emma"},
		{"\"https://www.shmoop.com/study-guides/emma\"", "https://www.shmoop.com/study-guides/emma"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.sparknotes.com/lit/emma/", true},
		{"https://web.archive.org/web/20221109035530/https://www.sparknotes.com/lit/emma/", true},
		{"http://127.0.0.1:8080/lit/emma", true},
		{"ftp://www.sparknotes.com/lit/emma", false},
		{"www.sparknotes.com/lit/emma", false},
		{"https://www.sparknotes.com/lit/the emma", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidURL(tt.in); got != tt.want {
			t.Errorf("ValidURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeBooks(t *testing.T) {
	books := []models.Book{
		{ID: 1, Title: "Emma", URL: " https://www.litcharts.com/lit/emma; "},
		{ID: 2, Title: "Beloved", URL: "not a url"},
	}
	valid, invalid := SanitizeBooks(books)

	wantValid := []models.Book{{ID: 1, Title: "Emma", URL: "https://www.litcharts.com/lit/emma"}}
	if diff := cmp.Diff(wantValid, valid); diff != "" {
		t.Errorf("valid mismatch (-want +got):\n%s", diff)
	}
	wantInvalid := []models.Book{{ID: 2, Title: "Beloved", URL: "not a url"}}
	if diff := cmp.Diff(wantInvalid, invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"20240101000000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"20230615", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"2022", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseCutoff(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCutoff(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseCutoff(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
