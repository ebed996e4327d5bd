package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"description", KindDescription, false},
		{" Analysis ", KindAnalysis, false},
		{"summary", KindSummary, false},
		{"quotes", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownKind) {
			t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCharacter_JSON(t *testing.T) {
	c := Character{BookID: 3, Book: "Emma", Author: "Jane Austen", Character: "Emma", Analysis: "Vain.", Source: SiteShmoop.Source(), URL: "u"}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":3,"book":"Emma","author":"Jane Austen","character":"Emma","analysis":"Vain.","source":"Shmoop","url":"u"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
	if c.Text() != "Vain." {
		t.Errorf("Text() = %q", c.Text())
	}
}

func TestSiteSource(t *testing.T) {
	want := map[Site]string{
		SiteSparkNotes:  "SparkNotes",
		SiteCliffsNotes: "Cliffnotes",
		SiteLitCharts:   "LitCharts",
		SiteShmoop:      "Shmoop",
		SiteGradeSaver:  "GradeSaver",
	}
	for _, s := range Sites {
		if got := s.Source(); got != want[s] {
			t.Errorf("%s.Source() = %q, want %q", s, got, want[s])
		}
	}
}
