package models

import (
	"errors"
	"fmt"
	"strings"
)

// Book is one row of the book catalog. Identity is ID.
type Book struct {
	ID     int64  `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	URL    string `json:"url" yaml:"url"`
}

// Character is a scraped character description or analysis.
// Exactly one of Description and Analysis is set.
type Character struct {
	BookID      int64  `json:"id" yaml:"id"`
	Book        string `json:"book" yaml:"book"`
	Author      string `json:"author" yaml:"author"`
	Character   string `json:"character" yaml:"character"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Analysis    string `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Source      string `json:"source" yaml:"source"`
	URL         string `json:"url" yaml:"url"`
}

// Text returns whichever of Description or Analysis is set.
func (c Character) Text() string {
	if c.Analysis != "" {
		return c.Analysis
	}
	return c.Description
}

// Summary is a scraped plot summary for a book.
type Summary struct {
	BookID  int64  `json:"id" yaml:"id"`
	Book    string `json:"book" yaml:"book"`
	Author  string `json:"author" yaml:"author"`
	Summary string `json:"summary" yaml:"summary"`
	Source  string `json:"source" yaml:"source"`
	URL     string `json:"url" yaml:"url"`
}

// Kind is the type of data requested from a site.
type Kind string

const (
	KindDescription Kind = "description"
	KindAnalysis    Kind = "analysis"
	KindSummary     Kind = "summary"
)

var ErrUnknownKind = errors.New("unknown data kind")

// ParseKind validates a data kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindDescription, KindAnalysis, KindSummary:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q (want description, analysis or summary)", ErrUnknownKind, s)
}

// Site names a supported study-guide website.
type Site string

const (
	SiteSparkNotes  Site = "sparknotes"
	SiteCliffsNotes Site = "cliffsnotes"
	SiteLitCharts   Site = "litcharts"
	SiteShmoop      Site = "shmoop"
	SiteGradeSaver  Site = "gradesaver"
)

// Sites lists every supported site in a stable order.
var Sites = []Site{SiteSparkNotes, SiteCliffsNotes, SiteLitCharts, SiteShmoop, SiteGradeSaver}

// Source is the display name written into scraped records.
func (s Site) Source() string {
	switch s {
	case SiteSparkNotes:
		return "SparkNotes"
	case SiteCliffsNotes:
		return "Cliffnotes"
	case SiteLitCharts:
		return "LitCharts"
	case SiteShmoop:
		return "Shmoop"
	case SiteGradeSaver:
		return "GradeSaver"
	}
	return string(s)
}
