package manifest

// SummaryManifest is the JSON overview written at the end of a collect run:
// which rows succeeded, which failed and what the scraped text is about.
type SummaryManifest struct {
	GeneratedAt       string       `json:"generated_at"`
	Kind              string       `json:"kind"`
	TotalRows         int          `json:"total_rows"`
	Skipped           int          `json:"skipped"`
	Successful        int          `json:"successful"`
	Failed            int          `json:"failed"`
	Records           int          `json:"records"`
	AggregateKeywords []string     `json:"aggregate_keywords"`
	Results           []RowSummary `json:"results"`
}

// RowSummary describes one processed book row.
type RowSummary struct {
	BookID          int64    `json:"book_id"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Site            string   `json:"site,omitempty"`
	Status          string   `json:"status"` // "success" or "error"
	ErrorType       string   `json:"error_type,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	Records         int      `json:"records,omitempty"`
	EstimatedTokens int      `json:"estimated_tokens,omitempty"`
	TopKeywords     []string `json:"top_keywords,omitempty"`
}
