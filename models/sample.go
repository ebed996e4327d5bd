package models

// Sample is one line of an eval or training split: a character, the book
// text it is described from and, for training, the reference text.
type Sample struct {
	Book        string `json:"book"`
	Character   string `json:"character"`
	Input       string `json:"input"`
	Description string `json:"description,omitempty"`
	Analysis    string `json:"analysis,omitempty"`
}

// Target returns the reference text for task ("description" or "analysis").
func (s Sample) Target(task string) string {
	if task == string(KindAnalysis) {
		return s.Analysis
	}
	return s.Description
}
