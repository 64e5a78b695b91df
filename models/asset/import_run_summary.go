package asset

import (
	"encoding/json"
	"time"
)

// ImportRunSummary holds the counts from one full import run.
// Attempted always equals Dispatched + Failed. Skipped counts
// candidate entries whose names could not be parsed; those are never
// attempted.
type ImportRunSummary struct {
	RunID      string    `json:"run_id"`
	Directory  string    `json:"directory"`
	Entries    int       `json:"entries"`
	Skipped    int       `json:"skipped"`
	Attempted  int       `json:"attempted"`
	Dispatched int       `json:"dispatched"`
	Failed     int       `json:"failed"`
	Truncated  bool      `json:"truncated,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded returns true if the run got past the listing step.
// A run with dispatch failures still succeeded; its Failed count
// says how many messages did not make it.
func (s *ImportRunSummary) Succeeded() bool {
	return s.Error == ""
}

// Duration returns how long the run took.
func (s *ImportRunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *ImportRunSummary) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ImportRunSummaryFromJSON(jsonData string) (*ImportRunSummary, error) {
	summary := &ImportRunSummary{}
	err := json.Unmarshal([]byte(jsonData), summary)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
