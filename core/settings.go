package core

import "fmt"

// Settings are the per-session retrieval preferences shown in the sidebar.
// They are captured and displayed but not sent to the answer service.
type Settings struct {
	SearchDepth         int     `json:"search_depth"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

const (
	MinSearchDepth = 1
	MaxSearchDepth = 10

	// ConfidenceStep is the slider granularity for ConfidenceThreshold.
	ConfidenceStep = 0.05
)

// DefaultSettings returns the sidebar's initial values.
func DefaultSettings() Settings {
	return Settings{SearchDepth: 3, ConfidenceThreshold: 0.7}
}

// Validate checks both values are within their slider ranges.
func (s Settings) Validate() error {
	if s.SearchDepth < MinSearchDepth || s.SearchDepth > MaxSearchDepth {
		return fmt.Errorf("search depth must be %d-%d, got %d", MinSearchDepth, MaxSearchDepth, s.SearchDepth)
	}
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be 0.0-1.0, got %g", s.ConfidenceThreshold)
	}
	return nil
}
