package model

import "time"

// QueryInput is a single documentation query as received from a caller
type QueryInput struct {
	// Query is the raw text, possibly carrying Slack markup
	Query string
	// UserID keys conversation memory; empty disables memory for this request
	UserID string
	// IncludeSources controls whether passages appear in the result
	IncludeSources bool
}

// QueryResult is the outcome of one query pipeline run. Ephemeral.
type QueryResult struct {
	// Answer is the generated answer text
	Answer string `json:"answer"`
	// Sources is empty unless the caller requested them
	Sources []Passage `json:"sources"`
	// Query is the cleaned query the pipeline actually processed
	Query string `json:"query"`
	// Timestamp is when the result was assembled
	Timestamp time.Time `json:"timestamp"`
	// Elapsed is the wall-clock duration of the whole pipeline.
	// Reported for observability only; no control decision depends on it.
	Elapsed time.Duration `json:"-"`
}

// ElapsedMillis returns the pipeline duration in milliseconds for API responses
func (r *QueryResult) ElapsedMillis() float64 {
	return float64(r.Elapsed.Microseconds()) / 1000.0
}
