package domain

import "time"

// AnalysisRequest asks for a piece of already-extracted text to be scored
type AnalysisRequest struct {
	Source string `json:"source,omitempty"`
	Text   string `json:"text" binding:"required"`
}

// Analysis is one scored document, kept in the history
type Analysis struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"createdAt"`
	Results   []MatchResult `json:"results"`
	Cached    bool          `json:"cached,omitempty"`
}

// Document is raw document content handed to a TextExtractor
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"-"`
}

// JobStatus is the lifecycle state of an asynchronous analysis
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCanceled  JobStatus = "canceled"
)

// Job is a snapshot of an asynchronous analysis
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Analysis   *Analysis `json:"analysis,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Done reports whether the job reached a terminal state
func (j Job) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed || j.Status == JobCanceled
}
