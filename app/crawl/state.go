package crawl

import (
	"time"

	"github.com/lysyi3m/news-crawl/app/feed"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// State is the mutable progress of one crawl run. It belongs to a single run
// and is only touched by the goroutine executing it.
type State struct {
	Status            Status
	TotalArticles     int
	ProcessedArticles int
	Progress          int
	ErrorMessage      string
	StartedAt         *time.Time
	CompletedAt       *time.Time

	seenURLs feed.URLSet
}

func NewState() *State {
	return &State{
		Status:   StatusPending,
		seenURLs: make(feed.URLSet),
	}
}

// Reset returns the state to pending and clears counters, errors and the
// seen-URL set so the run can be retried.
func (s *State) Reset() {
	*s = State{
		Status:   StatusPending,
		seenURLs: make(feed.URLSet),
	}
}

// Snapshot is a copy of State safe to hand to other goroutines.
type Snapshot struct {
	Status            Status     `json:"status"`
	TotalArticles     int        `json:"total_articles"`
	ProcessedArticles int        `json:"processed_articles"`
	Progress          int        `json:"progress"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Status:            s.Status,
		TotalArticles:     s.TotalArticles,
		ProcessedArticles: s.ProcessedArticles,
		Progress:          s.Progress,
		ErrorMessage:      s.ErrorMessage,
		StartedAt:         copyTime(s.StartedAt),
		CompletedAt:       copyTime(s.CompletedAt),
	}
}

func (s *State) start() {
	now := time.Now().UTC()
	s.Status = StatusRunning
	s.StartedAt = &now
	s.CompletedAt = nil
	s.ErrorMessage = ""
	if s.seenURLs == nil {
		s.seenURLs = make(feed.URLSet)
	}
}

func (s *State) advance(limit int) {
	s.ProcessedArticles++
	if denominator := min(s.TotalArticles, limit); denominator > 0 {
		s.Progress = min(100, s.ProcessedArticles*100/denominator)
	}
}

func (s *State) complete() {
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.Progress = 100
	s.CompletedAt = &now
}

func (s *State) fail(err error) {
	now := time.Now().UTC()
	s.Status = StatusFailed
	s.ErrorMessage = err.Error()
	s.CompletedAt = &now
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
