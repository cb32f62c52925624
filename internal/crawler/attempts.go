package crawler

import (
	"fmt"
	"sync"
	"time"
)

// AttemptResult records the result of a single fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// AttemptLog collects fetch attempts from concurrent fetches.
type AttemptLog struct {
	mu      sync.Mutex
	results map[string][]AttemptResult
}

// NewAttemptLog creates an empty attempt log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{
		results: make(map[string][]AttemptResult),
	}
}

// RecordAttempt records the result of a fetch attempt.
func (l *AttemptLog) RecordAttempt(url string, attempt int, err error, statusCode int, duration time.Duration) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.results[url] = append(l.results[url], AttemptResult{
		URL:        url,
		Attempt:    attempt,
		Success:    err == nil,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// ForURL returns a copy of the attempts made against url.
func (l *AttemptLog) ForURL(url string) []AttemptResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]AttemptResult(nil), l.results[url]...)
}

// Stats returns statistics about fetch attempts.
func (l *AttemptLog) Stats() AttemptStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stats AttemptStats

	for _, results := range l.results {
		stats.TotalURLs++
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if len(results) > 1 {
			stats.RetriedURLs++
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	RetriedURLs        int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed, %d retried | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.RetriedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}
