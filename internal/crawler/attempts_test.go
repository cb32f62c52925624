package crawler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptLog_Stats(t *testing.T) {
	log := NewAttemptLog()
	boom := errors.New("boom")

	log.RecordAttempt("http://a", 1, nil, 200, time.Millisecond)
	log.RecordAttempt("http://b", 1, boom, 503, time.Millisecond)
	log.RecordAttempt("http://b", 2, nil, 200, time.Millisecond)
	log.RecordAttempt("http://c", 1, boom, 0, time.Millisecond)
	log.RecordAttempt("http://c", 2, boom, 0, time.Millisecond)

	stats := log.Stats()
	assert.Equal(t, AttemptStats{
		TotalURLs:          3,
		SuccessfulURLs:     2,
		FailedURLs:         1,
		RetriedURLs:        2,
		TotalAttempts:      5,
		SuccessfulAttempts: 2,
		FailedAttempts:     3,
	}, stats)
	assert.Contains(t, stats.String(), "3 total")

	attempts := log.ForURL("http://b")
	assert.Len(t, attempts, 2)
	assert.Equal(t, 503, attempts[0].StatusCode)
	assert.Equal(t, "boom", attempts[0].Error)
	assert.True(t, attempts[1].Success)
}

func TestAttemptLog_ConcurrentRecording(t *testing.T) {
	log := NewAttemptLog()

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			log.RecordAttempt("http://shared", i, nil, 200, 0)
		}()
	}

	wg.Wait()

	assert.Len(t, log.ForURL("http://shared"), 50)
}
