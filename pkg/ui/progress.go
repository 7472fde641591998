package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of search progress against a result cap
type StatusTracker struct {
	Site      string
	Collected int
	Max       int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker(site string, max int) *StatusTracker {
	return &StatusTracker{
		Site:      site,
		Max:       max,
		StartTime: time.Now(),
	}
}

// Increment records one more collected result
func (st *StatusTracker) Increment() {
	st.Collected++
}

// GetProgress returns a formatted progress bar
func (st *StatusTracker) GetProgress() string {
	const width = 20
	filled := 0
	if st.Max > 0 {
		filled = min(st.Collected*width/st.Max, width)
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Collected, st.Max)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns results per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Collected) / elapsed
}

// PrintProgress prints the current progress line
func (st *StatusTracker) PrintProgress() {
	PrintHighlight(fmt.Sprintf("[%s] %s %s", strings.ToUpper(st.Site), st.GetProgress(),
		Dim(fmt.Sprintf("%.1f/min", st.GetRate()))))
}
