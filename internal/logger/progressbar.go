package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ProgressBar represents an ASCII progress bar for suite execution with
// optional color support.
type ProgressBar struct {
	current     int
	total       int
	width       int
	enableColor bool
	prefix      string
	mu          sync.RWMutex
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// SetPrefix sets a label rendered before the bar (typically the suite name).
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Update sets the current progress value.
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// Increment increments the current progress by 1.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
}

// Current returns the current progress value.
func (pb *ProgressBar) Current() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.current
}

// Total returns the total progress value.
func (pb *ProgressBar) Total() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.total
}

// Percentage returns the progress percentage (0-100).
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	if pb.total <= 0 {
		return 0
	}
	pct := pb.current * 100 / pb.total
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Render returns the bar as a string, e.g. "billing [=====>    ] 12/20 (60%)".
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	filled := 0
	if pb.total > 0 {
		filled = pb.current * pb.width / pb.total
		if filled > pb.width {
			filled = pb.width
		}
	}

	var bar string
	switch {
	case filled <= 0:
		bar = strings.Repeat(" ", pb.width)
	case filled >= pb.width:
		bar = strings.Repeat("=", pb.width)
	default:
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(" ", pb.width-filled)
	}

	if pb.enableColor {
		bar = color.New(color.FgGreen).Sprint(bar)
	}

	pct := 0
	if pb.total > 0 {
		pct = pb.current * 100 / pb.total
		if pct > 100 {
			pct = 100
		}
	}

	out := fmt.Sprintf("[%s] %d/%d (%d%%)", bar, pb.current, pb.total, pct)
	if pb.prefix != "" {
		out = pb.prefix + " " + out
	}
	return out
}
