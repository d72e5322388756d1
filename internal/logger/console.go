// Package logger provides logging implementations for harness execution.
//
// The logger package offers structured logging of run progress at the suite
// and summary levels. Implementations are thread-safe and write to any
// io.Writer; color output is enabled automatically for TTY destinations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/stackline/qaharness/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps. It supports log
// level filtering to control message verbosity.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool

	// progress tracks the currently running suite, set by LogSuiteStart and
	// cleared by LogSuiteComplete.
	progress *ProgressBar
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs and color
// output has not been disabled via NO_COLOR.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if f != os.Stdout && f != os.Stderr {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// Tracef logs a formatted trace-level message (most verbose).
func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.logWithLevel("TRACE", fmt.Sprintf(format, args...))
}

// Debugf logs a formatted debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs a formatted info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}

// logWithLevel logs a message at the specified level if filtering allows it.
// Format: "[HH:MM:SS] [LEVEL] <message>"
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		cl.writer.Write([]byte(fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)))
		return
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)))
}

// colorizeLevel formats a log level with ANSI color codes.
func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogSuiteStart logs the start of a suite execution at INFO level.
// Format: "[HH:MM:SS] Starting <suite>: <count> tests"
func (cl *ConsoleLogger) LogSuiteStart(suiteName string, testCount int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	name := suiteName
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(suiteName)
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] Starting %s: %d tests\n", ts, name, testCount)))

	cl.progress = NewProgressBar(testCount, 10, cl.colorOutput)
	cl.progress.SetPrefix(suiteName)
}

// LogSuiteComplete logs the completion of a suite execution at INFO level
// and retires the suite's progress bar.
// Format: "[HH:MM:SS] <suite> complete: <passed>/<total> passed (<duration>)"
func (cl *ConsoleLogger) LogSuiteComplete(result models.SuiteResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.progress = nil

	ts := timestamp()
	counts := result.Counts()
	durationStr := formatSeconds(result.TotalDurationSeconds)

	name := result.SuiteName
	summary := fmt.Sprintf("%d/%d passed", counts.Passed, counts.Total())
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(result.SuiteName)
		if result.HasFailures() {
			summary = color.New(color.FgYellow).Sprint(summary)
		} else {
			summary = color.New(color.FgGreen).Sprint(summary)
		}
	}
	cl.writer.Write([]byte(fmt.Sprintf("[%s] %s complete: %s (%s)\n", ts, name, summary, durationStr)))
}

// LogTestResult logs one normalized test outcome at DEBUG level and, when a
// suite is running, advances the suite progress bar at INFO level.
// Format: "[HH:MM:SS] <name>: <status>"
// Format: "[HH:MM:SS] Progress: <suite> [=====>    ] 3/8 (37%)"
func (cl *ConsoleLogger) LogTestResult(outcome models.TestOutcome) {
	if cl.writer == nil {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()

	if cl.shouldLog("debug") {
		statusText := string(outcome.Status)
		if cl.colorOutput {
			switch outcome.Status {
			case models.StatusPassed:
				statusText = color.New(color.FgGreen).Sprint(statusText)
			case models.StatusFailed:
				statusText = color.New(color.FgYellow).Sprint(statusText)
			case models.StatusError:
				statusText = color.New(color.FgRed).Sprint(statusText)
			case models.StatusSkipped:
				statusText = color.New(color.FgHiBlack).Sprint(statusText)
			}
		}
		cl.writer.Write([]byte(fmt.Sprintf("[%s] %s: %s\n", ts, outcome.Name, statusText)))
	}

	if cl.progress != nil && cl.shouldLog("info") {
		cl.progress.Increment()
		cl.writer.Write([]byte(fmt.Sprintf("[%s] Progress: %s\n", ts, cl.progress.Render())))
	}
}

// LogSummary logs the run summary with totals at INFO level.
func (cl *ConsoleLogger) LogSummary(report models.Report) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	totals := report.Totals()
	duration := report.FinishedAt.Sub(report.StartedAt)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] === Run Summary ===\n", ts)
	fmt.Fprintf(&sb, "[%s] Suites: %d\n", ts, len(report.SuiteResults))
	fmt.Fprintf(&sb, "[%s] Passed: %d  Failed: %d  Skipped: %d  Errored: %d\n",
		ts, totals.Passed, totals.Failed, totals.Skipped, totals.Errored)
	fmt.Fprintf(&sb, "[%s] Issues: %d\n", ts, len(report.Issues))

	status := report.OverallStatus
	if cl.colorOutput {
		switch report.OverallStatus {
		case models.OverallPass:
			status = color.New(color.FgGreen).Sprint(status)
		case models.OverallDegraded:
			status = color.New(color.FgYellow).Sprint(status)
		case models.OverallFail:
			status = color.New(color.FgRed).Sprint(status)
		}
	}
	fmt.Fprintf(&sb, "[%s] Status: %s (%s)\n", ts, status, duration.Round(time.Millisecond))

	cl.writer.Write([]byte(sb.String()))
}

// formatSeconds renders a duration in seconds in a compact human form.
func formatSeconds(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
