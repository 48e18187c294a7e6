package bdd

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StepLogger writes a timestamped trace of one scenario.
//
// Output format:
//
//	[2025-12-16 10:23:45.123] SCENARIO: Update the CWE ID
//	[2025-12-16 10:23:45.130] STEP 1: I go to a flaw detail page
//	  -> Result: passed
//	  -> Expected CWE ID: "CWE-79", got "CWE-79" [OK]
type StepLogger struct {
	mu    sync.Mutex
	out   io.Writer
	start time.Time
	n     int
}

// NewStepLogger returns a logger writing to out; nil discards.
func NewStepLogger(out io.Writer) *StepLogger {
	if out == nil {
		out = io.Discard
	}
	return &StepLogger{out: out, start: time.Now()}
}

// Scenario logs the scenario header and resets the step counter.
func (l *StepLogger) Scenario(name string) {
	l.mu.Lock()
	l.n = 0
	l.start = time.Now()
	l.mu.Unlock()
	l.write("[%s] SCENARIO: %s\n", timestamp(), name)
}

// Step logs the next numbered step.
func (l *StepLogger) Step(text string) {
	l.mu.Lock()
	l.n++
	n := l.n
	l.mu.Unlock()
	l.write("[%s] STEP %d: %s\n", timestamp(), n, text)
}

// Result logs a step result (indented).
func (l *StepLogger) Result(format string, args ...any) {
	l.write("  -> Result: %s\n", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *StepLogger) Info(format string, args ...any) {
	l.write("[%s] INFO: %s\n", timestamp(), fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *StepLogger) Error(format string, args ...any) {
	l.write("[%s] ERROR: %s\n", timestamp(), fmt.Sprintf(format, args...))
}

// Expected logs an expected vs actual comparison.
func (l *StepLogger) Expected(what string, expected, actual any, ok bool) {
	mark := "X"
	if ok {
		mark = "OK"
	}
	l.write("  -> Expected %s: %v, got %v [%s]\n", what, quoted(expected), quoted(actual), mark)
}

// Elapsed logs the time since the scenario started.
func (l *StepLogger) Elapsed() {
	l.write("[%s] Elapsed: %s\n", timestamp(), time.Since(l.start).Round(time.Millisecond))
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}

func (l *StepLogger) write(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, format, args...)
}
