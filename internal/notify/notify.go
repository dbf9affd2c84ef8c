// Package notify delivers short user-facing success and error messages.
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows the outcome of a user action.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Discard drops every message.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// Writer prints successes to out and errors to errOut, one line each.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewWriter returns a Writer. Pass the same writer twice to interleave both kinds.
func NewWriter(out, errOut io.Writer) *Writer {
	return &Writer{out: out, errOut: errOut}
}

func (w *Writer) Success(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "✓ %s\n", message)
}

func (w *Writer) Error(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.errOut, "✗ %s\n", message)
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

// LastError returns the most recent error message, or "" if there is none.
func (r *Recorder) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[len(r.Errors)-1]
}
