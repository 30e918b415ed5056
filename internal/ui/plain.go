package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes plain text lines (for CI and pipes).
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(out io.Writer) *PlainRenderer {
	if out == nil {
		out = io.Discard
	}
	return &PlainRenderer{out: out}
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.File
	}
	switch {
	case event.Total > 0:
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	case msg != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d files, %d symbols indexed in %s",
		s.Files, s.Symbols, s.Duration.Round(100*time.Millisecond))
	if s.Deleted > 0 {
		_, _ = fmt.Fprintf(r.out, ", %d removed", s.Deleted)
	}
	if s.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d warnings)", s.Warnings)
	}
	_, _ = fmt.Fprintln(r.out)
}
