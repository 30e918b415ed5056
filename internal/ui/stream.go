package ui

import (
	"encoding/json"
	"io"
	"sync"
)

// StreamRenderer writes one JSON object per line, for editors and other
// tools that follow indexing progress.
type StreamRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// StreamEvent is the wire form of every line.
type StreamEvent struct {
	Type     string `json:"type"` // progress, warning, error, complete
	Stage    string `json:"stage,omitempty"`
	Current  int    `json:"current,omitempty"`
	Total    int    `json:"total,omitempty"`
	File     string `json:"file,omitempty"`
	Message  string `json:"message,omitempty"`
	Files    int    `json:"files,omitempty"`
	Symbols  int    `json:"symbols,omitempty"`
	Deleted  int    `json:"deleted,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	Millis   int64  `json:"duration_ms,omitempty"`
}

// NewStreamRenderer creates a JSON-lines renderer.
func NewStreamRenderer(out io.Writer) *StreamRenderer {
	if out == nil {
		out = io.Discard
	}
	return &StreamRenderer{enc: json.NewEncoder(out)}
}

func (r *StreamRenderer) emit(ev StreamEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(ev)
}

// UpdateProgress implements Renderer.
func (r *StreamRenderer) UpdateProgress(event ProgressEvent) {
	r.emit(StreamEvent{
		Type:    "progress",
		Stage:   event.Stage.String(),
		Current: event.Current,
		Total:   event.Total,
		File:    event.File,
		Message: event.Message,
	})
}

// AddError implements Renderer.
func (r *StreamRenderer) AddError(event ErrorEvent) {
	typ := "error"
	if event.IsWarn {
		typ = "warning"
	}
	msg := ""
	if event.Err != nil {
		msg = event.Err.Error()
	}
	r.emit(StreamEvent{Type: typ, File: event.File, Message: msg})
}

// Complete implements Renderer.
func (r *StreamRenderer) Complete(s Summary) {
	r.emit(StreamEvent{
		Type:     "complete",
		Files:    s.Files,
		Symbols:  s.Symbols,
		Deleted:  s.Deleted,
		Warnings: s.Warnings,
		Millis:   s.Duration.Milliseconds(),
	})
}
