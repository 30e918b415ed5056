// Package ui renders indexing progress for people (plain or styled text)
// and for tools (JSON lines).
package ui

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage is a phase of an indexing run.
type Stage int

const (
	StageBuiltins Stage = iota
	StageScanning
	StageIndexing
	StageComplete
)

// String returns the stage name used in JSON output.
func (s Stage) String() string {
	switch s {
	case StageBuiltins:
		return "builtins"
	case StageScanning:
		return "scanning"
	case StageIndexing:
		return "indexing"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Icon returns the short tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageBuiltins:
		return "BUILTIN"
	case StageScanning:
		return "SCAN"
	case StageIndexing:
		return "INDEX"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent is a progress update.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	File    string
	Message string
}

// ErrorEvent is a per-file problem. Warnings do not stop the run.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// Summary is the result of a finished run.
type Summary struct {
	Files    int
	Symbols  int
	Deleted  int
	Warnings int
	Duration time.Duration
}

// Renderer displays progress.
type Renderer interface {
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(summary Summary)
}

// Config configures renderer selection.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// NewRenderer returns a styled renderer for interactive terminals and a
// plain one for pipes, CI, NO_COLOR, or when forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || cfg.NoColor || DetectNoColor() || DetectCI() || !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg.Output)
	}
	return NewStyledRenderer(cfg.Output)
}

// Discard is a Renderer that drops everything.
var Discard Renderer = nopRenderer{}

type nopRenderer struct{}

func (nopRenderer) UpdateProgress(ProgressEvent) {}
func (nopRenderer) AddError(ErrorEvent)          {}
func (nopRenderer) Complete(Summary)             {}

// IsTTY checks if w is a terminal.
func IsTTY(w any) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
