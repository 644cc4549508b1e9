// Package shader keeps a fragment program compiled from a file on disk,
// recompiling it whenever the file changes without ever leaving the renderer
// without a working program.
package shader

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptySource is returned when the shader file holds no source, usually
// because an editor is halfway through saving it.
var ErrEmptySource = errors.New("shader source is empty")

// Stage names the step that rejected a program.
type Stage string

// Stages
const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageLink     Stage = "link"
)

// CompileError is returned when a stage fails to compile or link. Log is
// never empty.
type CompileError struct {
	Stage Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Log)
}

// Program is a linked shader program.
type Program struct {
	ID       uint32
	Compiled bool
	Linked   bool
	// Log holds any warnings the driver reported for a successful build.
	Log        string
	CreatedAt  time.Time
	Generation uint64
}

// Status is a snapshot of the manager for readers off the render thread.
type Status struct {
	Path       string
	ProgramID  uint32
	Generation uint64
	LoadedAt   time.Time
	LastError  string
	Reloads    uint64
	Failures   uint64
}

// Active reports whether a program was loaded.
func (s *Status) Active() bool {
	return s.Generation > 0
}
