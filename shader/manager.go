package shader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/peragwin/glslive/gfx"
)

// Compiler is the part of the graphics backend the manager needs.
type Compiler interface {
	CompileShader(typ gfx.ShaderType, src string) (uint32, string, error)
	LinkProgram(vertex, fragment uint32) (uint32, string, error)
	DeleteShader(id uint32)
	DeleteProgram(id uint32)
}

// Manager owns the active program. Everything except RequestReload and Status
// must be called from the render thread.
type Manager struct {
	compiler Compiler
	path     string
	watcher  Watcher
	verbose  *atomic.Bool

	vertex     uint32
	active     *Program
	generation uint64
	lastErr    error
	readErr    string

	reloads  uint64
	failures uint64

	reload atomic.Bool
	status atomic.Pointer[Status]
}

// NewManager compiles the fixed vertex stage and prepares to load the fragment
// stage from path. No program is active until the first successful
// PollAndMaybeReload. verbose may be nil.
func NewManager(c Compiler, path string, w Watcher, verbose *atomic.Bool) (*Manager, error) {
	vs, log, err := c.CompileShader(gfx.VertexShaderType, gfx.VertexSource)
	if err != nil {
		return nil, newCompileError(StageVertex, log, err)
	}
	if w == nil {
		w = NewStatWatcher(path)
	}
	m := &Manager{
		compiler: c,
		path:     path,
		watcher:  w,
		verbose:  verbose,
		vertex:   vs,
	}
	m.publish()
	return m, nil
}

func newCompileError(stage Stage, log string, err error) *CompileError {
	if log == "" {
		log = err.Error()
	}
	return &CompileError{Stage: stage, Log: log}
}

// RequestReload forces the next poll to recompile even if the file did not
// change. Safe to call from any goroutine.
func (m *Manager) RequestReload() {
	m.reload.Store(true)
}

// Active returns the program to draw with, or nil before the first successful
// load. It stays valid until the next PollAndMaybeReload.
func (m *Manager) Active() *Program {
	return m.active
}

// LastError returns the error from the most recent failed load, nil once a
// load succeeds.
func (m *Manager) LastError() error {
	return m.lastErr
}

// Status returns the latest published snapshot. Safe to call from any
// goroutine.
func (m *Manager) Status() *Status {
	return m.status.Load()
}

// PollAndMaybeReload reloads the program when the file changed or a reload was
// requested. It reports whether a new program became active. On error the
// previously active program is left untouched.
func (m *Manager) PollAndMaybeReload() (bool, error) {
	forced := m.reload.Swap(false)
	stamp, changed, err := m.watcher.Changed()
	if err != nil {
		return false, m.readFailed(err)
	}
	if !changed && !forced {
		return false, nil
	}

	src, err := os.ReadFile(m.path)
	if err != nil {
		return false, m.readFailed(err)
	}
	if len(bytes.TrimSpace(src)) == 0 {
		return false, m.readFailed(fmt.Errorf("%s: %w", m.path, ErrEmptySource))
	}
	m.readErr = ""

	// this version has been seen, even if it does not compile
	m.watcher.Commit(stamp)
	if err := m.load(string(src)); err != nil {
		return false, err
	}
	return true, nil
}

// readFailed reports a transient failure, logging it only when it differs from
// the previous one.
func (m *Manager) readFailed(err error) error {
	if msg := err.Error(); msg != m.readErr {
		glog.Warningf("shader: %v", err)
		m.readErr = msg
	}
	return err
}

func (m *Manager) load(src string) error {
	start := time.Now()

	fs, fsLog, err := m.compiler.CompileShader(gfx.FragmentShaderType, src)
	if err != nil {
		return m.failed(newCompileError(StageFragment, fsLog, err))
	}
	prog, linkLog, err := m.compiler.LinkProgram(m.vertex, fs)
	m.compiler.DeleteShader(fs)
	if err != nil {
		return m.failed(newCompileError(StageLink, linkLog, err))
	}

	m.generation++
	next := &Program{
		ID:         prog,
		Compiled:   true,
		Linked:     true,
		Log:        joinLogs(fsLog, linkLog),
		CreatedAt:  time.Now(),
		Generation: m.generation,
	}
	if m.active != nil {
		m.compiler.DeleteProgram(m.active.ID)
	}
	m.active = next
	m.lastErr = nil
	m.reloads++
	m.publish()

	glog.Infof("--- LOADED --- (%d)", prog)
	if next.Log != "" {
		glog.Warningf("shader: %s", next.Log)
	}
	if bool(glog.V(1)) || m.isVerbose() {
		glog.Infof("shader: %s built in %v", m.path, time.Since(start))
	}
	return nil
}

func (m *Manager) failed(err *CompileError) error {
	m.lastErr = err
	m.failures++
	m.publish()
	glog.Errorf("--- ERROR ---\n%s: %s", err.Stage, err.Log)
	return err
}

func (m *Manager) isVerbose() bool {
	return m.verbose != nil && m.verbose.Load()
}

func (m *Manager) publish() {
	s := &Status{
		Path:     m.path,
		Reloads:  m.reloads,
		Failures: m.failures,
	}
	if m.active != nil {
		s.ProgramID = m.active.ID
		s.Generation = m.active.Generation
		s.LoadedAt = m.active.CreatedAt
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	m.status.Store(s)
}

func joinLogs(logs ...string) string {
	var b bytes.Buffer
	for _, l := range logs {
		if l == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
	}
	return b.String()
}

// Close deletes the active program and the vertex stage and stops watching.
func (m *Manager) Close() error {
	if m.active != nil {
		m.compiler.DeleteProgram(m.active.ID)
		m.active = nil
	}
	m.compiler.DeleteShader(m.vertex)
	return m.watcher.Close()
}

// IsCompileError reports whether err came from the shader compiler.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
