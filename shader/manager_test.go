package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peragwin/glslive/gfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFake = errors.New("fake failure")

// fakeCompiler rejects fragment sources containing "syntax error" and fails to
// link sources containing "unresolved".
type fakeCompiler struct {
	next           uint32
	failVertex     bool
	shaders        map[uint32]bool
	programs       map[uint32]bool
	deletedProgram []uint32
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{next: 1, shaders: map[uint32]bool{}, programs: map[uint32]bool{}}
}

func (c *fakeCompiler) CompileShader(typ gfx.ShaderType, src string) (uint32, string, error) {
	if typ == gfx.VertexShaderType && c.failVertex {
		return 0, "0:1(1): error: vertex broken", errFake
	}
	if strings.Contains(src, "syntax error") {
		return 0, "0:3(5): error: syntax error, unexpected IDENTIFIER", errFake
	}
	if strings.Contains(src, "silent") {
		return 0, "", errFake
	}
	id := c.next
	c.next++
	c.shaders[id] = true
	return id, "", nil
}

func (c *fakeCompiler) LinkProgram(vertex, fragment uint32) (uint32, string, error) {
	if !c.shaders[vertex] || !c.shaders[fragment] {
		return 0, "missing shader", errFake
	}
	id := c.next
	c.next++
	c.programs[id] = true
	return id, "", nil
}

func (c *fakeCompiler) DeleteShader(id uint32) { delete(c.shaders, id) }

func (c *fakeCompiler) DeleteProgram(id uint32) {
	delete(c.programs, id)
	c.deletedProgram = append(c.deletedProgram, id)
}

// fakeWatcher reports a change whenever changed is set and nothing was
// committed since.
type fakeWatcher struct {
	changed bool
	err     error
	commits int
	closed  bool
}

func (w *fakeWatcher) Changed() (Stamp, bool, error) {
	if w.err != nil {
		return Stamp{}, false, w.err
	}
	return Stamp{Size: int64(w.commits)}, w.changed, nil
}

func (w *fakeWatcher) Commit(Stamp) {
	w.changed = false
	w.commits++
}

func (w *fakeWatcher) Close() error {
	w.closed = true
	return nil
}

const validSource = `#version 410 core
in vec2 out_texcoord;
out vec4 color;
void main() { color = vec4(out_texcoord, 0.0, 1.0); }
`

func writeShader(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func newTestManager(t *testing.T, src string) (*Manager, *fakeCompiler, *fakeWatcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.frag")
	writeShader(t, path, src)
	c := newFakeCompiler()
	w := &fakeWatcher{changed: true}
	m, err := NewManager(c, path, w, nil)
	require.NoError(t, err)
	return m, c, w, path
}

func TestInitialLoad(t *testing.T) {
	m, c, w, _ := newTestManager(t, validSource)
	assert.Nil(t, m.Active())
	assert.False(t, m.Status().Active())

	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)

	p := m.Active()
	require.NotNil(t, p)
	assert.True(t, p.Compiled)
	assert.True(t, p.Linked)
	assert.Equal(t, uint64(1), p.Generation)
	assert.True(t, c.programs[p.ID])
	assert.Equal(t, 1, w.commits)

	s := m.Status()
	assert.True(t, s.Active())
	assert.Equal(t, p.ID, s.ProgramID)
	assert.Equal(t, uint64(1), s.Reloads)
	assert.Empty(t, s.LastError)
}

func TestUnchangedDoesNotReload(t *testing.T) {
	m, _, _, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	first := m.Active()

	// even a deleted file is not read while the watcher reports no change
	require.NoError(t, os.Remove(path))
	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Same(t, first, m.Active())
}

func TestInvalidReloadKeepsProgram(t *testing.T) {
	m, c, w, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	before := m.Active()

	writeShader(t, path, "void main() { syntax error }")
	w.changed = true
	loaded, err := m.PollAndMaybeReload()
	assert.False(t, loaded)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageFragment, ce.Stage)
	assert.NotEmpty(t, ce.Log)
	assert.True(t, IsCompileError(err))

	assert.Same(t, before, m.Active())
	assert.True(t, c.programs[before.ID])
	assert.Empty(t, c.deletedProgram)
	assert.Equal(t, err, m.LastError())
	assert.Equal(t, uint64(1), m.Status().Failures)
	assert.NotEmpty(t, m.Status().LastError)

	// the broken version was seen and is not retried
	loaded, err = m.PollAndMaybeReload()
	assert.NoError(t, err)
	assert.False(t, loaded)
}

func TestLinkFailureKeepsProgram(t *testing.T) {
	m, c, w, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	before := m.Active()

	// a vertex stage that was deleted makes the link fail
	delete(c.shaders, m.vertex)
	writeShader(t, path, validSource+"// edited\n")
	w.changed = true
	_, err = m.PollAndMaybeReload()
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageLink, ce.Stage)
	assert.Equal(t, "missing shader", ce.Log)
	assert.Same(t, before, m.Active())
	assert.Empty(t, c.shaders, "fragment shader leaked")
}

func TestCompileErrorWithoutLog(t *testing.T) {
	m, _, _, _ := newTestManager(t, "silent")
	_, err := m.PollAndMaybeReload()
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.Log)
	assert.Nil(t, m.Active())
}

func TestValidReloadReplacesProgram(t *testing.T) {
	m, c, w, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	first := m.Active()

	writeShader(t, path, validSource+"// v2\n")
	w.changed = true
	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)

	second := m.Active()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint64(2), second.Generation)
	assert.Equal(t, []uint32{first.ID}, c.deletedProgram)
	assert.Len(t, c.programs, 1)
	assert.Nil(t, m.LastError())
}

func TestErrorThenFixClearsLastError(t *testing.T) {
	m, _, w, path := newTestManager(t, "syntax error")
	_, err := m.PollAndMaybeReload()
	require.Error(t, err)
	assert.Nil(t, m.Active())

	writeShader(t, path, validSource)
	w.changed = true
	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Nil(t, m.LastError())
	assert.Empty(t, m.Status().LastError)
}

func TestEmptyFileReportsFailureAndRetries(t *testing.T) {
	m, _, w, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	before := m.Active()

	writeShader(t, path, "  \n")
	w.changed = true
	loaded, err := m.PollAndMaybeReload()
	assert.False(t, loaded)
	assert.ErrorIs(t, err, ErrEmptySource)
	assert.Same(t, before, m.Active())
	assert.Equal(t, 1, w.commits, "empty read must not be committed")

	// the editor finishes writing
	writeShader(t, path, validSource+"// saved\n")
	loaded, err = m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)
}

func TestMissingFileReportsFailure(t *testing.T) {
	m, _, w, path := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	before := m.Active()

	require.NoError(t, os.Remove(path))
	w.changed = true
	loaded, err := m.PollAndMaybeReload()
	assert.False(t, loaded)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Same(t, before, m.Active())

	w.err = os.ErrNotExist
	_, err = m.PollAndMaybeReload()
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Same(t, before, m.Active())
}

func TestRequestReload(t *testing.T) {
	m, _, _, _ := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	first := m.Active()

	m.RequestReload()
	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.NotEqual(t, first.ID, m.Active().ID)

	// the request is consumed
	loaded, err = m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestVertexFailure(t *testing.T) {
	c := newFakeCompiler()
	c.failVertex = true
	_, err := NewManager(c, "unused.frag", &fakeWatcher{}, nil)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StageVertex, ce.Stage)
	assert.NotEmpty(t, ce.Log)
}

func TestClose(t *testing.T) {
	m, c, w, _ := newTestManager(t, validSource)
	_, err := m.PollAndMaybeReload()
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.Empty(t, c.programs)
	assert.Empty(t, c.shaders)
	assert.True(t, w.closed)
	assert.Nil(t, m.Active())
}

func TestManagerWithStatWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.frag")
	writeShader(t, path, validSource)
	m, err := NewManager(newFakeCompiler(), path, nil, nil)
	require.NoError(t, err)
	defer m.Close()

	loaded, err := m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.False(t, loaded)

	writeShader(t, path, validSource+"// changed\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	loaded, err = m.PollAndMaybeReload()
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, uint64(2), m.Active().Generation)
}
