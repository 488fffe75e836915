package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureScriptWritesExecutable(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, filepath.Join(dir, "hooks.sock"))

	path, err := m.EnsureScript()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ScriptName), path)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), st.Mode().Perm())
}

func TestEnsureScriptIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, filepath.Join(dir, "hooks.sock"))

	path1, err := m.EnsureScript()
	require.NoError(t, err)

	path2, err := m.EnsureScript()
	require.NoError(t, err)
	assert.Equal(t, path1, path2)
}

func TestEnvVars(t *testing.T) {
	m := NewManager("/tmp/hooks", "/tmp/hooks.sock")
	vars := m.EnvVars("sess-1")
	assert.Equal(t, "/tmp/hooks", vars["CLAUDE_HOOKS_DIR"])
	assert.Equal(t, "sess-1", vars["AGENT_DECK_SESSION_ID"])
	assert.Equal(t, "/tmp/hooks.sock", vars["AGENT_DECK_SOCKET"])
}
