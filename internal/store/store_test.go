package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckd/internal/status"
)

func TestLoadSessionsMissingFileIsEmpty(t *testing.T) {
	sessions, err := LoadSessions(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	pid := 1234
	original := []*Session{
		{
			ID:         uuid.New(),
			Name:       "build",
			WorkingDir: "/tmp/proj",
			Status:     status.Running,
			PID:        &pid,
			CreatedAt:  time.Now().Add(-time.Hour).Truncate(time.Second),
			LastActivity: time.Now().Truncate(time.Second),
			Order:      0,
		},
	}

	require.NoError(t, SaveSessions(path, original))

	loaded, err := LoadSessions(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	assert.Equal(t, original[0].ID, loaded[0].ID)
	assert.Equal(t, original[0].Name, loaded[0].Name)
	// A running session with a live pid never survives a reload.
	assert.Equal(t, status.Stopped, loaded[0].Status)
	assert.Nil(t, loaded[0].PID)
}

func TestSaveBacksUpPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	require.NoError(t, SaveSessions(path, []*Session{{ID: uuid.New(), Name: "first"}}))
	require.NoError(t, SaveSessions(path, []*Session{{ID: uuid.New(), Name: "second"}}))

	bakData, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(bakData), "first")

	curData, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(curData), "second")
}

func TestStoppedSessionSurvivesReloadUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	require.NoError(t, SaveSessions(path, []*Session{{ID: uuid.New(), Status: status.Stopped}}))

	loaded, err := LoadSessions(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, status.Stopped, loaded[0].Status)
}

func TestLoadGroupsMissingFileIsEmpty(t *testing.T) {
	groups, err := LoadGroups(filepath.Join(t.TempDir(), "groups.json"))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.json")
	parent := uuid.New()

	require.NoError(t, SaveGroups(path, []*Group{{ID: uuid.New(), Name: "child", ParentID: &parent}}))

	loaded, err := LoadGroups(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, parent, *loaded[0].ParentID)
}
