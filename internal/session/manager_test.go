package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckd/internal/hooks"
	"github.com/agentdeck/deckd/internal/ptymgr"
	"github.com/agentdeck/deckd/internal/status"
	"github.com/agentdeck/deckd/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestHandleChunkConfirmsRunningAndBroadcasts(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub
	m.detector = status.NewDetector()

	s := addBareSession(m, nil, 0)
	m.sessions[s.ID].Status = status.Waiting
	m.trackers[s.ID] = status.NewTracker(status.Waiting)

	m.handleChunk(ptymgr.Chunk{SID: s.ID, Data: []byte("✻ Thinking… (esc to interrupt)")})

	sessions := m.ListSessions()
	assert.Equal(t, status.Running, sessions[0].Status)
	assert.Equal(t, 1, pub.count("session:status_changed"))
	assert.Equal(t, 1, pub.count("pty:output"))
}

func TestHandleChunkCapturesAssistantSessionID(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub
	m.detector = status.NewDetector()

	s := addBareSession(m, nil, 0)

	m.handleChunk(ptymgr.Chunk{
		SID:  s.ID,
		Data: []byte("session: 11111111-1111-1111-1111-111111111111 ready"),
	})

	sessions := m.ListSessions()
	require.NotNil(t, sessions[0].ClaudeSessionID)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", *sessions[0].ClaudeSessionID)
}

func TestApplyHookEventOverridesTrackerImmediately(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub

	s := addBareSession(m, nil, 0)
	m.sessions[s.ID].Status = status.Running
	m.trackers[s.ID] = status.NewTracker(status.Running)

	m.applyHookEvent(hooks.Event{SessionID: s.ID.String(), State: "idle", Event: "stopped"})

	sessions := m.ListSessions()
	assert.Equal(t, status.Idle, sessions[0].Status)
	assert.Equal(t, 1, pub.count("session:status_changed"))
}

func TestApplyHookEventUnknownStateIsDropped(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub

	s := addBareSession(m, nil, 0)
	m.sessions[s.ID].Status = status.Running
	m.trackers[s.ID] = status.NewTracker(status.Running)

	m.applyHookEvent(hooks.Event{SessionID: s.ID.String(), State: "bogus"})

	assert.Equal(t, status.Running, m.ListSessions()[0].Status)
	assert.Equal(t, 0, pub.count("session:status_changed"))
}

func TestSweepIdlePromotesStaleWaitingSessions(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub

	s := addBareSession(m, nil, 0)
	m.sessions[s.ID].Status = status.Waiting
	m.sessions[s.ID].LastActivity = time.Now().Add(-2 * time.Minute)
	m.trackers[s.ID] = status.NewTracker(status.Waiting)

	m.sweepIdle()

	assert.Equal(t, status.Idle, m.ListSessions()[0].Status)
	assert.Equal(t, 1, pub.count("session:status_changed"))
}

func TestSweepIdleLeavesRecentWaitingSessionsAlone(t *testing.T) {
	m := newBareManager()
	pub := &recordingPublisher{}
	m.pub = pub

	s := addBareSession(m, nil, 0)
	m.sessions[s.ID].Status = status.Waiting
	m.sessions[s.ID].LastActivity = time.Now()
	m.trackers[s.ID] = status.NewTracker(status.Waiting)

	m.sweepIdle()

	assert.Equal(t, status.Waiting, m.ListSessions()[0].Status)
	assert.Equal(t, 0, pub.count("session:status_changed"))
}

func TestUpdateSessionRenamesAndMoves(t *testing.T) {
	m := newBareManager()
	g, err := m.CreateGroup("g", nil)
	require.NoError(t, err)
	s := addBareSession(m, nil, 0)

	newName := "renamed"
	_, err = m.UpdateSession(s.ID, UpdateSessionInput{Name: &newName, Assignment: GroupSet, GroupID: g.ID})
	require.NoError(t, err)

	sessions := m.ListSessions()
	assert.Equal(t, "renamed", sessions[0].Name)
	require.NotNil(t, sessions[0].GroupID)
	assert.Equal(t, g.ID, *sessions[0].GroupID)
}

func TestUpdateSessionUnknownGroupErrors(t *testing.T) {
	m := newBareManager()
	s := addBareSession(m, nil, 0)
	ghost := uuid.New()

	_, err := m.UpdateSession(s.ID, UpdateSessionInput{Assignment: GroupSet, GroupID: ghost})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestStoppedSessionHasNoPID(t *testing.T) {
	m := newBareManager()
	pid := 4242
	s := &store.Session{ID: uuid.New(), Status: status.Running, PID: &pid}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.trackers[s.ID] = status.NewTracker(status.Running)
	m.mu.Unlock()

	m.mu.Lock()
	s.Status = status.Stopped
	s.PID = nil
	m.mu.Unlock()

	assert.Nil(t, m.ListSessions()[0].PID)
}
