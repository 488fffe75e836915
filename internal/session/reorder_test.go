package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckd/internal/status"
	"github.com/agentdeck/deckd/internal/store"
)

func addBareSession(m *Manager, groupID *uuid.UUID, order uint32) *store.Session {
	s := &store.Session{ID: uuid.New(), GroupID: groupID, Order: order}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.trackers[s.ID] = status.NewTracker(status.Stopped)
	m.mu.Unlock()
	return s
}

func orderOf(sessions []*store.Session, id uuid.UUID) uint32 {
	for _, s := range sessions {
		if s.ID == id {
			return s.Order
		}
	}
	return 999
}

func TestReorderSessionWithinSameGroupIsContiguous(t *testing.T) {
	m := newBareManager()
	a := addBareSession(m, nil, 0)
	b := addBareSession(m, nil, 1)
	c := addBareSession(m, nil, 2)

	_, err := m.ReorderSession(c.ID, nil, &a.ID)
	require.NoError(t, err)

	sessions := m.ListSessions()
	assert.Equal(t, uint32(0), orderOf(sessions, a.ID))
	assert.Equal(t, uint32(1), orderOf(sessions, c.ID))
	assert.Equal(t, uint32(2), orderOf(sessions, b.ID))
}

func TestReorderSessionAcrossGroupsRenumbersBoth(t *testing.T) {
	m := newBareManager()
	g, err := m.CreateGroup("g", nil)
	require.NoError(t, err)

	a := addBareSession(m, nil, 0)
	b := addBareSession(m, nil, 1)
	c := addBareSession(m, nil, 2)

	_, err = m.ReorderSession(b.ID, &g.ID, nil)
	require.NoError(t, err)

	sessions := m.ListSessions()
	assert.Equal(t, uint32(0), orderOf(sessions, a.ID))
	assert.Equal(t, uint32(1), orderOf(sessions, c.ID))
	assert.Equal(t, uint32(0), orderOf(sessions, b.ID))

	for _, s := range sessions {
		if s.ID == b.ID {
			require.NotNil(t, s.GroupID)
			assert.Equal(t, g.ID, *s.GroupID)
		}
	}
}

func TestReorderSessionFrontWhenAfterIsNil(t *testing.T) {
	m := newBareManager()
	a := addBareSession(m, nil, 0)
	b := addBareSession(m, nil, 1)

	_, err := m.ReorderSession(b.ID, nil, nil)
	require.NoError(t, err)

	sessions := m.ListSessions()
	assert.Equal(t, uint32(0), orderOf(sessions, b.ID))
	assert.Equal(t, uint32(1), orderOf(sessions, a.ID))
}

func TestReorderSessionUnknownAnchorErrors(t *testing.T) {
	m := newBareManager()
	a := addBareSession(m, nil, 0)
	ghost := uuid.New()

	_, err := m.ReorderSession(a.ID, nil, &ghost)
	assert.ErrorIs(t, err, ErrAfterNotFound)
}

func groupOrderOf(groups []*store.Group, id uuid.UUID) uint32 {
	for _, g := range groups {
		if g.ID == id {
			return g.Order
		}
	}
	return 999
}

func TestReorderGroupRejectsCycle(t *testing.T) {
	m := newBareManager()
	p, err := m.CreateGroup("p", nil)
	require.NoError(t, err)
	q, err := m.CreateGroup("q", &p.ID)
	require.NoError(t, err)
	r, err := m.CreateGroup("r", &q.ID)
	require.NoError(t, err)

	_, err = m.ReorderGroup(p.ID, &r.ID, nil)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestReorderGroupWithinSameParent(t *testing.T) {
	m := newBareManager()
	a, err := m.CreateGroup("a", nil)
	require.NoError(t, err)
	b, err := m.CreateGroup("b", nil)
	require.NoError(t, err)
	c, err := m.CreateGroup("c", nil)
	require.NoError(t, err)

	_, err = m.ReorderGroup(c.ID, nil, &a.ID)
	require.NoError(t, err)

	groups := m.ListGroups()
	assert.Equal(t, uint32(0), groupOrderOf(groups, a.ID))
	assert.Equal(t, uint32(1), groupOrderOf(groups, c.ID))
	assert.Equal(t, uint32(2), groupOrderOf(groups, b.ID))
}
