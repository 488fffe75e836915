package session

import (
	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/store"
)

// ErrAfterNotFound is returned when an explicit insertion anchor does not
// belong to the destination parent/group.
var ErrAfterNotFound = errNotFoundAnchor{}

type errNotFoundAnchor struct{}

func (errNotFoundAnchor) Error() string { return "session: insertion anchor not in destination" }

// ReorderSession moves a session to sit immediately after afterSessionID
// within groupID (nil for top-level), or at the front if afterSessionID is
// nil. It renumbers both the source and destination sibling sets to keep
// order contiguous, and returns the moved session.
func (m *Manager) ReorderSession(sid uuid.UUID, groupID *uuid.UUID, afterSessionID *uuid.UUID) (*store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, ErrNotFound
	}
	if groupID != nil {
		if _, ok := m.groups[*groupID]; !ok {
			return nil, ErrGroupNotFound
		}
	}
	if afterSessionID != nil && *afterSessionID == sid {
		return nil, ErrAfterNotFound
	}

	oldGroup := s.GroupID
	rest := sessionsInGroup(m.sessions, groupID)
	for i, cand := range rest {
		if cand.ID == sid {
			rest = append(rest[:i], rest[i+1:]...)
			break
		}
	}

	reordered, found := insertAfterSession(rest, s, afterSessionID)
	if !found {
		return nil, ErrAfterNotFound
	}

	s.GroupID = groupID
	renumberSessions(reordered)
	if !sameGroupRef(oldGroup, groupID) {
		renumberSessions(sessionsInGroup(m.sessions, oldGroup))
	}

	if err := m.persistLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReorderGroup moves a group to sit immediately after afterGroupID within
// parentID (nil for top-level), or at the front if afterGroupID is nil. A
// parentID that would make the group its own ancestor is rejected. Returns
// the moved group.
func (m *Manager) ReorderGroup(gid uuid.UUID, parentID *uuid.UUID, afterGroupID *uuid.UUID) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[gid]
	if !ok {
		return nil, ErrGroupNotFound
	}
	if parentID != nil {
		if *parentID == gid {
			return nil, ErrCycle
		}
		if _, ok := m.groups[*parentID]; !ok {
			return nil, ErrGroupNotFound
		}
		if wouldCycle(m.groups, gid, parentID) {
			return nil, ErrCycle
		}
	}
	if afterGroupID != nil && *afterGroupID == gid {
		return nil, ErrAfterNotFound
	}

	oldParent := g.ParentID
	rest := groupsInParent(m.groups, parentID)
	for i, cand := range rest {
		if cand.ID == gid {
			rest = append(rest[:i], rest[i+1:]...)
			break
		}
	}

	reordered, found := insertAfterGroup(rest, g, afterGroupID)
	if !found {
		return nil, ErrAfterNotFound
	}

	g.ParentID = parentID
	renumberGroups(reordered)
	if !sameGroupRef(oldParent, parentID) {
		renumberGroups(groupsInParent(m.groups, oldParent))
	}

	if err := m.persistLocked(); err != nil {
		return nil, err
	}
	return g, nil
}
