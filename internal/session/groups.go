package session

import (
	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/store"
)

// ListGroups returns a snapshot of every group, in no particular order.
func (m *Manager) ListGroups() []*store.Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*store.Group, 0, len(m.groups))
	for _, g := range m.groups {
		clone := *g
		out = append(out, &clone)
	}
	return out
}

// UpdateGroupInput carries the nested-option update fields for
// group.update: a nil *string leaves the name unchanged, and
// Assignment/ParentID together express the three-way parent_id update.
type UpdateGroupInput struct {
	Name       *string
	Collapsed  *bool
	Assignment GroupAssignment
	ParentID   uuid.UUID
}

// CreateGroup creates a new group under parentID (nil for top-level),
// appended after every existing sibling.
func (m *Manager) CreateGroup(name string, parentID *uuid.UUID) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID != nil {
		if _, ok := m.groups[*parentID]; !ok {
			return nil, ErrGroupNotFound
		}
	}
	siblings := groupsInParent(m.groups, parentID)

	g := &store.Group{
		ID:       uuid.New(),
		Name:     name,
		ParentID: parentID,
		Order:    uint32(len(siblings)),
	}
	m.groups[g.ID] = g
	if err := m.persistLocked(); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGroup removes a group, lifting its child groups up to its own
// parent and orphaning its member sessions to top-level.
func (m *Manager) DeleteGroup(gid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[gid]
	if !ok {
		return ErrGroupNotFound
	}
	grandparent := g.ParentID

	for _, child := range groupsInParent(m.groups, &gid) {
		child.ParentID = grandparent
	}
	for _, s := range sessionsInGroup(m.sessions, &gid) {
		s.GroupID = nil
	}

	delete(m.groups, gid)

	renumberGroups(groupsInParent(m.groups, grandparent))
	renumberSessions(sessionsInGroup(m.sessions, nil))

	return m.persistLocked()
}

// UpdateGroup applies a partial update to a group's name, collapsed flag,
// and/or parent reference, and returns the updated group. Setting a parent
// that would make the group its own ancestor is rejected.
func (m *Manager) UpdateGroup(gid uuid.UUID, in UpdateGroupInput) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[gid]
	if !ok {
		return nil, ErrGroupNotFound
	}

	if in.Name != nil {
		g.Name = *in.Name
	}
	if in.Collapsed != nil {
		g.Collapsed = *in.Collapsed
	}

	switch in.Assignment {
	case GroupCleared:
		m.moveGroupLocked(g, nil)
	case GroupSet:
		if in.ParentID == gid {
			return nil, ErrCycle
		}
		if _, ok := m.groups[in.ParentID]; !ok {
			return nil, ErrGroupNotFound
		}
		if wouldCycle(m.groups, gid, &in.ParentID) {
			return nil, ErrCycle
		}
		pid := in.ParentID
		m.moveGroupLocked(g, &pid)
	}

	if err := m.persistLocked(); err != nil {
		return nil, err
	}
	return g, nil
}

// moveGroupLocked reassigns g to newParent, appending it at the end of the
// destination's siblings and renumbering both the old and new sibling
// sets. Callers must hold m.mu for writing.
func (m *Manager) moveGroupLocked(g *store.Group, newParent *uuid.UUID) {
	oldParent := g.ParentID
	if sameGroupRef(oldParent, newParent) {
		return
	}
	g.ParentID = newParent
	renumberGroups(groupsInParent(m.groups, oldParent))

	dest := groupsInParent(m.groups, newParent)
	for i, cand := range dest {
		if cand.ID == g.ID {
			dest = append(dest[:i], dest[i+1:]...)
			break
		}
	}
	dest = append(dest, g)
	renumberGroups(dest)
}
