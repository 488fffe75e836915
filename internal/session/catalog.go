// Package session owns the in-memory session/group catalog, the PTY
// output and hook-event pipelines that keep it current, and the IPC-facing
// CRUD operations.
package session

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/store"
)

var (
	ErrNotFound      = errors.New("session: not found")
	ErrGroupNotFound = errors.New("session: group not found")
	ErrCycle         = errors.New("session: would create a cycle")
	ErrNeedsResume   = errors.New("session: source has no assistant session id to fork from")
)

// renumberSessions assigns contiguous orders [0,len) to sessions in the
// given slice, in slice order.
func renumberSessions(sessions []*store.Session) {
	for i, s := range sessions {
		s.Order = uint32(i)
	}
}

// renumberGroups assigns contiguous orders [0,len) to groups in the given
// slice, in slice order.
func renumberGroups(groups []*store.Group) {
	for i, g := range groups {
		g.Order = uint32(i)
	}
}

// sessionsInGroup returns every session whose GroupID matches groupID
// (both nil meaning top-level), sorted by Order.
func sessionsInGroup(all map[uuid.UUID]*store.Session, groupID *uuid.UUID) []*store.Session {
	var out []*store.Session
	for _, s := range all {
		if sameGroupRef(s.GroupID, groupID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// groupsInParent returns every group whose ParentID matches parentID,
// sorted by Order.
func groupsInParent(all map[uuid.UUID]*store.Group, parentID *uuid.UUID) []*store.Group {
	var out []*store.Group
	for _, g := range all {
		if sameGroupRef(g.ParentID, parentID) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func sameGroupRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// insertAfterSession rebuilds a slice with item moved (or added) to sit
// immediately after the element with id after, or at the front when after
// is nil. It returns false if after is non-nil but not found among rest.
func insertAfterSession(rest []*store.Session, item *store.Session, after *uuid.UUID) ([]*store.Session, bool) {
	if after == nil {
		return append([]*store.Session{item}, rest...), true
	}
	out := make([]*store.Session, 0, len(rest)+1)
	found := false
	for _, s := range rest {
		out = append(out, s)
		if s.ID == *after {
			out = append(out, item)
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return out, true
}

func insertAfterGroup(rest []*store.Group, item *store.Group, after *uuid.UUID) ([]*store.Group, bool) {
	if after == nil {
		return append([]*store.Group{item}, rest...), true
	}
	out := make([]*store.Group, 0, len(rest)+1)
	found := false
	for _, g := range rest {
		out = append(out, g)
		if g.ID == *after {
			out = append(out, item)
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return out, true
}

// wouldCycle reports whether setting gid's parent to newParent would make
// gid its own ancestor, by walking up from newParent through parent
// pointers looking for gid.
func wouldCycle(groups map[uuid.UUID]*store.Group, gid uuid.UUID, newParent *uuid.UUID) bool {
	if newParent == nil {
		return false
	}
	cur := *newParent
	seen := make(map[uuid.UUID]bool)
	for {
		if cur == gid {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		g, ok := groups[cur]
		if !ok || g.ParentID == nil {
			return false
		}
		cur = *g.ParentID
	}
}
