package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/assistant"
	"github.com/agentdeck/deckd/internal/ptymgr"
	"github.com/agentdeck/deckd/internal/status"
	"github.com/agentdeck/deckd/internal/store"
)

const (
	defaultRows uint16 = 24
	defaultCols uint16 = 80
)

// ListSessions returns a snapshot of every session, in no particular order.
func (m *Manager) ListSessions() []*store.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*store.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		clone := *s
		out = append(out, &clone)
	}
	return out
}

// GroupAssignment describes whether an update changes a session's or
// group's group/parent reference, and to what.
type GroupAssignment int

const (
	// GroupUnchanged leaves the existing reference untouched.
	GroupUnchanged GroupAssignment = iota
	// GroupCleared sets the reference to nil (top-level).
	GroupCleared
	// GroupSet points the reference at GroupID.
	GroupSet
)

// UpdateSessionInput carries the nested-option update fields for
// session.update: a nil *string leaves the name unchanged, and
// Assignment/GroupID together express the three-way group_id update.
type UpdateSessionInput struct {
	Name       *string
	Assignment GroupAssignment
	GroupID    uuid.UUID
}

// CreateSession spawns a new PTY-backed session under groupID (nil for
// top-level), appended after every existing sibling.
func (m *Manager) CreateSession(name, workingDir string, groupID *uuid.UUID) (*store.Session, error) {
	m.mu.Lock()
	if groupID != nil {
		if _, ok := m.groups[*groupID]; !ok {
			m.mu.Unlock()
			return nil, ErrGroupNotFound
		}
	}
	siblings := sessionsInGroup(m.sessions, groupID)

	now := time.Now()
	s := &store.Session{
		ID:           uuid.New(),
		Name:         name,
		GroupID:      groupID,
		WorkingDir:   workingDir,
		Status:       status.Stopped,
		CreatedAt:    now,
		LastActivity: now,
		Order:        uint32(len(siblings)),
	}
	m.sessions[s.ID] = s
	m.trackers[s.ID] = status.NewTracker(status.Stopped)
	err := m.persistLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := m.startPTY(s, "", defaultRows, defaultCols); err != nil {
		return s, err
	}
	return s, nil
}

// startPTY resolves the assistant binary and launches it under a PTY for
// an already-catalogued session, marking it Running on success. A zero
// rows or cols falls back to the default size.
func (m *Manager) startPTY(s *store.Session, resumeID string, rows, cols uint16) error {
	if rows == 0 {
		rows = defaultRows
	}
	if cols == 0 {
		cols = defaultCols
	}
	env := assistant.BuildEnv()
	for k, v := range m.hookMgr.EnvVars(s.ID.String()) {
		env[k] = v
	}

	err := m.pty.Spawn(ptymgr.SpawnOpts{
		SID:      s.ID,
		Cwd:      s.WorkingDir,
		Rows:     rows,
		Cols:     cols,
		Env:      env,
		StripEnv: assistantEnvVarsToRemove(),
		ResumeID: resumeID,
		Command:  m.resolverPath(),
		Output:   m.ptyOut,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return err
	}
	if err != nil {
		cur.Status = status.Error
		cur.PID = nil
	} else {
		cur.Status = status.Running
		if pid, ok := m.pty.PID(s.ID); ok {
			cur.PID = &pid
		}
	}
	if tr, ok := m.trackers[s.ID]; ok {
		tr.Force(cur.Status)
	}
	_ = m.persistLocked()
	return err
}

func (m *Manager) resolverPath() string {
	if m.resolver == nil {
		return ""
	}
	return m.resolver.Path()
}

func assistantEnvVarsToRemove() []string {
	return []string{
		"CI", "CONTINUOUS_INTEGRATION", "BUILD_NUMBER", "BUILD_ID",
		"GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL",
		"HUDSON_URL", "BUILDKITE", "TEAMCITY_VERSION", "BITBUCKET_COMMIT",
		"CODEBUILD_BUILD_ARN", "DRONE", "VERCEL", "NETLIFY", "RENDER",
		"SEMAPHORE", "APPVEYOR", "TF_BUILD",
	}
}

// RestartSession kills and respawns a session's PTY in place, keeping its
// catalog identity, name, and group, and returns the updated session. A
// zero rows or cols falls back to the default PTY size.
func (m *Manager) RestartSession(sid uuid.UUID, rows, cols uint16) (*store.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	_ = m.pty.Kill(sid)
	if err := m.startPTY(s, "", rows, cols); err != nil {
		return s, err
	}
	return s, nil
}

// ForkSession creates a new session that resumes from sid's assistant
// session id. The source session must have captured one from its output.
// groupID places the fork in a group of its own choosing (nil for
// top-level) rather than always inheriting the source's group. A zero rows
// or cols falls back to the default PTY size.
func (m *Manager) ForkSession(sid uuid.UUID, name string, groupID *uuid.UUID, rows, cols uint16) (*store.Session, error) {
	m.mu.RLock()
	src, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if src.ClaudeSessionID == nil {
		return nil, ErrNeedsResume
	}
	resumeID := *src.ClaudeSessionID

	m.mu.Lock()
	if groupID != nil {
		if _, ok := m.groups[*groupID]; !ok {
			m.mu.Unlock()
			return nil, ErrGroupNotFound
		}
	}
	siblings := sessionsInGroup(m.sessions, groupID)
	now := time.Now()
	forked := &store.Session{
		ID:           uuid.New(),
		Name:         name,
		GroupID:      groupID,
		WorkingDir:   src.WorkingDir,
		Status:       status.Stopped,
		CreatedAt:    now,
		LastActivity: now,
		Order:        uint32(len(siblings)),
	}
	m.sessions[forked.ID] = forked
	m.trackers[forked.ID] = status.NewTracker(status.Stopped)
	err := m.persistLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := m.startPTY(forked, resumeID, rows, cols); err != nil {
		return forked, err
	}
	return forked, nil
}

// StopSession kills a session's PTY and marks it Stopped without removing
// it from the catalog.
func (m *Manager) StopSession(sid uuid.UUID) error {
	m.mu.RLock()
	_, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if err := m.pty.Kill(sid); err != nil {
		return err
	}

	m.mu.Lock()
	s := m.sessions[sid]
	s.Status = status.Stopped
	s.PID = nil
	if tr, ok := m.trackers[sid]; ok {
		tr.Force(status.Stopped)
	}
	err := m.persistLocked()
	m.mu.Unlock()

	m.pub.Publish("session:status_changed", statusChangedPayload(sid, status.Stopped))
	return err
}

// DeleteSession stops a session's PTY if still live and removes it from
// the catalog entirely, renumbering its former siblings.
func (m *Manager) DeleteSession(sid uuid.UUID) error {
	_ = m.pty.Kill(sid)

	m.mu.Lock()
	s, ok := m.sessions[sid]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	groupID := s.GroupID
	delete(m.sessions, sid)
	delete(m.trackers, sid)

	renumberSessions(sessionsInGroup(m.sessions, groupID))
	err := m.persistLocked()
	m.mu.Unlock()
	return err
}

// InputSession writes bytes to a session's PTY.
func (m *Manager) InputSession(sid uuid.UUID, data []byte) error {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := m.pty.Write(sid, data); err != nil {
		return err
	}
	m.mu.Lock()
	s.LastActivity = time.Now()
	m.mu.Unlock()
	return nil
}

// ResizeSession changes a session's PTY window size.
func (m *Manager) ResizeSession(sid uuid.UUID, rows, cols uint16) error {
	m.mu.RLock()
	_, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return m.pty.Resize(sid, rows, cols)
}

// UpdateSession applies a partial update to a session's name and/or group
// reference, and returns the updated session.
func (m *Manager) UpdateSession(sid uuid.UUID, in UpdateSessionInput) (*store.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	if in.Name != nil {
		s.Name = *in.Name
	}

	switch in.Assignment {
	case GroupCleared:
		m.moveSessionLocked(s, nil)
	case GroupSet:
		if _, ok := m.groups[in.GroupID]; !ok {
			m.mu.Unlock()
			return nil, ErrGroupNotFound
		}
		gid := in.GroupID
		m.moveSessionLocked(s, &gid)
	}

	err := m.persistLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// moveSessionLocked reassigns s to newGroup, appending it at the end of
// the destination's siblings and renumbering both the old and new sibling
// sets. Callers must hold m.mu for writing.
func (m *Manager) moveSessionLocked(s *store.Session, newGroup *uuid.UUID) {
	oldGroup := s.GroupID
	if sameGroupRef(oldGroup, newGroup) {
		return
	}
	s.GroupID = newGroup
	renumberSessions(sessionsInGroup(m.sessions, oldGroup))

	dest := sessionsInGroup(m.sessions, newGroup)
	// s is already reassigned, so it appears in dest wherever its stale
	// Order sorts it; put it last explicitly.
	for i, cand := range dest {
		if cand.ID == s.ID {
			dest = append(dest[:i], dest[i+1:]...)
			break
		}
	}
	dest = append(dest, s)
	renumberSessions(dest)
}
