package session

import (
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/assistant"
	"github.com/agentdeck/deckd/internal/hooks"
	"github.com/agentdeck/deckd/internal/paths"
	"github.com/agentdeck/deckd/internal/ptymgr"
	"github.com/agentdeck/deckd/internal/status"
	"github.com/agentdeck/deckd/internal/store"
)

// idleTimeout is how long a Waiting session must go without activity
// before the idle checker promotes it to Idle.
const idleTimeout = 60 * time.Second

// idleCheckInterval is how often the idle checker sweeps the catalog.
const idleCheckInterval = 10 * time.Second

// EventPublisher broadcasts a named event with arbitrary JSON-able data to
// every subscribed IPC connection. Implemented by internal/ipc's broadcast
// hub; declared here so this package has no dependency on it.
type EventPublisher interface {
	Publish(event string, data any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

// Manager owns the session/group catalog and the pipelines that keep it
// current: PTY output classification, hook-event application, and the
// idle sweep.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*store.Session
	groups   map[uuid.UUID]*store.Group
	trackers map[uuid.UUID]*status.Tracker

	layout   *paths.Layout
	pty      *ptymgr.Manager
	resolver *assistant.Resolver
	detector *status.Detector
	hookMgr  *hooks.Manager
	pub      EventPublisher

	ptyOut chan ptymgr.Chunk
}

// New constructs a Manager with an empty catalog. Call Load to restore
// persisted state before serving any IPC requests.
func New(layout *paths.Layout, resolver *assistant.Resolver, hookMgr *hooks.Manager) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*store.Session),
		groups:   make(map[uuid.UUID]*store.Group),
		trackers: make(map[uuid.UUID]*status.Tracker),
		layout:   layout,
		pty:      ptymgr.New(),
		resolver: resolver,
		detector: status.NewDetector(),
		hookMgr:  hookMgr,
		pub:      noopPublisher{},
		ptyOut:   make(chan ptymgr.Chunk, 256),
	}
}

// SetPublisher wires the broadcast hub. Until called, events are dropped,
// which keeps the manager usable in tests that don't care about events.
func (m *Manager) SetPublisher(pub EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pub = pub
}

// Load restores the catalog from disk. Every non-Stopped session is
// forced Stopped by store.LoadSessions since no PTY survives a restart.
func (m *Manager) Load() error {
	sessions, err := store.LoadSessions(m.layout.SessionsFile())
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	groups, err := store.LoadGroups(m.layout.GroupsFile())
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		m.sessions[s.ID] = s
		m.trackers[s.ID] = status.NewTracker(s.Status)
	}
	for _, g := range groups {
		m.groups[g.ID] = g
	}
	return nil
}

// persistLocked writes both catalog files. Callers must hold m.mu (read or
// write) for the snapshot they pass in.
func (m *Manager) persistLocked() error {
	if m.layout == nil {
		return nil
	}
	sessions := make([]*store.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	groups := make([]*store.Group, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	if err := store.SaveSessions(m.layout.SessionsFile(), sessions); err != nil {
		return err
	}
	return store.SaveGroups(m.layout.GroupsFile(), groups)
}

// Run starts the PTY output and idle-sweep pipelines on their own
// goroutines and returns at once; both goroutines stop when done is closed.
func (m *Manager) Run(done <-chan struct{}) {
	go m.ptyOutputLoop(done)
	go m.idleLoop(done)
}

// ConsumeHookEvents starts a goroutine applying hook-reported status
// changes as authoritative overrides and returns at once. The goroutine
// runs until the channel closes or done fires.
func (m *Manager) ConsumeHookEvents(events <-chan hooks.Event, done <-chan struct{}) {
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.applyHookEvent(ev)
			}
		}
	}()
}

func (m *Manager) applyHookEvent(ev hooks.Event) {
	sid, err := uuid.Parse(ev.SessionID)
	if err != nil {
		log.Printf("session: hook event with invalid session id %q", ev.SessionID)
		return
	}

	st := status.Status(ev.State)
	switch st {
	case status.Running, status.Waiting, status.Idle, status.Error, status.Stopped:
	default:
		log.Printf("session: hook event with unknown state %q", ev.State)
		return
	}

	m.mu.Lock()
	s, ok := m.sessions[sid]
	tr := m.trackers[sid]
	if !ok || tr == nil {
		m.mu.Unlock()
		return
	}
	newStatus, changed := tr.Force(st)
	if changed {
		s.Status = newStatus
		s.LastActivity = time.Now()
		if newStatus == status.Stopped {
			s.PID = nil
		}
	}
	m.mu.Unlock()

	if changed {
		m.pub.Publish("session:status_changed", statusChangedPayload(sid, newStatus))
	}
}

func (m *Manager) ptyOutputLoop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case chunk := <-m.ptyOut:
			m.handleChunk(chunk)
		}
	}
}

// chunkLogSampleLen bounds how much of a PTY chunk gets echoed to the log
// when classifying it.
const chunkLogSampleLen = 80

// sanitizeForLog strips control characters (escape sequences, carriage
// returns) from a PTY chunk sample so a log line stays on one line.
func sanitizeForLog(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > chunkLogSampleLen {
		out = out[:chunkLogSampleLen]
	}
	return out
}

func (m *Manager) handleChunk(chunk ptymgr.Chunk) {
	text := string(chunk.Data)
	detection := m.detector.Detect(text)
	log.Printf("session: chunk sid=%s sample=%q status=%v", chunk.SID, sanitizeForLog(text), detection.Status)

	m.mu.Lock()
	s, ok := m.sessions[chunk.SID]
	tr := m.trackers[chunk.SID]
	if !ok || tr == nil {
		m.mu.Unlock()
		return
	}
	s.LastActivity = time.Now()

	var (
		changed   bool
		newStatus status.Status
	)
	if !detection.None {
		newStatus, changed = tr.Step(detection.Status, time.Now())
		if changed {
			s.Status = newStatus
		}
	}

	if s.ClaudeSessionID == nil {
		if id, ok := m.detector.ExtractSessionID(text); ok {
			s.ClaudeSessionID = &id
		}
	}
	m.mu.Unlock()

	if changed {
		m.pub.Publish("session:status_changed", statusChangedPayload(chunk.SID, newStatus))
	}
	m.pub.Publish("pty:output", ptyOutputPayload(chunk.SID, chunk.Data))
}

func (m *Manager) idleLoop(done <-chan struct{}) {
	ticker := time.NewTicker(idleCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.sweepIdle()
		}
	}
}

func (m *Manager) sweepIdle() {
	now := time.Now()

	m.mu.RLock()
	var candidates []uuid.UUID
	for id, s := range m.sessions {
		if s.Status == status.Waiting && now.Sub(s.LastActivity) > idleTimeout {
			candidates = append(candidates, id)
		}
	}
	m.mu.RUnlock()
	if len(candidates) == 0 {
		return
	}

	var changedIDs []uuid.UUID
	m.mu.Lock()
	for _, id := range candidates {
		s, ok := m.sessions[id]
		tr := m.trackers[id]
		if !ok || tr == nil {
			continue
		}
		if s.Status != status.Waiting || now.Sub(s.LastActivity) <= idleTimeout {
			continue
		}
		newStatus, changed := tr.Force(status.Idle)
		if changed {
			s.Status = newStatus
			changedIDs = append(changedIDs, id)
		}
	}
	m.mu.Unlock()

	for _, id := range changedIDs {
		m.pub.Publish("session:status_changed", statusChangedPayload(id, status.Idle))
	}
}

func statusChangedPayload(sid uuid.UUID, st status.Status) map[string]any {
	return map[string]any{"session_id": sid, "status": st}
}

func ptyOutputPayload(sid uuid.UUID, data []byte) map[string]any {
	return map[string]any{
		"session_id": sid,
		"data":       base64.StdEncoding.EncodeToString(data),
	}
}
