// Package store defines the persisted catalog data (sessions and groups)
// and its on-disk JSON representation.
package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/status"
)

// Session is one supervised PTY-backed assistant session.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	GroupID         *uuid.UUID    `json:"group_id,omitempty"`
	WorkingDir      string        `json:"working_dir"`
	Status          status.Status `json:"status"`
	PID             *int          `json:"-"`
	ClaudeSessionID *string       `json:"claude_session_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	LastActivity    time.Time     `json:"last_activity"`
	Order           uint32        `json:"order"`
}

// Group is a named, nestable container for sessions.
type Group struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Collapsed bool       `json:"collapsed"`
	Order     uint32     `json:"order"`
}

// LoadSessions reads the sessions catalog file. A missing file is not an
// error; it returns an empty slice. Every session found in a non-Stopped
// status is forced to Stopped with its pid cleared — no PTY survives a
// daemon restart, so any state implying a live process is stale.
func LoadSessions(path string) ([]*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.Status != status.Stopped {
			s.Status = status.Stopped
			s.PID = nil
		}
	}
	return sessions, nil
}

// SaveSessions backs up the current sessions file to path+".bak" (by
// rename, so the backup is always the previous write's exact bytes) and
// then writes the new catalog.
func SaveSessions(path string, sessions []*Session) error {
	return saveWithBackup(path, sessions)
}

// LoadGroups reads the groups catalog file. A missing file returns an
// empty slice.
func LoadGroups(path string) ([]*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var groups []*Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SaveGroups backs up and writes the groups catalog file.
func SaveGroups(path string, groups []*Group) error {
	return saveWithBackup(path, groups)
}

func saveWithBackup(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
