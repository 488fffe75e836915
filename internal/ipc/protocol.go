// Package ipc implements the daemon's line-delimited JSON request/response
// and event protocol over a Unix domain socket. A connection stays open
// and interleaves request/response traffic with pushed events rather than
// handling one request per connection.
package ipc

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/store"
)

// Error codes follow JSON-RPC convention.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeDomainError    = -32000
)

// Request is one line of client input.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers exactly one Request by ID.
type Response struct {
	ID     uint64     `json:"id"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is a machine-readable dispatch failure.
type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Event is a push notification not tied to any particular request.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Error is the typed error dispatch handlers return; it carries the code
// that belongs in the wire response.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(code int, message string) *Error { return &Error{Code: code, Message: message} }

// CreateSessionParams is session.create's params.
type CreateSessionParams struct {
	Name       string     `json:"name"`
	WorkingDir string     `json:"working_dir"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
}

// SessionIDParams is the params shape shared by every session method that
// only needs to identify its target: stop, delete.
type SessionIDParams struct {
	SessionID uuid.UUID `json:"session_id"`
}

// RestartSessionParams is session.restart's params. Rows/Cols size the PTY
// the respawned process gets; a zero value falls back to the default size.
type RestartSessionParams struct {
	SessionID uuid.UUID `json:"session_id"`
	Rows      uint16    `json:"rows"`
	Cols      uint16    `json:"cols"`
}

// SessionInputParams is session.input's params. Data is base64-encoded
// when possible; dispatch falls back to raw bytes if it doesn't decode.
type SessionInputParams struct {
	SessionID uuid.UUID `json:"session_id"`
	Data      string    `json:"data"`
}

// SessionResizeParams is session.resize's params.
type SessionResizeParams struct {
	SessionID uuid.UUID `json:"session_id"`
	Rows      uint16    `json:"rows"`
	Cols      uint16    `json:"cols"`
}

// ForkSessionParams is session.fork's params. GroupID places the fork in a
// group of its own choosing instead of always inheriting the source
// session's group; nil forks to top-level. Rows/Cols size the PTY, falling
// back to the default size when zero.
type ForkSessionParams struct {
	SessionID uuid.UUID  `json:"session_id"`
	Name      string     `json:"name"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	Rows      uint16     `json:"rows"`
	Cols      uint16     `json:"cols"`
}

// UpdateSessionParams is session.update's params. GroupID uses raw JSON so
// dispatch can distinguish an absent key (leave unchanged) from an
// explicit null (clear to top-level) from a present id (reassign).
type UpdateSessionParams struct {
	SessionID uuid.UUID        `json:"session_id"`
	Name      *string          `json:"name,omitempty"`
	GroupID   *json.RawMessage `json:"group_id,omitempty"`
}

// ReorderSessionParams is session.reorder's params.
type ReorderSessionParams struct {
	SessionID      uuid.UUID  `json:"session_id"`
	GroupID        *uuid.UUID `json:"group_id,omitempty"`
	AfterSessionID *uuid.UUID `json:"after_session_id,omitempty"`
}

// CreateGroupParams is group.create's params.
type CreateGroupParams struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// GroupIDParams identifies a target group for group.delete. The field is
// named session_id on the wire for historical reasons even though it
// carries a group id.
type GroupIDParams struct {
	GroupID uuid.UUID `json:"session_id"`
}

// UpdateGroupParams is group.update's params, with the same raw-JSON
// nested-option handling as UpdateSessionParams.
type UpdateGroupParams struct {
	GroupID   uuid.UUID        `json:"group_id"`
	Name      *string          `json:"name,omitempty"`
	Collapsed *bool            `json:"collapsed,omitempty"`
	ParentID  *json.RawMessage `json:"parent_id,omitempty"`
}

// ReorderGroupParams is group.reorder's params.
type ReorderGroupParams struct {
	GroupID      uuid.UUID  `json:"group_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	AfterGroupID *uuid.UUID `json:"after_group_id,omitempty"`
}

// SessionListResult is session.list's result.
type SessionListResult struct {
	Sessions []*store.Session `json:"sessions"`
}

// GroupListResult is group.list's result.
type GroupListResult struct {
	Groups []*store.Group `json:"groups"`
}

// SessionCreatedResult wraps a single newly created session.
type SessionCreatedResult struct {
	Session *store.Session `json:"session"`
}

// GroupCreatedResult wraps a single newly created group.
type GroupCreatedResult struct {
	Group *store.Group `json:"group"`
}

// SuccessResult is the result of a method whose only outcome is whether it
// succeeded: session.stop, session.delete, session.input, session.resize,
// group.delete.
type SuccessResult struct {
	Success bool `json:"success"`
}
