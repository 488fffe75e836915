package ipc

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/agentdeck/deckd/internal/session"
)

// Dispatcher binds wire methods to session.Manager operations.
type Dispatcher struct {
	mgr *session.Manager
}

// NewDispatcher returns a Dispatcher bound to mgr.
func NewDispatcher(mgr *session.Manager) *Dispatcher {
	return &Dispatcher{mgr: mgr}
}

// Dispatch handles one Request and always returns a Response with the
// same ID, even on failure.
func (d *Dispatcher) Dispatch(req Request) Response {
	result, err := d.call(req.Method, req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: toErrorInfo(err)}
	}
	return Response{ID: req.ID, Result: result}
}

func toErrorInfo(err error) *ErrorInfo {
	var ipcErr *Error
	if errors.As(err, &ipcErr) {
		return &ErrorInfo{Code: ipcErr.Code, Message: ipcErr.Message}
	}
	return &ErrorInfo{Code: CodeDomainError, Message: err.Error()}
}

func (d *Dispatcher) call(method string, params json.RawMessage) (any, error) {
	switch method {
	case "daemon.ping":
		return map[string]string{"status": "ok"}, nil

	case "session.list":
		return SessionListResult{Sessions: d.mgr.ListSessions()}, nil
	case "session.create":
		var p CreateSessionParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		s, err := d.mgr.CreateSession(p.Name, p.WorkingDir, p.GroupID)
		if err != nil {
			return nil, domainErr(err)
		}
		return SessionCreatedResult{Session: s}, nil
	case "session.restart":
		var p RestartSessionParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		s, err := d.mgr.RestartSession(p.SessionID, p.Rows, p.Cols)
		if err != nil {
			return nil, domainErr(err)
		}
		return SessionCreatedResult{Session: s}, nil
	case "session.fork":
		var p ForkSessionParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		s, err := d.mgr.ForkSession(p.SessionID, p.Name, p.GroupID, p.Rows, p.Cols)
		if err != nil {
			return nil, domainErr(err)
		}
		return SessionCreatedResult{Session: s}, nil
	case "session.stop":
		var p SessionIDParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		if err := d.mgr.StopSession(p.SessionID); err != nil {
			return nil, domainErr(err)
		}
		return SuccessResult{Success: true}, nil
	case "session.delete":
		var p SessionIDParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		if err := d.mgr.DeleteSession(p.SessionID); err != nil {
			return nil, domainErr(err)
		}
		return SuccessResult{Success: true}, nil
	case "session.input":
		var p SessionInputParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			data = []byte(p.Data)
		}
		if err := d.mgr.InputSession(p.SessionID, data); err != nil {
			return nil, domainErr(err)
		}
		return SuccessResult{Success: true}, nil
	case "session.resize":
		var p SessionResizeParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		if err := d.mgr.ResizeSession(p.SessionID, p.Rows, p.Cols); err != nil {
			return nil, domainErr(err)
		}
		return SuccessResult{Success: true}, nil
	case "session.update":
		var p UpdateSessionParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		in, err := sessionUpdateInput(p)
		if err != nil {
			return nil, err
		}
		s, err := d.mgr.UpdateSession(p.SessionID, in)
		if err != nil {
			return nil, domainErr(err)
		}
		return SessionCreatedResult{Session: s}, nil
	case "session.reorder":
		var p ReorderSessionParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		s, err := d.mgr.ReorderSession(p.SessionID, p.GroupID, p.AfterSessionID)
		if err != nil {
			return nil, domainErr(err)
		}
		return SessionCreatedResult{Session: s}, nil

	case "group.list":
		return GroupListResult{Groups: d.mgr.ListGroups()}, nil
	case "group.create":
		var p CreateGroupParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		g, err := d.mgr.CreateGroup(p.Name, p.ParentID)
		if err != nil {
			return nil, domainErr(err)
		}
		return GroupCreatedResult{Group: g}, nil
	case "group.delete":
		var p GroupIDParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		if err := d.mgr.DeleteGroup(p.GroupID); err != nil {
			return nil, domainErr(err)
		}
		return SuccessResult{Success: true}, nil
	case "group.update":
		var p UpdateGroupParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		in, err := groupUpdateInput(p)
		if err != nil {
			return nil, err
		}
		g, err := d.mgr.UpdateGroup(p.GroupID, in)
		if err != nil {
			return nil, domainErr(err)
		}
		return GroupCreatedResult{Group: g}, nil
	case "group.reorder":
		var p ReorderGroupParams
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		g, err := d.mgr.ReorderGroup(p.GroupID, p.ParentID, p.AfterGroupID)
		if err != nil {
			return nil, domainErr(err)
		}
		return GroupCreatedResult{Group: g}, nil

	default:
		return nil, NewError(CodeMethodNotFound, "unknown method: "+method)
	}
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewError(CodeInvalidParams, err.Error())
	}
	return nil
}

func domainErr(err error) error {
	if err == nil {
		return nil
	}
	var ipcErr *Error
	if errors.As(err, &ipcErr) {
		return ipcErr
	}
	return NewError(CodeDomainError, err.Error())
}

// sessionUpdateInput resolves UpdateSessionParams's raw group_id field into
// the three-way assignment session.UpdateSession expects: an absent key
// leaves the group unchanged, an explicit null clears it, and a present
// value reassigns it.
func sessionUpdateInput(p UpdateSessionParams) (session.UpdateSessionInput, error) {
	in := session.UpdateSessionInput{Name: p.Name}
	if p.GroupID == nil {
		return in, nil
	}
	if string(*p.GroupID) == "null" {
		in.Assignment = session.GroupCleared
		return in, nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(*p.GroupID, &id); err != nil {
		return in, NewError(CodeInvalidParams, err.Error())
	}
	in.Assignment = session.GroupSet
	in.GroupID = id
	return in, nil
}

// groupUpdateInput is sessionUpdateInput's counterpart for
// UpdateGroupParams's raw parent_id field.
func groupUpdateInput(p UpdateGroupParams) (session.UpdateGroupInput, error) {
	in := session.UpdateGroupInput{Name: p.Name, Collapsed: p.Collapsed}
	if p.ParentID == nil {
		return in, nil
	}
	if string(*p.ParentID) == "null" {
		in.Assignment = session.GroupCleared
		return in, nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(*p.ParentID, &id); err != nil {
		return in, NewError(CodeInvalidParams, err.Error())
	}
	in.Assignment = session.GroupSet
	in.ParentID = id
	return in, nil
}
