package ipc

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/deckd/internal/session"
)

func newTestDispatcher() *Dispatcher {
	mgr := session.New(nil, nil, nil)
	return NewDispatcher(mgr)
}

func TestDispatchPing(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: 1, Method: "daemon.ping"})
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]string{"status": "ok"}, resp.Result)
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: 2, Method: "bogus.method"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestDispatchInvalidParams(t *testing.T) {
	d := newTestDispatcher()
	resp := d.Dispatch(Request{ID: 3, Method: "group.create", Params: json.RawMessage(`{"name":123}`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestDispatchGroupLifecycle(t *testing.T) {
	d := newTestDispatcher()

	createResp := d.Dispatch(Request{ID: 4, Method: "group.create", Params: json.RawMessage(`{"name":"g1"}`)})
	require.Nil(t, createResp.Error)
	created, ok := createResp.Result.(GroupCreatedResult)
	require.True(t, ok)
	require.NotNil(t, created.Group)

	listResp := d.Dispatch(Request{ID: 5, Method: "group.list"})
	require.Nil(t, listResp.Error)
	list, ok := listResp.Result.(GroupListResult)
	require.True(t, ok)
	assert.Len(t, list.Groups, 1)

	deleteParams, _ := json.Marshal(map[string]string{"session_id": created.Group.ID.String()})
	deleteResp := d.Dispatch(Request{ID: 6, Method: "group.delete", Params: deleteParams})
	assert.Nil(t, deleteResp.Error)
}

func TestDispatchGroupUpdateCycleRejected(t *testing.T) {
	d := newTestDispatcher()

	pResp := d.Dispatch(Request{ID: 7, Method: "group.create", Params: json.RawMessage(`{"name":"p"}`)})
	p := pResp.Result.(GroupCreatedResult).Group

	qParams, _ := json.Marshal(CreateGroupParams{Name: "q", ParentID: &p.ID})
	qResp := d.Dispatch(Request{ID: 8, Method: "group.create", Params: qParams})
	q := qResp.Result.(GroupCreatedResult).Group

	updateParams, _ := json.Marshal(map[string]any{
		"group_id":  p.ID,
		"parent_id": q.ID,
	})
	updateResp := d.Dispatch(Request{ID: 9, Method: "group.update", Params: updateParams})
	require.NotNil(t, updateResp.Error)
	assert.Equal(t, CodeDomainError, updateResp.Error.Code)
}

func TestDispatchSessionNotFound(t *testing.T) {
	d := newTestDispatcher()
	params, _ := json.Marshal(SessionIDParams{SessionID: uuid.New()})
	resp := d.Dispatch(Request{ID: 10, Method: "session.stop", Params: params})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeDomainError, resp.Error.Code)
}
