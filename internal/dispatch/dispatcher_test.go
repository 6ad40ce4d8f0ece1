package dispatch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classwatch/classwatch-backend/internal/models"
	"github.com/classwatch/classwatch-backend/internal/ws"
)

type fakeSender struct {
	connected map[string]bool
	sent      map[string][]ws.CommandMessage
}

func newFakeSender(connected ...string) *fakeSender {
	s := &fakeSender{connected: make(map[string]bool), sent: make(map[string][]ws.CommandMessage)}
	for _, id := range connected {
		s.connected[id] = true
	}
	return s
}

func (s *fakeSender) SendToDevice(deviceID string, v any) bool {
	if !s.connected[deviceID] {
		return false
	}
	s.sent[deviceID] = append(s.sent[deviceID], v.(ws.CommandMessage))
	return true
}

type fakeRoster struct {
	devices []string
	err     error
}

func (r *fakeRoster) VisibleDeviceIDs(string) ([]string, error) {
	return r.devices, r.err
}

type auditEntry struct {
	action   string
	actorID  string
	metadata map[string]any
}

type fakeAuditor struct {
	entries []auditEntry
}

func (a *fakeAuditor) Log(action, entityID, actorID string, metadata map[string]any) error {
	a.entries = append(a.entries, auditEntry{action: action, actorID: actorID, metadata: metadata})
	return nil
}

type fakeModes struct {
	recorded map[string]models.Mode
}

func (m *fakeModes) RecordMode(deviceID string, mode models.Mode) error {
	if m.recorded == nil {
		m.recorded = make(map[string]models.Mode)
	}
	m.recorded[deviceID] = mode
	return nil
}

func TestDispatchIsolation(t *testing.T) {
	// Two targets, one connected: delivered=1 skipped=1, no error, and one
	// audit entry recording the full target-set size.
	sender := newFakeSender("D1")
	audit := &fakeAuditor{}
	d := NewDispatcher(sender, &fakeRoster{}, audit, &fakeModes{})

	res, err := d.Dispatch(Command{
		Kind:            KindApplyFlightPath,
		Payload:         json.RawMessage(`{"id":"fp-1","name":"Math","allowedDomains":["khanacademy.org"]}`),
		TargetDeviceIDs: []string{"D1", "D2"},
		IssuedBy:        "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 1, Skipped: 1}, res)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "command.apply-flight-path", audit.entries[0].action)
	assert.Equal(t, "op-1", audit.entries[0].actorID)
	assert.Equal(t, 2, audit.entries[0].metadata["targets"])
}

func TestDispatchCountsAreOrderIndependent(t *testing.T) {
	targets := [][]string{
		{"D1", "D2", "D3", "D4"},
		{"D4", "D3", "D2", "D1"},
		{"D2", "D4", "D1", "D3"},
	}
	for _, order := range targets {
		sender := newFakeSender("D2", "D4")
		d := NewDispatcher(sender, &fakeRoster{}, &fakeAuditor{}, nil)
		res, err := d.Dispatch(Command{Kind: KindPing, TargetDeviceIDs: order, IssuedBy: "op-1"})
		require.NoError(t, err)
		assert.Equal(t, Result{Delivered: 2, Skipped: 2}, res)
	}
}

func TestDispatchAuditsFullDeliveryFailure(t *testing.T) {
	sender := newFakeSender() // nobody connected
	audit := &fakeAuditor{}
	d := NewDispatcher(sender, &fakeRoster{}, audit, nil)

	res, err := d.Dispatch(Command{Kind: KindLockScreen, TargetDeviceIDs: []string{"D1", "D2"}, IssuedBy: "op-1"})
	require.NoError(t, err, "unreachable targets are skipped, not fatal")
	assert.Equal(t, Result{Delivered: 0, Skipped: 2}, res)
	assert.Len(t, audit.entries, 1, "audit must not be skipped on full delivery failure")
}

func TestDispatchResolvesRosterWhenNoExplicitTargets(t *testing.T) {
	sender := newFakeSender("D1", "D3")
	roster := &fakeRoster{devices: []string{"D1", "D2", "D3"}}
	d := NewDispatcher(sender, roster, &fakeAuditor{}, nil)

	res, err := d.Dispatch(Command{Kind: KindCloseTabs, IssuedBy: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 2, Skipped: 1}, res)
}

func TestDispatchRosterError(t *testing.T) {
	d := NewDispatcher(newFakeSender(), &fakeRoster{err: errors.New("db down")}, &fakeAuditor{}, nil)
	_, err := d.Dispatch(Command{Kind: KindPing, IssuedBy: "op-1"})
	assert.ErrorIs(t, err, ErrRosterLookup)
}

func TestDispatchRejectsUnknownKind(t *testing.T) {
	d := NewDispatcher(newFakeSender(), &fakeRoster{}, &fakeAuditor{}, nil)
	_, err := d.Dispatch(Command{Kind: Kind("reboot"), IssuedBy: "op-1"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDispatchRecordsMode(t *testing.T) {
	sender := newFakeSender("D1")
	modes := &fakeModes{}
	d := NewDispatcher(sender, &fakeRoster{}, &fakeAuditor{}, modes)

	_, err := d.Dispatch(Command{
		Kind:            KindLockScreen,
		Payload:         json.RawMessage(`{"url":"https://quiz.example.com"}`),
		TargetDeviceIDs: []string{"D1"},
		IssuedBy:        "op-1",
	})
	require.NoError(t, err)
	require.Contains(t, modes.recorded, "D1")
	assert.Equal(t, models.ModeLocked, modes.recorded["D1"].Kind)
	assert.Equal(t, "https://quiz.example.com", modes.recorded["D1"].LockedURL)

	// Applying a flight path supersedes the lock: the variant swaps wholesale.
	_, err = d.Dispatch(Command{
		Kind:            KindApplyFlightPath,
		Payload:         json.RawMessage(`{"id":"fp-1","name":"Math","allowedDomains":["khanacademy.org"]}`),
		TargetDeviceIDs: []string{"D1"},
		IssuedBy:        "op-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ModeFlightPath, modes.recorded["D1"].Kind)
	assert.Empty(t, modes.recorded["D1"].LockedURL)

	// Ping carries no mode change.
	_, err = d.Dispatch(Command{Kind: KindPing, TargetDeviceIDs: []string{"D1"}, IssuedBy: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeFlightPath, modes.recorded["D1"].Kind)
}
