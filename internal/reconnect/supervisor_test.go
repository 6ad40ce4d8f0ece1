package reconnect

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffBound(t *testing.T) {
	base := 1000 * time.Millisecond
	max := 30000 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{4, 8000 * time.Millisecond},
		{5, 16000 * time.Millisecond},
		{6, 30000 * time.Millisecond}, // 32s capped
		{7, 30000 * time.Millisecond},
		{20, 30000 * time.Millisecond},
		{1000, 30000 * time.Millisecond}, // never exceeds the cap regardless of k
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt, base, max), "attempt %d", tt.attempt)
	}
}

type fakeConn struct {
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.incoming:
		return 1, msg, nil
	case <-c.closed:
		return 0, nil, errors.New("closed")
	}
}

func (c *fakeConn) WriteJSON(v any) error { return nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestSupervisorReconnectsAndResetsAttempt(t *testing.T) {
	var dials atomic.Int32
	conn := newFakeConn()
	connected := make(chan struct{})

	s := New(Options{
		Dial: func() (Conn, error) {
			n := dials.Add(1)
			if n <= 3 {
				return nil, errors.New("refused")
			}
			close(connected)
			return conn, nil
		},
		BaseDelay: time.Millisecond,
		MaxDelay:  4 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor never reconnected")
	}

	// Attempt counter resets on a successful re-open.
	assert.Eventually(t, func() bool { return s.Attempt() == 0 }, time.Second, time.Millisecond)
	assert.EqualValues(t, 4, dials.Load())
}

func TestSupervisorDeliversMessages(t *testing.T) {
	conn := newFakeConn()
	got := make(chan []byte, 1)

	s := New(Options{
		Dial:      func() (Conn, error) { return conn, nil },
		OnMessage: func(msg []byte) { got <- msg },
		BaseDelay: time.Millisecond,
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case conn.incoming <- []byte(`{"type":"student-update"}`):
	case <-time.After(time.Second):
		t.Fatal("read loop never started")
	}
	select {
	case msg := <-got:
		assert.JSONEq(t, `{"type":"student-update"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestSupervisorStopPreventsLateRetry(t *testing.T) {
	var dials atomic.Int32
	first := make(chan struct{})

	s := New(Options{
		Dial: func() (Conn, error) {
			if dials.Add(1) == 1 {
				close(first)
			}
			return nil, errors.New("refused")
		},
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  50 * time.Millisecond,
	})
	require.NoError(t, s.Start())

	<-first
	s.Stop() // mid-backoff

	before := dials.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, dials.Load(), "no dial may happen after Stop, even from a scheduled retry")
}

func TestSupervisorStopIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	s := New(Options{Dial: func() (Conn, error) { return conn, nil }})
	require.NoError(t, s.Start())

	s.Stop()
	s.Stop()
	assert.ErrorIs(t, s.Send(struct{}{}), ErrStopped)
}

func TestSupervisorGivesUpAfterMaxAttempts(t *testing.T) {
	var dials atomic.Int32
	gaveUp := make(chan error, 1)

	s := New(Options{
		Dial:        func() (Conn, error) { dials.Add(1); return nil, errors.New("refused") },
		OnGiveUp:    func(err error) { gaveUp <- err },
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case err := <-gaveUp:
		assert.ErrorIs(t, err, ErrGaveUp)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor never gave up")
	}
	assert.EqualValues(t, 3, dials.Load())

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, dials.Load(), "no dials after giving up")
}

func TestSupervisorReauthenticatesOnReopen(t *testing.T) {
	var opens atomic.Int32
	conns := make(chan *fakeConn, 2)
	c1, c2 := newFakeConn(), newFakeConn()
	conns <- c1
	conns <- c2

	reopened := make(chan struct{})
	s := New(Options{
		Dial: func() (Conn, error) { return <-conns, nil },
		OnOpen: func(Conn) error {
			if opens.Add(1) == 2 {
				close(reopened)
			}
			return nil
		},
		BaseDelay: time.Millisecond,
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	// Drop the first channel; the handshake must rerun on the next one.
	c1.Close()
	select {
	case <-reopened:
	case <-time.After(2 * time.Second):
		t.Fatal("handshake did not rerun after re-open")
	}
}
