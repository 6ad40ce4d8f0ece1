package reconnect

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 30 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("reconnect: supervisor already started")
	ErrStopped        = errors.New("reconnect: supervisor stopped")
	ErrGaveUp         = errors.New("reconnect: gave up after max attempts")
)

// Conn is the slice of a websocket connection the supervisor needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

type DialFunc func() (Conn, error)

// DialWebSocket adapts the gorilla dialer to a DialFunc.
func DialWebSocket(url string, header http.Header) DialFunc {
	return func() (Conn, error) {
		c, _, err := websocket.DefaultDialer.Dial(url, header)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Backoff returns the delay before retry number attempt (1-based):
// min(base * 2^(attempt-1), max).
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

type Options struct {
	Dial DialFunc

	// OnOpen runs right after a dial succeeds, before any reads. Used for the
	// auth handshake; it must be idempotent since it reruns on every re-open.
	OnOpen func(Conn) error

	OnMessage func([]byte)

	// OnGiveUp fires once when MaxAttempts consecutive failures are reached.
	OnGiveUp func(error)

	// MaxAttempts of 0 means never give up.
	MaxAttempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Supervisor maintains exactly one logical channel across network
// interruptions. Once stopped it never opens a new channel, even if a
// previously scheduled retry fires late: the liveness flag is checked
// immediately before acting on any retry or incoming message.
type Supervisor struct {
	opts Options

	mu      sync.Mutex
	alive   bool
	started bool
	attempt int
	conn    Conn
	timer   *time.Timer
}

func New(opts Options) *Supervisor {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	return &Supervisor{opts: opts}
}

func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.alive = true
	s.mu.Unlock()

	go s.connect()
	return nil
}

// Stop tears the channel down. Safe to call at any point, including
// mid-backoff, and safe to call more than once.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.alive = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Send writes v on the current channel, if one is open.
func (s *Supervisor) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrStopped
	}
	return conn.WriteJSON(v)
}

// Attempt reports the current consecutive-failure count.
func (s *Supervisor) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *Supervisor) connect() {
	s.mu.Lock()
	alive := s.alive
	s.mu.Unlock()
	if !alive {
		return
	}

	conn, err := s.opts.Dial()
	if err != nil {
		s.scheduleRetry(err)
		return
	}
	if s.opts.OnOpen != nil {
		if err := s.opts.OnOpen(conn); err != nil {
			conn.Close()
			s.scheduleRetry(err)
			return
		}
	}

	s.mu.Lock()
	if !s.alive {
		// Stopped while dialing; do not adopt the new channel.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.attempt = 0
	s.mu.Unlock()

	go s.readLoop(conn)
}

func (s *Supervisor) readLoop(conn Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.mu.Lock()
		alive := s.alive
		s.mu.Unlock()
		if !alive {
			return
		}
		if s.opts.OnMessage != nil {
			s.opts.OnMessage(msg)
		}
	}
	conn.Close()

	s.mu.Lock()
	if !s.alive || s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.mu.Unlock()

	s.scheduleRetry(errors.New("reconnect: channel closed"))
}

func (s *Supervisor) scheduleRetry(cause error) {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.attempt++
	if s.opts.MaxAttempts > 0 && s.attempt >= s.opts.MaxAttempts {
		s.alive = false
		cb := s.opts.OnGiveUp
		s.mu.Unlock()
		if cb != nil {
			cb(errors.Join(ErrGaveUp, cause))
		}
		return
	}
	delay := Backoff(s.attempt, s.opts.BaseDelay, s.opts.MaxDelay)
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		alive := s.alive
		s.mu.Unlock()
		if !alive {
			// A retry that fires after Stop must not open a new channel.
			return
		}
		s.connect()
	})
	s.mu.Unlock()
}
