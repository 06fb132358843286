package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomchat/internal/proto"
)

var (
	// ErrClosed is returned once the channel or its loop has been shut down.
	ErrClosed = errors.New("channel closed")
	// ErrBufferFull is returned by Emit when the outbound queue is saturated.
	ErrBufferFull = errors.New("outbound buffer full")
)

// Status is the transport state of the channel.
type Status int

const (
	StatusOffline Status = iota
	StatusConnecting
	StatusOnline
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOnline:
		return "online"
	default:
		return "offline"
	}
}

// Options configure a Channel.
type Options struct {
	URL             string
	ReconnectDelay  time.Duration
	OutboundBuffer  int
	MaxMessageBytes int64
}

// Channel is the process-wide bidirectional event channel to the chat
// server. Received events are dispatched to handlers on the Loop, in
// receipt order.
type Channel struct {
	opts Options
	loop *Loop
	log  *zerolog.Logger

	hmu      sync.RWMutex
	handlers map[string][]proto.Handler
	watchers []func(Status)

	outbound chan proto.Frame

	mu     sync.Mutex
	status Status
	closed bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a channel. Nothing is dialed until Connect.
func New(opts Options, loop *Loop, logger *zerolog.Logger) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 2 * time.Second
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = 64
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Channel{
		opts:     opts,
		loop:     loop,
		log:      logger,
		handlers: make(map[string][]proto.Handler),
		outbound: make(chan proto.Frame, opts.OutboundBuffer),
	}
}

// On registers h for event.
func (c *Channel) On(event string, h proto.Handler) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Off removes every handler registered for event.
func (c *Channel) Off(event string) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	delete(c.handlers, event)
}

// OnStatus registers fn to observe transport status changes on the loop.
func (c *Channel) OnStatus(fn func(Status)) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.watchers = append(c.watchers, fn)
}

// Status returns the current transport state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Emit queues an event for the server. Delivery is fire-and-forget; frames
// emitted while offline are flushed after the next successful dial.
func (c *Channel) Emit(event string, args ...any) error {
	frame, err := proto.NewFrame(event, args...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case c.outbound <- frame:
		return nil
	default:
		return ErrBufferFull
	}
}

// Connect dials the server once and starts the connection supervisor. The
// supervisor keeps redialing after failures until Close, so a failed first
// dial is reported but not final. Calling Connect again is a no-op.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	c.setStatus(StatusConnecting)
	conn, err := c.dial(ctx)
	if err != nil {
		c.setStatus(StatusOffline)
	}

	c.wg.Add(1)
	go c.supervise(runCtx, conn)

	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}
	return nil
}

// Close stops the supervisor and closes the connection.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	c.setStatus(StatusOffline)
	return nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(c.opts.MaxMessageBytes)
	}
	return conn, nil
}

func (c *Channel) supervise(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		if conn != nil {
			c.setStatus(StatusOnline)
			c.log.Info().Str("url", c.opts.URL).Msg("channel connected")

			err := c.serve(ctx, conn)
			conn.Close(websocket.StatusNormalClosure, "bye")
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("channel connection lost")
			c.setStatus(StatusOffline)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.opts.ReconnectDelay):
		}

		c.setStatus(StatusConnecting)
		var err error
		conn, err = c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Debug().Err(err).Msg("redial failed")
			c.setStatus(StatusOffline)
			conn = nil
		}
	}
}

func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(gctx, conn) })
	g.Go(func() error { return c.writeLoop(gctx, conn) })
	return g.Wait()
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return &TransportError{Op: "read", Err: err}
		}
		if frame.Event == "" {
			c.log.Debug().Msg("dropping frame without event name")
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Channel) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.outbound:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				c.log.Warn().Err(err).Str("event", frame.Event).Msg("emit failed")
				return &TransportError{Op: "write", Err: err}
			}
		}
	}
}

// dispatch hands the frame to the loop. Handlers are looked up when the
// task runs, so an Off issued before then is honoured.
func (c *Channel) dispatch(frame proto.Frame) {
	args := proto.Args(frame.Args)
	c.loop.Post(func() {
		c.hmu.RLock()
		hs := append([]proto.Handler(nil), c.handlers[frame.Event]...)
		c.hmu.RUnlock()

		if len(hs) == 0 {
			c.log.Debug().Str("event", frame.Event).Msg("no handler for event")
			return
		}
		for _, h := range hs {
			h(args)
		}
	})
}

func (c *Channel) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()

	c.hmu.RLock()
	ws := append([]func(Status){}, c.watchers...)
	c.hmu.RUnlock()
	if len(ws) == 0 {
		return
	}
	c.loop.Post(func() {
		for _, fn := range ws {
			fn(s)
		}
	})
}

// TransportError wraps a failure of the underlying connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
