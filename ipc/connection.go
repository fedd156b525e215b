package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by Call once the read loop has ended.
	ErrClosed = errors.New("connection closed")
	// ErrRemote wraps an error string sent back by the adapter.
	ErrRemote = errors.New("remote error")
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection represents a single adapter talking to the engine. Both sides
// may send requests; replies are matched to Call by envelope ID.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	Client   string

	writeMu sync.Mutex

	pendMu  sync.Mutex
	pending map[string]chan Envelope
	done    chan struct{}
	once    sync.Once
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
		pending:  make(map[string]chan Envelope),
		done:     make(chan struct{}),
	}
}

// RegisterHandler must be called before ReadLoop starts.
func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) write(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteEnvelope(c.conn, env)
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

// Call sends a request and waits for the reply with the same ID, decoding
// its payload into resp. It gives up when ctx ends or the connection closes.
func (c *Connection) Call(ctx context.Context, msgType string, req, resp any) error {
	env, err := NewEnvelope(msgType, req)
	if err != nil {
		return err
	}
	env.ID = uuid.NewString()

	ch := make(chan Envelope, 1)
	c.pendMu.Lock()
	c.pending[env.ID] = ch
	c.pendMu.Unlock()
	defer func() {
		c.pendMu.Lock()
		delete(c.pending, env.ID)
		c.pendMu.Unlock()
	}()

	if err := c.write(env); err != nil {
		return fmt.Errorf("%s request: %w", msgType, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	case reply := <-ch:
		if reply.Error != "" {
			return fmt.Errorf("%s: %w: %s", msgType, ErrRemote, reply.Error)
		}
		return reply.Decode(resp)
	}
}

// Done is closed when the read loop ends.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
		close(c.done)
	})
	return err
}

// deliver hands a reply to its waiting Call without blocking; extra
// replies for the same ID are dropped. It reports false for envelopes
// nobody is waiting on.
func (c *Connection) deliver(env Envelope) bool {
	if env.ID == "" {
		return false
	}
	c.pendMu.Lock()
	ch, ok := c.pending[env.ID]
	c.pendMu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- env:
	default:
		slog.Warn("duplicate reply dropped", "type", env.Type, "id", env.ID)
	}
	return true
}

// ReadLoop dispatches frames until the stream ends, then closes the
// connection. Replies go to their waiting Call; everything else goes to the
// handler for its type. Handlers run on this goroutine and must not Call.
func (c *Connection) ReadLoop() {
	defer c.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			slog.Info("connection read ended", "client", c.Client, "error", err)
			return
		}

		if c.deliver(env) {
			continue
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			slog.Error("handler error", "type", env.Type, "error", err)
			if env.ID == "" {
				continue
			}
			resp = &Envelope{Type: env.Type, Error: err.Error()}
		}

		if resp != nil {
			resp.ID = env.ID
			if err := c.write(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "type", resp.Type, "client", c.Client)
		}
	}
}
