package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/ipc"
	"github.com/nstehr/trackside/trackside-core/races"
)

// Session owns the career run for a single connected adapter.
type Session struct {
	Conn    *ipc.Connection
	Client  string
	store   *config.Store
	catalog *races.Catalog
	opts    Options
	remote  ipc.RemoteOptions
	parent  context.Context

	mu     sync.Mutex
	run    string
	engine *Engine
	done   chan struct{}
}

func NewSession(ctx context.Context, conn *ipc.Connection, store *config.Store, catalog *races.Catalog, opts Options) *Session {
	return &Session{
		Conn:    conn,
		store:   store,
		catalog: catalog,
		opts:    opts,
		remote:  ipc.DefaultRemoteOptions(),
		parent:  ctx,
	}
}

// Register wires the session's handlers into its connection.
func (s *Session) Register() {
	s.Conn.RegisterHandler(ipc.TypeHello, s.HandleHello)
	s.Conn.RegisterHandler(ipc.TypeStop, s.HandleStop)
	s.Conn.RegisterHandler(ipc.TypeStrategy, s.HandleStrategy)
	s.Conn.RegisterHandler(ipc.TypeStatus, s.HandleStatus)
}

// HandleHello completes the handshake and starts the career loop. A second
// hello while a run is active acknowledges the existing run.
func (s *Session) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Client = hello.Client
	s.Conn.Client = hello.Client

	if s.done != nil {
		select {
		case <-s.done:
		default:
			return ack("running", s.run)
		}
	}

	s.run = uuid.NewString()
	log := s.logger().With("run", s.run, "client", hello.Client)
	opts := s.opts
	opts.Logger = log
	s.engine = NewEngine(ipc.NewRemotePerception(s.Conn, s.remote), ipc.NewRemoteSink(s.Conn, s.remote), s.store, s.catalog, opts)
	s.done = make(chan struct{})
	log.Info("adapter identified", "version", hello.Version)

	go s.runEngine(s.engine, s.done, log)
	return ack("ok", s.run)
}

func (s *Session) runEngine(e *Engine, done chan struct{}, log *slog.Logger) {
	defer close(done)
	ctx, cancel := context.WithCancel(s.parent)
	defer cancel()
	go func() {
		select {
		case <-s.Conn.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	reason := e.Run(ctx)
	select {
	case <-s.Conn.Done():
		return
	default:
	}
	if err := s.Conn.Send(ipc.TypeStop, ipc.StopMessage{Reason: string(reason)}); err != nil {
		log.Warn("failed to send stop", "error", err)
	}
}

// HandleStop asks the running engine to stop at its next checkpoint.
func (s *Session) HandleStop(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.StopMessage
	if len(env.Data) > 0 {
		if err := env.Decode(&msg); err != nil {
			return nil, fmt.Errorf("unmarshal stop: %w", err)
		}
	}
	s.mu.Lock()
	e, run := s.engine, s.run
	s.mu.Unlock()
	if e == nil {
		return ack("idle", "")
	}
	s.logger().Info("stop requested", "run", run, "reason", msg.Reason)
	e.Stop()
	return ack("stopping", run)
}

// HandleStrategy replaces the strategy document. The engine picks it up on
// its next tick.
func (s *Session) HandleStrategy(env ipc.Envelope) (*ipc.Envelope, error) {
	cfg := config.DefaultStrategy()
	if err := env.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal strategy: %w", err)
	}
	status := "ok"
	if err := s.store.SetStrategy(cfg); err != nil {
		s.logger().Warn("strategy corrected", "error", err)
		status = "corrected"
	}
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	return ack(status, run)
}

func (s *Session) HandleStatus(env ipc.Envelope) (*ipc.Envelope, error) {
	s.mu.Lock()
	e, run := s.engine, s.run
	s.mu.Unlock()

	msg := ipc.StatusMessage{Run: run, State: StateIdle.String()}
	if e != nil {
		st := e.Status()
		msg.Running = st.Running
		msg.State = st.State.String()
		msg.Ticks = st.Ticks
		msg.Day = st.Day
		msg.Last = st.LastAction
		msg.Stop = string(st.Stop)
	}
	out, err := ipc.NewEnvelope(ipc.TypeStatus, msg)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Wait blocks until the current run, if any, has finished.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) logger() *slog.Logger {
	if s.opts.Logger != nil {
		return s.opts.Logger
	}
	return slog.Default()
}

func ack(status, run string) (*ipc.Envelope, error) {
	out, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: status, Run: run})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
