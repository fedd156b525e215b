package agent

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nstehr/trackside/trackside-core/config"
	"github.com/nstehr/trackside/trackside-core/ipc"
	"github.com/nstehr/trackside/trackside-core/model"
)

func replyWith(env ipc.Envelope, data any) (*ipc.Envelope, error) {
	out, err := ipc.NewEnvelope(env.Type, data)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// finaleAdapter reports the finale season with no race, so a run ends on
// its first tick.
func finaleAdapter(stops chan<- string) map[string]ipc.Handler {
	return map[string]ipc.Handler{
		ipc.TypeSense: func(env ipc.Envelope) (*ipc.Envelope, error) {
			var req ipc.SenseRequest
			if err := env.Decode(&req); err != nil {
				return nil, err
			}
			switch req.Sensor {
			case ipc.SensorOverlay:
				return replyWith(env, ipc.SenseReply{Visible: req.Overlay == model.OverlayLobby})
			case ipc.SensorDate:
				return replyWith(env, ipc.SenseReply{Text: "Finale Season"})
			case ipc.SensorEnergy:
				return replyWith(env, ipc.SenseReply{Current: 80, Max: 100})
			case ipc.SensorMood:
				return replyWith(env, ipc.SenseReply{Mood: model.MoodGood})
			case ipc.SensorTurn:
				return replyWith(env, ipc.SenseReply{Turn: &model.Turn{Days: 1}})
			}
			return replyWith(env, ipc.SenseReply{})
		},
		ipc.TypeAct: func(env ipc.Envelope) (*ipc.Envelope, error) {
			return replyWith(env, ipc.ActReply{OK: true})
		},
		ipc.TypeStop: func(env ipc.Envelope) (*ipc.Envelope, error) {
			var msg ipc.StopMessage
			if err := env.Decode(&msg); err != nil {
				return nil, err
			}
			stops <- msg.Reason
			return nil, nil
		},
	}
}

// sessionPair connects a session and a fake adapter over loopback TCP.
// net.Pipe is unbuffered and both ends issue requests, so it would
// deadlock here.
func sessionPair(t *testing.T, store *config.Store, adapter map[string]ipc.Handler) (*Session, *ipc.Connection) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server, ok := <-accepted
	if !ok {
		t.Fatal("accept failed")
	}

	engineConn := ipc.NewConnection(server, nil)
	sess := NewSession(context.Background(), engineConn, store, testCatalog(), Options{})
	sess.Register()
	remote := ipc.NewConnection(client, adapter)
	go engineConn.ReadLoop()
	go remote.ReadLoop()
	t.Cleanup(func() {
		remote.Close()
		engineConn.Close()
		sess.Wait()
	})
	return sess, remote
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSession_HelloRunsCareer(t *testing.T) {
	stops := make(chan string, 1)
	store := config.NewStaticStore(config.DefaultScoring(), config.DefaultStrategy())
	sess, remote := sessionPair(t, store, finaleAdapter(stops))

	var ack ipc.AckMessage
	if err := remote.Call(callCtx(t), ipc.TypeHello, ipc.HelloMessage{Client: "test-adapter", Version: "0.1"}, &ack); err != nil {
		t.Fatalf("hello: %v", err)
	}
	if ack.Status != "ok" || ack.Run == "" {
		t.Fatalf("unexpected ack %+v", ack)
	}

	select {
	case reason := <-stops:
		if reason != string(StopCareerComplete) {
			t.Errorf("expected career_complete, got %q", reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no stop message received")
	}
	sess.Wait()

	var status ipc.StatusMessage
	if err := remote.Call(callCtx(t), ipc.TypeStatus, nil, &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Run != ack.Run || status.Running || status.Stop != string(StopCareerComplete) {
		t.Errorf("unexpected status %+v", status)
	}
	if sess.Client != "test-adapter" {
		t.Errorf("expected client name recorded, got %q", sess.Client)
	}
}

func TestSession_StrategyPush(t *testing.T) {
	store := config.NewStaticStore(config.DefaultScoring(), config.DefaultStrategy())
	_, remote := sessionPair(t, store, finaleAdapter(make(chan string, 1)))

	st := config.DefaultStrategy()
	st.PriorityStrategy = "G1 (no training)"
	var ack ipc.AckMessage
	if err := remote.Call(callCtx(t), ipc.TypeStrategy, st, &ack); err != nil {
		t.Fatalf("strategy: %v", err)
	}
	if ack.Status != "ok" {
		t.Errorf("expected ok, got %q", ack.Status)
	}
	if got := store.Strategy().Strategy().Kind; got != config.RaceOnly {
		t.Errorf("expected race-only strategy after push, got %v", got)
	}

	st.PriorityStrategy = "Win Everything"
	if err := remote.Call(callCtx(t), ipc.TypeStrategy, st, &ack); err != nil {
		t.Fatalf("strategy: %v", err)
	}
	if ack.Status != "corrected" {
		t.Errorf("expected corrected, got %q", ack.Status)
	}
	if got := store.Strategy().PriorityStrategy; got != config.DefaultStrategyName {
		t.Errorf("expected default strategy, got %q", got)
	}
}

func TestSession_StopWithoutRun(t *testing.T) {
	store := config.NewStaticStore(config.DefaultScoring(), config.DefaultStrategy())
	_, remote := sessionPair(t, store, finaleAdapter(make(chan string, 1)))

	var ack ipc.AckMessage
	if err := remote.Call(callCtx(t), ipc.TypeStop, ipc.StopMessage{Reason: "user"}, &ack); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if ack.Status != "idle" {
		t.Errorf("expected idle, got %q", ack.Status)
	}
}
