package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nstehr/trackside/trackside-core/calendar"
	"github.com/nstehr/trackside/trackside-core/model"
)

// RemoteOptions tunes the adapter-backed perception and sink.
type RemoteOptions struct {
	SenseTimeout     time.Duration
	ActTimeout       time.Duration
	FailureThreshold uint32        // consecutive failures before the breaker opens
	OpenTimeout      time.Duration // how long the breaker stays open
}

func DefaultRemoteOptions() RemoteOptions {
	return RemoteOptions{
		SenseTimeout:     5 * time.Second,
		ActTimeout:       60 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      10 * time.Second,
	}
}

// RemotePerception reads the screen through the connected adapter. Every
// sensor call goes through one circuit breaker; while it is open calls fail
// fast with model.ErrPerceptionUnavailable.
type RemotePerception struct {
	conn *Connection
	cb   *gobreaker.CircuitBreaker
	opts RemoteOptions
}

func NewRemotePerception(conn *Connection, opts RemoteOptions) *RemotePerception {
	st := gobreaker.Settings{Name: "perception"}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= opts.FailureThreshold }
	st.Timeout = opts.OpenTimeout
	st.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, context.Canceled) }
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
	}
	return &RemotePerception{conn: conn, cb: gobreaker.NewCircuitBreaker(st), opts: opts}
}

// State exposes the breaker state for status reporting.
func (p *RemotePerception) State() string { return p.cb.State().String() }

func (p *RemotePerception) sense(ctx context.Context, req SenseRequest) (SenseReply, error) {
	if err := ctx.Err(); err != nil {
		return SenseReply{}, err
	}
	out, err := p.cb.Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, p.opts.SenseTimeout)
		defer cancel()
		var reply SenseReply
		if err := p.conn.Call(cctx, TypeSense, req, &reply); err != nil {
			return nil, err
		}
		return reply, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return SenseReply{}, ctx.Err()
		}
		return SenseReply{}, fmt.Errorf("%w: %s: %w", model.ErrPerceptionUnavailable, req.Sensor, err)
	}
	return out.(SenseReply), nil
}

func (p *RemotePerception) ReadMood(ctx context.Context) (model.Mood, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorMood})
	return r.Mood, err
}

func (p *RemotePerception) ReadEnergy(ctx context.Context) (float64, float64, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorEnergy})
	if err != nil {
		return 0, 0, err
	}
	if r.Max <= 0 {
		return 0, 0, fmt.Errorf("%w: energy max %v", model.ErrPerceptionUnavailable, r.Max)
	}
	return r.Current, r.Max, nil
}

func (p *RemotePerception) ReadTurn(ctx context.Context) (model.Turn, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorTurn})
	if err != nil {
		return model.Turn{}, err
	}
	if r.Turn == nil {
		return model.Turn{}, fmt.Errorf("%w: empty turn", model.ErrPerceptionUnavailable)
	}
	return *r.Turn, nil
}

// ReadDate sends back the raw date text; parsing happens here so the
// adapter stays a dumb reader.
func (p *RemotePerception) ReadDate(ctx context.Context) (*model.CareerDate, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorDate})
	if err != nil {
		return nil, err
	}
	d, err := calendar.Parse(r.Text)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *RemotePerception) ReadTrainingSupport(ctx context.Context, s model.Stat) (model.TrainingObservation, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorTraining, Stat: s})
	if err != nil {
		return model.TrainingObservation{}, err
	}
	if r.Training == nil {
		return model.TrainingObservation{}, fmt.Errorf("%w: no training data for %s", model.ErrPerceptionUnavailable, s)
	}
	obs := *r.Training
	obs.Stat = s
	return obs, nil
}

func (p *RemotePerception) ReadStats(ctx context.Context) (map[model.Stat]int, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorStats})
	return r.Stats, err
}

func (p *RemotePerception) IsOverlayVisible(ctx context.Context, o model.Overlay) (bool, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorOverlay, Overlay: o})
	return r.Visible, err
}

func (p *RemotePerception) ExtractEventName(ctx context.Context) (string, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorEventName})
	if err != nil {
		return "", err
	}
	if r.Text == "" {
		return "", fmt.Errorf("%w: empty event name", model.ErrPerceptionUnavailable)
	}
	return r.Text, nil
}

func (p *RemotePerception) DetectEventType(ctx context.Context) (model.Category, error) {
	r, err := p.sense(ctx, SenseRequest{Sensor: SensorEventType})
	if err != nil {
		return "", err
	}
	if !r.Category.Valid() {
		return "", fmt.Errorf("%w: event type %q", model.ErrPerceptionUnavailable, r.Category)
	}
	return r.Category, nil
}

// RemoteSink forwards actions to the adapter, which performs the clicks.
type RemoteSink struct {
	conn    *Connection
	timeout time.Duration
}

func NewRemoteSink(conn *Connection, opts RemoteOptions) *RemoteSink {
	return &RemoteSink{conn: conn, timeout: opts.ActTimeout}
}

func (s *RemoteSink) Perform(ctx context.Context, a model.Action) bool {
	if ctx.Err() != nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var reply ActReply
	if err := s.conn.Call(cctx, TypeAct, ActRequest{Action: a}, &reply); err != nil {
		slog.Warn("action failed", "action", a.String(), "error", err)
		return false
	}
	return reply.OK
}
