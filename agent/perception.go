package agent

import (
	"context"

	"github.com/nstehr/trackside/trackside-core/model"
)

// Perception is the screen reader. Calls may block; the engine never
// retries them and re-checks cancellation as soon as each returns.
type Perception interface {
	ReadMood(ctx context.Context) (model.Mood, error)
	ReadEnergy(ctx context.Context) (current, max float64, err error)
	ReadTurn(ctx context.Context) (model.Turn, error)
	ReadDate(ctx context.Context) (*model.CareerDate, error)
	ReadTrainingSupport(ctx context.Context, s model.Stat) (model.TrainingObservation, error)
	ReadStats(ctx context.Context) (map[model.Stat]int, error)
	IsOverlayVisible(ctx context.Context, o model.Overlay) (bool, error)
	ExtractEventName(ctx context.Context) (string, error)
	DetectEventType(ctx context.Context) (model.Category, error)
}

// ActionSink performs one abstract action. The result is best effort.
type ActionSink interface {
	Perform(ctx context.Context, a model.Action) bool
}
