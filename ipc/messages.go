package ipc

import "github.com/nstehr/trackside/trackside-core/model"

// These constants must stay in sync with the adapter's message table.
const (
	TypeHello    = "hello"
	TypeAck      = "ack"
	TypeSense    = "sense"
	TypeAct      = "act"
	TypeStop     = "stop"
	TypeStrategy = "strategy"
	TypeStatus   = "status"
)

type HelloMessage struct {
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
}

type AckMessage struct {
	Status string `json:"status"`
	Run    string `json:"run,omitempty"`
}

// Sensor names understood by the adapter.
const (
	SensorMood      = "mood"
	SensorEnergy    = "energy"
	SensorTurn      = "turn"
	SensorDate      = "date"
	SensorTraining  = "training"
	SensorStats     = "stats"
	SensorOverlay   = "overlay"
	SensorEventName = "event_name"
	SensorEventType = "event_type"
)

type SenseRequest struct {
	Sensor  string        `json:"sensor"`
	Stat    model.Stat    `json:"stat,omitempty"`
	Overlay model.Overlay `json:"overlay,omitempty"`
}

// SenseReply carries whichever field the requested sensor fills.
type SenseReply struct {
	Mood     model.Mood                 `json:"mood,omitempty"`
	Current  float64                    `json:"current,omitempty"`
	Max      float64                    `json:"max,omitempty"`
	Turn     *model.Turn                `json:"turn,omitempty"`
	Text     string                     `json:"text,omitempty"`
	Training *model.TrainingObservation `json:"training,omitempty"`
	Stats    map[model.Stat]int         `json:"stats,omitempty"`
	Visible  bool                       `json:"visible,omitempty"`
	Category model.Category             `json:"category,omitempty"`
}

type ActRequest struct {
	Action model.Action `json:"action"`
}

type ActReply struct {
	OK bool `json:"ok"`
}

type StopMessage struct {
	Reason string `json:"reason,omitempty"`
}

// StatusMessage answers a status request from the adapter.
type StatusMessage struct {
	Run     string `json:"run"`
	Running bool   `json:"running"`
	State   string `json:"state"`
	Ticks   int    `json:"ticks"`
	Day     int    `json:"day"`
	Last    string `json:"lastAction,omitempty"`
	Stop    string `json:"stopReason,omitempty"`
}
