package model

import "fmt"

type ActionKind string

const (
	ActionSelectTraining    ActionKind = "select_training"
	ActionEnterRaceFlow     ActionKind = "enter_race_flow"
	ActionExecuteRest       ActionKind = "execute_rest"
	ActionExecuteRecreation ActionKind = "execute_recreation"
	ActionSelectEventChoice ActionKind = "select_event_choice"
	ActionNavigateBack      ActionKind = "navigate_back"
	ActionVisitInfirmary    ActionKind = "visit_infirmary"
)

// Action is the single command emitted per tick. CancelOnRaceLimit tells
// the sink to back out of a race flow when the game warns about too many
// consecutive races.
type Action struct {
	Kind              ActionKind `json:"kind"`
	Stat              Stat       `json:"stat,omitempty"`
	Choice            int        `json:"choice,omitempty"`
	Race              string     `json:"race,omitempty"`
	Summer            bool       `json:"summer,omitempty"`
	CancelOnRaceLimit bool       `json:"cancelOnRaceLimit,omitempty"`
}

func SelectTraining(s Stat) Action { return Action{Kind: ActionSelectTraining, Stat: s} }
func EnterRace(name string) Action { return Action{Kind: ActionEnterRaceFlow, Race: name} }
func Rest(summer bool) Action      { return Action{Kind: ActionExecuteRest, Summer: summer} }
func Recreation() Action           { return Action{Kind: ActionExecuteRecreation} }
func NavigateBack() Action         { return Action{Kind: ActionNavigateBack} }
func VisitInfirmary() Action       { return Action{Kind: ActionVisitInfirmary} }

func SelectEventChoice(c int) Action {
	return Action{Kind: ActionSelectEventChoice, Choice: ClampChoice(c)}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSelectTraining:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Stat)
	case ActionSelectEventChoice:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Choice)
	case ActionEnterRaceFlow:
		if a.Race != "" {
			return fmt.Sprintf("%s(%s)", a.Kind, a.Race)
		}
	}
	return string(a.Kind)
}

// Overlay is a screen marker the perception adapter can check for.
type Overlay string

const (
	OverlayEventChoice Overlay = "event_choice"
	OverlayLobby       Overlay = "lobby_marker"
	OverlayDebuff      Overlay = "debuff_marker"
)
