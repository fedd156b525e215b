package model

// Stat is one of the five trainable stats.
type Stat string

const (
	Speed   Stat = "spd"
	Stamina Stat = "sta"
	Power   Stat = "pwr"
	Guts    Stat = "guts"
	Wit     Stat = "wit"
)

// AllStats is the default training priority order.
var AllStats = []Stat{Speed, Power, Stamina, Wit, Guts}

func (s Stat) Valid() bool {
	switch s {
	case Speed, Stamina, Power, Guts, Wit:
		return true
	}
	return false
}

// CardType is the support-card type shown on a training facility. The five
// stat types double as card types; Friend and NPC are the extra buckets.
type CardType string

const (
	CardSpeed   CardType = "spd"
	CardStamina CardType = "sta"
	CardPower   CardType = "pwr"
	CardGuts    CardType = "guts"
	CardWit     CardType = "wit"
	CardFriend  CardType = "friend"
	CardNPC     CardType = "npc"
)

// CardTypeOf returns the matching card type for a stat.
func CardTypeOf(s Stat) CardType { return CardType(s) }

// TrainingObservation is what one training facility shows this tick.
type TrainingObservation struct {
	Stat          Stat             `json:"stat"`
	SupportCounts map[CardType]int `json:"supportCounts"`
	HintCount     int              `json:"hintCount"`
	NPCCount      int              `json:"npcCount"`
	Score         float64          `json:"score"`
}

// TotalSupport counts every card on the facility, NPCs excluded.
func (o TrainingObservation) TotalSupport() int {
	n := 0
	for t, c := range o.SupportCounts {
		if t == CardNPC {
			continue
		}
		n += c
	}
	return n
}
