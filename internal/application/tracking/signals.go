package tracking

import (
	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/pkg/signal"
)

// Signal names emitted by the tracker.
const (
	SignalLevelIncreased       = "level_increased"
	SignalGoalAchieved         = "goal_achieved"
	SignalHighestLevelAchieved = "highest_level_achieved"
)

// Signals groups the tracker's three notification channels. Each is an
// independent signal instance with its own receiver list; the tracker is
// always the sender. Delivery after mutations is fault-tolerant: receiver
// failures never propagate back to the mutation call.
type Signals struct {
	// LevelIncreased fires whenever a mutation strictly raises the progress
	// counter.
	LevelIncreased *signal.Signal

	// GoalAchieved fires when a mutation newly completes one or more goals,
	// carrying the delta as a GoalAchievedPayload.
	GoalAchieved *signal.Signal

	// HighestLevelAchieved fires when a mutation leaves no goal unachieved.
	HighestLevelAchieved *signal.Signal
}

// NewSignals creates the tracker's signal set with empty receiver lists.
func NewSignals() *Signals {
	return &Signals{
		LevelIncreased:       signal.New(SignalLevelIncreased),
		GoalAchieved:         signal.New(SignalGoalAchieved),
		HighestLevelAchieved: signal.New(SignalHighestLevelAchieved),
	}
}

// LevelIncreasedPayload is carried by the LevelIncreased signal.
type LevelIncreasedPayload struct {
	Subject     achievement.Subject
	Achievement *achievement.Achievement
}

// GoalAchievedPayload is carried by the GoalAchieved signal. Goals holds
// only the newly achieved goals, not the full achieved list.
type GoalAchievedPayload struct {
	Subject     achievement.Subject
	Achievement *achievement.Achievement
	Goals       []achievement.Goal
}

// HighestLevelAchievedPayload is carried by the HighestLevelAchieved signal.
type HighestLevelAchievedPayload struct {
	Subject     achievement.Subject
	Achievement *achievement.Achievement
}
