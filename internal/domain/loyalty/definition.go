// Package loyalty defines the chat loyalty achievement: a ladder of ranks
// bought with economy points.
package loyalty

import (
	"github.com/ejfett4/guildhub/internal/domain/achievement"
)

// DefinitionName is the registered name of the loyalty achievement.
const DefinitionName = "Chat Loyalty"

// Category groups the loyalty achievement with other chat achievements.
const Category = "chat"

// DefaultGoals returns the built-in rank ladder, used when no override store
// is present.
func DefaultGoals() *achievement.GoalSet {
	return achievement.NewGoalSet(
		achievement.Goal{Level: 1, Name: "My First Creation", Description: "and it's so beautiful...."},
		achievement.Goal{Level: 100, Name: "Green thumb", Description: "You've created at least 5 objects!"},
		achievement.Goal{Level: 1000, Name: "Clever thinker", Description: "More than 10 new creations are all because of you."},
		achievement.Goal{Level: 10000, Name: "Almost an adult", Description: "Just about 18."},
		achievement.Goal{Level: 100000, Name: "True Inspiration", Description: "Or did you steal your ideas for these 15 items? Hmm?"},
		achievement.Goal{Level: 200000, Name: "Divine Creator", Description: "All the world bows to your divine inspiration."},
	)
}

// NoRankGoal is the fallback shown to members who have not reached any rank.
func NoRankGoal() achievement.Goal {
	return achievement.Goal{Level: 0, Name: "idk", Description: "git gud scrub"}
}

// NewDefinition builds the loyalty definition over the given goal set (the
// defaults when nil). Evaluation takes gained and lost point counts and moves
// progress by the net amount, so ranks can regress.
func NewDefinition(goals *achievement.GoalSet) (*achievement.Definition, error) {
	if goals == nil {
		goals = DefaultGoals()
	}
	return achievement.NewDefinition(DefinitionName, Category,
		achievement.WithKeywords("loyalty", "points"),
		achievement.WithGoals(goals),
		achievement.WithEvaluate(evaluate),
	)
}

func evaluate(a *achievement.Achievement, args ...any) []achievement.Goal {
	var gained, lost int
	if len(args) > 0 {
		gained, _ = args[0].(int)
	}
	if len(args) > 1 {
		lost, _ = args[1].(int)
	}
	a.Increment(gained - lost)
	return a.Achieved()
}
