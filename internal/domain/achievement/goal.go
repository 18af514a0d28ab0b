// Package achievement implements the progress tracking domain: goal sets,
// achievement definitions, and per-subject progress instances. The package
// holds no I/O; persistence goes through the Backend interface.
package achievement

import (
	"sort"
	"sync"
)

// Goal is a single level threshold within a definition. A goal counts as
// achieved once a subject's progress reaches Level or beyond.
type Goal struct {
	Level       int    `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GoalSet is an ordered collection of goals, kept sorted ascending by level.
// Goals at the same level are ordered by insertion sequence, which makes the
// tie-break deterministic. A GoalSet is shared by reference between a
// Definition and every Achievement instance bound to it, so runtime edits are
// visible retroactively.
type GoalSet struct {
	mu    sync.RWMutex
	goals []sequencedGoal
	seq   int
}

type sequencedGoal struct {
	Goal
	seq int
}

// NewGoalSet creates a GoalSet containing the given goals in order.
func NewGoalSet(goals ...Goal) *GoalSet {
	gs := &GoalSet{}
	for _, g := range goals {
		gs.Add(g.Level, g.Name, g.Description)
	}
	return gs
}

// Add inserts a goal and re-sorts the set. Duplicate levels are accepted
// without error; among goals sharing a level the earliest inserted sorts
// first, so the later one only shadows it for current-goal resolution if
// the earlier is removed.
func (gs *GoalSet) Add(level int, name, description string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.seq++
	gs.goals = append(gs.goals, sequencedGoal{
		Goal: Goal{Level: level, Name: name, Description: description},
		seq:  gs.seq,
	})
	gs.sortLocked()
}

// Remove deletes every goal whose name matches OR whose level matches. The
// OR semantics mirror the historical behavior and can delete an unrelated
// goal that happens to share a level with the targeted one; prefer
// RemoveExact for new callers.
func (gs *GoalSet) Remove(name string, level int) {
	gs.removeFunc(func(g Goal) bool {
		return g.Name == name || g.Level == level
	})
}

// RemoveExact deletes only goals matching both name AND level. This is the
// stricter, preferred variant of Remove.
func (gs *GoalSet) RemoveExact(name string, level int) {
	gs.removeFunc(func(g Goal) bool {
		return g.Name == name && g.Level == level
	})
}

func (gs *GoalSet) removeFunc(match func(Goal) bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	kept := gs.goals[:0]
	for _, g := range gs.goals {
		if !match(g.Goal) {
			kept = append(kept, g)
		}
	}
	gs.goals = kept
	gs.sortLocked()
}

// Goals returns a copy of the goals in ascending level order.
func (gs *GoalSet) Goals() []Goal {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	out := make([]Goal, len(gs.goals))
	for i, g := range gs.goals {
		out[i] = g.Goal
	}
	return out
}

// Len returns the number of goals in the set.
func (gs *GoalSet) Len() int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.goals)
}

// achievedBy returns the goals with level <= current, ascending.
func (gs *GoalSet) achievedBy(current int) []Goal {
	return gs.filter(func(g Goal) bool { return g.Level <= current })
}

// unachievedBy returns the goals with level > current, ascending.
func (gs *GoalSet) unachievedBy(current int) []Goal {
	return gs.filter(func(g Goal) bool { return g.Level > current })
}

// nextFor returns the lowest-level goal still above current, or nil when
// every goal has been met.
func (gs *GoalSet) nextFor(current int) *Goal {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	for _, g := range gs.goals {
		if g.Level > current {
			goal := g.Goal
			return &goal
		}
	}
	return nil
}

func (gs *GoalSet) filter(match func(Goal) bool) []Goal {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	var out []Goal
	for _, g := range gs.goals {
		if match(g.Goal) {
			out = append(out, g.Goal)
		}
	}
	return out
}

func (gs *GoalSet) sortLocked() {
	sort.SliceStable(gs.goals, func(i, j int) bool {
		if gs.goals[i].Level != gs.goals[j].Level {
			return gs.goals[i].Level < gs.goals[j].Level
		}
		return gs.goals[i].seq < gs.goals[j].seq
	})
}
