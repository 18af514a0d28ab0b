package achievement

// Achievement is one subject's progress record against one definition. All
// derived views are pure functions of the single progress counter and the
// definition's shared goal set; only Increment, Evaluate, and SetLevel
// mutate state. The instance itself is not internally synchronized — the
// tracker serializes mutations per subject.
type Achievement struct {
	def     *Definition
	current int
}

// Definition returns the definition this instance is bound to.
func (a *Achievement) Definition() *Definition { return a.def }

// Current returns the raw progress counter.
func (a *Achievement) Current() int { return a.current }

// CurrentGoal returns the lowest goal not yet achieved, or nil when every
// goal has been met.
func (a *Achievement) CurrentGoal() *Goal {
	return a.def.goals.nextFor(a.current)
}

// CurrentName returns the name of the goal currently being worked toward,
// or "" when all goals are met.
func (a *Achievement) CurrentName() string {
	if g := a.CurrentGoal(); g != nil {
		return g.Name
	}
	return ""
}

// CurrentDescription returns the description of the goal currently being
// worked toward, or "" when all goals are met.
func (a *Achievement) CurrentDescription() string {
	if g := a.CurrentGoal(); g != nil {
		return g.Description
	}
	return ""
}

// Achieved returns every goal with level <= current, ascending. Together
// with Unachieved it always partitions the full goal set.
func (a *Achievement) Achieved() []Goal {
	return a.def.goals.achievedBy(a.current)
}

// Unachieved returns every goal with level > current, ascending.
func (a *Achievement) Unachieved() []Goal {
	return a.def.goals.unachievedBy(a.current)
}

// HighestAchieved returns the highest goal met so far, or nil when none is.
func (a *Achievement) HighestAchieved() *Goal {
	achieved := a.Achieved()
	if len(achieved) == 0 {
		return nil
	}
	g := achieved[len(achieved)-1]
	return &g
}

// Increment adds a signed amount to the progress counter. There is no bounds
// clamping; negative amounts move progress backwards and callers must
// tolerate the resulting decreases in the achieved set.
func (a *Achievement) Increment(amount int) {
	a.current += amount
}

// Evaluate runs the definition-specific evaluation with arbitrary inputs and
// returns the achieved goals afterwards. Each call may mutate progress; only
// re-reading the counter is idempotent, repeated calls with the same inputs
// are not.
func (a *Achievement) Evaluate(args ...any) []Goal {
	if a.def.evaluate != nil {
		return a.def.evaluate(a, args...)
	}
	return a.Achieved()
}

// SetLevel unconditionally overwrites the progress counter. Used when
// restoring persisted state and for administrative correction; decreases
// are permitted.
func (a *Achievement) SetLevel(level int) {
	a.current = level
}
