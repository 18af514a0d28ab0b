// Package tracking implements the achievement tracker: the façade that
// coordinates definition registration, per-subject state retrieval through a
// backend, mutation operations, and signal emission when state transitions
// cross goal thresholds.
package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionRef names a definition either by its registered name or by a
// direct handle. It is resolved once to a canonical handle at the tracker
// boundary.
type DefinitionRef struct {
	name   string
	handle *achievement.Definition
}

// ByName references a definition by its registered name.
func ByName(name string) DefinitionRef {
	return DefinitionRef{name: name}
}

// ByHandle references a definition directly.
func ByHandle(def *achievement.Definition) DefinitionRef {
	return DefinitionRef{handle: def}
}

func (r DefinitionRef) displayName() string {
	if r.handle != nil {
		return r.handle.Name()
	}
	return r.name
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// Tracker tracks achievements and current levels per subject using the
// configured backend. A single mutex serializes every fetch→mutate→persist
// sequence, so concurrent mutations on the same subject cannot lose updates.
// Construct explicitly with New and inject the backend; there is no
// process-wide default instance.
type Tracker struct {
	mu       sync.Mutex
	registry map[string]*achievement.Definition
	order    []string
	backend  achievement.Backend
	signals  *Signals
	logger   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSignals sets the tracker's signal set. Without it the tracker creates
// its own, reachable through Signals().
func WithSignals(s *Signals) Option {
	return func(t *Tracker) {
		if s != nil {
			t.signals = s
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a tracker backed by the given store.
func New(backend achievement.Backend, opts ...Option) *Tracker {
	t := &Tracker{
		registry: make(map[string]*achievement.Definition),
		backend:  backend,
		signals:  NewSignals(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Signals returns the tracker's signal set for receiver wiring.
func (t *Tracker) Signals() *Signals {
	return t.signals
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Register adds the given definitions to the registry. It fails with
// shared.ErrAlreadyRegistered when a definition with the same name is
// already present, and with a validation error when a definition has no
// category.
func (t *Tracker) Register(defs ...*achievement.Definition) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, def := range defs {
		if def.Category() == "" {
			return shared.NewDomainError("tracking", "Register", shared.ErrValidation,
				"definition \""+def.Name()+"\" must specify a category")
		}
		if _, exists := t.registry[def.Name()]; exists {
			return shared.NewDomainError("tracking", "Register", shared.ErrAlreadyRegistered,
				"definition \""+def.Name()+"\" is already registered")
		}
		t.registry[def.Name()] = def
		t.order = append(t.order, def.Name())
		t.logger.Debug("registered achievement definition",
			"definition", def.Name(),
			"category", def.Category(),
			"goals", def.Goals().Len(),
		)
	}
	return nil
}

// Unregister removes the given definitions. It fails with
// shared.ErrNotRegistered when a definition is not present.
func (t *Tracker) Unregister(defs ...*achievement.Definition) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, def := range defs {
		if _, exists := t.registry[def.Name()]; !exists {
			return shared.NewDomainError("tracking", "Unregister", shared.ErrNotRegistered,
				"definition \""+def.Name()+"\" is not registered")
		}
		delete(t.registry, def.Name())
		for i, name := range t.order {
			if name == def.Name() {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// IsRegistered reports whether the referenced definition is registered.
func (t *Tracker) IsRegistered(ref DefinitionRef) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.resolveLocked(ref)
	return err == nil
}

// Achievements returns registered definitions matching an exact category
// (when non-empty) and carrying all given keywords. Without filters it
// returns every registered definition in registration order.
func (t *Tracker) Achievements(category string, keywords ...string) []*achievement.Definition {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*achievement.Definition
	for _, name := range t.order {
		def := t.registry[name]
		if category != "" && def.Category() != category {
			continue
		}
		matched := true
		for _, kw := range keywords {
			if !def.HasKeyword(kw) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, def)
		}
	}
	return out
}

// resolveLocked resolves a reference to the canonical registered handle.
func (t *Tracker) resolveLocked(ref DefinitionRef) (*achievement.Definition, error) {
	name := ref.name
	if ref.handle != nil {
		name = ref.handle.Name()
	}
	def, ok := t.registry[name]
	if !ok {
		return nil, shared.NewDomainError("tracking", "Resolve", shared.ErrNotRegistered,
			"definition \""+ref.displayName()+"\" is not registered with this tracker")
	}
	return def, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFor returns the subject's Achievement instance for the
// referenced definition, creating it lazily through the backend on first
// access. Fails with shared.ErrNotRegistered for unknown definitions.
func (t *Tracker) AchievementFor(ctx context.Context, subject achievement.Subject, ref DefinitionRef) (*achievement.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.achievementForLocked(ctx, subject, ref)
}

func (t *Tracker) achievementForLocked(ctx context.Context, subject achievement.Subject, ref DefinitionRef) (*achievement.Achievement, error) {
	def, err := t.resolveLocked(ref)
	if err != nil {
		return nil, err
	}
	return t.backend.AchievementFor(ctx, subject, def)
}

// Current returns the subject's raw progress counter.
func (t *Tracker) Current(ctx context.Context, subject achievement.Subject, ref DefinitionRef) (int, error) {
	a, err := t.AchievementFor(ctx, subject, ref)
	if err != nil {
		return 0, err
	}
	return a.Current(), nil
}

// CurrentName returns the name of the goal the subject is working toward.
func (t *Tracker) CurrentName(ctx context.Context, subject achievement.Subject, ref DefinitionRef) (string, error) {
	a, err := t.AchievementFor(ctx, subject, ref)
	if err != nil {
		return "", err
	}
	return a.CurrentName(), nil
}

// CurrentDescription returns the description of the goal the subject is
// working toward.
func (t *Tracker) CurrentDescription(ctx context.Context, subject achievement.Subject, ref DefinitionRef) (string, error) {
	a, err := t.AchievementFor(ctx, subject, ref)
	if err != nil {
		return "", err
	}
	return a.CurrentDescription(), nil
}

// Achieved returns the subject's achieved goals, ascending.
func (t *Tracker) Achieved(ctx context.Context, subject achievement.Subject, ref DefinitionRef) ([]achievement.Goal, error) {
	a, err := t.AchievementFor(ctx, subject, ref)
	if err != nil {
		return nil, err
	}
	return a.Achieved(), nil
}

// Unachieved returns the subject's unachieved goals, ascending.
func (t *Tracker) Unachieved(ctx context.Context, subject achievement.Subject, ref DefinitionRef) ([]achievement.Goal, error) {
	a, err := t.AchievementFor(ctx, subject, ref)
	if err != nil {
		return nil, err
	}
	return a.Unachieved(), nil
}

// TrackedSubjects returns the subject IDs tracked within a scope.
func (t *Tracker) TrackedSubjects(ctx context.Context, scope string) ([]string, error) {
	return t.backend.TrackedSubjects(ctx, scope)
}

// RemoveSubject removes all tracked information for the subject.
func (t *Tracker) RemoveSubject(ctx context.Context, subject achievement.Subject) error {
	return t.backend.RemoveSubject(ctx, subject)
}

// Wipe removes all achievement state within a scope.
func (t *Tracker) Wipe(ctx context.Context, scope string) error {
	return t.backend.Wipe(ctx, scope)
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Increment adds a signed amount to the subject's progress, persists the new
// level, and runs the signal-check protocol. It returns the newly achieved
// goals, or nil when the mutation completed no new goal. Persistence errors
// propagate and leave in-memory state potentially ahead of durable state.
func (t *Tracker) Increment(ctx context.Context, subject achievement.Subject, ref DefinitionRef, amount int) ([]achievement.Goal, error) {
	newGoals, _, err := t.mutate(ctx, subject, ref, func(a *achievement.Achievement) []achievement.Goal {
		a.Increment(amount)
		return nil
	})
	return newGoals, err
}

// Evaluate runs the definition-specific evaluation with arbitrary inputs,
// persists the resulting level, runs the signal-check protocol, and returns
// the evaluation's own result: the full achieved list, independent of
// whether any goal is newly achieved.
func (t *Tracker) Evaluate(ctx context.Context, subject achievement.Subject, ref DefinitionRef, args ...any) ([]achievement.Goal, error) {
	_, result, err := t.mutate(ctx, subject, ref, func(a *achievement.Achievement) []achievement.Goal {
		return a.Evaluate(args...)
	})
	return result, err
}

// SetLevel unconditionally overwrites the subject's progress, persists it,
// and runs the signal-check protocol. Decreases are permitted.
func (t *Tracker) SetLevel(ctx context.Context, subject achievement.Subject, ref DefinitionRef, level int) error {
	_, _, err := t.mutate(ctx, subject, ref, func(a *achievement.Achievement) []achievement.Goal {
		a.SetLevel(level)
		return nil
	})
	return err
}

// mutate implements the shared fetch→snapshot→mutate→persist→signal
// sequence. It returns the newly achieved goals from the signal check and
// the mutation's own result. The tracker mutex is released before signals
// fire: persisted state is already final at that point, and receivers may
// call back into the tracker without deadlocking.
func (t *Tracker) mutate(ctx context.Context, subject achievement.Subject, ref DefinitionRef, fn func(*achievement.Achievement) []achievement.Goal) ([]achievement.Goal, []achievement.Goal, error) {
	t.mu.Lock()
	a, err := t.achievementForLocked(ctx, subject, ref)
	if err != nil {
		t.mu.Unlock()
		return nil, nil, err
	}

	oldLevel := a.Current()
	oldAchieved := a.Achieved()

	result := fn(a)

	if err := t.backend.SetLevel(ctx, subject, a.Definition(), a.Current()); err != nil {
		t.mu.Unlock()
		return nil, nil, err
	}
	t.mu.Unlock()

	newGoals := t.checkSignals(subject, a, oldLevel, oldAchieved)
	return newGoals, result, nil
}

// checkSignals compares pre- and post-mutation state and emits the tracker
// signals with fault-tolerant delivery. Receiver failures are swallowed
// here by contract; they never reach the mutation's caller.
func (t *Tracker) checkSignals(subject achievement.Subject, a *achievement.Achievement, oldLevel int, oldAchieved []achievement.Goal) []achievement.Goal {
	if a.Current() > oldLevel {
		t.signals.LevelIncreased.SendRobust(t, LevelIncreasedPayload{
			Subject:     subject,
			Achievement: a,
		})
	}

	newGoals := goalDelta(a.Achieved(), oldAchieved)
	if len(newGoals) == 0 {
		return nil
	}

	t.signals.GoalAchieved.SendRobust(t, GoalAchievedPayload{
		Subject:     subject,
		Achievement: a,
		Goals:       newGoals,
	})
	if len(a.Unachieved()) == 0 {
		t.signals.HighestLevelAchieved.SendRobust(t, HighestLevelAchievedPayload{
			Subject:     subject,
			Achievement: a,
		})
	}

	t.logger.Debug("goals achieved",
		"subject", subject.String(),
		"definition", a.Definition().Name(),
		"new_goals", len(newGoals),
	)
	return newGoals
}

// goalDelta returns the goals present in current but not in previous.
func goalDelta(current, previous []achievement.Goal) []achievement.Goal {
	var delta []achievement.Goal
	for _, g := range current {
		found := false
		for _, old := range previous {
			if g == old {
				found = true
				break
			}
		}
		if !found {
			delta = append(delta, g)
		}
	}
	return delta
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL-SET EDITS
// ══════════════════════════════════════════════════════════════════════════════

// AddGoal adds a goal to the referenced definition's shared goal set. The
// edit is immediately visible to all existing instances; callers owning an
// externally persisted goal-set representation must save it themselves.
func (t *Tracker) AddGoal(ref DefinitionRef, level int, name, description string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	def, err := t.resolveLocked(ref)
	if err != nil {
		return err
	}
	def.Goals().Add(level, name, description)
	return nil
}

// RemoveGoal removes goals matching the name or the level from the
// referenced definition's shared goal set (see GoalSet.Remove for the OR
// semantics).
func (t *Tracker) RemoveGoal(ref DefinitionRef, name string, level int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	def, err := t.resolveLocked(ref)
	if err != nil {
		return err
	}
	def.Goals().Remove(name, level)
	return nil
}
