package achievement

import (
	"context"
	"fmt"
)

// Subject identifies one tracked entity by a two-level key: a scope (e.g. a
// community/server ID) and a subject ID within it. The engine never
// interprets these beyond equality.
type Subject struct {
	Scope string `json:"scope"`
	ID    string `json:"id"`
}

// String renders the subject for logs and error messages.
func (s Subject) String() string {
	return fmt.Sprintf("%s/%s", s.Scope, s.ID)
}

// Backend is the durable store mediating all reads and writes of Achievement
// instances. Implementations own the persisted instances: the tracker never
// mutates stored state except through SetLevel. Subjects are created lazily
// on first access and never auto-deleted.
type Backend interface {
	// AchievementFor returns the live Achievement instance for the
	// (subject, definition) pair, creating and persisting a fresh one at
	// level 0 on first access.
	AchievementFor(ctx context.Context, subject Subject, def *Definition) (*Achievement, error)

	// SetLevel overwrites the persisted level for the pair, creating the
	// record when absent, and persists the change durably.
	SetLevel(ctx context.Context, subject Subject, def *Definition, level int) error

	// TrackedSubjects returns the subject IDs tracked within a scope.
	TrackedSubjects(ctx context.Context, scope string) ([]string, error)

	// RemoveSubject deletes all achievement state for a subject within its
	// scope. Removing an untracked subject is a no-op.
	RemoveSubject(ctx context.Context, subject Subject) error

	// Wipe deletes all achievement state within a scope.
	Wipe(ctx context.Context, scope string) error
}
