// Package memory implements an in-process achievement backend with no
// durability. Suitable for tests and single-session development runs.
package memory

import (
	"context"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
)

// Backend stores all achievement state in process memory, keyed
// scope → subject → definition name.
type Backend struct {
	mu     sync.Mutex
	scopes map[string]map[string]map[string]*achievement.Achievement
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{
		scopes: make(map[string]map[string]map[string]*achievement.Achievement),
	}
}

// AchievementFor returns the live instance for the pair, creating it at
// level 0 on first access.
func (b *Backend) AchievementFor(_ context.Context, subject achievement.Subject, def *achievement.Definition) (*achievement.Achievement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instanceLocked(subject, def), nil
}

// SetLevel overwrites the stored level for the pair, creating the record
// when absent.
func (b *Backend) SetLevel(_ context.Context, subject achievement.Subject, def *achievement.Definition, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.instanceLocked(subject, def).SetLevel(level)
	return nil
}

// TrackedSubjects returns the subject IDs tracked within the scope.
func (b *Backend) TrackedSubjects(_ context.Context, scope string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subjects := make([]string, 0, len(b.scopes[scope]))
	for id := range b.scopes[scope] {
		subjects = append(subjects, id)
	}
	return subjects, nil
}

// RemoveSubject deletes all achievement state for the subject.
func (b *Backend) RemoveSubject(_ context.Context, subject achievement.Subject) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.scopes[subject.Scope], subject.ID)
	return nil
}

// Wipe deletes all achievement state within the scope.
func (b *Backend) Wipe(_ context.Context, scope string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.scopes, scope)
	return nil
}

func (b *Backend) instanceLocked(subject achievement.Subject, def *achievement.Definition) *achievement.Achievement {
	scope, ok := b.scopes[subject.Scope]
	if !ok {
		scope = make(map[string]map[string]*achievement.Achievement)
		b.scopes[subject.Scope] = scope
	}
	records, ok := scope[subject.ID]
	if !ok {
		records = make(map[string]*achievement.Achievement)
		scope[subject.ID] = records
	}
	a, ok := records[def.Name()]
	if !ok {
		a = def.NewInstance(0)
		records[def.Name()] = a
	}
	return a
}
