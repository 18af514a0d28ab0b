package file

import (
	"context"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// levelMap is the persisted shape of the achievement store:
// scope → subject → definition name → progress.
type levelMap map[string]map[string]map[string]int

// Backend is the file-backed achievement store. The whole store is loaded
// into memory at open and fully rewritten after every mutating operation.
// Stored progress values are rehydrated into fresh Achievement instances
// bound to the currently registered definition on first access, so goal-set
// changes between runs take effect retroactively.
type Backend struct {
	path string

	mu        sync.Mutex
	levels    levelMap
	instances map[string]map[string]map[string]*achievement.Achievement
}

// OpenBackend loads the achievement store at path, starting empty when the
// file does not exist yet.
func OpenBackend(path string) (*Backend, error) {
	b := &Backend{
		path:      path,
		levels:    make(levelMap),
		instances: make(map[string]map[string]map[string]*achievement.Achievement),
	}
	if _, err := LoadJSON(path, &b.levels); err != nil {
		return nil, shared.WrapError("achievement", "OpenBackend", shared.ErrPersistence,
			"failed to load achievement store", err)
	}
	if b.levels == nil {
		b.levels = make(levelMap)
	}
	return b, nil
}

// Path returns the backing file path.
func (b *Backend) Path() string {
	return b.path
}

// AchievementFor returns the live instance for the pair, rehydrating a
// persisted level or creating a fresh record at level 0. Creation persists
// immediately.
func (b *Backend) AchievementFor(_ context.Context, subject achievement.Subject, def *achievement.Definition) (*achievement.Achievement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a := b.lookupLocked(subject, def.Name()); a != nil {
		return a, nil
	}

	level, existed := b.levelLocked(subject, def.Name())
	a := def.NewInstance(level)
	b.storeInstanceLocked(subject, def.Name(), a)

	if !existed {
		b.setLevelLocked(subject, def.Name(), level)
		if err := b.saveLocked(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// SetLevel overwrites the persisted level for the pair and rewrites the
// backing store.
func (b *Backend) SetLevel(_ context.Context, subject achievement.Subject, def *achievement.Definition, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a := b.lookupLocked(subject, def.Name()); a != nil {
		a.SetLevel(level)
	} else {
		b.storeInstanceLocked(subject, def.Name(), def.NewInstance(level))
	}
	b.setLevelLocked(subject, def.Name(), level)
	return b.saveLocked()
}

// TrackedSubjects returns the subject IDs with any persisted state in the
// scope.
func (b *Backend) TrackedSubjects(_ context.Context, scope string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subjects := make([]string, 0, len(b.levels[scope]))
	for id := range b.levels[scope] {
		subjects = append(subjects, id)
	}
	return subjects, nil
}

// RemoveSubject deletes all achievement state for the subject and rewrites
// the store. Removing an untracked subject still rewrites, matching the
// save-on-every-call discipline of the original store.
func (b *Backend) RemoveSubject(_ context.Context, subject achievement.Subject) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.levels[subject.Scope], subject.ID)
	delete(b.instances[subject.Scope], subject.ID)
	return b.saveLocked()
}

// Wipe deletes all achievement state within the scope and rewrites the
// store.
func (b *Backend) Wipe(_ context.Context, scope string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.levels, scope)
	delete(b.instances, scope)
	return b.saveLocked()
}

func (b *Backend) lookupLocked(subject achievement.Subject, defName string) *achievement.Achievement {
	return b.instances[subject.Scope][subject.ID][defName]
}

func (b *Backend) storeInstanceLocked(subject achievement.Subject, defName string, a *achievement.Achievement) {
	scope, ok := b.instances[subject.Scope]
	if !ok {
		scope = make(map[string]map[string]*achievement.Achievement)
		b.instances[subject.Scope] = scope
	}
	records, ok := scope[subject.ID]
	if !ok {
		records = make(map[string]*achievement.Achievement)
		scope[subject.ID] = records
	}
	records[defName] = a
}

func (b *Backend) levelLocked(subject achievement.Subject, defName string) (int, bool) {
	level, ok := b.levels[subject.Scope][subject.ID][defName]
	return level, ok
}

func (b *Backend) setLevelLocked(subject achievement.Subject, defName string, level int) {
	scope, ok := b.levels[subject.Scope]
	if !ok {
		scope = make(map[string]map[string]int)
		b.levels[subject.Scope] = scope
	}
	records, ok := scope[subject.ID]
	if !ok {
		records = make(map[string]int)
		scope[subject.ID] = records
	}
	records[defName] = level
}

func (b *Backend) saveLocked() error {
	if err := SaveJSON(b.path, b.levels); err != nil {
		return shared.WrapError("achievement", "Save", shared.ErrPersistence,
			"failed to save achievement store", err)
	}
	return nil
}
