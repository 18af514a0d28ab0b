package postgres

import (
	"context"
	"sync"

	"github.com/ejfett4/guildhub/internal/domain/achievement"
	"github.com/ejfett4/guildhub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTGRES ACHIEVEMENT BACKEND
// ══════════════════════════════════════════════════════════════════════════════

// Backend stores per-subject progress in the achievement_levels table. Live
// Achievement instances are cached so that repeated access within a process
// observes the same instance; the database row is the durable source.
type Backend struct {
	mu        sync.Mutex
	conn      *Connection
	instances map[string]map[string]map[string]*achievement.Achievement
}

var _ achievement.Backend = (*Backend)(nil)

// OpenBackend runs migrations and returns a ready backend.
func OpenBackend(ctx context.Context, conn *Connection) (*Backend, error) {
	if err := NewMigrator(conn).Migrate(ctx); err != nil {
		return nil, shared.WrapError("postgres", "OpenBackend", shared.ErrPersistence,
			"could not run achievement migrations", err)
	}
	return &Backend{
		conn:      conn,
		instances: make(map[string]map[string]map[string]*achievement.Achievement),
	}, nil
}

// AchievementFor returns the live instance for the subject and definition,
// loading the stored progress on first access and inserting a zero row when
// none exists yet.
func (b *Backend) AchievementFor(ctx context.Context, subject achievement.Subject, def *achievement.Definition) (*achievement.Achievement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a := b.cachedLocked(subject, def.Name()); a != nil {
		return a, nil
	}

	var progress int
	err := b.conn.QueryRow(ctx, `
		SELECT progress FROM achievement_levels
		WHERE scope_id = $1 AND subject_id = $2 AND definition = $3
	`, subject.Scope, subject.ID, def.Name()).Scan(&progress)
	switch {
	case IsNoRows(err):
		if _, err := b.conn.Exec(ctx, `
			INSERT INTO achievement_levels (scope_id, subject_id, definition, progress)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (scope_id, subject_id, definition) DO NOTHING
		`, subject.Scope, subject.ID, def.Name()); err != nil {
			return nil, shared.WrapError("postgres", "AchievementFor", shared.ErrPersistence,
				"could not load achievement progress", err)
		}
		progress = 0
	case err != nil:
		return nil, shared.WrapError("postgres", "AchievementFor", shared.ErrPersistence,
			"could not load achievement progress", err)
	}

	a := def.NewInstance(progress)
	b.cacheLocked(subject, def.Name(), a)
	return a, nil
}

// SetLevel upserts the stored progress and updates the cached instance.
func (b *Backend) SetLevel(ctx context.Context, subject achievement.Subject, def *achievement.Definition, level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.conn.Exec(ctx, `
		INSERT INTO achievement_levels (scope_id, subject_id, definition, progress)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_id, subject_id, definition)
		DO UPDATE SET progress = EXCLUDED.progress, updated_at = NOW()
	`, subject.Scope, subject.ID, def.Name(), level); err != nil {
		return shared.WrapError("postgres", "SetLevel", shared.ErrPersistence,
			"could not store achievement progress", err)
	}

	if a := b.cachedLocked(subject, def.Name()); a != nil {
		a.SetLevel(level)
	} else {
		b.cacheLocked(subject, def.Name(), def.NewInstance(level))
	}
	return nil
}

// Ping reports whether the underlying database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	return b.conn.Ping(ctx)
}

// TrackedSubjects returns the subject IDs with any stored progress in the
// scope.
func (b *Backend) TrackedSubjects(ctx context.Context, scope string) ([]string, error) {
	rows, err := b.conn.Query(ctx, `
		SELECT DISTINCT subject_id FROM achievement_levels
		WHERE scope_id = $1
		ORDER BY subject_id
	`, scope)
	if err != nil {
		return nil, shared.WrapError("postgres", "TrackedSubjects", shared.ErrPersistence,
			"could not list tracked subjects", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapError("postgres", "TrackedSubjects", shared.ErrPersistence,
				"could not list tracked subjects", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapError("postgres", "TrackedSubjects", shared.ErrPersistence,
			"could not list tracked subjects", err)
	}
	return ids, nil
}

// RemoveSubject deletes every stored row for the subject.
func (b *Backend) RemoveSubject(ctx context.Context, subject achievement.Subject) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.conn.Exec(ctx, `
		DELETE FROM achievement_levels
		WHERE scope_id = $1 AND subject_id = $2
	`, subject.Scope, subject.ID); err != nil {
		return shared.WrapError("postgres", "RemoveSubject", shared.ErrPersistence,
			"could not delete subject progress", err)
	}
	if scope, ok := b.instances[subject.Scope]; ok {
		delete(scope, subject.ID)
	}
	return nil
}

// Wipe deletes all stored rows within the scope.
func (b *Backend) Wipe(ctx context.Context, scope string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.conn.Exec(ctx, `
		DELETE FROM achievement_levels WHERE scope_id = $1
	`, scope); err != nil {
		return shared.WrapError("postgres", "Wipe", shared.ErrPersistence,
			"could not wipe scope progress", err)
	}
	delete(b.instances, scope)
	return nil
}

func (b *Backend) cachedLocked(subject achievement.Subject, defName string) *achievement.Achievement {
	if scope, ok := b.instances[subject.Scope]; ok {
		if subj, ok := scope[subject.ID]; ok {
			return subj[defName]
		}
	}
	return nil
}

func (b *Backend) cacheLocked(subject achievement.Subject, defName string, a *achievement.Achievement) {
	scope, ok := b.instances[subject.Scope]
	if !ok {
		scope = make(map[string]map[string]*achievement.Achievement)
		b.instances[subject.Scope] = scope
	}
	subj, ok := scope[subject.ID]
	if !ok {
		subj = make(map[string]*achievement.Achievement)
		scope[subject.ID] = subj
	}
	subj[defName] = a
}
