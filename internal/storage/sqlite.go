package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

const sqliteSchemaVersion = 1

type SQLiteStorage struct {
	db     *sqlx.DB
	logger internal.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and runs
// migrations. Pass ":memory:" for an ephemeral store.
func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= sqliteSchemaVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion))
	return err
}

func (s *SQLiteStorage) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS categories (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL DEFAULT '#6C63FF',
		created_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date  TIMESTAMP NOT NULL,
		end_date    TIMESTAMP NOT NULL,
		status      TEXT NOT NULL DEFAULT 'not_started',
		category_id TEXT REFERENCES categories(id),
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id          TEXT PRIMARY KEY,
		goal_id     TEXT NOT NULL REFERENCES goals(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date    TIMESTAMP NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		position    INTEGER NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_goals_user      ON goals(user_id);
	CREATE INDEX IF NOT EXISTS idx_milestones_goal ON milestones(goal_id);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// --- GoalRepository ---

func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *internal.Goal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, start_date, end_date, status, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.StartDate, goal.EndDate,
		goal.Status, goal.CategoryID, goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert goal: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error) {
	goal := &internal.Goal{}
	err := s.db.GetContext(ctx, goal,
		`SELECT * FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *SQLiteStorage) ListGoals(ctx context.Context, userID string) ([]internal.Goal, error) {
	goals := []internal.Goal{}
	err := s.db.SelectContext(ctx, &goals,
		`SELECT * FROM goals WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *SQLiteStorage) UpdateGoal(ctx context.Context, goal *internal.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET title = $1, description = $2, start_date = $3, end_date = $4,
		 status = $5, category_id = $6, updated_at = $7 WHERE id = $8 AND user_id = $9`,
		goal.Title, goal.Description, goal.StartDate, goal.EndDate,
		goal.Status, goal.CategoryID, goal.UpdatedAt, goal.ID, goal.UserID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteGoal(ctx context.Context, userID, goalID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DetachCategory(ctx context.Context, userID, categoryID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET category_id = NULL WHERE user_id = $1 AND category_id = $2`,
		userID, categoryID)
	return err
}

// --- MilestoneRepository ---

func (s *SQLiteStorage) CreateMilestone(ctx context.Context, m *internal.Milestone) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO milestones (id, goal_id, title, description, due_date, status, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.GoalID, m.Title, m.Description, m.DueDate, m.Status, m.Order, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert milestone: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetMilestone(ctx context.Context, goalID, milestoneID string) (*internal.Milestone, error) {
	m := &internal.Milestone{}
	err := s.db.GetContext(ctx, m,
		`SELECT * FROM milestones WHERE id = $1 AND goal_id = $2`, milestoneID, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStorage) ListMilestones(ctx context.Context, goalID string) ([]internal.Milestone, error) {
	milestones := []internal.Milestone{}
	err := s.db.SelectContext(ctx, &milestones,
		`SELECT * FROM milestones WHERE goal_id = $1 ORDER BY position ASC`, goalID)
	if err != nil {
		return nil, err
	}
	return milestones, nil
}

func (s *SQLiteStorage) UpdateMilestone(ctx context.Context, m *internal.Milestone) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE milestones SET title = $1, description = $2, due_date = $3, status = $4,
		 position = $5, updated_at = $6 WHERE id = $7 AND goal_id = $8`,
		m.Title, m.Description, m.DueDate, m.Status, m.Order, m.UpdatedAt, m.ID, m.GoalID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteMilestone(ctx context.Context, goalID, milestoneID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM milestones WHERE id = $1 AND goal_id = $2`, milestoneID, goalID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (s *SQLiteStorage) DeleteMilestonesByGoal(ctx context.Context, goalID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM milestones WHERE goal_id = $1`, goalID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStorage) ReorderMilestones(ctx context.Context, goalID string, orderedIDs []string) ([]internal.Milestone, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current := []internal.Milestone{}
	if err := tx.SelectContext(ctx, &current,
		`SELECT * FROM milestones WHERE goal_id = $1 ORDER BY position ASC`, goalID); err != nil {
		return nil, err
	}
	currentPtrs := make([]*internal.Milestone, len(current))
	for i := range current {
		currentPtrs[i] = &current[i]
	}
	if err := checkPermutation(currentPtrs, orderedIDs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE milestones SET position = $1, updated_at = $2 WHERE id = $3 AND goal_id = $4`,
			i+1, now, id, goalID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.ListMilestones(ctx, goalID)
}

// --- CategoryRepository ---

func (s *SQLiteStorage) CreateCategory(ctx context.Context, c *internal.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.Name, c.Color, c.CreatedAt)
	return err
}

func (s *SQLiteStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	categories := []internal.Category{}
	err := s.db.SelectContext(ctx, &categories,
		`SELECT * FROM categories WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *SQLiteStorage) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func requireRows(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Compile-time assertions ---
var _ GoalRepository = (*SQLiteStorage)(nil)
var _ MilestoneRepository = (*SQLiteStorage)(nil)
var _ CategoryRepository = (*SQLiteStorage)(nil)
