package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- GoalRepository ---

func (p *PostgresStorage) CreateGoal(ctx context.Context, goal *internal.Goal) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO goals (id, user_id, title, description, start_date, end_date, status, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.StartDate, goal.EndDate,
		goal.Status, goal.CategoryID, goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert goal: %v", err)
	}
	return err
}

func (p *PostgresStorage) GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, start_date, end_date, status, category_id, created_at, updated_at
		 FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	return scanGoal(row)
}

func (p *PostgresStorage) ListGoals(ctx context.Context, userID string) ([]internal.Goal, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, title, description, start_date, end_date, status, category_id, created_at, updated_at
		 FROM goals WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query goals: %v", err)
		return nil, err
	}
	defer rows.Close()

	goals := []internal.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (p *PostgresStorage) UpdateGoal(ctx context.Context, goal *internal.Goal) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE goals SET title = $1, description = $2, start_date = $3, end_date = $4,
		 status = $5, category_id = $6, updated_at = $7 WHERE id = $8 AND user_id = $9`,
		goal.Title, goal.Description, goal.StartDate, goal.EndDate,
		goal.Status, goal.CategoryID, goal.UpdatedAt, goal.ID, goal.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteGoal(ctx context.Context, userID, goalID string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DetachCategory(ctx context.Context, userID, categoryID string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE goals SET category_id = NULL WHERE user_id = $1 AND category_id = $2`,
		userID, categoryID)
	return err
}

// --- MilestoneRepository ---

func (p *PostgresStorage) CreateMilestone(ctx context.Context, m *internal.Milestone) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO milestones (id, goal_id, title, description, due_date, status, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.GoalID, m.Title, m.Description, m.DueDate, m.Status, m.Order, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert milestone: %v", err)
	}
	return err
}

func (p *PostgresStorage) GetMilestone(ctx context.Context, goalID, milestoneID string) (*internal.Milestone, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, goal_id, title, description, due_date, status, position, created_at, updated_at
		 FROM milestones WHERE id = $1 AND goal_id = $2`, milestoneID, goalID)
	return scanMilestone(row)
}

func (p *PostgresStorage) ListMilestones(ctx context.Context, goalID string) ([]internal.Milestone, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, goal_id, title, description, due_date, status, position, created_at, updated_at
		 FROM milestones WHERE goal_id = $1 ORDER BY position ASC`, goalID)
	if err != nil {
		p.logger.Errorf("failed to query milestones: %v", err)
		return nil, err
	}
	defer rows.Close()

	milestones := []internal.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func (p *PostgresStorage) UpdateMilestone(ctx context.Context, m *internal.Milestone) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE milestones SET title = $1, description = $2, due_date = $3, status = $4,
		 position = $5, updated_at = $6 WHERE id = $7 AND goal_id = $8`,
		m.Title, m.Description, m.DueDate, m.Status, m.Order, m.UpdatedAt, m.ID, m.GoalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteMilestone(ctx context.Context, goalID, milestoneID string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM milestones WHERE id = $1 AND goal_id = $2`, milestoneID, goalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteMilestonesByGoal(ctx context.Context, goalID string) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM milestones WHERE goal_id = $1`, goalID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStorage) ReorderMilestones(ctx context.Context, goalID string, orderedIDs []string) ([]internal.Milestone, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id FROM milestones WHERE goal_id = $1 FOR UPDATE`, goalID)
	if err != nil {
		return nil, err
	}
	currentIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		currentIDs = append(currentIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := checkIDPermutation(currentIDs, orderedIDs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE milestones SET position = $1, updated_at = $2 WHERE id = $3 AND goal_id = $4`,
			i+1, now, id, goalID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p.ListMilestones(ctx, goalID)
}

// --- CategoryRepository ---

func (p *PostgresStorage) CreateCategory(ctx context.Context, c *internal.Category) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO categories (id, user_id, name, color, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.Name, c.Color, c.CreatedAt)
	return err
}

func (p *PostgresStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, name, color, created_at FROM categories WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []internal.Category{}
	for rows.Next() {
		var c internal.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (p *PostgresStorage) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (*internal.Goal, error) {
	var g internal.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.StartDate, &g.EndDate,
		&g.Status, &g.CategoryID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanMilestone(row pgx.Row) (*internal.Milestone, error) {
	var m internal.Milestone
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.Description, &m.DueDate, &m.Status,
		&m.Order, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func checkIDPermutation(currentIDs, orderedIDs []string) error {
	if len(orderedIDs) != len(currentIDs) {
		return ErrOrderMismatch
	}
	known := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		known[id] = true
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !known[id] || seen[id] {
			return ErrOrderMismatch
		}
		seen[id] = true
	}
	return nil
}

// --- Compile-time assertions ---
var _ GoalRepository = (*PostgresStorage)(nil)
var _ MilestoneRepository = (*PostgresStorage)(nil)
var _ CategoryRepository = (*PostgresStorage)(nil)
