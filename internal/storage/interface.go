package storage

import (
	"context"
	"errors"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrOrderMismatch is returned when a reorder request is not an exact
	// permutation of a goal's current milestone ids.
	ErrOrderMismatch = errors.New("storage: ordered ids do not match the goal's milestones")
)

type GoalRepository interface {
	CreateGoal(ctx context.Context, goal *internal.Goal) error
	GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]internal.Goal, error)
	UpdateGoal(ctx context.Context, goal *internal.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
	// DetachCategory clears categoryId on every goal of the user that
	// references the category. Used when a category is deleted.
	DetachCategory(ctx context.Context, userID, categoryID string) error
}

type MilestoneRepository interface {
	CreateMilestone(ctx context.Context, m *internal.Milestone) error
	GetMilestone(ctx context.Context, goalID, milestoneID string) (*internal.Milestone, error)
	// ListMilestones returns a goal's milestones in ascending order.
	ListMilestones(ctx context.Context, goalID string) ([]internal.Milestone, error)
	UpdateMilestone(ctx context.Context, m *internal.Milestone) error
	DeleteMilestone(ctx context.Context, goalID, milestoneID string) error
	DeleteMilestonesByGoal(ctx context.Context, goalID string) (int, error)
	// ReorderMilestones assigns order = index+1 following orderedIDs and
	// refreshes updatedAt on every milestone. orderedIDs must be an exact
	// permutation of the goal's milestone ids; otherwise ErrOrderMismatch.
	// The operation is all-or-nothing.
	ReorderMilestones(ctx context.Context, goalID string, orderedIDs []string) ([]internal.Milestone, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *internal.Category) error
	ListCategories(ctx context.Context, userID string) ([]internal.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}
