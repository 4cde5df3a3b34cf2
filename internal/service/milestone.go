package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

// ErrDueDate is returned when a milestone's due date falls after the owning
// goal's end date.
var ErrDueDate = errors.New("dueDate must be on or before the goal's endDate")

type MilestoneRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

type MilestoneUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Order       *int    `json:"order" validate:"omitempty,gt=0"`
}

type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1"`
}

func ValidateMilestoneRequest(req *MilestoneRequest) error {
	return validate.Struct(req)
}

func ValidateMilestoneUpdateRequest(req *MilestoneUpdateRequest) error {
	return validate.Struct(req)
}

func ValidateReorderRequest(req *ReorderRequest) error {
	return validate.Struct(req)
}

// VerifyGoalOwnership resolves the goal and confirms it belongs to the user.
// Every milestone operation goes through this first.
func VerifyGoalOwnership(ctx context.Context, goalRepo storage.GoalRepository, user *internal.User, goalID string) (*internal.Goal, error) {
	return goalRepo.GetGoal(ctx, user.ID, goalID)
}

// CreateMilestone appends a milestone at the end of the goal's sequence
// (order = current max + 1).
func CreateMilestone(ctx context.Context, goalRepo storage.GoalRepository, msRepo storage.MilestoneRepository, user *internal.User, goalID string, req *MilestoneRequest) (*internal.Milestone, error) {
	goal, err := VerifyGoalOwnership(ctx, goalRepo, user, goalID)
	if err != nil {
		return nil, err
	}

	due, _ := time.Parse(dateLayout, req.DueDate)
	if due.After(goal.EndDate) {
		return nil, ErrDueDate
	}

	existing, err := msRepo.ListMilestones(ctx, goalID)
	if err != nil {
		return nil, err
	}
	maxOrder := 0
	for _, m := range existing {
		if m.Order > maxOrder {
			maxOrder = m.Order
		}
	}

	now := time.Now().UTC()
	milestone := &internal.Milestone{
		ID:          uuid.NewString(),
		GoalID:      goalID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
		Status:      internal.MilestonePending,
		Order:       maxOrder + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := msRepo.CreateMilestone(ctx, milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

func UpdateMilestone(ctx context.Context, goalRepo storage.GoalRepository, msRepo storage.MilestoneRepository, user *internal.User, goalID, milestoneID string, req *MilestoneUpdateRequest) (*internal.Milestone, error) {
	goal, err := VerifyGoalOwnership(ctx, goalRepo, user, goalID)
	if err != nil {
		return nil, err
	}
	milestone, err := msRepo.GetMilestone(ctx, goalID, milestoneID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		milestone.Title = *req.Title
	}
	if req.Description != nil {
		milestone.Description = *req.Description
	}
	if req.DueDate != nil {
		due, _ := time.Parse(dateLayout, *req.DueDate)
		if due.After(goal.EndDate) {
			return nil, ErrDueDate
		}
		milestone.DueDate = due
	}
	if req.Status != nil {
		milestone.Status = internal.MilestoneStatus(*req.Status)
	}
	if req.Order != nil {
		milestone.Order = *req.Order
	}
	milestone.UpdatedAt = time.Now().UTC()

	if err := msRepo.UpdateMilestone(ctx, milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

func DeleteMilestone(ctx context.Context, goalRepo storage.GoalRepository, msRepo storage.MilestoneRepository, user *internal.User, goalID, milestoneID string) error {
	if _, err := VerifyGoalOwnership(ctx, goalRepo, user, goalID); err != nil {
		return err
	}
	return msRepo.DeleteMilestone(ctx, goalID, milestoneID)
}

// ReorderMilestones applies a drag-and-drop permutation. The submitted id
// list must cover the goal's milestones exactly; the repository rejects
// anything else with storage.ErrOrderMismatch.
func ReorderMilestones(ctx context.Context, goalRepo storage.GoalRepository, msRepo storage.MilestoneRepository, user *internal.User, goalID string, orderedIDs []string) ([]internal.Milestone, error) {
	if _, err := VerifyGoalOwnership(ctx, goalRepo, user, goalID); err != nil {
		return nil, err
	}
	return msRepo.ReorderMilestones(ctx, goalID, orderedIDs)
}
