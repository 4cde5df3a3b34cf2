package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

var validate = validator.New()

// ErrDateRange is returned when a goal's start date falls after its end date.
var ErrDateRange = errors.New("startDate must be on or before endDate")

const dateLayout = "2006-01-02"

type GoalRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	StartDate   string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"endDate" validate:"required,datetime=2006-01-02"`
	CategoryID  *string `json:"categoryId"`
}

type GoalUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	StartDate   *string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold"`
	CategoryID  *string `json:"categoryId"`
}

func ValidateGoalRequest(req *GoalRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if end.Before(start) {
		return ErrDateRange
	}
	return nil
}

func ValidateGoalUpdateRequest(req *GoalUpdateRequest) error {
	return validate.Struct(req)
}

func CreateGoal(ctx context.Context, goalRepo storage.GoalRepository, user *internal.User, req *GoalRequest) (*internal.Goal, error) {
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	now := time.Now().UTC()
	goal := &internal.Goal{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Status:      internal.GoalNotStarted,
		CategoryID:  req.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := goalRepo.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// UpdateGoal merges the deltas into the stored goal and persists it. The
// start/end invariant is checked against the merged dates so a partial update
// cannot invert the range.
func UpdateGoal(ctx context.Context, goalRepo storage.GoalRepository, user *internal.User, goalID string, req *GoalUpdateRequest) (*internal.Goal, error) {
	goal, err := goalRepo.GetGoal(ctx, user.ID, goalID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.StartDate != nil {
		start, _ := time.Parse(dateLayout, *req.StartDate)
		goal.StartDate = start
	}
	if req.EndDate != nil {
		end, _ := time.Parse(dateLayout, *req.EndDate)
		goal.EndDate = end
	}
	if req.Status != nil {
		goal.Status = internal.GoalStatus(*req.Status)
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			goal.CategoryID = nil
		} else {
			goal.CategoryID = req.CategoryID
		}
	}
	if goal.EndDate.Before(goal.StartDate) {
		return nil, ErrDateRange
	}
	goal.UpdatedAt = time.Now().UTC()

	if err := goalRepo.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes the goal and cascades to its milestones. Milestones go
// first so a failure never leaves orphans behind a deleted goal.
func DeleteGoal(ctx context.Context, goalRepo storage.GoalRepository, msRepo storage.MilestoneRepository, user *internal.User, goalID string) error {
	if _, err := goalRepo.GetGoal(ctx, user.ID, goalID); err != nil {
		return err
	}
	if _, err := msRepo.DeleteMilestonesByGoal(ctx, goalID); err != nil {
		return err
	}
	return goalRepo.DeleteGoal(ctx, user.ID, goalID)
}
