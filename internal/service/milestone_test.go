package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

func createTestGoal(t *testing.T, s *storage.FileStorage) *internal.Goal {
	t.Helper()
	goal, err := CreateGoal(context.Background(), s, testUser, &GoalRequest{
		Title:     "Pass AWS SAA",
		StartDate: "2026-01-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)
	return goal
}

func TestCreateMilestoneAppendsOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	goal := createTestGoal(t, s)

	m1, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Book exam", DueDate: "2026-01-15"})
	require.NoError(t, err)
	m2, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Finish course", DueDate: "2026-02-15"})
	require.NoError(t, err)

	assert.Equal(t, 1, m1.Order)
	assert.Equal(t, 2, m2.Order)
	assert.Equal(t, internal.MilestonePending, m1.Status)
}

func TestCreateMilestoneRejectsDueAfterGoalEnd(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	goal := createTestGoal(t, s)

	_, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Too late", DueDate: "2026-04-01"})
	assert.ErrorIs(t, err, ErrDueDate)

	// A due date equal to the goal's end date is still in range.
	_, err = CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Last day", DueDate: "2026-03-31"})
	assert.NoError(t, err)
}

func TestCreateMilestoneUnknownGoal(t *testing.T) {
	s := newTestStorage(t)
	_, err := CreateMilestone(context.Background(), s, s, testUser, "missing", &MilestoneRequest{Title: "x", DueDate: "2026-01-15"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateMilestoneStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	goal := createTestGoal(t, s)
	m, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Book exam", DueDate: "2026-01-15"})
	require.NoError(t, err)

	status := "completed"
	updated, err := UpdateMilestone(ctx, s, s, testUser, goal.ID, m.ID, &MilestoneUpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, internal.MilestoneCompleted, updated.Status)
	assert.True(t, updated.UpdatedAt.After(m.CreatedAt) || updated.UpdatedAt.Equal(m.CreatedAt))
}

func TestUpdateMilestoneRejectsDueAfterGoalEnd(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	goal := createTestGoal(t, s)
	m, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Book exam", DueDate: "2026-01-15"})
	require.NoError(t, err)

	due := "2026-05-01"
	_, err = UpdateMilestone(ctx, s, s, testUser, goal.ID, m.ID, &MilestoneUpdateRequest{DueDate: &due})
	assert.ErrorIs(t, err, ErrDueDate)
}

func TestReorderMilestonesOwnershipCheck(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	goal := createTestGoal(t, s)
	m1, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "a", DueDate: "2026-01-15"})
	require.NoError(t, err)
	m2, err := CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "b", DueDate: "2026-02-15"})
	require.NoError(t, err)

	otherUser := &internal.User{ID: "u2", Email: "u2@example.com"}
	_, err = ReorderMilestones(ctx, s, s, otherUser, goal.ID, []string{m2.ID, m1.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	reordered, err := ReorderMilestones(ctx, s, s, testUser, goal.ID, []string{m2.ID, m1.ID})
	require.NoError(t, err)
	require.Len(t, reordered, 2)
	assert.Equal(t, m2.ID, reordered[0].ID)
	assert.Equal(t, 1, reordered[0].Order)
}

func TestValidateReorderRequest(t *testing.T) {
	assert.NoError(t, ValidateReorderRequest(&ReorderRequest{OrderedIDs: []string{"a"}}))
	assert.Error(t, ValidateReorderRequest(&ReorderRequest{OrderedIDs: nil}))
	assert.Error(t, ValidateReorderRequest(&ReorderRequest{OrderedIDs: []string{}}))
}
