package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

var testUser = &internal.User{ID: "u1", Email: "u1@example.com", Name: "Test User"}

func newTestStorage(t *testing.T) *storage.FileStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(
		filepath.Join(dir, "goals.json"),
		filepath.Join(dir, "milestones.json"),
		filepath.Join(dir, "categories.json"),
		internal.NopLogger{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestValidateGoalRequest(t *testing.T) {
	valid := &GoalRequest{Title: "Learn Go", StartDate: "2026-01-01", EndDate: "2026-06-30"}
	assert.NoError(t, ValidateGoalRequest(valid))

	missingTitle := &GoalRequest{StartDate: "2026-01-01", EndDate: "2026-06-30"}
	assert.Error(t, ValidateGoalRequest(missingTitle))

	badDate := &GoalRequest{Title: "x", StartDate: "01/01/2026", EndDate: "2026-06-30"}
	assert.Error(t, ValidateGoalRequest(badDate))

	inverted := &GoalRequest{Title: "x", StartDate: "2026-06-30", EndDate: "2026-01-01"}
	assert.ErrorIs(t, ValidateGoalRequest(inverted), ErrDateRange)

	sameDay := &GoalRequest{Title: "x", StartDate: "2026-01-01", EndDate: "2026-01-01"}
	assert.NoError(t, ValidateGoalRequest(sameDay))
}

func TestCreateGoalDefaults(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	goal, err := CreateGoal(ctx, s, testUser, &GoalRequest{
		Title:     "Pass AWS SAA",
		StartDate: "2026-01-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, testUser.ID, goal.UserID)
	assert.Equal(t, internal.GoalNotStarted, goal.Status)
	assert.Nil(t, goal.CategoryID)
	assert.Equal(t, "2026-01-01", goal.StartDate.Format("2006-01-02"))

	stored, err := s.GetGoal(ctx, testUser.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.Title, stored.Title)
}

func TestUpdateGoalMergesDeltas(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	goal, err := CreateGoal(ctx, s, testUser, &GoalRequest{
		Title:     "Pass AWS SAA",
		StartDate: "2026-01-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	status := "in_progress"
	title := "Pass AWS SAA-C03"
	updated, err := UpdateGoal(ctx, s, testUser, goal.ID, &GoalUpdateRequest{
		Title:  &title,
		Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, internal.GoalInProgress, updated.Status)
	// Untouched fields survive the merge.
	assert.Equal(t, "2026-03-31", updated.EndDate.Format("2006-01-02"))
}

func TestUpdateGoalRejectsInvertedRange(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	goal, err := CreateGoal(ctx, s, testUser, &GoalRequest{
		Title:     "Pass AWS SAA",
		StartDate: "2026-01-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	// Moving only the end date before the existing start must fail.
	end := "2025-12-01"
	_, err = UpdateGoal(ctx, s, testUser, goal.ID, &GoalUpdateRequest{EndDate: &end})
	assert.ErrorIs(t, err, ErrDateRange)
}

func TestUpdateGoalClearsCategory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	catID := "c1"
	goal, err := CreateGoal(ctx, s, testUser, &GoalRequest{
		Title:      "Pass AWS SAA",
		StartDate:  "2026-01-01",
		EndDate:    "2026-03-31",
		CategoryID: &catID,
	})
	require.NoError(t, err)
	require.NotNil(t, goal.CategoryID)

	empty := ""
	updated, err := UpdateGoal(ctx, s, testUser, goal.ID, &GoalUpdateRequest{CategoryID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
}

func TestDeleteGoalCascades(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	goal, err := CreateGoal(ctx, s, testUser, &GoalRequest{
		Title:     "Pass AWS SAA",
		StartDate: "2026-01-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)
	_, err = CreateMilestone(ctx, s, s, testUser, goal.ID, &MilestoneRequest{Title: "Book exam", DueDate: "2026-02-01"})
	require.NoError(t, err)

	require.NoError(t, DeleteGoal(ctx, s, s, testUser, goal.ID))

	_, err = s.GetGoal(ctx, testUser.ID, goal.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	milestones, err := s.ListMilestones(ctx, goal.ID)
	require.NoError(t, err)
	assert.Empty(t, milestones)
}

func TestDeleteGoalUnknownID(t *testing.T) {
	s := newTestStorage(t)
	err := DeleteGoal(context.Background(), s, s, testUser, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
