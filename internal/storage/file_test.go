package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

func newTestFileStorage(t *testing.T) *FileStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStorage(
		filepath.Join(dir, "goals.json"),
		filepath.Join(dir, "milestones.json"),
		filepath.Join(dir, "categories.json"),
		internal.NopLogger{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testGoal(id, userID string) *internal.Goal {
	now := time.Now().UTC()
	return &internal.Goal{
		ID:        id,
		UserID:    userID,
		Title:     "Learn Go",
		StartDate: now,
		EndDate:   now.AddDate(0, 3, 0),
		Status:    internal.GoalNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testMilestone(id, goalID string, order int) *internal.Milestone {
	now := time.Now().UTC()
	return &internal.Milestone{
		ID:        id,
		GoalID:    goalID,
		Title:     "milestone " + id,
		DueDate:   now.AddDate(0, 1, 0),
		Status:    internal.MilestonePending,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFileGoalCRUD(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))

	got, err := s.GetGoal(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "Learn Go", got.Title)

	got.Title = "Learn Go well"
	got.Status = internal.GoalInProgress
	require.NoError(t, s.UpdateGoal(ctx, got))

	got, err = s.GetGoal(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "Learn Go well", got.Title)
	assert.Equal(t, internal.GoalInProgress, got.Status)

	require.NoError(t, s.DeleteGoal(ctx, "u1", "g1"))
	_, err = s.GetGoal(ctx, "u1", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileGoalOwnership(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))

	_, err := s.GetGoal(ctx, "u2", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteGoal(ctx, "u2", "g1"), ErrNotFound)

	goals, err := s.ListGoals(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestFileListGoalsSortedByCreation(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	for i, id := range []string{"g1", "g2", "g3"} {
		g := testGoal(id, "u1")
		g.CreatedAt = g.CreatedAt.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.CreateGoal(ctx, g))
	}

	goals, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, "g1", goals[0].ID)
	assert.Equal(t, "g3", goals[2].ID)
}

func TestFileMilestonesListedByOrder(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m2", "g1", 2)))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m1", "g1", 1)))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m3", "g1", 3)))

	milestones, err := s.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, milestones, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{milestones[0].ID, milestones[1].ID, milestones[2].ID})
}

func TestFileReorderMilestones(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))
	for i, id := range []string{"m1", "m2", "m3", "m4"} {
		require.NoError(t, s.CreateMilestone(ctx, testMilestone(id, "g1", i+1)))
	}

	perm := []string{"m3", "m1", "m4", "m2"}
	reordered, err := s.ReorderMilestones(ctx, "g1", perm)
	require.NoError(t, err)

	// Reading back in ascending order yields the submitted sequence exactly.
	milestones, err := s.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, milestones, 4)
	for i, m := range milestones {
		assert.Equal(t, perm[i], m.ID)
		assert.Equal(t, i+1, m.Order) // dense, no gaps or duplicates
	}
	assert.Equal(t, milestones, reordered)
}

func TestFileReorderMismatch(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m1", "g1", 1)))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m2", "g1", 2)))

	cases := map[string][]string{
		"unknown id":   {"m1", "mX"},
		"missing id":   {"m1"},
		"duplicate id": {"m1", "m1"},
		"extra id":     {"m1", "m2", "m3"},
	}
	for name, ids := range cases {
		_, err := s.ReorderMilestones(ctx, "g1", ids)
		assert.ErrorIs(t, err, ErrOrderMismatch, name)
	}

	// A failed reorder leaves the sequence untouched.
	milestones, err := s.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "m1", milestones[0].ID)
	assert.Equal(t, "m2", milestones[1].ID)
}

func TestFileCascadeDelete(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m1", "g1", 1)))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m2", "g1", 2)))

	removed, err := s.DeleteMilestonesByGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	require.NoError(t, s.DeleteGoal(ctx, "u1", "g1"))

	milestones, err := s.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, milestones)
	_, err = s.GetMilestone(ctx, "g1", "m1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileCategoryDetach(t *testing.T) {
	s := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, &internal.Category{
		ID: "c1", UserID: "u1", Name: "AWS", Color: "#FF9900", CreatedAt: time.Now().UTC(),
	}))
	catID := "c1"
	g := testGoal("g1", "u1")
	g.CategoryID = &catID
	require.NoError(t, s.CreateGoal(ctx, g))

	require.NoError(t, s.DetachCategory(ctx, "u1", "c1"))
	require.NoError(t, s.DeleteCategory(ctx, "u1", "c1"))

	got, err := s.GetGoal(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	categories, err := s.ListCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestFilePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	goalsFile := filepath.Join(dir, "goals.json")
	milestonesFile := filepath.Join(dir, "milestones.json")
	categoriesFile := filepath.Join(dir, "categories.json")
	ctx := context.Background()

	s, err := NewFileStorage(goalsFile, milestonesFile, categoriesFile, internal.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, s.CreateGoal(ctx, testGoal("g1", "u1")))
	require.NoError(t, s.CreateMilestone(ctx, testMilestone("m1", "g1", 1)))
	require.NoError(t, s.Close())

	reopened, err := NewFileStorage(goalsFile, milestonesFile, categoriesFile, internal.NopLogger{})
	require.NoError(t, err)
	defer reopened.Close()

	goals, err := reopened.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	milestones, err := reopened.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, "m1", milestones[0].ID)
}
