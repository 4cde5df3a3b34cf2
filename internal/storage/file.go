package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

// FileStorage keeps everything in memory and persists each collection to its
// own JSON file through a debounced save worker. Writes are atomic
// (tmp file + rename), so a crash never leaves a half-written file behind.
type FileStorage struct {
	goals          map[string]*internal.Goal
	userGoalIndex  map[string][]*internal.Goal      // userID -> goals sorted by CreatedAt ascending
	milestones     map[string]*internal.Milestone
	milestoneIndex map[string][]*internal.Milestone // goalID -> milestones sorted by Order ascending
	categories     map[string]*internal.Category

	mu sync.RWMutex

	goalsFile      string
	milestonesFile string
	categoriesFile string

	saveGoalsChan      chan struct{}
	saveMilestonesChan chan struct{}
	saveCategoriesChan chan struct{}
	shutdownChan       chan struct{}
	saveDelay          time.Duration

	logger internal.Logger
}

func NewFileStorage(goalsFile, milestonesFile, categoriesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		goals:          make(map[string]*internal.Goal),
		userGoalIndex:  make(map[string][]*internal.Goal),
		milestones:     make(map[string]*internal.Milestone),
		milestoneIndex: make(map[string][]*internal.Milestone),
		categories:     make(map[string]*internal.Category),

		goalsFile:      goalsFile,
		milestonesFile: milestonesFile,
		categoriesFile: categoriesFile,

		saveGoalsChan:      make(chan struct{}, 1),
		saveMilestonesChan: make(chan struct{}, 1),
		saveCategoriesChan: make(chan struct{}, 1),
		shutdownChan:       make(chan struct{}),
		saveDelay:          500 * time.Millisecond,

		logger: logger,
	}

	if err := s.loadGoals(); err != nil {
		logger.Errorf("storage: failed to load goals: %v", err)
		return nil, err
	}
	if err := s.loadMilestones(); err != nil {
		logger.Errorf("storage: failed to load milestones: %v", err)
		return nil, err
	}
	if err := s.loadCategories(); err != nil {
		logger.Errorf("storage: failed to load categories: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveGoalsChan, "goals", s.saveGoals)
	go s.saveWorker(s.saveMilestonesChan, "milestones", s.saveMilestones)
	go s.saveWorker(s.saveCategoriesChan, "categories", s.saveCategories)

	return s, nil
}

func decodeJSONFile[T any](path string) ([]*T, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var items []*T
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}

func (s *FileStorage) loadGoals() error {
	goals, err := decodeJSONFile[internal.Goal](s.goalsFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range goals {
		s.goals[g.ID] = g
		s.userGoalIndex[g.UserID] = append(s.userGoalIndex[g.UserID], g)
	}
	for userID := range s.userGoalIndex {
		sort.SliceStable(s.userGoalIndex[userID], func(i, j int) bool {
			return s.userGoalIndex[userID][i].CreatedAt.Before(s.userGoalIndex[userID][j].CreatedAt)
		})
	}
	return nil
}

func (s *FileStorage) loadMilestones() error {
	milestones, err := decodeJSONFile[internal.Milestone](s.milestonesFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range milestones {
		s.milestones[m.ID] = m
		s.milestoneIndex[m.GoalID] = append(s.milestoneIndex[m.GoalID], m)
	}
	for goalID := range s.milestoneIndex {
		sort.SliceStable(s.milestoneIndex[goalID], func(i, j int) bool {
			return s.milestoneIndex[goalID][i].Order < s.milestoneIndex[goalID][j].Order
		})
	}
	return nil
}

func (s *FileStorage) loadCategories() error {
	categories, err := decodeJSONFile[internal.Category](s.categoriesFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		s.categories[c.ID] = c
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveGoals() error {
	s.mu.RLock()
	goals := make([]*internal.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		goals = append(goals, g)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.goalsFile, goals)
}

func (s *FileStorage) saveMilestones() error {
	s.mu.RLock()
	milestones := make([]*internal.Milestone, 0, len(s.milestones))
	for _, m := range s.milestones {
		milestones = append(milestones, m)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.milestonesFile, milestones)
}

func (s *FileStorage) saveCategories() error {
	s.mu.RLock()
	categories := make([]*internal.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.categoriesFile, categories)
}

// saveWorker batches save signals to avoid a disk write per mutation.
func (s *FileStorage) saveWorker(signal <-chan struct{}, name string, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", name, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	if err := s.saveGoals(); err != nil {
		return err
	}
	if err := s.saveMilestones(); err != nil {
		return err
	}
	return s.saveCategories()
}

// --- GoalRepository ---

func (s *FileStorage) CreateGoal(ctx context.Context, goal *internal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := *goal
	s.goals[g.ID] = &g
	s.userGoalIndex[g.UserID] = append(s.userGoalIndex[g.UserID], &g)
	s.signal(s.saveGoalsChan)
	return nil
}

func (s *FileStorage) GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	out := *g
	return &out, nil
}

func (s *FileStorage) ListGoals(ctx context.Context, userID string) ([]internal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goalsPtr, ok := s.userGoalIndex[userID]
	if !ok {
		return []internal.Goal{}, nil
	}
	goals := make([]internal.Goal, len(goalsPtr))
	for i, g := range goalsPtr {
		goals[i] = *g
	}
	return goals, nil
}

func (s *FileStorage) UpdateGoal(ctx context.Context, goal *internal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.goals[goal.ID]
	if !ok || existing.UserID != goal.UserID {
		return ErrNotFound
	}
	*existing = *goal
	s.signal(s.saveGoalsChan)
	return nil
}

func (s *FileStorage) DeleteGoal(ctx context.Context, userID, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return ErrNotFound
	}
	delete(s.goals, goalID)
	s.userGoalIndex[userID] = removeByID(s.userGoalIndex[userID], func(x *internal.Goal) bool { return x.ID == goalID })
	s.signal(s.saveGoalsChan)
	return nil
}

func (s *FileStorage) DetachCategory(ctx context.Context, userID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.userGoalIndex[userID] {
		if g.CategoryID != nil && *g.CategoryID == categoryID {
			g.CategoryID = nil
		}
	}
	s.signal(s.saveGoalsChan)
	return nil
}

// --- MilestoneRepository ---

func (s *FileStorage) CreateMilestone(ctx context.Context, m *internal.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.milestones[cp.ID] = &cp
	s.milestoneIndex[cp.GoalID] = append(s.milestoneIndex[cp.GoalID], &cp)
	sort.SliceStable(s.milestoneIndex[cp.GoalID], func(i, j int) bool {
		return s.milestoneIndex[cp.GoalID][i].Order < s.milestoneIndex[cp.GoalID][j].Order
	})
	s.signal(s.saveMilestonesChan)
	return nil
}

func (s *FileStorage) GetMilestone(ctx context.Context, goalID, milestoneID string) (*internal.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.milestones[milestoneID]
	if !ok || m.GoalID != goalID {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *FileStorage) ListMilestones(ctx context.Context, goalID string) ([]internal.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msPtr, ok := s.milestoneIndex[goalID]
	if !ok {
		return []internal.Milestone{}, nil
	}
	milestones := make([]internal.Milestone, len(msPtr))
	for i, m := range msPtr {
		milestones[i] = *m
	}
	return milestones, nil
}

func (s *FileStorage) UpdateMilestone(ctx context.Context, m *internal.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.milestones[m.ID]
	if !ok || existing.GoalID != m.GoalID {
		return ErrNotFound
	}
	*existing = *m
	sort.SliceStable(s.milestoneIndex[m.GoalID], func(i, j int) bool {
		return s.milestoneIndex[m.GoalID][i].Order < s.milestoneIndex[m.GoalID][j].Order
	})
	s.signal(s.saveMilestonesChan)
	return nil
}

func (s *FileStorage) DeleteMilestone(ctx context.Context, goalID, milestoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[milestoneID]
	if !ok || m.GoalID != goalID {
		return ErrNotFound
	}
	delete(s.milestones, milestoneID)
	s.milestoneIndex[goalID] = removeByID(s.milestoneIndex[goalID], func(x *internal.Milestone) bool { return x.ID == milestoneID })
	s.signal(s.saveMilestonesChan)
	return nil
}

func (s *FileStorage) DeleteMilestonesByGoal(ctx context.Context, goalID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.milestoneIndex[goalID])
	for _, m := range s.milestoneIndex[goalID] {
		delete(s.milestones, m.ID)
	}
	delete(s.milestoneIndex, goalID)
	s.signal(s.saveMilestonesChan)
	return removed, nil
}

func (s *FileStorage) ReorderMilestones(ctx context.Context, goalID string, orderedIDs []string) ([]internal.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.milestoneIndex[goalID]
	if err := checkPermutation(current, orderedIDs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	byID := make(map[string]*internal.Milestone, len(current))
	for _, m := range current {
		byID[m.ID] = m
	}
	reordered := make([]*internal.Milestone, 0, len(orderedIDs))
	out := make([]internal.Milestone, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		m := byID[id]
		m.Order = i + 1
		m.UpdatedAt = now
		reordered = append(reordered, m)
		out = append(out, *m)
	}
	s.milestoneIndex[goalID] = reordered
	s.signal(s.saveMilestonesChan)
	return out, nil
}

// checkPermutation verifies orderedIDs is exactly the current milestone id
// set: same size, no duplicates, no unknown ids.
func checkPermutation(current []*internal.Milestone, orderedIDs []string) error {
	if len(orderedIDs) != len(current) {
		return ErrOrderMismatch
	}
	known := make(map[string]bool, len(current))
	for _, m := range current {
		known[m.ID] = true
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

// --- CategoryRepository ---

func (s *FileStorage) CreateCategory(ctx context.Context, c *internal.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.categories[cp.ID] = &cp
	s.signal(s.saveCategoriesChan)
	return nil
}

func (s *FileStorage) ListCategories(ctx context.Context, userID string) ([]internal.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []internal.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			categories = append(categories, *c)
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].CreatedAt.Before(categories[j].CreatedAt)
	})
	if categories == nil {
		categories = []internal.Category{}
	}
	return categories, nil
}

func (s *FileStorage) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[categoryID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.categories, categoryID)
	s.signal(s.saveCategoriesChan)
	return nil
}

func removeByID[T any](items []*T, match func(*T) bool) []*T {
	for i, item := range items {
		if match(item) {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

// --- Compile-time assertions ---
var _ GoalRepository = (*FileStorage)(nil)
var _ MilestoneRepository = (*FileStorage)(nil)
var _ CategoryRepository = (*FileStorage)(nil)
