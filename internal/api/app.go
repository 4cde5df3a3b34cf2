package api

import (
	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

type App interface {
	Logger() internal.Logger
	GoalRepo() storage.GoalRepository
	MilestoneRepo() storage.MilestoneRepository
	CategoryRepo() storage.CategoryRepository
}

type app struct {
	logger internal.Logger
	repos  *storage.Repositories
}

func NewApp(logger internal.Logger, repos *storage.Repositories) App {
	return &app{logger: logger, repos: repos}
}

func (a *app) Logger() internal.Logger                    { return a.logger }
func (a *app) GoalRepo() storage.GoalRepository           { return a.repos.Goals }
func (a *app) MilestoneRepo() storage.MilestoneRepository { return a.repos.Milestones }
func (a *app) CategoryRepo() storage.CategoryRepository   { return a.repos.Categories }
