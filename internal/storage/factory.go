package storage

import (
	"fmt"
	"io"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/config"
)

// Repositories bundles the three repository views of a single backend.
type Repositories struct {
	Goals      GoalRepository
	Milestones MilestoneRepository
	Categories CategoryRepository
	closer     io.Closer
}

func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func NewRepositories(cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	switch cfg.StorageBackend {
	case "file":
		s, err := NewFileStorage(cfg.GoalsFile, cfg.MilestonesFile, cfg.CategoriesFile, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Goals: s, Milestones: s, Categories: s, closer: s}, nil
	case "sqlite":
		s, err := NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Goals: s, Milestones: s, Categories: s, closer: s}, nil
	case "postgres":
		s, err := NewPostgresStorage(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Goals: s, Milestones: s, Categories: s, closer: s}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
