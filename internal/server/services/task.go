package services

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// TaskInput carries the fields of a new task. Nil fields take the owner's
// preferences.
type TaskInput struct {
	Title           string
	DurationMinutes *int
	Priority        *string
	ProjectID       *string
}

// TaskPatch carries the fields to change on an existing task. A ProjectID
// pointing at "" detaches the task from its project.
type TaskPatch struct {
	Title           *string
	DurationMinutes *int
	Priority        *string
	ProjectID       *string
}

// TaskService implements task CRUD, scoped to the owning account.
type TaskService struct {
	base
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *TaskService {
	return &TaskService{base: newBase(db, m, cfg, log, "tasks")}
}

// WithClock replaces the service time source. Used by tests.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// Create adds a task for ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (_ *models.Task, err error) {
	ctx, finish := s.start(ctx, "TaskService.Create")
	defer func() { finish(err) }()

	prefs, err := s.preferences(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		OwnerID:         ownerID,
		Title:           strings.TrimSpace(in.Title),
		Priority:        prefs.DefaultPriority,
		DurationMinutes: prefs.DefaultDuration,
	}
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if err = s.apply(ctx, task, TaskPatch{DurationMinutes: in.DurationMinutes, Priority: in.Priority, ProjectID: in.ProjectID}); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, writeError(err)
	}
	return created, nil
}

// List returns the owner's active tasks, or every task when includeAll is
// set, ordered by the owner's sorting preferences.
func (s *TaskService) List(ctx context.Context, ownerID string, includeAll bool) (_ []*models.Task, err error) {
	ctx, finish := s.start(ctx, "TaskService.List")
	defer func() { finish(err) }()

	prefs, err := s.preferences(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Tasks(s.db)
	var list []*models.Task
	if includeAll {
		list, err = repo.List(ctx, ownerID)
	} else {
		list, err = repo.ListActive(ctx, ownerID, s.now())
	}
	if err != nil {
		return nil, internalError(err)
	}

	SortTasks(list, prefs.DefaultSorting, prefs.DefaultOrdering)
	return list, nil
}

// Update applies patch to the owner's task id.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch TaskPatch) (_ *models.Task, err error) {
	ctx, finish := s.start(ctx, "TaskService.Update")
	defer func() { finish(err) }()

	if !validID(id) {
		return nil, common.ErrNotFound
	}

	repo := s.repomanager.Tasks(s.db)
	task, err := repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, internalError(err)
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
		if task.Title == "" {
			return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
		}
	}
	if err = s.apply(ctx, task, patch); err != nil {
		return nil, err
	}

	if err = repo.Update(ctx, task); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, internalError(err)
	}
	return task, nil
}

// Delete removes the owner's task id.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (err error) {
	ctx, finish := s.start(ctx, "TaskService.Delete")
	defer func() { finish(err) }()

	if !validID(id) {
		return common.ErrNotFound
	}
	if err = s.repomanager.Tasks(s.db).Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return internalError(err)
	}
	return nil
}

// apply validates and copies duration, priority and project from patch.
func (s *TaskService) apply(ctx context.Context, task *models.Task, patch TaskPatch) error {
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes <= 0 {
			return fmt.Errorf("%w: duration must be positive", common.ErrValidation)
		}
		task.DurationMinutes = *patch.DurationMinutes
	}

	if patch.Priority != nil {
		p, err := models.ParsePriority(*patch.Priority)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		task.Priority = p
	}

	if patch.ProjectID != nil {
		id := strings.TrimSpace(*patch.ProjectID)
		if id == "" {
			task.ProjectID = nil
			return nil
		}
		if !validID(id) {
			return fmt.Errorf("%w: unknown project", common.ErrValidation)
		}
		if _, err := s.repomanager.Projects(s.db).Get(ctx, task.OwnerID, id); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: unknown project", common.ErrValidation)
			}
			return internalError(err)
		}
		task.ProjectID = &id
	}

	return nil
}

func (s *TaskService) preferences(ctx context.Context, ownerID string) (*models.Preferences, error) {
	prefs, err := s.repomanager.Preferences(s.db).GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.DefaultPreferences(ownerID), nil
		}
		return nil, internalError(err)
	}
	return prefs, nil
}

var priorityRank = map[models.Priority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
}

// SortTasks orders list in place by key and direction. Ties keep their
// creation order.
func SortTasks(list []*models.Task, key models.Sorting, order models.Ordering) {
	compare := func(a, b *models.Task) int {
		switch key {
		case models.SortByTime:
			return cmp.Compare(a.DurationMinutes, b.DurationMinutes)
		case models.SortByAge:
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return cmp.Compare(priorityRank[a.Priority], priorityRank[b.Priority])
		}
	}

	slices.SortStableFunc(list, func(a, b *models.Task) int {
		if order == models.OrderDescending {
			return compare(b, a)
		}
		return compare(a, b)
	})
}
