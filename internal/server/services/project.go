package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// ProjectService implements project CRUD, scoped to the owning account.
type ProjectService struct {
	base
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *ProjectService {
	return &ProjectService{base: newBase(db, m, cfg, log, "projects")}
}

func (s *ProjectService) Create(ctx context.Context, ownerID, name string, description *string) (_ *models.Project, err error) {
	ctx, finish := s.start(ctx, "ProjectService.Create")
	defer func() { finish(err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{OwnerID: ownerID, Name: name, Description: description})
	if err != nil {
		return nil, writeError(err)
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, ownerID string) (_ []*models.Project, err error) {
	ctx, finish := s.start(ctx, "ProjectService.List")
	defer func() { finish(err) }()

	list, err := s.repomanager.Projects(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, internalError(err)
	}
	return list, nil
}

// Update renames a project and/or replaces its description. Nil fields are
// left unchanged.
func (s *ProjectService) Update(ctx context.Context, ownerID, id string, name, description *string) (_ *models.Project, err error) {
	ctx, finish := s.start(ctx, "ProjectService.Update")
	defer func() { finish(err) }()

	if !validID(id) {
		return nil, common.ErrNotFound
	}

	repo := s.repomanager.Projects(s.db)
	p, err := repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, internalError(err)
	}

	if name != nil {
		p.Name = strings.TrimSpace(*name)
		if p.Name == "" {
			return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
		}
	}
	if description != nil {
		p.Description = description
	}

	if err = repo.Update(ctx, p); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, internalError(err)
	}
	return p, nil
}

// Delete removes a project. Its tasks keep the now dangling reference.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) (err error) {
	ctx, finish := s.start(ctx, "ProjectService.Delete")
	defer func() { finish(err) }()

	if !validID(id) {
		return common.ErrNotFound
	}
	if err = s.repomanager.Projects(s.db).Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return internalError(err)
	}
	return nil
}
