package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// PreferencesPatch carries the settings to change. Nil fields are kept.
type PreferencesPatch struct {
	DefaultDuration *int
	DefaultPriority *string
	DefaultSorting  *string
	DefaultOrdering *string
}

// PreferencesService reads and updates per-account defaults.
type PreferencesService struct {
	base
}

func NewPreferencesService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *PreferencesService {
	return &PreferencesService{base: newBase(db, m, cfg, log, "preferences")}
}

// Get returns the owner's preferences. An account without a stored row gets
// the defaults.
func (s *PreferencesService) Get(ctx context.Context, ownerID string) (_ *models.Preferences, err error) {
	ctx, finish := s.start(ctx, "PreferencesService.Get")
	defer func() { finish(err) }()

	p, err := s.repomanager.Preferences(s.db).GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.DefaultPreferences(ownerID), nil
		}
		return nil, internalError(err)
	}
	return p, nil
}

// Update validates and stores patch. A missing row is created from the
// defaults first, but only while the owning account still exists.
func (s *PreferencesService) Update(ctx context.Context, ownerID string, patch PreferencesPatch) (_ *models.Preferences, err error) {
	ctx, finish := s.start(ctx, "PreferencesService.Update")
	defer func() { finish(err) }()

	repo := s.repomanager.Preferences(s.db)

	p, err := repo.GetByOwner(ctx, ownerID)
	missing := errors.Is(err, common.ErrNotFound)
	switch {
	case missing:
		p = models.DefaultPreferences(ownerID)
	case err != nil:
		return nil, internalError(err)
	}

	if err = applyPreferences(p, patch); err != nil {
		return nil, err
	}

	if missing {
		if err = s.ensureAccount(ctx, ownerID); err != nil {
			return nil, err
		}
		if p, err = repo.Create(ctx, p); err != nil {
			return nil, writeError(err)
		}
		return p, nil
	}
	if err = repo.Update(ctx, p); err != nil {
		return nil, internalError(err)
	}
	return p, nil
}

func (s *PreferencesService) ensureAccount(ctx context.Context, ownerID string) error {
	_, err := s.repomanager.Accounts(s.db).GetByID(ctx, ownerID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return common.ErrAccountGone
	case err != nil:
		return internalError(err)
	}
	return nil
}

func applyPreferences(p *models.Preferences, patch PreferencesPatch) error {
	if patch.DefaultDuration != nil {
		if *patch.DefaultDuration <= 0 {
			return fmt.Errorf("%w: default duration must be positive", common.ErrValidation)
		}
		p.DefaultDuration = *patch.DefaultDuration
	}
	if patch.DefaultPriority != nil {
		v, err := models.ParsePriority(*patch.DefaultPriority)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		p.DefaultPriority = v
	}
	if patch.DefaultSorting != nil {
		v, err := models.ParseSorting(*patch.DefaultSorting)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		p.DefaultSorting = v
	}
	if patch.DefaultOrdering != nil {
		v, err := models.ParseOrdering(*patch.DefaultOrdering)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		p.DefaultOrdering = v
	}
	return nil
}
