package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// SnoozeDuration is how far a task is pushed back.
type SnoozeDuration string

const (
	SnoozeDay   SnoozeDuration = "day"
	SnoozeWeek  SnoozeDuration = "week"
	SnoozeMonth SnoozeDuration = "month"
)

// ParseSnoozeDuration accepts "day", "week" or "month".
func ParseSnoozeDuration(s string) (SnoozeDuration, error) {
	switch d := SnoozeDuration(strings.ToLower(strings.TrimSpace(s))); d {
	case SnoozeDay, SnoozeWeek, SnoozeMonth:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown snooze duration %q", common.ErrValidation, s)
}

// DeferredUntil returns now advanced by d using calendar arithmetic in now's
// location. Time of day is kept. A month moves to the same day of the next
// month, or to that month's last day when it is shorter: 2024-01-31 becomes
// 2024-02-29.
func DeferredUntil(now time.Time, d SnoozeDuration) time.Time {
	switch d {
	case SnoozeDay:
		return now.AddDate(0, 0, 1)
	case SnoozeWeek:
		return now.AddDate(0, 0, 7)
	case SnoozeMonth:
		y, m, day := now.Date()
		if last := daysIn(y, m+1, now.Location()); day > last {
			day = last
		}
		return time.Date(y, m+1, day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	}
	return now
}

// daysIn reports the number of days in month m of year y. m may overflow
// into the following year.
func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// SnoozeService defers tasks and answers which tasks are active or deferred.
// Deferral ends by itself: a task is active again as soon as its
// deferred_until is not after the service clock.
type SnoozeService struct {
	base
	loc *time.Location
}

func NewSnoozeService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *SnoozeService {
	return &SnoozeService{
		base: newBase(db, m, cfg, log, "snooze"),
		loc:  cfg.Location(),
	}
}

// WithClock replaces the service time source. Used by tests.
func (s *SnoozeService) WithClock(now func() time.Time) *SnoozeService {
	s.now = now
	return s
}

// Snooze defers taskID by d from now, replacing any earlier deferral, and
// returns the new deferral end in UTC.
func (s *SnoozeService) Snooze(ctx context.Context, ownerID, taskID string, d SnoozeDuration) (_ time.Time, err error) {
	ctx, finish := s.start(ctx, "SnoozeService.Snooze")
	defer func() { finish(err) }()

	if _, err = ParseSnoozeDuration(string(d)); err != nil {
		return time.Time{}, err
	}
	if !validID(taskID) {
		return time.Time{}, common.ErrNotFound
	}

	until := DeferredUntil(s.now().In(s.loc), d).UTC()
	if err = s.setDeferral(ctx, ownerID, taskID, &until); err != nil {
		return time.Time{}, err
	}

	s.log.Debug(ctx, "task snoozed", "task_id", taskID, "until", until)
	return until, nil
}

// Unsnooze clears any deferral on taskID. Clearing an active task succeeds.
func (s *SnoozeService) Unsnooze(ctx context.Context, ownerID, taskID string) (err error) {
	ctx, finish := s.start(ctx, "SnoozeService.Unsnooze")
	defer func() { finish(err) }()

	if !validID(taskID) {
		return common.ErrNotFound
	}
	return s.setDeferral(ctx, ownerID, taskID, nil)
}

func (s *SnoozeService) setDeferral(ctx context.Context, ownerID, taskID string, until *time.Time) error {
	err := s.repomanager.Tasks(s.db).SetDeferredUntil(ctx, ownerID, taskID, until)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return internalError(err)
	}
	return nil
}

// ListActive returns the owner's tasks that are not deferred at this moment.
func (s *SnoozeService) ListActive(ctx context.Context, ownerID string) (_ []*models.Task, err error) {
	ctx, finish := s.start(ctx, "SnoozeService.ListActive")
	defer func() { finish(err) }()

	list, err := s.repomanager.Tasks(s.db).ListActive(ctx, ownerID, s.now())
	if err != nil {
		return nil, internalError(err)
	}
	return list, nil
}

// ListDeferred returns the owner's tasks still deferred at this moment.
func (s *SnoozeService) ListDeferred(ctx context.Context, ownerID string) (_ []*models.Task, err error) {
	ctx, finish := s.start(ctx, "SnoozeService.ListDeferred")
	defer func() { finish(err) }()

	list, err := s.repomanager.Tasks(s.db).ListDeferred(ctx, ownerID, s.now())
	if err != nil {
		return nil, internalError(err)
	}
	return list, nil
}

// CountDeferred counts the tasks ListDeferred would return.
func (s *SnoozeService) CountDeferred(ctx context.Context, ownerID string) (_ int, err error) {
	ctx, finish := s.start(ctx, "SnoozeService.CountDeferred")
	defer func() { finish(err) }()

	n, err := s.repomanager.Tasks(s.db).CountDeferred(ctx, ownerID, s.now())
	if err != nil {
		return 0, internalError(err)
	}
	return n, nil
}
