package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/preferences"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// -------- helpers --------

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.BcryptCost = 4
	return cfg
}

var nopLogger = logging.Nop()

// -------- in-memory repositories --------

type fakeAccountsRepo struct {
	mu       sync.Mutex
	byID     map[string]*models.Account
	err      error
	consumes int
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if existing.Email == a.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	a.ID = uuid.NewString()
	cp := *a
	f.byID[a.ID] = &cp
	return a, nil
}

func (f *fakeAccountsRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountsRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountsRepo) GetByResetToken(_ context.Context, token string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.byID {
		if a.Reset != nil && a.Reset.Token == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeAccountsRepo) SetResetTicket(_ context.Context, email string, ticket *models.ResetTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, a := range f.byID {
		if a.Email == email {
			a.Reset = ticket
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeAccountsRepo) ConsumeResetTicket(_ context.Context, token, hash string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumes++
	if f.err != nil {
		return f.err
	}
	for _, a := range f.byID {
		if a.Reset != nil && a.Reset.Token == token && a.Reset.ExpiresAt.After(now) {
			a.PasswordHash = hash
			a.Reset = nil
			return nil
		}
	}
	return common.ErrInvalidOrExpired
}

func (f *fakeAccountsRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// ownerCheck emulates the owner_id foreign key. A nil check accepts any owner.
type ownerCheck func(owner string) bool

func (c ownerCheck) allows(owner string) bool { return c == nil || c(owner) }

type fakeTasksRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Task
	err    error
	owners ownerCheck
}

func (f *fakeTasksRepo) owned(owner, id string) (*models.Task, bool) {
	t, ok := f.byID[id]
	if !ok || t.OwnerID != owner {
		return nil, false
	}
	return t, true
}

func (f *fakeTasksRepo) filter(owner string, keep func(*models.Task) bool) []*models.Task {
	out := []*models.Task{}
	for _, t := range f.byID {
		if t.OwnerID == owner && keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeTasksRepo) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if !f.owners.allows(t.OwnerID) {
		return nil, common.ErrAccountGone
	}
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	cp := *t
	f.byID[t.ID] = &cp
	return t, nil
}

func (f *fakeTasksRepo) Get(_ context.Context, owner, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.owned(owner, id)
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasksRepo) List(_ context.Context, owner string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(owner, func(*models.Task) bool { return true }), nil
}

func (f *fakeTasksRepo) ListActive(_ context.Context, owner string, now time.Time) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(owner, func(t *models.Task) bool { return !t.Deferred(now) }), nil
}

func (f *fakeTasksRepo) ListDeferred(_ context.Context, owner string, now time.Time) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(owner, func(t *models.Task) bool { return t.Deferred(now) }), nil
}

func (f *fakeTasksRepo) CountDeferred(ctx context.Context, owner string, now time.Time) (int, error) {
	list, err := f.ListDeferred(ctx, owner, now)
	return len(list), err
}

func (f *fakeTasksRepo) Update(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.owned(t.OwnerID, t.ID); !ok {
		return common.ErrNotFound
	}
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTasksRepo) SetDeferredUntil(_ context.Context, owner, id string, until *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	t, ok := f.owned(owner, id)
	if !ok {
		return common.ErrNotFound
	}
	t.DeferredUntil = until
	return nil
}

func (f *fakeTasksRepo) Delete(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.owned(owner, id); !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTasksRepo) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, t := range f.byID {
		if t.OwnerID == owner {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeProjectsRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Project
	err    error
	owners ownerCheck
}

func (f *fakeProjectsRepo) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if !f.owners.allows(p.OwnerID) {
		return nil, common.ErrAccountGone
	}
	p.ID = uuid.NewString()
	cp := *p
	f.byID[p.ID] = &cp
	return p, nil
}

func (f *fakeProjectsRepo) Get(_ context.Context, owner, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok || p.OwnerID != owner {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectsRepo) List(_ context.Context, owner string) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Project{}
	for _, p := range f.byID {
		if p.OwnerID == owner {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProjectsRepo) Update(_ context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	old, ok := f.byID[p.ID]
	if !ok || old.OwnerID != p.OwnerID {
		return common.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProjectsRepo) Delete(_ context.Context, owner, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.byID[id]
	if !ok || p.OwnerID != owner {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProjectsRepo) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, p := range f.byID {
		if p.OwnerID == owner {
			delete(f.byID, id)
			n++
		}
	}
	return n, f.err
}

type fakePreferencesRepo struct {
	mu      sync.Mutex
	byOwner map[string]*models.Preferences
	err     error
	owners  ownerCheck
}

func (f *fakePreferencesRepo) Create(_ context.Context, p *models.Preferences) (*models.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byOwner[p.OwnerID]; ok {
		return nil, common.ErrConflict
	}
	if !f.owners.allows(p.OwnerID) {
		return nil, common.ErrAccountGone
	}
	p.ID = uuid.NewString()
	cp := *p
	f.byOwner[p.OwnerID] = &cp
	return p, nil
}

func (f *fakePreferencesRepo) GetByOwner(_ context.Context, owner string) (*models.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byOwner[owner]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePreferencesRepo) Update(_ context.Context, p *models.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byOwner[p.OwnerID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	f.byOwner[p.OwnerID] = &cp
	return nil
}

func (f *fakePreferencesRepo) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byOwner[owner]; !ok {
		return 0, f.err
	}
	delete(f.byOwner, owner)
	return 1, f.err
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	a  *fakeAccountsRepo
	t  *fakeTasksRepo
	p  *fakeProjectsRepo
	pr *fakePreferencesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		a:  &fakeAccountsRepo{byID: map[string]*models.Account{}},
		t:  &fakeTasksRepo{byID: map[string]*models.Task{}},
		p:  &fakeProjectsRepo{byID: map[string]*models.Project{}},
		pr: &fakePreferencesRepo{byOwner: map[string]*models.Preferences{}},
	}
}

// enforceOwners makes task, project and preferences inserts fail for owners
// missing from the accounts fake, like the owner_id foreign keys do.
func (m *fakeRepoManager) enforceOwners() *fakeRepoManager {
	check := func(owner string) bool {
		m.a.mu.Lock()
		defer m.a.mu.Unlock()
		_, ok := m.a.byID[owner]
		return ok
	}
	m.t.owners = check
	m.p.owners = check
	m.pr.owners = check
	return m
}

func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return m.a }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository             { return m.t }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository       { return m.p }
func (m *fakeRepoManager) Preferences(dbx.DBTX) preferences.Repository { return m.pr }
