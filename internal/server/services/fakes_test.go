package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/activations"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/guests"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// plainHasher keeps tests fast; bcrypt is covered in cryptox.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("hash: empty")
	}
	return "hashed:" + p, nil
}
func (plainHasher) Compare(p, h string) bool { return h == "hashed:"+p }

var seq int

func nextID() string {
	seq++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
}

// --- users ---

type fakeUsersRepo struct {
	byID map[string]*models.User
	err  error

	ranked      []models.RankedUser
	rankTotal   int
	lastRanking models.RankingQuery
}

func newFakeUsersRepo() *fakeUsersRepo { return &fakeUsersRepo{byID: map[string]*models.User{}} }

func (f *fakeUsersRepo) put(u models.User) *models.User {
	if u.ID == "" {
		u.ID = nextID()
	}
	c := u
	f.byID[u.ID] = &c
	return &c
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := *u
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	return f.put(c), nil
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}
func (f *fakeUsersRepo) FindByUsername(_ context.Context, name string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Username, name) })
}
func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}
func (f *fakeUsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}
func (f *fakeUsersRepo) UsernameExists(ctx context.Context, name string) (bool, error) {
	_, err := f.FindByUsername(ctx, name)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}
func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	cur, ok := f.byID[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cur.Username, cur.Email, cur.Password = u.Username, u.Email, u.Password
	c := *cur
	return &c, nil
}
func (f *fakeUsersRepo) SetFeatures(_ context.Context, id string, features []string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cur.Features = features
	c := *cur
	return &c, nil
}
func (f *fakeUsersRepo) UpdateGamification(_ context.Context, id string, st *models.GamificationState) (*models.User, error) {
	cur, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cur.Points, cur.Forests = st.Points, st.Forests
	cur.ReadingProgress, cur.LastInsight, cur.LastInsightReference = st.ReadingProgress, st.LastInsight, st.LastInsightReference
	cur.LastSyncAt = st.LastSyncAt
	c := *cur
	return &c, nil
}
func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeUsersRepo) ListByPoints(_ context.Context, limit, offset int) ([]models.RankedUser, error) {
	f.lastRanking = models.RankingQuery{Limit: limit, Offset: offset}
	return f.ranked, f.err
}
func (f *fakeUsersRepo) CountWithPoints(context.Context) (int, error) { return f.rankTotal, f.err }
func (f *fakeUsersRepo) ListByPeriodPoints(_ context.Context, q models.RankingQuery) ([]models.RankedUser, error) {
	f.lastRanking = q
	return f.ranked, f.err
}
func (f *fakeUsersRepo) CountWithPeriodPoints(context.Context, models.RankingQuery) (int, error) {
	return f.rankTotal, f.err
}

// --- sessions ---

type fakeSessionsRepo struct {
	byToken    map[string]*models.Session
	deletedFor []string
	err        error
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{byToken: map[string]*models.Session{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, userID, token string, exp time.Time) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &models.Session{ID: nextID(), Token: token, UserID: userID, ExpiresAt: exp}
	f.byToken[token] = s
	c := *s
	return &c, nil
}
func (f *fakeSessionsRepo) FindValidByToken(_ context.Context, token string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byToken[token]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}
func (f *fakeSessionsRepo) Renew(_ context.Context, id string, exp time.Time) (*models.Session, error) {
	for _, s := range f.byToken {
		if s.ID == id {
			s.ExpiresAt = exp
			c := *s
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}
func (f *fakeSessionsRepo) DeleteByToken(_ context.Context, token string) (*models.Session, error) {
	s, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.byToken, token)
	return s, nil
}
func (f *fakeSessionsRepo) DeleteByUserID(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedFor = append(f.deletedFor, userID)
	for k, s := range f.byToken {
		if s.UserID == userID {
			delete(f.byToken, k)
		}
	}
	return nil
}

// --- activations ---

type fakeActivationsRepo struct {
	byToken    map[string]*models.ActivationToken
	deletedFor []string
	markErr    error
}

func newFakeActivationsRepo() *fakeActivationsRepo {
	return &fakeActivationsRepo{byToken: map[string]*models.ActivationToken{}}
}

func (f *fakeActivationsRepo) Create(_ context.Context, userID, token string, exp time.Time) (*models.ActivationToken, error) {
	t := &models.ActivationToken{ID: nextID(), Token: token, UserID: userID, ExpiresAt: exp}
	f.byToken[token] = t
	c := *t
	return &c, nil
}
func (f *fakeActivationsRepo) FindValidByToken(_ context.Context, token string) (*models.ActivationToken, error) {
	t, ok := f.byToken[token]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(time.Now()) {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}
func (f *fakeActivationsRepo) MarkUsed(_ context.Context, id string) (*models.ActivationToken, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	for _, t := range f.byToken {
		if t.ID == id {
			now := time.Now()
			t.UsedAt = &now
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}
func (f *fakeActivationsRepo) DeleteByUserID(_ context.Context, userID string) error {
	f.deletedFor = append(f.deletedFor, userID)
	return nil
}
func (f *fakeActivationsRepo) CountUsed(context.Context) (int, error) {
	n := 0
	for _, t := range f.byToken {
		if t.UsedAt != nil {
			n++
		}
	}
	return n, nil
}

// --- guests ---

type fakeGuestsRepo struct {
	byID map[string]*models.Guest
}

func newFakeGuestsRepo() *fakeGuestsRepo { return &fakeGuestsRepo{byID: map[string]*models.Guest{}} }

func (f *fakeGuestsRepo) Create(_ context.Context, g *models.Guest) (*models.Guest, error) {
	c := *g
	c.ID = nextID()
	c.CreatedAt = time.Now().Add(time.Duration(len(f.byID)) * time.Second)
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}
func (f *fakeGuestsRepo) FindByID(_ context.Context, id string) (*models.Guest, error) {
	g, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}
func (f *fakeGuestsRepo) List(_ context.Context, ownerID string) ([]models.Guest, error) {
	var out []models.Guest
	for _, g := range f.byID {
		if ownerID == "" || g.UserID == ownerID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
func (f *fakeGuestsRepo) Update(_ context.Context, g *models.Guest) (*models.Guest, error) {
	if _, ok := f.byID[g.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	f.byID[g.ID] = &c
	out := c
	return &out, nil
}
func (f *fakeGuestsRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}
func (f *fakeGuestsRepo) FindConflicts(_ context.Context, k guests.UniqueKeys, excludeID string) ([]guests.UniqueKeys, error) {
	var out []guests.UniqueKeys
	for _, g := range f.byID {
		if g.ID == excludeID {
			continue
		}
		if strings.EqualFold(g.Email, k.Email) || g.RGNumber == k.RGNumber || g.CPFNumber == k.CPFNumber {
			out = append(out, guests.UniqueKeys{Email: g.Email, RGNumber: g.RGNumber, CPFNumber: g.CPFNumber})
		}
	}
	return out, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	a *fakeActivationsRepo
	g *fakeGuestsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u: newFakeUsersRepo(),
		s: newFakeSessionsRepo(),
		a: newFakeActivationsRepo(),
		g: newFakeGuestsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.s }
func (m *fakeRepoManager) Activations(dbx.DBTX) activations.Repository  { return m.a }
func (m *fakeRepoManager) Guests(dbx.DBTX) guests.Repository            { return m.g }

func requireAppError(t *testing.T, err error, name, message string) {
	t.Helper()
	require.Error(t, err)
	var ce *common.Error
	require.Truef(t, errors.As(err, &ce), "want *common.Error, got %T: %v", err, err)
	require.Equal(t, name, ce.Name)
	if message != "" {
		require.Equal(t, message, ce.Message)
	}
}
