package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/metrics"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type mockUsers struct {
	createFunc      func(ctx context.Context, in models.UserInput) (*models.User, error)
	findByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	findByNameFunc  func(ctx context.Context, username string) (*models.User, error)
	updateFunc      func(ctx context.Context, username string, patch models.UserPatch) (*models.User, error)
	setFeaturesFunc func(ctx context.Context, userID string, features []auth.Feature) (*models.User, error)
	syncFunc        func(ctx context.Context, userID string, payload map[string]json.RawMessage) (*models.User, error)
	deleteFunc      func(ctx context.Context, username string) (*models.DeleteResult, error)
	rankingFunc     func(ctx context.Context, q models.RankingQuery) (*models.RankingPage, error)
}

func (m *mockUsers) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	return m.createFunc(ctx, in)
}
func (m *mockUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findByNameFunc(ctx, username)
}
func (m *mockUsers) Update(ctx context.Context, username string, patch models.UserPatch) (*models.User, error) {
	return m.updateFunc(ctx, username, patch)
}
func (m *mockUsers) SetFeatures(ctx context.Context, userID string, features []auth.Feature) (*models.User, error) {
	return m.setFeaturesFunc(ctx, userID, features)
}
func (m *mockUsers) UpdateGamificationState(ctx context.Context, userID string, payload map[string]json.RawMessage) (*models.User, error) {
	return m.syncFunc(ctx, userID, payload)
}
func (m *mockUsers) DeleteByUsername(ctx context.Context, username string) (*models.DeleteResult, error) {
	return m.deleteFunc(ctx, username)
}
func (m *mockUsers) Ranking(ctx context.Context, q models.RankingQuery) (*models.RankingPage, error) {
	return m.rankingFunc(ctx, q)
}

type mockActivations struct {
	generateFunc func(ctx context.Context, userID string) (string, error)
	sendFunc     func(ctx context.Context, u *models.User, token string) error
	activateFunc func(ctx context.Context, token string) (*models.ActivationToken, error)
}

func (m *mockActivations) GenerateToken(ctx context.Context, userID string) (string, error) {
	return m.generateFunc(ctx, userID)
}
func (m *mockActivations) SendActivationEmail(ctx context.Context, u *models.User, token string) error {
	return m.sendFunc(ctx, u, token)
}
func (m *mockActivations) ActivateAccount(ctx context.Context, token string) (*models.ActivationToken, error) {
	return m.activateFunc(ctx, token)
}

type mockSessions struct {
	createFunc func(ctx context.Context, userID string) (*models.Session, error)
	findFunc   func(ctx context.Context, token string) (*models.Session, error)
	renewFunc  func(ctx context.Context, id string) (*models.Session, error)
	deleteFunc func(ctx context.Context, token string) (*models.Session, error)
}

func (m *mockSessions) Create(ctx context.Context, userID string) (*models.Session, error) {
	return m.createFunc(ctx, userID)
}
func (m *mockSessions) FindOneValidByToken(ctx context.Context, token string) (*models.Session, error) {
	return m.findFunc(ctx, token)
}
func (m *mockSessions) Renew(ctx context.Context, id string) (*models.Session, error) {
	return m.renewFunc(ctx, id)
}
func (m *mockSessions) DeleteByToken(ctx context.Context, token string) (*models.Session, error) {
	return m.deleteFunc(ctx, token)
}
func (m *mockSessions) Lifetime() time.Duration { return 30 * 24 * time.Hour }

type mockAuth struct {
	authFunc func(ctx context.Context, email, password string) (*models.User, error)
}

func (m *mockAuth) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return m.authFunc(ctx, email, password)
}

type mockGuests struct {
	createFunc func(ctx context.Context, ownerID string, in models.Guest) (*models.Guest, error)
	findFunc   func(ctx context.Context, id string) (*models.Guest, error)
	listFunc   func(ctx context.Context, ownerID string) ([]models.Guest, error)
	updateFunc func(ctx context.Context, current *models.Guest, patch map[string]json.RawMessage) (*models.Guest, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockGuests) Create(ctx context.Context, ownerID string, in models.Guest) (*models.Guest, error) {
	return m.createFunc(ctx, ownerID, in)
}
func (m *mockGuests) FindByID(ctx context.Context, id string) (*models.Guest, error) {
	return m.findFunc(ctx, id)
}
func (m *mockGuests) List(ctx context.Context, ownerID string) ([]models.Guest, error) {
	return m.listFunc(ctx, ownerID)
}
func (m *mockGuests) Update(ctx context.Context, current *models.Guest, patch map[string]json.RawMessage) (*models.Guest, error) {
	return m.updateFunc(ctx, current, patch)
}
func (m *mockGuests) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

type mockPinger struct{ err error }

func (m mockPinger) PingContext(context.Context) error { return m.err }

// --- harness ---

const testToken = "valid-session-token"

type harness struct {
	users       *mockUsers
	activations *mockActivations
	sessions    *mockSessions
	auth        *mockAuth
	guests      *mockGuests
	db          *mockPinger
	server      *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		users: &mockUsers{
			findByIDFunc: func(context.Context, string) (*models.User, error) {
				return nil, common.NewNotFoundError("", "")
			},
		},
		activations: &mockActivations{},
		sessions: &mockSessions{
			findFunc: func(context.Context, string) (*models.Session, error) {
				return nil, common.NewUnauthorizedError("", "")
			},
		},
		auth:   &mockAuth{},
		guests: &mockGuests{},
		db:     &mockPinger{},
	}
	h.server = NewServer(Options{Addr: ":0"}, Deps{
		Metrics:     metrics.New(),
		DB:          h.db,
		Users:       h.users,
		Activations: h.activations,
		Sessions:    h.sessions,
		Auth:        h.auth,
		Guests:      h.guests,
	})
	return h
}

// loginAs makes testToken resolve to u.
func (h *harness) loginAs(u *models.User) {
	h.sessions.findFunc = func(_ context.Context, token string) (*models.Session, error) {
		if token != testToken {
			return nil, common.NewUnauthorizedError("", "")
		}
		return &models.Session{ID: "s1", Token: testToken, UserID: u.ID}, nil
	}
	h.users.findByIDFunc = func(_ context.Context, id string) (*models.User, error) {
		if id != u.ID {
			return nil, common.NewNotFoundError("", "")
		}
		c := *u
		return &c, nil
	}
}

func (h *harness) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: testToken})
	}
	w := httptest.NewRecorder()
	h.server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}

func activatedUser(id, username string, extra ...auth.Feature) *models.User {
	features := append(auth.Strings(auth.ActivatedFeatures), auth.Strings(extra)...)
	return &models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Password: "$2a$14$hash",
		Features: features,
	}
}
