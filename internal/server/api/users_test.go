package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/enraizado/internal/common"
	"github.com/dmitrijs2005/enraizado/internal/server/auth"
	"github.com/dmitrijs2005/enraizado/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_Created(t *testing.T) {
	h := newHarness(t)

	var sentToken string
	h.users.createFunc = func(_ context.Context, in models.UserInput) (*models.User, error) {
		assert.Equal(t, "ana", in.Username)
		return &models.User{ID: "u1", Username: in.Username, Email: in.Email, Password: "hash",
			Features: models.StringArray{"read:activation_token"}}, nil
	}
	h.activations.generateFunc = func(_ context.Context, userID string) (string, error) {
		assert.Equal(t, "u1", userID)
		return "tok", nil
	}
	h.activations.sendFunc = func(_ context.Context, u *models.User, token string) error {
		sentToken = token
		return nil
	}

	w := h.do(http.MethodPost, "/api/v1/users", `{"username":"ana","email":"ana@example.com","password":"pw"}`, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "ana", body["username"])
	assert.NotContains(t, body, "password")
	assert.Equal(t, "tok", sentToken)
}

func TestCreateUser_ValidationError(t *testing.T) {
	h := newHarness(t)
	h.users.createFunc = func(context.Context, models.UserInput) (*models.User, error) {
		return nil, common.NewValidationError("The email provided is already in use.", "Use another email to perform this operation.")
	}

	w := h.do(http.MethodPost, "/api/v1/users", `{"username":"ana","email":"a@b.com","password":"pw"}`, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ValidationError", body["name"])
	assert.Equal(t, "The email provided is already in use.", body["message"])
	assert.EqualValues(t, 400, body["status_code"])
}

func TestCreateUser_BadJSON(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/users", `{"username":`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUser_MailFailureIs503(t *testing.T) {
	h := newHarness(t)
	h.users.createFunc = func(_ context.Context, in models.UserInput) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	h.activations.generateFunc = func(context.Context, string) (string, error) { return "tok", nil }
	h.activations.sendFunc = func(context.Context, *models.User, string) error {
		return common.NewServiceError("Error sending activation email.", "Try again later.", errors.New("dial tcp"))
	}

	w := h.do(http.MethodPost, "/api/v1/users", `{"username":"ana","email":"a@b.com","password":"pw"}`, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestCreateUser_ActivatedUserIsForbidden(t *testing.T) {
	h := newHarness(t)
	h.loginAs(activatedUser("u1", "ana"))

	w := h.do(http.MethodPost, "/api/v1/users", `{}`, true)
	require.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, `Check that this user has the feature "create:user".`, body["action"])
}

func TestGetUser_AnonymousIsUnauthorized(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/users/ana", "", false)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "UnauthorizedError", body["name"])
	assert.Equal(t, "User not authenticated.", body["message"])

	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "invalid", c.Value)
	assert.True(t, c.MaxAge < 0)
}

func TestUpdateUser_Ownership(t *testing.T) {
	h := newHarness(t)
	me := activatedUser("u1", "ana")
	h.loginAs(me)
	h.users.findByNameFunc = func(_ context.Context, username string) (*models.User, error) {
		if username == "ana" {
			return me, nil
		}
		return &models.User{ID: "u2", Username: username}, nil
	}
	h.users.updateFunc = func(_ context.Context, username string, patch models.UserPatch) (*models.User, error) {
		u := *me
		u.Username = *patch.Username
		return &u, nil
	}

	w := h.do(http.MethodPatch, "/api/v1/users/ana", `{"username":"ana2"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "ana2", body["username"])
	assert.NotContains(t, body, "password")

	w = h.do(http.MethodPatch, "/api/v1/users/bob", `{"username":"x"}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOtherUsersAccount_ForbiddenNamesFeature(t *testing.T) {
	h := newHarness(t)
	h.loginAs(activatedUser("u1", "ana"))
	h.users.findByNameFunc = func(_ context.Context, username string) (*models.User, error) {
		return &models.User{ID: "u2", Username: username}, nil
	}
	h.users.deleteFunc = func(context.Context, string) (*models.DeleteResult, error) {
		t.Fatal("delete must not run for another user's account")
		return nil, nil
	}

	want := `{
		"name": "ForbiddenError",
		"message": "You do not have permission to perform this action.",
		"action": "Check that this user has the feature \"update:user\".",
		"status_code": 403
	}`

	w := h.do(http.MethodDelete, "/api/v1/users/bob", "", true)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, want, w.Body.String())

	w = h.do(http.MethodPatch, "/api/v1/users/bob", `{"username":"x"}`, true)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, want, w.Body.String())
}

func TestUpdateUser_OthersFeatureAllowsAnyTarget(t *testing.T) {
	h := newHarness(t)
	h.loginAs(activatedUser("admin", "root", auth.UpdateUserOthers))
	h.users.findByNameFunc = func(_ context.Context, username string) (*models.User, error) {
		return &models.User{ID: "u2", Username: username}, nil
	}
	h.users.updateFunc = func(_ context.Context, username string, _ models.UserPatch) (*models.User, error) {
		return &models.User{ID: "u2", Username: username}, nil
	}

	w := h.do(http.MethodPatch, "/api/v1/users/bob", `{}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUser_SelfClearsCookie(t *testing.T) {
	h := newHarness(t)
	me := activatedUser("u1", "ana")
	h.loginAs(me)
	h.users.findByNameFunc = func(context.Context, string) (*models.User, error) { return me, nil }
	h.users.deleteFunc = func(_ context.Context, username string) (*models.DeleteResult, error) {
		return &models.DeleteResult{Success: true, Message: "Account deleted successfully"}, nil
	}

	w := h.do(http.MethodDelete, "/api/v1/users/ana", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Account deleted successfully"}`, w.Body.String())
	c := sessionCookie(w)
	require.NotNil(t, c)
	assert.Equal(t, "invalid", c.Value)
}

func TestSetFeatures(t *testing.T) {
	h := newHarness(t)
	h.users.findByNameFunc = func(_ context.Context, username string) (*models.User, error) {
		return &models.User{ID: "u2", Username: username}, nil
	}
	h.users.setFeaturesFunc = func(_ context.Context, id string, fs []auth.Feature) (*models.User, error) {
		return &models.User{ID: id, Username: "bob", Features: auth.Strings(fs)}, nil
	}

	h.loginAs(activatedUser("u1", "ana"))
	w := h.do(http.MethodPatch, "/api/v1/users/bob/features", `{"features":["nuked"]}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	h.loginAs(activatedUser("admin", "root", auth.UpdateUserOthers))
	w = h.do(http.MethodPatch, "/api/v1/users/bob/features", `{"features":["nuked"]}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"nuked"}, decodeBody(t, w)["features"])

	w = h.do(http.MethodPatch, "/api/v1/users/bob/features", `{"features":["fly"]}`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decodeBody(t, w)["name"])
}

func TestActivate_IsPublic(t *testing.T) {
	h := newHarness(t)
	h.activations.activateFunc = func(_ context.Context, token string) (*models.ActivationToken, error) {
		if token != "good" {
			return nil, common.NewValidationError("Invalid or expired token.", "Request a new activation email.")
		}
		return &models.ActivationToken{ID: "a1", Token: token, UserID: "u1"}, nil
	}

	w := h.do(http.MethodPatch, "/api/v1/activations/good", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decodeBody(t, w)["user_id"])

	w = h.do(http.MethodPatch, "/api/v1/activations/bad", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
