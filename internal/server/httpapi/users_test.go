package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		createErr  error
		wantStatus int
		wantField  string
	}{
		{
			name:       "valid",
			body:       map[string]any{"email": "Test@Test.com", "password": "testpass", "name": "Test name"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "password too short",
			body:       map[string]any{"email": "test@test.com", "password": "test"},
			wantStatus: http.StatusBadRequest,
			wantField:  "password",
		},
		{
			name:       "bad email",
			body:       map[string]any{"email": "nope", "password": "testpass"},
			wantStatus: http.StatusBadRequest,
			wantField:  "email",
		},
		{
			name:       "missing email",
			body:       map[string]any{"password": "testpass"},
			wantStatus: http.StatusBadRequest,
			wantField:  "email",
		},
		{
			name:       "duplicate",
			body:       map[string]any{"email": "test@test.com", "password": "testpass"},
			createErr:  common.ErrAlreadyExists,
			wantStatus: http.StatusBadRequest,
			wantField:  "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.createErr = tt.createErr

			w := env.do(t, http.MethodPost, "/api/user/create", "", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NotContains(t, w.Body.String(), "password\":\"")

			body := decode[map[string]any](t, w)
			if tt.wantField != "" {
				assert.Contains(t, body, tt.wantField)
				return
			}
			assert.Equal(t, "test@test.com", body["email"])
			assert.Equal(t, "Test name", body["name"])
			assert.NotContains(t, body, "password")
		})
	}
}

func TestCreateUser_FormBody(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"form@test.com"}, "password": {"testpass"}, "name": {"Form"}}
	req := httptest.NewRequest(http.MethodPost, "/api/user/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "form@test.com", decode[map[string]any](t, w)["email"])
}

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		loginErr   error
		wantStatus int
	}{
		{"valid", map[string]any{"email": "test@test.com", "password": "testpass"}, nil, http.StatusOK},
		{"invalid credentials", map[string]any{"email": "test@test.com", "password": "wrong"}, nil, http.StatusBadRequest},
		{"no user", map[string]any{"email": "ghost@test.com", "password": "testpass"}, common.ErrInvalidCredentials, http.StatusBadRequest},
		{"missing password", map[string]any{"email": "test@test.com", "password": ""}, nil, http.StatusBadRequest},
		{"missing email", map[string]any{"password": "testpass"}, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.loginErr = tt.loginErr

			w := env.do(t, http.MethodPost, "/api/user/token", "", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decode[map[string]any](t, w)
			if tt.wantStatus != http.StatusOK {
				assert.NotContains(t, body, "token")
				return
			}
			assert.Equal(t, "access", body["token"])
			assert.Equal(t, "refresh", body["refresh_token"])
		})
	}
}

func TestCreateToken_InvalidCredentialsBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/user/token", "", map[string]any{"email": "a@b.c", "password": "wrong"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string][]string](t, w)
	assert.Equal(t, []string{msgBadCredentials}, body["non_field_errors"])
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		token      string
		wantStatus int
	}{
		{"good", http.StatusOK},
		{"old", http.StatusUnauthorized},
		{"unknown", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/api/user/token/refresh", "", map[string]any{"refresh_token": tt.token})
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/user/token/refresh", "", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/user/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgNoCredentials, decode[map[string]string](t, w)["detail"])
}

func TestMe_Get(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/user/me", tokenFor(t, 1), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"email": "test@example.com", "name": "Test"}, decode[map[string]string](t, w))
}

func TestMe_PostNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/user/me", tokenFor(t, 1), map[string]any{})
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// without credentials the request is rejected before the verb is checked
	w = env.do(t, http.MethodPost, "/api/user/me", "", map[string]any{})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgNoCredentials, decode[map[string]string](t, w)["detail"])
}

func TestMe_Patch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/user/me", tokenFor(t, 1), map[string]any{"name": "new name", "password": "newpassword123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "new name", decode[map[string]string](t, w)["name"])
	require.NotNil(t, env.users.lastUpdate.Password)
	assert.Equal(t, "newpassword123", *env.users.lastUpdate.Password)
	assert.Nil(t, env.users.lastUpdate.Email)
}

func TestMe_PatchValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/user/me", tokenFor(t, 1), map[string]any{"password": "abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "password")
}

func TestMe_PutRequiresEmailAndPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/user/me", tokenFor(t, 1), map[string]any{"name": "x"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string][]string](t, w)
	assert.Contains(t, body, "email")
	assert.Contains(t, body, "password")

	w = env.do(t, http.MethodPut, "/api/user/me", tokenFor(t, 1), map[string]any{"email": "new@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMe_EmailTaken(t *testing.T) {
	env := newTestEnv(t)
	env.users.updateErr = common.ErrAlreadyExists

	w := env.do(t, http.MethodPatch, "/api/user/me", tokenFor(t, 1), map[string]any{"email": "taken@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{msgEmailTaken}, decode[map[string][]string](t, w)["email"])
}
