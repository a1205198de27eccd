package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aau-transit/bustrack/internal/accounts"
	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/http/api"
	"github.com/aau-transit/bustrack/internal/http/middleware"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/redis"
)

type testServer struct {
	router *gin.Engine
	svc    *accounts.Service
}

func setupRouter(perMinute int) *testServer {
	gin.SetMode(gin.TestMode)
	store := db.NewMemoryStore()
	sessions := redis.NewMemoryStore()
	svc := accounts.NewService(store)
	issuer := middleware.NewTokenIssuer(middleware.TokenConfig{
		AccessSecret:  "supersecret",
		RefreshSecret: "supersecret-refresh",
		Issuer:        "bus-tracking-api",
		AccessTTL:     30 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"},
		AuthPublicModule(svc, issuer, sessions, middleware.NewRateLimiter(perMinute)),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:        "/api",
		Auth:          true,
		Authenticator: middleware.JWTMiddleware(issuer, sessions, store),
	},
		AuthSessionModule(svc, issuer, sessions),
	)
	return &testServer{router: r, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type tokenBody struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	Account      map[string]any `json:"account"`
}

func decodeTokens(t *testing.T, w *httptest.ResponseRecorder) tokenBody {
	t.Helper()
	var out tokenBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var student = map[string]any{
	"name":           "Lina Haddad",
	"email":          "lina@aau.edu.jo",
	"password":       "bus2campus",
	"student_number": "202012345",
}

func TestRegisterLoginAndProfile(t *testing.T) {
	s := setupRouter(100)

	w := s.do(http.MethodPost, "/api/auth/register", "", student)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decodeTokens(t, w)
	assert.Equal(t, "bearer", registered.TokenType)
	assert.EqualValues(t, 1800, registered.ExpiresIn)
	assert.Equal(t, "student", registered.Account["kind"])
	assert.NotContains(t, w.Body.String(), "hashed_password")

	w = s.do(http.MethodPost, "/api/auth/register", "", student)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"email already registered"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/auth/current_profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "Expected unauthorized without token")

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "LINA@aau.edu.jo", "password": "bus2campus"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeTokens(t, w)

	w = s.do(http.MethodGet, "/api/auth/current_profile", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "lina@aau.edu.jo", profile["email"])
	assert.Equal(t, "202012345", profile["student_number"])

	w = s.do(http.MethodPut, "/api/auth/current_profile", login.AccessToken, map[string]any{"name": "Lina H.", "major": "Architecture"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Lina H.", profile["name"])
	assert.Equal(t, "Architecture", profile["major"])
}

func TestRegister_Validation(t *testing.T) {
	s := setupRouter(100)

	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{"email": "x@aau.edu.jo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	weak := map[string]any{"name": "A", "email": "a@aau.edu.jo", "password": "password", "student_number": "1"}
	w = s.do(http.MethodPost, "/api/auth/register", "", weak)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "letter and a digit")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := setupRouter(100)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/auth/register", "", student).Code)

	for _, body := range []map[string]any{
		{"email": "lina@aau.edu.jo", "password": "wrong-pass1"},
		{"email": "nobody@aau.edu.jo", "password": "bus2campus"},
		{"email": "lina@aau.edu.jo", "password": "bus2campus", "kind": "driver"},
	} {
		w := s.do(http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
	}

	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "lina@aau.edu.jo", "password": "x", "kind": "pilot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := setupRouter(100)
	w := s.do(http.MethodPost, "/api/auth/register", "", student)
	require.Equal(t, http.StatusCreated, w.Code)
	tokens := decodeTokens(t, w)

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access tokens cannot refresh")

	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decodeTokens(t, w)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/current_profile", refreshed.AccessToken, nil).Code)

	w = s.do(http.MethodPost, "/api/auth/logout", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// every token of the session is dead now
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/current_profile", tokens.AccessToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/current_profile", refreshed.AccessToken, nil).Code)
	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_DeletedAccount(t *testing.T) {
	s := setupRouter(100)
	w := s.do(http.MethodPost, "/api/auth/register", "", student)
	require.Equal(t, http.StatusCreated, w.Code)
	tokens := decodeTokens(t, w)

	a, err := s.svc.Authenticate(context.Background(), "lina@aau.edu.jo", "bus2campus", model.KindStudent)
	require.NoError(t, err)
	require.NoError(t, s.svc.Delete(context.Background(), a.ID, model.KindStudent))

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "lina@aau.edu.jo", "password": "bus2campus"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthEndpoints_RateLimited(t *testing.T) {
	s := setupRouter(2)
	body := map[string]any{"email": "x@aau.edu.jo", "password": "whatever1"}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/auth/login", "", body).Code)
	w := s.do(http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
}
