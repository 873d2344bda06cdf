package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shareaplate_backend/internal/claim"
	"shareaplate_backend/internal/coach"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/goal"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/matching"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	"shareaplate_backend/internal/platform/database"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/recommendation"
)

// staticVerifier accepts "<uid>:<role>" as a token.
type staticVerifier struct{}

func (staticVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, role, _ := strings.Cut(idToken, ":")
	return &auth.Token{UID: uid, Claims: map[string]interface{}{"role": role}}, nil
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.OpenSQLiteMemory(&profile.Profile{}, &goal.Goal{})
	require.NoError(t, err)

	logger := zap.NewNop()
	profiles := profile.NewService(profile.NewGORMRepository(db), logger)
	goals := goal.NewService(goal.NewGORMRepository(db), nil, nil, logger)

	cfg := &config.Config{GinMode: gin.TestMode, ServerHost: "127.0.0.1", ServerPort: "0", LLMTimeout: time.Second}
	srv, err := NewServer(cfg, logger, staticVerifier{}, profiles, Handlers{
		Profile:        profile.NewHandler(profiles, logger),
		Listing:        listing.NewHandler(nil, logger),
		Claim:          claim.NewHandler(nil, logger),
		Goal:           goal.NewHandler(goals, logger),
		Outcome:        outcome.NewHandler(nil, logger),
		Coach:          coach.NewHandler(nil, coach.NewMessageCache(time.Minute), logger),
		Matching:       matching.NewHandler(nil, logger),
		Recommendation: recommendation.NewHandler(nil, nil, logger),
		Notification:   notification.NewHandler(nil, logger),
	}, nil, nil)
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv := setupTestServer(t)
	w := serve(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := setupTestServer(t)
	w := serve(srv, http.MethodGet, "/api/v1/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestServer_AuthAndRoles(t *testing.T) {
	srv := setupTestServer(t)

	w := serve(srv, http.MethodGet, "/api/v1/goals/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(srv, http.MethodGet, "/api/v1/goals/me", "uid-1:recipient")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)

	// Recipients cannot reach donor-only routes.
	w = serve(srv, http.MethodPost, "/api/v1/listings", "uid-1:recipient")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = serve(srv, http.MethodPost, "/api/v1/match/listings/"+"00000000-0000-0000-0000-000000000001", "uid-1:recipient")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
