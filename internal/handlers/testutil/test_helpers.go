package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/track/internal/api"
	iauth "github.com/charlesng35/track/internal/auth"
	"github.com/charlesng35/track/internal/cache"
	sharedtestutil "github.com/charlesng35/track/internal/database/testutil"
	"github.com/charlesng35/track/internal/models"
	"github.com/charlesng35/track/internal/monitoring"
	"github.com/charlesng35/track/internal/monitoring/checks"
	"github.com/charlesng35/track/internal/permissions"
	"github.com/charlesng35/track/internal/services"
	"github.com/charlesng35/track/pkg/mail"
)

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	JWT    *iauth.JWTService
	Mailer *mail.Recorder
}

// EnvOption customises NewEnv.
type EnvOption func(*api.Deps)

// WithRateLimit applies a limit to the public route groups.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(d *api.Deps) {
		d.RateLimit = api.RateLimitSettings{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	recorder := &mail.Recorder{}
	checker, err := permissions.NewChecker(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	dispatcher, err := services.NewDispatcher(db, recorder, services.WithDispatcherSender("noreply@example.com"))
	require.NoError(t, err)

	users, err := services.NewUserService(db, services.WithUserAudit(audit))
	require.NoError(t, err)
	workspaces, err := services.NewWorkspaceService(db, checker, audit)
	require.NoError(t, err)
	invitations, err := services.NewInvitationService(db, checker, dispatcher,
		services.WithInvitationAudit(audit),
		services.WithInvitationNotifier(services.NewNotifier("https://app.example.com")),
	)
	require.NoError(t, err)

	health := monitoring.NewManager()
	health.Register(checks.Database(db, time.Second))

	deps := api.Deps{
		JWT:         jwtSvc,
		Users:       users,
		Workspaces:  workspaces,
		Invitations: invitations,
		Health:      health,
		RateStore:   cache.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router, err := api.NewRouter(deps)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Mailer: recorder,
	}
}

// UserPayload captures the public user fields returned from auth endpoints.
type UserPayload struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	Username           string  `json:"username"`
	FullName           string  `json:"full_name"`
	AvatarURL          string  `json:"avatar_url"`
	DefaultWorkspaceID *string `json:"default_workspace_id"`
}

// AuthResult bundles the JSON response from the register and login endpoints.
type AuthResult struct {
	User  UserPayload `json:"user"`
	Token string      `json:"token"`
}

// Register signs up a new account and returns the issued token.
func (e *Env) Register(username, password string) AuthResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     username + "@example.com",
		"username":  username,
		"full_name": username,
		"password":  password,
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var result AuthResult
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &result)
	require.NotEmpty(e.T, result.Token)
	require.NotNil(e.T, result.User.DefaultWorkspaceID)
	return result
}

// InvitationToken extracts the raw token from the last invitation mailed to address.
func (e *Env) InvitationToken(address string) string {
	e.T.Helper()

	messages := e.Mailer.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if len(msg.To) == 0 || msg.To[0] != address {
			continue
		}
		if match := tokenPattern.FindStringSubmatch(msg.Text); match != nil {
			return match[1]
		}
	}
	e.T.Fatalf("no invitation mailed to %s", address)
	return ""
}

// Invitation loads the newest invitation row for address.
func (e *Env) Invitation(address string) models.Invitation {
	e.T.Helper()
	var invitation models.Invitation
	require.NoError(e.T, e.DB.Where("email = ?", address).Order("created_at DESC").First(&invitation).Error)
	return invitation
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
