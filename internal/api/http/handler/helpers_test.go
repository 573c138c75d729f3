package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpcontext "github.com/dtroode/otptasks-server/internal/api/http/context"
	"github.com/dtroode/otptasks-server/internal/model"
)

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) RequestChallenge(ctx context.Context, users model.UserStore, email string) (model.Challenge, error) {
	args := m.Called(ctx, users, email)
	return args.Get(0).(model.Challenge), args.Error(1)
}

func (m *mockAuthService) VerifyChallenge(ctx context.Context, users model.UserStore, email, code string) (string, error) {
	args := m.Called(ctx, users, email, code)
	return args.String(0), args.Error(1)
}

type mockTaskService struct {
	mock.Mock
}

func (m *mockTaskService) ListTasks(ctx context.Context, tasks model.TaskStore, userID int64) ([]model.TaskWithOwner, error) {
	args := m.Called(ctx, tasks, userID)
	return args.Get(0).([]model.TaskWithOwner), args.Error(1)
}

func (m *mockTaskService) GetTask(ctx context.Context, tasks model.TaskStore, taskID, userID int64) (model.TaskWithOwner, error) {
	args := m.Called(ctx, tasks, taskID, userID)
	return args.Get(0).(model.TaskWithOwner), args.Error(1)
}

func (m *mockTaskService) CreateTask(ctx context.Context, tasks model.TaskStore, params model.CreateTaskParams) (model.TaskWithOwner, error) {
	args := m.Called(ctx, tasks, params)
	return args.Get(0).(model.TaskWithOwner), args.Error(1)
}

type recordingMetrics struct {
	otpIssued    int
	logins       []string
	tasksCreated int
}

func (m *recordingMetrics) OTPIssued() {
	m.otpIssued++
}

func (m *recordingMetrics) LoginAttempt(result string) {
	m.logins = append(m.logins, result)
}

func (m *recordingMetrics) TaskCreated() {
	m.tasksCreated++
}

// withUser injects user into the request context the way the auth
// middleware does.
func withUser(user model.User) gin.HandlerFunc {
	cm := httpcontext.NewManager()
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(cm.SetUserToContext(c.Request.Context(), user))
		c.Next()
	}
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Detail
}

// longEmail returns a syntactically valid address longer than 254 characters.
func longEmail() string {
	label := strings.Repeat("d", 50)
	return strings.Repeat("a", 64) + "@" + strings.Join([]string{label, label, label, label}, ".") + ".com"
}
