package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahrt/portfolio/internal/auth"
	"github.com/jmahrt/portfolio/internal/chat"
	"github.com/jmahrt/portfolio/internal/contact"
	"github.com/jmahrt/portfolio/internal/domain"
	"github.com/jmahrt/portfolio/internal/mail"
	"github.com/jmahrt/portfolio/internal/store"
)

type responderFunc func(ctx context.Context, conv []domain.Message, onPartial chat.PartialFunc) (string, error)

func (f responderFunc) Respond(ctx context.Context, conv []domain.Message, onPartial chat.PartialFunc) (string, error) {
	return f(ctx, conv, onPartial)
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testServer struct {
	router chi.Router
	repo   *store.FileStore
	sender *fakeSender
}

func newTestServer(t *testing.T, responder chat.Responder, sender *fakeSender) *testServer {
	t.Helper()
	ctx := context.Background()

	repo, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, repo))
	_, _, err = auth.EnsureAdmin(ctx, repo, "admin", "admin123")
	require.NoError(t, err)

	signer, err := auth.NewSigner([]byte("test-secret"))
	require.NoError(t, err)
	authSvc := auth.NewService(repo, signer, time.Hour, nil)

	var contactSvc *contact.Service
	if sender != nil {
		contactSvc = contact.NewService(sender, "site@example.com", "owner@example.com", nil)
	} else {
		contactSvc = contact.NewService(nil, "", "", nil)
	}

	r := chi.NewRouter()
	Mount(r, Handlers{
		Health:   NewHealthHandler(repo, responder != nil, sender != nil),
		Chat:     NewChatHandler(responder, nil),
		Contact:  NewContactHandler(contactSvc),
		Projects: NewProjectHandler(repo),
		Resume:   NewResumeHandler(repo),
		Admin:    NewAdminHandler(authSvc, false),
		Auth:     authSvc,
	})
	return &testServer{router: r, repo: repo, sender: sender}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestChatEndpointValidation(t *testing.T) {
	s := newTestServer(t, responderFunc(func(context.Context, []domain.Message, chat.PartialFunc) (string, error) {
		t.Fatal("responder must not be called for invalid input")
		return "", nil
	}), nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing messages", body: `{}`, field: "messages"},
		{name: "invalid role", body: `{"messages":[{"role":"robot","content":"hi"}]}`, field: "messages[0].role"},
		{name: "no user message", body: `{"messages":[{"role":"system","content":"be nice"}]}`, field: "messages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/chat", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var got chatErrorResponse
			decodeBody(t, w, &got)
			assert.Equal(t, "Invalid messages format", got.Error)
			require.NotEmpty(t, got.Details)
			assert.Equal(t, tt.field, got.Details[0].Field)
		})
	}

	w := s.do(t, http.MethodPost, "/api/chat", `{"messages":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpointResponds(t *testing.T) {
	var seen []domain.Message
	s := newTestServer(t, responderFunc(func(_ context.Context, conv []domain.Message, _ chat.PartialFunc) (string, error) {
		seen = conv
		return "Hello! I'm Albert.", nil
	}), nil)

	w := s.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	decodeBody(t, w, &got)
	assert.Equal(t, "Hello! I'm Albert.", got["response"])
	assert.Equal(t, []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}, seen)
}

func TestChatEndpointApology(t *testing.T) {
	s := newTestServer(t, responderFunc(func(context.Context, []domain.Message, chat.PartialFunc) (string, error) {
		return chat.RateLimitApology, &chat.InferenceError{Attempts: 3, RateLimited: true, Err: chat.ErrRateLimited}
	}), nil)

	w := s.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	decodeBody(t, w, &got)
	assert.Equal(t, chat.RateLimitApology, got["response"])
}

func TestChatEndpointFailure(t *testing.T) {
	s := newTestServer(t, responderFunc(func(context.Context, []domain.Message, chat.PartialFunc) (string, error) {
		return "", errors.New("boom")
	}), nil)

	w := s.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var got map[string]string
	decodeBody(t, w, &got)
	assert.Equal(t, "Failed to process chat request", got["error"])
}

func TestChatEndpointWithoutResponder(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	decodeBody(t, w, &got)
	assert.Equal(t, chat.GenericApology, got["response"])
}

func TestContactEndpoint(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(t, nil, sender)

	w := s.do(t, http.MethodPost, "/api/contact", `{"name":"","email":"nope","message":"short"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var invalid validationResponse
	decodeBody(t, w, &invalid)
	assert.Equal(t, "Invalid form data", invalid.Message)
	assert.Len(t, invalid.Details, 3)
	assert.Empty(t, sender.sent)

	w = s.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Hello there, nice portfolio!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var ok map[string]string
	decodeBody(t, w, &ok)
	assert.Equal(t, "Email sent successfully", ok["message"])
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"owner@example.com"}, sender.sent[0].To)

	sender.err = errors.New("smtp down")
	w = s.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Hello there, nice portfolio!"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestContactEndpointNotConfigured(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","message":"Hello there, nice portfolio!"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPublicProjects(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, w.Code)

	var projects []domain.Project
	decodeBody(t, w, &projects)
	assert.Len(t, projects, len(domain.DefaultProjects()))
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, path := range []string{"/api/admin/me", "/api/admin/projects"} {
		w := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
	}
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/admin/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cookie := s.login(t)
	assert.True(t, cookie.HttpOnly)

	w = s.do(t, http.MethodGet, "/api/admin/me", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var me auth.AdminInfo
	decodeBody(t, w, &me)
	assert.Equal(t, "admin", me.Username)

	w = s.do(t, http.MethodPost, "/api/admin/logout", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminProjectCRUD(t *testing.T) {
	s := newTestServer(t, nil, nil)
	cookie := s.login(t)

	w := s.do(t, http.MethodPost, "/api/admin/projects", `{"title":"","category":"Games"}`, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var invalid validationResponse
	decodeBody(t, w, &invalid)
	assert.NotEmpty(t, invalid.Details)

	body := `{"title":"CLI","description":"A tool","image":"https://example.com/a.png","technologies":["Go"],"category":"Other","github":"https://github.com/example/cli"}`
	w = s.do(t, http.MethodPost, "/api/admin/projects", body, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Project
	decodeBody(t, w, &created)
	require.NotZero(t, created.ID)
	assert.Nil(t, created.Link)

	path := "/api/admin/projects/" + jsonInt(created.ID)
	w = s.do(t, http.MethodPatch, path, `{"title":"Go CLI","github":""}`, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.Project
	decodeBody(t, w, &updated)
	assert.Equal(t, "Go CLI", updated.Title)
	assert.Nil(t, updated.GitHub)

	w = s.do(t, http.MethodPatch, path, `{"category":"Games"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Project
	decodeBody(t, w, &fetched)
	assert.Equal(t, "Go CLI", fetched.Title)

	w = s.do(t, http.MethodDelete, path, "", cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, path, "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/projects/abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResumeEndpoints(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, http.MethodGet, "/api/resume", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	decodeBody(t, w, &got)
	assert.Equal(t, "Jonathan Mahrt", got["name"])
	assert.Contains(t, got["summaryHtml"], "<strong>web applications</strong>")

	w = s.do(t, http.MethodPut, "/api/admin/resume", `{"name":"J. Mahrt","summary":"Hi *there*"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := s.login(t)
	w = s.do(t, http.MethodPut, "/api/admin/resume", `{"name":"J. Mahrt","summary":"Hi *there*"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/resume", "")
	decodeBody(t, w, &got)
	assert.Equal(t, "J. Mahrt", got["name"])
	assert.Equal(t, "<p>Hi <em>there</em></p>\n", got["summaryHtml"])
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil, &fakeSender{})

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Status   string            `json:"status"`
		Checks   map[string]string `json:"checks"`
		Features map[string]bool   `json:"features"`
	}
	decodeBody(t, w, &got)
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "ok", got.Checks["store"])
	assert.False(t, got.Features["chat"])
	assert.True(t, got.Features["mail"])
}

func jsonInt(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
