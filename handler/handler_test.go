package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"portfolio-service/auth"
	"portfolio-service/events"
	"portfolio-service/logger"
	"portfolio-service/middleware"
	"portfolio-service/repository/repotest"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ContentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ContentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) Events() []events.ContentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ContentEvent(nil), p.events...)
}

type loginAttempt struct {
	username string
	ip       string
	success  bool
}

type chanNotifier struct {
	attempts chan loginAttempt
}

func (n *chanNotifier) NotifyLogin(_ context.Context, username, ip string, success bool) error {
	n.attempts <- loginAttempt{username: username, ip: ip, success: success}
	return nil
}

type fixture struct {
	router   *gin.Engine
	articles *repotest.ArticleStore
	projects *repotest.ProjectStore
	events   *recordingPublisher
	notifier *chanNotifier
	auth     *auth.JWTService
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		articles: repotest.NewArticleStore(),
		projects: repotest.NewProjectStore(),
		events:   &recordingPublisher{},
		notifier: &chanNotifier{attempts: make(chan loginAttempt, 8)},
		auth:     auth.NewJWTService("admin", "pw", testSecret, time.Hour),
	}

	session, err := f.auth.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	f.token = session.Token

	log := logger.NewNop()
	articles := NewArticleHandler(f.articles, f.events, log)
	projects := NewProjectHandler(f.projects, f.events, log)
	authH := NewAuthHandler(f.auth, f.notifier, false, log)

	r := gin.New()
	r.Use(middleware.Session(f.auth))

	r.POST("/api/admin/login", authH.Login)
	r.POST("/api/admin/logout", authH.Logout)
	r.GET("/api/admin/session", authH.Session)

	r.GET("/api/articles", articles.ListArticles)
	r.GET("/api/articles/slug/:slug", articles.GetArticleBySlug)
	r.GET("/api/articles/:id", articles.GetArticle)
	r.POST("/api/articles", middleware.RequireAdmin(), articles.CreateArticle)
	r.PUT("/api/articles/:id", middleware.RequireAdmin(), articles.UpdateArticle)
	r.DELETE("/api/articles/:id", middleware.RequireAdmin(), articles.DeleteArticle)

	r.GET("/api/projects", projects.ListProjects)
	r.GET("/api/projects/slug/:slug", projects.GetProjectBySlug)
	r.GET("/api/projects/:id", projects.GetProject)
	r.POST("/api/projects", middleware.RequireAdmin(), projects.CreateProject)
	r.PUT("/api/projects/:id", middleware.RequireAdmin(), projects.UpdateProject)
	r.DELETE("/api/projects/:id", middleware.RequireAdmin(), projects.DeleteProject)

	f.router = r
	return f
}

// do sends body (a string or any JSON-encodable value) and authenticates
// when admin is true.
func (f *fixture) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: f.token})
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
