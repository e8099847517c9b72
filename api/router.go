package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-service/auth"
	"portfolio-service/config"
	"portfolio-service/events"
	"portfolio-service/handler"
	"portfolio-service/logger"
	"portfolio-service/middleware"
	"portfolio-service/notifier"
)

const (
	serviceName    = "portfolio-service"
	adminLoginPath = "/admin/login"
)

// Deps is everything the router needs; cmd/main.go builds it.
type Deps struct {
	Config   *config.Config
	Log      logger.Logger
	Auth     auth.Service
	Articles handler.ArticleStore
	Projects handler.ProjectStore
	Store    handler.Pinger
	Events   events.Publisher
	Notifier notifier.LoginNotifier
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.PrometheusMiddleware(serviceName))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{d.Config.PublicBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.Session(d.Auth))

	health := handler.NewHealthHandler(d.Store, serviceName, d.Log)
	articles := handler.NewArticleHandler(d.Articles, d.Events, d.Log)
	projects := handler.NewProjectHandler(d.Projects, d.Events, d.Log)
	authH := handler.NewAuthHandler(d.Auth, d.Notifier, d.Config.IsProduction(), d.Log)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		admin := api.Group("/admin")
		admin.POST("/login", authH.Login)
		admin.POST("/logout", authH.Logout)
		admin.GET("/session", authH.Session)

		a := api.Group("/articles")
		a.GET("", articles.ListArticles)
		a.GET("/slug/:slug", articles.GetArticleBySlug)
		a.GET("/:id", articles.GetArticle)
		a.POST("", middleware.RequireAdmin(), articles.CreateArticle)
		a.PUT("/:id", middleware.RequireAdmin(), articles.UpdateArticle)
		a.DELETE("/:id", middleware.RequireAdmin(), articles.DeleteArticle)

		p := api.Group("/projects")
		p.GET("", projects.ListProjects)
		p.GET("/slug/:slug", projects.GetProjectBySlug)
		p.GET("/:id", projects.GetProject)
		p.POST("", middleware.RequireAdmin(), projects.CreateProject)
		p.PUT("/:id", middleware.RequireAdmin(), projects.UpdateProject)
		p.DELETE("/:id", middleware.RequireAdmin(), projects.DeleteProject)
	}

	r.GET("/admin/*path",
		adminAssets(d.Config.AdminStaticDir),
		middleware.AdminPages(adminLoginPath),
		serveAdmin(d.Config.AdminStaticDir),
	)

	return r
}

// adminFile resolves the request path to a regular file below dir.
func adminFile(dir string, c *gin.Context) (string, bool) {
	if dir == "" {
		return "", false
	}
	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Param("path"))))
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return name, true
}

// adminAssets serves the UI bundle (scripts, styles, images) without a
// session so the login page can load it. HTML pages fall through to the
// session redirect.
func adminAssets(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := adminFile(dir, c)
		if !ok || strings.EqualFold(filepath.Ext(name), ".html") {
			c.Next()
			return
		}
		c.File(name)
		c.Abort()
	}
}

// serveAdmin serves the built admin UI from dir. Unknown paths fall back to
// index.html so client-side routes survive a reload.
func serveAdmin(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if dir == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin UI not configured"})
			return
		}
		if name, ok := adminFile(dir, c); ok {
			c.File(name)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
