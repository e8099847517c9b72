package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-service/events"
	"portfolio-service/logger"
	"portfolio-service/middleware"
	"portfolio-service/model"
	"portfolio-service/query"
)

const articleNotFound = "Article not found"

type ArticleHandler struct {
	store  ArticleStore
	events events.Publisher
	log    logger.Logger
}

func NewArticleHandler(store ArticleStore, pub events.Publisher, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{store: store, events: pub, log: log}
}

// ListArticles handles GET /api/articles
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	q := query.ParseArticleQuery(c.Query)

	res, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	c.JSON(http.StatusOK, query.NewArticleList(q, res))
}

// GetArticle handles GET /api/articles/:id
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	article, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// GetArticleBySlug handles GET /api/articles/slug/:slug. Drafts are only
// visible to the admin.
func (h *ArticleHandler) GetArticleBySlug(c *gin.Context) {
	ctx := c.Request.Context()

	article, err := h.store.GetBySlug(ctx, c.Param("slug"), !middleware.IsAdmin(c))
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	nav, err := h.store.Neighbors(ctx, article)
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	c.JSON(http.StatusOK, model.ArticleDetail{Article: article, Navigation: nav})
}

// CreateArticle handles POST /api/articles
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req model.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	article := req.Article()
	if err := h.store.Create(c.Request.Context(), article); err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	h.log.Info("Created article %s (%s)", article.Slug, article.Status)
	announce(c, h.events, h.log, articleEvent(events.ActionCreated, article))
	c.JSON(http.StatusCreated, article)
}

// UpdateArticle handles PUT /api/articles/:id
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	var req model.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	article, err := h.store.Update(c.Request.Context(), c.Param("id"), req.Article())
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	h.log.Info("Updated article %s (%s)", article.Slug, article.Status)
	announce(c, h.events, h.log, articleEvent(events.ActionUpdated, article))
	c.JSON(http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/articles/:id
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	article, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, articleNotFound, err)
		return
	}

	h.log.Info("Deleted article %s", article.Slug)
	announce(c, h.events, h.log, articleEvent(events.ActionDeleted, article))
	c.JSON(http.StatusOK, gin.H{"message": "Article deleted successfully"})
}

func articleEvent(action string, a *model.Article) events.ContentEvent {
	return events.ContentEvent{
		Kind:   events.KindArticle,
		Action: action,
		ID:     a.ID.Hex(),
		Slug:   a.Slug,
		Status: string(a.Status),
	}
}
