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

const projectNotFound = "Project not found"

type ProjectHandler struct {
	store  ProjectStore
	events events.Publisher
	log    logger.Logger
}

func NewProjectHandler(store ProjectStore, pub events.Publisher, log logger.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, events: pub, log: log}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.store.List(c.Request.Context(), query.ParseProjectQuery(c.Query))
	if err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	c.JSON(http.StatusOK, query.NewProjectList(projects))
}

// GetProject handles GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// GetProjectBySlug handles GET /api/projects/slug/:slug
func (h *ProjectHandler) GetProjectBySlug(c *gin.Context) {
	project, err := h.store.GetBySlug(c.Request.Context(), c.Param("slug"), !middleware.IsAdmin(c))
	if err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// CreateProject handles POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	project, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.store.Create(c.Request.Context(), project); err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	h.log.Info("Created project %s (%s)", project.Slug, project.Status)
	announce(c, h.events, h.log, projectEvent(events.ActionCreated, project))
	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	changes, ok := h.bind(c)
	if !ok {
		return
	}

	project, err := h.store.Update(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	h.log.Info("Updated project %s (%s)", project.Slug, project.Status)
	announce(c, h.events, h.log, projectEvent(events.ActionUpdated, project))
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, projectNotFound, err)
		return
	}

	h.log.Info("Deleted project %s", project.Slug)
	announce(c, h.events, h.log, projectEvent(events.ActionDeleted, project))
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) bind(c *gin.Context) (*model.Project, bool) {
	var req model.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return nil, false
	}

	project, err := req.Project()
	if err != nil {
		respondBadRequest(c, err)
		return nil, false
	}
	return project, true
}

func projectEvent(action string, p *model.Project) events.ContentEvent {
	return events.ContentEvent{
		Kind:   events.KindProject,
		Action: action,
		ID:     p.ID.Hex(),
		Slug:   p.Slug,
		Status: string(p.Status),
	}
}
