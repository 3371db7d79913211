package server

import (
	"net/http"

	"github.com/daybook-labs/daybook/internal/projects"
	"github.com/gin-gonic/gin"
)

type projectCreatePayload struct {
	Title string `json:"title"`
}

type projectTitlePayload struct {
	Title string `json:"title"`
}

type contentPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleListProjects(c *gin.Context) {
	filter := projects.ListFilter(c.DefaultQuery("filter", string(projects.FilterAll)))
	switch filter {
	case projects.FilterAll, projects.FilterActive, projects.FilterSolved:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_filter"})
		return
	}
	summaries, err := h.projects.ListProjects(filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *httpHandler) handleCreateProject(c *gin.Context) {
	var request projectCreatePayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
	}
	id, project, err := h.projects.CreateProject(request.Title)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projects.ProjectSummary{ID: id, Project: project})
}

func (h *httpHandler) handleProjectStats(c *gin.Context) {
	stats, err := h.projects.Stats()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *httpHandler) handleGetProject(c *gin.Context) {
	project, err := h.projects.Project(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleDeleteProject(c *gin.Context) {
	if err := h.projects.DeleteProject(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleRenameProject(c *gin.Context) {
	var request projectTitlePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	project, err := h.projects.RenameProject(c.Param("id"), request.Title)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleSetField(c *gin.Context) {
	field, err := projects.ParseFieldName(c.Param("field"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var request contentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	project, err := h.projects.SetField(c.Param("id"), field, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleToggleStatus(c *gin.Context) {
	project, err := h.projects.ToggleStatus(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleAddItem(c *gin.Context) {
	list, err := projects.ParseListName(c.Param("list"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var request contentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	project, err := h.projects.AddItem(c.Param("id"), list, request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *httpHandler) handleUpdateItem(c *gin.Context) {
	list, err := projects.ParseListName(c.Param("list"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	var request contentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	project, err := h.projects.UpdateItem(c.Param("id"), list, c.Param("itemID"), request.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleDeleteItem(c *gin.Context) {
	list, err := projects.ParseListName(c.Param("list"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	project, err := h.projects.DeleteItem(c.Param("id"), list, c.Param("itemID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *httpHandler) handleToggleAction(c *gin.Context) {
	project, err := h.projects.ToggleAction(c.Param("id"), c.Param("itemID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
