package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	memberService  *services.MemberService
}

func NewProjectHandler(db *gorm.DB, hub *services.EventHub) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db, hub),
		memberService:  services.NewMemberService(db),
	}
}

// List returns the caller's projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, projects)
}

// GetByID returns a project the caller manages
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if !h.requireMember(c, id) {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a new project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update edits project settings, owner only
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireOwner(c, id) {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// ToggleActive opens or closes the queue. Moderators may use this even
// though full settings edits stay owner only.
// POST /api/projects/:id/toggle-active
func (h *ProjectHandler) ToggleActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, id) {
		return
	}

	project, err := h.projectService.ToggleActive(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project and all of its data, owner only
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireOwner(c, id) {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "project deleted"})
}

func (h *ProjectHandler) requireMember(c *gin.Context, projectID uint) bool {
	ok, err := h.memberService.HasManagementAccess(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return false
	}
	if !ok {
		response.Forbidden(c, "you do not manage this project")
		return false
	}
	return true
}

func (h *ProjectHandler) requireOwner(c *gin.Context, projectID uint) bool {
	ok, err := h.memberService.IsOwner(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return false
	}
	if !ok {
		response.Forbidden(c, "only the project owner can do this")
		return false
	}
	return true
}

// parseID reads a uint path parameter or writes a 400 response.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
