package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type RoleHandler struct {
	roleService   *services.RoleService
	memberService *services.MemberService
}

func NewRoleHandler(db *gorm.DB, hub *services.EventHub) *RoleHandler {
	return &RoleHandler{
		roleService:   services.NewRoleService(db, hub),
		memberService: services.NewMemberService(db),
	}
}

// List returns the project's roles in display order
// GET /api/projects/:id/roles
func (h *RoleHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	roles, err := h.roleService.List(c.Request.Context(), projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, roles)
}

// Create adds a role to the project
// POST /api/projects/:id/roles
func (h *RoleHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	var req services.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// Update renames or reorders a role
// PUT /api/projects/:id/roles/:roleId
func (h *RoleHandler) Update(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	roleID, ok := parseID(c, "roleId")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), projectID, roleID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

// Delete removes a role and untags every entry carrying it
// DELETE /api/projects/:id/roles/:roleId
func (h *RoleHandler) Delete(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	roleID, ok := parseID(c, "roleId")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), projectID, roleID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "role deleted"})
}

func (h *RoleHandler) requireMember(c *gin.Context, projectID uint) bool {
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
