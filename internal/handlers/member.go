package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(db *gorm.DB) *MemberHandler {
	return &MemberHandler{
		memberService: services.NewMemberService(db),
	}
}

// List returns the project's members with profiles
// GET /api/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	hasAccess, err := h.memberService.HasManagementAccess(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if !hasAccess {
		response.Forbidden(c, "you do not manage this project")
		return
	}

	members, err := h.memberService.List(c.Request.Context(), projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, members)
}

// Add invites a registered user as moderator by email, owner only
// POST /api/projects/:id/members
func (h *MemberHandler) Add(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	isOwner, err := h.memberService.IsOwner(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if !isOwner {
		response.Forbidden(c, "only the project owner can add members")
		return
	}

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.memberService.AddByEmail(c.Request.Context(), projectID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Remove kicks a moderator, owner only
// DELETE /api/projects/:id/members/:memberId
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	isOwner, err := h.memberService.IsOwner(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if !isOwner {
		response.Forbidden(c, "only the project owner can remove members")
		return
	}

	if err := h.memberService.Remove(c.Request.Context(), projectID, memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}
