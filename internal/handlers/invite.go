package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type InviteHandler struct {
	inviteService *services.InviteService
	memberService *services.MemberService
}

func NewInviteHandler(db *gorm.DB) *InviteHandler {
	return &InviteHandler{
		inviteService: services.NewInviteService(db),
		memberService: services.NewMemberService(db),
	}
}

// Create issues an invite link, owner only
// POST /api/projects/:id/invites
func (h *InviteHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireOwner(c, projectID) {
		return
	}

	var req services.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	link, err := h.inviteService.Create(c.Request.Context(), projectID, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// List returns the project's invite links, owner only
// GET /api/projects/:id/invites
func (h *InviteHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireOwner(c, projectID) {
		return
	}

	links, err := h.inviteService.List(c.Request.Context(), projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, links)
}

// Deactivate turns an invite link off, owner only
// DELETE /api/projects/:id/invites/:inviteId
func (h *InviteHandler) Deactivate(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	inviteID, ok := parseID(c, "inviteId")
	if !ok {
		return
	}
	if !h.requireOwner(c, projectID) {
		return
	}

	if err := h.inviteService.Deactivate(c.Request.Context(), projectID, inviteID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "invite deactivated"})
}

// Preview resolves a token into public invite details
// GET /api/invites/:token
func (h *InviteHandler) Preview(c *gin.Context) {
	preview, err := h.inviteService.Preview(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, preview)
}

// Redeem joins the caller to the invite's project as a moderator
// POST /api/invites/:token/redeem
func (h *InviteHandler) Redeem(c *gin.Context) {
	project, err := h.inviteService.Redeem(c.Request.Context(), c.Param("token"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

func (h *InviteHandler) requireOwner(c *gin.Context, projectID uint) bool {
	ok, err := h.memberService.IsOwner(c.Request.Context(), projectID, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return false
	}
	if !ok {
		response.Forbidden(c, "only the project owner can manage invites")
		return false
	}
	return true
}
