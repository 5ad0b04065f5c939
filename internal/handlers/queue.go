package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/config"
	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/internal/queue"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

type QueueHandler struct {
	queueService  *services.QueueService
	memberService *services.MemberService
	queueCfg      *config.QueueConfig
}

func NewQueueHandler(db *gorm.DB, hub *services.EventHub, queueCfg *config.QueueConfig) *QueueHandler {
	members := services.NewMemberService(db)
	return &QueueHandler{
		queueService:  services.NewQueueService(db, members, hub),
		memberService: members,
		queueCfg:      queueCfg,
	}
}

// List returns the project's entries, optionally filtered
// GET /api/projects/:id/queue?bucket=&search=&fast_track=&role_id=
func (h *QueueHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	entries, err := h.queueService.ListEntries(c.Request.Context(), projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	spec := queue.FilterSpec{
		Bucket: c.Query("bucket"),
		Search: c.Query("search"),
	}
	if v := c.Query("fast_track"); v == "true" || v == "false" {
		fastTrack := v == "true"
		spec.FastTrack = &fastTrack
	}
	if roleID, err := strconv.ParseUint(c.Query("role_id"), 10, 32); err == nil {
		spec.RoleID = uint(roleID)
	}

	response.Success(c, queue.Filter(entries, spec))
}

// Snapshot returns the full queue view: buckets, roles and leaderboard
// GET /api/projects/:id/queue/snapshot
func (h *QueueHandler) Snapshot(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	sess := queue.NewSession(h.queueService, projectID, middleware.GetUserID(c), h.queueCfg.PageSize, h.queueCfg.LeaderboardSize)
	defer sess.Close()
	if err := sess.Refresh(c.Request.Context()); err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, sess.Snapshot())
}

// Add puts a player in the queue or tops up their pending games
// POST /api/projects/:id/queue
func (h *QueueHandler) Add(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req queue.AddPlayerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.queueService.AddPlayer(c.Request.Context(), middleware.GetUserID(c), projectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an entry between waiting, playing and done
// PUT /api/projects/:id/queue/:entryId/status
func (h *QueueHandler) UpdateStatus(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.queueService.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), projectID, entryID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// IncrementPlayed bumps an entry's play counter
// POST /api/projects/:id/queue/:entryId/played
func (h *QueueHandler) IncrementPlayed(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	entry, err := h.queueService.IncrementGamesPlayed(c.Request.Context(), middleware.GetUserID(c), projectID, entryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

type incrementRequestedRequest struct {
	Delta int `json:"delta"`
}

// IncrementRequested raises an entry's requested-games total
// POST /api/projects/:id/queue/:entryId/requested
func (h *QueueHandler) IncrementRequested(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	req := incrementRequestedRequest{Delta: 1}
	_ = c.ShouldBindJSON(&req)

	entry, err := h.queueService.IncrementGamesRequested(c.Request.Context(), middleware.GetUserID(c), projectID, entryID, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// ToggleFastTrack flips an entry's fast-track flag
// POST /api/projects/:id/queue/:entryId/fast-track
func (h *QueueHandler) ToggleFastTrack(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	entry, err := h.queueService.ToggleFastTrack(c.Request.Context(), middleware.GetUserID(c), projectID, entryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

type updateEntryRequest struct {
	DisplayName *string `json:"display_name"`
	Notes       *string `json:"notes"`
	RoleIDs     []uint  `json:"role_ids"`
}

// Update edits an entry's descriptive fields
// PUT /api/projects/:id/queue/:entryId
func (h *QueueHandler) Update(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.queueService.UpdateEntry(c.Request.Context(), middleware.GetUserID(c), projectID, entryID, req.DisplayName, req.Notes, req.RoleIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// Remove deletes an entry from the queue
// DELETE /api/projects/:id/queue/:entryId
func (h *QueueHandler) Remove(c *gin.Context) {
	projectID, entryID, ok := h.parsePair(c)
	if !ok {
		return
	}

	if err := h.queueService.RemovePlayer(c.Request.Context(), middleware.GetUserID(c), projectID, entryID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "player removed"})
}

// Leaderboard returns the top players by games played
// GET /api/projects/:id/leaderboard
func (h *QueueHandler) Leaderboard(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, projectID) {
		return
	}

	entries, err := h.queueService.ListEntries(c.Request.Context(), projectID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, queue.Leaderboard(entries, h.queueCfg.LeaderboardSize))
}

func (h *QueueHandler) parsePair(c *gin.Context) (projectID, entryID uint, ok bool) {
	projectID, ok = parseID(c, "id")
	if !ok {
		return 0, 0, false
	}
	entryID, ok = parseID(c, "entryId")
	if !ok {
		return 0, 0, false
	}
	return projectID, entryID, true
}

func (h *QueueHandler) requireMember(c *gin.Context, projectID uint) bool {
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
