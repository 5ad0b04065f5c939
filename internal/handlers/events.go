package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/config"
	"github.com/alfianmry16/open-mabar/internal/queue"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/internal/utils"
	"github.com/alfianmry16/open-mabar/pkg/logger"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

// EventsHandler streams live queue updates over Server-Sent Events.
type EventsHandler struct {
	hub            *services.EventHub
	queueService   *services.QueueService
	memberService  *services.MemberService
	projectService *services.ProjectService
	queueCfg       *config.QueueConfig
}

func NewEventsHandler(db *gorm.DB, hub *services.EventHub, queueCfg *config.QueueConfig) *EventsHandler {
	members := services.NewMemberService(db)
	return &EventsHandler{
		hub:            hub,
		queueService:   services.NewQueueService(db, members, hub),
		memberService:  members,
		projectService: services.NewProjectService(db, hub),
		queueCfg:       queueCfg,
	}
}

// StreamProject streams full queue snapshots to a project manager. The
// first message carries the current state; every change event after that
// triggers a refresh and a new snapshot.
// GET /api/projects/:id/events?token=...
func (h *EventsHandler) StreamProject(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	// EventSource cannot set headers, so the token rides in the query.
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		response.Unauthorized(c, "Unauthorized")
		return
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "Invalid token")
		return
	}

	hasAccess, err := h.memberService.HasManagementAccess(c.Request.Context(), projectID, claims.UserID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if !hasAccess {
		response.Forbidden(c, "you do not manage this project")
		return
	}

	sess := queue.NewSession(h.queueService, projectID, claims.UserID, h.queueCfg.PageSize, h.queueCfg.LeaderboardSize)
	defer sess.Close()
	if err := sess.Refresh(c.Request.Context()); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.stream(c, projectID, sess)
}

// StreamPublic streams snapshots of an active project's queue to anonymous
// viewers of the shared page.
// GET /api/p/:slug/events
func (h *EventsHandler) StreamPublic(c *gin.Context) {
	project, err := h.projectService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !project.IsActive {
		response.Forbidden(c, "this queue is closed")
		return
	}

	sess := queue.NewSession(h.queueService, project.ID, 0, h.queueCfg.PageSize, h.queueCfg.LeaderboardSize)
	defer sess.Close()
	if err := sess.Refresh(c.Request.Context()); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.stream(c, project.ID, sess)
}

func (h *EventsHandler) stream(c *gin.Context, projectID uint, sess *queue.Session) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Access-Control-Allow-Origin", "*")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID, projectID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().
		Str("client_id", clientID).
		Uint("project_id", projectID).
		Int("total", h.hub.ClientCount()).
		Msg("event stream client connected")

	sentInitial := false
	c.Stream(func(w io.Writer) bool {
		if !sentInitial {
			sentInitial = true
			return writeSnapshot(c, w, sess)
		}

		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
			// Collapse a rapid burst of events into one refresh.
			for drained := false; !drained; {
				select {
				case _, ok = <-events:
					if !ok {
						return false
					}
				default:
					drained = true
				}
			}
			if err := sess.Refresh(c.Request.Context()); err != nil {
				logger.Error().Err(err).Msg("event stream refresh error")
				return true
			}
			return writeSnapshot(c, w, sess)
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("event stream client disconnected")
			return false
		}
	})
}

func writeSnapshot(c *gin.Context, w io.Writer, sess *queue.Session) bool {
	data, err := json.Marshal(sess.Snapshot())
	if err != nil {
		logger.Error().Err(err).Msg("event stream marshal error")
		return true
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	c.Writer.Flush()
	return true
}
