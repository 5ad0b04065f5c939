package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/internal/config"
	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/internal/queue"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/pkg/response"
)

// PublicHandler serves the read-only queue view reachable by slug, no
// authentication required.
type PublicHandler struct {
	projectService *services.ProjectService
	queueService   *services.QueueService
	queueCfg       *config.QueueConfig
}

func NewPublicHandler(db *gorm.DB, hub *services.EventHub, queueCfg *config.QueueConfig) *PublicHandler {
	return &PublicHandler{
		projectService: services.NewProjectService(db, hub),
		queueService:   services.NewQueueService(db, services.NewMemberService(db), hub),
		queueCfg:       queueCfg,
	}
}

type publicOwner struct {
	FullName    string `json:"full_name"`
	AvatarURL   string `json:"avatar_url"`
	SocialLinks string `json:"social_links"`
}

type publicRole struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type publicEntry struct {
	Name        string `json:"name"`
	Position    int    `json:"position"`
	IsFastTrack bool   `json:"is_fast_track"`
	RoleIDs     []uint `json:"role_ids"`
	GamesPlayed int    `json:"games_played"`
	GamesTotal  int    `json:"games_total"`
}

// PublicView is everything a visitor sees on the shared queue page.
type PublicView struct {
	ProjectName string                 `json:"project_name"`
	GameName    string                 `json:"game_name"`
	IsActive    bool                   `json:"is_active"`
	Owner       *publicOwner           `json:"owner,omitempty"`
	Roles       []publicRole           `json:"roles,omitempty"`
	Waiting     []publicEntry          `json:"waiting,omitempty"`
	Playing     []publicEntry          `json:"playing,omitempty"`
	Leaderboard []queue.LeaderboardRow `json:"leaderboard,omitempty"`
}

// View renders the public queue page data
// GET /api/p/:slug
func (h *PublicHandler) View(c *gin.Context) {
	project, err := h.projectService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	view := PublicView{
		ProjectName: project.Name,
		GameName:    project.GameName,
		IsActive:    project.IsActive,
	}
	if project.Owner != nil {
		view.Owner = &publicOwner{
			FullName:    project.Owner.FullName,
			AvatarURL:   project.Owner.AvatarURL,
			SocialLinks: project.Owner.SocialLinks,
		}
	}

	// An inactive project only shows its header; the queue stays hidden.
	if !project.IsActive {
		response.Success(c, view)
		return
	}

	populated, err := h.buildView(c, project, view)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, *populated)
}

func (h *PublicHandler) buildView(c *gin.Context, project *models.Project, view PublicView) (*PublicView, error) {
	ctx := c.Request.Context()

	roles, err := h.queueService.ListRoles(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	for i, r := range roles {
		view.Roles = append(view.Roles, publicRole{ID: r.ID, Name: r.Name, Color: queue.RoleColor(i)})
	}

	entries, err := h.queueService.ListEntries(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	queue.SortEntries(entries)
	waiting, playing, _ := queue.Partition(entries)

	for i := range waiting {
		view.Waiting = append(view.Waiting, toPublicEntry(&waiting[i], i+1))
	}
	view.Waiting = trimPublic(view.Waiting, h.queueCfg.PageSize)
	for i := range playing {
		view.Playing = append(view.Playing, toPublicEntry(&playing[i], 0))
	}
	view.Leaderboard = queue.Leaderboard(entries, h.queueCfg.LeaderboardSize)
	return &view, nil
}

func toPublicEntry(e *models.QueueEntry, position int) publicEntry {
	return publicEntry{
		Name:        queue.ResolvePlayerName(e),
		Position:    position,
		IsFastTrack: e.IsFastTrack,
		RoleIDs:     e.RoleIDs,
		GamesPlayed: e.GamesPlayed,
		GamesTotal:  e.GamesRequested,
	}
}

func trimPublic(entries []publicEntry, size int) []publicEntry {
	if size <= 0 || len(entries) <= size {
		return entries
	}
	return entries[:size]
}
