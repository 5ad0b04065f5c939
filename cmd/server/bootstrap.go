package main

import (
	"github.com/alfianmry16/open-mabar/internal/config"
	"github.com/alfianmry16/open-mabar/internal/handlers"
	"github.com/alfianmry16/open-mabar/internal/models"
	"github.com/alfianmry16/open-mabar/internal/services"
	"github.com/alfianmry16/open-mabar/internal/utils"
	"github.com/alfianmry16/open-mabar/pkg/logger"
)

// appServices holds the initialized handlers and background services.
type appServices struct {
	hub           *services.EventHub
	inviteSweeper *services.InviteSweeper

	authHandler    *handlers.AuthHandler
	projectHandler *handlers.ProjectHandler
	queueHandler   *handlers.QueueHandler
	roleHandler    *handlers.RoleHandler
	memberHandler  *handlers.MemberHandler
	inviteHandler  *handlers.InviteHandler
	publicHandler  *handlers.PublicHandler
	eventsHandler  *handlers.EventsHandler
	healthHandler  *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, event hub,
// handlers and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(cfg); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	db := models.GetDB()

	hub := services.NewEventHub()

	return &appServices{
		hub:           hub,
		inviteSweeper: services.StartInviteSweeper(db),

		authHandler:    handlers.NewAuthHandler(db, &cfg.JWT),
		projectHandler: handlers.NewProjectHandler(db, hub),
		queueHandler:   handlers.NewQueueHandler(db, hub, &cfg.Queue),
		roleHandler:    handlers.NewRoleHandler(db, hub),
		memberHandler:  handlers.NewMemberHandler(db),
		inviteHandler:  handlers.NewInviteHandler(db),
		publicHandler:  handlers.NewPublicHandler(db, hub, &cfg.Queue),
		eventsHandler:  handlers.NewEventsHandler(db, hub, &cfg.Queue),
		healthHandler:  handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops background services.
func (s *appServices) shutdown() {
	s.inviteSweeper.Stop()
	logger.Info().Msg("Schedulers stopped")
}
