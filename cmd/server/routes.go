package main

import (
	"github.com/gin-gonic/gin"

	"github.com/alfianmry16/open-mabar/internal/middleware"
	"github.com/alfianmry16/open-mabar/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated routes
	publicLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", svc.healthHandler.Check)

	api := r.Group("/api")
	{
		api.GET("/health", svc.healthHandler.Check)

		// Auth routes (public, rate limited)
		auth := api.Group("/auth", publicLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Public read-only queue views (rate limited, no auth)
		public := api.Group("/p", publicLimiter.Middleware())
		{
			public.GET("/:slug", svc.publicHandler.View)
			public.GET("/:slug/events", svc.eventsHandler.StreamPublic)
		}

		// Invite preview is public; redeeming needs a logged-in account
		api.GET("/invites/:token", publicLimiter.Middleware(), svc.inviteHandler.Preview)

		// Live management stream (token validated inside the handler, since
		// EventSource cannot send an Authorization header)
		api.GET("/projects/:id/events", svc.eventsHandler.StreamProject)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Account
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.PUT("/auth/me", svc.authHandler.UpdateProfile)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Invite redemption
			protected.POST("/invites/:token/redeem", svc.inviteHandler.Redeem)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.POST("/projects/:id/toggle-active", svc.projectHandler.ToggleActive)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Queue
			protected.GET("/projects/:id/queue", svc.queueHandler.List)
			protected.GET("/projects/:id/queue/snapshot", svc.queueHandler.Snapshot)
			protected.POST("/projects/:id/queue", svc.queueHandler.Add)
			protected.PUT("/projects/:id/queue/:entryId", svc.queueHandler.Update)
			protected.PUT("/projects/:id/queue/:entryId/status", svc.queueHandler.UpdateStatus)
			protected.POST("/projects/:id/queue/:entryId/played", svc.queueHandler.IncrementPlayed)
			protected.POST("/projects/:id/queue/:entryId/requested", svc.queueHandler.IncrementRequested)
			protected.POST("/projects/:id/queue/:entryId/fast-track", svc.queueHandler.ToggleFastTrack)
			protected.DELETE("/projects/:id/queue/:entryId", svc.queueHandler.Remove)
			protected.GET("/projects/:id/leaderboard", svc.queueHandler.Leaderboard)

			// Roles
			protected.GET("/projects/:id/roles", svc.roleHandler.List)
			protected.POST("/projects/:id/roles", svc.roleHandler.Create)
			protected.PUT("/projects/:id/roles/:roleId", svc.roleHandler.Update)
			protected.DELETE("/projects/:id/roles/:roleId", svc.roleHandler.Delete)

			// Members
			protected.GET("/projects/:id/members", svc.memberHandler.List)
			protected.POST("/projects/:id/members", svc.memberHandler.Add)
			protected.DELETE("/projects/:id/members/:memberId", svc.memberHandler.Remove)

			// Invites (management)
			protected.GET("/projects/:id/invites", svc.inviteHandler.List)
			protected.POST("/projects/:id/invites", svc.inviteHandler.Create)
			protected.DELETE("/projects/:id/invites/:inviteId", svc.inviteHandler.Deactivate)
		}
	}
}
