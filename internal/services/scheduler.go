package services

import (
	"context"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/alfianmry16/open-mabar/pkg/logger"
)

// InviteSweeper periodically deactivates expired invite links.
type InviteSweeper struct {
	cron    *cron.Cron
	invites *InviteService
}

// StartInviteSweeper launches the background sweep, every 15 minutes.
func StartInviteSweeper(db *gorm.DB) *InviteSweeper {
	s := &InviteSweeper{
		cron:    cron.New(),
		invites: NewInviteService(db),
	}
	if _, err := s.cron.AddFunc("@every 15m", s.sweep); err != nil {
		logger.Error().Err(err).Msg("failed to schedule invite sweep")
		return s
	}
	s.cron.Start()
	logger.Info().Msg("invite link sweeper started")
	return s
}

func (s *InviteSweeper) sweep() {
	if _, err := s.invites.SweepExpired(context.Background()); err != nil {
		logger.Error().Err(err).Msg("invite sweep failed")
	}
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *InviteSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
