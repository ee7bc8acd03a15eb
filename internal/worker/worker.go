// Package worker runs periodic maintenance against the reference directory.
package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/repository"
)

const defaultPollInterval = time.Minute

// ExpiredHandler is told about invitations the sweeper just expired.
type ExpiredHandler func(ctx context.Context, expired []models.Invitation)

type Config struct {
	Invites      repository.InviteRepository
	PollInterval time.Duration
	Now          func() time.Time
	OnExpired    ExpiredHandler
}

// ExpirySweeper marks pending invitations past their expiry as expired, so
// list views stop offering accept/decline on them.
type ExpirySweeper struct {
	cfg    Config
	logger zerolog.Logger
}

func NewExpirySweeper(cfg Config, logger zerolog.Logger) *ExpirySweeper {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ExpirySweeper{
		cfg:    cfg,
		logger: logger.With().Str("component", "expiry_sweeper").Logger(),
	}
}

// Start sweeps every poll interval until ctx is done.
func (w *ExpirySweeper) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.cfg.PollInterval).Msg("Expiry sweeper started")
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				// Log the error, but keep sweeping
				w.logger.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

// Sweep runs one pass and returns how many invitations it expired.
func (w *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := w.cfg.Invites.ExpireOverdue(w.cfg.Now().UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "expire overdue invitations")
	}
	if len(expired) == 0 {
		return 0, nil
	}
	w.logger.Info().Int("count", len(expired)).Msg("expired overdue invitations")
	if w.cfg.OnExpired != nil {
		w.cfg.OnExpired(ctx, expired)
	}
	return len(expired), nil
}
