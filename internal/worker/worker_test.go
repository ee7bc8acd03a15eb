package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/people-api/internal/models"
	"github.com/stanstork/people-api/internal/repository"
)

func TestExpirySweeper_Sweep(t *testing.T) {
	invites := repository.NewInviteRepository()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := invites.CreateInvite(models.Invitation{OrgID: "o1", InviteeUserID: "u1", ExpiresAt: now.Add(-time.Hour).UnixMilli()}, "a")
	require.NoError(t, err)
	_, err = invites.CreateInvite(models.Invitation{OrgID: "o1", InviteeUserID: "u2", ExpiresAt: now.Add(time.Hour).UnixMilli()}, "b")
	require.NoError(t, err)

	var notified []models.Invitation
	w := NewExpirySweeper(Config{
		Invites:   invites,
		Now:       func() time.Time { return now },
		OnExpired: func(ctx context.Context, expired []models.Invitation) { notified = expired },
	}, zerolog.Nop())

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, notified, 1)
	assert.Equal(t, "u1", notified[0].InviteeUserID)

	n, err = w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpirySweeper_StartStopsOnCancel(t *testing.T) {
	invites := repository.NewInviteRepository()
	_, err := invites.CreateInvite(models.Invitation{OrgID: "o1", InviteeUserID: "u1", ExpiresAt: 1}, "a")
	require.NoError(t, err)

	var mu sync.Mutex
	swept := 0
	w := NewExpirySweeper(Config{
		Invites:      invites,
		PollInterval: 5 * time.Millisecond,
		OnExpired: func(ctx context.Context, expired []models.Invitation) {
			mu.Lock()
			swept += len(expired)
			mu.Unlock()
		},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return swept == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
