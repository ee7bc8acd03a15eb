package repository

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stanstork/people-api/internal/models"
)

type InviteRepository interface {
	CreateInvite(invite models.Invitation, tokenHash string) (models.Invitation, error)
	GetInvite(inviteID string) (models.Invitation, error)
	GetInviteByTokenHash(tokenHash string) (models.Invitation, error)
	// TransitionInvite moves a pending invite to status. It fails with ErrConflict
	// when the invite is no longer pending.
	TransitionInvite(inviteID string, status models.InvitationStatus) (models.Invitation, error)
	RenewInvite(inviteID string, expiresAt int64, tokenHash string) (models.Invitation, error)
	ListInvitesCreatedBy(userID string) ([]models.Invitation, error)
	ListInvitesForInvitee(userID string) ([]models.Invitation, error)
	HasPendingInvite(orgID, inviteeUserID string) bool
	// ExpireOverdue moves every pending invite whose expiry is before nowMillis to expired.
	ExpireOverdue(nowMillis int64) ([]models.Invitation, error)
}

type inviteRecord struct {
	invite    models.Invitation
	tokenHash string
	seq       uint64
}

type inviteRepository struct {
	mu      sync.RWMutex
	invites map[string]*inviteRecord
	seq     uint64
}

func NewInviteRepository() InviteRepository {
	return &inviteRepository{invites: make(map[string]*inviteRecord)}
}

func (r *inviteRepository) CreateInvite(invite models.Invitation, tokenHash string) (models.Invitation, error) {
	if invite.OrgID == "" || invite.InviteeUserID == "" {
		return models.Invitation{}, errors.New("org and invitee are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	invite.ID = uuid.NewString()
	invite.Status = models.InvitationPending
	r.invites[invite.ID] = &inviteRecord{invite: invite, tokenHash: tokenHash, seq: r.seq}
	return invite, nil
}

func (r *inviteRepository) GetInvite(inviteID string) (models.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.invites[inviteID]
	if !ok {
		return models.Invitation{}, ErrNotFound
	}
	return rec.invite, nil
}

func (r *inviteRepository) GetInviteByTokenHash(tokenHash string) (models.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.invites {
		if rec.tokenHash == tokenHash {
			return rec.invite, nil
		}
	}
	return models.Invitation{}, ErrNotFound
}

func (r *inviteRepository) TransitionInvite(inviteID string, status models.InvitationStatus) (models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.invites[inviteID]
	if !ok {
		return models.Invitation{}, ErrNotFound
	}
	if rec.invite.Status != models.InvitationPending {
		return rec.invite, errors.Wrapf(ErrConflict, "invitation is %s", rec.invite.Status)
	}
	rec.invite.Status = status
	return rec.invite, nil
}

// RenewInvite rotates the token and expiry of a pending or expired invitation.
// An expired invitation comes back as pending; every other terminal status is a conflict.
func (r *inviteRepository) RenewInvite(inviteID string, expiresAt int64, tokenHash string) (models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.invites[inviteID]
	if !ok {
		return models.Invitation{}, ErrNotFound
	}
	switch rec.invite.Status {
	case models.InvitationPending, models.InvitationExpired:
	default:
		return rec.invite, errors.Wrapf(ErrConflict, "invitation is %s", rec.invite.Status)
	}
	rec.invite.Status = models.InvitationPending
	rec.invite.ExpiresAt = expiresAt
	rec.tokenHash = tokenHash
	return rec.invite, nil
}

func (r *inviteRepository) ListInvitesCreatedBy(userID string) ([]models.Invitation, error) {
	return r.list(func(inv models.Invitation) bool {
		return inv.CreatedBy != nil && *inv.CreatedBy == userID
	}), nil
}

func (r *inviteRepository) ListInvitesForInvitee(userID string) ([]models.Invitation, error) {
	return r.list(func(inv models.Invitation) bool {
		return inv.InviteeUserID == userID
	}), nil
}

func (r *inviteRepository) HasPendingInvite(orgID, inviteeUserID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.invites {
		inv := rec.invite
		if inv.OrgID == orgID && inv.InviteeUserID == inviteeUserID && inv.Status == models.InvitationPending {
			return true
		}
	}
	return false
}

func (r *inviteRepository) ExpireOverdue(nowMillis int64) ([]models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []*inviteRecord
	for _, rec := range r.invites {
		if rec.invite.Status == models.InvitationPending && nowMillis > rec.invite.ExpiresAt {
			rec.invite.Status = models.InvitationExpired
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs, func(rec *inviteRecord) uint64 { return rec.seq })

	out := make([]models.Invitation, len(recs))
	for i, rec := range recs {
		out[i] = rec.invite
	}
	return out, nil
}

// list returns matching invites newest first.
func (r *inviteRepository) list(match func(models.Invitation) bool) []models.Invitation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]*inviteRecord, 0, len(r.invites))
	for _, rec := range r.invites {
		if match(rec.invite) {
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs, func(rec *inviteRecord) uint64 { return rec.seq })

	out := make([]models.Invitation, len(recs))
	for i, rec := range recs {
		out[i] = rec.invite
	}
	return out
}
