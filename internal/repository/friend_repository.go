package repository

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stanstork/people-api/internal/models"
)

type FriendRepository interface {
	// CreateRequest fails with ErrConflict when a pending request exists between
	// the pair in either direction or the pair are already friends.
	CreateRequest(requesterID, targetUserID string) (models.FriendRequest, error)
	GetRequest(requestID string) (models.FriendRequest, error)
	TransitionRequest(requestID string, status models.FriendRequestStatus) (models.FriendRequest, error)
	ListRequestsSentBy(userID string) ([]models.FriendRequest, error)
	ListRequestsReceivedBy(userID string) ([]models.FriendRequest, error)

	AddConnection(userA, userB string) error
	RemoveConnection(userA, userB string) error
	ListConnections(userID string) ([]string, error)
	AreFriends(userA, userB string) bool
}

type friendRequestRecord struct {
	request models.FriendRequest
	seq     uint64
}

type friendRepository struct {
	mu          sync.RWMutex
	requests    map[string]*friendRequestRecord
	connections map[string]map[string]uint64
	seq         uint64
}

func NewFriendRepository() FriendRepository {
	return &friendRepository{
		requests:    make(map[string]*friendRequestRecord),
		connections: make(map[string]map[string]uint64),
	}
}

func (r *friendRepository) CreateRequest(requesterID, targetUserID string) (models.FriendRequest, error) {
	if requesterID == "" || targetUserID == "" {
		return models.FriendRequest{}, errors.New("requester and target are required")
	}
	if requesterID == targetUserID {
		return models.FriendRequest{}, errors.Wrap(ErrConflict, "cannot befriend yourself")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[requesterID][targetUserID]; ok {
		return models.FriendRequest{}, errors.Wrap(ErrConflict, "already friends")
	}
	for _, rec := range r.requests {
		req := rec.request
		if req.Status != models.FriendRequestPending {
			continue
		}
		if (req.RequesterID == requesterID && req.TargetUserID == targetUserID) ||
			(req.RequesterID == targetUserID && req.TargetUserID == requesterID) {
			return models.FriendRequest{}, errors.Wrap(ErrConflict, "a pending request already exists")
		}
	}

	r.seq++
	req := models.FriendRequest{
		ID:           uuid.NewString(),
		RequesterID:  requesterID,
		TargetUserID: targetUserID,
		Status:       models.FriendRequestPending,
	}
	r.requests[req.ID] = &friendRequestRecord{request: req, seq: r.seq}
	return req, nil
}

func (r *friendRepository) GetRequest(requestID string) (models.FriendRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.requests[requestID]
	if !ok {
		return models.FriendRequest{}, ErrNotFound
	}
	return rec.request, nil
}

func (r *friendRepository) TransitionRequest(requestID string, status models.FriendRequestStatus) (models.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.requests[requestID]
	if !ok {
		return models.FriendRequest{}, ErrNotFound
	}
	if rec.request.Status != models.FriendRequestPending {
		return rec.request, errors.Wrapf(ErrConflict, "friend request is %s", rec.request.Status)
	}
	rec.request.Status = status
	return rec.request, nil
}

func (r *friendRepository) ListRequestsSentBy(userID string) ([]models.FriendRequest, error) {
	return r.listRequests(func(req models.FriendRequest) bool { return req.RequesterID == userID }), nil
}

func (r *friendRepository) ListRequestsReceivedBy(userID string) ([]models.FriendRequest, error) {
	return r.listRequests(func(req models.FriendRequest) bool { return req.TargetUserID == userID }), nil
}

func (r *friendRepository) listRequests(match func(models.FriendRequest) bool) []models.FriendRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]*friendRequestRecord, 0)
	for _, rec := range r.requests {
		if match(rec.request) {
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs, func(rec *friendRequestRecord) uint64 { return rec.seq })

	out := make([]models.FriendRequest, len(recs))
	for i, rec := range recs {
		out[i] = rec.request
	}
	return out
}

func (r *friendRepository) AddConnection(userA, userB string) error {
	if userA == "" || userB == "" || userA == userB {
		return errors.New("two distinct users are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.link(userA, userB, r.seq)
	r.link(userB, userA, r.seq)
	return nil
}

func (r *friendRepository) link(owner, friend string, seq uint64) {
	if r.connections[owner] == nil {
		r.connections[owner] = make(map[string]uint64)
	}
	r.connections[owner][friend] = seq
}

func (r *friendRepository) RemoveConnection(userA, userB string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connections[userA][userB]; !ok {
		return ErrNotFound
	}
	delete(r.connections[userA], userB)
	delete(r.connections[userB], userA)
	return nil
}

// ListConnections returns friend ids, most recent friendship first.
func (r *friendRepository) ListConnections(userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		id  string
		seq uint64
	}
	entries := make([]entry, 0, len(r.connections[userID]))
	for id, seq := range r.connections[userID] {
		entries = append(entries, entry{id: id, seq: seq})
	}
	sortNewestFirst(entries, func(e entry) uint64 { return e.seq })

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, nil
}

func (r *friendRepository) AreFriends(userA, userB string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connections[userA][userB]
	return ok
}
