package repository

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stanstork/people-api/internal/models"
)

type UserRepository interface {
	CreateUser(username, email string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
	GetUserByUsername(username string) (models.User, error)
	SearchUsers(query string, excludeUserID string, limit int) ([]models.User, error)
}

type userRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewUserRepository() UserRepository {
	return &userRepository{users: make(map[string]models.User)}
}

func (u *userRepository) CreateUser(username, email string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" && email == "" {
		return models.User{}, errors.New("username or email is required")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, existing := range u.users {
		if username != "" && strings.EqualFold(existing.Username, username) {
			return models.User{}, errors.Wrapf(ErrConflict, "duplicate username %q", username)
		}
		if email != "" && existing.Email == email {
			return models.User{}, errors.Wrapf(ErrConflict, "duplicate email %q", email)
		}
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		IsActive: true,
	}
	u.users[user.ID] = user
	u.order = append(u.order, user.ID)
	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (u *userRepository) GetUserByUsername(username string) (models.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, user := range u.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// SearchUsers matches a case-insensitive substring of username or email.
// Exact username matches sort first, then insertion order.
func (u *userRepository) SearchUsers(query string, excludeUserID string, limit int) ([]models.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	u.mu.RLock()
	defer u.mu.RUnlock()

	var matches []models.User
	for _, id := range u.order {
		user := u.users[id]
		if user.ID == excludeUserID || !user.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), q) || strings.Contains(user.Email, q) {
			matches = append(matches, user)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Username) == q && strings.ToLower(matches[j].Username) != q
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
