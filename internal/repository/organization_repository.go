package repository

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stanstork/people-api/internal/models"
)

type OrganizationRepository interface {
	CreateOrganization(name, slug string) (models.Organization, error)
	GetOrganizationByID(id string) (models.Organization, error)
	GetOrganizationBySlug(slug string) (models.Organization, error)
	// AddMember upserts the membership; an existing member keeps the higher role.
	AddMember(orgID, userID string, role models.Role) error
	GetMembership(orgID, userID string) (models.Membership, error)
	ListMembershipsByUser(userID string) ([]models.Membership, error)
	CountMembers(orgID string) int
}

type organizationRepository struct {
	mu      sync.RWMutex
	orgs    map[string]models.Organization
	order   []string
	members map[string]map[string]models.Role
}

func NewOrganizationRepository() OrganizationRepository {
	return &organizationRepository{
		orgs:    make(map[string]models.Organization),
		members: make(map[string]map[string]models.Role),
	}
}

func (r *organizationRepository) CreateOrganization(name, slug string) (models.Organization, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(strings.ToLower(slug))
	if name == "" {
		return models.Organization{}, errors.New("organization name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slug != "" {
		for _, org := range r.orgs {
			if org.Slug == slug {
				return models.Organization{}, errors.Wrapf(ErrConflict, "duplicate slug %q", slug)
			}
		}
	}

	org := models.Organization{ID: uuid.NewString(), Name: name, Slug: slug}
	r.orgs[org.ID] = org
	r.order = append(r.order, org.ID)
	r.members[org.ID] = make(map[string]models.Role)
	return org, nil
}

func (r *organizationRepository) GetOrganizationByID(id string) (models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.orgs[id]
	if !ok {
		return models.Organization{}, ErrNotFound
	}
	return org, nil
}

func (r *organizationRepository) GetOrganizationBySlug(slug string) (models.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, org := range r.orgs {
		if org.Slug == slug {
			return org, nil
		}
	}
	return models.Organization{}, ErrNotFound
}

func (r *organizationRepository) AddMember(orgID, userID string, role models.Role) error {
	if !models.IsValidRole(role) {
		return errors.Errorf("invalid role %q", role)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.members[orgID]
	if !ok {
		return ErrNotFound
	}
	if existing, ok := members[userID]; ok && roleRank(existing) >= roleRank(role) {
		return nil
	}
	members[userID] = role
	return nil
}

func (r *organizationRepository) GetMembership(orgID, userID string) (models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.members[orgID][userID]
	if !ok {
		return models.Membership{}, ErrNotFound
	}
	return models.Membership{OrgID: orgID, UserID: userID, Role: role}, nil
}

// ListMembershipsByUser returns memberships in organization creation order.
func (r *organizationRepository) ListMembershipsByUser(userID string) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Membership
	for _, orgID := range r.order {
		if role, ok := r.members[orgID][userID]; ok {
			out = append(out, models.Membership{OrgID: orgID, UserID: userID, Role: role})
		}
	}
	return out, nil
}

func (r *organizationRepository) CountMembers(orgID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[orgID])
}

func roleRank(role models.Role) int {
	switch role {
	case models.RoleOwner:
		return 3
	case models.RoleAdmin:
		return 2
	case models.RoleMember:
		return 1
	}
	return 0
}
