package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/people-api/internal/config"
	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
)

func TestSeedBackend(t *testing.T) {
	backend := directory.NewBackend()
	err := seedBackend(backend, config.SeedConfig{
		Users: []config.SeedUser{{Username: "alice", Email: "alice@example.com"}, {Username: "bob"}},
		Organizations: []config.SeedOrganization{{
			Name:    "Acme",
			Slug:    "acme",
			Members: []config.SeedMember{{Username: "alice", Role: "owner"}, {Username: "bob"}},
		}},
	}, zerolog.Nop())
	require.NoError(t, err)

	org, err := backend.Organizations.GetOrganizationBySlug("acme")
	require.NoError(t, err)
	bob, err := backend.Users.GetUserByUsername("bob")
	require.NoError(t, err)
	m, err := backend.Organizations.GetMembership(org.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.Equal(t, 2, backend.Organizations.CountMembers(org.ID))
}

func TestSeedBackend_UnknownMember(t *testing.T) {
	err := seedBackend(directory.NewBackend(), config.SeedConfig{
		Organizations: []config.SeedOrganization{{Name: "Acme", Members: []config.SeedMember{{Username: "ghost"}}}},
	}, zerolog.Nop())
	assert.Error(t, err)
}
