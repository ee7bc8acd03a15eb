package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/people-api/internal/config"
	"github.com/stanstork/people-api/internal/directory"
	"github.com/stanstork/people-api/internal/models"
)

// seedBackend loads the users and organizations listed under "seed" in the config.
func seedBackend(backend *directory.Backend, seed config.SeedConfig, logger zerolog.Logger) error {
	byUsername := make(map[string]string, len(seed.Users))
	for _, u := range seed.Users {
		user, err := backend.Users.CreateUser(u.Username, u.Email)
		if err != nil {
			return errors.Wrapf(err, "seed user %q", u.Username)
		}
		byUsername[user.Username] = user.ID
	}

	for _, o := range seed.Organizations {
		org, err := backend.Organizations.CreateOrganization(o.Name, o.Slug)
		if err != nil {
			return errors.Wrapf(err, "seed organization %q", o.Name)
		}
		for _, m := range o.Members {
			userID, ok := byUsername[m.Username]
			if !ok {
				return errors.Errorf("seed organization %q: unknown member %q", o.Name, m.Username)
			}
			role := models.Role(m.Role)
			if role == "" {
				role = models.RoleMember
			}
			if err := backend.Organizations.AddMember(org.ID, userID, role); err != nil {
				return errors.Wrapf(err, "seed membership %s/%s", o.Name, m.Username)
			}
		}
	}

	logger.Info().
		Int("users", len(seed.Users)).
		Int("organizations", len(seed.Organizations)).
		Msg("Seeded reference directory")
	return nil
}
