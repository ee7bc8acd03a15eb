package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readYAML(t *testing.T, doc string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(readYAML(t, "jwt_secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 20, cfg.People.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.People.SearchDebounce)
	assert.Equal(t, 2, cfg.People.SearchMinLength)
	assert.True(t, cfg.People.SerializeRefreshes)
	assert.Equal(t, 7*24*time.Hour, cfg.People.InviteTTL)
	assert.Equal(t, time.Minute, cfg.People.ExpirySweepInterval)
}

func TestFromViper_File(t *testing.T) {
	cfg, err := FromViper(readYAML(t, `
server_port: "9000"
jwt_secret: s3cret
allowed_origins: ["https://app.example.com"]
people:
  page_size: 50
  search_debounce: 150ms
  serialize_refreshes: false
seed:
  users:
    - username: alice
      email: alice@example.com
  organizations:
    - name: Acme
      slug: acme
      members:
        - username: alice
          role: owner
`))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 50, cfg.People.PageSize)
	assert.Equal(t, 150*time.Millisecond, cfg.People.SearchDebounce)
	assert.False(t, cfg.People.SerializeRefreshes)
	require.Len(t, cfg.Seed.Users, 1)
	require.Len(t, cfg.Seed.Organizations, 1)
	assert.Equal(t, "owner", cfg.Seed.Organizations[0].Members[0].Role)
}

func TestFromViper_EnvOverride(t *testing.T) {
	t.Setenv("PEOPLE_JWT_SECRET", "from-env")
	t.Setenv("PEOPLE_SERVER_PORT", "7070")
	cfg, err := FromViper(readYAML(t, "log_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "7070", cfg.ServerPort)
}

func TestFromViper_RequiresSecret(t *testing.T) {
	_, err := FromViper(readYAML(t, "server_port: \"8080\"\n"))
	assert.Error(t, err)
}
