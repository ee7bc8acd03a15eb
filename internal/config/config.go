package config

import (
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type PeopleConfig struct {
	PageSize            int           `mapstructure:"page_size"`
	SearchDebounce      time.Duration `mapstructure:"search_debounce"`
	SearchMinLength     int           `mapstructure:"search_min_length"`
	SerializeRefreshes  bool          `mapstructure:"serialize_refreshes"`
	InviteTTL           time.Duration `mapstructure:"invite_ttl"`
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval"`
	// Latency is added to every reference directory call.
	Latency             time.Duration `mapstructure:"latency"`
}

type SeedUser struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
}

type SeedMember struct {
	Username string `mapstructure:"username"`
	Role     string `mapstructure:"role"`
}

type SeedOrganization struct {
	Name    string       `mapstructure:"name"`
	Slug    string       `mapstructure:"slug"`
	Members []SeedMember `mapstructure:"members"`
}

type SeedConfig struct {
	Users         []SeedUser         `mapstructure:"users"`
	Organizations []SeedOrganization `mapstructure:"organizations"`
}

type Config struct {
	ServerPort     string       `mapstructure:"server_port"`
	JWTSecret      string       `mapstructure:"jwt_secret"`
	AllowedOrigins []string     `mapstructure:"allowed_origins"`
	LogLevel       string       `mapstructure:"log_level"`
	People         PeopleConfig `mapstructure:"people"`
	Seed           SeedConfig   `mapstructure:"seed"`
}

// Load reads config.yaml from the current directory or ./config, with
// PEOPLE_* environment overrides, and exits on invalid configuration.
func Load() *Config {
	v := viper.New()

	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	return cfg
}

// FromViper applies env overrides and fallback defaults to an already-read viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PEOPLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("people.serialize_refreshes", true)
	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{"server_port", "jwt_secret", "log_level", "people.page_size", "people.search_debounce", "people.latency"} {
		_ = v.BindEnv(key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if config.People.PageSize <= 0 {
		config.People.PageSize = 20
	}
	if config.People.SearchDebounce <= 0 {
		config.People.SearchDebounce = 300 * time.Millisecond
	}
	if config.People.SearchMinLength <= 0 {
		config.People.SearchMinLength = 2
	}
	if config.People.InviteTTL <= 0 {
		config.People.InviteTTL = 7 * 24 * time.Hour
	}
	if config.People.ExpirySweepInterval <= 0 {
		config.People.ExpirySweepInterval = time.Minute
	}

	if config.JWTSecret == "" {
		return nil, errors.New("jwt_secret must be set in the config file or PEOPLE_JWT_SECRET")
	}
	return &config, nil
}
