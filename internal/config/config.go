package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
	"setteemezzo-server/internal/util"
)

// Config provides configuration for the sette e mezzo server
type Config struct {
	loaded         bool
	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`
	JWT            struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	}
	RecaptchaSecret string `yaml:"recaptchaSecret" envconfig:"recaptcha_secret"`
	// PlayerCreateDelay is the minimum number of seconds between two player
	// registrations from the same remote address
	PlayerCreateDelay int `yaml:"playerCreateDelay" envconfig:"player_create_delay"`
	// StartingBalance is the number of chips a new player receives
	StartingBalance int `yaml:"startingBalance" envconfig:"starting_balance"`
	Session         struct {
		// EndedTTL is how many seconds a finished session is kept around
		EndedTTL int `yaml:"endedTtl" envconfig:"ended_ttl"`
		// IdleTTL is how many seconds an inactive session is kept around
		IdleTTL int `yaml:"idleTtl" envconfig:"idle_ttl"`
	}
	Log struct {
		Level             string `yaml:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
}

// DefaultConfig returns a config with the default values set
func DefaultConfig() Config {
	var c Config
	c.PGDSN = "postgres://postgres@localhost:5432/postgres?sslmode=disable"
	c.MigrationsPath = "./sql"
	c.JWT.PublicKey = "public.pem"
	c.JWT.PrivateKey = "private.key"
	c.PlayerCreateDelay = 60
	c.StartingBalance = 100
	c.Session.EndedTTL = 300
	c.Session.IdleTTL = 3600
	return c
}

var config Config

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
// A missing config file is not an error; defaults and environment variables still apply
func Load() error {
	config = DefaultConfig()

	configFile := util.Getenv("SEM_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("sem", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
