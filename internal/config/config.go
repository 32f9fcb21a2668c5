package config

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/utilities"
)

type App struct {
	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:"0.0.0.0:8431"`
	// Seeding
	SeedSampleUsers bool   `envconfig:"SEED_SAMPLE_USERS" default:"true"`
	SeedFile        string `envconfig:"SEED_FILE"`
}

// Config gathers every component's settings.
type Config struct {
	App      App
	Log      utilities.Config
	Database database.Config
	Auth     auth.Config
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c.App); err != nil {
		return Config{}, err
	}
	var err error
	if c.Log, err = utilities.ConfigFromEnv(); err != nil {
		return Config{}, err
	}
	if c.Database, err = database.ConfigFromEnv(); err != nil {
		return Config{}, err
	}
	if c.Auth, err = auth.ConfigFromEnv(); err != nil {
		return Config{}, err
	}
	return c, nil
}
