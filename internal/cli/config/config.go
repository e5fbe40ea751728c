// Package config loads the instance connection settings from the
// environment or a local .env file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds everything needed to reach one Metabase instance.
type Config struct {
	URL      string
	Username string
	Password string
}

// Load reads METABASE_URL, METABASE_USER, and METABASE_PASS from the
// environment, falling back to a .env file in the working directory.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	}

	cfg := &Config{
		URL:      v.GetString("METABASE_URL"),
		Username: v.GetString("METABASE_USER"),
		Password: v.GetString("METABASE_PASS"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	missing := ""
	switch {
	case c.URL == "":
		missing = "METABASE_URL"
	case c.Username == "":
		missing = "METABASE_USER"
	case c.Password == "":
		missing = "METABASE_PASS"
	}
	if missing != "" {
		return fmt.Errorf("%s is not set (export it or add it to .env)", missing)
	}
	return nil
}
