package client

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the settings of a workbench client.
type Config struct {
	BaseURL   string        `envconfig:"STITCHLINE_API" default:"http://localhost:8080"`
	TokenFile string        `envconfig:"STITCHLINE_TOKEN_FILE"`
	Timeout   time.Duration `envconfig:"STITCHLINE_TIMEOUT" default:"30s"`
}

// LoadConfig reads client settings from the environment after merging an optional .env file.
// TokenFile defaults to stitchline/token under the user config directory.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.TokenFile = filepath.Join(dir, "stitchline", "token")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg, nil
}
