package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	APIURL    string        `yaml:"api_url"    env:"LEARNHUB_API_URL"    env-default:"http://localhost:8080"`
	StateFile string        `yaml:"state_file" env:"LEARNHUB_STATE_FILE"`
	Timeout   time.Duration `yaml:"timeout"    env:"LEARNHUB_TIMEOUT"    env-default:"10s"`

	Env       string `yaml:"env"        env:"ENV"        env-default:"prod"`
	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"  env-default:"warn"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
}

// LoadConfig reads path (or LEARNHUB_CONFIG) when set, then overlays the
// environment. With no file, only the environment is used.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("LEARNHUB_CONFIG")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read env: %w", err)
	}

	if cfg.StateFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateFile = filepath.Join(dir, "learnhub", "state.db")
	}
	return cfg, nil
}
