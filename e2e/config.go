package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_API_ORIGIN targets a running room server, an in-process one is started when empty
	APIOrigin string `envconfig:"E2E_API_ORIGIN"`
	// E2E_JWT_SECRET_KEY signs the tokens of the scenario users
	JWTSecretKey string `envconfig:"E2E_JWT_SECRET_KEY" default:"e2e_secret_key_long_enough_for_hs256"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool          `envconfig:"E2E_COLOURS" default:"true"`
	Timeout time.Duration `envconfig:"E2E_TIMEOUT" default:"5s"`
	// The in-process server only
	Agents []string `envconfig:"E2E_AGENTS" default:"Claude,GPT"`
	Words  []string `envconfig:"E2E_CENSORED_WORDS" default:"badger"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
