package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// ClientConfig drives the terminal client.
type ClientConfig struct {
	APIOrigin   string        `env:"CHAT_API_ORIGIN,default=http://localhost:8000"`
	Token       string        `env:"CHAT_TOKEN"`
	RoomID      string        `env:"CHAT_ROOM_ID"`
	UserName    string        `env:"CHAT_USER_NAME"`
	LogLevel    string        `env:"LOG_LEVEL,default=INFO"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=10s"`
}

// ServerConfig drives the development room server.
type ServerConfig struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8000"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	HistoryLimit    int           `env:"HISTORY_LIMIT,default=50"`
	JWTSecretKey    string        `env:"JWT_SECRET_KEY"`
	AgentNames      string        `env:"AGENT_NAMES"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize      int           `env:"BUFFER_SIZE,default=64"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	DebugPort       int           `env:"DEBUG_PORT,default=8081"`
}

// TokenConfig drives token minting.
type TokenConfig struct {
	JWTSecretKey      string        `env:"JWT_SECRET_KEY,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

// Load reads an optional .env file then the environment into cfg.
// Variables already set in the environment win over the file.
func Load(cfg any, files ...string) error {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return fmt.Errorf("unable to load %v: %w", files, err)
	}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Agents returns the configured agent names.
func (c ServerConfig) Agents() []string {
	return SplitList(c.AgentNames)
}

// Words returns the configured censored words.
func (c ServerConfig) Words() []string {
	return SplitList(c.CensoredWords)
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SplitList splits a comma separated variable, dropping blank entries.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
