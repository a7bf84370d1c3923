package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	StaticDir       string        `env:"STATIC_DIR"`
	WSPath          string        `env:"WS_PATH" envDefault:"/ws"`
	SendBuffer      int           `env:"SEND_BUFFER" envDefault:"256"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" envDefault:"65536"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ErrNoDotEnv is returned alongside a valid config when no .env file exists.
var ErrNoDotEnv = errors.New("no .env file found")

// Load reads files (default ".env") into the environment, then parses the
// environment. A missing env file is reported as ErrNoDotEnv with the parsed
// config still returned.
func Load(files ...string) (*Config, error) {
	var loadErr error
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		loadErr = ErrNoDotEnv
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, loadErr
}

func (c *Config) validate() error {
	if c.SendBuffer <= 0 {
		return fmt.Errorf("SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("MAX_MESSAGE_SIZE must be positive, got %d", c.MaxMessageSize)
	}
	if c.WSPath == "" || c.WSPath[0] != '/' {
		return fmt.Errorf("WS_PATH must start with /, got %q", c.WSPath)
	}
	return nil
}
