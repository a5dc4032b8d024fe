package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML file. Environment variables win over it.
const ConfigFileEnv = "TODO_CONFIG"

// Server holds the settings of the todo service.
type Server struct {
	Port            string        `mapstructure:"port"`
	DatabaseURL     string        `mapstructure:"database_url"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	TraceExporter   string        `mapstructure:"trace_exporter"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address derived from Port.
func (s *Server) Addr() string {
	return ":" + s.Port
}

// Client holds the settings of the terminal client.
type Client struct {
	BaseURL string `mapstructure:"api_url"`
	LogFile string `mapstructure:"log_file"`
}

var defaults = map[string]any{
	"port":             "8080",
	"database_url":     "sqlite://./data/todos.db",
	"cors_origin":      "http://localhost:5173",
	"log_level":        "info",
	"log_format":       "json",
	"metrics_enabled":  true,
	"trace_exporter":   "none",
	"shutdown_timeout": "10s",
	"api_url":          "http://localhost:8080",
	"log_file":         filepath.Join(os.TempDir(), "todo-client.log"),
}

var envBindings = map[string]string{
	"port":             "PORT",
	"database_url":     "DATABASE_URL",
	"cors_origin":      "CORS_ORIGIN",
	"log_level":        "LOG_LEVEL",
	"log_format":       "LOG_FORMAT",
	"metrics_enabled":  "METRICS_ENABLED",
	"trace_exporter":   "TRACE_EXPORTER",
	"shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"api_url":          "TODO_API_URL",
	"log_file":         "TODO_LOG_FILE",
}

func load() (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return v, nil
}

// LoadServer reads the service configuration.
func LoadServer() (*Server, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}

	cfg := &Server{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("invalid port %q", cfg.Port)
	}
	switch cfg.TraceExporter {
	case "none", "stdout":
	default:
		return nil, fmt.Errorf("invalid trace exporter %q (want none or stdout)", cfg.TraceExporter)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("invalid log format %q (want json or console)", cfg.LogFormat)
	}

	return cfg, nil
}

// LoadClient reads the client configuration.
func LoadClient() (*Client, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}

	cfg := &Client{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
