// Package config loads the server configuration from defaults, an optional
// YAML file, an optional .env file and the process environment, in that
// order of increasing precedence. Command-line flags are applied last by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github-mcp/internal/logging"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds every runtime setting.
type Config struct {
	// GitHub upstream
	GitHubToken  string        `yaml:"github_token"`
	GitHubAPIURL string        `yaml:"github_api_url"`
	APIVersion   string        `yaml:"github_api_version"`
	UserAgent    string        `yaml:"user_agent"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`

	// Inbound transport
	Transport   string `yaml:"transport"`
	Addr        string `yaml:"addr"`
	ServerToken string `yaml:"server_token"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	// Logging and tracing
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	TraceExporter string `yaml:"trace_exporter"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		GitHubAPIURL: "https://api.github.com",
		APIVersion:   "2022-11-28",
		UserAgent:    "github-mcp",
		HTTPTimeout:  30 * time.Second,
		Transport:    TransportStdio,
		Addr:         ":3000",
		LogLevel:      "info",
		LogFormat:     "text",
		TraceExporter: "none",
	}
}

// Sources says where Load reads from besides the environment.
type Sources struct {
	// File is a YAML config file. Empty means none.
	File string
	// EnvFile is a dotenv file. A missing file is ignored unless
	// RequireEnvFile is set.
	EnvFile        string
	RequireEnvFile bool
}

// Load builds a Config from src and the process environment. It does not
// validate; call Validate once flags have been applied.
func Load(src Sources) (Config, error) {
	cfg := Default()

	if src.File != "" {
		if err := cfg.loadFile(src.File); err != nil {
			return cfg, err
		}
	}

	if src.EnvFile != "" {
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(src.EnvFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || src.RequireEnvFile {
				return cfg, fmt.Errorf("loading env file %s: %w", src.EnvFile, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables. GITHUB_TOKEN wins over
// GITHUB_PERSONAL_ACCESS_TOKEN when both are set.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.GitHubToken, "GITHUB_TOKEN", "GITHUB_PERSONAL_ACCESS_TOKEN")
	str(&c.GitHubAPIURL, "GITHUB_API_URL")
	str(&c.APIVersion, "GITHUB_API_VERSION")
	str(&c.UserAgent, "GITHUB_USER_AGENT")
	str(&c.Transport, "MCP_TRANSPORT")
	str(&c.ServerToken, "MCP_TOKEN")
	str(&c.TLSCertFile, "TLS_CERT_FILE")
	str(&c.TLSKeyFile, "TLS_KEY_FILE")
	str(&c.LogLevel, "LOG_LEVEL")
	str(&c.LogFormat, "LOG_FORMAT")
	str(&c.TraceExporter, "OTEL_TRACES_EXPORTER")

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("PORT: %q is not a number", v)
		}
		c.Addr = ":" + v
	}
	str(&c.Addr, "HTTP_ADDR")

	if v, ok := lookup("HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// Validate reports the first setting that prevents the server from starting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GitHubToken) == "" {
		return errors.New("GITHUB_TOKEN is required")
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	switch c.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unknown trace exporter %q (want none or stdout)", c.TraceExporter)
	}
	return nil
}

// LogValue keeps secrets out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("github_api_url", c.GitHubAPIURL),
		slog.String("github_api_version", c.APIVersion),
		slog.Duration("http_timeout", c.HTTPTimeout),
		slog.String("transport", c.Transport),
		slog.String("addr", c.Addr),
		slog.Bool("server_auth", c.ServerToken != ""),
		slog.Bool("tls", c.TLSCertFile != ""),
		slog.String("log_level", c.LogLevel),
		slog.String("trace_exporter", c.TraceExporter),
		slog.String("github_token", redact(c.GitHubToken)),
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
