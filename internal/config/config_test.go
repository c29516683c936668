package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

// isolateEnv clears keys for the duration of the test.
func isolateEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var allKeys = []string{
	"GITHUB_TOKEN", "GITHUB_PERSONAL_ACCESS_TOKEN", "GITHUB_API_URL", "GITHUB_API_VERSION",
	"GITHUB_USER_AGENT", "MCP_TRANSPORT", "MCP_TOKEN", "TLS_CERT_FILE", "TLS_KEY_FILE",
	"LOG_LEVEL", "LOG_FORMAT", "PORT", "HTTP_ADDR", "HTTP_TIMEOUT", "OTEL_TRACES_EXPORTER",
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"GITHUB_PERSONAL_ACCESS_TOKEN": "pat",
		"GITHUB_API_URL":               "https://ghe.example.com/api/v3",
		"MCP_TRANSPORT":                "http",
		"PORT":                         "8080",
		"HTTP_TIMEOUT":                 "5s",
		"OTEL_TRACES_EXPORTER":         "stdout",
	}))
	require.NoError(t, err)

	assert.Equal(t, "pat", cfg.GitHubToken)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.GitHubAPIURL)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "stdout", cfg.TraceExporter)
}

func TestApplyEnv_TokenPrecedence(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookupFrom(map[string]string{
		"GITHUB_TOKEN":                 "primary",
		"GITHUB_PERSONAL_ACCESS_TOKEN": "secondary",
	})))
	assert.Equal(t, "primary", cfg.GitHubToken)
}

func TestApplyEnv_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(lookupFrom(map[string]string{"PORT": "eighty"})))
	assert.Error(t, cfg.applyEnv(lookupFrom(map[string]string{"HTTP_TIMEOUT": "soon"})))
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolateEnv(t, allKeys...)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"github_token: from-file",
		"transport: http",
		"addr: \":9000\"",
		"http_timeout: 12s",
		"log_level: debug",
	}, "\n")), 0o600))

	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := Load(Sources{File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHubToken)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 12*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_UnknownFileKey(t *testing.T) {
	isolateEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github_tokn: typo\n"), 0o600))

	_, err := Load(Sources{File: path})
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	isolateEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GITHUB_TOKEN=dotenv-token\nLOG_FORMAT=json\n"), 0o600))

	cfg, err := Load(Sources{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.GitHubToken)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	isolateEnv(t, allKeys...)
	missing := filepath.Join(t.TempDir(), ".env")

	_, err := Load(Sources{EnvFile: missing})
	assert.NoError(t, err)

	_, err = Load(Sources{EnvFile: missing, RequireEnvFile: true})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.GitHubToken = "t"
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"missing token": func(c *Config) { c.GitHubToken = " " },
		"bad transport": func(c *Config) { c.Transport = "websocket" },
		"zero timeout":  func(c *Config) { c.HTTPTimeout = 0 },
		"half TLS":      func(c *Config) { c.TLSCertFile = "cert.pem" },
		"bad log level": func(c *Config) { c.LogLevel = "shouty" },
		"bad format":    func(c *Config) { c.LogFormat = "jsn" },
		"bad exporter":  func(c *Config) { c.TraceExporter = "zipkin" },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestLogValue_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.GitHubToken = "ghp_supersecret"
	cfg.ServerToken = "server-secret"

	out := fmt.Sprint(slog.AnyValue(cfg).Resolve())
	assert.NotContains(t, out, "ghp_supersecret")
	assert.NotContains(t, out, "server-secret")
	assert.Contains(t, out, "[REDACTED]")
}
