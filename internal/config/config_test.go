package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.DocumentPaths = []string{"doc"}
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults with a document", mutate: func(*Config) {}},
		{name: "no document", mutate: func(c *Config) { c.DocumentPaths = nil }, wantErr: "document path"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "invalid log format"},
		{name: "bad port", mutate: func(c *Config) { c.InspectPort = 70000 }, wantErr: "invalid inspect port"},
		{name: "negative rounds", mutate: func(c *Config) { c.MaxSettleRounds = -1 }, wantErr: "max settle rounds"},
		{name: "feed without host", mutate: func(c *Config) { c.Feed = &FeedConfig{URL: "localhost"} }, wantErr: "scheme and host"},
		{name: "empty feed url is disabled", mutate: func(c *Config) { c.Feed = &FeedConfig{} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			got, err := NewConfig(cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestNewConfig_NormalizesAndFillsFeedDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.DocumentPaths = []string{"doc"}
	cfg.LogLevel = " DEBUG "
	cfg.LogFormat = "Text"
	cfg.Feed = &FeedConfig{URL: "http://localhost:3000"}

	got, err := NewConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "debug", got.LogLevel)
	assert.Equal(t, "text", got.LogFormat)
	require.True(t, got.FeedEnabled())
	assert.Equal(t, FeedConfig{
		URL:       "http://localhost:3000",
		Namespace: DefaultFeedNS,
		Event:     DefaultFeedEvent,
		Path:      DefaultFeedPath,
	}, *got.Feed)
	assert.Empty(t, cfg.Feed.Event, "the caller's feed config is not modified")
}

func TestLoadFile(t *testing.T) {
	want := Config{
		DocumentPaths:   []string{"./doc"},
		ComponentPaths:  []string{"./components"},
		LogLevel:        "debug",
		LogFormat:       DefaultLogFormat,
		InspectPort:     8080,
		MaxSettleRounds: DefaultSettleLimit,
		Feed:            &FeedConfig{URL: "http://localhost:3000", Event: "ops"},
	}

	files := map[string]string{
		"app.hcl": `
documents    = ["./doc"]
components   = ["./components"]
log_level    = "debug"
inspect_port = 8080

feed {
  url   = "http://localhost:3000"
  event = "ops"
}
`,
		"app.toml": `
documents = ["./doc"]
components = ["./components"]
log_level = "debug"
inspect_port = 8080

[feed]
url = "http://localhost:3000"
event = "ops"
`,
		"app.yaml": `
documents: ["./doc"]
components: ["./components"]
log_level: debug
inspect_port: 8080
feed:
  url: http://localhost:3000
  event: ops
`,
	}

	dir := t.TempDir()
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			got, err := LoadFile(path, Defaults())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	testCases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "unknown extension", path: write("app.json", "{}"), wantErr: ErrUnsupportedFormat.Error()},
		{name: "unknown toml key", path: write("bad.toml", "colour = \"red\"\n"), wantErr: "unknown keys: colour"},
		{name: "unknown yaml key", path: write("bad.yaml", "colour: red\n"), wantErr: "colour"},
		{name: "unknown hcl attribute", path: write("bad.hcl", "colour = \"red\"\n"), wantErr: "Unsupported argument"},
		{name: "missing file", path: filepath.Join(dir, "missing.toml"), wantErr: "load config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			base := Defaults()
			got, err := LoadFile(tc.path, base)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Equal(t, base, got)
		})
	}
}

func TestLoadFile_EmptyYAMLKeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	got, err := LoadFile(path, Defaults())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:  "warn",
		EnvLogFormat: "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Defaults()
	ApplyEnv(&cfg, lookup)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat, "blank values are ignored")
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, "invalid log level")
}
