package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, ServicesLocal, cfg.Pipeline.Services)
	assert.Equal(t, []string{"application/pdf"}, cfg.Storage.AllowedMIMETypes)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.CacheTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.UpsertTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.GenerateTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORGE_DATABASE_DRIVER", "sqlite3")
	t.Setenv("FORGE_DATABASE_PATH", "/tmp/forge.db")
	t.Setenv("FORGE_PIPELINE_SERVICES", "remote")
	t.Setenv("FORGE_PIPELINE_GENERATE_TIMEOUT", "90s")
	t.Setenv("FORGE_AI_LLM_PROVIDER", "openai")
	t.Setenv("FORGE_AI_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/forge.db", cfg.Database.Path)
	assert.Equal(t, ServicesRemote, cfg.Pipeline.Services)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.GenerateTimeout)
	assert.Equal(t, "openai", cfg.AI.LLMProvider)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIAPIKey)
}

func validConfig() Config {
	return Config{
		Database: DBConfig{Driver: "sqlite3", Path: "forge.db"},
		AI: AIConfig{
			LLMProvider:      "ollama",
			EmbedderProvider: "ollama",
			ContextDocs:      8,
		},
		Backend: BackendConfig{URL: "http://127.0.0.1:5000"},
		Storage: StorageConfig{
			AttachmentRoot:   "data/files",
			AllowedMIMETypes: []string{"application/pdf", "text/plain"},
		},
		Pipeline: PipelineConfig{
			Services:            ServicesLocal,
			MaxWorkers:          2,
			QueueSize:           10,
			CacheTimeout:        time.Second,
			UpsertTimeout:       time.Minute,
			GenerateTimeout:     time.Minute,
			SaveTimeout:         time.Second,
			QualityCheckTimeout: time.Minute,
		},
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FORGE_SERVER_PORT=9090\nFORGE_LOGGING_LEVEL=warn\n"), 0o600))

	// registers a restore of the variable, then removes it for the test
	t.Setenv("FORGE_SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("FORGE_SERVER_PORT"))
	t.Setenv("FORGE_LOGGING_LEVEL", "debug")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid config", mutate: func(*Config) {}},
		{name: "Unknown database driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "Postgres without host", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "Gemini without key", mutate: func(c *Config) { c.AI.LLMProvider = "gemini" }, wantErr: true},
		{name: "OpenAI without key", mutate: func(c *Config) { c.AI.LLMProvider = "openai" }, wantErr: true},
		{name: "Unknown embedder", mutate: func(c *Config) { c.AI.EmbedderProvider = "bert" }, wantErr: true},
		{name: "Zero context docs", mutate: func(c *Config) { c.AI.ContextDocs = 0 }, wantErr: true},
		{name: "Remote without backend", mutate: func(c *Config) {
			c.Pipeline.Services = ServicesRemote
			c.Backend.URL = ""
		}, wantErr: true},
		{name: "Unknown services mode", mutate: func(c *Config) { c.Pipeline.Services = "hybrid" }, wantErr: true},
		{name: "Zero generate timeout", mutate: func(c *Config) { c.Pipeline.GenerateTimeout = 0 }, wantErr: true},
		{name: "Zero cache timeout", mutate: func(c *Config) { c.Pipeline.CacheTimeout = 0 }, wantErr: true},
		{name: "Negative save timeout", mutate: func(c *Config) { c.Pipeline.SaveTimeout = -time.Second }, wantErr: true},
		{name: "No workers", mutate: func(c *Config) { c.Pipeline.MaxWorkers = 0 }, wantErr: true},
		{name: "Empty attachment root", mutate: func(c *Config) { c.Storage.AttachmentRoot = "  " }, wantErr: true},
		{name: "Empty MIME allow-list", mutate: func(c *Config) { c.Storage.AllowedMIMETypes = nil }, wantErr: true},
		{name: "Malformed MIME type", mutate: func(c *Config) { c.Storage.AllowedMIMETypes = []string{"pdf"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
