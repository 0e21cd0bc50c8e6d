package config

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/review-forge/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DBConfig       `mapstructure:"database"`
	AI       AIConfig       `mapstructure:"ai"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  logger.Config  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	// ShutdownTimeout bounds how long Stop waits for open requests.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DBConfig selects and configures the review database.
// Driver is one of postgres, mysql or sqlite3; Path is only used by sqlite3.
type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type AIConfig struct {
	LLMProvider      string `mapstructure:"llm_provider"`
	EmbedderProvider string `mapstructure:"embedder_provider"`
	GeneratorModel   string `mapstructure:"generator_model"`
	EmbedderModel    string `mapstructure:"embedder_model"`
	OllamaHost       string `mapstructure:"ollama_host"`
	QdrantHost       string `mapstructure:"qdrant_host"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
	ContextDocs      int    `mapstructure:"context_docs"`
}

// BackendConfig points at the HTTP service hosting the remote pipeline stages.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	AttachmentRoot   string   `mapstructure:"attachment_root"`
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types"`
}

// PipelineConfig bounds every external stage call of a run.
type PipelineConfig struct {
	Services            string        `mapstructure:"services"`
	MaxWorkers          int           `mapstructure:"max_workers"`
	QueueSize           int           `mapstructure:"queue_size"`
	CacheTimeout        time.Duration `mapstructure:"cache_timeout"`
	UpsertTimeout       time.Duration `mapstructure:"upsert_timeout"`
	GenerateTimeout     time.Duration `mapstructure:"generate_timeout"`
	SaveTimeout         time.Duration `mapstructure:"save_timeout"`
	QualityCheckTimeout time.Duration `mapstructure:"quality_check_timeout"`
}

type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

const (
	ServicesLocal  = "local"
	ServicesRemote = "remote"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", 64<<20)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "forge")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "review_forge")
	v.SetDefault("database.path", "review-forge.db")
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)

	v.SetDefault("ai.llm_provider", "ollama")
	v.SetDefault("ai.embedder_provider", "ollama")
	v.SetDefault("ai.generator_model", "gemma3:latest")
	v.SetDefault("ai.embedder_model", "nomic-embed-text")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.qdrant_host", "localhost:6334")
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.openai_base_url", "")
	v.SetDefault("ai.context_docs", 8)

	v.SetDefault("backend.url", "http://127.0.0.1:5000")
	v.SetDefault("backend.timeout", 15*time.Minute)

	v.SetDefault("storage.attachment_root", "data/files")
	v.SetDefault("storage.allowed_mime_types", []string{"application/pdf"})

	v.SetDefault("pipeline.services", ServicesLocal)
	v.SetDefault("pipeline.max_workers", 4)
	v.SetDefault("pipeline.queue_size", 100)
	v.SetDefault("pipeline.cache_timeout", 10*time.Second)
	v.SetDefault("pipeline.upsert_timeout", 2*time.Minute)
	v.SetDefault("pipeline.generate_timeout", 15*time.Minute)
	v.SetDefault("pipeline.save_timeout", 30*time.Second)
	v.SetDefault("pipeline.quality_check_timeout", 5*time.Minute)

	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.use_ssl", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "reviews")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file", "review-forge.log")
}

// LoadConfig reads configuration from config.yaml, a .env file and FORGE_*
// environment variables, sets sensible defaults, and validates the result.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	loadDotEnv(".env")

	v.SetEnvPrefix("FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports the variables of an optional dotenv file. Variables that
// are already set in the environment win.
func loadDotEnv(path string) {
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return
	}
	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		_ = os.Setenv(name, ev.GetString(key))
	}
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host must be set for driver %s", c.Database.Driver)
		}
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path must be set for driver sqlite3")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if err := c.AI.Validate(); err != nil {
		return err
	}

	switch c.Pipeline.Services {
	case ServicesLocal:
	case ServicesRemote:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url must be set when pipeline.services is remote")
		}
	default:
		return fmt.Errorf("unsupported pipeline.services value: %q", c.Pipeline.Services)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Storage.AttachmentRoot) == "" {
		return fmt.Errorf("storage.attachment_root must be set")
	}
	if len(c.Storage.AllowedMIMETypes) == 0 {
		return fmt.Errorf("storage.allowed_mime_types must not be empty")
	}
	for _, mt := range c.Storage.AllowedMIMETypes {
		parsed, _, err := mime.ParseMediaType(mt)
		if err != nil || !strings.Contains(parsed, "/") {
			return fmt.Errorf("invalid MIME type in storage.allowed_mime_types: %q", mt)
		}
	}
	return nil
}

// Validate checks provider names and the settings each provider needs.
func (a *AIConfig) Validate() error {
	switch a.LLMProvider {
	case "ollama":
	case "gemini":
		if a.GeminiAPIKey == "" {
			return fmt.Errorf("ai.gemini_api_key must be set for the gemini provider")
		}
	case "openai":
		if a.OpenAIAPIKey == "" {
			return fmt.Errorf("ai.openai_api_key must be set for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %q", a.LLMProvider)
	}

	switch a.EmbedderProvider {
	case "ollama":
	case "gemini":
		if a.GeminiAPIKey == "" {
			return fmt.Errorf("ai.gemini_api_key must be set for the gemini embedder")
		}
	default:
		return fmt.Errorf("unsupported embedder provider: %q", a.EmbedderProvider)
	}

	if a.ContextDocs <= 0 || a.ContextDocs > 100 {
		return fmt.Errorf("ai.context_docs must be between 1 and 100, got %d", a.ContextDocs)
	}
	return nil
}

// Validate requires every stage to run under a positive timeout.
func (p *PipelineConfig) Validate() error {
	timeouts := map[string]time.Duration{
		"cache_timeout":         p.CacheTimeout,
		"upsert_timeout":        p.UpsertTimeout,
		"generate_timeout":      p.GenerateTimeout,
		"save_timeout":          p.SaveTimeout,
		"quality_check_timeout": p.QualityCheckTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("pipeline.%s must be positive, got %s", name, d)
		}
	}
	if p.MaxWorkers <= 0 {
		return fmt.Errorf("pipeline.max_workers must be positive, got %d", p.MaxWorkers)
	}
	if p.QueueSize <= 0 {
		return fmt.Errorf("pipeline.queue_size must be positive, got %d", p.QueueSize)
	}
	return nil
}
