package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/review-forge/internal/app"
	"github.com/sevigo/review-forge/internal/attachments"
	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/db"
	"github.com/sevigo/review-forge/internal/jobs"
	"github.com/sevigo/review-forge/internal/llm"
	"github.com/sevigo/review-forge/internal/logger"
	"github.com/sevigo/review-forge/internal/remote"
	"github.com/sevigo/review-forge/internal/server"
	"github.com/sevigo/review-forge/internal/server/handler"
	"github.com/sevigo/review-forge/internal/storage"
)

// ProviderSet is the full dependency graph of the application.
var ProviderSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	storage.NewStore,
	jobs.NewTracker,
	jobs.NewReviewJob,
	provideSlogLogger,
	provideDatabase,
	provideAttachmentStore,
	providePipelineServices,
	provideOrchestrator,
	provideDispatcher,
	provideHandlers,
)

// PipelineServices are the external stage implementations selected by
// pipeline.services.
type PipelineServices struct {
	Indexer   core.Indexer
	Generator core.Generator
	// Checker is nil when no backend is configured.
	Checker core.QualityChecker
}

func provideSlogLogger(cfg *config.Config) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(l)
	return l
}

// provideDatabase opens the configured database; migrations run on connect.
func provideDatabase(cfg *config.Config) (*db.DB, func(), error) {
	return db.NewDatabase(&cfg.Database)
}

func provideAttachmentStore(cfg *config.Config, logger *slog.Logger) (*attachments.Store, error) {
	return attachments.NewStore(cfg.Storage, logger)
}

// providePipelineServices builds either the in-process services (goframe
// models and qdrant) or the HTTP backend client. Quality checks always go to
// the backend when one is configured.
func providePipelineServices(ctx context.Context, cfg *config.Config, files *attachments.Store, logger *slog.Logger) (PipelineServices, error) {
	var backend *remote.Client
	if cfg.Backend.URL != "" {
		backend = remote.NewClient(cfg.Backend, nil, logger)
	}

	if cfg.Pipeline.Services == config.ServicesRemote {
		logger.Info("using remote pipeline services", "backend_url", cfg.Backend.URL)
		return PipelineServices{Indexer: backend, Generator: backend, Checker: backend}, nil
	}

	logger.Info("using local pipeline services",
		"llm_provider", cfg.AI.LLMProvider,
		"generator_model", cfg.AI.GeneratorModel,
		"embedder_model", cfg.AI.EmbedderModel)

	embedder, err := provideEmbedder(ctx, cfg, logger)
	if err != nil {
		return PipelineServices{}, err
	}
	vectorStore := storage.NewQdrantVectorStore(cfg.AI.QdrantHost, cfg.AI.EmbedderModel, embedder, logger)

	model, err := provideTextModel(ctx, cfg, logger)
	if err != nil {
		return PipelineServices{}, err
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return PipelineServices{}, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}
	sections, err := llm.DefaultSections()
	if err != nil {
		return PipelineServices{}, fmt.Errorf("failed to load review sections: %w", err)
	}

	services := PipelineServices{
		Indexer: llm.NewIndexer(files, vectorStore, logger),
		Generator: llm.NewGenerator(model, prompts, llm.ModelProvider(cfg.AI.LLMProvider),
			sections, vectorStore, cfg.AI.ContextDocs, logger),
	}
	if backend != nil {
		services.Checker = backend
	}
	return services, nil
}

func provideOrchestrator(cfg *config.Config, services PipelineServices, store storage.Store, tracker *jobs.Tracker, logger *slog.Logger) *jobs.Orchestrator {
	o := jobs.NewOrchestrator(
		services.Indexer,
		services.Generator,
		services.Checker,
		store,
		store,
		jobs.TimeoutsFromConfig(cfg.Pipeline),
		logger,
	)
	o.Subscribe(tracker.Observe)
	return o
}

func provideDispatcher(cfg *config.Config, job *jobs.ReviewJob, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(job, cfg.Pipeline.MaxWorkers, cfg.Pipeline.QueueSize, logger)
}

func provideHandlers(
	cfg *config.Config,
	orchestrator *jobs.Orchestrator,
	tracker *jobs.Tracker,
	files *attachments.Store,
	dispatcher core.JobDispatcher,
	logger *slog.Logger,
) server.Handlers {
	return server.Handlers{
		Reviews:     handler.NewReviewHandler(orchestrator, tracker, dispatcher, logger),
		Attachments: handler.NewAttachmentHandler(files, cfg.Server.MaxUploadBytes, logger),
	}
}

func provideTextModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.TextModel, error) {
	switch cfg.AI.LLMProvider {
	case "gemini":
		if cfg.AI.GeminiAPIKey == "" {
			return nil, fmt.Errorf("FORGE_AI_GEMINI_API_KEY is not set")
		}
		model, err := gemini.New(ctx, gemini.WithModel(cfg.AI.GeneratorModel), gemini.WithAPIKey(cfg.AI.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm.NewGoframeModel(model), nil
	case "ollama":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithModel(cfg.AI.GeneratorModel),
			ollama.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama model: %w", err)
		}
		return llm.NewGoframeModel(model), nil
	case "openai":
		if cfg.AI.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("FORGE_AI_OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAIModel(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIBaseURL, cfg.AI.GeneratorModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.AI.LLMProvider)
	}
}

func provideEmbedder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, error) {
	var embedderLLM embeddings.Embedder
	var err error

	switch cfg.AI.EmbedderProvider {
	case "gemini":
		embedderLLM, err = gemini.New(ctx,
			gemini.WithEmbeddingModel(cfg.AI.EmbedderModel),
			gemini.WithAPIKey(cfg.AI.GeminiAPIKey),
		)
	case "ollama":
		embedderLLM, err = ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.EmbedderModel),
			ollama.WithHTTPClient(newOllamaHTTPClient()),
			ollama.WithLogger(logger),
		)
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.AI.EmbedderProvider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedder LLM: %w", err)
	}
	return embeddings.NewEmbedder(embedderLLM)
}

func newOllamaHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: 15 * time.Minute,
	}
}
