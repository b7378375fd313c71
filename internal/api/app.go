// Package api wires the application together and serves the HTTP surface.
package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/codequest/internal/auth"
	"github.com/felixgeelhaar/codequest/internal/config"
	"github.com/felixgeelhaar/codequest/internal/exercise"
	"github.com/felixgeelhaar/codequest/internal/gamification"
	"github.com/felixgeelhaar/codequest/internal/generation"
	"github.com/felixgeelhaar/codequest/internal/llm"
	"github.com/felixgeelhaar/codequest/internal/queue"
	"github.com/felixgeelhaar/codequest/internal/repository"
	"github.com/felixgeelhaar/codequest/internal/storage/postgres"
)

// App holds all application dependencies
type App struct {
	Config       *config.Config
	DB           *postgres.DB
	Auth         *auth.Service
	Registry     *exercise.Registry
	Gamification *gamification.Service
	Generation   *generation.Service
	LLM          *llm.Registry
	Events       *queue.Publisher
	Queue        *queue.Connection

	Courses   *repository.CourseRepository
	Lessons   *repository.LessonRepository
	Exercises *repository.ExerciseRepository
	Notes     *repository.NoteRepository
	Progress  *repository.ProgressRepository
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(cfg *config.Config, db *postgres.DB, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		DB:     db,
	}

	// Repositories
	app.Courses = repository.NewCourseRepository(db.Pool)
	app.Lessons = repository.NewLessonRepository(db.Pool)
	app.Exercises = repository.NewExerciseRepository(db.Pool)
	app.Notes = repository.NewNoteRepository(db.Pool)
	app.Progress = repository.NewProgressRepository(db.Pool)
	gamificationRepo := repository.NewGamificationRepository(db.Pool)

	// Auth
	app.Auth = auth.NewService(auth.NewPostgresRepository(db.Pool), time.Duration(cfg.SessionMaxAge)*time.Second)

	// Exercise content registry
	app.Registry = exercise.NewRegistry()

	// Gamification
	app.Gamification = gamification.NewService(gamificationRepo, nil, nil)

	// Event queue, best effort. Absent broker disables publishing.
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("event queue unavailable, publishing disabled", "error", err)
		} else {
			app.Queue = conn
		}
	}
	app.Events = queue.NewPublisher(app.Queue, logger)

	// LLM providers
	app.LLM = llm.NewRegistry()
	if err := initLLMProviders(app.LLM, cfg); err != nil {
		return nil, fmt.Errorf("init LLM providers: %w", err)
	}
	provider, err := app.LLM.Default()
	if err != nil {
		return nil, fmt.Errorf("no LLM provider available: %w", err)
	}
	resilientCfg := llm.DefaultResilientConfig()
	resilientCfg.Logger = logger
	resilient := llm.NewResilientProvider(provider, resilientCfg)

	// Generation pipeline
	app.Generation = generation.NewService(
		resilient,
		app.Registry,
		app.Exercises,
		app.Lessons,
		app.Courses,
		app.Notes,
		app.Events,
		logger,
	)

	return app, nil
}

// initLLMProviders sets up LLM providers based on configuration
func initLLMProviders(registry *llm.Registry, cfg *config.Config) error {
	switch cfg.LLMProvider {
	case "claude":
		if cfg.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY required for claude provider")
		}
		provider := llm.NewClaudeProvider(llm.ClaudeConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
		registry.Register("claude", provider)
		return registry.SetDefault("claude")

	case "openai":
		if cfg.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY required for openai provider")
		}
		provider := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
		registry.Register("openai", provider)
		return registry.SetDefault("openai")

	case "ollama":
		provider := llm.NewOllamaProvider(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.LLMModel,
		})
		registry.Register("ollama", provider)
		return registry.SetDefault("ollama")

	default:
		return fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return nil
}
