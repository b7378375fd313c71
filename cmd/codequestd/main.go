// Command codequestd runs the CodeQuest API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/codequest/internal/api"
	"github.com/felixgeelhaar/codequest/internal/config"
	"github.com/felixgeelhaar/codequest/internal/domain"
	"github.com/felixgeelhaar/codequest/internal/seed"
	"github.com/felixgeelhaar/codequest/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogging(cfg.Debug)

	ctx := context.Background()

	// Database
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Application wiring
	app, err := api.NewApp(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer app.Close()

	// Optional course pack
	if cfg.SeedPath != "" {
		pack, err := seed.ParseFile(cfg.SeedPath)
		if err != nil {
			return fmt.Errorf("load seed pack: %w", err)
		}
		if err := seed.Apply(ctx, pack, app.Registry, seedStores{app}, logger); err != nil {
			return fmt.Errorf("apply seed pack: %w", err)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation endpoints wait on the LLM
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("server listening", "port", cfg.Port, "debug", cfg.Debug)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("server stopped")
	return nil
}

// seedStores adapts the app's repositories to the seeder's store surface.
type seedStores struct {
	app *api.App
}

func (s seedStores) CourseByTitle(ctx context.Context, title string) (*domain.Course, error) {
	return s.app.Courses.CourseByTitle(ctx, title)
}

func (s seedStores) CreateCourse(ctx context.Context, course *domain.Course) error {
	return s.app.Courses.CreateCourse(ctx, course)
}

func (s seedStores) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	return s.app.Lessons.CreateLesson(ctx, lesson)
}

func (s seedStores) CreateExercise(ctx context.Context, ex *domain.Exercise) error {
	return s.app.Exercises.CreateExercise(ctx, ex)
}

func setupLogging(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
