package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/tourlingo/relay/adapters/llm"
	"github.com/tourlingo/relay/adapters/mongo"
	"github.com/tourlingo/relay/adapters/stt"
	"github.com/tourlingo/relay/adapters/translate"
	"github.com/tourlingo/relay/adapters/tts"
	"github.com/tourlingo/relay/domain/repositories"
	"github.com/tourlingo/relay/internal/api"
	"github.com/tourlingo/relay/internal/config"
	"github.com/tourlingo/relay/internal/room"
	"github.com/tourlingo/relay/internal/wire"
	"github.com/tourlingo/relay/usecase"
)

func main() {
	// Optional local overrides; production sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	injector := setupDI(cfg, logger)

	hub := do.MustInvoke[*room.Hub](injector)
	go hub.Run()

	handler := do.MustInvoke[*api.Handler](injector)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, handler)

	// Graceful shutdown
	go func() {
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.Int("port", cfg.Port),
		zap.String("sttProvider", cfg.STTProvider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if client, err := do.Invoke[*mongo.Client](injector); err == nil {
		if err := client.Close(ctx); err != nil {
			logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	return logger
}

func setupDI(cfg *config.Config, logger *zap.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i do.Injector) (*mongo.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return mongo.NewClient(c.MongoURI, c.MongoDatabase, do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (repositories.TourRepository, error) {
		client := do.MustInvoke[*mongo.Client](i)
		return mongo.NewTourRepository(client.Database), nil
	})
	do.Provide(injector, func(i do.Injector) (repositories.ArchiveRepository, error) {
		client := do.MustInvoke[*mongo.Client](i)
		return mongo.NewArchiveRepository(client.Database), nil
	})

	do.Provide(injector, func(i do.Injector) (repositories.SpeechToText, error) {
		c := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		if c.STTProvider == config.STTProviderGoogle {
			return stt.NewGoogleSpeechToText(log), nil
		}
		return stt.NewElevenLabsSTT(stt.NewElevenLabsConfigFromEnv(), log)
	})
	do.Provide(injector, func(i do.Injector) (repositories.Translator, error) {
		return translate.NewGoogleTranslator(translate.NewGoogleConfigFromEnv(), do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (repositories.SpeechSynthesizer, error) {
		return tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), do.MustInvoke[*zap.Logger](i))
	})
	do.Provide(injector, func(i do.Injector) (repositories.NoiseArbiter, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.NoiseArbiter {
			return nil, nil
		}
		return llm.NewGeminiNoiseArbiter(do.MustInvoke[*zap.Logger](i))
	})

	do.Provide(injector, func(i do.Injector) (*usecase.TranslationPipeline, error) {
		return usecase.NewTranslationPipeline(
			do.MustInvoke[repositories.SpeechToText](i),
			do.MustInvoke[repositories.Translator](i),
			do.MustInvoke[repositories.SpeechSynthesizer](i),
			do.MustInvoke[repositories.NoiseArbiter](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*room.Hub, error) {
		return room.NewHub(do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*room.TokenIssuer, error) {
		c := do.MustInvoke[*config.Config](i)
		return room.NewTokenIssuer(c.TokenSecret, c.TokenTTL), nil
	})
	do.Provide(injector, func(i do.Injector) (*usecase.Broadcaster, error) {
		c := do.MustInvoke[*config.Config](i)
		sender := wire.NewSender(c.MaxChunkBytes, c.InterChunkDelay, do.MustInvoke[*zap.Logger](i))
		return usecase.NewBroadcaster(sender, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*api.Handler, error) {
		return api.NewHandler(
			do.MustInvoke[*room.TokenIssuer](i),
			do.MustInvoke[*room.Hub](i),
			do.MustInvoke[*usecase.TranslationPipeline](i),
			do.MustInvoke[*usecase.Broadcaster](i),
			do.MustInvoke[repositories.TourRepository](i),
			do.MustInvoke[repositories.ArchiveRepository](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	return injector
}
