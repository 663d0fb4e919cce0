package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/devserver"
	"clipforge/internal/infra"
	"clipforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("devbackend: failed to configure storage")
	}

	srv := devserver.New(devserver.Config{
		Logger:        logger,
		Files:         files,
		StaticBaseURL: cfg.StaticBaseURL,
		QueueMode:     os.Getenv("QUEUE_MODE") == "1",
	})

	server := infra.NewHTTPServer(cfg, srv.Router())

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("devbackend listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("devbackend stopped")
}
