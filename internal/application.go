package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/config"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/repository"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/repository/storage"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/usecase"
	"github.com/rocketscienceinc/dotsandboxes-backend/transport/rest"
	"github.com/rocketscienceinc/dotsandboxes-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	playerRepo, gameRepo, closeStorage, err := newRepositories(ctx, log, conf)
	if err != nil {
		return err
	}

	defer closeStorage()

	gameUseCase := usecase.NewGameManager(logger, playerRepo, gameRepo, conf.Game.BoardSize)

	errCh := make(chan error, 2)

	// run HTTP server
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameUseCase, conf.InviteURL)
		if httpErr := restServer.Start(ctx, conf.HTTPPort, conf.Shutdown); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
			return
		}

		errCh <- nil
	}()

	// run Websocket server
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase, websocket.Options{
			RateLimit:  conf.Socket.RateLimit,
			RateBurst:  conf.Socket.RateBurst,
			SendBuffer: conf.Socket.SendBuffer,
		})
		if wsErr := wsServer.Start(ctx, conf.SocketPort, conf.Shutdown); wsErr != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
			return
		}

		errCh <- nil
	}()

	// the first server to stop takes the other one down
	var errs []error
	for range 2 {
		if err = <-errCh; err != nil {
			log.Error("server stopped", "error", err)
			errs = append(errs, err)
		}

		stop()
	}

	log.Info("Application stopped")

	return errors.Join(errs...)
}

func newRepositories(
	ctx context.Context,
	log *slog.Logger,
	conf *config.Config,
) (repository.PlayerRepository, repository.GameRepository, func(), error) {
	if conf.Storage == config.StorageMemory {
		log.Info("Using in-memory storage")

		return repository.NewMemoryPlayerRepository(), repository.NewMemoryGameRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if conf.Redis.Host == "" {
		return nil, nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis storage", "addr", redisAddrString)

	closeStorage := func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewPlayerRepository(redisStorage, conf.Redis.TTL),
		repository.NewGameRepository(redisStorage, conf.Redis.TTL),
		closeStorage,
		nil
}
