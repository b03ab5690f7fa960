package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/entity"
)

type uGame interface {
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	ListGames(ctx context.Context) ([]*entity.Game, error)
}

type Server struct {
	logger    *slog.Logger
	uGame     uGame
	inviteURL string
}

func New(logger *slog.Logger, uGame uGame, inviteURL string) *Server {
	return &Server{
		logger:    logger.With("component", "rest"),
		uGame:     uGame,
		inviteURL: inviteURL,
	}
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()

	router.GET("/ping", that.handlePing)
	router.GET("/healthz", that.handleHealthz)
	router.GET("/games", that.handleListGames)
	router.GET("/games/:id/invite", that.handleInvite)
	router.GET("/games/:id/qr", that.handleQRCode)

	return router
}

// Start - serves HTTP until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	}
}
