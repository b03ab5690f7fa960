package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/entity"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	DeleteByID(ctx context.Context, id string) error
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Game, error)
}

// MoveResult describes an accepted move.
type MoveResult struct {
	Game      *entity.Game
	Color     entity.Color
	Completed int
	Finished  bool
}

// DisconnectResult describes what happened to the game of a leaving player.
// Game is nil when the player was not seated.
type DisconnectResult struct {
	Game      *entity.Game
	Destroyed bool
	Remaining *entity.Player
}

// GameManager owns every game and the seat of every connection.
// Mutations are serialized, so a game is never updated by two requests at once.
type GameManager struct {
	logger *slog.Logger

	mu         sync.Mutex
	playerRepo playerRepo
	gameRepo   gameRepo

	boardSize int
	newID     func() string
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, boardSize int) *GameManager {
	return &GameManager{
		logger: logger.With("component", "gameManager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,

		boardSize: boardSize,
		newID:     uuid.NewString,
	}
}

// CreateGame opens a new game and seats the creator as red.
func (that *GameManager) CreateGame(ctx context.Context, playerID string) (*entity.Game, *entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmNotSeated(ctx, playerID); err != nil {
		return nil, nil, err
	}

	game := entity.NewGame(that.newID(), that.boardSize)
	player := &entity.Player{ID: playerID}

	if err := game.AddPlayer(player); err != nil {
		return nil, nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	if err := that.save(ctx, game, player); err != nil {
		return nil, nil, err
	}

	that.logger.Info("game created", "game_id", game.ID, "player_id", playerID)

	return game, player, nil
}

// JoinGame seats the player on the free color of an existing game.
func (that *GameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, *entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	if err = that.confirmNotSeated(ctx, playerID); err != nil {
		return nil, nil, err
	}

	player := &entity.Player{ID: playerID}
	if err = game.AddPlayer(player); err != nil {
		return nil, nil, fmt.Errorf("failed to join game %s: %w", gameID, err)
	}

	if err = that.save(ctx, game, player); err != nil {
		return nil, nil, err
	}

	that.logger.Info("player joined", "game_id", gameID, "player_id", playerID, "color", player.Color.String())

	return game, player, nil
}

// MakeMove draws a line on behalf of the player.
func (that *GameManager) MakeMove(
	ctx context.Context,
	gameID, playerID string,
	lineType entity.LineType,
	index int,
) (*MoveResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	completed, err := game.MakeMove(playerID, lineType, index)
	if err != nil {
		return nil, fmt.Errorf("failed make move: %w", err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	result := &MoveResult{
		Game:      game,
		Color:     game.PlayerByID(playerID).Color,
		Completed: completed,
		Finished:  game.IsFinished(),
	}

	if result.Finished {
		that.logger.Info("game finished", "game_id", gameID, "winner", game.Winner)
	}

	return result, nil
}

// RestartGame clears the board of a started game, keeping both seats.
func (that *GameManager) RestartGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.PlayerByID(playerID) == nil {
		return nil, apperror.ErrNotInGame
	}

	if game.IsWaiting() {
		return nil, apperror.ErrGameIsNotStarted
	}

	game.Reset()

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	that.logger.Info("game restarted", "game_id", gameID, "player_id", playerID)

	return game, nil
}

// Disconnect frees the seat of the player. The game is destroyed with its last seat.
func (that *GameManager) Disconnect(ctx context.Context, playerID string) (*DisconnectResult, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "Disconnect", "player_id", playerID)

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		return &DisconnectResult{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if err = that.playerRepo.DeleteByID(ctx, playerID); err != nil {
		return nil, fmt.Errorf("failed to delete player: %w", err)
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		log.Warn("seat points to a missing game", "game_id", player.GameID)
		return &DisconnectResult{}, nil
	}

	if err != nil {
		return nil, err
	}

	game.RemovePlayer(playerID)

	if game.IsEmpty() {
		if err = that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
			return nil, fmt.Errorf("failed to delete game: %w", err)
		}

		log.Info("game destroyed", "game_id", game.ID)

		return &DisconnectResult{Game: game, Destroyed: true}, nil
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	log.Info("player left", "game_id", game.ID)

	return &DisconnectResult{Game: game, Remaining: game.Players[0]}, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.getGameByID(ctx, gameID)
}

func (that *GameManager) ListGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	return games, nil
}

func (that *GameManager) confirmNotSeated(ctx context.Context, playerID string) error {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	return fmt.Errorf("%w: %s", apperror.ErrAlreadyInGame, player.GameID)
}

func (that *GameManager) save(ctx context.Context, game *entity.Game, player *entity.Player) error {
	if err := that.updateGame(ctx, game); err != nil {
		return err
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}
