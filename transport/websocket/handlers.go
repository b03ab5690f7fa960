package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
)

var (
	errTooManyRequests = errors.New("too many requests")
	errUnknownAction   = errors.New("unknown action")
	errMalformed       = errors.New("malformed request")
)

// errorMessages maps domain errors to the text shown to the player.
var errorMessages = []struct {
	err     error
	message string
}{
	{apperror.ErrGameNotFound, "Game not found"},
	{apperror.ErrGameFull, "Game is full"},
	{apperror.ErrNotYourTurn, "Not your turn"},
	{apperror.ErrLineAlreadyDrawn, "Line already drawn"},
	{apperror.ErrInvalidLine, "Invalid line"},
	{apperror.ErrGameIsNotStarted, "Waiting for an opponent"},
	{apperror.ErrGameFinished, "Game is over"},
	{apperror.ErrNotInGame, "You are not part of this game"},
	{apperror.ErrAlreadyInGame, "You are already in a game"},
	{errTooManyRequests, "Too many requests"},
	{errUnknownAction, "Unknown action"},
	{errMalformed, "Malformed request"},
}

const internalErrorMessage = "Internal server error"

func errorMessage(err error) string {
	for _, known := range errorMessages {
		if errors.Is(err, known.err) {
			return known.message
		}
	}

	return internalErrorMessage
}

func (that *Server) handleMessage(ctx context.Context, c *client, data []byte) {
	log := that.logger.With("method", "handleMessage", "player_id", c.id)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		that.sendError(c, errMalformed)

		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		that.sendError(c, fmt.Errorf("%w: %s", errUnknownAction, message.Action))

		return
	}

	if err := handler(ctx, c, message.Payload); err != nil {
		if errorMessage(err) == internalErrorMessage {
			log.Error("failed to handle message", "action", message.Action, "error", err)
		} else {
			log.Debug("request rejected", "action", message.Action, "error", err)
		}

		that.sendError(c, err)
	}
}

func (that *Server) sendError(c *client, err error) {
	that.sendMessage(c, actionError, errorPayload{Message: errorMessage(err)})
}

func (that *Server) handleCreateGame(ctx context.Context, c *client, _ json.RawMessage) error {
	game, player, err := that.uGame.CreateGame(ctx, c.id)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	that.sendMessage(c, actionGameCreated, gameCreatedPayload{
		GameID:   game.ID,
		PlayerID: player.ID,
		Color:    player.Color,
	})

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, c *client, payload json.RawMessage) error {
	var request gameRequest
	if err := decodePayload(payload, &request); err != nil {
		return err
	}

	game, player, err := that.uGame.JoinGame(ctx, request.GameID, c.id)
	if err != nil {
		return fmt.Errorf("failed to join game: %w", err)
	}

	state := newGameState(game)

	that.sendMessage(c, actionGameJoined, gameJoinedPayload{
		GameID:    game.ID,
		PlayerID:  player.ID,
		Color:     player.Color,
		GameState: state,
	})

	for _, opponent := range game.Players {
		if opponent.ID == c.id {
			continue
		}

		if oc, ok := that.clients[opponent.ID]; ok {
			that.sendMessage(oc, actionOpponentJoined, gameStatePayload{GameState: state})
		}
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, c *client, payload json.RawMessage) error {
	var request moveRequest
	if err := decodePayload(payload, &request); err != nil {
		return err
	}

	if request.LineIndex == nil {
		return fmt.Errorf("%w: lineIndex is required", errMalformed)
	}

	if request.PlayerID != "" && request.PlayerID != c.id {
		return apperror.ErrNotYourTurn
	}

	result, err := that.uGame.MakeMove(ctx, request.GameID, c.id, request.LineType, *request.LineIndex)
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	game := result.Game

	if result.Completed > 0 {
		that.broadcast(game, actionBoxCompleted, boxCompletedPayload{
			Player:    result.Color,
			LineType:  request.LineType,
			LineIndex: *request.LineIndex,
		})
	}

	that.broadcast(game, actionGameState, newGameState(game))
	that.broadcast(game, actionPlayerTurn, game.Turn)

	if result.Finished {
		that.broadcast(game, actionGameOver, game.Result())
	}

	return nil
}

func (that *Server) handleRestartGame(ctx context.Context, c *client, payload json.RawMessage) error {
	var request gameRequest
	if err := decodePayload(payload, &request); err != nil {
		return err
	}

	game, err := that.uGame.RestartGame(ctx, request.GameID, c.id)
	if err != nil {
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.broadcast(game, actionGameReset, gameStatePayload{GameState: newGameState(game)})

	return nil
}

func (that *Server) handleGetAllGames(ctx context.Context, c *client, _ json.RawMessage) error {
	games, err := that.uGame.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}

	ids := make([]string, 0, len(games))
	for _, game := range games {
		ids = append(ids, game.ID)
	}

	that.sendMessage(c, actionAllGames, ids)

	return nil
}

// handleDisconnect frees the seat of a closed connection and tells the opponent.
func (that *Server) handleDisconnect(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleDisconnect", "player_id", c.id)

	result, err := that.uGame.Disconnect(ctx, c.id)
	if err != nil {
		log.Error("failed to disconnect player", "error", err)
		return
	}

	if result.Remaining == nil {
		return
	}

	if oc, ok := that.clients[result.Remaining.ID]; ok {
		that.sendMessage(oc, actionOpponentDisconnected, struct{}{})
	}
}

func decodePayload(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is required", errMalformed)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}

	return nil
}
