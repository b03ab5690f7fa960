package websocket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/entity"
)

// Client to server actions.
const (
	actionCreateGame  = "createGame"
	actionJoinGame    = "joinGame"
	actionMakeMove    = "makeMove"
	actionRestartGame = "restartGame"
	actionGetAllGames = "getAllGames"
)

// Server to client actions.
const (
	actionGameCreated          = "gameCreated"
	actionGameJoined           = "gameJoined"
	actionOpponentJoined       = "opponentJoined"
	actionBoxCompleted         = "boxCompleted"
	actionGameState            = "gameState"
	actionPlayerTurn           = "playerTurn"
	actionGameOver             = "gameOver"
	actionGameReset            = "gameReset"
	actionOpponentDisconnected = "opponentDisconnected"
	actionError                = "error"
	actionAllGames             = "allGames"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type gameRequest struct {
	GameID string `json:"gameId"`
}

// UnmarshalJSON accepts both {"gameId": "..."} and a bare "..." string.
func (that *gameRequest) UnmarshalJSON(data []byte) error {
	if strings.HasPrefix(strings.TrimSpace(string(data)), `"`) {
		return json.Unmarshal(data, &that.GameID)
	}

	type plain gameRequest

	var request plain
	if err := json.Unmarshal(data, &request); err != nil {
		return fmt.Errorf("failed to unmarshal game request: %w", err)
	}

	*that = gameRequest(request)

	return nil
}

type moveRequest struct {
	GameID    string          `json:"gameId"`
	PlayerID  string          `json:"playerId"`
	LineType  entity.LineType `json:"lineType"`
	LineIndex *int            `json:"lineIndex"`
}

// GameState is the snapshot of a game as the client renders it.
//
// HorizontalLines has (N+1)*(N+1) slots for an N x N board: line (row, col)
// sits at row*(N+1)+col and the last slot of every row is always false.
// VerticalLines has (N+1)*N slots, line (col, row) at col*N+row.
type GameState struct {
	HorizontalLines []bool         `json:"horizontalLines"`
	VerticalLines   []bool         `json:"verticalLines"`
	Boxes           []entity.Color `json:"boxes"`
	Scores          entity.Scores  `json:"scores"`
	CurrentPlayer   entity.Color   `json:"currentPlayer"`
	LastDrawnLine   *entity.Line   `json:"lastDrawnLine"`
	IsFull          bool           `json:"isFull"`
}

func newGameState(game *entity.Game) *GameState {
	return &GameState{
		HorizontalLines: game.Board.HorizontalLines,
		VerticalLines:   game.Board.VerticalLines,
		Boxes:           game.Board.Boxes,
		Scores:          game.Scores,
		CurrentPlayer:   game.Turn,
		LastDrawnLine:   game.LastDrawnLine,
		IsFull:          game.IsFull(),
	}
}

type gameCreatedPayload struct {
	GameID   string       `json:"gameId"`
	PlayerID string       `json:"playerId"`
	Color    entity.Color `json:"color"`
}

type gameJoinedPayload struct {
	GameID    string       `json:"gameId"`
	PlayerID  string       `json:"playerId"`
	Color     entity.Color `json:"color"`
	GameState *GameState   `json:"gameState"`
}

type gameStatePayload struct {
	GameState *GameState `json:"gameState"`
}

type boxCompletedPayload struct {
	Player    entity.Color    `json:"player"`
	LineType  entity.LineType `json:"lineType"`
	LineIndex int             `json:"lineIndex"`
}

type errorPayload struct {
	Message string `json:"message"`
}
