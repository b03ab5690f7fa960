package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	WinnerTie = "tie"

	MaxPlayers = 2
)

var ErrUnknownGameStatus = errors.New("unknown game status")

type Scores struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

func (that *Scores) add(color Color, points int) {
	switch color {
	case ColorRed:
		that.Red += points
	case ColorBlue:
		that.Blue += points
	}
}

// Result is the final score of a game.
type Result struct {
	RedScore  int    `json:"redScore"`
	BlueScore int    `json:"blueScore"`
	Winner    string `json:"winner"`
}

type Game struct {
	ID            string    `json:"id"`
	Board         *Board    `json:"board"`
	Scores        Scores    `json:"scores"`
	Turn          Color     `json:"turn"`
	LastDrawnLine *Line     `json:"last_drawn_line,omitempty"`
	Status        string    `json:"status"`
	Winner        string    `json:"winner,omitempty"`
	Players       []*Player `json:"players,omitempty"`
}

func NewGame(id string, boardSize int) *Game {
	return &Game{
		ID:     id,
		Board:  NewBoard(boardSize),
		Turn:   ColorRed,
		Status: StatusWaiting,
	}
}

// MakeMove draws a line for the seated player and advances the turn.
// It returns the number of boxes the move completed.
func (that *Game) MakeMove(playerID string, lineType LineType, index int) (int, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return 0, err
	}

	player := that.PlayerByID(playerID)
	if player == nil {
		return 0, apperror.ErrNotInGame
	}

	if player.Color != that.Turn {
		return 0, apperror.ErrNotYourTurn
	}

	completed, err := that.Board.ApplyMove(player.Color, lineType, index)
	if err != nil {
		return 0, err
	}

	that.LastDrawnLine = &Line{Type: lineType, Index: index}

	// completing a box grants another move
	if completed > 0 {
		that.Scores.add(player.Color, completed)
	} else {
		that.Turn = that.Turn.Opponent()
	}

	that.UpdateGameState()

	return completed, nil
}

// UpdateGameState finishes the game once the board is complete.
func (that *Game) UpdateGameState() {
	if !that.Board.IsComplete() {
		return
	}

	that.Status = StatusFinished
	that.Winner = that.Result().Winner
}

func (that *Game) Result() Result {
	result := Result{
		RedScore:  that.Scores.Red,
		BlueScore: that.Scores.Blue,
	}

	switch {
	case that.Scores.Red > that.Scores.Blue:
		result.Winner = ColorRed.String()
	case that.Scores.Blue > that.Scores.Red:
		result.Winner = ColorBlue.String()
	default:
		result.Winner = WinnerTie
	}

	return result
}

// Reset clears the board and scores but keeps the seated players.
func (that *Game) Reset() {
	that.Board = NewBoard(that.Board.Size)
	that.Scores = Scores{}
	that.Turn = ColorRed
	that.LastDrawnLine = nil
	that.Winner = ""

	if that.IsFull() {
		that.Status = StatusOngoing
	} else {
		that.Status = StatusWaiting
	}
}

// AddPlayer seats a player on the first free color.
func (that *Game) AddPlayer(player *Player) error {
	if that.PlayerByID(player.ID) != nil {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInGame, that.ID)
	}

	if that.IsFull() {
		return apperror.ErrGameFull
	}

	player.GameID = that.ID
	player.Color = that.freeColor()
	that.Players = append(that.Players, player)

	if that.IsFull() && that.Status == StatusWaiting {
		that.Status = StatusOngoing
		that.UpdateGameState()
	}

	return nil
}

// RemovePlayer frees the seat of the player and puts the game back into
// waiting. A complete board is detected again once the seat is refilled.
func (that *Game) RemovePlayer(playerID string) bool {
	for i, player := range that.Players {
		if player.ID != playerID {
			continue
		}

		that.Players = append(that.Players[:i], that.Players[i+1:]...)
		that.Status = StatusWaiting

		return true
	}

	return false
}

func (that *Game) PlayerByID(playerID string) *Player {
	for _, player := range that.Players {
		if player.ID == playerID {
			return player
		}
	}

	return nil
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= MaxPlayers
}

func (that *Game) IsEmpty() bool {
	return len(that.Players) == 0
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

// Clone returns a deep copy, so stored games are never shared with callers.
func (that *Game) Clone() *Game {
	clone := *that
	clone.Board = that.Board.Clone()

	if that.LastDrawnLine != nil {
		line := *that.LastDrawnLine
		clone.LastDrawnLine = &line
	}

	if that.Players != nil {
		clone.Players = make([]*Player, 0, len(that.Players))
		for _, player := range that.Players {
			p := *player
			clone.Players = append(clone.Players, &p)
		}
	}

	return &clone
}

func (that *Game) freeColor() Color {
	taken := make(map[Color]bool, len(that.Players))
	for _, player := range that.Players {
		taken[player.Color] = true
	}

	if !taken[ColorRed] {
		return ColorRed
	}

	return ColorBlue
}
