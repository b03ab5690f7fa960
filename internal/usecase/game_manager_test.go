package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/entity"
	"github.com/rocketscienceinc/dotsandboxes-backend/internal/repository"
)

var errRedisDown = errors.New("redis down")

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockGameRepo) List(ctx context.Context) ([]*entity.Game, error) {
	args := that.Called(ctx)
	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, boardSize int) *GameManager {
	t.Helper()

	manager := NewGameManager(
		newTestLogger(),
		repository.NewMemoryPlayerRepository(),
		repository.NewMemoryGameRepository(),
		boardSize,
	)

	next := 0
	manager.newID = func() string {
		next++
		return fmt.Sprintf("game-%d", next)
	}

	return manager
}

// newStartedGame creates a game for "red" and lets "blue" join it.
func newStartedGame(t *testing.T, manager *GameManager) string {
	t.Helper()

	ctx := context.Background()

	game, _, err := manager.CreateGame(ctx, "red")
	require.NoError(t, err)

	_, _, err = manager.JoinGame(ctx, game.ID, "blue")
	require.NoError(t, err)

	return game.ID
}

func TestGameManager_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Seats the creator as red in a waiting game", func(t *testing.T) {
		manager := newTestManager(t, 5)

		// When: a connection creates a game
		game, player, err := manager.CreateGame(ctx, "conn-1")

		// Then: the game waits for an opponent with the creator on red
		require.NoError(t, err)
		assert.Equal(t, "game-1", game.ID)
		assert.Equal(t, entity.StatusWaiting, game.Status)
		assert.Equal(t, entity.ColorRed, player.Color)
		assert.Equal(t, game.ID, player.GameID)
		assert.Equal(t, entity.ColorRed, game.Turn)

		stored, err := manager.GetGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, game, stored)
	})

	t.Run("Uses uuid ids by default", func(t *testing.T) {
		manager := NewGameManager(newTestLogger(), repository.NewMemoryPlayerRepository(), repository.NewMemoryGameRepository(), 5)

		first, _, err := manager.CreateGame(ctx, "a")
		require.NoError(t, err)
		second, _, err := manager.CreateGame(ctx, "b")
		require.NoError(t, err)

		assert.Len(t, first.ID, 36)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("Rejects a seated connection", func(t *testing.T) {
		manager := newTestManager(t, 5)

		// Given: a connection that already created a game
		_, _, err := manager.CreateGame(ctx, "conn-1")
		require.NoError(t, err)

		// When: it creates another one
		game, _, err := manager.CreateGame(ctx, "conn-1")

		// Then: ErrAlreadyInGame is returned
		require.ErrorIs(t, err, apperror.ErrAlreadyInGame)
		assert.Nil(t, game)
	})

	t.Run("Returns error if the game cannot be stored", func(t *testing.T) {
		gameRepo := &mockGameRepo{}
		manager := NewGameManager(newTestLogger(), repository.NewMemoryPlayerRepository(), gameRepo, 5)

		gameRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Game")).
			Return(errRedisDown).
			Once()

		// When: the store fails
		game, _, err := manager.CreateGame(ctx, "conn-1")

		// Then: the storage error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, game)
		gameRepo.AssertExpectations(t)
	})
}

func TestGameManager_JoinGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Seats the joiner as blue and starts the game", func(t *testing.T) {
		manager := newTestManager(t, 5)

		// Given: a waiting game
		created, _, err := manager.CreateGame(ctx, "red")
		require.NoError(t, err)

		// When: a second connection joins
		game, player, err := manager.JoinGame(ctx, created.ID, "blue")

		// Then: the game is ongoing with red to move
		require.NoError(t, err)
		assert.Equal(t, entity.ColorBlue, player.Color)
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, entity.ColorRed, game.Turn)
		assert.Len(t, game.Players, 2)
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager := newTestManager(t, 5)

		_, _, err := manager.JoinGame(ctx, "missing", "blue")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Full game", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		// When: a third connection joins
		_, _, err := manager.JoinGame(ctx, gameID, "third")

		// Then: ErrGameFull is returned and the seats are unchanged
		require.ErrorIs(t, err, apperror.ErrGameFull)

		game, err := manager.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Len(t, game.Players, 2)
	})

	t.Run("A connection cannot join its own game", func(t *testing.T) {
		manager := newTestManager(t, 5)
		created, _, err := manager.CreateGame(ctx, "red")
		require.NoError(t, err)

		_, _, err = manager.JoinGame(ctx, created.ID, "red")

		require.ErrorIs(t, err, apperror.ErrAlreadyInGame)
	})
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepted move passes the turn", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		// When: red draws a line that completes nothing
		result, err := manager.MakeMove(ctx, gameID, "red", entity.LineHorizontal, 0)

		// Then: blue is to move and the move is persisted
		require.NoError(t, err)
		assert.Equal(t, entity.ColorRed, result.Color)
		assert.Equal(t, 0, result.Completed)
		assert.False(t, result.Finished)
		assert.Equal(t, entity.ColorBlue, result.Game.Turn)
		assert.Equal(t, &entity.Line{Type: entity.LineHorizontal, Index: 0}, result.Game.LastDrawnLine)

		stored, err := manager.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.True(t, stored.Board.IsDrawn(entity.LineHorizontal, 0))
	})

	t.Run("Rejected moves leave the stored game unchanged", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		_, err := manager.MakeMove(ctx, gameID, "red", entity.LineVertical, 3)
		require.NoError(t, err)

		before, err := manager.GetGame(ctx, gameID)
		require.NoError(t, err)

		cases := []struct {
			name     string
			playerID string
			lineType entity.LineType
			index    int
			want     error
		}{
			{"out of turn", "red", entity.LineHorizontal, 1, apperror.ErrNotYourTurn},
			{"drawn line", "blue", entity.LineVertical, 3, apperror.ErrLineAlreadyDrawn},
			{"invalid index", "blue", entity.LineVertical, 30, apperror.ErrInvalidLine},
			{"stranger", "stranger", entity.LineHorizontal, 1, apperror.ErrNotInGame},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := manager.MakeMove(ctx, gameID, tc.playerID, tc.lineType, tc.index)
				require.ErrorIs(t, err, tc.want)

				after, err := manager.GetGame(ctx, gameID)
				require.NoError(t, err)
				assert.Equal(t, before, after)
			})
		}
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager := newTestManager(t, 5)

		_, err := manager.MakeMove(ctx, "missing", "red", entity.LineHorizontal, 0)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Waiting game", func(t *testing.T) {
		manager := newTestManager(t, 5)
		game, _, err := manager.CreateGame(ctx, "red")
		require.NoError(t, err)

		_, err = manager.MakeMove(ctx, game.ID, "red", entity.LineHorizontal, 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Last box finishes the game", func(t *testing.T) {
		manager := newTestManager(t, 1)
		gameID := newStartedGame(t, manager)

		// Given: a 1x1 board; red draws three sides and blue passes each time
		moves := []struct {
			playerID string
			line     entity.Line
		}{
			{"red", entity.Line{Type: entity.LineHorizontal, Index: 0}},
			{"blue", entity.Line{Type: entity.LineHorizontal, Index: 2}},
			{"red", entity.Line{Type: entity.LineVertical, Index: 0}},
		}

		for _, move := range moves {
			_, err := manager.MakeMove(ctx, gameID, move.playerID, move.line.Type, move.line.Index)
			require.NoError(t, err)
		}

		// When: blue closes the only box
		result, err := manager.MakeMove(ctx, gameID, "blue", entity.LineVertical, 1)

		// Then: blue wins and further moves are rejected
		require.NoError(t, err)
		assert.Equal(t, 1, result.Completed)
		assert.True(t, result.Finished)
		assert.Equal(t, entity.Result{RedScore: 0, BlueScore: 1, Winner: "blue"}, result.Game.Result())

		_, err = manager.MakeMove(ctx, gameID, "blue", entity.LineHorizontal, 0)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Returns error if the game cannot be stored", func(t *testing.T) {
		gameRepo := &mockGameRepo{}
		manager := NewGameManager(newTestLogger(), repository.NewMemoryPlayerRepository(), gameRepo, 5)

		game := entity.NewGame("g1", 5)
		require.NoError(t, game.AddPlayer(&entity.Player{ID: "red"}))
		require.NoError(t, game.AddPlayer(&entity.Player{ID: "blue"}))

		gameRepo.On("GetByID", mock.Anything, "g1").Return(game, nil).Once()
		gameRepo.On("CreateOrUpdate", mock.Anything, game).Return(errRedisDown).Once()

		result, err := manager.MakeMove(ctx, "g1", "red", entity.LineHorizontal, 0)

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, result)
		gameRepo.AssertExpectations(t)
	})
}

func TestGameManager_RestartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears the board and keeps the seats", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		_, err := manager.MakeMove(ctx, gameID, "red", entity.LineHorizontal, 0)
		require.NoError(t, err)

		// When: blue asks for a restart
		game, err := manager.RestartGame(ctx, gameID, "blue")

		// Then: the game starts over with red to move
		require.NoError(t, err)
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, entity.ColorRed, game.Turn)
		assert.Nil(t, game.LastDrawnLine)
		assert.False(t, game.Board.IsDrawn(entity.LineHorizontal, 0))
		assert.Len(t, game.Players, 2)
	})

	t.Run("Requester must be seated", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		_, err := manager.RestartGame(ctx, gameID, "stranger")

		require.ErrorIs(t, err, apperror.ErrNotInGame)
	})

	t.Run("Waiting game cannot be restarted", func(t *testing.T) {
		manager := newTestManager(t, 5)
		game, _, err := manager.CreateGame(ctx, "red")
		require.NoError(t, err)

		_, err = manager.RestartGame(ctx, game.ID, "red")

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager := newTestManager(t, 5)

		_, err := manager.RestartGame(ctx, "missing", "red")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_Disconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Remaining player waits and the seat can be refilled", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		_, err := manager.MakeMove(ctx, gameID, "red", entity.LineHorizontal, 0)
		require.NoError(t, err)

		// When: red disconnects
		result, err := manager.Disconnect(ctx, "red")

		// Then: blue is reported and the board is kept
		require.NoError(t, err)
		assert.False(t, result.Destroyed)
		require.NotNil(t, result.Remaining)
		assert.Equal(t, "blue", result.Remaining.ID)
		assert.Equal(t, entity.StatusWaiting, result.Game.Status)
		assert.True(t, result.Game.Board.IsDrawn(entity.LineHorizontal, 0))

		// When: a new connection joins
		game, player, err := manager.JoinGame(ctx, gameID, "newcomer")

		// Then: it takes the vacated red seat and play resumes
		require.NoError(t, err)
		assert.Equal(t, entity.ColorRed, player.Color)
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, entity.ColorBlue, game.Turn)
	})

	t.Run("Last seat destroys the game", func(t *testing.T) {
		manager := newTestManager(t, 5)
		gameID := newStartedGame(t, manager)

		_, err := manager.Disconnect(ctx, "red")
		require.NoError(t, err)

		// When: the last player leaves
		result, err := manager.Disconnect(ctx, "blue")

		// Then: the game is gone and both connections are free again
		require.NoError(t, err)
		assert.True(t, result.Destroyed)

		_, err = manager.GetGame(ctx, gameID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		_, _, err = manager.CreateGame(ctx, "blue")
		require.NoError(t, err)
	})

	t.Run("Connection without a seat is a no-op", func(t *testing.T) {
		manager := newTestManager(t, 5)

		result, err := manager.Disconnect(ctx, "nobody")

		require.NoError(t, err)
		assert.Nil(t, result.Game)
		assert.False(t, result.Destroyed)
	})
}

func TestGameManager_ListGames(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t, 5)

	_, _, err := manager.CreateGame(ctx, "a")
	require.NoError(t, err)
	_, _, err = manager.CreateGame(ctx, "b")
	require.NoError(t, err)

	games, err := manager.ListGames(ctx)

	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "game-1", games[0].ID)
	assert.Equal(t, "game-2", games[1].ID)
}
