package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/testing/suite"
)

type repoFactory func(t *testing.T) (context.Context, GameRepository)

func newTestGame(id string, createdAt time.Time) *entity.Game {
	return &entity.Game{
		ID:          id,
		Player1Name: "John",
		Player2Name: "Maria",
		CreatedAt:   createdAt.UTC(),
	}
}

// testGameRepository runs the behavior every backend must share.
func testGameRepository(t *testing.T, newRepo repoFactory) {
	t.Helper()

	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a stored game
		game := newTestGame("123", createdAt)
		require.NoError(t, gameRepo.Create(ctx, game))

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		assert.Equal(t, game, retrievedGame)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// When: GetByID is called with non-existent ID
		retrievedGame, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Nil(t, retrievedGame)
	})

	t.Run("GetByID_Idempotent", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		game := newTestGame("123", createdAt)
		game.Moves = entity.Board{entity.PlayerX}
		require.NoError(t, gameRepo.Create(ctx, game))

		first, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		second, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)

		assert.Equal(t, first.Moves, second.Moves)
	})

	t.Run("UpdateMoves_Success", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a stored game with an empty board
		game := newTestGame("123", createdAt)
		require.NoError(t, gameRepo.Create(ctx, game))

		// When: X is written over the expected empty board
		next := entity.Board{entity.PlayerX}
		err := gameRepo.UpdateMoves(ctx, game.ID, entity.Board{}, next)

		// Then: the new board is stored and the rest of the record is untouched
		require.NoError(t, err)
		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, next, stored.Moves)
		assert.Equal(t, "John", stored.Player1Name)
		assert.Equal(t, createdAt, stored.CreatedAt)
	})

	t.Run("UpdateMoves_Conflict", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a game whose board already moved on
		game := newTestGame("123", createdAt)
		game.Moves = entity.Board{entity.PlayerX}
		require.NoError(t, gameRepo.Create(ctx, game))

		// When: a writer still expects the empty board
		err := gameRepo.UpdateMoves(ctx, game.ID, entity.Board{}, entity.Board{4: entity.PlayerX})

		// Then: ErrConflict is returned and nothing is written
		require.ErrorIs(t, err, apperror.ErrConflict)
		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{entity.PlayerX}, stored.Moves)
	})

	t.Run("UpdateMoves_NotFound", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		err := gameRepo.UpdateMoves(ctx, "9999999", entity.Board{}, entity.Board{entity.PlayerX})

		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("UpdateMoves_OneConcurrentWriterWins", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		game := newTestGame("123", createdAt)
		require.NoError(t, gameRepo.Create(ctx, game))

		// When: several writers race from the same empty board
		const writers = 8
		errs := make([]error, writers)

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()

				var next entity.Board
				next[i] = entity.PlayerX
				errs[i] = gameRepo.UpdateMoves(ctx, game.ID, entity.Board{}, next)
			}()
		}
		wg.Wait()

		// Then: exactly one write is accepted
		accepted := 0
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			require.ErrorIs(t, err, apperror.ErrConflict)
		}
		assert.Equal(t, 1, accepted)

		stored, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Moves.Filled())
	})

	t.Run("List_NewestFirst", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: three games created a minute apart, stored out of order
		for _, offset := range []int{1, 0, 2} {
			game := newTestGame(fmt.Sprintf("game-%d", offset), createdAt.Add(time.Duration(offset)*time.Minute))
			require.NoError(t, gameRepo.Create(ctx, game))
		}

		// When: listing games
		games, err := gameRepo.List(ctx)

		// Then: the most recent game comes first
		require.NoError(t, err)
		require.Len(t, games, 3)
		assert.Equal(t, "game-2", games[0].ID)
		assert.Equal(t, "game-1", games[1].ID)
		assert.Equal(t, "game-0", games[2].ID)
	})

	t.Run("List_Empty", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		games, err := gameRepo.List(ctx)

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a stored game
		game := newTestGame("123", createdAt)
		require.NoError(t, gameRepo.Create(ctx, game))

		// When: DeleteByID is called with existing ID
		err := gameRepo.DeleteByID(ctx, game.ID)

		// Then: the game is gone from reads and from the listing
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, apperror.ErrNotFound)

		games, err := gameRepo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: an ErrNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestRedisGameRepository(t *testing.T) {
	testGameRepository(t, func(t *testing.T) (context.Context, GameRepository) {
		t.Helper()

		ctx, st := suite.New(t)

		return ctx, NewGameRepository(st.Storage)
	})
}

func TestRedisGameRepository_CorruptedRecord(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "History has only three cells",
			raw:  `{"id":"1","player1_name":"John","player2_name":"Maria","moves":["X","X","O"],"createdAt":"2024-05-01T12:00:00Z"}`,
		},
		{
			name: "History is missing",
			raw:  `{"id":"2","player1_name":"John","player2_name":"Maria","createdAt":"2024-05-01T12:00:00Z"}`,
		},
		{
			name: "History is null",
			raw:  `{"id":"3","player1_name":"John","player2_name":"Maria","moves":null,"createdAt":"2024-05-01T12:00:00Z"}`,
		},
		{
			name: "Document is not JSON",
			raw:  `not json`,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a stored document with a broken history
			id := fmt.Sprintf("corrupted-%d", i)
			require.NoError(t, st.Storage.Set(ctx, gameKey(id), tt.raw, 0).Err())

			// When: reading it
			_, err := gameRepo.GetByID(ctx, id)

			// Then: it is reported as corrupted, not repaired
			require.ErrorIs(t, err, apperror.ErrCorruptedHistory)
		})
	}
}

func TestDecodeGame(t *testing.T) {
	t.Run("Missing history is corrupted", func(t *testing.T) {
		// Given: a document without moves
		raw := `{"id":"123","player1_name":"John","player2_name":"Maria","createdAt":"2024-05-01T12:00:00Z"}`

		// When: decoding it
		_, err := decodeGame([]byte(raw))

		// Then: the empty board is not filled in
		require.ErrorIs(t, err, apperror.ErrCorruptedHistory)
	})

	t.Run("Well-formed document", func(t *testing.T) {
		raw := `{"id":"123","player1_name":"John","player2_name":"Maria","moves":["X","","","","O","","","",""],"createdAt":"2024-05-01T12:00:00Z"}`

		game, err := decodeGame([]byte(raw))

		require.NoError(t, err)
		assert.Equal(t, "123", game.ID)
		assert.Equal(t, "John", game.Player1Name)
		assert.Equal(t, "Maria", game.Player2Name)
		assert.Equal(t, entity.PlayerX, game.Moves[0])
		assert.Equal(t, entity.PlayerO, game.Moves[4])
		assert.Equal(t, 2, game.Moves.Filled())
	})
}
