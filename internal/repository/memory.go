package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

// memoryGame keeps games in process memory. Records are copied on the way in and out.
type memoryGame struct {
	mu    sync.RWMutex
	games map[string]entity.Game
}

// NewMemoryGameRepository - in-process backend for local runs and tests.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]entity.Game),
	}
}

func (that *memoryGame) Create(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.ID]; ok {
		return fmt.Errorf("game %s already exists", game.ID)
	}

	that.games[game.ID] = *game

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	return &game, nil
}

func (that *memoryGame) UpdateMoves(_ context.Context, id string, expected, next entity.Board) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	if game.Moves != expected {
		return apperror.ErrConflict
	}

	game.Moves = next
	that.games[id] = game

	return nil
}

func (that *memoryGame) List(_ context.Context) ([]*entity.Game, error) {
	that.mu.RLock()
	games := make([]*entity.Game, 0, len(that.games))
	for _, game := range that.games {
		game := game
		games = append(games, &game)
	}
	that.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if !games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		}
		return games[i].ID > games[j].ID
	})

	return games, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	delete(that.games, id)

	return nil
}
