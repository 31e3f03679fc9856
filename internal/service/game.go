package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

type GameService interface {
	CreateGame(ctx context.Context, player1Name, player2Name string) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	ListGames(ctx context.Context) ([]*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error

	// ApplyMove - places mark at index and returns the updated game. With an empty mark
	// the mover is whoever's turn it is in the game as read at the start of the call.
	ApplyMove(ctx context.Context, id string, index int, mark entity.Mark) (*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	UpdateMoves(ctx context.Context, id string, expected, next entity.Board) error
	List(ctx context.Context) ([]*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	logger *slog.Logger

	gameRepo     gameRepo
	moveAttempts int

	newID func() string
	now   func() time.Time
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, moveAttempts int) GameService {
	if moveAttempts < 1 {
		moveAttempts = 1
	}

	return &gameService{
		logger:       logger.With("component", "gameService"),
		gameRepo:     gameRepo,
		moveAttempts: moveAttempts,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

func (that *gameService) CreateGame(ctx context.Context, player1Name, player2Name string) (*entity.Game, error) {
	// stored with millisecond precision by every backend
	createdAt := that.now().UTC().Truncate(time.Millisecond)

	game, err := entity.NewGame(that.newID(), player1Name, player2Name, createdAt)
	if err != nil {
		return nil, err
	}

	if err = that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	that.logger.Info("game created", "gameID", game.ID)

	return game, nil
}

func (that *gameService) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) ListGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games from storage: %w", err)
	}

	return games, nil
}

func (that *gameService) DeleteGame(ctx context.Context, id string) error {
	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("game deleted", "gameID", id)

	return nil
}

func (that *gameService) ApplyMove(ctx context.Context, id string, index int, mark entity.Mark) (*entity.Game, error) {
	log := that.logger.With("method", "ApplyMove", "gameID", id, "index", index)

	acting := mark

	for attempt := 1; attempt <= that.moveAttempts; attempt++ {
		game, err := that.gameRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get game by id: %w", err)
		}

		// fixed on the first read, so a request that loses a race is judged as that player
		if acting == entity.EmptyCell {
			if acting, err = entity.WhoseTurn(game.Moves); err != nil {
				log.Error("stored history is corrupted", "error", err)
				return nil, err
			}
		}

		updated, err := game.WithMove(index, acting)
		if err != nil {
			if errors.Is(err, apperror.ErrCorruptedHistory) {
				log.Error("stored history is corrupted", "error", err)
			}
			return nil, err
		}

		err = that.gameRepo.UpdateMoves(ctx, id, game.Moves, updated.Moves)
		if err == nil {
			log.Debug("move applied", "mark", acting, "attempt", attempt)
			return updated, nil
		}

		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("failed to update game: %w", err)
		}

		log.Debug("game changed while applying move, re-validating", "attempt", attempt)
	}

	log.Warn("move not applied, too many concurrent updates", "attempts", that.moveAttempts)

	return nil, fmt.Errorf("%w: game %s changed %d times while applying move", apperror.ErrStoreUnavailable, id, that.moveAttempts)
}
