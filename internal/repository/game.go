package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

const (
	gameKeyPrefix  = "game:"
	gamesByCreated = "games:created"
)

// GameRepository persists game records. Implementations report unknown ids with
// apperror.ErrNotFound and backend failures with apperror.ErrStoreUnavailable.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)

	// UpdateMoves - stores next as the moves of game id, only if the stored moves
	// still equal expected. Otherwise it returns apperror.ErrConflict and writes nothing.
	UpdateMoves(ctx context.Context, id string, expected, next entity.Board) error

	// List - returns all games, most recently created first.
	List(ctx context.Context) ([]*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
}

// NewGameRepository - Redis backend. Each game is a JSON document under "game:<id>";
// a sorted set scored by creation time keeps the listing order.
func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return gameKeyPrefix + id
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)
		pipe.ZAdd(ctx, gamesByCreated, redis.Z{
			Score:  float64(game.CreatedAt.UnixMilli()),
			Member: game.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to set game: %w", apperror.ErrStoreUnavailable, err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	return getGame(ctx, that.client, id)
}

func getGame(ctx context.Context, client redis.Cmdable, id string) (*entity.Game, error) {
	response, err := client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to get game by id: %w", apperror.ErrStoreUnavailable, err)
	}

	return decodeGame([]byte(response))
}

// gameRecord - the stored document, with moves kept raw so a missing history is detected.
type gameRecord struct {
	entity.Game
	Moves json.RawMessage `json:"moves"`
}

func decodeGame(data []byte) (*entity.Game, error) {
	var record gameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal game: %w", apperror.ErrCorruptedHistory, err)
	}

	moves, err := decodeMoves(record.Moves)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", record.ID, err)
	}

	game := record.Game
	game.Moves = moves

	return &game, nil
}

// decodeMoves - parses a stored history. Anything but nine valid marks is corrupted, never repaired.
func decodeMoves(data []byte) (entity.Board, error) {
	var board entity.Board

	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return board, fmt.Errorf("%w: moves are missing", apperror.ErrCorruptedHistory)
	}

	if err := json.Unmarshal(data, &board); err != nil {
		if errors.Is(err, apperror.ErrCorruptedHistory) {
			return board, fmt.Errorf("failed to unmarshal moves: %w", err)
		}
		return board, fmt.Errorf("%w: failed to unmarshal moves: %w", apperror.ErrCorruptedHistory, err)
	}

	return board, nil
}

func (that *dbGame) UpdateMoves(ctx context.Context, id string, expected, next entity.Board) error {
	key := gameKey(id)

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		game, err := getGame(ctx, tx, id)
		if err != nil {
			return err
		}

		if game.Moves != expected {
			return apperror.ErrConflict
		}

		game.Moves = next
		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		// EXEC fails with redis.TxFailedErr if the key changed after WATCH.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			return nil
		})

		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return apperror.ErrConflict
	case errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, apperror.ErrCorruptedHistory),
		errors.Is(err, apperror.ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: failed to update game: %w", apperror.ErrStoreUnavailable, err)
	}
}

func (that *dbGame) List(ctx context.Context) ([]*entity.Game, error) {
	ids, err := that.client.ZRevRange(ctx, gamesByCreated, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list games: %w", apperror.ErrStoreUnavailable, err)
	}

	games := make([]*entity.Game, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, gameKey(id))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get games: %w", apperror.ErrStoreUnavailable, err)
	}

	for _, value := range values {
		// the game was deleted between ZREVRANGE and MGET
		raw, ok := value.(string)
		if !ok {
			continue
		}

		game, err := decodeGame([]byte(raw))
		if err != nil {
			return nil, err
		}

		games = append(games, game)
	}

	return games, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(id))
		pipe.ZRem(ctx, gamesByCreated, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete game by ID: %w", apperror.ErrStoreUnavailable, err)
	}

	if deleted.Val() == 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	return nil
}
