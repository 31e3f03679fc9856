package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

type sqlGame struct {
	conn *sql.DB
}

// NewSQLGameRepository - SQLite backend. The moves column holds the JSON-encoded board,
// so a conditional UPDATE on it acts as a compare-and-swap.
func NewSQLGameRepository(conn *sql.DB) GameRepository {
	return &sqlGame{
		conn: conn,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (that *sqlGame) Create(ctx context.Context, game *entity.Game) error {
	moves, err := json.Marshal(game.Moves)
	if err != nil {
		return fmt.Errorf("could not marshal moves: %w", err)
	}

	query := `INSERT INTO games (id, player1_name, player2_name, moves, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query, game.ID, game.Player1Name, game.Player2Name, string(moves), game.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: can't save game: %w", apperror.ErrStoreUnavailable, err)
	}

	return nil
}

func (that *sqlGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT id, player1_name, player2_name, moves, created_at FROM games WHERE id = ?`

	game, err := scanGame(that.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	if err != nil {
		return nil, err
	}

	return game, nil
}

func scanGame(row rowScanner) (*entity.Game, error) {
	var (
		game      entity.Game
		moves     string
		createdAt int64
	)

	err := row.Scan(&game.ID, &game.Player1Name, &game.Player2Name, &moves, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: can't read game: %w", apperror.ErrStoreUnavailable, err)
	}

	if game.Moves, err = decodeMoves([]byte(moves)); err != nil {
		return nil, fmt.Errorf("game %s: %w", game.ID, err)
	}

	game.CreatedAt = time.UnixMilli(createdAt).UTC()

	return &game, nil
}

func (that *sqlGame) UpdateMoves(ctx context.Context, id string, expected, next entity.Board) error {
	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		return fmt.Errorf("could not marshal moves: %w", err)
	}

	nextJSON, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("could not marshal moves: %w", err)
	}

	query := `UPDATE games SET moves = ? WHERE id = ? AND moves = ?`

	result, err := that.conn.ExecContext(ctx, query, string(nextJSON), id, string(expectedJSON))
	if err != nil {
		return fmt.Errorf("%w: can't update game: %w", apperror.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't update game: %w", apperror.ErrStoreUnavailable, err)
	}

	if affected == 1 {
		return nil
	}

	// nothing matched: either the game is gone or its moves changed
	if _, err = that.GetByID(ctx, id); err != nil {
		return err
	}

	return apperror.ErrConflict
}

func (that *sqlGame) List(ctx context.Context) ([]*entity.Game, error) {
	query := `SELECT id, player1_name, player2_name, moves, created_at FROM games ORDER BY created_at DESC, id DESC`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: can't list games: %w", apperror.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	games := make([]*entity.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}

		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: can't list games: %w", apperror.ErrStoreUnavailable, err)
	}

	return games, nil
}

func (that *sqlGame) DeleteByID(ctx context.Context, id string) error {
	result, err := that.conn.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: can't delete game: %w", apperror.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't delete game: %w", apperror.ErrStoreUnavailable, err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNotFound, id)
	}

	return nil
}
