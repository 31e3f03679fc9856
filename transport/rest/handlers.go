package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

type gameService interface {
	CreateGame(ctx context.Context, player1Name, player2Name string) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	ListGames(ctx context.Context) ([]*entity.Game, error)
	DeleteGame(ctx context.Context, id string) error
	ApplyMove(ctx context.Context, id string, index int, mark entity.Mark) (*entity.Game, error)
}

type GameHandlers interface {
	CreateGame(ctx echo.Context) error
	GetGame(ctx echo.Context) error
	ApplyMove(ctx echo.Context) error
	ListGames(ctx echo.Context) error
	DeleteGame(ctx echo.Context) error
}

type createGameRequest struct {
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
}

type createGameResponse struct {
	ID string `json:"id"`
}

type applyMoveRequest struct {
	Index *int        `json:"index"`
	Mark  entity.Mark `json:"mark"`
}

type gameHandlers struct {
	logger *slog.Logger
	games  gameService
}

func NewGameHandlers(logger *slog.Logger, games gameService) GameHandlers {
	return &gameHandlers{
		logger: logger,
		games:  games,
	}
}

func (that *gameHandlers) CreateGame(ctx echo.Context) error {
	log := that.logger.With("method", "CreateGame")

	var req createGameRequest
	if err := ctx.Bind(&req); err != nil {
		return that.sendError(ctx, log, fmt.Errorf("%w: %s", apperror.ErrInvalidInput, bindMessage(err)))
	}

	game, err := that.games.CreateGame(ctx.Request().Context(), req.Player1Name, req.Player2Name)
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	return ctx.JSON(http.StatusCreated, createGameResponse{ID: game.ID})
}

func (that *gameHandlers) GetGame(ctx echo.Context) error {
	log := that.logger.With("method", "GetGame", "gameID", ctx.Param("id"))

	game, err := that.games.GetGame(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	resp, err := newGameResponse(game)
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (that *gameHandlers) ApplyMove(ctx echo.Context) error {
	log := that.logger.With("method", "ApplyMove", "gameID", ctx.Param("id"))

	var req applyMoveRequest
	if err := ctx.Bind(&req); err != nil {
		return that.sendError(ctx, log, fmt.Errorf("%w: %s", apperror.ErrInvalidInput, bindMessage(err)))
	}

	if req.Index == nil {
		return that.sendError(ctx, log, fmt.Errorf("%w: index is required", apperror.ErrInvalidInput))
	}

	game, err := that.games.ApplyMove(ctx.Request().Context(), ctx.Param("id"), *req.Index, req.Mark)
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	resp, err := newGameResponse(game)
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (that *gameHandlers) ListGames(ctx echo.Context) error {
	log := that.logger.With("method", "ListGames")

	games, err := that.games.ListGames(ctx.Request().Context())
	if err != nil {
		return that.sendError(ctx, log, err)
	}

	resp := make([]gameResponse, 0, len(games))
	for _, game := range games {
		item, err := newGameResponse(game)
		if err != nil {
			return that.sendError(ctx, log, fmt.Errorf("game %s: %w", game.ID, err))
		}

		resp = append(resp, item)
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (that *gameHandlers) DeleteGame(ctx echo.Context) error {
	log := that.logger.With("method", "DeleteGame", "gameID", ctx.Param("id"))

	if err := that.games.DeleteGame(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return that.sendError(ctx, log, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func bindMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Internal != nil {
			return httpErr.Internal.Error()
		}
		return fmt.Sprint(httpErr.Message)
	}

	return err.Error()
}
