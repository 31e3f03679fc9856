package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

const (
	codeInvalidInput     = "invalid_input"
	codeNotFound         = "not_found"
	codeMoveRejected     = "move_rejected"
	codeCorruptedHistory = "corrupted_history"
	codeStoreUnavailable = "store_unavailable"
	codeInternal         = "internal"
)

// gameResponse - the stored record plus the signals derived from its moves.
type gameResponse struct {
	ID          string         `json:"id"`
	Player1Name string         `json:"player1_name"`
	Player2Name string         `json:"player2_name"`
	Moves       entity.Board   `json:"moves"`
	CreatedAt   time.Time      `json:"createdAt"`
	Winner      entity.Mark    `json:"winner"`
	IsDraw      bool           `json:"isDraw"`
	NextTurn    entity.Mark    `json:"nextTurn"`
	Outcome     entity.Outcome `json:"outcome"`
	NextPlayer  string         `json:"nextPlayer"`
	WinnerName  string         `json:"winnerName"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func newGameResponse(game *entity.Game) (gameResponse, error) {
	// a board with an impossible X/O balance is never presented
	turn, err := entity.WhoseTurn(game.Moves)
	if err != nil {
		return gameResponse{}, err
	}

	outcome, winner := entity.DetermineOutcome(game.Moves)
	if outcome != entity.OutcomeInProgress {
		turn = entity.EmptyCell
	}

	return gameResponse{
		ID:          game.ID,
		Player1Name: game.Player1Name,
		Player2Name: game.Player2Name,
		Moves:       game.Moves,
		CreatedAt:   game.CreatedAt,
		Winner:      winner,
		IsDraw:      outcome == entity.OutcomeDrawn,
		NextTurn:    turn,
		Outcome:     outcome,
		NextPlayer:  game.PlayerName(turn),
		WinnerName:  game.PlayerName(winner),
	}, nil
}

// sendError - maps an error onto a status code and a stable error code.
func (that *gameHandlers) sendError(ctx echo.Context, log *slog.Logger, err error) error {
	status, resp := classify(err)

	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", "error", err)
	default:
		log.Info("request rejected", "error", err, "code", resp.Error, "reason", resp.Reason)
	}

	return ctx.JSON(status, resp)
}

func classify(err error) (int, errorResponse) {
	resp := errorResponse{Message: err.Error()}

	switch {
	case errors.Is(err, apperror.ErrInvalidInput):
		resp.Error = codeInvalidInput
		return http.StatusBadRequest, resp
	case errors.Is(err, apperror.ErrNotFound):
		resp.Error = codeNotFound
		return http.StatusNotFound, resp
	case apperror.IsMoveRejection(err):
		resp.Error = codeMoveRejected
		resp.Reason = apperror.Reason(err)
		return http.StatusConflict, resp
	case errors.Is(err, apperror.ErrCorruptedHistory):
		resp.Error = codeCorruptedHistory
		return http.StatusInternalServerError, resp
	case errors.Is(err, apperror.ErrStoreUnavailable):
		resp.Error = codeStoreUnavailable
		return http.StatusServiceUnavailable, resp
	default:
		resp.Error = codeInternal
		resp.Message = http.StatusText(http.StatusInternalServerError)
		return http.StatusInternalServerError, resp
	}
}
