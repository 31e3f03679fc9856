package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// WhoseTurn - derives the mark to play next from the counts of X and O.
// X always opens, so a well-formed board has as many O as X, or one X more.
func WhoseTurn(board Board) (Mark, error) {
	xCount, oCount := board.Count(PlayerX), board.Count(PlayerO)

	switch xCount - oCount {
	case 0:
		return PlayerX, nil
	case 1:
		return PlayerO, nil
	default:
		return EmptyCell, fmt.Errorf("%w: %d X and %d O", apperror.ErrCorruptedHistory, xCount, oCount)
	}
}

// ValidateMove - checks whether acting may place its mark at index.
func ValidateMove(board Board, index int, acting Mark) error {
	if !acting.IsPlayer() {
		return fmt.Errorf("%w: mark %q", apperror.ErrInvalidInput, acting)
	}

	cell, err := board.Cell(index)
	if err != nil {
		return err
	}

	turn, err := WhoseTurn(board)
	if err != nil {
		return err
	}

	if IsFinished(board) {
		return apperror.ErrGameAlreadyOver
	}

	if cell != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, index)
	}

	if acting != turn {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// MakeMove - validates the move and returns the resulting board. The input board is never changed.
func MakeMove(board Board, index int, acting Mark) (Board, error) {
	if err := ValidateMove(board, index, acting); err != nil {
		return board, err
	}

	return board.With(index, acting)
}
