package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// BoardSize - number of cells on the 3x3 board.
const BoardSize = 9

// Mark is the content of a single cell.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

var ErrInvalidMark = errors.New("invalid mark")

// IsPlayer - reports whether the mark belongs to a player (X or O).
func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

func (that *Mark) UnmarshalText(text []byte) error {
	switch mark := Mark(text); mark {
	case EmptyCell, PlayerX, PlayerO:
		*that = mark
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMark, string(text))
	}
}

// Board is the move history: one mark per cell, indexed
//
//	0 1 2
//	3 4 5
//	6 7 8
//
// Board is a value type; a move produces a new Board instead of changing a cell in place.
type Board [BoardSize]Mark

// Cell - returns the mark at index.
func (that Board) Cell(index int) (Mark, error) {
	if index < 0 || index >= BoardSize {
		return EmptyCell, fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, index)
	}

	return that[index], nil
}

func (that Board) IsEmpty() bool {
	return that.Filled() == 0
}

func (that Board) IsFull() bool {
	return that.Filled() == BoardSize
}

// Filled - returns the number of non-empty cells.
func (that Board) Filled() int {
	return BoardSize - that.Count(EmptyCell)
}

// Count - returns how many cells hold mark.
func (that Board) Count(mark Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

// With - returns a copy of the board with index set to mark.
func (that Board) With(index int, mark Mark) (Board, error) {
	if _, err := that.Cell(index); err != nil {
		return that, err
	}

	next := that
	next[index] = mark

	return next, nil
}

// UnmarshalJSON - accepts only a sequence of exactly BoardSize valid marks.
func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []Mark
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrCorruptedHistory, err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: expected %d cells, got %d", apperror.ErrCorruptedHistory, BoardSize, len(cells))
	}

	copy(that[:], cells)

	return nil
}
