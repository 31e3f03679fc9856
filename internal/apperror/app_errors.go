package apperror

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("game not found")
	ErrOutOfRange       = errors.New("cell index is out of range")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameAlreadyOver  = errors.New("game is already over")
	ErrCorruptedHistory = errors.New("move history is corrupted")
	ErrStoreUnavailable = errors.New("store is unavailable")

	// ErrConflict - the stored history changed between read and write.
	ErrConflict = errors.New("concurrent update conflict")
)

var rejectionReasons = map[error]string{
	ErrOutOfRange:      "out_of_range",
	ErrCellOccupied:    "cell_occupied",
	ErrNotYourTurn:     "not_your_turn",
	ErrGameAlreadyOver: "game_already_over",
}

// IsMoveRejection - reports whether err is an expected move rejection.
func IsMoveRejection(err error) bool {
	return Reason(err) != ""
}

// Reason - returns the wire code of a move rejection, or "" for any other error.
func Reason(err error) string {
	for sentinel, reason := range rejectionReasons {
		if errors.Is(err, sentinel) {
			return reason
		}
	}

	return ""
}
