package entity

// Outcome - state of a game derived from its board.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWon        Outcome = "won"
	OutcomeDrawn      Outcome = "drawn"
)

// WinLines - rows top-to-bottom, columns left-to-right, then both diagonals.
// Winner returns the mark of the first complete line in this order.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner - returns the mark holding a complete line, or EmptyCell.
func Winner(board Board) Mark {
	for _, line := range WinLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

// IsDraw - the board is full and nobody won. A win on the last cell is never a draw.
func IsDraw(board Board) bool {
	return Winner(board) == EmptyCell && board.IsFull()
}

// DetermineOutcome - returns the outcome and, for OutcomeWon, the winning mark.
func DetermineOutcome(board Board) (Outcome, Mark) {
	if winner := Winner(board); winner != EmptyCell {
		return OutcomeWon, winner
	}

	if board.IsFull() {
		return OutcomeDrawn, EmptyCell
	}

	return OutcomeInProgress, EmptyCell
}

// IsFinished - reports whether the board is in an absorbing state.
func IsFinished(board Board) bool {
	outcome, _ := DetermineOutcome(board)
	return outcome != OutcomeInProgress
}
