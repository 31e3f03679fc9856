package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// Game is the persisted record of one game. Player1 always plays X, Player2 always plays O.
type Game struct {
	ID          string    `json:"id"`
	Player1Name string    `json:"player1_name"`
	Player2Name string    `json:"player2_name"`
	Moves       Board     `json:"moves"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewGame - creates a game with an empty board. Both names are required.
func NewGame(id, player1Name, player2Name string, createdAt time.Time) (*Game, error) {
	player1Name = strings.TrimSpace(player1Name)
	player2Name = strings.TrimSpace(player2Name)

	if player1Name == "" {
		return nil, fmt.Errorf("%w: player1 name is empty", apperror.ErrInvalidInput)
	}

	if player2Name == "" {
		return nil, fmt.Errorf("%w: player2 name is empty", apperror.ErrInvalidInput)
	}

	return &Game{
		ID:          id,
		Player1Name: player1Name,
		Player2Name: player2Name,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// PlayerName - returns the name of the player bound to mark.
func (that *Game) PlayerName(mark Mark) string {
	switch mark {
	case PlayerX:
		return that.Player1Name
	case PlayerO:
		return that.Player2Name
	default:
		return ""
	}
}

// WithMove - returns a copy of the game with the move applied.
func (that *Game) WithMove(index int, acting Mark) (*Game, error) {
	board, err := MakeMove(that.Moves, index, acting)
	if err != nil {
		return nil, err
	}

	next := *that
	next.Moves = board

	return &next, nil
}
