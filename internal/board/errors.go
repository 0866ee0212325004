package board

import (
	"errors"
	"fmt"
)

// ErrIllegalMove is matched by every *IllegalMoveError.
var ErrIllegalMove = errors.New("illegal move")

// IllegalMoveError is returned when a validated move is not in the legal set.
type IllegalMoveError struct {
	Move Move
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s", e.Move)
}

// Is lets errors.Is(err, ErrIllegalMove) match.
func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}
