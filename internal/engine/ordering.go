package engine

import (
	"slices"

	"github.com/hailam/rayfish/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore    = 1000 // cached or previous-iteration best move first
	CaptureBase    = 10   // plus the captured piece's value in pawns
	PromotionBonus = 15
)

// ScoreMove returns the ordering score of m. Higher scores are searched first.
func ScoreMove(m, ttMove board.Move) int {
	if !ttMove.IsNull() && m.Equal(ttMove) {
		return TTMoveScore
	}
	score := 0
	if m.IsCapture() {
		score += CaptureBase + m.Captured.Value()
	}
	if m.IsPromotion() {
		score += PromotionBonus
	}
	return score
}

// scoredMove pairs a move with its ordering score.
type scoredMove struct {
	move  board.Move
	score int
}

// OrderMoves returns a copy of moves sorted by descending ordering score.
// Moves with equal scores keep their generation order.
func OrderMoves(moves []board.Move, ttMove board.Move) []board.Move {
	scored := make([]scoredMove, len(moves))
	for i, m := range moves {
		scored[i] = scoredMove{move: m, score: ScoreMove(m, ttMove)}
	}
	slices.SortStableFunc(scored, func(a, b scoredMove) int {
		return b.score - a.score
	})

	ordered := make([]board.Move, len(scored))
	for i, sm := range scored {
		ordered[i] = sm.move
	}
	return ordered
}
