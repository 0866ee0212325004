// Package engine implements the chess AI: a handcrafted evaluator and an
// iterative-deepening negamax search over a board.Position.
package engine

import (
	"github.com/hailam/rayfish/internal/board"
)

// Evaluation constants, in centipawns.
const (
	PawnValue   = 100
	KnightValue = 300
	BishopValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 0

	centerBonus       = 50   // piece on d4, e4, d5 or e5
	kingAttackerCost  = 50   // per enemy piece next to the side to move's king
	mobilityWeight    = 10   // per legal move of the side to move
	repetitionPenalty = 1000 // per earlier occurrence of the current position
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// centerSquares are d5, e5, d4 and e4.
var centerSquares = [4]board.Square{{Row: 3, Col: 3}, {Row: 3, Col: 4}, {Row: 4, Col: 3}, {Row: 4, Col: 4}}

// Piece-Square Tables (PST) for positional evaluation.
// Indexed [row][col] from White's perspective, row 0 being the 8th rank;
// Black reads row 7-r.

// Pawn PST - encourages central control and advancement
var pawnPST = [8][8]int{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{50, 50, 50, 50, 50, 50, 50, 50},
	{10, 10, 20, 30, 30, 20, 10, 10},
	{5, 5, 10, 25, 25, 10, 5, 5},
	{0, 0, 0, 20, 20, 0, 0, 0},
	{5, -5, -10, 0, 0, -10, -5, 5},
	{5, 10, 10, -20, -20, 10, 10, 5},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

// Knight PST - encourages central positioning
var knightPST = [8][8]int{
	{-50, -40, -30, -30, -30, -30, -40, -50},
	{-40, -20, 0, 0, 0, 0, -20, -40},
	{-30, 0, 10, 15, 15, 10, 0, -30},
	{-30, 5, 15, 20, 20, 15, 5, -30},
	{-30, 0, 15, 20, 20, 15, 0, -30},
	{-30, 5, 10, 15, 15, 10, 5, -30},
	{-40, -20, 0, 5, 5, 0, -20, -40},
	{-50, -40, -30, -30, -30, -30, -40, -50},
}

// Bishop PST - encourages central diagonals
var bishopPST = [8][8]int{
	{-20, -10, -10, -10, -10, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 5, 10, 10, 5, 0, -10},
	{-10, 5, 5, 10, 10, 5, 5, -10},
	{-10, 0, 10, 10, 10, 10, 0, -10},
	{-10, 10, 10, 10, 10, 10, 10, -10},
	{-10, 5, 0, 0, 0, 0, 5, -10},
	{-20, -10, -10, -10, -10, -10, -10, -20},
}

// Rook PST - encourages the 7th rank
var rookPST = [8][8]int{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{5, 10, 10, 10, 10, 10, 10, 5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{-5, 0, 0, 0, 0, 0, 0, -5},
	{0, 0, 0, 5, 5, 0, 0, 0},
}

// Queen PST - slight central preference
var queenPST = [8][8]int{
	{-20, -10, -10, -5, -5, -10, -10, -20},
	{-10, 0, 0, 0, 0, 0, 0, -10},
	{-10, 0, 5, 5, 5, 5, 0, -10},
	{-5, 0, 5, 5, 5, 5, 0, -5},
	{0, 0, 5, 5, 5, 5, 0, -5},
	{-10, 5, 5, 5, 5, 5, 0, -10},
	{-10, 0, 5, 0, 0, 0, 0, -10},
	{-20, -10, -10, -5, -5, -10, -10, -20},
}

// King PST - encourages castling and staying behind the pawns
var kingPST = [8][8]int{
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-30, -40, -40, -50, -50, -40, -40, -30},
	{-20, -30, -30, -40, -40, -30, -30, -20},
	{-10, -20, -20, -20, -20, -20, -20, -10},
	{20, 20, 0, 0, 0, 0, 20, 20},
	{20, 30, 10, 0, 0, 10, 30, 20},
}

// All PSTs combined for easy lookup
var psts = [6]*[8][8]int{&pawnPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingPST}

// pstValue returns the positional bonus of a piece on (row, col).
func pstValue(piece board.Piece, row, col int) int {
	if piece.Color() == board.Black {
		row = 7 - row
	}
	return psts[piece.Type()][row][col]
}

// Evaluate returns the static evaluation of the position from White's
// perspective. Checkmate scores MateScore against the mated side to move;
// every drawn state scores 0.
func Evaluate(pos *board.Position) int {
	switch pos.Status() {
	case board.Checkmate:
		return -pos.SideToMove.Sign() * MateScore
	case board.Ongoing:
	default:
		return 0
	}

	score := EvaluateMaterial(pos) + evaluatePlacement(pos)

	stm := pos.SideToMove.Sign()
	score -= stm * kingAttackerCost * kingAttackers(pos)
	score += stm * mobilityWeight * len(pos.LegalMoves())

	// The side that just moved walked into a repeated position.
	if reps := pos.Repetitions(); reps > 1 {
		score += stm * repetitionPenalty * (reps - 1)
	}
	return score
}

// EvaluateMaterial returns the material balance in centipawns.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if piece := pos.Board[r][c]; piece != board.NoPiece {
				score += piece.Color().Sign() * pieceValues[piece.Type()]
			}
		}
	}
	return score
}

// evaluatePlacement sums the piece-square bonuses and the center bonus.
func evaluatePlacement(pos *board.Position) int {
	score := 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := pos.Board[r][c]
			if piece == board.NoPiece {
				continue
			}
			score += piece.Color().Sign() * pstValue(piece, r, c)
		}
	}
	for _, sq := range centerSquares {
		if piece := pos.PieceAt(sq); piece != board.NoPiece {
			score += piece.Color().Sign() * centerBonus
		}
	}
	return score
}

// kingAttackers counts enemy pieces on the squares around the side to move's king.
func kingAttackers(pos *board.Position) int {
	us := pos.SideToMove
	ksq := pos.KingSquare[us]
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			sq := ksq.Offset(dr, dc)
			if !sq.IsValid() {
				continue
			}
			if piece := pos.PieceAt(sq); piece != board.NoPiece && piece.Color() != us {
				n++
			}
		}
	}
	return n
}
