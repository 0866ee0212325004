package board

// Direction is a (row, column) step.
type Direction struct {
	DR, DC int
}

// Neg returns the opposite direction.
func (d Direction) Neg() Direction {
	return Direction{-d.DR, -d.DC}
}

// Direction tables are written from White's point of view (up the board is
// DR = -1) and flipped for Black, so both colors generate moves in mirrored
// order.
var (
	orthogonalDirs = [4]Direction{{-1, 0}, {0, -1}, {1, 0}, {0, 1}}
	diagonalDirs   = [4]Direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	// allDirs lists the orthogonals first; pinsAndChecks relies on that order.
	allDirs     = [8]Direction{{-1, 0}, {0, -1}, {1, 0}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	knightJumps = [8]Direction{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
)

// relative orients a White-relative direction for color c.
func relative(d Direction, c Color) Direction {
	if c == White {
		return d
	}
	return Direction{-d.DR, d.DC}
}

// pinTable maps pinned squares to the ray they are pinned along.
type pinTable map[Square]Direction

// allows reports whether a piece on from may move in direction d.
func (pt pinTable) allows(from Square, d Direction) bool {
	pin, ok := pt[from]
	if !ok {
		return true
	}
	return pin == d || pin == d.Neg()
}

// PseudoMoves generates all pseudo-legal moves for the side to move: every
// move that obeys the piece movement rules, whether or not it leaves the
// mover's king in check. Castling is not included.
func (p *Position) PseudoMoves() []Move {
	return p.generateMoves(nil, make([]Move, 0, 64))
}

// generateMoves walks the grid from the mover's back rank forward and
// dispatches each own piece to its generator.
func (p *Position) generateMoves(pins pinTable, moves []Move) []Move {
	us := p.SideToMove
	for i := 0; i < 8; i++ {
		row := i
		if us == White {
			row = 7 - i
		}
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece == NoPiece || piece.Color() != us {
				continue
			}
			from := NewSquare(row, col)
			switch piece.Type() {
			case Pawn:
				moves = p.pawnMoves(from, pins, moves)
			case Knight:
				moves = p.knightMoves(from, pins, moves)
			case Bishop:
				moves = p.slidingMoves(from, diagonalDirs[:], pins, moves)
			case Rook:
				moves = p.slidingMoves(from, orthogonalDirs[:], pins, moves)
			case Queen:
				moves = p.slidingMoves(from, allDirs[:], pins, moves)
			case King:
				moves = p.kingMoves(from, moves)
			}
		}
	}
	return moves
}

// newMove builds a plain move, flagging a promotion when a pawn reaches the last rank.
func (p *Position) newMove(from, to Square) Move {
	m := Move{
		From:      from,
		To:        to,
		Moved:     p.PieceAt(from),
		Captured:  p.PieceAt(to),
		Promotion: NoPieceType,
	}
	if m.Moved.Type() == Pawn && (to.Row == 0 || to.Row == 7) {
		m.Promotion = Queen
	}
	return m
}

// pawnMoves generates single and double advances, diagonal captures and en passant.
func (p *Position) pawnMoves(from Square, pins pinTable, moves []Move) []Move {
	us := p.SideToMove
	fwd := us.Forward()
	startRow := homeRow(us) + fwd

	ahead := Direction{fwd, 0}
	if pins.allows(from, ahead) {
		one := from.Offset(fwd, 0)
		if one.IsValid() && p.IsEmpty(one) {
			moves = append(moves, p.newMove(from, one))
			two := from.Offset(2*fwd, 0)
			if from.Row == startRow && p.IsEmpty(two) {
				moves = append(moves, p.newMove(from, two))
			}
		}
	}

	for _, dc := range [2]int{-1, 1} {
		d := Direction{fwd, dc}
		to := from.Offset(fwd, dc)
		if !to.IsValid() || !pins.allows(from, d) {
			continue
		}
		target := p.PieceAt(to)
		if target != NoPiece && target.Color() != us {
			moves = append(moves, p.newMove(from, to))
		} else if target == NoPiece && to == p.EnPassant {
			m := p.newMove(from, to)
			m.EnPassant = true
			m.Captured = p.PieceAt(NewSquare(from.Row, to.Col))
			moves = append(moves, m)
		}
	}
	return moves
}

// knightMoves generates the eight fixed jumps. A pinned knight cannot move.
func (p *Position) knightMoves(from Square, pins pinTable, moves []Move) []Move {
	if _, pinned := pins[from]; pinned {
		return moves
	}
	us := p.SideToMove
	for _, j := range knightJumps {
		j = relative(j, us)
		to := from.Offset(j.DR, j.DC)
		if !to.IsValid() {
			continue
		}
		if target := p.PieceAt(to); target == NoPiece || target.Color() != us {
			moves = append(moves, p.newMove(from, to))
		}
	}
	return moves
}

// slidingMoves walks each ray until the edge, an own piece (excluded) or an
// enemy piece (included).
func (p *Position) slidingMoves(from Square, dirs []Direction, pins pinTable, moves []Move) []Move {
	us := p.SideToMove
	for _, d := range dirs {
		d = relative(d, us)
		if !pins.allows(from, d) {
			continue
		}
		for to := from.Offset(d.DR, d.DC); to.IsValid(); to = to.Offset(d.DR, d.DC) {
			target := p.PieceAt(to)
			if target == NoPiece {
				moves = append(moves, p.newMove(from, to))
				continue
			}
			if target.Color() != us {
				moves = append(moves, p.newMove(from, to))
			}
			break
		}
	}
	return moves
}

// kingMoves generates the eight adjacent steps.
func (p *Position) kingMoves(from Square, moves []Move) []Move {
	us := p.SideToMove
	for _, d := range allDirs {
		d = relative(d, us)
		to := from.Offset(d.DR, d.DC)
		if !to.IsValid() {
			continue
		}
		if target := p.PieceAt(to); target == NoPiece || target.Color() != us {
			moves = append(moves, p.newMove(from, to))
		}
	}
	return moves
}
