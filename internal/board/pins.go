package board

// Check records a piece giving check and the direction from the king to it.
// For knight checks Dir is the knight jump.
type Check struct {
	Square Square
	Dir    Direction
}

// PinsAndChecks scans outward from the side to move's king along the eight
// rays and the eight knight jumps. It returns whether the king is in check,
// the own pieces pinned to the king (with the ray they are pinned along),
// and every checking piece.
func (p *Position) PinsAndChecks() (inCheck bool, pins map[Square]Direction, checks []Check) {
	pins = make(map[Square]Direction)
	us := p.SideToMove
	ksq := p.KingSquare[us]
	if !ksq.IsValid() {
		return false, pins, nil
	}

	for _, d := range allDirs {
		candidate := NoSquare
		for to := ksq.Offset(d.DR, d.DC); to.IsValid(); to = to.Offset(d.DR, d.DC) {
			piece := p.PieceAt(to)
			if piece == NoPiece {
				continue
			}
			if piece.Color() == us {
				if candidate.IsValid() {
					break // second own piece shields the first
				}
				candidate = to
				continue
			}
			if attacksAlong(piece.Type(), d, distance(ksq, to), us) {
				if candidate.IsValid() {
					pins[candidate] = d
				} else {
					checks = append(checks, Check{Square: to, Dir: d})
				}
			}
			break
		}
	}

	for _, j := range knightJumps {
		to := ksq.Offset(j.DR, j.DC)
		if !to.IsValid() {
			continue
		}
		if piece := p.PieceAt(to); piece.Type() == Knight && piece.Color() != us {
			checks = append(checks, Check{Square: to, Dir: j})
		}
	}

	return len(checks) > 0, pins, checks
}

// attacksAlong reports whether an enemy piece of kind pt, found dist steps
// from a king of color us in direction d, attacks that king.
func attacksAlong(pt PieceType, d Direction, dist int, us Color) bool {
	orthogonal := d.DR == 0 || d.DC == 0
	switch pt {
	case Queen:
		return true
	case Rook:
		return orthogonal
	case Bishop:
		return !orthogonal
	case King:
		return dist == 1
	case Pawn:
		// An enemy pawn attacks diagonally toward our side of the board.
		return !orthogonal && dist == 1 && d.DR == us.Forward()
	}
	return false
}

// distance returns the number of king steps between two squares on a shared ray.
func distance(a, b Square) int {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	if dr > dc {
		return dr
	}
	return dc
}

// isAttacked reports whether any piece of color by attacks sq.
// The occupant of sq itself is ignored.
func (p *Position) isAttacked(sq Square, by Color) bool {
	defender := by.Other()
	for _, d := range allDirs {
		for to := sq.Offset(d.DR, d.DC); to.IsValid(); to = to.Offset(d.DR, d.DC) {
			piece := p.PieceAt(to)
			if piece == NoPiece {
				continue
			}
			if piece.Color() == by && attacksAlong(piece.Type(), d, distance(sq, to), defender) {
				return true
			}
			break
		}
	}
	for _, j := range knightJumps {
		to := sq.Offset(j.DR, j.DC)
		if !to.IsValid() {
			continue
		}
		if piece := p.PieceAt(to); piece.Type() == Knight && piece.Color() == by {
			return true
		}
	}
	return false
}

// IsSquareAttacked reports whether sq is attacked by color by.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.isAttacked(sq, by)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
