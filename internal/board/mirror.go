package board

// Mirror returns the color-mirrored position: every piece changes color and
// moves to the same file on the opposite rank, and the side to move,
// castling rights and en passant target are flipped to match. The result
// has empty logs.
func (p *Position) Mirror() *Position {
	m := emptyPosition()
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := p.Board[r][c]
			if piece == NoPiece {
				continue
			}
			m.Board[7-r][c] = piece.Flip()
			if piece.Type() == King {
				m.KingSquare[piece.Color().Other()] = NewSquare(7-r, c)
			}
		}
	}
	m.SideToMove = p.SideToMove.Other()
	m.CastlingRights = p.CastlingRights.Mirror()
	m.EnPassant = p.EnPassant.Mirror()
	m.HalfMoveClock = p.HalfMoveClock
	m.FullMoveNumber = p.FullMoveNumber

	m.computeKeys()
	m.repetitions[m.Hash] = 1
	return m
}
