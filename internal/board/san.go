package board

import (
	"strings"
)

// SAN converts a legal move of the current position to Standard Algebraic
// Notation, with disambiguation and a check or mate suffix.
func (p *Position) SAN(m Move) string {
	if m.IsNull() {
		return "-"
	}
	piece := p.PieceAt(m.From)
	if piece == NoPiece {
		return m.String() // Fallback to UCI
	}

	var sb strings.Builder
	if m.Castle {
		sb.WriteString(m.Notation())
	} else {
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte(pt.Letter())
			sb.WriteString(p.disambiguation(m, piece))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte(byte('a' + m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion.Letter())
		}
	}

	// Make the move on a copy to find the suffix
	after := p.Copy()
	after.MakeMoveUnchecked(m, nil)
	if after.IsCheckmate() {
		sb.WriteByte('#')
	} else if after.IsInCheck() {
		sb.WriteByte('+')
	}
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same kind can reach the same destination.
func (p *Position) disambiguation(m Move, piece Piece) string {
	var candidates []Square
	for _, other := range p.LegalMoves() {
		if other.To == m.To && other.From != m.From && other.Moved == piece {
			candidates = append(candidates, other.From)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// SANHistory returns the move log in Standard Algebraic Notation, replayed
// from the position's initial state.
func (p *Position) SANHistory() []string {
	moves := p.History()
	c := p.Copy()
	for c.UndoMove() {
	}
	sans := make([]string, 0, len(moves))
	for _, m := range moves {
		sans = append(sans, c.SAN(m))
		c.MakeMoveUnchecked(m, nil)
	}
	return sans
}
