package board

import (
	"strings"
)

// Move describes one ply. It is an immutable value: the generator fills in
// the moved and captured pieces from the board it was produced on.
type Move struct {
	From     Square
	To       Square
	Moved    Piece
	Captured Piece // NoPiece for quiet moves; the taken pawn for en passant

	Castle    bool
	EnPassant bool
	Promotion PieceType // NoPieceType unless the move promotes; Queen by default
}

// NoMove represents an invalid or null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Moved: NoPiece, Captured: NoPiece, Promotion: NoPieceType}

// IsNull reports whether m is NoMove (or the zero value).
func (m Move) IsNull() bool {
	return !m.From.IsValid() || m.Moved == NoPiece || (m.From == m.To)
}

// IsPromotion returns true if this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Equal reports whether two moves are the same ply on the same board:
// origin, destination, moved piece and captured piece all match.
// Promotion choice is ignored so that a bare click pair matches its
// promotion move before the player has picked a piece.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Moved == o.Moved && m.Captured == o.Captured
}

// WithPromotion returns a copy of a promotion move with the target kind replaced.
// Non-promotion moves are returned unchanged.
func (m Move) WithPromotion(pt PieceType) Move {
	if !m.IsPromotion() {
		return m
	}
	switch pt {
	case Knight, Bishop, Rook, Queen:
		m.Promotion = pt
	default:
		m.Promotion = Queen
	}
	return m
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}

	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// Notation renders the move in algebraic style using only the move's own
// fields: no disambiguation and no check suffix (see Position.SAN for that).
func (m Move) Notation() string {
	if m.IsNull() {
		return "-"
	}
	if m.Castle {
		if m.To.Col > m.From.Col {
			return "O-O"
		}
		return "O-O-O"
	}

	var sb strings.Builder
	pt := m.Moved.Type()
	if pt != Pawn {
		sb.WriteByte(pt.Letter())
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
	if m.EnPassant {
		sb.WriteString(" e.p.")
	}
	return sb.String()
}

// PromotionResolver supplies the piece kind a promoting pawn becomes.
// A nil resolver means Queen.
type PromotionResolver func() PieceType

// PromoteTo returns a resolver that always picks pt.
func PromoteTo(pt PieceType) PromotionResolver {
	return func() PieceType { return pt }
}

// resolve returns the promotion kind chosen for m.
func (r PromotionResolver) resolve(m Move) PieceType {
	pt := m.Promotion
	if r != nil {
		pt = r()
	}
	switch pt {
	case Knight, Bishop, Rook, Queen:
		return pt
	default:
		return Queen
	}
}

// UndoInfo stores the state a ply overwrote. One record is pushed per
// applied move; together the records form the move, castling-rights,
// en passant, fifty-move and hash logs of the position.
type UndoInfo struct {
	Move           Move // as applied: Promotion holds the kind actually placed
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Lock           uint64
}
