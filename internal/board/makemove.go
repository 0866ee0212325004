package board

import (
	"fmt"
	"strings"
)

// MakeMove validates m against the legal move set and applies it.
// Moves match on origin, destination, moved and captured piece; a promotion
// kind carried by m is kept. promote may be nil, in which case the move's
// own promotion kind (Queen unless set) is used.
func (p *Position) MakeMove(m Move, promote PromotionResolver) error {
	for _, legal := range p.LegalMoves() {
		if !legal.Equal(m) {
			continue
		}
		if m.IsPromotion() {
			legal = legal.WithPromotion(m.Promotion)
		}
		p.MakeMoveUnchecked(legal, promote)
		return nil
	}
	return &IllegalMoveError{Move: m}
}

// MakeMoveUnchecked applies m without consulting the legal move set. The
// search uses it for moves it has just generated. The move's piece and flag
// fields are recomputed from the board, so only From, To and Promotion need
// to be meaningful.
func (p *Position) MakeMoveUnchecked(m Move, promote PromotionResolver) {
	us := p.SideToMove
	m = p.normalize(m)

	undo := UndoInfo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Lock:           p.Lock,
	}

	p.toggleEnPassant(p.EnPassant)
	p.toggleCastling(p.CastlingRights)

	if m.EnPassant {
		p.removePiece(NewSquare(m.From.Row, m.To.Col))
	} else if m.Captured != NoPiece {
		p.removePiece(m.To)
	}
	p.movePiece(m.From, m.To)

	if m.IsPromotion() {
		m.Promotion = promote.resolve(m)
		p.removePiece(m.To)
		p.setPiece(NewPiece(m.Promotion, us), m.To)
	}

	if m.Castle {
		rookFrom, rookTo := castleRookSquares(m)
		p.movePiece(rookFrom, rookTo)
	}

	p.updateCastleRights(m)

	p.EnPassant = NoSquare
	if m.Moved.Type() == Pawn && abs(m.To.Row-m.From.Row) == 2 {
		p.EnPassant = NewSquare((m.From.Row+m.To.Row)/2, m.From.Col)
	}

	if m.Moved.Type() == Pawn || m.IsCapture() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.toggleSide()
	p.toggleCastling(p.CastlingRights)
	p.toggleEnPassant(p.EnPassant)

	undo.Move = m
	p.history = append(p.history, undo)
	p.repetitions[p.Hash]++
	if p.repetitions[p.Hash] == 3 {
		p.threefold++
	}
	p.invalidate()
}

// normalize fills in the moved and captured pieces and the special-move
// flags from the current board.
func (p *Position) normalize(m Move) Move {
	m.Moved = p.PieceAt(m.From)
	m.Captured = p.PieceAt(m.To)
	pt := m.Moved.Type()

	m.Castle = pt == King && abs(m.To.Col-m.From.Col) == 2
	m.EnPassant = pt == Pawn && m.To == p.EnPassant && m.From.Col != m.To.Col && m.Captured == NoPiece
	if m.EnPassant {
		m.Captured = p.PieceAt(NewSquare(m.From.Row, m.To.Col))
	}

	if pt == Pawn && (m.To.Row == 0 || m.To.Row == 7) {
		if m.Promotion == NoPieceType {
			m.Promotion = Queen
		}
	} else {
		m.Promotion = NoPieceType
	}
	return m
}

// castleRookSquares returns where the rook starts and ends for a castling move.
func castleRookSquares(m Move) (from, to Square) {
	row := m.From.Row
	if m.To.Col > m.From.Col {
		return NewSquare(row, 7), NewSquare(row, 5)
	}
	return NewSquare(row, 0), NewSquare(row, 3)
}

// updateCastleRights removes the rights lost by m: both of a side's rights
// when its king moves, and one right when a corner rook moves or is captured.
func (p *Position) updateCastleRights(m Move) {
	if m.Moved.Type() == King {
		p.CastlingRights &^= castleFlag(m.Moved.Color(), true) | castleFlag(m.Moved.Color(), false)
	}
	for _, sq := range [2]Square{m.From, m.To} {
		switch {
		case sq == NewSquare(7, 0):
			p.CastlingRights &^= WhiteQueenSideCastle
		case sq == NewSquare(7, 7):
			p.CastlingRights &^= WhiteKingSideCastle
		case sq == NewSquare(0, 0):
			p.CastlingRights &^= BlackQueenSideCastle
		case sq == NewSquare(0, 7):
			p.CastlingRights &^= BlackKingSideCastle
		}
	}
}

// UndoMove reverts the last applied move. It returns false, doing nothing,
// when there is no history.
func (p *Position) UndoMove() bool {
	n := len(p.history)
	if n == 0 {
		return false
	}
	u := p.history[n-1]
	p.history = p.history[:n-1]

	switch count := p.repetitions[p.Hash]; {
	case count <= 1:
		delete(p.repetitions, p.Hash)
	default:
		if count == 3 {
			p.threefold--
		}
		p.repetitions[p.Hash] = count - 1
	}

	m := u.Move
	us := m.Moved.Color()

	p.Board[m.From.Row][m.From.Col] = m.Moved
	p.Board[m.To.Row][m.To.Col] = NoPiece
	if m.EnPassant {
		p.Board[m.From.Row][m.To.Col] = m.Captured
	} else {
		p.Board[m.To.Row][m.To.Col] = m.Captured
	}
	if m.Castle {
		rookFrom, rookTo := castleRookSquares(m)
		p.Board[rookFrom.Row][rookFrom.Col] = p.Board[rookTo.Row][rookTo.Col]
		p.Board[rookTo.Row][rookTo.Col] = NoPiece
	}
	if m.Moved.Type() == King {
		p.KingSquare[us] = m.From
	}

	p.SideToMove = us
	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	if us == Black {
		p.FullMoveNumber--
	}
	p.Hash, p.Lock = u.Hash, u.Lock
	p.invalidate()
	return true
}

// ParseMove converts a UCI move string ("e2e4", "e7e8n") into the matching
// legal move. Malformed input and moves outside the legal set are rejected
// with an error.
func (p *Position) ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, err)
	}

	promo := NoPieceType
	if len(s) == 5 {
		promo = PieceTypeFromChar(s[4])
		switch promo {
		case Knight, Bishop, Rook, Queen:
		default:
			return NoMove, fmt.Errorf("invalid promotion piece in %q", s)
		}
	}

	m, ok := p.FindMove(from, to)
	if !ok {
		return NoMove, &IllegalMoveError{Move: p.NewMove(from, to)}
	}
	if promo != NoPieceType {
		if !m.IsPromotion() {
			return NoMove, fmt.Errorf("move %s does not promote", s)
		}
		m = m.WithPromotion(promo)
	}
	return m, nil
}

// NewMove builds a move from a square pair on the current board, the way a
// driver turns a click pair into a candidate for MakeMove.
func (p *Position) NewMove(from, to Square) Move {
	if !from.IsValid() || !to.IsValid() {
		return NoMove
	}
	return p.normalize(Move{From: from, To: to, Promotion: NoPieceType})
}
