package board

// Status describes whether the game continues and, if not, why it ended.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	DrawFiftyMove
	DrawRepetition
	DrawInsufficientMaterial
)

// String returns a human-readable status.
func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawFiftyMove:
		return "draw by fifty-move rule"
	case DrawRepetition:
		return "draw by threefold repetition"
	case DrawInsufficientMaterial:
		return "draw by insufficient material"
	default:
		return "unknown"
	}
}

// IsDraw reports whether the status is a drawn terminal state.
func (s Status) IsDraw() bool {
	return s >= Stalemate
}

// LegalMoves returns every legal move for the side to move. The result is
// memoized until the next mutation and must not be modified by the caller.
// A drawn position (fifty-move rule, insufficient material, threefold
// repetition) has no legal moves.
func (p *Position) LegalMoves() []Move {
	if !p.legalValid {
		p.computeLegalMoves()
	}
	return p.legal
}

// Status returns the game status of the current position.
func (p *Position) Status() Status {
	p.LegalMoves()
	return p.status
}

// IsInCheck returns true if the side to move is in check.
func (p *Position) IsInCheck() bool {
	p.LegalMoves()
	return p.inCheck
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.Status() == Checkmate
}

// IsStalemate returns true if the game is drawn: no legal moves without
// check, or any of the draw rules.
func (p *Position) IsStalemate() bool {
	return p.Status().IsDraw()
}

// IsDraw is an alias of IsStalemate.
func (p *Position) IsDraw() bool {
	return p.Status().IsDraw()
}

// GameOver returns true if the game is over (checkmate or draw).
func (p *Position) GameOver() bool {
	return p.Status() != Ongoing
}

// FindMove returns the legal move matching an origin/destination pair.
// Promotion variants match; the returned move promotes to Queen.
func (p *Position) FindMove(from, to Square) (Move, bool) {
	for _, m := range p.LegalMoves() {
		if m.From == from && m.To == to {
			return m, true
		}
	}
	return NoMove, false
}

// LegalMovesFrom returns the legal moves of the piece on from.
func (p *Position) LegalMovesFrom(from Square) []Move {
	var moves []Move
	for _, m := range p.LegalMoves() {
		if m.From == from {
			moves = append(moves, m)
		}
	}
	return moves
}

func (p *Position) computeLegalMoves() {
	inCheck, pins, checks := p.PinsAndChecks()
	p.inCheck = inCheck
	p.legalValid = true
	p.legal = p.legal[:0]

	switch {
	case p.HalfMoveClock >= 100:
		p.status = DrawFiftyMove
		return
	case p.IsInsufficientMaterial():
		p.status = DrawInsufficientMaterial
		return
	case p.threefold > 0:
		p.status = DrawRepetition
		return
	}

	us := p.SideToMove
	ksq := p.KingSquare[us]
	moves := p.generateMoves(pins, make([]Move, 0, 48))

	var blocks []Square
	if len(checks) == 1 {
		blocks = checkResponses(ksq, checks[0], p.PieceAt(checks[0].Square).Type())
	}

	legal := moves[:0]
	for _, m := range moves {
		if m.From == ksq {
			if p.kingSafeAfter(m) {
				legal = append(legal, m)
			}
			continue
		}
		if inCheck {
			if len(checks) > 1 {
				continue
			}
			if !containsSquare(blocks, m.To) && !(m.EnPassant && NewSquare(m.From.Row, m.To.Col) == checks[0].Square) {
				continue
			}
		}
		if m.EnPassant && !p.enPassantSafe(m) {
			continue
		}
		legal = append(legal, m)
	}

	if !inCheck {
		legal = p.castlingMoves(legal)
	}

	p.legal = legal
	switch {
	case len(legal) > 0:
		p.status = Ongoing
	case inCheck:
		p.status = Checkmate
	default:
		p.status = Stalemate
	}
}

// checkResponses lists the squares a non-king move may land on to answer a
// single check: the checker itself, plus the ray squares between it and the
// king when the checker slides.
func checkResponses(ksq Square, c Check, checker PieceType) []Square {
	if checker == Knight || checker == Pawn {
		return []Square{c.Square}
	}
	var squares []Square
	for sq := ksq.Offset(c.Dir.DR, c.Dir.DC); sq.IsValid(); sq = sq.Offset(c.Dir.DR, c.Dir.DC) {
		squares = append(squares, sq)
		if sq == c.Square {
			break
		}
	}
	return squares
}

func containsSquare(squares []Square, sq Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}

// kingSafeAfter reports whether the king lands on an unattacked square.
// The king is lifted off its origin so it cannot shield its own retreat.
func (p *Position) kingSafeAfter(m Move) bool {
	king := p.Board[m.From.Row][m.From.Col]
	target := p.Board[m.To.Row][m.To.Col]
	p.Board[m.From.Row][m.From.Col] = NoPiece
	p.Board[m.To.Row][m.To.Col] = king
	attacked := p.isAttacked(m.To, p.SideToMove.Other())
	p.Board[m.To.Row][m.To.Col] = target
	p.Board[m.From.Row][m.From.Col] = king
	return !attacked
}

// enPassantSafe plays an en passant capture on the grid and checks the king.
// Removing two pawns from one rank can expose the king to a rook or queen
// along that rank, which the pin scan cannot see.
func (p *Position) enPassantSafe(m Move) bool {
	capSq := NewSquare(m.From.Row, m.To.Col)
	pawn := p.Board[m.From.Row][m.From.Col]
	captured := p.Board[capSq.Row][capSq.Col]

	p.Board[m.From.Row][m.From.Col] = NoPiece
	p.Board[capSq.Row][capSq.Col] = NoPiece
	p.Board[m.To.Row][m.To.Col] = pawn
	attacked := p.isAttacked(p.KingSquare[p.SideToMove], p.SideToMove.Other())
	p.Board[m.To.Row][m.To.Col] = NoPiece
	p.Board[capSq.Row][capSq.Col] = captured
	p.Board[m.From.Row][m.From.Col] = pawn
	return !attacked
}

// castlingMoves appends the available castling moves, kingside first.
// The caller guarantees the king is not in check.
func (p *Position) castlingMoves(moves []Move) []Move {
	us := p.SideToMove
	them := us.Other()
	row := homeRow(us)
	king := NewPiece(King, us)
	if p.Board[row][4] != king {
		return moves
	}

	for _, kingSide := range [2]bool{true, false} {
		if !p.CastlingRights.CanCastle(us, kingSide) {
			continue
		}
		rookCol, empty, path, dest := 0, []int{1, 2, 3}, []int{3, 2}, 2
		if kingSide {
			rookCol, empty, path, dest = 7, []int{5, 6}, []int{5, 6}, 6
		}
		if p.Board[row][rookCol] != NewPiece(Rook, us) {
			continue
		}

		ok := true
		for _, col := range empty {
			if p.Board[row][col] != NoPiece {
				ok = false
				break
			}
		}
		for _, col := range path {
			if !ok {
				break
			}
			if p.isAttacked(NewSquare(row, col), them) {
				ok = false
			}
		}
		if !ok {
			continue
		}

		moves = append(moves, Move{
			From:      NewSquare(row, 4),
			To:        NewSquare(row, dest),
			Moved:     king,
			Captured:  NoPiece,
			Castle:    true,
			Promotion: NoPieceType,
		})
	}
	return moves
}
