package board

import (
	"fmt"
)

// Snapshot is the persistence form of a Position. It carries every field
// needed to keep undo and repetition detection working after a reload, not
// just the grid.
type Snapshot struct {
	FEN            string         `json:"fen"`
	Board          [8][8]Piece    `json:"board"`
	SideToMove     Color          `json:"side_to_move"`
	KingSquares    [2]Square      `json:"king_squares"`
	CastlingRights CastlingRights `json:"castling_rights"`
	EnPassant      Square         `json:"en_passant"`
	HalfMoveClock  int            `json:"half_move_clock"`
	FullMoveNumber int            `json:"full_move_number"`
	Hash           uint64         `json:"hash"`
	Lock           uint64         `json:"lock"`
	History        []UndoInfo     `json:"history"`
	Repetitions    map[uint64]int `json:"repetitions"`
}

// Snapshot captures the full state of the position.
func (p *Position) Snapshot() Snapshot {
	s := Snapshot{
		FEN:            p.ToFEN(),
		Board:          p.Board,
		SideToMove:     p.SideToMove,
		KingSquares:    p.KingSquare,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		Hash:           p.Hash,
		Lock:           p.Lock,
		History:        append([]UndoInfo(nil), p.history...),
		Repetitions:    make(map[uint64]int, len(p.repetitions)),
	}
	for k, v := range p.repetitions {
		s.Repetitions[k] = v
	}
	return s
}

// FromSnapshot rebuilds a Position from a snapshot. The stored keys are
// checked against the grid so a corrupted record is rejected rather than
// silently breaking repetition detection.
func FromSnapshot(s Snapshot) (*Position, error) {
	p := emptyPosition()
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := s.Board[r][c]
			if piece > NoPiece {
				return nil, fmt.Errorf("snapshot: invalid piece %d at %s", piece, NewSquare(r, c))
			}
			p.Board[r][c] = piece
		}
	}
	if s.SideToMove != White && s.SideToMove != Black {
		return nil, fmt.Errorf("snapshot: invalid side to move %d", s.SideToMove)
	}
	if s.CastlingRights > AllCastling {
		return nil, fmt.Errorf("snapshot: invalid castling rights %d", s.CastlingRights)
	}
	p.SideToMove = s.SideToMove
	p.KingSquare = s.KingSquares
	p.CastlingRights = s.CastlingRights
	p.EnPassant = s.EnPassant
	if !p.EnPassant.IsValid() {
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock = s.HalfMoveClock
	p.FullMoveNumber = s.FullMoveNumber

	for _, c := range [2]Color{White, Black} {
		if ksq := p.KingSquare[c]; !ksq.IsValid() || p.PieceAt(ksq) != NewPiece(King, c) {
			return nil, fmt.Errorf("snapshot: %s king square does not hold its king", c)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	p.computeKeys()
	if p.Hash != s.Hash || p.Lock != s.Lock {
		return nil, fmt.Errorf("snapshot: stored keys do not match the board")
	}

	for i, u := range s.History {
		m := u.Move
		if !m.From.IsValid() || !m.To.IsValid() || m.Moved >= NoPiece || m.Captured > NoPiece {
			return nil, fmt.Errorf("snapshot: invalid history entry %d", i)
		}
		if !u.EnPassant.IsValid() {
			u.EnPassant = NoSquare
		}
		p.history = append(p.history, u)
	}
	for k, v := range s.Repetitions {
		if v <= 0 {
			continue
		}
		p.repetitions[k] = v
		if v >= 3 {
			p.threefold++
		}
	}
	if p.repetitions[p.Hash] == 0 {
		p.repetitions[p.Hash] = 1
	}
	return p, nil
}
