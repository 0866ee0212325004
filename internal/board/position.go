package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleFlag(c, kingSide) != 0
}

// Mirror swaps the White and Black rights.
func (cr CastlingRights) Mirror() CastlingRights {
	return (cr&(WhiteKingSideCastle|WhiteQueenSideCastle))<<2 | (cr&(BlackKingSideCastle|BlackQueenSideCastle))>>2
}

func castleFlag(c Color, kingSide bool) CastlingRights {
	if c == White {
		if kingSide {
			return WhiteKingSideCastle
		}
		return WhiteQueenSideCastle
	}
	if kingSide {
		return BlackKingSideCastle
	}
	return BlackQueenSideCastle
}

// homeRow returns the back rank row of a color.
func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// Position represents a complete chess game state: the grid, side to move
// and every log needed to undo back to the position it was created from.
type Position struct {
	Board [8][8]Piece

	SideToMove     Color
	KingSquare     [2]Square
	CastlingRights CastlingRights
	EnPassant      Square // target square for en passant, NoSquare if none
	HalfMoveClock  int    // plies since last pawn move or capture (for 50-move rule)
	FullMoveNumber int    // full move counter, starts at 1

	// Zobrist keys of the current position. Hash is the canonical key used
	// by the repetition table; Lock is an independent key used to verify
	// transposition cache hits.
	Hash uint64
	Lock uint64

	history     []UndoInfo
	repetitions map[uint64]int
	threefold   int // hashes whose count has reached three

	legal      []Move
	legalValid bool
	status     Status
	inCheck    bool
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// emptyPosition returns a position with no pieces and empty logs.
func emptyPosition() *Position {
	p := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		repetitions:    make(map[uint64]int),
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p.Board[r][c] = NoPiece
		}
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
	return p
}

// Copy creates a deep copy of the position, logs included.
func (p *Position) Copy() *Position {
	newPos := *p
	newPos.history = append([]UndoInfo(nil), p.history...)
	newPos.repetitions = make(map[uint64]int, len(p.repetitions))
	for k, v := range p.repetitions {
		newPos.repetitions[k] = v
	}
	newPos.legal = nil
	newPos.legalValid = false
	return &newPos
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq.Row][sq.Col]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq.Row][sq.Col] == NoPiece
}

// setPiece places a piece on a square, keeping hashes and king locations current.
func (p *Position) setPiece(piece Piece, sq Square) {
	p.Board[sq.Row][sq.Col] = piece
	if piece == NoPiece {
		return
	}
	p.toggleKeys(piece, sq)
	if piece.Type() == King {
		p.KingSquare[piece.Color()] = sq
	}
}

// removePiece clears a square and returns what stood there.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Board[sq.Row][sq.Col]
	if piece == NoPiece {
		return NoPiece
	}
	p.Board[sq.Row][sq.Col] = NoPiece
	p.toggleKeys(piece, sq)
	return piece
}

// movePiece relocates the piece on from to the empty square to.
func (p *Position) movePiece(from, to Square) {
	p.setPiece(p.removePiece(from), to)
}

// invalidate drops the memoized legal move set.
func (p *Position) invalidate() {
	p.legal = nil
	p.legalValid = false
}

// History returns the moves played since the position was created, oldest first.
func (p *Position) History() []Move {
	moves := make([]Move, len(p.history))
	for i, u := range p.history {
		moves[i] = u.Move
	}
	return moves
}

// Ply returns the number of moves that can be undone.
func (p *Position) Ply() int {
	return len(p.history)
}

// LastMove returns the most recently applied move, or NoMove.
func (p *Position) LastMove() Move {
	if len(p.history) == 0 {
		return NoMove
	}
	return p.history[len(p.history)-1].Move
}

// Repetitions returns how many times the current position has occurred.
func (p *Position) Repetitions() int {
	return p.repetitions[p.Hash]
}

// SetHalfMoveClock overrides the fifty-move counter of the current position.
func (p *Position) SetHalfMoveClock(n int) {
	p.HalfMoveClock = n
	p.invalidate()
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}

// Validate checks that the position is one the legality engine can work with.
func (p *Position) Validate() error {
	var kings [2]int
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			piece := p.Board[r][c]
			if piece == NoPiece {
				continue
			}
			if piece.Type() == King {
				kings[piece.Color()]++
			}
			if piece.Type() == Pawn && (r == 0 || r == 7) {
				return fmt.Errorf("pawn on back rank at %s", NewSquare(r, c))
			}
		}
	}
	if kings[White] != 1 {
		return fmt.Errorf("white must have exactly one king")
	}
	if kings[Black] != 1 {
		return fmt.Errorf("black must have exactly one king")
	}

	// The side not to move must not be in check.
	them := p.SideToMove.Other()
	if p.isAttacked(p.KingSquare[them], p.SideToMove) {
		return fmt.Errorf("%s king is in check with %s to move", them, p.SideToMove)
	}
	if p.EnPassant != NoSquare && !p.enPassantPlausible() {
		return fmt.Errorf("invalid en passant square %s", p.EnPassant)
	}
	return nil
}

// enPassantPlausible reports whether the en passant target could follow a
// double push by the side that just moved: the target and the pawn's origin
// are empty and that pawn stands one square beyond the target.
func (p *Position) enPassantPlausible() bool {
	sq := p.EnPassant
	us := p.SideToMove
	them := us.Other()
	if !sq.IsValid() || sq.Row != homeRow(them)+2*them.Forward() {
		return false
	}
	origin := sq.Offset(-them.Forward(), 0)
	pawn := sq.Offset(them.Forward(), 0)
	return p.IsEmpty(sq) && p.IsEmpty(origin) && p.PieceAt(pawn) == NewPiece(Pawn, them)
}

// IsInsufficientMaterial returns true when only the kings remain, or the
// kings plus exactly one knight or bishop in total.
func (p *Position) IsInsufficientMaterial() bool {
	minors := 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			switch p.Board[r][c].Type() {
			case King, NoPieceType:
			case Knight, Bishop:
				minors++
				if minors > 1 {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}
