package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// Forward returns the row delta of a pawn advance for this color.
// White moves toward row 0, Black toward row 7.
func (c Color) Forward() int {
	if c == White {
		return -1
	}
	return 1
}

// Sign returns +1 for White and -1 for Black.
func (c Color) Sign() int {
	if c == White {
		return 1
	}
	return -1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the kind of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	if pt > NoPieceType {
		return ' '
	}
	return "pnbrqk "[pt]
}

// Letter returns the uppercase SAN letter for the piece type.
func (pt PieceType) Letter() byte {
	if pt > NoPieceType {
		return ' '
	}
	return "PNBRQK "[pt]
}

// PieceTypeFromChar converts a promotion letter (either case) to a PieceType.
func PieceTypeFromChar(c byte) PieceType {
	switch c {
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'r', 'R':
		return Rook
	case 'q', 'Q':
		return Queen
	case 'k', 'K':
		return King
	case 'p', 'P':
		return Pawn
	default:
		return NoPieceType
	}
}

// PieceValue is the material value of each piece type in pawns.
var PieceValue = [7]int{1, 3, 3, 5, 9, 0, 0}

// Piece combines PieceType and Color into a single value.
// Encoded as: pieceType + color*6
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn) + Piece(White)*6
	WhiteKnight Piece = Piece(Knight) + Piece(White)*6
	WhiteBishop Piece = Piece(Bishop) + Piece(White)*6
	WhiteRook   Piece = Piece(Rook) + Piece(White)*6
	WhiteQueen  Piece = Piece(Queen) + Piece(White)*6
	WhiteKing   Piece = Piece(King) + Piece(White)*6
	BlackPawn   Piece = Piece(Pawn) + Piece(Black)*6
	BlackKnight Piece = Piece(Knight) + Piece(Black)*6
	BlackBishop Piece = Piece(Bishop) + Piece(Black)*6
	BlackRook   Piece = Piece(Rook) + Piece(Black)*6
	BlackQueen  Piece = Piece(Queen) + Piece(Black)*6
	BlackKing   Piece = Piece(King) + Piece(Black)*6
	NoPiece     Piece = 12
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// IsEmpty reports whether p is NoPiece.
func (p Piece) IsEmpty() bool {
	return p >= NoPiece
}

// Flip returns the same kind with the opposite color.
func (p Piece) Flip() Piece {
	if p >= NoPiece {
		return NoPiece
	}
	return NewPiece(p.Type(), p.Color().Other())
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string("PNBRQKpnbrqk"[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	pt := PieceTypeFromChar(c)
	if pt == NoPieceType {
		return NoPiece
	}
	if c >= 'a' && c <= 'z' {
		return NewPiece(pt, Black)
	}
	return NewPiece(pt, White)
}

// Value returns the material value of the piece in pawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
