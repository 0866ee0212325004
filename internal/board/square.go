// Package board implements the chess position model and the legality engine
// over an 8x8 mailbox grid.
package board

import "fmt"

// Square addresses one cell of the grid.
// Row 0 is the 8th rank and row 7 is the 1st rank; column 0 is the a-file.
type Square struct {
	Row int
	Col int
}

// NoSquare marks the absence of a square (e.g. no en passant target).
var NoSquare = Square{Row: -1, Col: -1}

// NewSquare creates a square from a row and column.
func NewSquare(row, col int) Square {
	return Square{Row: row, Col: col}
}

// SquareFromFileRank creates a square from file (0=a) and rank (0=1st rank).
func SquareFromFileRank(file, rank int) Square {
	return Square{Row: 7 - rank, Col: file}
}

// File returns the file of the square (0-7, where 0=a).
func (sq Square) File() int {
	return sq.Col
}

// Rank returns the rank of the square (0-7, where 0=1st rank).
func (sq Square) Rank() int {
	return 7 - sq.Row
}

// IsValid returns true if both coordinates lie on the board.
func (sq Square) IsValid() bool {
	return sq.Row >= 0 && sq.Row < 8 && sq.Col >= 0 && sq.Col < 8
}

// Offset returns the square dr rows and dc columns away. The result may be off the board.
func (sq Square) Offset(dr, dc int) Square {
	return Square{Row: sq.Row + dr, Col: sq.Col + dc}
}

// Mirror returns the square reflected across the horizontal centre line.
func (sq Square) Mirror() Square {
	if !sq.IsValid() {
		return sq
	}
	return Square{Row: 7 - sq.Row, Col: sq.Col}
}

// index returns the 0-63 index used by hash tables.
func (sq Square) index() int {
	return sq.Row*8 + sq.Col
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'

	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	return SquareFromFileRank(file, rank), nil
}

// MustParseSquare is like ParseSquare but panics on malformed input.
// Intended for constants and tests.
func MustParseSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}
