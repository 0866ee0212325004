package board

import "testing"

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("ToFEN() = %q, want %q", got, fen)
		}
		if pos.Repetitions() != 1 {
			t.Errorf("%q: loaded position should be counted once", fen)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNZ w KQkq -",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - x 1",
		// no black king
		"8/8/8/8/8/8/8/4K3 w - - 0 1",
		// pawn on the back rank
		"P3k3/8/8/8/8/8/8/4K3 w - - 0 1",
		// black in check with white to move
		"4k3/8/8/8/8/8/8/4R1K1 w - - 0 1",
		// en passant target with no pawn that just double-pushed
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/8/8/PPPPPPPP/RNBQKBNR b KQkq e6 0 2",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq e3 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e3 0 2",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); err == nil {
			t.Errorf("ParseFEN(%q) accepted invalid input", fen)
		}
	}
}

func TestParseFENDropsImpossibleCastlingRights(t *testing.T) {
	pos := MustParseFEN("4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	if pos.CastlingRights != WhiteKingSideCastle {
		t.Errorf("castling rights = %v, want K", pos.CastlingRights)
	}
}

func TestSquareParsing(t *testing.T) {
	tests := []struct {
		s        string
		row, col int
	}{
		{"a8", 0, 0},
		{"h8", 0, 7},
		{"a1", 7, 0},
		{"e4", 4, 4},
	}
	for _, tc := range tests {
		sq, err := ParseSquare(tc.s)
		if err != nil {
			t.Fatal(err)
		}
		if sq.Row != tc.row || sq.Col != tc.col {
			t.Errorf("ParseSquare(%q) = %+v", tc.s, sq)
		}
		if sq.String() != tc.s {
			t.Errorf("String() = %q, want %q", sq.String(), tc.s)
		}
	}
	for _, s := range []string{"", "a", "a9", "i1", "a0", "e44"} {
		if _, err := ParseSquare(s); err == nil {
			t.Errorf("ParseSquare(%q) accepted invalid input", s)
		}
	}
}

func TestMirror(t *testing.T) {
	start := NewPosition()
	if got, want := start.Mirror().ToFEN(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1"; got != want {
		t.Errorf("Mirror() = %q, want %q", got, want)
	}

	kiwi := MustParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	m := kiwi.Mirror()
	if len(m.LegalMoves()) != len(kiwi.LegalMoves()) {
		t.Errorf("mirrored move count %d != %d", len(m.LegalMoves()), len(kiwi.LegalMoves()))
	}
	if back := m.Mirror(); back.ToFEN() != kiwi.ToFEN() || back.Hash != kiwi.Hash {
		t.Error("mirroring twice should give back the original position")
	}

	// Generation order is mirror-consistent.
	for i, mv := range m.LegalMoves() {
		orig := kiwi.LegalMoves()[i]
		if mv.From != orig.From.Mirror() || mv.To != orig.To.Mirror() {
			t.Fatalf("move %d: mirrored %v, original %v", i, mv, orig)
		}
	}
}

func TestParseFENEnPassant(t *testing.T) {
	pos := MustParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	if pos.EnPassant != MustParseSquare("e3") {
		t.Fatalf("EnPassant = %v, want e3", pos.EnPassant)
	}
	m, ok := pos.FindMove(MustParseSquare("d4"), MustParseSquare("e3"))
	if !ok || !m.EnPassant || m.Captured != WhitePawn {
		t.Errorf("d4e3 = %+v, found %v; want en passant capturing the white pawn", m, ok)
	}
}
