package board

import (
	"sort"
	"testing"
)

// destinations returns the sorted destination squares of the legal moves from sq.
func destinations(p *Position, from string) []string {
	var out []string
	for _, m := range p.LegalMovesFrom(MustParseSquare(from)) {
		out = append(out, m.To.String())
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func playMoves(t *testing.T, p *Position, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := p.ParseMove(s)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if err := p.MakeMove(m, nil); err != nil {
			t.Fatalf("MakeMove(%q): %v", s, err)
		}
	}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: Black king h8 boxed in by its own pawns, rook on a8.
	pos := MustParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")

	if !pos.IsInCheck() {
		t.Error("expected Black to be in check")
	}
	if !pos.IsCheckmate() {
		t.Errorf("expected checkmate, got %v", pos.Status())
	}
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("expected no legal moves, got %d", n)
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can take the unprotected rook.
	pos := MustParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")

	if !pos.IsInCheck() {
		t.Error("expected Black to be in check")
	}
	if pos.IsCheckmate() {
		t.Error("king can capture the rook, not checkmate")
	}
	if got := destinations(pos, "h8"); !equalStrings(got, []string{"g8", "h7"}) {
		// h7 is not covered by the rook on g8.
		t.Errorf("king destinations = %v", got)
	}
}

func TestFoolsMate(t *testing.T) {
	pos := NewPosition()
	playMoves(t, pos, "f2f3", "e7e5", "g2g4", "d8h4")

	if !pos.IsCheckmate() {
		t.Fatalf("expected checkmate after fool's mate, status %v", pos.Status())
	}
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("expected no legal moves for White, got %d", n)
	}
	if pos.IsStalemate() {
		t.Error("checkmate must not report stalemate")
	}
}

func TestStalemate(t *testing.T) {
	pos := MustParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")

	if pos.IsInCheck() {
		t.Error("stalemated king must not be in check")
	}
	if got := pos.Status(); got != Stalemate {
		t.Errorf("Status() = %v, want %v", got, Stalemate)
	}
	if !pos.IsStalemate() || pos.IsCheckmate() {
		t.Error("expected stalemate and not checkmate")
	}
}

func TestPinnedPieces(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		from string
		want []string
	}{
		{
			name: "rook pinned on file moves along the file",
			fen:  "4r2k/8/8/8/4R3/8/8/4K3 w - - 0 1",
			from: "e4",
			want: []string{"e2", "e3", "e5", "e6", "e7", "e8"},
		},
		{
			name: "bishop pinned on file cannot move",
			fen:  "4r2k/8/8/8/4B3/8/8/4K3 w - - 0 1",
			from: "e4",
			want: nil,
		},
		{
			name: "knight pinned on file cannot move",
			fen:  "4r2k/8/8/8/4N3/8/8/4K3 w - - 0 1",
			from: "e4",
			want: nil,
		},
		{
			name: "queen pinned on diagonal moves along the diagonal",
			fen:  "7k/8/5b2/8/8/2Q5/8/K7 w - - 0 1",
			from: "c3",
			want: []string{"b2", "d4", "e5", "f6"},
		},
		{
			name: "pawn pinned on diagonal may only capture the pinner",
			fen:  "4k3/8/8/8/8/6b1/5P2/4K3 w - - 0 1",
			from: "f2",
			want: []string{"g3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			_, pins, _ := pos.PinsAndChecks()
			if _, ok := pins[MustParseSquare(tc.from)]; !ok {
				t.Errorf("%s not reported as pinned", tc.from)
			}
			if got := destinations(pos, tc.from); !equalStrings(got, tc.want) {
				t.Errorf("destinations = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// Rook on e8 and knight on d3 both check the king; the rook on a3 could
	// take the knight but that does not answer the rook.
	pos := MustParseFEN("4r2k/8/8/8/8/R2n4/8/4K3 w - - 0 1")

	inCheck, _, checks := pos.PinsAndChecks()
	if !inCheck || len(checks) != 2 {
		t.Fatalf("expected double check, got inCheck=%v checks=%d", inCheck, len(checks))
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		t.Fatal("expected king moves")
	}
	for _, m := range moves {
		if m.Moved.Type() != King {
			t.Errorf("non-king move %v in double check", m)
		}
	}
	if got := destinations(pos, "e1"); !equalStrings(got, []string{"d1", "d2", "f1"}) {
		t.Errorf("king destinations = %v", got)
	}
}

func TestSingleCheckResponses(t *testing.T) {
	// Rook on e8 checks; the bishop and queen may only interpose.
	pos := MustParseFEN("k3r3/8/8/8/7Q/8/8/2B1K3 w - - 0 1")

	for _, m := range pos.LegalMoves() {
		after := pos.Copy()
		after.MakeMoveUnchecked(m, nil)
		if after.IsSquareAttacked(after.KingSquare[White], Black) {
			t.Errorf("move %v leaves the king in check", m)
		}
	}
	if got := destinations(pos, "c1"); !equalStrings(got, []string{"e3"}) {
		t.Errorf("bishop destinations = %v, want [e3]", got)
	}
	if got := destinations(pos, "h4"); !equalStrings(got, []string{"e4", "e7"}) {
		t.Errorf("queen destinations = %v, want [e4 e7]", got)
	}
}

func TestKingCannotRetreatAlongCheckingRay(t *testing.T) {
	pos := MustParseFEN("4k3/8/8/8/8/8/8/r3K3 w - - 0 1")

	got := destinations(pos, "e1")
	if !equalStrings(got, []string{"d2", "e2", "f2"}) {
		t.Errorf("king destinations = %v, want [d2 e2 f2]", got)
	}
}

func TestCastling(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want []string
	}{
		{"both sides", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", []string{"c1", "d1", "d2", "e2", "f1", "f2", "g1"}},
		{"kingside crosses attacked square", "r3kr2/8/8/8/8/8/8/R3K2R w KQq - 0 1", []string{"c1", "d1", "d2", "e2"}},
		{"queenside rook path may be attacked", "1r2k3/8/8/8/8/8/8/R3K2R w KQ - 0 1", []string{"c1", "d1", "d2", "e2", "f1", "f2", "g1"}},
		{"no castling out of check", "4r1k1/8/8/8/8/8/8/R3K2R w KQ - 0 1", []string{"d1", "d2", "f1", "f2"}},
		{"blocked", "4k3/8/8/8/8/8/8/RN2K1NR w KQ - 0 1", []string{"d1", "d2", "e2", "f1", "f2"}},
		{"no rights", "4k3/8/8/8/8/8/8/R3K2R w - - 0 1", []string{"d1", "d2", "e2", "f1", "f2"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			if got := destinations(pos, "e1"); !equalStrings(got, tc.want) {
				t.Errorf("king destinations = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCastlingOrderKingsideFirst(t *testing.T) {
	pos := MustParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	var castles []Move
	for _, m := range pos.LegalMoves() {
		if m.Castle {
			castles = append(castles, m)
		}
	}
	if len(castles) != 2 || castles[0].To.String() != "g1" || castles[1].To.String() != "c1" {
		t.Errorf("castling moves = %v, want [e1g1 e1c1]", castles)
	}
}

func TestEnPassantAvailabilityAndExpiry(t *testing.T) {
	pos := MustParseFEN("4k3/8/8/8/4p3/8/3P4/4K3 w - - 0 1")
	playMoves(t, pos, "d2d4")

	var eps []Move
	for _, m := range pos.LegalMoves() {
		if m.EnPassant {
			eps = append(eps, m)
		}
	}
	if len(eps) != 1 || eps[0].String() != "e4d3" {
		t.Fatalf("en passant moves = %v, want [e4d3]", eps)
	}
	if eps[0].Captured != WhitePawn {
		t.Errorf("en passant captured %v, want white pawn", eps[0].Captured)
	}

	// Taking en passant removes the pawn beside the destination, undo puts it back.
	after := pos.Copy()
	if err := after.MakeMove(eps[0], nil); err != nil {
		t.Fatal(err)
	}
	if !after.IsEmpty(MustParseSquare("d4")) {
		t.Error("captured pawn still on d4")
	}
	after.UndoMove()
	if after.PieceAt(MustParseSquare("d4")) != WhitePawn || !after.IsEmpty(MustParseSquare("d3")) {
		t.Error("undo did not restore the captured pawn to d4")
	}

	// Any other move in between and the option is gone.
	playMoves(t, pos, "e8d8", "e1f2")
	for _, m := range pos.LegalMoves() {
		if m.EnPassant {
			t.Errorf("en passant %v still available after intervening moves", m)
		}
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := NewPosition()
	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	playMoves(t, pos, cycle...)
	if pos.IsDraw() {
		t.Fatal("two occurrences must not be a draw")
	}
	if got := pos.Repetitions(); got != 2 {
		t.Errorf("Repetitions() = %d, want 2", got)
	}

	playMoves(t, pos, cycle...)
	if got := pos.Status(); got != DrawRepetition {
		t.Fatalf("Status() = %v, want %v", got, DrawRepetition)
	}
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("expected no legal moves after threefold repetition, got %d", n)
	}
	if !pos.IsStalemate() {
		t.Error("IsStalemate() should report the drawn game")
	}

	pos.UndoMove()
	if pos.IsDraw() {
		t.Error("undo should lift the repetition draw")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	pos := NewPosition()

	pos.SetHalfMoveClock(99)
	if pos.IsDraw() {
		t.Fatal("99 half-moves must not be a draw")
	}

	pos.SetHalfMoveClock(100)
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("expected no legal moves, got %d", n)
	}
	if got := pos.Status(); got != DrawFiftyMove {
		t.Errorf("Status() = %v, want %v", got, DrawFiftyMove)
	}
	if !pos.IsStalemate() {
		t.Error("IsStalemate() should report the drawn game")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		draw bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4K2N w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/2b1K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/2b1K2B w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
	}

	for _, tc := range tests {
		t.Run(tc.fen, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			if got := pos.Status() == DrawInsufficientMaterial; got != tc.draw {
				t.Errorf("insufficient material = %v, want %v", got, tc.draw)
			}
			if tc.draw && len(pos.LegalMoves()) != 0 {
				t.Error("drawn position should have no legal moves")
			}
		})
	}
}

func TestLegalMovesNeverSelfCheck(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}

	var walk func(p *Position, depth int)
	walk = func(p *Position, depth int) {
		for _, m := range append([]Move(nil), p.LegalMoves()...) {
			mover := p.SideToMove
			p.MakeMoveUnchecked(m, nil)
			if p.IsSquareAttacked(p.KingSquare[mover], mover.Other()) {
				t.Errorf("%v leaves the %s king attacked", m, mover)
			}
			if depth > 1 {
				walk(p, depth-1)
			}
			p.UndoMove()
		}
	}

	for _, fen := range fens {
		walk(MustParseFEN(fen), 2)
	}
}

func TestFindMove(t *testing.T) {
	pos := NewPosition()
	m, ok := pos.FindMove(MustParseSquare("e2"), MustParseSquare("e4"))
	if !ok || m.Moved != WhitePawn {
		t.Fatalf("FindMove(e2, e4) = %v, %v", m, ok)
	}
	if _, ok := pos.FindMove(MustParseSquare("e2"), MustParseSquare("e5")); ok {
		t.Error("FindMove(e2, e5) should fail")
	}
}

func TestPseudoMovesIgnorePins(t *testing.T) {
	// The bishop on e2 is pinned against its king by the rook on e7.
	p := MustParseFEN("4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")

	pseudo := p.PseudoMoves()
	if len(pseudo) != 13 {
		t.Errorf("got %d pseudo-legal moves, want 13", len(pseudo))
	}
	pinned := p.NewMove(MustParseSquare("e2"), MustParseSquare("d3"))
	found := false
	for _, m := range pseudo {
		if m.Equal(pinned) {
			found = true
		}
	}
	if !found {
		t.Error("pseudo-legal moves missing e2d3")
	}

	if got := len(p.LegalMoves()); got != 4 {
		t.Errorf("got %d legal moves, want 4", got)
	}
	if _, ok := p.FindMove(MustParseSquare("e2"), MustParseSquare("d3")); ok {
		t.Error("pinned bishop may leave the file")
	}
}
