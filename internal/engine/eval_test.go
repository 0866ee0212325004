package engine

import (
	"testing"

	"github.com/hailam/rayfish/internal/board"
)

func TestEvaluateMirrorSymmetry(t *testing.T) {
	fens := []string{
		board.StartFEN,
		kiwipeteFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 3 3",
		"8/2k5/3p4/p2P1p2/P2P1P2/8/8/5K2 w - - 0 1",
		"4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		pos := board.MustParseFEN(fen)
		if a, b := Evaluate(pos), Evaluate(pos.Mirror()); a != -b {
			t.Errorf("%s: eval %d, mirrored %d", fen, a, b)
		}
	}
}

func TestEvaluateMaterial(t *testing.T) {
	if got := EvaluateMaterial(board.NewPosition()); got != 0 {
		t.Errorf("start material = %d, want 0", got)
	}
	pos := board.MustParseFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if got := EvaluateMaterial(pos); got != QueenValue {
		t.Errorf("material = %d, want %d", got, QueenValue)
	}
}

func TestEvaluateTerminal(t *testing.T) {
	tests := []struct {
		fen  string
		want int
	}{
		{"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", -MateScore},
		{"R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 0 1", MateScore},
		{"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 0},
		{"4k3/8/8/8/8/8/8/4KB2 w - - 0 1", 0},
	}
	for _, tt := range tests {
		if got := Evaluate(board.MustParseFEN(tt.fen)); got != tt.want {
			t.Errorf("%s: Evaluate = %d, want %d", tt.fen, got, tt.want)
		}
	}
}

func TestEvaluateCenterAndMobility(t *testing.T) {
	// Only the knight differs: d4 is a center square with more moves than a1.
	center := board.MustParseFEN("4k3/p7/8/8/3N4/8/8/4K3 w - - 0 1")
	corner := board.MustParseFEN("4k3/p7/8/8/8/8/8/N3K3 w - - 0 1")

	if Evaluate(center) <= Evaluate(corner) {
		t.Errorf("centralized knight %d should beat cornered knight %d",
			Evaluate(center), Evaluate(corner))
	}
}

func TestEvaluateKingSafety(t *testing.T) {
	// The same rook next to and away from the white king.
	near := board.MustParseFEN("4k3/8/8/8/8/8/3r4/4K3 w - - 0 1")
	far := board.MustParseFEN("4k3/r7/8/8/8/8/8/4K3 w - - 0 1")
	if got := kingAttackers(near); got != 1 {
		t.Errorf("kingAttackers(near) = %d, want 1", got)
	}
	if got := kingAttackers(far); got != 0 {
		t.Errorf("kingAttackers(far) = %d, want 0", got)
	}
}

func TestEvaluateRepetitionPenalty(t *testing.T) {
	pos := board.NewPosition()
	fresh := Evaluate(pos)

	for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		m, err := pos.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		if err := pos.MakeMove(m, nil); err != nil {
			t.Fatal(err)
		}
	}
	if pos.Repetitions() != 2 {
		t.Fatalf("repetitions = %d, want 2", pos.Repetitions())
	}
	// Black walked back into the start position, so the penalty is Black's.
	if got := Evaluate(pos) - fresh; got != repetitionPenalty {
		t.Errorf("penalty = %d, want %d", got, repetitionPenalty)
	}
}

func TestPSTMirrorsForBlack(t *testing.T) {
	for pt := board.Pawn; pt <= board.King; pt++ {
		white := board.NewPiece(pt, board.White)
		black := board.NewPiece(pt, board.Black)
		for r := 0; r < 8; r++ {
			for c := 0; c < 8; c++ {
				if pstValue(white, r, c) != pstValue(black, 7-r, c) {
					t.Errorf("%s at (%d,%d): white %d, black %d", pt, r, c,
						pstValue(white, r, c), pstValue(black, 7-r, c))
				}
			}
		}
	}
}

func TestOrderMoves(t *testing.T) {
	pos := board.MustParseFEN("4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	moves := pos.LegalMoves()

	ordered := OrderMoves(moves, board.NoMove)
	if ordered[0].String() != "e4d5" {
		t.Errorf("first move %s, want capture e4d5", ordered[0])
	}

	// Quiet moves keep their generation order.
	var quietGen, quietOrdered []string
	for _, m := range moves {
		if m.IsQuiet() {
			quietGen = append(quietGen, m.String())
		}
	}
	for _, m := range ordered {
		if m.IsQuiet() {
			quietOrdered = append(quietOrdered, m.String())
		}
	}
	if len(quietGen) != len(quietOrdered) {
		t.Fatalf("quiet moves lost: %v vs %v", quietGen, quietOrdered)
	}
	for i := range quietGen {
		if quietGen[i] != quietOrdered[i] {
			t.Errorf("quiet order changed: %v vs %v", quietGen, quietOrdered)
			break
		}
	}

	ttMove, ok := pos.FindMove(board.MustParseSquare("e1"), board.MustParseSquare("f1"))
	if !ok {
		t.Fatal("e1f1 not legal")
	}
	ordered = OrderMoves(moves, ttMove)
	if ordered[0].String() != "e1f1" || ordered[1].String() != "e4d5" {
		t.Errorf("ordered = %s %s, want e1f1 e4d5", ordered[0], ordered[1])
	}
}

func TestScoreMove(t *testing.T) {
	pos := board.MustParseFEN("1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	capture, _ := pos.FindMove(board.MustParseSquare("a7"), board.MustParseSquare("b8"))
	push, _ := pos.FindMove(board.MustParseSquare("a7"), board.MustParseSquare("a8"))
	quiet, _ := pos.FindMove(board.MustParseSquare("e1"), board.MustParseSquare("e2"))

	tests := []struct {
		move board.Move
		want int
	}{
		{capture, CaptureBase + 3 + PromotionBonus},
		{push, PromotionBonus},
		{quiet, 0},
	}
	for _, tt := range tests {
		if got := ScoreMove(tt.move, board.NoMove); got != tt.want {
			t.Errorf("ScoreMove(%s) = %d, want %d", tt.move, got, tt.want)
		}
	}
	if got := ScoreMove(quiet, quiet); got != TTMoveScore {
		t.Errorf("ScoreMove(tt move) = %d, want %d", got, TTMoveScore)
	}
}

func TestTranspositionTable(t *testing.T) {
	tt := NewTranspositionTable(1)
	m := board.NewPosition().LegalMoves()[0]

	if _, found := tt.Lookup(1, 100); found {
		t.Error("hit on empty table")
	}

	tt.Store(1, 100, 3, 42, TTExact, m)
	entry, found := tt.Lookup(1, 100)
	if !found || entry.Score != 42 || entry.Depth != 3 || entry.BestMove != m {
		t.Errorf("Lookup = %+v, %v", entry, found)
	}

	// Same hash, different position.
	if _, found := tt.Lookup(1, 101); found {
		t.Error("hit with mismatched lock")
	}

	// A shallower result does not replace a deeper one.
	tt.Store(1, 100, 2, 7, TTLowerBound, board.NoMove)
	if entry, _ := tt.Lookup(1, 100); entry.Depth != 3 || entry.Score != 42 {
		t.Errorf("shallow store replaced entry: %+v", entry)
	}

	// A colliding position takes the slot.
	tt.Store(1, 200, 1, -5, TTUpperBound, board.NoMove)
	if entry, found := tt.Lookup(1, 200); !found || entry.Score != -5 {
		t.Errorf("colliding store = %+v, %v", entry, found)
	}

	tt.Clear()
	if tt.Len() != 0 || tt.HashFull() != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestTranspositionTableFull(t *testing.T) {
	tt := &TranspositionTable{entries: make(map[uint64]TTEntry), capacity: 2}
	tt.Store(1, 1, 1, 0, TTExact, board.NoMove)
	tt.Store(2, 2, 1, 0, TTExact, board.NoMove)
	tt.Store(3, 3, 1, 0, TTExact, board.NoMove)

	if tt.Len() != 2 {
		t.Errorf("Len = %d, want 2", tt.Len())
	}
	if _, found := tt.Lookup(3, 3); found {
		t.Error("full table accepted a new position")
	}
	// Known positions can still be updated.
	tt.Store(1, 1, 4, 9, TTExact, board.NoMove)
	if entry, _ := tt.Lookup(1, 1); entry.Score != 9 {
		t.Errorf("update on full table = %+v", entry)
	}
	if tt.HashFull() != 1000 {
		t.Errorf("HashFull = %d, want 1000", tt.HashFull())
	}
}

func TestMateScoreAdjustment(t *testing.T) {
	tests := []struct{ score, ply int }{
		{MateScore - 5, 3},
		{-MateScore + 4, 2},
		{123, 7},
	}
	for _, tt := range tests {
		stored := AdjustScoreToTT(tt.score, tt.ply)
		if got := AdjustScoreFromTT(stored, tt.ply); got != tt.score {
			t.Errorf("round trip of %d at ply %d = %d", tt.score, tt.ply, got)
		}
	}
	if got := AdjustScoreToTT(MateScore-5, 3); got != MateScore-2 {
		t.Errorf("stored mate = %d, want %d", got, MateScore-2)
	}
}
