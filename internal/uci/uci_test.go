package uci

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hailam/rayfish/internal/board"
)

// session runs the given commands and returns stdout and stderr.
func session(t *testing.T, commands ...string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	u := New(16, 2, &out, &errOut)
	if err := u.Run(strings.NewReader(strings.Join(commands, "\n") + "\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), errOut.String()
}

func bestMove(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "bestmove "); ok {
			return rest
		}
	}
	t.Fatalf("no bestmove in output:\n%s", out)
	return ""
}

func TestHandshake(t *testing.T) {
	out, _ := session(t, "uci", "isready")
	for _, want := range []string{"id name Rayfish", "option name Hash", "option name Depth", "uciok", "readyok"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGoDepth(t *testing.T) {
	out, _ := session(t, "position startpos moves e2e4", "go depth 2")

	if !strings.Contains(out, "info depth 1 ") || !strings.Contains(out, "info depth 2 ") {
		t.Errorf("missing iteration info:\n%s", out)
	}
	move := bestMove(t, out)

	pos := board.NewPosition()
	e4, _ := pos.ParseMove("e2e4")
	pos.MakeMove(e4, nil)
	if _, err := pos.ParseMove(move); err != nil {
		t.Errorf("bestmove %s is not legal for black: %v", move, err)
	}
}

func TestGoMateScore(t *testing.T) {
	out, _ := session(t, "position fen 6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", "go depth 3")
	if !strings.Contains(out, "score mate 1") {
		t.Errorf("mate not reported:\n%s", out)
	}
	if move := bestMove(t, out); move != "a1a8" {
		t.Errorf("bestmove %s, want a1a8", move)
	}
}

func TestGoWithoutLegalMoves(t *testing.T) {
	out, _ := session(t,
		"position startpos moves f2f3 e7e5 g2g4 d8h4",
		"go depth 2")
	if move := bestMove(t, out); move != "0000" {
		t.Errorf("bestmove %s, want 0000", move)
	}
}

func TestStopInfinite(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(16, 2, &out, &errOut)

	r, w := io.Pipe()
	done := make(chan error)
	go func() { done <- u.Run(r) }()

	w.Write([]byte("position startpos\ngo infinite\n"))
	time.Sleep(100 * time.Millisecond)
	w.Write([]byte("stop\nquit\n"))
	defer w.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("stop did not end the search")
	}
	if move := bestMove(t, out.String()); move == "0000" {
		t.Error("stopped search gave no move")
	}
}

func TestPositionErrors(t *testing.T) {
	out, errOut := session(t,
		"position fen not a fen",
		"position startpos moves e2e5",
		"d")

	if !strings.Contains(errOut, "Invalid FEN") {
		t.Errorf("bad FEN not reported: %s", errOut)
	}
	if !strings.Contains(errOut, "Invalid move e2e5") {
		t.Errorf("illegal move not reported: %s", errOut)
	}
	// Rejected commands leave the previous position in place.
	if !strings.Contains(out, "Fen: "+board.StartFEN) {
		t.Errorf("position changed after errors:\n%s", out)
	}
}

func TestSetOption(t *testing.T) {
	var out, errOut bytes.Buffer
	u := New(16, 2, &out, &errOut)
	err := u.Run(strings.NewReader(strings.Join([]string{
		"setoption name Depth value 3",
		"setoption name Hash value 8",
		"setoption name Depth value zero",
		"setoption name Contempt value 10",
	}, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	if u.depth != 3 || u.hashMB != 8 {
		t.Errorf("depth=%d hash=%d, want 3 and 8", u.depth, u.hashMB)
	}
	if !strings.Contains(errOut.String(), "Invalid Depth value: zero") {
		t.Errorf("bad depth not reported: %s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "Unknown option: Contempt") {
		t.Errorf("unknown option not reported: %s", errOut.String())
	}
}

func TestPerft(t *testing.T) {
	out, _ := session(t, "position startpos", "perft 2")
	if !strings.Contains(out, "Nodes: 400") {
		t.Errorf("perft 2 output:\n%s", out)
	}
	if !strings.Contains(out, "e2e4: 20") {
		t.Errorf("divide line missing:\n%s", out)
	}
}

func TestSearchLimits(t *testing.T) {
	u := New(16, 5, &bytes.Buffer{}, &bytes.Buffer{})

	tests := []struct {
		args  string
		depth int
		timed bool
	}{
		{"", 5, false},
		{"depth 7", 7, false},
		{"movetime 300", 0, true},
		{"wtime 60000 btime 60000 winc 1000 binc 1000", 0, true},
		{"infinite", 0, false},
	}
	for _, tt := range tests {
		limits := u.searchLimits(parseGoOptions(strings.Fields(tt.args)))
		if limits.Depth != tt.depth {
			t.Errorf("go %s: depth %d, want %d", tt.args, limits.Depth, tt.depth)
		}
		if (limits.MoveTime > 0) != tt.timed {
			t.Errorf("go %s: movetime %v", tt.args, limits.MoveTime)
		}
	}

	if got := u.searchLimits(parseGoOptions([]string{"movetime", "300"})).MoveTime; got != 300*time.Millisecond {
		t.Errorf("movetime = %v, want 300ms", got)
	}
}

// lockedBuffer is a bytes.Buffer safe to read while the driver writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInfiniteWaitsForStop(t *testing.T) {
	var out, errOut lockedBuffer
	u := New(16, 2, &out, &errOut)

	r, w := io.Pipe()
	done := make(chan error)
	go func() { done <- u.Run(r) }()
	defer w.Close()

	// The mate is found at depth 1 and the search ends on its own.
	w.Write([]byte("position fen 6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1\ngo infinite\n"))
	time.Sleep(200 * time.Millisecond)
	if !strings.Contains(out.String(), "score mate 1") {
		t.Fatalf("mate not found before stop:\n%s", out.String())
	}
	if strings.Contains(out.String(), "bestmove") {
		t.Fatalf("bestmove sent before stop:\n%s", out.String())
	}

	w.Write([]byte("stop\nquit\n"))
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("stop did not release the search")
	}
	if move := bestMove(t, out.String()); move != "a1a8" {
		t.Errorf("bestmove %s, want a1a8", move)
	}
}

func TestInfiniteStoppedAtEndOfInput(t *testing.T) {
	out, _ := session(t, "position startpos", "go infinite")
	if move := bestMove(t, out); move == "0000" {
		t.Error("search stopped at end of input gave no move")
	}
}
