package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hailam/rayfish/internal/board"
)

// SearchInfo contains information about a completed search iteration.
type SearchInfo struct {
	Depth    int
	Score    int // from the side to move's point of view, as UCI reports it
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = MaxPly)
	MoveTime time.Duration // Soft budget: no new iteration starts past it (0 = no limit)
}

// Result is the outcome of a search.
type Result struct {
	Move  board.Move // NoMove when the root has no legal moves
	Score int        // centipawns from White's point of view
	Depth int        // deepest completed iteration
	Nodes uint64
	Time  time.Duration
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply
	Medium                   // 3 ply
	Hard                     // 4 ply
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2},
	Medium: {Depth: 3},
	Hard:   {Depth: 4},
}

// String returns the difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "difficulty(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDifficulty converts a difficulty name to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// Limits returns the search limits of the difficulty level.
func (d Difficulty) Limits() SearchLimits {
	if l, ok := DifficultySettings[d]; ok {
		return l
	}
	return DifficultySettings[Medium]
}

// Engine is the chess AI engine.
type Engine struct {
	searcher   *Searcher
	tt         *TranspositionTable
	ttSizeMB   int
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		searcher:   NewSearcher(tt, nil),
		tt:         tt,
		ttSizeMB:   ttSizeMB,
		difficulty: Medium,
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the engine difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// Search finds the best move for the given position at the engine's
// difficulty. It blocks until the search completes.
func (e *Engine) Search(pos *board.Position) Result {
	return e.SearchWithLimits(pos, e.difficulty.Limits())
}

// BestMove searches to maxDepth and returns the chosen move, or NoMove if
// the side to move has none.
func (e *Engine) BestMove(pos *board.Position, maxDepth int) board.Move {
	return e.SearchWithLimits(pos, SearchLimits{Depth: maxDepth}).Move
}

// SearchWithLimits finds the best move with specific search limits.
// pos is copied; the caller's position is never touched.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) Result {
	defer e.searcher.stopFlag.Store(false)
	return e.searcher.Run(pos, limits, e.OnInfo)
}

// Stop makes a running SearchWithLimits return the last completed iteration.
// It may be called from another goroutine. A Stop that arrives before the
// search starts ends it before its first iteration, leaving Move as NoMove.
func (e *Engine) Stop() {
	e.searcher.stopFlag.Store(true)
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, move := range append([]board.Move(nil), moves...) {
		pos.MakeMoveUnchecked(move, nil)
		nodes += Perft(pos, depth-1)
		pos.UndoMove()
	}
	return nodes
}

// Divide returns the perft count below each root move.
func Divide(pos *board.Position, depth int) map[board.Move]uint64 {
	counts := make(map[board.Move]uint64)
	if depth < 1 {
		return counts
	}
	for _, move := range append([]board.Move(nil), pos.LegalMoves()...) {
		pos.MakeMoveUnchecked(move, nil)
		counts[move] = Perft(pos, depth-1)
		pos.UndoMove()
	}
	return counts
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + strconv.Itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + strconv.Itoa(mateIn)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
