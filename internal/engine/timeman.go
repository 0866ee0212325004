package engine

import (
	"time"

	"github.com/hailam/rayfish/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Infinite  bool             // search until stopped
}

// minBudget keeps at least one iteration affordable on a nearly empty clock.
const minBudget = 10 * time.Millisecond

// SearchLimits converts clock parameters into limits for one search by us at
// the given game ply. The MoveTime of the result is a soft budget: the
// searcher never starts an iteration past it, but finishes the one it is in.
func (l UCILimits) SearchLimits(us board.Color, ply int) SearchLimits {
	limits := SearchLimits{Depth: l.Depth}

	// Fixed move time mode
	if l.MoveTime > 0 {
		limits.MoveTime = l.MoveTime
		return limits
	}

	// Infinite or depth-limited mode
	if l.Infinite || l.Time[us] == 0 {
		return limits
	}

	timeLeft := l.Time[us]
	inc := l.Inc[us]

	// Estimate moves to go
	mtg := l.MovesToGo
	if mtg == 0 {
		// Sudden death: expect more moves early in the game
		mtg = min(max(50-ply/4, 10), 50)
	}

	budget := timeLeft/time.Duration(mtg) + inc*9/10

	// Slight reduction for very early moves
	if ply < 8 {
		budget = budget * 85 / 100
	}

	// An iteration may overrun the budget, so leave most of the clock alone.
	budget = min(budget, timeLeft*4/10)
	limits.MoveTime = max(budget, minBudget)
	return limits
}
