package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/rayfish/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Searcher performs iterative-deepening negamax with alpha-beta pruning
// over a private copy of the root position. It is not safe for concurrent
// use; run one Searcher per goroutine.
type Searcher struct {
	pos   *board.Position
	tt    *TranspositionTable
	nodes uint64

	rootBest board.Move
	stopFlag *atomic.Bool
}

// NewSearcher creates a new searcher. stop may be nil; when set, the search
// abandons its work as soon as the flag is raised.
func NewSearcher(tt *TranspositionTable, stop *atomic.Bool) *Searcher {
	if stop == nil {
		stop = new(atomic.Bool)
	}
	return &Searcher{tt: tt, stopFlag: stop}
}

// stopped returns true if the search should be abandoned.
func (s *Searcher) stopped() bool {
	return s.stopFlag.Load()
}

// Run searches pos to the given limits and returns the result of the
// deepest completed iteration. pos itself is not modified. onInfo, if
// non-nil, is called after every completed iteration.
func (s *Searcher) Run(pos *board.Position, limits SearchLimits, onInfo func(SearchInfo)) Result {
	s.pos = pos.Copy()
	s.nodes = 0
	s.tt.Clear()

	startTime := time.Now()
	result := Result{Move: board.NoMove}
	sign := s.pos.SideToMove.Sign()

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	// Iterative deepening
	for depth := 1; depth <= maxDepth; depth++ {
		s.rootBest = result.Move
		score := s.negamax(depth, 0, -Infinity, Infinity)
		if s.stopped() {
			break
		}

		result = Result{
			Move:  s.rootBest,
			Score: sign * score,
			Depth: depth,
			Nodes: s.nodes,
		}

		if onInfo != nil {
			onInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Time:     time.Since(startTime),
				PV:       s.principalVariation(depth),
				HashFull: s.tt.HashFull(),
			})
		}

		// Nothing left to search once the root is decided.
		if result.Move.IsNull() || score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}

		// Don't start an iteration we are unlikely to finish
		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			if elapsed >= limits.MoveTime || limits.MoveTime-elapsed < elapsed {
				break
			}
		}
	}

	result.Nodes = s.nodes
	result.Time = time.Since(startTime)
	return result
}

// negamax returns the score of the current position from the point of view
// of the side to move. At the root it also records the best move.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	s.nodes++
	if s.stopped() {
		return 0
	}
	pos := s.pos
	alphaOrig := alpha

	// Check the transposition table. The root always searches so that it
	// produces a move.
	ttMove := board.NoMove
	if entry, found := s.tt.Lookup(pos.Hash, pos.Lock); found {
		ttMove = entry.BestMove
		if ply > 0 && entry.Depth >= depth {
			score := AdjustScoreFromTT(entry.Score, ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}
	if ply == 0 && !s.rootBest.IsNull() {
		ttMove = s.rootBest
	}

	moves := pos.LegalMoves()
	if depth == 0 || len(moves) == 0 || ply >= MaxPly-1 {
		return s.leafScore(ply)
	}

	bestScore := -Infinity
	bestMove := board.NoMove
	for _, move := range OrderMoves(moves, ttMove) {
		pos.MakeMoveUnchecked(move, nil)
		score := -s.negamax(depth-1, ply+1, -beta, -alpha)
		pos.UndoMove()

		if s.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	flag := TTExact
	switch {
	case bestScore <= alphaOrig:
		flag = TTUpperBound
	case bestScore >= beta:
		flag = TTLowerBound
	}
	s.tt.Store(pos.Hash, pos.Lock, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	if ply == 0 {
		s.rootBest = bestMove
	}
	return bestScore
}

// leafScore evaluates the current position for the side to move. Mate
// scores are shortened by the distance from the root so nearer mates win.
func (s *Searcher) leafScore(ply int) int {
	score := s.pos.SideToMove.Sign() * Evaluate(s.pos)
	switch {
	case score >= MateScore:
		return score - ply
	case score <= -MateScore:
		return score + ply
	}
	return score
}

// principalVariation follows cached best moves from the root.
func (s *Searcher) principalVariation(depth int) []board.Move {
	var pv []board.Move
	pos := s.pos
	for len(pv) < depth {
		entry, found := s.tt.Lookup(pos.Hash, pos.Lock)
		if !found || entry.BestMove.IsNull() {
			break
		}
		m, ok := pos.FindMove(entry.BestMove.From, entry.BestMove.To)
		if !ok {
			break
		}
		m = m.WithPromotion(entry.BestMove.Promotion)
		pv = append(pv, m)
		pos.MakeMoveUnchecked(m, nil)
	}
	for range pv {
		pos.UndoMove()
	}
	return pv
}
