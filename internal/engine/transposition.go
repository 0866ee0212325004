package engine

import (
	"github.com/hailam/rayfish/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// ttEntrySize is the approximate footprint of one map entry, used to turn a
// size in MB into an entry budget.
const ttEntrySize = 64

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Lock     uint64     // Independent key, verified on every lookup
	BestMove board.Move // Best move found, NoMove if none
	Score    int        // Score (bounded by flag), mate scores ply-adjusted
	Depth    int        // Search depth
	Flag     TTFlag     // Type of bound
}

// TranspositionTable caches search results keyed by the canonical position
// hash. A hit must also match the position's Lock, so two positions sharing
// a Hash never read each other's entries.
type TranspositionTable struct {
	entries  map[uint64]TTEntry
	capacity int
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	capacity := sizeMB * 1024 * 1024 / ttEntrySize
	return &TranspositionTable{
		entries:  make(map[uint64]TTEntry, min(capacity, 1<<16)),
		capacity: capacity,
	}
}

// Lookup finds a position in the transposition table.
func (tt *TranspositionTable) Lookup(hash, lock uint64) (TTEntry, bool) {
	entry, ok := tt.entries[hash]
	if !ok || entry.Lock != lock {
		return TTEntry{}, false
	}
	return entry, true
}

// Store saves a search result. An existing entry for the same position is
// only replaced by an equal or deeper result; once the table is full, new
// positions are dropped.
func (tt *TranspositionTable) Store(hash, lock uint64, depth, score int, flag TTFlag, bestMove board.Move) {
	if old, ok := tt.entries[hash]; ok {
		if old.Lock == lock && old.Depth > depth {
			return
		}
	} else if len(tt.entries) >= tt.capacity {
		return
	}
	tt.entries[hash] = TTEntry{
		Lock:     lock,
		BestMove: bestMove,
		Score:    score,
		Depth:    depth,
		Flag:     flag,
	}
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	return len(tt.entries) * 1000 / tt.capacity
}

// Len returns the number of stored positions.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// AdjustScoreFromTT converts a stored mate score back to a distance from
// the current node.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
