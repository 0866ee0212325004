// Package pgn exports games in Portable Game Notation.
package pgn

import (
	"fmt"
	"sort"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/rayfish/internal/board"
)

// rosterTags are written first, in this order, as PGN requires.
var rosterTags = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

// Export replays the history of pos from its initial position and returns
// the game as PGN text. tags override the defaults of the seven tag roster
// and may add any others; Result is always derived from the position.
func Export(pos *board.Position, tags map[string]string) (string, error) {
	initial := pos.InitialFEN()

	var opts []func(*chess.Game)
	if initial != board.StartFEN {
		fen, err := chess.FEN(initial)
		if err != nil {
			return "", fmt.Errorf("pgn: initial position: %w", err)
		}
		opts = append(opts, fen)
	}
	game := chess.NewGame(opts...)

	for i, m := range pos.History() {
		move, err := chess.UCINotation{}.Decode(game.Position(), m.String())
		if err != nil {
			return "", fmt.Errorf("pgn: ply %d (%s): %w", i+1, m, err)
		}
		if err := game.Move(move); err != nil {
			return "", fmt.Errorf("pgn: ply %d (%s): %w", i+1, m, err)
		}
	}

	// Claimable draws are final here; record them the same way.
	switch pos.Status() {
	case board.DrawRepetition:
		if err := game.Draw(chess.ThreefoldRepetition); err != nil {
			return "", fmt.Errorf("pgn: %w", err)
		}
	case board.DrawFiftyMove:
		if err := game.Draw(chess.FiftyMoveRule); err != nil {
			return "", fmt.Errorf("pgn: %w", err)
		}
	}

	merged := map[string]string{
		"Event": "Casual game",
		"Site":  "rayfish",
		"Date":  time.Now().Format("2006.01.02"),
		"Round": "-",
		"White": "?",
		"Black": "?",
	}
	for k, v := range tags {
		merged[k] = v
	}
	merged["Result"] = Result(pos)
	if initial != board.StartFEN {
		merged["SetUp"] = "1"
		merged["FEN"] = initial
	}

	for _, k := range rosterTags {
		game.AddTagPair(k, merged[k])
		delete(merged, k)
	}
	extra := make([]string, 0, len(merged))
	for k := range merged {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		game.AddTagPair(k, merged[k])
	}

	return game.String(), nil
}

// Result returns the PGN result token of the position.
func Result(pos *board.Position) string {
	switch status := pos.Status(); {
	case status == board.Checkmate && pos.SideToMove == board.White:
		return "0-1"
	case status == board.Checkmate:
		return "1-0"
	case status.IsDraw():
		return "1/2-1/2"
	}
	return "*"
}
