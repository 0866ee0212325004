package server

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/hailam/rayfish/internal/board"
	"github.com/hailam/rayfish/internal/engine"
	"github.com/hailam/rayfish/internal/pgn"
	"github.com/hailam/rayfish/internal/storage"
)

// Game is one game in progress. Every field below mu is guarded by it; the
// engine worker never touches pos, it searches its own copy.
type Game struct {
	ID string

	mu          sync.Mutex
	pos         *board.Position
	engineColor *board.Color // nil when both sides are human
	difficulty  engine.Difficulty
	createdAt   time.Time
	recorded    bool // result counted in the stats; undo does not reset it

	job   *engine.Job // running engine search, nil if none
	conns map[*websocket.Conn]struct{}
}

// GameState is the client view of a game.
type GameState struct {
	ID          string       `json:"id"`
	FEN         string       `json:"fen"`
	SideToMove  string       `json:"side_to_move"`
	Status      string       `json:"status"`
	Result      string       `json:"result"`
	InCheck     bool         `json:"in_check"`
	LegalMoves  []MoveView   `json:"legal_moves"`
	History     []string     `json:"history"`
	SAN         []string     `json:"san"`
	LastMove    *MoveView    `json:"last_move,omitempty"`
	EngineColor string       `json:"engine_color,omitempty"`
	Difficulty  string       `json:"difficulty"`
	Thinking    bool         `json:"thinking"`
	CreatedAt   time.Time    `json:"created_at"`
	Board       [8][8]string `json:"board"`
}

// MoveView describes a move for clients.
type MoveView struct {
	UCI       string `json:"uci"`
	From      string `json:"from"`
	To        string `json:"to"`
	Notation  string `json:"notation"`
	Promotion bool   `json:"promotion,omitempty"`
	Castle    bool   `json:"castle,omitempty"`
	EnPassant bool   `json:"en_passant,omitempty"`
}

func newMoveView(m board.Move) MoveView {
	return MoveView{
		UCI:       m.String(),
		From:      m.From.String(),
		To:        m.To.String(),
		Notation:  m.Notation(),
		Promotion: m.IsPromotion(),
		Castle:    m.Castle,
		EnPassant: m.EnPassant,
	}
}

func colorName(c board.Color) string {
	return strings.ToLower(c.String())
}

// engineToMove reports whether the engine owns the side to move.
func (g *Game) engineToMove() bool {
	return g.engineColor != nil && g.pos.SideToMove == *g.engineColor && !g.pos.GameOver()
}

// state builds the client view.
func (g *Game) state() GameState {
	pos := g.pos
	st := GameState{
		ID:         g.ID,
		FEN:        pos.ToFEN(),
		SideToMove: colorName(pos.SideToMove),
		Status:     pos.Status().String(),
		Result:     pgn.Result(pos),
		InCheck:    pos.IsInCheck(),
		LegalMoves: []MoveView{},
		History:    []string{},
		SAN:        pos.SANHistory(),
		Difficulty: g.difficulty.String(),
		Thinking:   g.job != nil,
		CreatedAt:  g.createdAt,
	}
	for _, m := range pos.LegalMoves() {
		st.LegalMoves = append(st.LegalMoves, newMoveView(m))
	}
	for _, m := range pos.History() {
		st.History = append(st.History, m.String())
	}
	if last := pos.LastMove(); !last.IsNull() {
		v := newMoveView(last)
		st.LastMove = &v
	}
	if g.engineColor != nil {
		st.EngineColor = colorName(*g.engineColor)
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if p := pos.Board[r][c]; p != board.NoPiece {
				st.Board[r][c] = p.String()
			}
		}
	}
	return st
}

// saved returns the persistence form of the game.
func (g *Game) saved() *storage.SavedGame {
	return &storage.SavedGame{
		ID:          g.ID,
		Position:    g.pos.Snapshot(),
		EngineColor: g.engineColor,
		Difficulty:  g.difficulty,
		Recorded:    g.recorded,
		CreatedAt:   g.createdAt,
	}
}

// broadcast sends the current state to every connected client.
func (g *Game) broadcast() {
	if len(g.conns) == 0 {
		return
	}
	msg, err := newMessage(MessageTypeGameState, g.state())
	if err != nil {
		log.Printf("game %s: encode state: %v", g.ID, err)
		return
	}
	for conn := range g.conns {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("game %s: write: %v", g.ID, err)
			delete(g.conns, conn)
		}
	}
}
