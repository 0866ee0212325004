package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/hailam/rayfish/internal/board"
	"github.com/hailam/rayfish/internal/engine"
	"github.com/hailam/rayfish/internal/pgn"
	"github.com/hailam/rayfish/internal/storage"
)

var (
	// ErrGameNotFound is returned for an unknown game ID.
	ErrGameNotFound = storage.ErrGameNotFound
	// ErrEngineThinking is returned when a move is sent while the engine searches.
	ErrEngineThinking = errors.New("engine is thinking")
	// ErrEngineTurn is returned when a client tries to move for the engine.
	ErrEngineTurn = errors.New("it is the engine's turn")
	// ErrGameOver is returned for moves in a finished game.
	ErrGameOver = errors.New("game is over")
	// ErrBadRequest marks malformed client input.
	ErrBadRequest = errors.New("bad request")
)

// CreateGameRequest describes a new game. Empty fields take the stored
// preferences.
type CreateGameRequest struct {
	FEN         string `json:"fen"`
	EngineColor string `json:"engine_color"` // "white", "black", "none" or empty
	Difficulty  string `json:"difficulty"`   // "easy", "medium", "hard" or empty
}

// GameManager owns the games in play and drives the engine for them.
type GameManager struct {
	games map[string]*Game
	mu    sync.RWMutex

	engine *engine.Engine
	store  *storage.Storage // nil keeps games in memory only

	prefsMu sync.Mutex
	prefs   *storage.UserPreferences
}

// NewGameManager creates a manager. store may be nil.
func NewGameManager(eng *engine.Engine, store *storage.Storage) (*GameManager, error) {
	prefs := storage.DefaultPreferences()
	if store != nil {
		var err error
		if prefs, err = store.LoadPreferences(); err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
	}
	return &GameManager{
		games:  make(map[string]*Game),
		engine: eng,
		store:  store,
		prefs:  prefs,
	}, nil
}

// Close cancels every engine search.
func (gm *GameManager) Close() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	for _, g := range gm.games {
		g.mu.Lock()
		if g.job != nil {
			g.job.Cancel()
			g.job = nil
		}
		g.mu.Unlock()
	}
}

// CreateGame starts a new game and returns its state. If the engine moves
// first its search starts immediately.
func (gm *GameManager) CreateGame(req CreateGameRequest) (GameState, error) {
	prefs := gm.Preferences()

	pos := board.NewPosition()
	if req.FEN != "" {
		var err error
		if pos, err = board.ParseFEN(req.FEN); err != nil {
			return GameState{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
	}

	engineColor := prefs.PlayerColor.Other()
	g := &Game{
		ID:          uuid.New().String(),
		pos:         pos,
		engineColor: &engineColor,
		difficulty:  prefs.Difficulty,
		createdAt:   time.Now(),
		conns:       make(map[*websocket.Conn]struct{}),
	}
	switch req.EngineColor {
	case "":
	case "white":
		g.engineColor = colorPtr(board.White)
	case "black":
		g.engineColor = colorPtr(board.Black)
	case "none":
		g.engineColor = nil
	default:
		return GameState{}, fmt.Errorf("%w: engine_color %q", ErrBadRequest, req.EngineColor)
	}
	if req.Difficulty != "" {
		d, err := engine.ParseDifficulty(req.Difficulty)
		if err != nil {
			return GameState{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		g.difficulty = d
	}

	gm.mu.Lock()
	gm.games[g.ID] = g
	gm.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	gm.persist(g)
	gm.startEngine(g)
	log.Printf("game %s: created (engine %v, %s)", g.ID, describeEngine(g), g.difficulty)
	return g.state(), nil
}

func colorPtr(c board.Color) *board.Color {
	return &c
}

func describeEngine(g *Game) string {
	if g.engineColor == nil {
		return "off"
	}
	return colorName(*g.engineColor)
}

// game returns the game with the given ID, loading it from storage if it is
// not in memory.
func (gm *GameManager) game(id string) (*Game, error) {
	gm.mu.RLock()
	g, ok := gm.games[id]
	gm.mu.RUnlock()
	if ok {
		return g, nil
	}
	if gm.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	saved, err := gm.store.LoadGame(id)
	if err != nil {
		return nil, err
	}
	pos, err := saved.LoadPosition()
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if g, ok := gm.games[id]; ok {
		return g, nil
	}
	g = &Game{
		ID:          saved.ID,
		pos:         pos,
		engineColor: saved.EngineColor,
		difficulty:  saved.Difficulty,
		createdAt:   saved.CreatedAt,
		recorded:    saved.Recorded,
		conns:       make(map[*websocket.Conn]struct{}),
	}
	gm.games[id] = g

	g.mu.Lock()
	gm.startEngine(g)
	g.mu.Unlock()
	log.Printf("game %s: loaded from storage", id)
	return g, nil
}

// State returns the current state of a game, applying a finished engine
// search first.
func (gm *GameManager) State(id string) (GameState, error) {
	g, err := gm.game(id)
	if err != nil {
		return GameState{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if gm.pollEngine(g) {
		gm.afterMove(g)
	}
	return g.state(), nil
}

// LegalMovesFrom lists the legal moves of the piece on from.
func (gm *GameManager) LegalMovesFrom(id, from string) ([]MoveView, error) {
	g, err := gm.game(id)
	if err != nil {
		return nil, err
	}
	sq, err := board.ParseSquare(from)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	views := []MoveView{}
	for _, m := range g.pos.LegalMovesFrom(sq) {
		views = append(views, newMoveView(m))
	}
	return views, nil
}

// MakeMove applies a human move given in UCI notation ("e2e4", "e7e8n").
// A promotion without a piece letter promotes to a queen.
func (gm *GameManager) MakeMove(id, uci string) (GameState, error) {
	g, err := gm.game(id)
	if err != nil {
		return GameState{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if gm.pollEngine(g) {
		gm.afterMove(g)
	}
	switch {
	case g.job != nil:
		return GameState{}, ErrEngineThinking
	case g.pos.GameOver():
		return GameState{}, ErrGameOver
	case g.engineToMove():
		return GameState{}, ErrEngineTurn
	}

	m, err := g.pos.ParseMove(uci)
	if err != nil {
		if errors.Is(err, board.ErrIllegalMove) {
			return GameState{}, err
		}
		return GameState{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := g.pos.MakeMove(m, board.PromoteTo(m.Promotion)); err != nil {
		return GameState{}, err
	}
	gm.afterMove(g)
	gm.startEngine(g)
	return g.state(), nil
}

// Undo takes back the last turn. A running engine search is cancelled. In a
// game against the engine, plies are undone until it is the human's turn
// again: normally the engine's reply and the human move before it.
func (gm *GameManager) Undo(id string) (GameState, error) {
	g, err := gm.game(id)
	if err != nil {
		return GameState{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.job != nil {
		g.job.Cancel()
		g.job = nil
	}
	if g.pos.UndoMove() {
		for g.engineColor != nil && g.pos.SideToMove == *g.engineColor && g.pos.UndoMove() {
		}
	}
	gm.persist(g)
	gm.startEngine(g)
	g.broadcast()
	return g.state(), nil
}

// PGN exports a game.
func (gm *GameManager) PGN(id string) (string, error) {
	g, err := gm.game(id)
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	prefs := gm.Preferences()
	tags := map[string]string{
		"White": prefs.Username,
		"Black": prefs.Username,
		"Date":  g.createdAt.Format("2006.01.02"),
	}
	if g.engineColor != nil {
		tags[g.engineColor.String()] = "Rayfish (" + g.difficulty.String() + ")"
	}
	return pgn.Export(g.pos, tags)
}

// DeleteGame cancels any search and forgets the game.
func (gm *GameManager) DeleteGame(id string) error {
	g, err := gm.game(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	if g.job != nil {
		g.job.Cancel()
		g.job = nil
	}
	for conn := range g.conns {
		conn.Close()
	}
	g.mu.Unlock()

	gm.mu.Lock()
	delete(gm.games, id)
	gm.mu.Unlock()

	if gm.store != nil {
		return gm.store.DeleteGame(id)
	}
	return nil
}

// ListGames summarizes the stored games, or the in-memory ones without storage.
func (gm *GameManager) ListGames() ([]storage.GameSummary, error) {
	if gm.store != nil {
		return gm.store.ListGames()
	}

	gm.mu.RLock()
	games := make([]*Game, 0, len(gm.games))
	for _, g := range gm.games {
		games = append(games, g)
	}
	gm.mu.RUnlock()

	summaries := make([]storage.GameSummary, 0, len(games))
	for _, g := range games {
		g.mu.Lock()
		summaries = append(summaries, storage.GameSummary{
			ID:        g.ID,
			FEN:       g.pos.ToFEN(),
			Plies:     g.pos.Ply(),
			UpdatedAt: g.createdAt,
		})
		g.mu.Unlock()
	}
	return summaries, nil
}

// Preferences returns a copy of the user preferences.
func (gm *GameManager) Preferences() storage.UserPreferences {
	gm.prefsMu.Lock()
	defer gm.prefsMu.Unlock()
	return *gm.prefs
}

// SetPreferences replaces the user preferences.
func (gm *GameManager) SetPreferences(prefs storage.UserPreferences) error {
	if prefs.PlayerColor != board.White && prefs.PlayerColor != board.Black {
		return fmt.Errorf("%w: player_color %d", ErrBadRequest, prefs.PlayerColor)
	}
	if _, ok := engine.DifficultySettings[prefs.Difficulty]; !ok {
		return fmt.Errorf("%w: difficulty %d", ErrBadRequest, prefs.Difficulty)
	}

	gm.prefsMu.Lock()
	defer gm.prefsMu.Unlock()
	if gm.store != nil {
		if err := gm.store.SavePreferences(&prefs); err != nil {
			return err
		}
	}
	gm.prefs = &prefs
	return nil
}

// Stats returns the recorded results against the engine.
func (gm *GameManager) Stats() (*storage.GameStats, error) {
	if gm.store == nil {
		return storage.NewGameStats(), nil
	}
	return gm.store.LoadStats()
}

// startEngine launches a search when the engine is to move. Caller holds g.mu.
func (gm *GameManager) startEngine(g *Game) {
	if g.job != nil || !g.engineToMove() {
		return
	}
	job := gm.engine.Go(g.pos, g.difficulty.Limits())
	g.job = job
	go gm.awaitEngine(g, job)
}

// awaitEngine applies the engine's move once its search completes.
func (gm *GameManager) awaitEngine(g *Game, job *engine.Job) {
	if _, err := job.Wait(context.Background()); err != nil {
		return // cancelled by undo or delete
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.job == job && gm.pollEngine(g) {
		gm.afterMove(g)
	}
}

// pollEngine applies the result of a finished search, if any. Caller holds g.mu.
func (gm *GameManager) pollEngine(g *Game) bool {
	if g.job == nil {
		return false
	}
	result, ok := g.job.Poll()
	if !ok {
		return false
	}
	g.job = nil
	if result.Move.IsNull() {
		return false
	}
	if err := g.pos.MakeMove(result.Move, board.PromoteTo(result.Move.Promotion)); err != nil {
		log.Printf("game %s: engine move rejected: %v", g.ID, err)
		return false
	}
	log.Printf("game %s: engine played %s (depth %d, score %s, %d nodes)",
		g.ID, result.Move, result.Depth, engine.ScoreToString(result.Score), result.Nodes)
	return true
}

// afterMove records a finished result, persists the game and notifies
// clients. Caller holds g.mu.
func (gm *GameManager) afterMove(g *Game) {
	if g.pos.GameOver() {
		gm.recordResult(g)
	}
	gm.persist(g)
	g.broadcast()
}

// persist saves the game if storage is configured. Caller holds g.mu.
func (gm *GameManager) persist(g *Game) {
	if gm.store == nil {
		return
	}
	if err := gm.store.SaveGame(g.saved()); err != nil {
		log.Printf("game %s: %v", g.ID, err)
	}
}

// recordResult adds a finished game against the engine to the statistics.
func (gm *GameManager) recordResult(g *Game) {
	status := g.pos.Status()
	log.Printf("game %s: %s", g.ID, status)
	if gm.store == nil || g.engineColor == nil || g.recorded {
		return
	}
	result := storage.GameResult{
		Draw:       status.IsDraw(),
		Won:        status == board.Checkmate && g.pos.SideToMove == *g.engineColor,
		Difficulty: g.difficulty,
	}
	if err := gm.store.RecordGame(result); err != nil {
		log.Printf("game %s: record result: %v", g.ID, err)
		return
	}
	g.recorded = true
}
