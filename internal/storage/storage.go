package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/rayfish/internal/board"
	"github.com/hailam/rayfish/internal/engine"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	gamePrefix     = "game/"
)

// ErrGameNotFound is returned when no game is stored under an ID.
var ErrGameNotFound = errors.New("game not found")

// UserPreferences stores user settings
type UserPreferences struct {
	Username    string            `json:"username"`
	Difficulty  engine.Difficulty `json:"difficulty"`
	PlayerColor board.Color       `json:"player_color"`
	LastPlayed  time.Time         `json:"last_played"`
}

// DefaultPreferences returns default user preferences
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Username:    "Player",
		Difficulty:  engine.Medium,
		PlayerColor: board.White,
		LastPlayed:  time.Now(),
	}
}

// GameStats stores results of finished games against the engine.
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		WinsByDiff: make(map[string]int),
	}
}

// GameResult represents the result of a completed game
type GameResult struct {
	Won        bool
	Draw       bool
	Difficulty engine.Difficulty
}

// SavedGame is a game as persisted: the full position, logs included, plus
// the settings it is played with.
type SavedGame struct {
	ID          string            `json:"id"`
	Position    board.Snapshot    `json:"position"`
	EngineColor *board.Color      `json:"engine_color,omitempty"` // nil when both sides are human
	Difficulty  engine.Difficulty `json:"difficulty"`
	Recorded    bool              `json:"recorded,omitempty"` // result already counted in GameStats
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// GameSummary is the listing form of a stored game.
type GameSummary struct {
	ID        string    `json:"id"`
	FEN       string    `json:"fen"`
	Plies     int       `json:"plies"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Storage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// put marshals v as JSON under key.
func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get unmarshals the value under key into v. It returns badger.ErrKeyNotFound
// if the key is absent.
func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SavePreferences saves user preferences
func (s *Storage) SavePreferences(prefs *UserPreferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*UserPreferences, error) {
	prefs := DefaultPreferences()
	err := s.get(keyPreferences, prefs)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return prefs, nil // Use defaults
	}
	return prefs, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.put(keyStats, stats)
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()
	err := s.get(keyStats, stats)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return stats, nil // Use empty stats
	}
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++

	if result.Draw {
		stats.Draws++
		stats.CurrentStreak = 0
	} else if result.Won {
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsByDiff[result.Difficulty.String()]++
	} else {
		stats.Losses++
		stats.CurrentStreak = 0
	}

	return s.SaveStats(stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// SaveGame stores g under its ID, replacing any earlier version.
func (s *Storage) SaveGame(g *SavedGame) error {
	if g.ID == "" {
		return errors.New("save game: empty id")
	}
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if err := s.put(gamePrefix+g.ID, g); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// LoadGame returns the game stored under id.
func (s *Storage) LoadGame(id string) (*SavedGame, error) {
	var g SavedGame
	err := s.get(gamePrefix+id, &g)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return &g, nil
}

// LoadPosition restores the position of a stored game, logs included.
func (g *SavedGame) LoadPosition() (*board.Position, error) {
	pos, err := board.FromSnapshot(g.Position)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", g.ID, err)
	}
	return pos, nil
}

// DeleteGame removes the game stored under id.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(gamePrefix + id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrGameNotFound, id)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// ListGames returns a summary of every stored game, most recently updated first.
func (s *Storage) ListGames() ([]GameSummary, error) {
	var games []GameSummary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var g SavedGame
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &g)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			games = append(games, GameSummary{
				ID:        g.ID,
				FEN:       g.Position.FEN,
				Plies:     len(g.Position.History),
				UpdatedAt: g.UpdatedAt,
			})
		}
		return nil
	})
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].UpdatedAt.After(games[j].UpdatedAt)
	})
	return games, err
}
