// Package server exposes games against the engine over HTTP and websockets.
package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/hailam/rayfish/internal/engine"
	"github.com/hailam/rayfish/internal/storage"
)

// Config configures the server.
type Config struct {
	Store   *storage.Storage // nil keeps games in memory only
	HashMB  int              // transposition table size per engine search
	Origins []string         // allowed CORS and websocket origins, all if empty
	Logging bool             // log every request
}

// New builds the application and its game manager. Callers should Close the
// manager on shutdown.
func New(cfg Config) (*fiber.App, *GameManager, error) {
	if cfg.HashMB <= 0 {
		cfg.HashMB = 16
	}
	gm, err := NewGameManager(engine.NewEngine(cfg.HashMB), cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		AppName: "rayfish",
	})
	app.Use(recover.New())
	if cfg.Logging {
		app.Use(logger.New())
	}

	origins := "*"
	if len(cfg.Origins) > 0 {
		origins = strings.Join(cfg.Origins, ", ")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	api := app.Group("/api")
	api.Post("/game", gm.handleCreateGame)
	api.Get("/game/:id", gm.handleGetGame)
	api.Get("/game/:id/moves", gm.handleLegalMoves)
	api.Post("/game/:id/move", gm.handleMove)
	api.Post("/game/:id/undo", gm.handleUndo)
	api.Get("/game/:id/pgn", gm.handlePGN)
	api.Delete("/game/:id", gm.handleDeleteGame)
	api.Get("/games", gm.handleListGames)
	api.Get("/preferences", gm.handleGetPreferences)
	api.Put("/preferences", gm.handlePutPreferences)
	api.Get("/stats", gm.handleStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/game/:id", websocket.New(gm.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.Origins,
	}))

	return app, gm, nil
}
