package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hailam/rayfish/internal/board"
	"github.com/hailam/rayfish/internal/storage"
)

// moveRequest accepts either a UCI move or its parts.
type moveRequest struct {
	Move      string `json:"move"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (r moveRequest) uci() string {
	if r.Move != "" {
		return r.Move
	}
	return r.From + r.To + r.Promotion
}

// fail writes err as a JSON error with the matching status code.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrGameNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, board.ErrIllegalMove):
		status = fiber.StatusBadRequest
	case errors.Is(err, ErrEngineThinking), errors.Is(err, ErrEngineTurn), errors.Is(err, ErrGameOver):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gm *GameManager) handleCreateGame(c *fiber.Ctx) error {
	var req CreateGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, errors.Join(ErrBadRequest, err))
		}
	}
	st, err := gm.CreateGame(req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (gm *GameManager) handleGetGame(c *fiber.Ctx) error {
	st, err := gm.State(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (gm *GameManager) handleLegalMoves(c *fiber.Ctx) error {
	from := c.Query("from")
	if from == "" {
		st, err := gm.State(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st.LegalMoves)
	}
	moves, err := gm.LegalMovesFrom(c.Params("id"), from)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(moves)
}

func (gm *GameManager) handleMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, errors.Join(ErrBadRequest, err))
	}
	st, err := gm.MakeMove(c.Params("id"), req.uci())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (gm *GameManager) handleUndo(c *fiber.Ctx) error {
	st, err := gm.Undo(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (gm *GameManager) handlePGN(c *fiber.Ctx) error {
	text, err := gm.PGN(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
	return c.SendString(text)
}

func (gm *GameManager) handleDeleteGame(c *fiber.Ctx) error {
	if err := gm.DeleteGame(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (gm *GameManager) handleListGames(c *fiber.Ctx) error {
	games, err := gm.ListGames()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(games)
}

func (gm *GameManager) handleGetPreferences(c *fiber.Ctx) error {
	return c.JSON(gm.Preferences())
}

func (gm *GameManager) handlePutPreferences(c *fiber.Ctx) error {
	prefs := gm.Preferences()
	if err := c.BodyParser(&prefs); err != nil {
		return fail(c, errors.Join(ErrBadRequest, err))
	}
	if err := gm.SetPreferences(prefs); err != nil {
		return fail(c, err)
	}
	return c.JSON(prefs)
}

type statsResponse struct {
	*storage.GameStats
	WinRate float64 `json:"win_rate"`
}

func (gm *GameManager) handleStats(c *fiber.Ctx) error {
	stats, err := gm.Stats()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(statsResponse{GameStats: stats, WinRate: stats.GetWinRate()})
}
