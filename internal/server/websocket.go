package server

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/websocket/v2"
)

// MessageType names a websocket message.
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeUndo      MessageType = "undo"
	MessageTypeState     MessageType = "state"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeError     MessageType = "error"
)

// Message is the envelope for every websocket frame in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload carries a move in UCI notation.
type MovePayload struct {
	Move string `json:"move"`
}

func newMessage(t MessageType, v any) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: payload}, nil
}

// HandleConnection serves one client of a game until it disconnects. The
// client receives the current state on connect and after every change.
func (gm *GameManager) HandleConnection(c *websocket.Conn) {
	id := c.Params("id")
	g, err := gm.game(id)
	if err != nil {
		log.Printf("ws: %v", err)
		writeError(c, err)
		c.Close()
		return
	}

	g.mu.Lock()
	g.conns[c] = struct{}{}
	msg, err := newMessage(MessageTypeGameState, g.state())
	if err == nil {
		err = c.WriteJSON(msg)
	}
	g.mu.Unlock()
	if err != nil {
		log.Printf("game %s: ws write: %v", id, err)
	}

	defer func() {
		g.mu.Lock()
		delete(g.conns, c)
		g.mu.Unlock()
		c.Close()
	}()

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("game %s: ws read: %v", id, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			gm.replyError(g, c, fmt.Errorf("%w: %v", ErrBadRequest, err))
			continue
		}
		if err := gm.handleMessage(g, c, msg); err != nil {
			gm.replyError(g, c, err)
		}
	}
}

func (gm *GameManager) handleMessage(g *Game, c *websocket.Conn, msg Message) error {
	switch msg.Type {
	case MessageTypeMove:
		var mv MovePayload
		if err := json.Unmarshal(msg.Payload, &mv); err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		_, err := gm.MakeMove(g.ID, mv.Move)
		return err
	case MessageTypeUndo:
		_, err := gm.Undo(g.ID)
		return err
	case MessageTypeState:
		st, err := gm.State(g.ID)
		if err != nil {
			return err
		}
		reply, err := newMessage(MessageTypeGameState, st)
		if err != nil {
			return err
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		return c.WriteJSON(reply)
	default:
		return fmt.Errorf("%w: unknown message type %q", ErrBadRequest, msg.Type)
	}
}

// replyError sends err to one client; writes share g.mu with broadcasts.
func (gm *GameManager) replyError(g *Game, c *websocket.Conn, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	writeError(c, err)
}

func writeError(c *websocket.Conn, err error) {
	msg, _ := newMessage(MessageTypeError, map[string]string{"error": err.Error()})
	if werr := c.WriteJSON(msg); werr != nil {
		log.Printf("ws: write error reply: %v", werr)
	}
}
