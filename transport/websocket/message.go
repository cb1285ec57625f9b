package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const writeTimeout = 10 * time.Second

const (
	actionSession     = "session"
	actionError       = "error"
	actionChatMessage = "chat:message"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is what clients send.
type Payload struct {
	Mode    entity.Mode `json:"mode,omitempty"`
	PlayerX string      `json:"player_x,omitempty"`
	PlayerO string      `json:"player_o,omitempty"`
	Cell    *int        `json:"cell,omitempty"`
	Side    entity.Mark `json:"side,omitempty"`
	Name    string      `json:"name,omitempty"`
	Role    entity.Role `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`
}

// ResponsePayload is what the server sends.
type ResponsePayload struct {
	SessionID string                `json:"session_id,omitempty"`
	Game      *entity.Session       `json:"game,omitempty"`
	Message   *entity.ChatMessage   `json:"message,omitempty"`
	Messages  []*entity.ChatMessage `json:"messages,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// client is one connection. gorilla allows a single concurrent writer, hence writeMu.
type client struct {
	server    *Server
	conn      *websocket.Conn
	sessionID string
	game      gameManager

	writeMu sync.Mutex
}

func (that *client) sendMessage(action string, payload ResponsePayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) sendErrorResponse(action string, err error) error {
	return that.sendMessage(actionError, ResponsePayload{Error: fmt.Sprintf("%s: %s", action, err)})
}

// Publish forwards game events from the session loop to the socket.
func (that *client) Publish(_ context.Context, action string, session entity.Session) {
	if err := that.sendMessage(action, ResponsePayload{Game: &session}); err != nil {
		that.server.logger.Debug("failed to publish game event", "session", that.sessionID, "action", action, "error", err)
	}
}

func (that *client) deliverChat(message *entity.ChatMessage) {
	if err := that.sendMessage(actionChatMessage, ResponsePayload{Message: message}); err != nil {
		that.server.logger.Debug("failed to deliver chat message", "session", that.sessionID, "error", err)
	}
}
