package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var (
	errUnknownAction   = errors.New("unknown action")
	errCellIsRequired  = errors.New("cell is required")
	errPayloadRequired = errors.New("payload is required")
)

// handleConnect sends the new session and its chat greeting.
func (that *Server) handleConnect(ctx context.Context, cl *client) error {
	game, err := cl.game.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to get game state: %w", err)
	}

	welcome, err := that.chat.Open(ctx, cl.sessionID)
	if err != nil {
		return fmt.Errorf("failed to open chat: %w", err)
	}

	payload := ResponsePayload{
		SessionID: cl.sessionID,
		Game:      &game,
		Messages:  []*entity.ChatMessage{welcome},
	}

	if err = cl.sendMessage(actionSession, payload); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, cl *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	if _, err = cl.game.StartNewGame(ctx, payload.Mode, payload.PlayerX, payload.PlayerO); err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	that.logger.Info("new game started", "session", cl.sessionID, "mode", payload.Mode)

	return nil
}

func (that *Server) handleResetGame(ctx context.Context, cl *client, msg *Message) error {
	if _, err := cl.game.ResetGame(ctx); err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, cl *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	if payload.Cell == nil {
		return cl.sendErrorResponse(msg.Action, errCellIsRequired)
	}

	if _, err = cl.game.MakeTurn(ctx, *payload.Cell); err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return nil
}

func (that *Server) handleGameState(ctx context.Context, cl *client, msg *Message) error {
	game, err := cl.game.State(ctx)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return cl.sendMessage(msg.Action, ResponsePayload{Game: &game})
}

func (that *Server) handlePlayerName(ctx context.Context, cl *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	if _, err = cl.game.SetPlayerName(ctx, payload.Side, payload.Name); err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return nil
}

func (that *Server) handlePlayerType(ctx context.Context, cl *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	if _, err = cl.game.SetPlayerType(ctx, payload.Side, payload.Role); err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return nil
}

func (that *Server) handleChatSend(ctx context.Context, cl *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	message, err := that.chat.Send(ctx, cl.sessionID, payload.Content, cl.deliverChat)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return cl.sendMessage(actionChatMessage, ResponsePayload{Message: message})
}

func (that *Server) handleChatHistory(ctx context.Context, cl *client, msg *Message) error {
	messages, err := that.chat.History(ctx, cl.sessionID)
	if err != nil {
		return cl.sendErrorResponse(msg.Action, err)
	}

	return cl.sendMessage(msg.Action, ResponsePayload{Messages: messages})
}

func decodePayload(msg *Message) (*Payload, error) {
	if len(msg.Payload) == 0 {
		return nil, errPayloadRequired
	}

	var payload Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}
