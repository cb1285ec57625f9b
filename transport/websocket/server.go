package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-engine/transport/rest"
)

const maxMessageSize = 4096

type gameManager interface {
	MakeTurn(ctx context.Context, cell int) (entity.Session, error)
	ResetGame(ctx context.Context) (entity.Session, error)
	StartNewGame(ctx context.Context, mode entity.Mode, nameX, nameO string) (entity.Session, error)
	SetPlayerName(ctx context.Context, side entity.Mark, name string) (entity.Session, error)
	SetPlayerType(ctx context.Context, side entity.Mark, role entity.Role) (entity.Session, error)
	State(ctx context.Context) (entity.Session, error)
}

type botService interface {
	ChooseCell(board entity.Board, mark entity.Mark) (int, error)
}

type chatService interface {
	Open(ctx context.Context, sessionID string) (*entity.ChatMessage, error)
	Send(ctx context.Context, sessionID, content string, deliver func(*entity.ChatMessage)) (*entity.ChatMessage, error)
	History(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	Close(ctx context.Context, sessionID string)
}

type originChecker interface {
	OriginAllowed(r *http.Request) bool
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

type Server struct {
	logger   *slog.Logger
	bot      botService
	chat     chatService
	botDelay time.Duration
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, bot botService, chat chatService, botDelay time.Duration, origins originChecker) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		bot:      bot,
		chat:     chat,
		botDelay: botDelay,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// non-browser clients send no Origin
				return r.Header.Get("Origin") == "" || origins.OriginAllowed(r)
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers["game:new"] = server.handleNewGame
	server.handlers["game:reset"] = server.handleResetGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:state"] = server.handleGameState
	server.handlers["player:name"] = server.handlePlayerName
	server.handlers["player:type"] = server.handlePlayerType
	server.handlers["chat:send"] = server.handleChatSend
	server.handlers["chat:history"] = server.handleChatHistory

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.HandleWebSocket)

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	return rest.Serve(ctx, srv)
}

// HandleWebSocket upgrades the request and plays one session over the connection.
func (that *Server) HandleWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "HandleWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	// unblock the read loop on server shutdown
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sessionID := uuid.NewString()
	log = log.With("session", sessionID)

	cl := &client{server: that, conn: conn, sessionID: sessionID}

	game := usecase.NewGameManager(that.logger, sessionID, that.bot, cl, that.botDelay)
	cl.game = game

	go game.Run(ctx)
	defer that.chat.Close(context.WithoutCancel(ctx), sessionID)

	if err = that.handleConnect(ctx, cl); err != nil {
		log.Error("failed to connect", "error", err)
		return
	}

	log.Info("WebSocket connection established")

	that.handleMessages(ctx, cl)

	log.Info("WebSocket connection closed")
}

// handleMessages - processes messages from the client until the connection drops.
func (that *Server) handleMessages(ctx context.Context, cl *client) {
	log := that.logger.With("method", "handleMessages", "session", cl.sessionID)

	for {
		var message Message
		if err := cl.conn.ReadJSON(&message); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			// ReadJSON reports a truncated frame as io.ErrUnexpectedEOF
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				log.Warn("failed to unmarshal message", "error", err)
				if err = cl.sendErrorResponse("decode", err); err != nil {
					return
				}
				continue
			}

			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("error reading message", "error", err)
			}
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err := cl.sendErrorResponse(message.Action, errUnknownAction); err != nil {
				return
			}
			continue
		}

		if err := handler(ctx, cl, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
