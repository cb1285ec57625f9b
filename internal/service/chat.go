package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const welcomeMessage = "Welcome to the chat!"

var simulatedResponses = []string{
	"Good move!",
	"I see what you're doing there.",
	"Hmm, interesting strategy.",
	"Let me think about my next move...",
	"You're pretty good at this game!",
	"I didn't see that coming.",
	"Nice try!",
	"I'm going to win this round.",
	"Let's play again after this.",
	"This is fun!",
}

type ChatService interface {
	Open(ctx context.Context, sessionID string) (*entity.ChatMessage, error)
	Send(ctx context.Context, sessionID, content string, deliver func(*entity.ChatMessage)) (*entity.ChatMessage, error)
	History(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	Close(ctx context.Context, sessionID string)
}

type chatRepo interface {
	Append(ctx context.Context, sessionID string, message *entity.ChatMessage) error
	List(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

type ChatOptions struct {
	ReplyMinDelay time.Duration
	ReplyMaxDelay time.Duration
	Rand          *rand.Rand
}

type chatService struct {
	logger   *slog.Logger
	chatRepo chatRepo

	minDelay time.Duration
	maxDelay time.Duration

	mu       sync.Mutex
	rnd      *rand.Rand
	sessions map[string]*chatSession
}

// chatSession tracks the replies still due for one session.
// Fields are guarded by chatService.mu; deliverMu serialises a reply's store-and-deliver with Close.
type chatSession struct {
	deliverMu sync.Mutex
	closed    bool
	pending   map[string]*time.Timer
}

func NewChatService(logger *slog.Logger, chatRepo chatRepo, opts ChatOptions) ChatService {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return &chatService{
		logger:   logger.With("component", "chat"),
		chatRepo: chatRepo,
		minDelay: opts.ReplyMinDelay,
		maxDelay: opts.ReplyMaxDelay,
		rnd:      rnd,
		sessions: make(map[string]*chatSession),
	}
}

// Open starts the history of a session with the system greeting.
func (that *chatService) Open(ctx context.Context, sessionID string) (*entity.ChatMessage, error) {
	message := newChatMessage(entity.SenderSystem, welcomeMessage)

	if err := that.chatRepo.Append(ctx, sessionID, message); err != nil {
		return nil, fmt.Errorf("could not save welcome message: %w", err)
	}

	return message, nil
}

// Send stores the player's message and schedules a simulated reply, handed to deliver once stored.
func (that *chatService) Send(ctx context.Context, sessionID, content string, deliver func(*entity.ChatMessage)) (*entity.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ErrEmptyMessage
	}

	message := newChatMessage(entity.SenderYou, content)
	if err := that.chatRepo.Append(ctx, sessionID, message); err != nil {
		return nil, fmt.Errorf("could not save message: %w", err)
	}

	that.scheduleReply(context.WithoutCancel(ctx), sessionID, deliver)

	return message, nil
}

func (that *chatService) History(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	messages, err := that.chatRepo.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not get chat history: %w", err)
	}

	return messages, nil
}

// Close drops pending replies and the history of a session.
// A reply already being stored is waited for and never delivered.
func (that *chatService) Close(ctx context.Context, sessionID string) {
	log := that.logger.With("method", "Close", "session", sessionID)

	that.mu.Lock()
	session, ok := that.sessions[sessionID]
	if ok {
		session.closed = true
		for _, timer := range session.pending {
			timer.Stop()
		}
		session.pending = nil
		delete(that.sessions, sessionID)
	}
	that.mu.Unlock()

	if ok {
		// wait for an in-flight reply so the delete below comes after its append
		session.deliverMu.Lock()
		defer session.deliverMu.Unlock()
	}

	if err := that.chatRepo.DeleteBySessionID(ctx, sessionID); err != nil {
		log.Error("failed to delete chat history", "error", err)
	}
}

func (that *chatService) scheduleReply(ctx context.Context, sessionID string, deliver func(*entity.ChatMessage)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	replyID := uuid.NewString()
	content := simulatedResponses[that.rnd.Intn(len(simulatedResponses))]
	delay := that.minDelay
	if spread := that.maxDelay - that.minDelay; spread > 0 {
		delay += time.Duration(that.rnd.Int63n(int64(spread)))
	}

	session, ok := that.sessions[sessionID]
	if !ok {
		session = &chatSession{pending: make(map[string]*time.Timer)}
		that.sessions[sessionID] = session
	}

	session.pending[replyID] = time.AfterFunc(delay, func() {
		session.deliverMu.Lock()
		defer session.deliverMu.Unlock()
		defer that.forgetIdle(session, sessionID)

		if !that.takePending(session, replyID) {
			return
		}

		reply := newChatMessage(entity.SenderOpponent, content)
		reply.ID = replyID

		if err := that.chatRepo.Append(ctx, sessionID, reply); err != nil {
			that.logger.Error("failed to save simulated reply", "session", sessionID, "error", err)
			return
		}

		if deliver != nil && !that.isClosed(session) {
			deliver(reply)
		}
	})
}

// takePending reports whether the reply is still wanted and forgets it.
func (that *chatService) takePending(session *chatSession, replyID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if session.closed {
		return false
	}

	if _, ok := session.pending[replyID]; !ok {
		return false
	}

	delete(session.pending, replyID)

	return true
}

// forgetIdle drops the session entry once no reply is due or in flight.
func (that *chatService) forgetIdle(session *chatSession, sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(session.pending) == 0 && that.sessions[sessionID] == session {
		delete(that.sessions, sessionID)
	}
}

func (that *chatService) isClosed(session *chatSession) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return session.closed
}

func newChatMessage(sender, content string) *entity.ChatMessage {
	return &entity.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
