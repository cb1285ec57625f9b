package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	ActionGameState = "game:state"
	ActionGameOver  = "game:over"
)

type botService interface {
	ChooseCell(board entity.Board, mark entity.Mark) (int, error)
}

type publisher interface {
	Publish(ctx context.Context, action string, session entity.Session)
}

// GameManager drives one session. Every state change runs on the goroutine started by Run,
// so the session has a single writer.
type GameManager struct {
	logger    *slog.Logger
	bot       botService
	publisher publisher
	botDelay  time.Duration

	session entity.Session

	commands chan func(ctx context.Context)
	botTurns chan uint64
	done     chan struct{}

	botTimer      *time.Timer
	botGeneration uint64
}

func NewGameManager(logger *slog.Logger, sessionID string, bot botService, publisher publisher, botDelay time.Duration) *GameManager {
	return &GameManager{
		logger:    logger.With("component", "game_manager", "session", sessionID),
		bot:       bot,
		publisher: publisher,
		botDelay:  botDelay,

		session: entity.NewSession(sessionID),

		commands: make(chan func(ctx context.Context)),
		botTurns: make(chan uint64),
		done:     make(chan struct{}),
	}
}

// Run processes commands and computer turns until ctx is canceled.
func (that *GameManager) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer func() {
		that.cancelBotTurn()
		close(that.done)
		log.Debug("game manager stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case command := <-that.commands:
			command(ctx)
		case generation := <-that.botTurns:
			that.playBotTurn(ctx, generation)
		}
	}
}

// MakeTurn plays cell for the side to move. The computer's turns are not accepted here.
func (that *GameManager) MakeTurn(ctx context.Context, cell int) (entity.Session, error) {
	return that.do(ctx, func(ctx context.Context) error {
		if that.session.IsComputerTurn() {
			return apperror.ErrNotYourTurn
		}

		if err := tictactoe.ValidateMove(that.session, cell); err != nil {
			return fmt.Errorf("failed to make turn: %w", err)
		}

		next, _ := tictactoe.ApplyMove(that.session, cell)
		that.commit(ctx, next)

		return nil
	})
}

func (that *GameManager) ResetGame(ctx context.Context) (entity.Session, error) {
	return that.do(ctx, func(ctx context.Context) error {
		that.cancelBotTurn()
		that.commit(ctx, tictactoe.ResetGame(that.session))

		return nil
	})
}

func (that *GameManager) StartNewGame(ctx context.Context, mode entity.Mode, nameX, nameO string) (entity.Session, error) {
	return that.do(ctx, func(ctx context.Context) error {
		next, err := tictactoe.StartNewGame(that.session, mode, nameX, nameO)
		if err != nil {
			return fmt.Errorf("failed to start new game: %w", err)
		}

		that.cancelBotTurn()
		that.commit(ctx, next)

		return nil
	})
}

func (that *GameManager) SetPlayerName(ctx context.Context, side entity.Mark, name string) (entity.Session, error) {
	return that.do(ctx, func(ctx context.Context) error {
		next, err := tictactoe.SetPlayerName(that.session, side, name)
		if err != nil {
			return fmt.Errorf("failed to set player name: %w", err)
		}

		that.commit(ctx, next)

		return nil
	})
}

func (that *GameManager) SetPlayerType(ctx context.Context, side entity.Mark, role entity.Role) (entity.Session, error) {
	return that.do(ctx, func(ctx context.Context) error {
		next, err := tictactoe.SetPlayerType(that.session, side, role)
		if err != nil {
			return fmt.Errorf("failed to set player type: %w", err)
		}

		that.cancelBotTurn()
		that.commit(ctx, next)

		return nil
	})
}

// State returns a snapshot of the session.
func (that *GameManager) State(ctx context.Context) (entity.Session, error) {
	return that.do(ctx, func(context.Context) error { return nil })
}

// do runs fn on the Run goroutine and returns the session as fn left it.
func (that *GameManager) do(ctx context.Context, fn func(ctx context.Context) error) (entity.Session, error) {
	type result struct {
		session entity.Session
		err     error
	}

	reply := make(chan result, 1)
	command := func(ctx context.Context) {
		err := fn(ctx)
		reply <- result{session: that.session, err: err}
	}

	select {
	case that.commands <- command:
	case <-that.done:
		return entity.Session{}, apperror.ErrSessionClosed
	case <-ctx.Done():
		return entity.Session{}, ctx.Err()
	}

	res := <-reply

	return res.session, res.err
}

// commit stores next and handles what follows a state change: events and the computer's turn.
func (that *GameManager) commit(ctx context.Context, next entity.Session) {
	log := that.logger.With("method", "commit")

	finishedBefore := that.session.IsFinished()
	that.session = next

	that.publisher.Publish(ctx, ActionGameState, next)

	if next.IsFinished() && !finishedBefore {
		log.Info("game over", "status", next.Status, "winner", next.Winner)
		that.publisher.Publish(ctx, ActionGameOver, next)
	}

	if next.IsComputerTurn() {
		that.scheduleBotTurn()
	}
}

func (that *GameManager) scheduleBotTurn() {
	if that.botTimer != nil {
		return
	}

	generation := that.botGeneration
	that.botTimer = time.AfterFunc(that.botDelay, func() {
		select {
		case that.botTurns <- generation:
		case <-that.done:
		}
	})
}

// cancelBotTurn stops a pending computer turn. A timer that already fired is dropped by its generation.
func (that *GameManager) cancelBotTurn() {
	if that.botTimer != nil {
		that.botTimer.Stop()
		that.botTimer = nil
	}

	that.botGeneration++
}

func (that *GameManager) playBotTurn(ctx context.Context, generation uint64) {
	log := that.logger.With("method", "playBotTurn")

	if generation != that.botGeneration {
		log.Debug("stale computer turn ignored", "generation", generation)
		return
	}

	that.botTimer = nil

	if !that.session.IsComputerTurn() {
		return
	}

	cell, err := that.bot.ChooseCell(that.session.Board, that.session.Turn)
	if err != nil {
		log.Error("bot failed to choose cell", "error", err)
		return
	}

	next, ok := tictactoe.ApplyMove(that.session, cell)
	if !ok {
		log.Error("bot chose an illegal cell", "cell", cell)
		return
	}

	log.Debug("computer played", "cell", cell, "mark", that.session.Turn)
	that.commit(ctx, next)
}
