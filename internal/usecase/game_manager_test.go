package usecase

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type mockBot struct {
	mock.Mock
}

func (that *mockBot) ChooseCell(board entity.Board, mark entity.Mark) (int, error) {
	args := that.Called(board, mark)
	return args.Int(0), args.Error(1)
}

type event struct {
	action  string
	session entity.Session
}

type recordingPublisher struct {
	events chan event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(chan event, 256)}
}

func (that *recordingPublisher) Publish(_ context.Context, action string, session entity.Session) {
	that.events <- event{action: action, session: session}
}

func (that *recordingPublisher) waitFor(t *testing.T, match func(event) bool) event {
	t.Helper()

	timeout := time.After(waitTimeout)
	for {
		select {
		case ev := <-that.events:
			if match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("expected event was not published")
			return event{}
		}
	}
}

func (that *recordingPublisher) drain() []event {
	var events []event
	for {
		select {
		case ev := <-that.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runManager(t *testing.T, bot botService, delay time.Duration) (context.Context, *GameManager, *recordingPublisher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pub := newRecordingPublisher()
	manager := NewGameManager(discardLogger(), "session-1", bot, pub, delay)

	go manager.Run(ctx)

	return ctx, manager, pub
}

func TestGameManager_MakeTurn(t *testing.T) {
	t.Run("Human move is applied and published", func(t *testing.T) {
		// Given: an offline game
		ctx, manager, pub := runManager(t, &mockBot{}, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeOffline, "", "")
		require.NoError(t, err)

		// When: X plays the center
		session, err := manager.MakeTurn(ctx, 4)

		// Then: the move is applied, O is to move and the state is published
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, session.Board[4])
		assert.Equal(t, entity.PlayerO, session.Turn)

		ev := pub.waitFor(t, func(ev event) bool { return ev.session.Board[4] == entity.PlayerX })
		assert.Equal(t, ActionGameState, ev.action)
	})

	t.Run("Illegal move leaves the session unchanged", func(t *testing.T) {
		// Given: X already holds cell 0
		ctx, manager, pub := runManager(t, &mockBot{}, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeOffline, "", "")
		require.NoError(t, err)
		before, err := manager.MakeTurn(ctx, 0)
		require.NoError(t, err)
		pub.drain()

		// When: O tries the same cell
		after, err := manager.MakeTurn(ctx, 0)

		// Then: the move is rejected with ErrCellOccupied and nothing is published
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, after)
		assert.Empty(t, pub.drain())
	})

	t.Run("Move before start is rejected", func(t *testing.T) {
		ctx, manager, _ := runManager(t, &mockBot{}, 0)

		_, err := manager.MakeTurn(ctx, 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Game over is published once", func(t *testing.T) {
		// Given: an offline game
		ctx, manager, pub := runManager(t, &mockBot{}, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeOffline, "Alice", "Bob")
		require.NoError(t, err)

		// When: X wins on the top row
		var session entity.Session
		for _, cell := range []int{0, 3, 1, 4, 2} {
			session, err = manager.MakeTurn(ctx, cell)
			require.NoError(t, err)
		}

		// Then: the win is recorded and a single game over event follows
		assert.Equal(t, entity.StatusWon, session.Status)
		assert.Equal(t, 1, session.Players.X.Score)

		_, err = manager.MakeTurn(ctx, 5)
		require.ErrorIs(t, err, apperror.ErrGameFinished)

		overs := 0
		for _, ev := range pub.drain() {
			if ev.action == ActionGameOver {
				overs++
				assert.Equal(t, entity.PlayerX, ev.session.Winner)
			}
		}
		assert.Equal(t, 1, overs)
	})
}

func TestGameManager_ComputerTurn(t *testing.T) {
	t.Run("Computer answers after a human move", func(t *testing.T) {
		// Given: an ai game where the selector answers with the center
		bot := &mockBot{}
		bot.On("ChooseCell", mock.Anything, entity.PlayerO).Return(4, nil).Once()

		ctx, manager, pub := runManager(t, bot, 10*time.Millisecond)
		_, err := manager.StartNewGame(ctx, entity.ModeAI, "", "")
		require.NoError(t, err)

		// When: the human plays a corner
		_, err = manager.MakeTurn(ctx, 0)
		require.NoError(t, err)

		// Then: the computer's move is applied and X is to move again
		ev := pub.waitFor(t, func(ev event) bool { return ev.session.Board[4] == entity.PlayerO })
		assert.Equal(t, entity.PlayerX, ev.session.Turn)
		bot.AssertExpectations(t)
	})

	t.Run("Human cannot move for the computer", func(t *testing.T) {
		// Given: an ai game with a long delay so the computer has not moved yet
		bot := &mockBot{}
		bot.On("ChooseCell", mock.Anything, mock.Anything).Return(4, nil).Maybe()

		ctx, manager, _ := runManager(t, bot, time.Hour)
		_, err := manager.StartNewGame(ctx, entity.ModeAI, "", "")
		require.NoError(t, err)
		_, err = manager.MakeTurn(ctx, 0)
		require.NoError(t, err)

		// When: the client sends another move on the computer's turn
		_, err = manager.MakeTurn(ctx, 1)

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Reset cancels the pending computer move", func(t *testing.T) {
		// Given: an ai game where the computer is about to answer
		bot := &mockBot{}
		bot.On("ChooseCell", mock.Anything, mock.Anything).Return(4, nil).Maybe()

		ctx, manager, _ := runManager(t, bot, 100*time.Millisecond)
		_, err := manager.StartNewGame(ctx, entity.ModeAI, "", "")
		require.NoError(t, err)
		_, err = manager.MakeTurn(ctx, 0)
		require.NoError(t, err)

		// When: the game is reset before the delay passes
		_, err = manager.ResetGame(ctx)
		require.NoError(t, err)

		time.Sleep(300 * time.Millisecond)

		// Then: the computer never moved on the new board
		session, err := manager.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, session.Board)
		assert.Equal(t, entity.PlayerX, session.Turn)
		bot.AssertNotCalled(t, "ChooseCell", mock.Anything, mock.Anything)
	})

	t.Run("Computer playing X opens the game", func(t *testing.T) {
		// Given: an offline game
		bot := &mockBot{}
		bot.On("ChooseCell", entity.Board{}, entity.PlayerX).Return(8, nil).Once()

		ctx, manager, pub := runManager(t, bot, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeOffline, "", "")
		require.NoError(t, err)

		// When: X is handed to the computer
		_, err = manager.SetPlayerType(ctx, entity.PlayerX, entity.RoleComputer)
		require.NoError(t, err)

		// Then: the computer makes the first move
		ev := pub.waitFor(t, func(ev event) bool { return ev.session.Board[8] == entity.PlayerX })
		assert.Equal(t, entity.PlayerO, ev.session.Turn)
	})

	t.Run("Two computers play a game to the end", func(t *testing.T) {
		// Given: both sides are computers driven by the real selector
		bot := service.NewBotService(rand.New(rand.NewSource(7))) //nolint: gosec // deterministic tests

		ctx, manager, pub := runManager(t, bot, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeAI, "", "")
		require.NoError(t, err)

		// When: X is handed to the computer as well
		_, err = manager.SetPlayerType(ctx, entity.PlayerX, entity.RoleComputer)
		require.NoError(t, err)

		// Then: the game reaches a terminal status
		ev := pub.waitFor(t, func(ev event) bool { return ev.action == ActionGameOver })
		assert.True(t, ev.session.IsFinished())
	})
}

func TestGameManager_playBotTurn(t *testing.T) {
	// Given: a manager that is not running, with O (computer) to move
	bot := &mockBot{}
	pub := newRecordingPublisher()
	manager := NewGameManager(discardLogger(), "session-1", bot, pub, time.Hour)

	ctx := context.Background()
	manager.session.Status = entity.StatusOngoing
	manager.session.Players.O.Role = entity.RoleComputer
	manager.session.Board[0] = entity.PlayerX
	manager.session.Turn = entity.PlayerO
	manager.botGeneration = 2

	before := manager.session

	// When: a turn scheduled before the last reset fires
	manager.playBotTurn(ctx, 1)

	// Then: it is ignored
	assert.Equal(t, before, manager.session)
	bot.AssertNotCalled(t, "ChooseCell", mock.Anything, mock.Anything)

	// When: the current turn fires
	bot.On("ChooseCell", before.Board, entity.PlayerO).Return(4, nil).Once()
	manager.playBotTurn(ctx, 2)

	// Then: the computer's move is applied
	assert.Equal(t, entity.PlayerO, manager.session.Board[4])
	assert.Equal(t, entity.PlayerX, manager.session.Turn)
	bot.AssertExpectations(t)
}

func TestGameManager_StartNewGame(t *testing.T) {
	t.Run("Unknown mode is rejected", func(t *testing.T) {
		ctx, manager, _ := runManager(t, &mockBot{}, 0)

		session, err := manager.StartNewGame(ctx, "arcade", "", "")

		require.ErrorIs(t, err, apperror.ErrUnknownMode)
		assert.Equal(t, entity.StatusNotStarted, session.Status)
	})

	t.Run("Scores survive a new game", func(t *testing.T) {
		// Given: X has won a game
		ctx, manager, _ := runManager(t, &mockBot{}, 0)
		_, err := manager.StartNewGame(ctx, entity.ModeOffline, "", "")
		require.NoError(t, err)
		for _, cell := range []int{0, 3, 1, 4, 2} {
			_, err = manager.MakeTurn(ctx, cell)
			require.NoError(t, err)
		}

		// When: a new game is started in another mode
		session, err := manager.StartNewGame(ctx, entity.ModeOnline, "Alice", "")

		// Then: the score is kept and the roles follow the mode
		require.NoError(t, err)
		assert.Equal(t, 1, session.Players.X.Score)
		assert.Equal(t, entity.RoleRemote, session.Players.O.Role)
		assert.Equal(t, "Opponent", session.Players.O.Name)
		assert.Equal(t, entity.StatusOngoing, session.Status)
	})
}

func TestGameManager_SetPlayerName(t *testing.T) {
	ctx, manager, _ := runManager(t, &mockBot{}, 0)

	session, err := manager.SetPlayerName(ctx, entity.PlayerO, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", session.Players.O.Name)

	_, err = manager.SetPlayerName(ctx, "Z", "Bob")
	require.ErrorIs(t, err, apperror.ErrUnknownSide)
}

func TestGameManager_Closed(t *testing.T) {
	// Given: a manager whose loop has stopped
	ctx, cancel := context.WithCancel(context.Background())
	manager := NewGameManager(discardLogger(), "session-1", &mockBot{}, newRecordingPublisher(), 0)

	stopped := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	// When: a command is sent
	_, err := manager.State(context.Background())

	// Then: the session reports it is closed
	require.ErrorIs(t, err, apperror.ErrSessionClosed)
}
