package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

type Outcome string

const (
	OutcomeUndecided Outcome = "undecided"
	OutcomeWon       Outcome = "won"
	OutcomeDrawn     Outcome = "drawn"
)

// Result is what Evaluate found on a board. Winner and Line are set only for OutcomeWon.
type Result struct {
	Outcome Outcome
	Winner  entity.Mark
	Line    entity.Line
}

// Evaluate scans entity.WinCombos in order and reports the first completed line.
// A full board without a completed line is a draw.
func Evaluate(board entity.Board) Result {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Result{Outcome: OutcomeWon, Winner: a, Line: combo}
		}
	}

	if board.IsFull() {
		return Result{Outcome: OutcomeDrawn}
	}

	return Result{Outcome: OutcomeUndecided}
}

// ValidateMove reports why a move at cell would be rejected, or nil if it is legal.
func ValidateMove(session entity.Session, cell int) error {
	switch {
	case session.Status == entity.StatusNotStarted:
		return apperror.ErrGameIsNotStarted
	case session.IsFinished():
		return apperror.ErrGameFinished
	case !session.IsOngoing():
		return fmt.Errorf("%w: status %s", apperror.ErrGameIsNotStarted, session.Status)
	}

	if cell < 0 || cell >= len(session.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if session.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// ApplyMove puts the mark of the side to move on cell and returns the next session.
// An illegal move returns the session untouched and false.
func ApplyMove(session entity.Session, cell int) (entity.Session, bool) {
	if err := ValidateMove(session, cell); err != nil {
		return session, false
	}

	next := session
	next.Board[cell] = session.Turn
	updateGameStatus(&next)

	return next, true
}

// updateGameStatus - the only place where a score changes.
func updateGameStatus(session *entity.Session) {
	result := Evaluate(session.Board)

	switch result.Outcome {
	case OutcomeWon:
		line := result.Line
		session.Status = entity.StatusWon
		session.Winner = result.Winner
		session.WinningLine = &line
		session.Players.Ref(result.Winner).Score++
	case OutcomeDrawn:
		session.Status = entity.StatusDraw
	case OutcomeUndecided:
		session.Turn = entity.Opponent(session.Turn)
	}
}

// ResetGame clears the board for another round. Mode, names, roles and scores are kept.
func ResetGame(session entity.Session) entity.Session {
	next := session
	next.Board = entity.Board{}
	next.Status = entity.StatusOngoing
	next.Turn = entity.PlayerX
	next.Winner = entity.EmptyCell
	next.WinningLine = nil

	return next
}

// StartNewGame resets the board and assigns roles and names for mode.
// Empty names fall back to the mode defaults. Scores are kept.
func StartNewGame(session entity.Session, mode entity.Mode, nameX, nameO string) (entity.Session, error) {
	var roleO entity.Role
	var defaultX, defaultO string

	switch mode {
	case entity.ModeAI:
		roleO, defaultX, defaultO = entity.RoleComputer, entity.DefaultNameLocal, entity.DefaultNameComputer
	case entity.ModeOffline:
		roleO, defaultX, defaultO = entity.RoleHuman, entity.DefaultNameX, entity.DefaultNameO
	case entity.ModeOnline:
		roleO, defaultX, defaultO = entity.RoleRemote, entity.DefaultNameLocal, entity.DefaultNameRemote
	default:
		return session, fmt.Errorf("%w: %q", apperror.ErrUnknownMode, mode)
	}

	next := ResetGame(session)
	next.Mode = mode
	next.Players.X = entity.Player{Name: orDefault(nameX, defaultX), Role: entity.RoleHuman, Score: session.Players.X.Score}
	next.Players.O = entity.Player{Name: orDefault(nameO, defaultO), Role: roleO, Score: session.Players.O.Score}

	return next, nil
}

func SetPlayerName(session entity.Session, side entity.Mark, name string) (entity.Session, error) {
	if !entity.IsValidSide(side) {
		return session, fmt.Errorf("%w: %q", apperror.ErrUnknownSide, side)
	}

	next := session
	next.Players.Ref(side).Name = name

	return next, nil
}

func SetPlayerType(session entity.Session, side entity.Mark, role entity.Role) (entity.Session, error) {
	if !entity.IsValidSide(side) {
		return session, fmt.Errorf("%w: %q", apperror.ErrUnknownSide, side)
	}

	if !entity.IsValidRole(role) {
		return session, fmt.Errorf("%w: %q", apperror.ErrUnknownRole, role)
	}

	next := session
	next.Players.Ref(side).Role = role

	return next, nil
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
