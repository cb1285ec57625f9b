package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrNoAvailableMoves = errors.New("no available moves")

	ErrUnknownMode = errors.New("unknown game mode")
	ErrUnknownSide = errors.New("unknown side")
	ErrUnknownRole = errors.New("unknown player role")

	ErrEmptyMessage  = errors.New("message is empty")
	ErrSessionClosed = errors.New("session is closed")
)
