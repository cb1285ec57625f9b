package entity

// Mark is the content of a board cell. A non-empty mark also names the side that owns it.
type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusOngoing    Status = "ongoing"
	StatusWon        Status = "won"
	StatusDraw       Status = "draw"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeAI      Mode = "ai"
)

// Line is a triple of board indices.
type Line [3]int

// WinCombos holds the rows, the columns and the two diagonals, in that order.
var WinCombos = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

const BoardSize = 9

// Board is a 3x3 grid in row-major order.
type Board [BoardSize]Mark

// EmptyCells returns the indices of free cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) Count(mark Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

// Session bundles everything a single table needs: board, status, turn and both player records.
// WinningLine is the only pointer; it is always replaced, never written through,
// so a copy is still a full snapshot.
type Session struct {
	ID          string  `json:"id"`
	Mode        Mode    `json:"mode"`
	Board       Board   `json:"board"`
	Status      Status  `json:"status"`
	Turn        Mark    `json:"player_turn"`
	Winner      Mark    `json:"winner,omitempty"`
	WinningLine *Line   `json:"winning_line,omitempty"`
	Players     Players `json:"players"`
}

func NewSession(id string) Session {
	return Session{
		ID:     id,
		Mode:   ModeOffline,
		Status: StatusNotStarted,
		Turn:   PlayerX,
		Players: Players{
			X: Player{Name: DefaultNameX, Role: RoleHuman},
			O: Player{Name: DefaultNameO, Role: RoleHuman},
		},
	}
}

func (that Session) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that Session) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}

// IsComputerTurn reports whether the heuristic selector should move next.
func (that Session) IsComputerTurn() bool {
	if !that.IsOngoing() {
		return false
	}

	player, ok := that.Players.Get(that.Turn)

	return ok && player.IsComputer()
}

func Opponent(mark Mark) Mark {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func IsValidMode(mode Mode) bool {
	switch mode {
	case ModeOffline, ModeOnline, ModeAI:
		return true
	default:
		return false
	}
}

func IsValidSide(mark Mark) bool {
	return mark == PlayerX || mark == PlayerO
}
