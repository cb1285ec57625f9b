package entity

type Role string

const (
	RoleHuman    Role = "human"
	RoleComputer Role = "computer"
	RoleRemote   Role = "remote"
)

const (
	DefaultNameX        = "Player X"
	DefaultNameO        = "Player O"
	DefaultNameLocal    = "You"
	DefaultNameComputer = "AI"
	DefaultNameRemote   = "Opponent"
)

type Player struct {
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Score int    `json:"score"`
}

func (that Player) IsComputer() bool {
	return that.Role == RoleComputer
}

type Players struct {
	X Player `json:"X"`
	O Player `json:"O"`
}

func (that Players) Get(mark Mark) (Player, bool) {
	switch mark {
	case PlayerX:
		return that.X, true
	case PlayerO:
		return that.O, true
	default:
		return Player{}, false
	}
}

// Ref returns a pointer to the record of the given side, or nil for an unknown side.
func (that *Players) Ref(mark Mark) *Player {
	switch mark {
	case PlayerX:
		return &that.X
	case PlayerO:
		return &that.O
	default:
		return nil
	}
}

func IsValidRole(role Role) bool {
	switch role {
	case RoleHuman, RoleComputer, RoleRemote:
		return true
	default:
		return false
	}
}
