package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const centerCell = 4

var cornerCells = [4]int{0, 2, 6, 8}

type BotService interface {
	// ChooseCell picks a free cell for mark. It never changes the board.
	ChooseCell(board entity.Board, mark entity.Mark) (int, error)
}

type botService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBotService returns the heuristic selector. A nil rnd is seeded from the clock.
func NewBotService(rnd *rand.Rand) BotService {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // it's ok
	}

	return &botService{rnd: rnd}
}

// ChooseCell applies, in order: win now, block, center, random corner, random free cell.
func (that *botService) ChooseCell(board entity.Board, mark entity.Mark) (int, error) {
	if board.IsFull() {
		return 0, apperror.ErrNoAvailableMoves
	}

	if cell, ok := completingCell(board, mark); ok {
		return cell, nil
	}

	if cell, ok := completingCell(board, entity.Opponent(mark)); ok {
		return cell, nil
	}

	if board[centerCell] == entity.EmptyCell {
		return centerCell, nil
	}

	corners := make([]int, 0, len(cornerCells))
	for _, cell := range cornerCells {
		if board[cell] == entity.EmptyCell {
			corners = append(corners, cell)
		}
	}

	if len(corners) > 0 {
		return that.pick(corners), nil
	}

	return that.pick(board.EmptyCells()), nil
}

func (that *botService) pick(cells []int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return cells[that.rnd.Intn(len(cells))]
}

// completingCell finds the first line in entity.WinCombos holding two marks and one free cell.
func completingCell(board entity.Board, mark entity.Mark) (int, bool) {
	for _, combo := range entity.WinCombos {
		count, free := 0, -1

		for _, cell := range combo {
			switch board[cell] {
			case mark:
				count++
			case entity.EmptyCell:
				free = cell
			}
		}

		if count == 2 && free >= 0 {
			return free, true
		}
	}

	return 0, false
}
