package game

import (
	"math/rand"
	"time"

	"tetris/pkg/protocol"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateGameOver
)

const pointsPerLine = 100

// LockResult описывает фиксацию фигуры — единственное внешне наблюдаемое
// событие движка помимо изменения поля и счёта. На каждую фиксацию
// приходится ровно одно исходящее сообщение: game_state либо game_over.
type LockResult struct {
	Locked   bool
	Cleared  int
	GameOver bool
}

// Engine владеет полем, активной фигурой и счётом. Потокобезопасность
// обеспечивает Session: каждый обработчик выполняется целиком.
type Engine struct {
	board *Board
	shape Shape
	x, y  int
	score int
	state State
	rng   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{
		board: NewBoard(protocol.BoardWidth, protocol.BoardHeight),
		state: StateIdle,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) State() State  { return e.state }
func (e *Engine) Score() int    { return e.score }
func (e *Engine) Board() *Board { return e.board }

// Start сбрасывает поле и счёт и запускает новую игру. Поле заменяется
// целиком, старое между играми не переиспользуется.
func (e *Engine) Start() {
	e.board = NewBoard(protocol.BoardWidth, protocol.BoardHeight)
	e.score = 0
	e.state = StateRunning
	if !e.spawn() {
		e.state = StateGameOver
	}
}

// spawn ставит случайную фигуру по центру в строку 0. На пустом поле
// провал невозможен, но проверка та же, что и при респавне после
// фиксации.
func (e *Engine) spawn() bool {
	shape := RandomPiece(e.rng)
	x := e.board.Width()/2 - len(shape[0])/2
	if !CanMove(e.board, shape, x, 0) {
		return false
	}
	e.shape = shape
	e.x = x
	e.y = 0
	return true
}

// MoveLateral сдвигает фигуру на одну колонку. Нелегальный сдвиг — не
// ошибка, а обычный молчаливый отказ.
func (e *Engine) MoveLateral(dir int) {
	if e.state != StateRunning {
		return
	}
	if CanMove(e.board, e.shape, e.x+dir, e.y) {
		e.x += dir
	}
}

// Rotate поворачивает фигуру по часовой стрелке. Без поиска позиций у
// стены: не влезло — поворот отбрасывается.
func (e *Engine) Rotate() {
	if e.state != StateRunning {
		return
	}
	rotated := RotateClockwise(e.shape)
	if CanMove(e.board, rotated, e.x, e.y) {
		e.shape = rotated
	}
}

// SoftDrop опускает фигуру на одну строку либо фиксирует её. Тот же шаг
// выполняет автоматический тик.
func (e *Engine) SoftDrop() LockResult {
	if e.state != StateRunning {
		return LockResult{}
	}
	if CanMove(e.board, e.shape, e.x, e.y+1) {
		e.y++
		return LockResult{}
	}
	return e.lock()
}

func (e *Engine) lock() LockResult {
	e.board.Place(e.shape, e.x, e.y)
	cleared := e.board.ClearFullRows()
	e.score += cleared * pointsPerLine
	if !e.spawn() {
		e.state = StateGameOver
		return LockResult{Locked: true, Cleared: cleared, GameOver: true}
	}
	return LockResult{Locked: true, Cleared: cleared}
}

// Snapshot — неизменяемый снимок для отрисовки: поле с наложенной
// активной фигурой, счёт и состояние. Отрисовка — чистая функция от
// снимка, внутрь движка она не заглядывает.
type Snapshot struct {
	Cells [][]protocol.Cell
	Score int
	State State
}

func (e *Engine) Snapshot() Snapshot {
	cells := make([][]protocol.Cell, e.board.Height())
	for y := range cells {
		cells[y] = make([]protocol.Cell, e.board.Width())
		for x := range cells[y] {
			cells[y][x] = e.board.Cell(x, y)
		}
	}

	if e.state == StateRunning {
		for row := range e.shape {
			for col := range e.shape[row] {
				if e.shape[row][col] == 0 {
					continue
				}
				y := e.y + row
				if y < 0 {
					continue
				}
				cells[y][e.x+col] = protocol.CellActive
			}
		}
	}

	return Snapshot{Cells: cells, Score: e.score, State: e.state}
}
