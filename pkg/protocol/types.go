package protocol

type Cell int

const (
	CellEmpty   Cell = 0
	CellSettled Cell = 1
	CellActive  Cell = 2
)

const (
	BoardWidth  = 10
	BoardHeight = 20
)

// Grid — поле в проводном представлении: строки сверху вниз, значения
// только 0 (пусто) и 1 (зафиксировано). CellActive — локальная пометка
// для отрисовки, в Grid она не попадает.
type Grid [][]int
