package game

import "tetris/pkg/protocol"

// Board хранит только зафиксированные клетки. Активная фигура живёт в
// Engine и накладывается на поле при построении снимка.
type Board struct {
	width  int
	height int
	cells  [][]protocol.Cell
}

func NewBoard(width, height int) *Board {
	cells := make([][]protocol.Cell, height)
	for i := range cells {
		cells[i] = make([]protocol.Cell, width)
	}
	return &Board{width: width, height: height, cells: cells}
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

func (b *Board) Cell(x, y int) protocol.Cell {
	return b.cells[y][x]
}

// Place записывает занятые клетки фигуры в поле. Клетки со строкой < 0
// молча пропускаются. Колонки не проверяются: легальность позиции
// гарантирует CanMove до вызова.
func (b *Board) Place(shape Shape, offsetX, offsetY int) {
	for row := range shape {
		for col := range shape[row] {
			if shape[row][col] == 0 {
				continue
			}
			y := offsetY + row
			if y < 0 {
				continue
			}
			b.cells[y][offsetX+col] = protocol.CellSettled
		}
	}
}

// ClearFullRows удаляет заполненные строки, сдвигая строки выше вниз и
// вставляя пустую строку сверху. Возвращает число удалённых строк.
func (b *Board) ClearFullRows() int {
	cleared := 0
	for y := 0; y < b.height; y++ {
		if !b.rowFull(y) {
			continue
		}
		b.removeRow(y)
		cleared++
		// строка, сдвинувшаяся на это место, тоже может быть полной
		y--
	}
	return cleared
}

func (b *Board) rowFull(y int) bool {
	for x := 0; x < b.width; x++ {
		if b.cells[y][x] == protocol.CellEmpty {
			return false
		}
	}
	return true
}

func (b *Board) removeRow(y int) {
	for row := y; row > 0; row-- {
		copy(b.cells[row], b.cells[row-1])
	}
	for x := 0; x < b.width; x++ {
		b.cells[0][x] = protocol.CellEmpty
	}
}

// Grid возвращает поле в проводном представлении.
func (b *Board) Grid() protocol.Grid {
	grid := make(protocol.Grid, b.height)
	for y := 0; y < b.height; y++ {
		grid[y] = make([]int, b.width)
		for x := 0; x < b.width; x++ {
			if b.cells[y][x] == protocol.CellSettled {
				grid[y][x] = 1
			}
		}
	}
	return grid
}
