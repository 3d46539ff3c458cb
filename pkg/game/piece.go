package game

import (
	"math/rand"

	"tetris/pkg/protocol"
)

// Shape — шаблон фигуры: прямоугольная сетка занятости 0/1. Шаблоны
// неизменяемы, поворот всегда возвращает новую сетку.
type Shape [][]int

var shapes = []Shape{
	// I
	{{1, 1, 1, 1}},
	// O
	{{1, 1}, {1, 1}},
	// T
	{{1, 1, 1}, {0, 1, 0}},
	// S
	{{0, 1, 1}, {1, 1, 0}},
	// Z
	{{1, 1, 0}, {0, 1, 1}},
	// J
	{{1, 0, 0}, {1, 1, 1}},
	// L
	{{0, 0, 1}, {1, 1, 1}},
}

// RandomPiece возвращает одну из семи фигур равновероятно.
func RandomPiece(rng *rand.Rand) Shape {
	return shapes[rng.Intn(len(shapes))]
}

// RotateClockwise поворачивает фигуру на 90° вокруг угла ограничивающего
// прямоугольника, а не центра, поэтому поворот может визуально сместить
// фигуру.
func RotateClockwise(shape Shape) Shape {
	rows := len(shape)
	cols := len(shape[0])

	rotated := make(Shape, cols)
	for r := 0; r < cols; r++ {
		rotated[r] = make([]int, rows)
		for c := 0; c < rows; c++ {
			rotated[r][c] = shape[rows-1-c][r]
		}
	}
	return rotated
}

// CanMove — единственный источник истины о легальности позиции фигуры.
// Нижней границы по строкам нет: при спавне строки могут быть
// отрицательными, такие клетки не проверяются на пересечение.
func CanMove(b *Board, shape Shape, x, y int) bool {
	for row := range shape {
		for col := range shape[row] {
			if shape[row][col] == 0 {
				continue
			}
			cx := x + col
			cy := y + row
			if cx < 0 || cx >= b.Width() || cy >= b.Height() {
				return false
			}
			if cy >= 0 && b.Cell(cx, cy) == protocol.CellSettled {
				return false
			}
		}
	}
	return true
}
