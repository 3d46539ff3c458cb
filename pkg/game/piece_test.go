package game_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetris/pkg/game"
	"tetris/pkg/protocol"
)

// drawCatalog собирает все различимые фигуры из случайного источника.
func drawCatalog(t *testing.T) []game.Shape {
	t.Helper()

	rng := rand.New(rand.NewSource(1))
	seen := make(map[string]game.Shape)
	for i := 0; i < 500; i++ {
		shape := game.RandomPiece(rng)
		seen[fmt.Sprint(shape)] = shape
	}

	require.Len(t, seen, 7, "random selector must cover all seven shapes")

	shapes := make([]game.Shape, 0, len(seen))
	for _, shape := range seen {
		shapes = append(shapes, shape)
	}
	return shapes
}

func TestRandomPieceCoversCatalog(t *testing.T) {
	drawCatalog(t)
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	for _, shape := range drawCatalog(t) {
		rotated := shape
		for i := 0; i < 4; i++ {
			rotated = game.RotateClockwise(rotated)
		}
		assert.Equal(t, shape, rotated)
	}
}

func TestRotateClockwise(t *testing.T) {
	shape := game.Shape{{1, 0, 0}, {1, 1, 1}}

	rotated := game.RotateClockwise(shape)

	assert.Equal(t, game.Shape{{1, 1}, {1, 0}, {1, 0}}, rotated)
	// шаблон не изменился
	assert.Equal(t, game.Shape{{1, 0, 0}, {1, 1, 1}}, shape)
}

func TestCanMoveBounds(t *testing.T) {
	b := game.NewBoard(protocol.BoardWidth, protocol.BoardHeight)
	bar := game.Shape{{1, 1, 1, 1}}

	assert.False(t, game.CanMove(b, bar, -1, 0))
	assert.True(t, game.CanMove(b, bar, 0, 0))
	assert.True(t, game.CanMove(b, bar, 6, 0))
	assert.False(t, game.CanMove(b, bar, 7, 0))

	square := game.Shape{{1, 1}, {1, 1}}
	assert.True(t, game.CanMove(b, square, 0, 18))
	assert.False(t, game.CanMove(b, square, 0, 19))

	// отрицательные строки допустимы: нижней границы нет
	assert.True(t, game.CanMove(b, square, 0, -1))
}

func TestCanMoveRejectsOverlap(t *testing.T) {
	b := game.NewBoard(protocol.BoardWidth, protocol.BoardHeight)
	b.Place(game.Shape{{1}}, 4, 10)

	square := game.Shape{{1, 1}, {1, 1}}
	assert.False(t, game.CanMove(b, square, 4, 10))
	assert.False(t, game.CanMove(b, square, 3, 9))
	assert.True(t, game.CanMove(b, square, 5, 10))
}

// Если CanMove разрешил позицию, Place не перекроет ни одной уже
// зафиксированной клетки.
func TestCanMovePermitsOnlyNonOverlappingPlacement(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		b := game.NewBoard(protocol.BoardWidth, protocol.BoardHeight)
		for n := 0; n < 30; n++ {
			b.Place(game.Shape{{1}}, rng.Intn(protocol.BoardWidth), rng.Intn(protocol.BoardHeight))
		}

		shape := game.RandomPiece(rng)
		x := rng.Intn(protocol.BoardWidth+4) - 2
		y := rng.Intn(protocol.BoardHeight+4) - 2

		if !game.CanMove(b, shape, x, y) {
			continue
		}

		for row := range shape {
			for col := range shape[row] {
				if shape[row][col] == 0 || y+row < 0 {
					continue
				}
				require.Equal(t, protocol.CellEmpty, b.Cell(x+col, y+row),
					"shape %v at (%d,%d) overlaps settled cell", shape, x, y)
			}
		}
	}
}
