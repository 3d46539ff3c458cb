package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"tetris/pkg/protocol"
)

const cellSize float32 = 24

// BoardRenderer рисует одно поле: своё или поле соперника. Источник
// клеток задаётся функцией, сам виджет о игре ничего не знает.
type BoardRenderer struct {
	widget.BaseWidget

	cells func() [][]protocol.Cell
}

func NewBoardRenderer(cells func() [][]protocol.Cell) *BoardRenderer {
	r := &BoardRenderer{cells: cells}
	r.ExtendBaseWidget(r)
	return r
}

func (b *BoardRenderer) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{
		board:   b,
		objects: []fyne.CanvasObject{},
	}
}

type boardWidgetRenderer struct {
	board   *BoardRenderer
	objects []fyne.CanvasObject
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	// раскладкой занимается контейнер
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(
		float32(protocol.BoardWidth)*cellSize,
		float32(protocol.BoardHeight)*cellSize,
	)
}

func (r *boardWidgetRenderer) Refresh() {
	r.objects = []fyne.CanvasObject{}

	// Фон
	bg := canvas.NewRectangle(color.RGBA{15, 15, 15, 255})
	bg.Resize(r.MinSize())
	r.objects = append(r.objects, bg)

	// Сетка
	gridColor := color.RGBA{30, 30, 30, 255}
	for i := 0; i <= protocol.BoardWidth; i++ {
		line := canvas.NewLine(gridColor)
		line.StrokeWidth = 1
		line.Position1 = fyne.NewPos(float32(i)*cellSize, 0)
		line.Position2 = fyne.NewPos(float32(i)*cellSize, float32(protocol.BoardHeight)*cellSize)
		r.objects = append(r.objects, line)
	}
	for i := 0; i <= protocol.BoardHeight; i++ {
		line := canvas.NewLine(gridColor)
		line.StrokeWidth = 1
		line.Position1 = fyne.NewPos(0, float32(i)*cellSize)
		line.Position2 = fyne.NewPos(float32(protocol.BoardWidth)*cellSize, float32(i)*cellSize)
		r.objects = append(r.objects, line)
	}

	cells := r.board.cells()
	if cells == nil {
		return
	}

	settledColor := color.RGBA{70, 130, 240, 255}
	activeColor := color.RGBA{80, 220, 100, 255}

	for y := range cells {
		for x := range cells[y] {
			var cellColor color.Color
			switch cells[y][x] {
			case protocol.CellSettled:
				cellColor = settledColor
			case protocol.CellActive:
				cellColor = activeColor
			default:
				continue
			}

			rect := canvas.NewRectangle(cellColor)
			rect.Resize(fyne.NewSize(cellSize*0.9, cellSize*0.9))
			rect.Move(fyne.NewPos(
				float32(x)*cellSize+cellSize*0.05,
				float32(y)*cellSize+cellSize*0.05,
			))
			r.objects = append(r.objects, rect)
		}
	}
}

func (r *boardWidgetRenderer) Destroy() {}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// gridToCells переводит проводное поле соперника в клетки для отрисовки.
func gridToCells(grid protocol.Grid) [][]protocol.Cell {
	if grid == nil {
		return nil
	}
	cells := make([][]protocol.Cell, len(grid))
	for y := range grid {
		cells[y] = make([]protocol.Cell, len(grid[y]))
		for x := range grid[y] {
			if grid[y][x] != 0 {
				cells[y][x] = protocol.CellSettled
			}
		}
	}
	return cells
}
