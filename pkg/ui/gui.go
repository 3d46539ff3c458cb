package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"tetris/pkg/game"
	"tetris/pkg/network"
	"tetris/pkg/protocol"
)

type GUI struct {
	app     fyne.App
	window  fyne.Window
	session *game.Session
	network *network.Manager

	currentScreen string
	localBoard    *BoardRenderer
	opponentBoard *BoardRenderer
	scoreLabel    *widget.Label
	opponentScore *widget.Label
	statusLabel   *widget.Label

	gameOverShown bool
}

func NewGUI(session *game.Session, netManager *network.Manager) *GUI {
	myApp := app.New()

	window := myApp.NewWindow("Tetris Duel")
	window.Resize(fyne.NewSize(800, 600))
	window.CenterOnScreen()

	gui := &GUI{
		app:           myApp,
		window:        window,
		session:       session,
		network:       netManager,
		currentScreen: "menu",
	}

	session.AddUpdateListener(func() {
		fyne.Do(func() {
			gui.refreshGame()
		})
	})

	session.SetPeerJoinedHandler(func(playerID string) {
		fyne.Do(func() {
			if gui.statusLabel != nil {
				gui.statusLabel.SetText("Соперник присоединился")
			}
		})
	})

	session.SetPeerGameOverHandler(func(score int) {
		fyne.Do(func() {
			if gui.statusLabel != nil {
				gui.statusLabel.SetText(fmt.Sprintf("Соперник проиграл (счёт %d)", score))
			}
			dialog.ShowInformation("Соперник проиграл",
				fmt.Sprintf("Игра соперника завершена. Его счёт: %d", score), gui.window)
		})
	})

	session.SetDisconnectHandler(func() {
		fyne.Do(func() {
			if gui.currentScreen != "game" {
				return
			}
			dialog.ShowInformation("Соединение потеряно",
				"Связь с комнатой разорвана. Отправка состояния остановлена.", gui.window)
			if gui.statusLabel != nil {
				gui.statusLabel.SetText("Нет соединения")
			}
		})
	})

	window.Canvas().SetOnTypedKey(func(event *fyne.KeyEvent) {
		if gui.currentScreen != "game" {
			return
		}
		switch event.Name {
		case fyne.KeyLeft:
			session.MoveLeft()
		case fyne.KeyRight:
			session.MoveRight()
		case fyne.KeyUp:
			session.Rotate()
		case fyne.KeyDown:
			session.SoftDrop()
		}
	})

	window.Canvas().SetOnTypedRune(func(r rune) {
		if gui.currentScreen != "game" {
			return
		}
		switch r {
		case 'a', 'A':
			session.MoveLeft()
		case 'd', 'D':
			session.MoveRight()
		case 'w', 'W':
			session.Rotate()
		case 's', 'S':
			session.SoftDrop()
		case 'r', 'R':
			gui.restartGame()
		case 'q', 'Q':
			gui.leaveGame()
		}
	})

	gui.showMenuScreen()

	return gui
}

func (g *GUI) Run() error {
	g.window.ShowAndRun()
	return nil
}

func (g *GUI) showMenuScreen() {
	g.currentScreen = "menu"
	g.localBoard = nil
	g.opponentBoard = nil
	g.statusLabel = nil

	title := widget.NewLabel("TETRIS DUEL")
	title.Alignment = fyne.TextAlignCenter
	title.TextStyle.Bold = true

	createBtn := widget.NewButton("Создать комнату", func() {
		go g.createAndEnterRoom()
	})
	createBtn.Importance = widget.HighImportance

	roomEntry := widget.NewEntry()
	roomEntry.SetPlaceHolder("Код комнаты")

	joinBtn := widget.NewButton("Присоединиться", func() {
		roomID := strings.ToUpper(strings.TrimSpace(roomEntry.Text))
		if roomID == "" {
			dialog.ShowError(fmt.Errorf("введите код комнаты"), g.window)
			return
		}
		go g.enterRoom(roomID)
	})

	quitBtn := widget.NewButton("Выход", func() {
		g.app.Quit()
	})

	content := container.NewVBox(
		layout.NewSpacer(),
		title,
		layout.NewSpacer(),
		createBtn,
		widget.NewLabel("Или присоединитесь к существующей комнате:"),
		roomEntry,
		joinBtn,
		layout.NewSpacer(),
		quitBtn,
		layout.NewSpacer(),
	)

	g.window.SetContent(container.NewPadded(content))
}

func (g *GUI) createAndEnterRoom() {
	roomID, err := g.network.CreateRoom()
	if err != nil {
		fyne.Do(func() {
			dialog.ShowError(fmt.Errorf("не удалось создать комнату: %w", err), g.window)
		})
		return
	}
	g.enterRoom(roomID)
}

func (g *GUI) enterRoom(roomID string) {
	if err := g.network.Connect(roomID); err != nil {
		fyne.Do(func() {
			dialog.ShowError(fmt.Errorf("не удалось войти в комнату %s: %w", roomID, err), g.window)
		})
		return
	}

	fyne.Do(func() {
		g.showGameScreen()
	})
	g.session.StartGame()
}

func (g *GUI) showGameScreen() {
	g.currentScreen = "game"
	g.gameOverShown = false

	g.localBoard = NewBoardRenderer(g.localCells)
	g.opponentBoard = NewBoardRenderer(g.opponentCells)

	g.scoreLabel = widget.NewLabel("Счёт: 0")
	g.scoreLabel.TextStyle.Bold = true

	g.opponentScore = widget.NewLabel("Счёт соперника: 0")

	g.statusLabel = widget.NewLabel(fmt.Sprintf("Комната: %s", g.session.RoomID()))

	localTitle := widget.NewLabel("Ваше поле")
	localTitle.Alignment = fyne.TextAlignCenter
	localTitle.TextStyle.Bold = true

	opponentTitle := widget.NewLabel("Поле соперника")
	opponentTitle.Alignment = fyne.TextAlignCenter

	localPanel := container.NewVBox(localTitle, container.NewCenter(g.localBoard), g.scoreLabel)
	opponentPanel := container.NewVBox(opponentTitle, container.NewCenter(g.opponentBoard), g.opponentScore)

	instructions := widget.NewLabel("Управление: ←→ или AD | ↑/W — поворот | ↓/S — ускорить | R — заново | Q — выход")
	instructions.Alignment = fyne.TextAlignCenter

	leaveBtn := widget.NewButton("Покинуть комнату", func() {
		g.leaveGame()
	})
	leaveBtn.Importance = widget.DangerImportance

	boards := container.NewGridWithColumns(2, localPanel, opponentPanel)

	content := container.NewBorder(
		g.statusLabel,
		container.NewVBox(instructions, leaveBtn),
		nil, nil,
		boards,
	)

	g.window.SetContent(container.NewPadded(content))
	g.refreshGame()
}

func (g *GUI) localCells() [][]protocol.Cell {
	return g.session.Snapshot().Cells
}

func (g *GUI) opponentCells() [][]protocol.Cell {
	opp := g.session.OpponentState()
	if opp == nil {
		return nil
	}
	return gridToCells(opp.Board)
}

func (g *GUI) refreshGame() {
	if g.currentScreen != "game" {
		return
	}

	snapshot := g.session.Snapshot()

	if g.localBoard != nil {
		g.localBoard.Refresh()
	}
	if g.opponentBoard != nil {
		g.opponentBoard.Refresh()
	}
	if g.scoreLabel != nil {
		g.scoreLabel.SetText(fmt.Sprintf("Счёт: %d", snapshot.Score))
	}
	if g.opponentScore != nil {
		if opp := g.session.OpponentState(); opp != nil {
			g.opponentScore.SetText(fmt.Sprintf("Счёт соперника: %d", opp.Score))
		}
	}

	if snapshot.State == game.StateGameOver && !g.gameOverShown {
		g.gameOverShown = true
		dialog.ShowInformation("Игра окончена",
			fmt.Sprintf("Поле заполнено. Ваш счёт: %d\nНажмите R, чтобы сыграть ещё раз.", snapshot.Score),
			g.window)
	}
}

func (g *GUI) restartGame() {
	g.gameOverShown = false
	g.session.StartGame()
}

func (g *GUI) leaveGame() {
	g.session.Close()
	g.network.Close()
	g.showMenuScreen()
}
