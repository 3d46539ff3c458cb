package game

import (
	"sync"
	"time"

	"tetris/pkg/protocol"
)

const DefaultTickInterval = 500 * time.Millisecond

// Sender отправляет исходящие кадры синхронизации. Реализуется
// network.Manager; при разрыве соединения кадры молча отбрасываются.
type Sender interface {
	SendGameState(state protocol.StateMsg)
	SendGameOver(score int)
}

// Session связывает движок с каналом синхронизации: владеет тикером,
// принимает ввод и входящие сообщения, хранит последний снимок поля
// соперника. Правил игры в Session нет.
//
// Все изменения движка идут под одним мьютексом, поэтому каждый
// обработчик (тик, клавиша, входящее сообщение) выполняется атомарно.
type Session struct {
	engine *Engine

	roomID   string
	playerID string

	// снимок соперника: полная замена при каждом opponent_state,
	// только для отображения
	opponent *protocol.StateMsg

	tickInterval time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool

	sender              Sender
	updateListeners     []func()
	peerJoinedHandler   func(playerID string)
	peerGameOverHandler func(score int)
	disconnectHandler   func()
	listenerMu          sync.RWMutex

	mu sync.Mutex

	// sendMu выстраивает исходящие кадры в порядок фиксаций: захватывается
	// ещё под mu, поэтому два почти одновременных лока (тик и клавиша) не
	// могут отправить свои game_state в обратном порядке
	sendMu sync.Mutex
}

func NewSession(tickInterval time.Duration) *Session {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Session{
		engine:       NewEngine(),
		tickInterval: tickInterval,
	}
}

func (s *Session) SetSender(sender Sender) {
	s.listenerMu.Lock()
	s.sender = sender
	s.listenerMu.Unlock()
}

func (s *Session) SetRoomID(roomID string) {
	s.mu.Lock()
	s.roomID = roomID
	s.mu.Unlock()
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// HandlePlayerID записывает идентификатор, выданный сервисом комнат.
// Приходит один раз за подключение, повторы игнорируются; сброс — вместе
// с остальным канальным состоянием при разрыве или закрытии.
func (s *Session) HandlePlayerID(playerID string) {
	s.mu.Lock()
	if s.playerID == "" {
		s.playerID = playerID
	}
	s.mu.Unlock()
}

func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// StartGame запускает новую игру и автоматическое падение. Повторный
// вызов после game over перезапускает игру на свежем поле.
func (s *Session) StartGame() {
	s.mu.Lock()
	s.engine.Start()
	if !s.running && s.engine.State() == StateRunning {
		s.running = true
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go s.runTicker(s.stopCh)
	}
	s.mu.Unlock()

	s.notifyUpdate()
}

// Close останавливает тикер и дожидается его завершения. Обязателен при
// разборе сессии, чтобы тик не пришёл в уже брошенный движок. Канальное
// состояние — снимок соперника и идентификаторы — сбрасывается: оно живёт
// не дольше соединения, и при входе в следующую комнату сессия чистая.
func (s *Session) Close() {
	s.mu.Lock()
	s.clearChannelState()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Session) runTicker(stopCh chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.tick() {
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
		}
	}
}

func (s *Session) tick() bool {
	s.mu.Lock()
	if s.engine.State() != StateRunning {
		s.mu.Unlock()
		return false
	}
	res := s.engine.SoftDrop()
	s.dispatchOrdered(s.outcome(res))
	return !res.GameOver
}

func (s *Session) MoveLeft()  { s.moveLateral(-1) }
func (s *Session) MoveRight() { s.moveLateral(1) }

func (s *Session) moveLateral(dir int) {
	s.mu.Lock()
	s.engine.MoveLateral(dir)
	s.mu.Unlock()

	s.notifyUpdate()
}

func (s *Session) Rotate() {
	s.mu.Lock()
	s.engine.Rotate()
	s.mu.Unlock()

	s.notifyUpdate()
}

// SoftDrop — ручное ускорение падения. Может вызвать фиксацию и, как и
// тик, породить ровно одно исходящее сообщение.
func (s *Session) SoftDrop() {
	s.mu.Lock()
	res := s.engine.SoftDrop()
	s.dispatchOrdered(s.outcome(res))
}

// lockOutcome — решение об отправке, принятое под мьютексом, чтобы сам
// вызов Sender шёл уже без него.
type lockOutcome struct {
	send     bool
	gameOver bool
	state    protocol.StateMsg
	score    int
}

func (s *Session) outcome(res LockResult) lockOutcome {
	if !res.Locked {
		return lockOutcome{}
	}
	if res.GameOver {
		return lockOutcome{send: true, gameOver: true, score: s.engine.Score()}
	}
	return lockOutcome{
		send: true,
		state: protocol.StateMsg{
			Board: s.engine.Board().Grid(),
			Score: s.engine.Score(),
		},
	}
}

// dispatchOrdered вызывается с захваченным s.mu: очередь отправки берётся
// до его освобождения, так что кадры уходят строго в порядке фиксаций, а
// сама запись в сокет идёт уже без мьютекса движка. Слушатели зовутся вне
// обеих блокировок.
func (s *Session) dispatchOrdered(out lockOutcome) {
	s.sendMu.Lock()
	s.mu.Unlock()
	s.emit(out)
	s.sendMu.Unlock()

	s.notifyUpdate()
}

// emit отправляет кадр фиксации. Вызывается под sendMu.
func (s *Session) emit(out lockOutcome) {
	if !out.send {
		return
	}

	s.listenerMu.RLock()
	sender := s.sender
	s.listenerMu.RUnlock()

	if sender != nil {
		if out.gameOver {
			sender.SendGameOver(out.score)
		} else {
			sender.SendGameState(out.state)
		}
	}
}

// Snapshot возвращает снимок локального поля для отрисовки.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// HandleOpponentState целиком заменяет снимок поля соперника. Снимок
// никогда не попадает в локальный движок.
func (s *Session) HandleOpponentState(state protocol.StateMsg) {
	s.mu.Lock()
	s.opponent = &state
	s.mu.Unlock()

	s.notifyUpdate()
}

func (s *Session) OpponentState() *protocol.StateMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent
}

// clearChannelState сбрасывает всё, что привязано к соединению. Вызывается
// под s.mu.
func (s *Session) clearChannelState() {
	s.opponent = nil
	s.playerID = ""
	s.roomID = ""
}

func (s *Session) AddUpdateListener(listener func()) {
	s.listenerMu.Lock()
	s.updateListeners = append(s.updateListeners, listener)
	s.listenerMu.Unlock()
}

func (s *Session) SetPeerJoinedHandler(handler func(playerID string)) {
	s.listenerMu.Lock()
	s.peerJoinedHandler = handler
	s.listenerMu.Unlock()
}

func (s *Session) SetPeerGameOverHandler(handler func(score int)) {
	s.listenerMu.Lock()
	s.peerGameOverHandler = handler
	s.listenerMu.Unlock()
}

func (s *Session) SetDisconnectHandler(handler func()) {
	s.listenerMu.Lock()
	s.disconnectHandler = handler
	s.listenerMu.Unlock()
}

func (s *Session) NotifyPeerJoined(playerID string) {
	s.listenerMu.RLock()
	handler := s.peerJoinedHandler
	s.listenerMu.RUnlock()

	if handler != nil {
		handler(playerID)
	}
}

// NotifyPeerGameOver — конец игры у соперника. Чистое уведомление, на
// локальную симуляцию не влияет.
func (s *Session) NotifyPeerGameOver(score int) {
	s.listenerMu.RLock()
	handler := s.peerGameOverHandler
	s.listenerMu.RUnlock()

	if handler != nil {
		handler(score)
	}
}

// NotifyDisconnect — разрыв соединения. Снимок соперника и выданный
// идентификатор умирают вместе с соединением.
func (s *Session) NotifyDisconnect() {
	s.mu.Lock()
	s.clearChannelState()
	s.mu.Unlock()

	s.listenerMu.RLock()
	handler := s.disconnectHandler
	s.listenerMu.RUnlock()

	if handler != nil {
		handler()
	}
}

func (s *Session) notifyUpdate() {
	s.listenerMu.RLock()
	listeners := make([]func(), len(s.updateListeners))
	copy(listeners, s.updateListeners)
	s.listenerMu.RUnlock()

	for _, listener := range listeners {
		listener()
	}
}
