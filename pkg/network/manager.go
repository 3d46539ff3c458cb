package network

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tetris/pkg/game"
	"tetris/pkg/protocol"
)

// Config — адреса внешних сервисов: HTTP-сервис выделения комнат и
// websocket-канал сообщений. В коде адреса не зашиты.
type Config struct {
	RoomURL string
	WSURL   string
}

// Manager — тонкий насос сообщений поверх соединения с комнатой.
// Исходящие кадры порождает Session после каждой фиксации фигуры,
// входящие разбираются здесь и передаются обратно в Session.
type Manager struct {
	session *game.Session
	config  Config

	conn      *websocket.Conn
	connected bool
	connMu    sync.RWMutex
	writeMu   sync.Mutex

	wg sync.WaitGroup

	httpClient *http.Client
}

func NewManager(session *game.Session, config Config) *Manager {
	m := &Manager{
		session:    session,
		config:     config,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	session.SetSender(m)
	return m
}

type roomResponse struct {
	RoomID string `json:"room_id"`
}

// CreateRoom запрашивает у сервиса комнат новый идентификатор. Один
// вызов — одна комната, без повторов при ошибке.
func (m *Manager) CreateRoom() (string, error) {
	resp, err := m.httpClient.Post(m.config.RoomURL+"/rooms", "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("room request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("room service returned %s", resp.Status)
	}

	var room roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("bad room response: %w", err)
	}
	return room.RoomID, nil
}

// Connect открывает канал сообщений комнаты и запускает приём.
func (m *Manager) Connect(roomID string) error {
	url := fmt.Sprintf("%s/rooms/%s/ws", m.config.WSURL, roomID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to room %s: %w", roomID, err)
	}

	m.connMu.Lock()
	m.conn = conn
	m.connected = true
	m.connMu.Unlock()

	m.session.SetRoomID(roomID)

	m.wg.Add(1)
	go m.readLoop(conn)

	return nil
}

func (m *Manager) IsConnected() bool {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return m.connected
}

// Close разрывает соединение намеренно: обработчик разрыва не зовётся.
func (m *Manager) Close() {
	m.connMu.Lock()
	conn := m.conn
	m.conn = nil
	m.connected = false
	m.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.wg.Wait()
}

func (m *Manager) readLoop(conn *websocket.Conn) {
	defer m.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.markDisconnected()
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		m.handleMessage(&msg)
	}
}

func (m *Manager) handleMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgPlayerID:
		m.session.HandlePlayerID(msg.PlayerID)
	case protocol.MsgPlayerJoined:
		m.session.NotifyPeerJoined(msg.PlayerID)
	case protocol.MsgOpponentState:
		if msg.State != nil {
			m.session.HandleOpponentState(*msg.State)
		}
	case protocol.MsgPlayerGameOver:
		m.session.NotifyPeerGameOver(msg.Score)
	}
	// неизвестные типы игнорируются
}

func (m *Manager) markDisconnected() {
	m.connMu.Lock()
	wasConnected := m.connected
	m.connected = false
	m.conn = nil
	m.connMu.Unlock()

	if wasConnected {
		log.Printf("connection to room lost")
		m.session.NotifyDisconnect()
	}
}

// SendGameState отправляет снимок поля после фиксации фигуры.
func (m *Manager) SendGameState(state protocol.StateMsg) {
	m.send(&protocol.Message{Type: protocol.MsgGameState, State: &state})
}

// SendGameOver отправляется вместо game_state при терминальной фиксации.
func (m *Manager) SendGameOver(score int) {
	m.send(&protocol.Message{Type: protocol.MsgGameOver, Score: score})
}

// send пишет кадр в соединение. Без соединения кадр отбрасывается:
// очереди и повторов нет, устаревшее состояние после переподключения не
// поддерживается.
func (m *Manager) send(msg *protocol.Message) {
	m.connMu.RLock()
	conn := m.conn
	connected := m.connected
	m.connMu.RUnlock()

	if !connected || conn == nil {
		return
	}

	m.writeMu.Lock()
	err := conn.WriteJSON(msg)
	m.writeMu.Unlock()

	if err != nil {
		log.Printf("send failed: %v", err)
		m.markDisconnected()
	}
}
