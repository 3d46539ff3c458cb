package server

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tetris/pkg/protocol"
)

// исключены неоднозначные символы
const roomIDChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomIDLength = 6

// Server выделяет комнаты и ретранслирует сообщения между двумя пирами:
// game_state уходит сопернику как opponent_state, game_over — как
// player_game_over.
type Server struct {
	rooms   map[string]*Room
	roomsMu sync.RWMutex

	rng   *rand.Rand
	rngMu sync.Mutex

	upgrader websocket.Upgrader
}

func New() *Server {
	return &Server{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rooms", s.handleCreateRoom)
	mux.HandleFunc("/rooms/", s.handleRoomWS)
	return mux
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	roomID := s.allocateRoom()

	log.Printf("room %s created", roomID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"room_id": roomID})
}

func (s *Server) generateRoomID() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	code := make([]byte, roomIDLength)
	for i := range code {
		code[i] = roomIDChars[s.rng.Intn(len(roomIDChars))]
	}
	return string(code)
}

// allocateRoom подбирает свободный код и сразу регистрирует комнату:
// проверка уникальности и вставка идут под одной блокировкой.
func (s *Server) allocateRoom() string {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	for {
		id := s.generateRoomID()
		if _, exists := s.rooms[id]; !exists {
			s.rooms[id] = newRoom(id)
			return id
		}
	}
}

func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/rooms/"), "/")
	if len(parts) != 2 || parts[1] != "ws" {
		http.NotFound(w, r)
		return
	}
	roomID := parts[0]

	s.roomsMu.RLock()
	room, exists := s.rooms[roomID]
	s.roomsMu.RUnlock()

	if !exists {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}

	p, err := room.addPeer(conn)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "room is full"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	log.Printf("player %s joined room %s", p.playerID, roomID)

	p.send(&protocol.Message{Type: protocol.MsgPlayerID, PlayerID: p.playerID})

	if other := room.other(p); other != nil {
		other.send(&protocol.Message{Type: protocol.MsgPlayerJoined, PlayerID: p.playerID})
	}

	s.relayLoop(room, p)
}

func (s *Server) relayLoop(room *Room, p *peer) {
	defer func() {
		p.conn.Close()
		if room.removePeer(p) {
			s.roomsMu.Lock()
			delete(s.rooms, room.id)
			s.roomsMu.Unlock()
			log.Printf("room %s closed", room.id)
		} else {
			log.Printf("player %s left room %s", p.playerID, room.id)
		}
	}()

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		other := room.other(p)
		if other == nil {
			continue
		}

		switch msg.Type {
		case protocol.MsgGameState:
			if msg.State == nil {
				continue
			}
			other.send(&protocol.Message{Type: protocol.MsgOpponentState, State: msg.State})
		case protocol.MsgGameOver:
			other.send(&protocol.Message{Type: protocol.MsgPlayerGameOver, Score: msg.Score})
		}
		// остальные типы не пересылаются
	}
}
