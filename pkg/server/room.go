package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tetris/pkg/protocol"
)

const maxPeers = 2

var errRoomFull = errors.New("room is full")

type peer struct {
	playerID string
	conn     *websocket.Conn
	writeMu  sync.Mutex
}

func (p *peer) send(msg *protocol.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(msg)
}

// Room — комната ровно на двух пиров. Сервер игру не моделирует и
// ничего не проверяет, он только пересылает состояние между пирами.
type Room struct {
	id    string
	peers []*peer
	mu    sync.RWMutex
}

func newRoom(id string) *Room {
	return &Room{id: id}
}

func (r *Room) addPeer(conn *websocket.Conn) (*peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.peers) >= maxPeers {
		return nil, errRoomFull
	}

	p := &peer{playerID: uuid.NewString(), conn: conn}
	r.peers = append(r.peers, p)
	return p, nil
}

// removePeer убирает пира и сообщает, опустела ли комната.
func (r *Room) removePeer(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, other := range r.peers {
		if other == p {
			r.peers = append(r.peers[:i], r.peers[i+1:]...)
			break
		}
	}
	return len(r.peers) == 0
}

func (r *Room) other(p *peer) *peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, other := range r.peers {
		if other != p {
			return other
		}
	}
	return nil
}
