package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetris/pkg/protocol"
	"tetris/pkg/server"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ts := httptest.NewServer(server.New().Handler())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp, err := http.Post(ts.URL+"/rooms", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body["room_id"], 6)
	return body["room_id"]
}

func dialRoom(t *testing.T, wsURL, roomID string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/rooms/"+roomID+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestCreateRoomReturnsDistinctCodes(t *testing.T) {
	ts, _ := newTestServer(t)

	first := createRoom(t, ts)
	second := createRoom(t, ts)

	assert.NotEqual(t, first, second)
	for _, c := range first + second {
		assert.Contains(t, "ABCDEFGHJKLMNPQRSTUVWXYZ23456789", string(c))
	}
}

func TestConcurrentCreateRoomYieldsDistinctCodes(t *testing.T) {
	ts, _ := newTestServer(t)

	const n = 16
	codes := make(chan string, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := http.Post(ts.URL+"/rooms", "application/json", nil)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				errs <- err
				return
			}
			codes <- body["room_id"]
		}()
	}
	wg.Wait()
	close(codes)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "duplicate room code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateRoomRejectsGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDialUnknownRoomFails(t *testing.T) {
	_, wsURL := newTestServer(t)

	_, _, err := websocket.DefaultDialer.Dial(wsURL+"/rooms/NOSUCH/ws", nil)
	assert.Error(t, err)
}

func TestJoinAssignsIDAndNotifiesPeer(t *testing.T) {
	ts, wsURL := newTestServer(t)
	roomID := createRoom(t, ts)

	a := dialRoom(t, wsURL, roomID)
	idA := readMessage(t, a)
	require.Equal(t, protocol.MsgPlayerID, idA.Type)
	require.NotEmpty(t, idA.PlayerID)

	b := dialRoom(t, wsURL, roomID)
	idB := readMessage(t, b)
	require.Equal(t, protocol.MsgPlayerID, idB.Type)
	assert.NotEqual(t, idA.PlayerID, idB.PlayerID)

	joined := readMessage(t, a)
	assert.Equal(t, protocol.MsgPlayerJoined, joined.Type)
	assert.Equal(t, idB.PlayerID, joined.PlayerID)
}

func TestRelayGameStateAndGameOver(t *testing.T) {
	ts, wsURL := newTestServer(t)
	roomID := createRoom(t, ts)

	a := dialRoom(t, wsURL, roomID)
	readMessage(t, a) // player_id
	b := dialRoom(t, wsURL, roomID)
	readMessage(t, b) // player_id
	readMessage(t, a) // player_joined

	state := protocol.StateMsg{
		Board: protocol.Grid{{0, 1, 0}, {1, 1, 1}},
		Score: 300,
	}
	require.NoError(t, a.WriteJSON(&protocol.Message{Type: protocol.MsgGameState, State: &state}))

	got := readMessage(t, b)
	require.Equal(t, protocol.MsgOpponentState, got.Type)
	require.NotNil(t, got.State)
	assert.Equal(t, state, *got.State)

	require.NoError(t, b.WriteJSON(&protocol.Message{Type: protocol.MsgGameOver, Score: 500}))

	over := readMessage(t, a)
	assert.Equal(t, protocol.MsgPlayerGameOver, over.Type)
	assert.Equal(t, 500, over.Score)
}

func TestUnknownTypesAreNotRelayed(t *testing.T) {
	ts, wsURL := newTestServer(t)
	roomID := createRoom(t, ts)

	a := dialRoom(t, wsURL, roomID)
	readMessage(t, a)
	b := dialRoom(t, wsURL, roomID)
	readMessage(t, b)
	readMessage(t, a)

	require.NoError(t, a.WriteJSON(&protocol.Message{Type: "chat", PlayerID: "x"}))
	require.NoError(t, a.WriteJSON(&protocol.Message{Type: protocol.MsgGameOver, Score: 42}))

	// до b доходит только следующее валидное сообщение
	got := readMessage(t, b)
	assert.Equal(t, protocol.MsgPlayerGameOver, got.Type)
	assert.Equal(t, 42, got.Score)
}

func TestThirdPeerIsRejected(t *testing.T) {
	ts, wsURL := newTestServer(t)
	roomID := createRoom(t, ts)

	dialRoom(t, wsURL, roomID)
	dialRoom(t, wsURL, roomID)

	c := dialRoom(t, wsURL, roomID)
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
