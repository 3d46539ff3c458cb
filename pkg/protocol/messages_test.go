package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetris/pkg/protocol"
)

// game_over с нулевым счётом всё равно несёт поле score; пустые
// необязательные поля в кадр не попадают.
func TestGameOverWithZeroScoreKeepsScoreField(t *testing.T) {
	data, err := json.Marshal(&protocol.Message{Type: protocol.MsgGameOver, Score: 0})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "score")
	assert.NotContains(t, raw, "state")
	assert.NotContains(t, raw, "player_id")
}
