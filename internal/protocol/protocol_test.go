package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	raw, err := Encode(KindPlaceTetromino, "game-1", "player-1", PlaceTetrominoRequest{
		Kind: "I", Rotation: 1, X: 2, Z: 3, Y: 0,
	})
	assert.NoError(t, err)

	var env Envelope
	assert.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, KindPlaceTetromino, env.Kind)
	assert.Equal(t, "game-1", env.GameID)
	assert.Equal(t, "player-1", env.PlayerID)

	var req PlaceTetrominoRequest
	assert.NoError(t, Decode(env, &req))
	assert.Equal(t, "I", req.Kind)
	assert.Equal(t, 1, req.Rotation)
	assert.Equal(t, 2, req.X)
}

func TestDecodeEmptyPayloadLeavesOutUntouched(t *testing.T) {
	env := Envelope{Kind: KindGetGameState}
	var req SetReadyRequest
	assert.NoError(t, Decode(env, &req))
	assert.False(t, req.Ready)
}

func TestZonePayloadMarshalsAllFourBounds(t *testing.T) {
	raw, err := json.Marshal(ZonePayload{MinX: -4, MaxX: 3, MinZ: -1, MaxZ: 0})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"minX":-4,"maxX":3,"minZ":-1,"maxZ":0}`, string(raw))
}

func TestErrorPayloadCarriesWaitMs(t *testing.T) {
	raw, err := json.Marshal(ErrorPayload{Kind: "rate_limited", Message: "slow down", WaitMs: 250})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"kind":"rate_limited","message":"slow down","waitMs":250}`, string(raw))
}
