package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaktris/shaktris-server/internal/config"
	"github.com/shaktris/shaktris-server/internal/protocol"
	"github.com/shaktris/shaktris-server/internal/registry"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func newTestServer(t *testing.T, sm *SessionManager, gameID, playerID string) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		sm.RegisterClient(gameID, playerID, conn)
	}))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return server, conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRegisterClientSendsFullSnapshotOnConnect(t *testing.T) {
	reg := registry.New(config.Default())
	g := reg.CreateGame()
	p, err := g.Join("Alice")
	require.NoError(t, err)

	sm := NewSessionManager(reg)
	server, conn := newTestServer(t, sm, g.ID, p.ID)
	defer server.Close()
	defer conn.Close()

	msg := readEnvelope(t, conn)
	assert.Equal(t, string(protocol.KindGameUpdate), msg["kind"])
	cells, ok := msg["cells"].([]any)
	assert.True(t, ok)
	assert.NotEmpty(t, cells)
}

func TestPlaceTetrominoDispatchesAndBroadcasts(t *testing.T) {
	reg := registry.New(config.Default())
	g := reg.CreateGame()
	a, err := g.Join("Alice")
	require.NoError(t, err)
	_, err = g.Join("Bob")
	require.NoError(t, err)

	sm := NewSessionManager(reg)
	server, conn := newTestServer(t, sm, g.ID, a.ID)
	defer server.Close()
	defer conn.Close()

	readEnvelope(t, conn) // initial full snapshot

	zone := g.HomeZones[a.ID]
	minX, _, _, maxZ := zone.Bounds()

	req := protocol.PlaceTetrominoRequest{Kind: "I", Rotation: 0, X: minX, Z: maxZ, Y: 0}
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	env := protocol.Envelope{Kind: protocol.KindPlaceTetromino, Nonce: "n1", Payload: raw}
	envRaw, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, envRaw))

	reply := readEnvelope(t, conn)
	assert.Equal(t, string(protocol.KindPlaceTetromino), reply["kind"])

	// The I piece lands one row beyond the home zones' maxZ, so the board's
	// bounds grow and the broadcast is a full game_update, not a delta.
	update := readEnvelope(t, conn)
	assert.Equal(t, string(protocol.KindGameUpdate), update["kind"])
}

func TestDuplicateNonceReplaysCachedReply(t *testing.T) {
	reg := registry.New(config.Default())
	g := reg.CreateGame()
	a, err := g.Join("Alice")
	require.NoError(t, err)

	sm := NewSessionManager(reg)
	server, conn := newTestServer(t, sm, g.ID, a.ID)
	defer server.Close()
	defer conn.Close()

	readEnvelope(t, conn) // initial full snapshot

	env := protocol.Envelope{Kind: protocol.KindPause, Nonce: "dup"}
	envRaw, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, envRaw))
	first := readEnvelope(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, envRaw))
	second := readEnvelope(t, conn)

	assert.Equal(t, first, second)
}
