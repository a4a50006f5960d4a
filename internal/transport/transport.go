// Package transport implements the WebSocket session layer described in
// spec §6/§9: routing inbound envelopes by {gameId, playerId}, dispatching
// them onto the matching Game, and broadcasting the post-mutation
// snapshot back out. Grounded on the teacher's SessionManager/Client
// pair (internal/services/tetris/session_manager.go) — Client's
// SafeSend/SafeClose, the readPump/writePump goroutine split, and the
// ping/pong keepalive settings are carried over almost verbatim; the
// teacher's 1-second auto-fall ticker and channel-driven event loop are
// dropped since this engine has no clock-driven tick of its own and
// broadcasts happen synchronously right after each accepted mutation
// instead.
package transport

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shaktris/shaktris-server/internal/chess"
	"github.com/shaktris/shaktris-server/internal/diff"
	"github.com/shaktris/shaktris-server/internal/protocol"
	"github.com/shaktris/shaktris-server/internal/registry"
	"github.com/shaktris/shaktris-server/internal/shakerr"
	"github.com/shaktris/shaktris-server/internal/tetromino"
)

const (
	readDeadline  = 300 * time.Second
	pingInterval  = 60 * time.Second
	writeDeadline = 10 * time.Second
	readLimit     = 4096
	sendBuffer    = 256
)

// Client is a single WebSocket connection bound to one player in one
// game. Exactly like the teacher's Client, SafeSend/SafeClose make the
// Send channel's closed state race-free against concurrent senders.
type Client struct {
	GameID string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// SessionManager routes inbound envelopes to the registry's games and
// broadcasts outbound state to every client watching a game.
type SessionManager struct {
	registry *registry.Registry

	mu        sync.RWMutex
	clients   map[string]map[string]*Client // gameID -> playerID -> Client
	observers map[string]*diff.Observer     // playerID -> its last-sent-state tracker
	lastNonce map[string]string             // playerID -> most recently applied nonce
	lastReply map[string][]byte             // playerID -> reply sent for lastNonce, replayed on retransmit

	// broadcastMu serializes every diff.Compute call: an Observer is only
	// safe to read from one goroutine at a time, but distinct clients'
	// readPumps can each trigger a broadcastGameState concurrently.
	broadcastMu sync.Mutex
}

func NewSessionManager(reg *registry.Registry) *SessionManager {
	return &SessionManager{
		registry:  reg,
		clients:   make(map[string]map[string]*Client),
		observers: make(map[string]*diff.Observer),
		lastNonce: make(map[string]string),
		lastReply: make(map[string][]byte),
	}
}

// RegisterClient wires up a freshly upgraded WebSocket connection for a
// player already joined to gameID, starting its read/write pumps.
func (sm *SessionManager) RegisterClient(gameID, playerID string, conn *websocket.Conn) {
	client := &Client{GameID: gameID, UserID: playerID, Conn: conn, Send: make(chan []byte, sendBuffer)}

	sm.mu.Lock()
	if sm.clients[gameID] == nil {
		sm.clients[gameID] = make(map[string]*Client)
	}
	sm.clients[gameID][playerID] = client
	if _, ok := sm.observers[playerID]; !ok {
		sm.observers[playerID] = diff.NewObserver()
	}
	sm.mu.Unlock()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	go sm.writePump(client)
	go sm.readPump(client)

	sm.sendSnapshot(client)
}

func (sm *SessionManager) unregister(client *Client) {
	sm.mu.Lock()
	if byPlayer, ok := sm.clients[client.GameID]; ok {
		if existing, ok := byPlayer[client.UserID]; ok && existing == client {
			delete(byPlayer, client.UserID)
			if len(byPlayer) == 0 {
				delete(sm.clients, client.GameID)
			}
		}
	}
	sm.mu.Unlock()
	client.SafeClose()

	if g, err := sm.registry.Get(client.GameID); err == nil {
		if err := g.Leave(client.UserID); err != nil {
			log.Printf("[transport] leave on disconnect failed for %s/%s: %v", client.GameID, client.UserID, err)
		}
		sm.broadcastGameState(client.GameID)
	}
}

func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[transport] panic in readPump for %s: %v", client.UserID, r)
		}
		sm.unregister(client)
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		if len(message) == 0 {
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("[transport] malformed envelope from %s: %v", client.UserID, err)
			continue
		}
		env.GameID = client.GameID
		env.PlayerID = client.UserID

		reply := sm.handleEnvelope(env)
		if !client.SafeSend(reply) {
			log.Printf("[transport] dropped reply to %s (channel closed or full)", client.UserID)
		}
		sm.broadcastGameState(client.GameID)
	}
}

func (sm *SessionManager) writePump(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[transport] write error for %s: %v", client.UserID, err)
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEnvelope dispatches one inbound envelope to the matching Game
// and returns the serialized reply addressed back to the sender alone.
// Nonce retransmits short-circuit to the cached reply rather than
// re-running the action, per spec §7's idempotency guarantee.
func (sm *SessionManager) handleEnvelope(env protocol.Envelope) []byte {
	sm.mu.RLock()
	if env.Nonce != "" && sm.lastNonce[env.PlayerID] == env.Nonce {
		cached := sm.lastReply[env.PlayerID]
		sm.mu.RUnlock()
		return cached
	}
	sm.mu.RUnlock()

	reply := sm.dispatch(env)

	if env.Nonce != "" {
		sm.mu.Lock()
		sm.lastNonce[env.PlayerID] = env.Nonce
		sm.lastReply[env.PlayerID] = reply
		sm.mu.Unlock()
	}
	return reply
}

func (sm *SessionManager) dispatch(env protocol.Envelope) []byte {
	g, err := sm.registry.Get(env.GameID)
	if err != nil {
		return encodeError(env, err)
	}

	switch env.Kind {
	case protocol.KindGetGameState:
		// Resetting the observer forces the next broadcastGameState call
		// (fired by readPump right after this dispatch returns) to send a
		// full resync rather than an incremental diff.
		sm.mu.Lock()
		sm.observers[env.PlayerID] = diff.NewObserver()
		sm.mu.Unlock()
		return mustEncode(protocol.KindGetGameState, env, protocol.AckResponse{OK: true})

	case protocol.KindPlaceTetromino:
		var req protocol.PlaceTetrominoRequest
		if err := protocol.Decode(env, &req); err != nil {
			return encodeError(env, shakerr.New(shakerr.InvalidCoordinates, "malformed place_tetromino payload"))
		}
		result, err := g.PlaceTetromino(env.PlayerID, tetromino.Kind(req.Kind), req.Rotation, req.X, req.Z, req.Y)
		if err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindPlaceTetromino, env, protocol.PlaceTetrominoResponse{
			OK: true, Exploded: result.Exploded, CompletedRows: result.RowsCleared,
		})

	case protocol.KindMoveChess:
		var req protocol.MoveChessRequest
		if err := protocol.Decode(env, &req); err != nil {
			return encodeError(env, shakerr.New(shakerr.InvalidCoordinates, "malformed move_chess payload"))
		}
		result, err := g.MoveChess(env.PlayerID, req.PieceID, req.ToX, req.ToZ)
		if err != nil {
			return encodeError(env, err)
		}
		promoted := ""
		if result.Promoted {
			promoted = g.Settings.PromotionPiece
		}
		return mustEncode(protocol.KindMoveChess, env, protocol.MoveChessResponse{
			OK: true, Captured: result.Captured, PromotedTo: promoted,
		})

	case protocol.KindPurchasePiece:
		var req protocol.PurchasePieceRequest
		if err := protocol.Decode(env, &req); err != nil {
			return encodeError(env, shakerr.New(shakerr.InvalidCoordinates, "malformed purchase_piece payload"))
		}
		result, err := g.PurchasePiece(env.PlayerID, chess.Type(req.PieceType), req.X, req.Z)
		if err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindPurchasePiece, env, protocol.PurchasePieceResponse{OK: true, Balance: result.Balance})

	case protocol.KindSetReady:
		var req protocol.SetReadyRequest
		if err := protocol.Decode(env, &req); err != nil {
			return encodeError(env, shakerr.New(shakerr.InvalidCoordinates, "malformed set_ready payload"))
		}
		status, err := g.SetReady(env.PlayerID, req.Ready)
		if err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindSetReady, env, protocol.SetReadyResponse{Status: string(status)})

	case protocol.KindPause:
		if err := g.Pause(env.PlayerID); err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindPause, env, protocol.PauseResumeResponse{OK: true})

	case protocol.KindResume:
		if err := g.Resume(env.PlayerID); err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindResume, env, protocol.PauseResumeResponse{OK: true})

	case protocol.KindLeave:
		if err := g.Leave(env.PlayerID); err != nil {
			return encodeError(env, err)
		}
		return mustEncode(protocol.KindLeave, env, protocol.LeaveResponse{OK: true})

	default:
		return encodeError(env, shakerr.Newf(shakerr.Internal, "unhandled message kind %q", env.Kind))
	}
}

func mustEncode(kind protocol.Kind, env protocol.Envelope, payload any) []byte {
	raw, err := protocol.Encode(kind, env.GameID, env.PlayerID, payload)
	if err != nil {
		log.Printf("[transport] failed to encode %s reply: %v", kind, err)
		return nil
	}
	return raw
}

func encodeError(env protocol.Envelope, err error) []byte {
	payload := protocol.ErrorPayload{Kind: string(shakerr.Internal), Message: err.Error()}
	if se, ok := err.(*shakerr.Error); ok {
		payload = protocol.ErrorPayload{Kind: string(se.Kind), Message: se.Message, WaitMs: se.WaitMs}
	}
	raw, _ := protocol.Encode(protocol.KindError, env.GameID, env.PlayerID, payload)
	return raw
}

// sendSnapshot pushes a single client's current diff (full on first
// contact) without touching anyone else's observer state.
func (sm *SessionManager) sendSnapshot(client *Client) {
	g, err := sm.registry.Get(client.GameID)
	if err != nil {
		return
	}
	snap := g.CurrentSnapshot()

	sm.mu.Lock()
	obs := sm.observers[client.UserID]
	sm.mu.Unlock()

	sm.broadcastMu.Lock()
	full, cells := diff.Compute(snap, obs)
	sm.broadcastMu.Unlock()

	client.SafeSend(encodeSnapshot(full, cells))
}

// broadcastGameState sends every registered client of gameID its own
// incremental (or full, on bounds change) diff against the game's
// latest published snapshot, mirroring the teacher's BroadcastGameState
// but synchronously, right after the triggering mutation, instead of on
// a fixed interval.
func (sm *SessionManager) broadcastGameState(gameID string) {
	g, err := sm.registry.Get(gameID)
	if err != nil {
		return
	}
	snap := g.CurrentSnapshot()

	sm.mu.RLock()
	targets := make([]*Client, 0, len(sm.clients[gameID]))
	for _, c := range sm.clients[gameID] {
		targets = append(targets, c)
	}
	sm.mu.RUnlock()

	sm.broadcastMu.Lock()
	defer sm.broadcastMu.Unlock()

	for _, client := range targets {
		sm.mu.Lock()
		obs := sm.observers[client.UserID]
		sm.mu.Unlock()

		full, cells := diff.Compute(snap, obs)
		if !full && len(cells) == 0 {
			continue
		}
		if !client.SafeSend(encodeSnapshot(full, cells)) {
			log.Printf("[transport] failed to broadcast to %s (channel closed or full)", client.UserID)
		}
	}
}

func encodeSnapshot(full bool, cells []diff.Cell) []byte {
	payload := make([]protocol.CellPayload, len(cells))
	for i, c := range cells {
		payload[i] = protocol.CellPayload{X: c.X, Z: c.Z, ID: c.ID, Items: c.Items}
	}
	kind := protocol.KindGameStateDelta
	if full {
		kind = protocol.KindGameUpdate
	}
	env := struct {
		Kind  protocol.Kind          `json:"kind"`
		Cells []protocol.CellPayload `json:"cells"`
	}{Kind: kind, Cells: payload}
	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("[transport] failed to marshal snapshot: %v", err)
		return nil
	}
	return raw
}
