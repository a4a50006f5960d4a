// Package handlers implements the HTTP surface over a registry.Registry,
// per SPEC_FULL.md §4.12. Grounded on the teacher's GameHandler
// (internal/api/handlers/game_handler.go) — the create/join/status/
// websocket-upgrade handler shape and the upgrader's CheckOrigin/buffer
// settings carry over directly; URL params move from go-chi's
// chi.URLParam to gorilla/mux's mux.Vars since this module's router
// (cmd/api/main.go) is gorilla/mux rather than chi.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	apimw "github.com/shaktris/shaktris-server/internal/api/middleware"
	"github.com/shaktris/shaktris-server/internal/protocol"
	"github.com/shaktris/shaktris-server/internal/registry"
	"github.com/shaktris/shaktris-server/internal/shakerr"
	"github.com/shaktris/shaktris-server/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GameHandler serves the REST + WebSocket surface over one Registry.
type GameHandler struct {
	registry *registry.Registry
	sessions *transport.SessionManager
}

func NewGameHandler(reg *registry.Registry, sessions *transport.SessionManager) *GameHandler {
	return &GameHandler{registry: reg, sessions: sessions}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := string(shakerr.Internal)
	if se, ok := err.(*shakerr.Error); ok {
		kind = string(se.Kind)
		switch se.Kind {
		case shakerr.NotFound:
			status = http.StatusNotFound
		case shakerr.Busy, shakerr.RateLimited:
			status = http.StatusTooManyRequests
		default:
			status = http.StatusBadRequest
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(protocol.ErrorPayload{Kind: kind, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// CreateGame handles POST /api/games.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	g := h.registry.CreateGame()
	writeJSON(w, http.StatusCreated, map[string]string{"gameId": g.ID})
}

// JoinGame handles POST /api/games/{gameId}/join.
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]

	var req protocol.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, shakerr.New(shakerr.Internal, "malformed request body"))
		return
	}
	if req.PlayerName == "" {
		if userID, ok := apimw.GetUserIDFromContext(r.Context()); ok {
			req.PlayerName = userID
		}
	}

	g, p, err := h.registry.Join(gameID, req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}

	minX, maxX, minZ, maxZ := g.HomeZones[p.ID].Bounds()
	writeJSON(w, http.StatusOK, protocol.JoinGameResponse{
		PlayerID: p.ID,
		GameID:   g.ID,
		HomeZone: protocol.ZonePayload{MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ},
	})
}

// GameStatus handles GET /api/games/{gameId}.
func (h *GameHandler) GameStatus(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]
	g, err := h.registry.Get(gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	status, lastUpdatedAt := g.StatusSnapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":        g.ID,
		"status":        status,
		"playerCount":   len(g.Players),
		"lastUpdatedAt": lastUpdatedAt,
	})
}

// HandleWebSocket handles GET /api/games/ws/{gameId}. The caller must
// already have joined via JoinGame; playerId is read from the
// authenticated context, matching spec §5's "no privileged access" for
// computer-player drivers, which authenticate the same way as humans.
func (h *GameHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]
	playerID, ok := apimw.GetUserIDFromContext(r.Context())
	if !ok || playerID == "" {
		writeError(w, shakerr.New(shakerr.NotFound, "no authenticated player id for this connection"))
		return
	}

	g, err := h.registry.Get(gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := g.Players[playerID]; !ok {
		writeError(w, shakerr.New(shakerr.NotFound, "player has not joined this game"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[handlers] websocket upgrade failed for game %s: %v", gameID, err)
		return
	}

	h.sessions.RegisterClient(gameID, playerID, conn)
}
