// Package protocol defines the wire envelope and message payloads
// described in spec §6: the inbound request kinds a client may send and
// the outbound event kinds the server pushes back, each a concrete Go
// type with json tags. Grounded on the teacher's PlayerInputEvent/
// GameStateEvent pair (internal/services/tetris/game_state.go and
// session_manager.go), generalized from Tetris-only drop/move/rotate
// actions to the full tetromino/chess/purchase/pause action set this
// spec describes.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/shaktris/shaktris-server/internal/board"
)

// Kind identifies the payload carried by an Envelope.
type Kind string

const (
	KindJoinGame       Kind = "join_game"
	KindSetReady       Kind = "set_ready"
	KindGetGameState   Kind = "get_game_state"
	KindPlaceTetromino Kind = "place_tetromino"
	KindMoveChess      Kind = "move_chess"
	KindPurchasePiece  Kind = "purchase_piece"
	KindPause          Kind = "pause"
	KindResume         Kind = "resume"
	KindLeave          Kind = "leave"

	KindGameUpdate     Kind = "game_update"
	KindGameStateDelta Kind = "game_state_delta"
	KindTetrominoPlaced Kind = "tetromino_placed"
	KindChessMove       Kind = "chess_move"
	KindPieceCaptured   Kind = "piece_captured"
	KindRowsCleared     Kind = "rows_cleared"
	KindPawnPromoted    Kind = "pawn_promoted"
	KindPieceOrphaned   Kind = "piece_orphaned"
	KindPlayerJoined    Kind = "player_joined"
	KindPlayerLeft      Kind = "player_left"
	KindGameOver        Kind = "game_over"
	KindError           Kind = "error"
)

// Envelope is the frame every inbound client message arrives in, and
// every outbound server message is wrapped in, per spec §6. Nonce is
// the client-supplied dedupe key the transport layer uses to make
// redelivered actions idempotent (spec §7's "Recovery" paragraph).
type Envelope struct {
	GameID   string          `json:"gameId,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	Nonce    string          `json:"nonce,omitempty"`
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// --- Inbound payloads ---

type JoinGameRequest struct {
	GameID     string `json:"gameId,omitempty"`
	PlayerName string `json:"playerName"`
}

type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

type PlaceTetrominoRequest struct {
	Kind     string `json:"kind"`
	Rotation int    `json:"rotation"`
	X        int    `json:"x"`
	Z        int    `json:"z"`
	Y        int    `json:"y"`
}

type MoveChessRequest struct {
	PieceID string `json:"pieceId"`
	ToX     int    `json:"toX"`
	ToZ     int    `json:"toZ"`
}

type PurchasePieceRequest struct {
	PieceType string `json:"pieceType"`
	X         int    `json:"x"`
	Z         int    `json:"z"`
}

// --- Outbound payloads ---

type JoinGameResponse struct {
	PlayerID string    `json:"playerId"`
	GameID   string    `json:"gameId"`
	HomeZone ZonePayload `json:"homeZone"`
}

type ZonePayload struct {
	MinX, MaxX, MinZ, MaxZ int
}

// MarshalJSON renders ZonePayload with all four bounds fields under
// lower-camel-case names; the struct's fields carry no json tags, so this
// override is what actually reaches the wire.
func (z ZonePayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MinX int `json:"minX"`
		MaxX int `json:"maxX"`
		MinZ int `json:"minZ"`
		MaxZ int `json:"maxZ"`
	}{z.MinX, z.MaxX, z.MinZ, z.MaxZ})
}

type SetReadyResponse struct {
	Status string `json:"status"`
}

type PlaceTetrominoResponse struct {
	OK            bool  `json:"ok"`
	Exploded      bool  `json:"exploded,omitempty"`
	CompletedRows []int `json:"completedRows,omitempty"`
}

type MoveChessResponse struct {
	OK         bool   `json:"ok"`
	Captured   bool   `json:"captured,omitempty"`
	PromotedTo string `json:"promotedTo,omitempty"`
}

type PurchasePieceResponse struct {
	OK      bool `json:"ok"`
	Balance int  `json:"balance"`
}

type PauseResumeResponse struct {
	OK          bool  `json:"ok"`
	RemainingMs int64 `json:"remainingMs,omitempty"`
}

type LeaveResponse struct {
	OK bool `json:"ok"`
}

// AckResponse is the minimal {ok} reply for requests whose real result
// is the state broadcast that follows, not the reply payload itself
// (get_game_state's full resync lands via game_update, not here).
type AckResponse struct {
	OK bool `json:"ok"`
}

// CellPayload is one entry of a game_update/game_state_delta cell list.
// An Items of nil represents a removal, matching diff.Cell.
type CellPayload struct {
	X     int           `json:"x"`
	Z     int           `json:"z"`
	ID    int64         `json:"id"`
	Items []board.Item  `json:"items,omitempty"`
}

type GameUpdatePayload struct {
	Bounds BoundsPayload `json:"bounds"`
	Cells  []CellPayload `json:"cells"`
}

type GameStateDeltaPayload struct {
	Cells []CellPayload `json:"cells"`
}

type BoundsPayload struct {
	MinX, MaxX, MinZ, MaxZ int
	Empty                  bool
}

func (b BoundsPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MinX  int  `json:"minX"`
		MaxX  int  `json:"maxX"`
		MinZ  int  `json:"minZ"`
		MaxZ  int  `json:"maxZ"`
		Empty bool `json:"empty"`
	}{b.MinX, b.MaxX, b.MinZ, b.MaxZ, b.Empty})
}

type TetrominoPlacedPayload struct {
	PlayerID string `json:"playerId"`
	Kind     string `json:"kind"`
	Exploded bool   `json:"exploded"`
}

type ChessMovePayload struct {
	PlayerID string `json:"playerId"`
	PieceID  string `json:"pieceId"`
	ToX      int    `json:"toX"`
	ToZ      int    `json:"toZ"`
}

type PieceCapturedPayload struct {
	CapturedPieceID string `json:"capturedPieceId"`
	ByPlayerID      string `json:"byPlayerId"`
}

type RowsClearedPayload struct {
	Rows []int `json:"rows"`
}

type PawnPromotedPayload struct {
	PieceID   string `json:"pieceId"`
	PromotedTo string `json:"promotedTo"`
}

type PieceOrphanedPayload struct {
	PieceID string `json:"pieceId"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type GameOverPayload struct {
	WinnerPlayerID string `json:"winnerPlayerId"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	WaitMs  int64  `json:"waitMs,omitempty"`
}

// Encode wraps payload into an Envelope addressed at gameID/playerID and
// serializes it, for the transport layer's outbound writes.
func Encode(kind Kind, gameID, playerID string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{GameID: gameID, PlayerID: playerID, Kind: kind, Payload: raw})
}

// Decode unmarshals env's payload into out, which must be a pointer to
// one of the inbound request types above.
func Decode(env Envelope, out any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(env.Payload, out)
}
