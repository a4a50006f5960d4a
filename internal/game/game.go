// Package game implements the Game aggregate: the authoritative mutation
// pipeline that ties the board, tetromino/chess engines, islands, row
// clearing and player lifecycle together under one scheduler, per
// spec §3/§5/§7. Grounded on the teacher's GameSession (internal/
// services/tetris/session_manager.go), generalized from a single
// Tetris-only per-connection session to the shared, multi-phase,
// multi-player aggregate this spec describes.
package game

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/chess"
	"github.com/shaktris/shaktris-server/internal/config"
	"github.com/shaktris/shaktris-server/internal/diff"
	"github.com/shaktris/shaktris-server/internal/islands"
	"github.com/shaktris/shaktris-server/internal/player"
	"github.com/shaktris/shaktris-server/internal/rowclear"
	"github.com/shaktris/shaktris-server/internal/scheduler"
	"github.com/shaktris/shaktris-server/internal/shakerr"
	"github.com/shaktris/shaktris-server/internal/spiral"
	"github.com/shaktris/shaktris-server/internal/tetromino"
)

// Status is the Game's lifecycle state from spec §3.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// purchaseCosts is a flat price list for purchase_piece; spec leaves
// pricing itself out of scope (no billing/persistence), so this exists
// only to give the balance field and insufficient_funds error somewhere
// real to land.
var purchaseCosts = map[chess.Type]int{
	chess.Pawn:   10,
	chess.Knight: 30,
	chess.Bishop: 30,
	chess.Rook:   50,
	chess.Queen:  90,
}

// Game is one authoritative match: the shared board, every player's
// state, the chess piece arena, and the scheduler serializing mutation.
type Game struct {
	ID       string
	Settings config.Tunables

	Board     *board.Board
	Placer    *spiral.Placer
	Players   map[string]*player.Player
	HomeZones map[string]*player.HomeZone
	Pieces    map[string]*chess.Piece
	JoinOrder []string

	Status        Status
	Winner        string
	CreatedAt     time.Time
	LastUpdatedAt time.Time

	rng       *rand.Rand
	tracker   *diff.Tracker
	scheduler *scheduler.Scheduler
	snapshot  atomic.Pointer[diff.Snapshot]
}

func New(id string, settings config.Tunables, seed int64) *Game {
	g := &Game{
		ID:        id,
		Settings:  settings,
		Board:     board.New(),
		Placer:    spiral.New(settings.HomeZoneDistance),
		Players:   make(map[string]*player.Player),
		HomeZones: make(map[string]*player.HomeZone),
		Pieces:    make(map[string]*chess.Piece),
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		rng:       rand.New(rand.NewSource(seed)),
		tracker:   diff.NewTracker(),
		scheduler: scheduler.New(),
	}
	g.publishSnapshot()
	return g
}

func nowMillis() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// unreachableCoord lies far outside any coordinate a real placement could
// ever reach, so passing it as a "king" coordinate to islands.Reconcile
// guarantees every remaining component of a dethroned player is orphaned.
var unreachableCoord = board.Coord{X: 1 << 30, Z: 1 << 30}

// CurrentSnapshot returns the latest published, lock-free-readable view
// of the board for transport-side broadcast and diffing (spec §5 —
// "network I/O happens after the lock is released, against the
// snapshot produced under the lock").
func (g *Game) CurrentSnapshot() diff.Snapshot {
	return *g.snapshot.Load()
}

// StatusSnapshot reports the Game's lifecycle fields under the mutation
// lock, for callers outside the scheduler (e.g. the registry's
// abandonment reaper) that must not read Status/LastUpdatedAt bare.
func (g *Game) StatusSnapshot() (status Status, lastUpdatedAt time.Time) {
	type result struct {
		status        Status
		lastUpdatedAt time.Time
	}
	r, _ := scheduler.Submit(g.scheduler, "__status__", func() (result, error) {
		return result{status: g.Status, lastUpdatedAt: g.LastUpdatedAt}, nil
	})
	return r.status, r.lastUpdatedAt
}

// publishSnapshot must be called with the scheduler's game lock held; it
// clones the board and advances the cell-id tracker, then atomically
// installs the result for lock-free readers.
func (g *Game) publishSnapshot() {
	clone := g.Board.Clone()
	ids := g.tracker.Sync(g.Board)
	snap := diff.Snapshot{Board: clone, Bounds: g.Board.Bounds(), IDs: ids}
	g.snapshot.Store(&snap)
	g.LastUpdatedAt = time.Now()
}

func (g *Game) kingLookup(playerID string) (board.Coord, bool) {
	for _, p := range g.Pieces {
		if p.Player == playerID && p.Type == chess.King {
			return board.Coord{X: p.X, Z: p.Z}, true
		}
	}
	return board.Coord{}, false
}

// safeZones computes, once per mutation, which home zones currently
// contain at least one of their owner's chess pieces (spec §3's "safe
// home zone"). A paused player's zone is always safe, regardless of
// piece occupancy — spec §4.7's RowClearer exemption.
func (g *Game) safeZones() map[string]bool {
	safe := make(map[string]bool, len(g.HomeZones))
	for id, z := range g.HomeZones {
		if pl, ok := g.Players[id]; ok && pl.PauseStartedAt != 0 {
			safe[id] = true
			continue
		}
		minX, maxX, minZ, maxZ := z.Bounds()
		for x := minX; x <= maxX && !safe[id]; x++ {
			for zc := minZ; zc <= maxZ; zc++ {
				for _, it := range g.Board.ContentsOfType(board.Coord{X: x, Z: zc}, board.ItemChess) {
					if it.Player == z.Player {
						safe[id] = true
						break
					}
				}
				if safe[id] {
					break
				}
			}
		}
	}
	return safe
}

func (g *Game) isSafeHomeCell(safe map[string]bool, c board.Coord) bool {
	for id, z := range g.HomeZones {
		if z.Contains(c.X, c.Z) {
			return safe[id]
		}
	}
	return false
}

func (g *Game) homeZoneLookup(playerID string, x, z int) bool {
	zone, ok := g.HomeZones[playerID]
	return ok && zone.Contains(x, z)
}

func (g *Game) hasPlacedBefore(p *player.Player) bool {
	return p.LastMoveKind != ""
}

// isPaused reports whether playerID is currently within a pause window.
func (g *Game) isPaused(playerID string) bool {
	p, ok := g.Players[playerID]
	return ok && p.PauseStartedAt != 0
}

func (g *Game) checkRateLimit(p *player.Player) error {
	if p.LastMoveTimestamp == 0 {
		return nil
	}
	interval := g.Settings.MinMoveInterval
	if p.MoveIntervalScale > 0 {
		interval = time.Duration(float64(interval) * p.MoveIntervalScale)
	}
	elapsed := nowMillis() - p.LastMoveTimestamp
	min := interval.Milliseconds()
	if elapsed < min {
		return shakerr.RateLimit(min - elapsed)
	}
	return nil
}

// Join implements registration (spec §4.7) through the scheduler.
func (g *Game) Join(name string) (*player.Player, error) {
	return scheduler.Submit(g.scheduler, "__join__:"+name, func() (*player.Player, error) {
		if len(g.Players) >= g.Settings.MaxPlayersPerGame {
			return nil, shakerr.New(shakerr.Internal, "game is full")
		}
		id := uuid.NewString()
		reg, err := player.Register(g.Board, g.Placer, len(g.JoinOrder), id, name, g.rng, g.Settings)
		if err != nil {
			return nil, err
		}
		g.Players[id] = reg.Player
		g.HomeZones[id] = reg.HomeZone
		for _, piece := range reg.Pieces {
			g.Pieces[piece.ID] = piece
		}
		g.JoinOrder = append(g.JoinOrder, id)
		if g.Status == StatusWaiting && len(g.Players) >= 2 {
			g.Status = StatusActive
		}
		g.publishSnapshot()
		return reg.Player, nil
	})
}

// Leave marks a player disconnected, per spec §4.8's cancellation rule;
// their state is preserved for the pause window rather than deleted.
func (g *Game) Leave(playerID string) error {
	_, err := scheduler.Submit(g.scheduler, playerID, func() (struct{}, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return struct{}{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		p.Connected = false
		g.scheduler.Cancel(playerID)
		g.publishSnapshot()
		return struct{}{}, nil
	})
	return err
}

// PlaceTetrominoResult reports the outcome of a place_tetromino action.
type PlaceTetrominoResult struct {
	Exploded      bool
	RowsCleared   []int
	PhaseAdvanced bool
}

// PlaceTetromino implements the full tetromino-drop pipeline of spec
// §4.3: validate, place-or-explode, row-clear, phase advance.
func (g *Game) PlaceTetromino(playerID string, kind tetromino.Kind, rotation, anchorX, anchorZ, y int) (PlaceTetrominoResult, error) {
	return scheduler.Submit(g.scheduler, playerID, func() (PlaceTetrominoResult, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return PlaceTetrominoResult{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		if p.Eliminated {
			return PlaceTetrominoResult{}, shakerr.New(shakerr.Eliminated, "player has been eliminated")
		}
		if p.CurrentMoveType != player.PhaseTetromino {
			return PlaceTetrominoResult{}, shakerr.New(shakerr.NotYourTurnPhase, "player is not in the tetromino phase")
		}
		if err := g.checkRateLimit(p); err != nil {
			return PlaceTetrominoResult{}, err
		}

		placement := tetromino.Placement{Kind: kind, Rotation: rotation, AnchorX: anchorX, AnchorZ: anchorZ, Y: y, Player: playerID}
		explode, err := tetromino.Validate(g.Board, placement, g.hasPlacedBefore(p), g.kingLookup, g.homeZoneLookup)
		if err != nil {
			return PlaceTetrominoResult{}, err
		}

		p.LastMoveTimestamp = nowMillis()
		p.LastMoveKind = "place_tetromino"

		result := PlaceTetrominoResult{Exploded: explode}
		if explode {
			p.CurrentMoveType = player.PhaseChess
			result.PhaseAdvanced = true
			g.publishSnapshot()
			return result, nil
		}

		if err := tetromino.Place(g.Board, placement); err != nil {
			return PlaceTetrominoResult{}, err
		}
		p.LastTetrominoAnchor = board.Coord{X: anchorX, Z: anchorZ}

		safe := g.safeZones()
		rowsCleared, destroyed := rowclear.ClearRows(g.Board, g.Settings.RequiredConsecutive, func(c board.Coord) bool {
			return g.isSafeHomeCell(safe, c)
		})
		for _, id := range destroyed {
			delete(g.Pieces, id)
		}
		if len(rowsCleared) > 0 {
			gravitySafe := g.safeZones()
			moved := rowclear.Gravity(g.Board, g.JoinOrder, g.kingLookup, func(c board.Coord) bool {
				return g.isSafeHomeCell(gravitySafe, c)
			}, g.Pieces)
			for mp := range moved {
				if king, ok := g.kingLookup(mp); ok {
					for _, id := range islands.Reconcile(g.Board, mp, king) {
						delete(g.Pieces, id)
					}
				}
			}
		}
		result.RowsCleared = rowsCleared

		if g.playerHasAnyLegalChessMove(playerID) {
			p.CurrentMoveType = player.PhaseChess
			result.PhaseAdvanced = true
		} else {
			p.AvailableTetrominos = append(p.AvailableTetrominos[1:], rollOneMore(g.rng))
		}

		g.publishSnapshot()
		return result, nil
	})
}

func rollOneMore(rng *rand.Rand) player.TetrominoOffer {
	return player.TetrominoOffer{Kind: tetromino.AllKinds[rng.Intn(len(tetromino.AllKinds))], Rotation: rng.Intn(4)}
}

// playerHasAnyLegalChessMove is a coarse existence check: does any piece
// of playerID have at least one legal destination among nearby cells.
// Bounded to the board's current extent plus a small margin so it
// terminates quickly even on an empty board.
func (g *Game) playerHasAnyLegalChessMove(playerID string) bool {
	bounds := g.Board.Bounds()
	if bounds.Empty {
		return false
	}
	margin := 2
	for _, piece := range g.Pieces {
		if piece.Player != playerID {
			continue
		}
		for x := bounds.MinX - margin; x <= bounds.MaxX+margin; x++ {
			for z := bounds.MinZ - margin; z <= bounds.MaxZ+margin; z++ {
				if x == piece.X && z == piece.Z {
					continue
				}
				if chess.Validate(g.Board, *piece, x, z) == nil {
					return true
				}
			}
		}
	}
	return false
}

// MoveChessResult reports the outcome of a move_chess action.
type MoveChessResult struct {
	Captured        bool
	CapturedPieceID string
	Promoted        bool
	GameOver        bool
	Winner          string
}

// MoveChess implements the chess-move pipeline of spec §4.4.
func (g *Game) MoveChess(playerID, pieceID string, toX, toZ int) (MoveChessResult, error) {
	return scheduler.Submit(g.scheduler, playerID, func() (MoveChessResult, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return MoveChessResult{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		if p.Eliminated {
			return MoveChessResult{}, shakerr.New(shakerr.Eliminated, "player has been eliminated")
		}
		if p.CurrentMoveType != player.PhaseChess {
			return MoveChessResult{}, shakerr.New(shakerr.NotYourTurnPhase, "player is not in the chess phase")
		}
		if err := g.checkRateLimit(p); err != nil {
			return MoveChessResult{}, err
		}
		mover, ok := g.Pieces[pieceID]
		if !ok || mover.Player != playerID {
			return MoveChessResult{}, shakerr.New(shakerr.NotFound, "unknown piece")
		}

		target := board.Coord{X: toX, Z: toZ}
		for _, it := range g.Board.ContentsOfType(target, board.ItemChess) {
			if it.Player != playerID && g.isPaused(it.Player) {
				return MoveChessResult{}, shakerr.New(shakerr.CellOccupied, "target player is paused and cannot be captured")
			}
		}

		execResult, err := chess.Execute(g.Board, g.Pieces, mover, toX, toZ, g.Settings.PawnPromotionDistance, chess.Type(g.Settings.PromotionPiece))
		if err != nil {
			return MoveChessResult{}, err
		}

		p.LastMoveTimestamp = nowMillis()
		p.LastMoveKind = "move_chess"
		p.CurrentMoveType = player.PhaseTetromino

		result := MoveChessResult{Promoted: execResult.Promoted}
		if execResult.Captured != nil {
			result.Captured = true
			result.CapturedPieceID = execResult.Captured.ID
			delete(g.Pieces, execResult.Captured.ID)

			if execResult.KingCaptured {
				loser := execResult.Captured.Player
				if lp, ok := g.Players[loser]; ok {
					lp.Eliminated = true
				}
				for _, id := range islands.Reconcile(g.Board, loser, unreachableCoord) {
					delete(g.Pieces, id)
				}
				if g.remainingNonEliminated() <= 1 {
					g.Status = StatusCompleted
					g.Winner = playerID
					result.GameOver = true
					result.Winner = playerID
				}
			} else if king, ok := g.kingLookup(execResult.Captured.Player); ok {
				for _, id := range islands.Reconcile(g.Board, execResult.Captured.Player, king) {
					delete(g.Pieces, id)
				}
			}
		}

		g.publishSnapshot()
		return result, nil
	})
}

func (g *Game) remainingNonEliminated() int {
	n := 0
	for _, p := range g.Players {
		if !p.Eliminated && !p.Observer {
			n++
		}
	}
	return n
}

// PurchaseResult reports the outcome of a purchase_piece action.
type PurchaseResult struct {
	Balance int
}

// PurchasePiece spends balance to place an extra chess piece inside the
// player's home zone, per the purchase_piece wire entry of §6. The zone
// does not have to be safe.
func (g *Game) PurchasePiece(playerID string, pieceType chess.Type, x, z int) (PurchaseResult, error) {
	return scheduler.Submit(g.scheduler, playerID, func() (PurchaseResult, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return PurchaseResult{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		zone, ok := g.HomeZones[playerID]
		if !ok || !zone.Contains(x, z) {
			return PurchaseResult{}, shakerr.New(shakerr.InvalidCoordinates, "piece must be purchased inside your home zone")
		}
		cost, known := purchaseCosts[pieceType]
		if !known {
			return PurchaseResult{}, shakerr.New(shakerr.InvalidPieceType, "unknown chess piece type")
		}
		if p.Balance < cost {
			return PurchaseResult{}, shakerr.New(shakerr.InsufficientFunds, "not enough balance for this piece")
		}
		for _, it := range g.Board.Get(board.Coord{X: x, Z: z}) {
			if it.Kind != board.ItemHome {
				return PurchaseResult{}, shakerr.New(shakerr.CellOccupied, "cell already holds a movement item")
			}
		}

		piece := &chess.Piece{ID: uuid.NewString(), Player: playerID, Type: pieceType, X: x, Z: z, Orientation: zone.Orientation}
		if err := g.Board.Append(board.Coord{X: x, Z: z}, board.Item{Kind: board.ItemChess, Player: playerID, PieceID: piece.ID, PieceType: string(pieceType)}); err != nil {
			return PurchaseResult{}, err
		}
		g.Pieces[piece.ID] = piece
		p.Balance -= cost

		g.publishSnapshot()
		return PurchaseResult{Balance: p.Balance}, nil
	})
}

// SetReady updates a player's ready flag and reports the game's current
// lifecycle status, per spec §6's set_ready message.
func (g *Game) SetReady(playerID string, ready bool) (Status, error) {
	return scheduler.Submit(g.scheduler, playerID, func() (Status, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return "", shakerr.New(shakerr.NotFound, "unknown player")
		}
		p.Ready = ready
		return g.Status, nil
	})
}

// Pause implements spec §4.7's pause: it records the start time, which
// MoveChess (capture guard), safeZones/isSafeHomeCell (RowClearer
// exemption) and Resume (rate-limit offset) each consult directly —
// p.PauseStartedAt is not a passive marker read only by
// EnforcePauseTimeouts.
func (g *Game) Pause(playerID string) error {
	_, err := scheduler.Submit(g.scheduler, playerID, func() (struct{}, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return struct{}{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		p.PauseStartedAt = nowMillis()
		return struct{}{}, nil
	})
	return err
}

// Resume clears a player's pause state and shifts LastMoveTimestamp
// forward by the pause's duration, so the rate-limit clock in
// checkRateLimit does not advance while paused (spec §4.7's "move-rate
// timers are frozen").
func (g *Game) Resume(playerID string) error {
	_, err := scheduler.Submit(g.scheduler, playerID, func() (struct{}, error) {
		p, ok := g.Players[playerID]
		if !ok {
			return struct{}{}, shakerr.New(shakerr.NotFound, "unknown player")
		}
		if p.PauseStartedAt != 0 {
			if paused := nowMillis() - p.PauseStartedAt; p.LastMoveTimestamp != 0 {
				p.LastMoveTimestamp += paused
			}
		}
		p.PauseStartedAt = 0
		return struct{}{}, nil
	})
	return err
}

// DegradeHomeZones erodes every empty home zone by one cell, per spec
// §4.7's degradation cadence; callers invoke this from a ticker at
// Settings.HomeZoneDegradationInterval.
func (g *Game) DegradeHomeZones() {
	scheduler.Submit(g.scheduler, "__tick__:degrade", func() (struct{}, error) {
		safe := g.safeZones()
		for id, z := range g.HomeZones {
			if safe[id] {
				continue
			}
			if !z.Degrade() {
				delete(g.HomeZones, id)
			}
		}
		g.publishSnapshot()
		return struct{}{}, nil
	})
}

// EnforcePauseTimeouts removes the largest island of any player paused
// past Settings.PauseMax, per spec §4.7 — the same penalty as a
// disconnected island in §4.5, but targeting the single largest
// component outright rather than preserving the one that holds the
// king: islands.Reconcile takes a king coordinate and keeps exactly
// that component, so it cannot express this.
func (g *Game) EnforcePauseTimeouts() {
	scheduler.Submit(g.scheduler, "__tick__:pause-timeout", func() (struct{}, error) {
		now := nowMillis()
		for id, p := range g.Players {
			if p.PauseStartedAt == 0 {
				continue
			}
			if now-p.PauseStartedAt <= g.Settings.PauseMax.Milliseconds() {
				continue
			}

			var kingID string
			for _, piece := range g.Pieces {
				if piece.Player == id && piece.Type == chess.King {
					kingID = piece.ID
					break
				}
			}

			kingLost := false
			for _, pid := range islands.RemoveLargest(g.Board, id) {
				delete(g.Pieces, pid)
				if pid == kingID {
					kingLost = true
				}
			}
			if kingLost {
				p.Eliminated = true
				if g.remainingNonEliminated() <= 1 {
					g.Status = StatusCompleted
					for _, other := range g.JoinOrder {
						if other == id {
							continue
						}
						if op, ok := g.Players[other]; ok && !op.Eliminated && !op.Observer {
							g.Winner = other
							break
						}
					}
				}
			}
			p.PauseStartedAt = 0
		}
		g.publishSnapshot()
		return struct{}{}, nil
	})
}
