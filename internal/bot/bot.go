// Package bot defines the narrow interface a computer-player driver
// must satisfy to submit actions through the same scheduler entrypoint
// as a human (spec §9's "computer-player interface" design note,
// SPEC_FULL.md §9). It is deliberately thin: no move-selection logic of
// its own beyond the fallback RandomTetrominoDriver, since scripted AI
// beyond this interface is out of scope.
package bot

import (
	"math/rand"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/diff"
	"github.com/shaktris/shaktris-server/internal/player"
	"github.com/shaktris/shaktris-server/internal/tetromino"
)

// ActionKind tags which Game operation an Action should be submitted as.
type ActionKind string

const (
	ActionPlaceTetromino ActionKind = "place_tetromino"
	ActionMoveChess      ActionKind = "move_chess"
	ActionPass           ActionKind = "pass"
)

// Action is the computer-player's proposed next move, shaped to map
// directly onto Game.PlaceTetromino/Game.MoveChess's parameters.
type Action struct {
	Kind ActionKind

	TetrominoKind tetromino.Kind
	Rotation      int
	AnchorX       int
	AnchorZ       int
	Y             int

	PieceID string
	ToX     int
	ToZ     int
}

// ActionSource is the contract a computer-player driver implements. It
// is handed the latest lock-free board snapshot and reports whether it
// has a move at all; ok==false means pass this turn.
type ActionSource interface {
	NextAction(snap *diff.Snapshot) (Action, bool)
}

// RandomTetrominoDriver is the engine's only built-in ActionSource: it
// drops a randomly chosen tetromino kind and rotation at the first open
// anchor just outside the corners of its home zone, and never attempts a
// chess move. It does not consult the player's queued tetromino offers.
// Grounded on the teacher's AutoFall (internal/services/tetris/
// game_logic.go), which likewise advances a Tetris-only session without
// any search or evaluation — generalized here only to the extent of
// picking *where* to drop rather than always dropping straight down.
type RandomTetrominoDriver struct {
	PlayerID string
	Zone     *player.HomeZone
	Rng      *rand.Rand
}

func NewRandomTetrominoDriver(playerID string, zone *player.HomeZone, seed int64) *RandomTetrominoDriver {
	return &RandomTetrominoDriver{PlayerID: playerID, Zone: zone, Rng: rand.New(rand.NewSource(seed))}
}

// NextAction drops a random tetromino kind/rotation at the first of four
// fixed anchors just outside the zone's bounding box that the snapshot
// shows as empty; it returns ok=false when all four are occupied.
func (d *RandomTetrominoDriver) NextAction(snap *diff.Snapshot) (Action, bool) {
	minX, maxX, minZ, maxZ := d.Zone.Bounds()
	kind := tetromino.AllKinds[d.Rng.Intn(len(tetromino.AllKinds))]
	rotation := d.Rng.Intn(4)

	candidates := []board.Coord{
		{X: minX, Z: maxZ + 1},
		{X: maxX, Z: maxZ + 1},
		{X: minX, Z: minZ - 1},
		{X: maxX, Z: minZ - 1},
	}
	for _, c := range candidates {
		if len(snap.Board.Get(c)) > 0 {
			continue
		}
		return Action{
			Kind:          ActionPlaceTetromino,
			TetrominoKind: kind,
			Rotation:      rotation,
			AnchorX:       c.X,
			AnchorZ:       c.Z,
			Y:             0,
		}, true
	}
	return Action{}, false
}
