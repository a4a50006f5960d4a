// Package player implements registration, rate limiting, pause and
// home-zone degradation for one participant in a Game, per spec §4.7.
// Grounded on the teacher's PlayerGameState (session-scoped per-player
// state with its own math/rand generator, internal/services/tetris/
// game_state.go) and its 7-bag generatePieceQueue, generalized from a
// single Tetris-only player record to one that also owns a home zone
// and a standard chess set.
package player

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/chess"
	"github.com/shaktris/shaktris-server/internal/config"
	"github.com/shaktris/shaktris-server/internal/spiral"
	"github.com/shaktris/shaktris-server/internal/tetromino"
)

// MoveType is the player's current phase, per spec §3's Player type.
type MoveType string

const (
	PhaseTetromino MoveType = "tetromino"
	PhaseChess     MoveType = "chess"
)

// TetrominoOffer is one entry in a player's tetromino bag: a kind plus a
// pre-rolled rotation, matching the teacher's bag-of-upcoming-pieces idea.
type TetrominoOffer struct {
	Kind     tetromino.Kind
	Rotation int
}

// HomeZone is the live, possibly-degrading rectangle assigned to a player
// at registration (spec §3's HomeZone type).
type HomeZone struct {
	Player      string
	X, Z        int
	Width       int
	Height      int
	Orientation int // chess.ForwardVector convention: 0:+Z 1:+X 2:-Z 3:-X
}

func bbox(centerX, centerZ, width, height int) (minX, maxX, minZ, maxZ int) {
	halfW := width / 2
	halfH := height / 2
	return centerX - halfW, centerX + width - halfW - 1, centerZ - halfH, centerZ + height - halfH - 1
}

// Contains reports whether (x,z) lies inside the zone's current rectangle.
func (z *HomeZone) Contains(x, zc int) bool {
	minX, maxX, minZ, maxZ := bbox(z.X, z.Z, z.Width, z.Height)
	return x >= minX && x <= maxX && zc >= minZ && zc <= maxZ
}

// Bounds returns the zone's current rectangle as inclusive bounds.
func (z *HomeZone) Bounds() (minX, maxX, minZ, maxZ int) {
	return bbox(z.X, z.Z, z.Width, z.Height)
}

func (z *HomeZone) isVertical() bool {
	return z.Orientation == 1 || z.Orientation == 3
}

// Degrade shrinks the zone by one cell along its long axis, re-centering
// it so the remaining rectangle stays inside the old one: orientations 0
// and 1 keep the low-coordinate end of that axis and lose the high end,
// orientations 2 and 3 keep the high end and lose the low end.
// It reports alive=false once the zone has been fully eroded, in which
// case the caller must delete it.
func (z *HomeZone) Degrade() (alive bool) {
	minX, maxX, minZ, maxZ := z.Bounds()
	if z.isVertical() {
		z.Height--
		if z.Height <= 0 {
			return false
		}
		if z.Orientation == 1 {
			z.Z = minZ + z.Height/2 // keep minZ; the +Z end erodes
		} else {
			z.Z = maxZ - z.Height + z.Height/2 + 1 // keep maxZ; the -Z end erodes
		}
		return true
	}
	z.Width--
	if z.Width <= 0 {
		return false
	}
	if z.Orientation == 0 {
		z.X = minX + z.Width/2 // keep minX; the +X end erodes
	} else {
		z.X = maxX - z.Width + z.Width/2 + 1 // keep maxX; the -X end erodes
	}
	return true
}

// Player is the per-participant record from spec §3.
type Player struct {
	ID                  string
	Name                string
	Color               string // HSL string, e.g. "hsl(210,70%,55%)"
	Balance             int
	HomeZone            *HomeZone
	AvailableTetrominos []TetrominoOffer
	LastMoveTimestamp   int64 // unix millis
	LastMoveKind        string
	LastTetrominoAnchor board.Coord
	CurrentMoveType     MoveType
	Eliminated          bool
	Observer            bool
	Ready               bool
	Connected           bool
	PauseStartedAt      int64 // unix millis, 0 if not paused

	IsComputer        bool
	MoveIntervalScale float64 // multiplies the game's MinMoveInterval; 0 means "use the game default"
}

// Registration bundles everything created for a newly joined player.
type Registration struct {
	Player   *Player
	HomeZone *HomeZone
	Pieces   []*chess.Piece
}

var backRank = []chess.Type{chess.Rook, chess.Knight, chess.Bishop, chess.Queen, chess.King, chess.Bishop, chess.Knight, chess.Rook}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func orientationFromForward(fx, fz int) int {
	switch {
	case fx == 0 && fz == 1:
		return 0
	case fx == 1 && fz == 0:
		return 1
	case fx == 0 && fz == -1:
		return 2
	default:
		return 3
	}
}

// forwardForZone derives the zone's facing from which direction the
// spiral placed it, per spec's redesign note ("derive the forward vector
// from homeZone.orientation explicitly" — here we derive the orientation
// value itself from the zone's placement, once, at registration time).
func forwardForZone(z spiral.Zone) (fx, fz int) {
	if z.Orientation == spiral.Vertical1 || z.Orientation == spiral.Vertical3 {
		dirZ := sign(z.Z)
		if dirZ == 0 {
			dirZ = 1
		}
		return dirZ, 0
	}
	dirX := sign(z.X)
	if dirX == 0 {
		dirX = 1
	}
	return 0, dirX
}

// Register allocates a home zone, a standard 16-piece chess set and a
// tetromino bag for a newly joining player, writing the home and chess
// items directly onto the board (spec §4.7, steps 1-4).
func Register(b *board.Board, placer *spiral.Placer, joinIndex int, id, name string, rng *rand.Rand, cfg config.Tunables) (*Registration, error) {
	zone, err := placer.Place(id, joinIndex)
	if err != nil {
		return nil, err
	}

	fx, fz := forwardForZone(zone)
	home := &HomeZone{
		Player:      id,
		X:           zone.X,
		Z:           zone.Z,
		Width:       zone.Width,
		Height:      zone.Height,
		Orientation: orientationFromForward(fx, fz),
	}

	minX, maxX, minZ, maxZ := bbox(zone.X, zone.Z, zone.Width, zone.Height)
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			if err := b.Append(board.Coord{X: x, Z: z}, board.Item{Kind: board.ItemHome, Player: id}); err != nil {
				return nil, err
			}
		}
	}

	pieces := placeStandardSixteen(b, id, minX, maxX, minZ, maxZ, home.isVertical(), fx, fz, home.Orientation)

	p := &Player{
		ID:                  id,
		Name:                name,
		Color:               randomHSLColor(rng),
		Balance:             0,
		HomeZone:            home,
		AvailableTetrominos: rollBag(rng),
		CurrentMoveType:     PhaseTetromino,
		Ready:               true,
		Connected:           true,
	}

	return &Registration{Player: p, HomeZone: home, Pieces: pieces}, nil
}

// placeStandardSixteen lays out rooks/knights/bishops/queen/king along the
// zone's long edge furthest from the front, with pawns on the adjacent
// row, per spec §4.7 step 3.
func placeStandardSixteen(b *board.Board, player string, minX, maxX, minZ, maxZ int, vertical bool, fx, fz int, orientation int) []*chess.Piece {
	var fileCoords, pawnCoords [8]board.Coord

	if vertical {
		backX, pawnX := minX, maxX
		if fx <= 0 {
			backX, pawnX = maxX, minX
		}
		for i := 0; i < 8; i++ {
			z := minZ + i
			fileCoords[i] = board.Coord{X: backX, Z: z}
			pawnCoords[i] = board.Coord{X: pawnX, Z: z}
		}
	} else {
		backZ, pawnZ := minZ, maxZ
		if fz <= 0 {
			backZ, pawnZ = maxZ, minZ
		}
		for i := 0; i < 8; i++ {
			x := minX + i
			fileCoords[i] = board.Coord{X: x, Z: backZ}
			pawnCoords[i] = board.Coord{X: x, Z: pawnZ}
		}
	}

	pieces := make([]*chess.Piece, 0, 16)
	for i := 0; i < 8; i++ {
		piece := &chess.Piece{
			ID:          uuid.NewString(),
			Player:      player,
			Type:        backRank[i],
			X:           fileCoords[i].X,
			Z:           fileCoords[i].Z,
			Orientation: orientation,
		}
		b.Append(fileCoords[i], board.Item{Kind: board.ItemChess, Player: player, PieceID: piece.ID, PieceType: string(piece.Type)})
		pieces = append(pieces, piece)

		pawn := &chess.Piece{
			ID:          uuid.NewString(),
			Player:      player,
			Type:        chess.Pawn,
			X:           pawnCoords[i].X,
			Z:           pawnCoords[i].Z,
			Orientation: orientation,
		}
		b.Append(pawnCoords[i], board.Item{Kind: board.ItemChess, Player: player, PieceID: pawn.ID, PieceType: string(pawn.Type)})
		pieces = append(pieces, pawn)
	}
	return pieces
}

func rollBag(rng *rand.Rand) []TetrominoOffer {
	bag := make([]TetrominoOffer, 3)
	for i := range bag {
		bag[i] = TetrominoOffer{
			Kind:     tetromino.AllKinds[rng.Intn(len(tetromino.AllKinds))],
			Rotation: rng.Intn(4),
		}
	}
	return bag
}

func randomHSLColor(rng *rand.Rand) string {
	hue := rng.Intn(360)
	return fmt.Sprintf("hsl(%d,70%%,55%%)", hue)
}
