package tetromino

import (
	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/islands"
	"github.com/shaktris/shaktris-server/internal/shakerr"
)

var cellOffsets = [4]board.Coord{{X: 1, Z: 0}, {X: -1, Z: 0}, {X: 0, Z: 1}, {X: 0, Z: -1}}

// Placement describes one candidate tetromino drop, anchored at
// (AnchorX, AnchorZ) with Y carrying the spec's two-stage fall semantics:
// Y==1 is the airborne collision check, Y==0 is the resting placement.
type Placement struct {
	Kind    Kind
	Rotation int
	AnchorX, AnchorZ int
	Y       int
	Player  string
}

// KingLookup resolves a player's current king coordinate, or ok=false if
// the player has no king yet (pre-chess-phase or eliminated).
type KingLookup func(player string) (c board.Coord, ok bool)

// HomeZoneLookup reports whether (x,z) lies within player's home zone.
type HomeZoneLookup func(player string, x, z int) bool

// targetCells translates a shape's relative Cell offsets into absolute
// board coordinates anchored at (anchorX, anchorZ).
func targetCells(kind Kind, rotation, anchorX, anchorZ int) ([]board.Coord, error) {
	cells, ok := CellsFor(kind, rotation)
	if !ok {
		return nil, shakerr.New(shakerr.InvalidPieceType, "unknown tetromino kind")
	}
	out := make([]board.Coord, len(cells))
	for i, c := range cells {
		out[i] = board.Coord{X: anchorX + c.Col, Z: anchorZ + c.Row}
	}
	return out, nil
}

// Validate implements spec §4.3's placement validation. hasPriorPlacement
// reports whether the player has placed before; when it is false (the
// player's first placement) the connectivity rule is relaxed to "adjacent
// to home zone" instead of "adjacent to an existing owned cell with a path
// to king".
//
// It returns (explode=true, nil) for the silent-success airborne-collision
// case; callers must not append any items in that case.
func Validate(b *board.Board, p Placement, hasPriorPlacement bool, king KingLookup, homeZone HomeZoneLookup) (explode bool, err error) {
	if !ValidKind(p.Kind) {
		return false, shakerr.New(shakerr.InvalidPieceType, "unknown tetromino kind")
	}
	cells, err := targetCells(p.Kind, p.Rotation, p.AnchorX, p.AnchorZ)
	if err != nil {
		return false, err
	}

	if p.Y == 1 {
		for _, c := range cells {
			if b.HasOccupant(c) {
				return true, nil
			}
		}
		return false, shakerr.New(shakerr.InvalidCoordinates, "airborne placement did not collide with anything")
	}
	if p.Y != 0 {
		return false, shakerr.New(shakerr.InvalidCoordinates, "tetromino y must be 0 or 1")
	}

	for _, c := range cells {
		for _, it := range b.Get(c) {
			if it.Kind != board.ItemHome {
				return false, shakerr.New(shakerr.CellOccupied, "target cell already occupied")
			}
		}
	}

	if !connectivityOK(b, p.Player, cells, hasPriorPlacement, king, homeZone) {
		return false, shakerr.New(shakerr.NotReachableFromKing, "placement is not connected to the player's territory")
	}
	return false, nil
}

func connectivityOK(b *board.Board, player string, cells []board.Coord, hasPriorPlacement bool, king KingLookup, homeZone HomeZoneLookup) bool {
	for _, c := range cells {
		for _, off := range cellOffsets {
			adj := board.Coord{X: c.X + off.X, Z: c.Z + off.Z}

			if !hasPriorPlacement {
				if homeZone != nil && homeZone(player, adj.X, adj.Z) {
					return true
				}
				continue
			}

			owned := false
			for _, it := range b.Get(adj) {
				if it.Kind != board.ItemHome && it.Player == player {
					owned = true
					break
				}
			}
			if !owned {
				continue
			}
			kc, ok := king(player)
			if !ok {
				continue
			}
			if islands.HasPathToKing(b, player, adj, kc) {
				return true
			}
		}
	}
	return false
}

// Place appends a placement's shape cells as tetromino items. Callers must
// have already run Validate and confirmed explode==false, err==nil. Home
// items already present at a target cell are preserved (spec §4.3).
func Place(b *board.Board, p Placement) error {
	cells, err := targetCells(p.Kind, p.Rotation, p.AnchorX, p.AnchorZ)
	if err != nil {
		return err
	}
	for _, c := range cells {
		if err := b.Append(c, board.Item{Kind: board.ItemTetromino, Player: p.Player, PieceKind: string(p.Kind)}); err != nil {
			return err
		}
	}
	return nil
}
