// Package rowclear implements row-density detection, row clearing and
// king-directed gravity, per spec §4.6. Grounded on the teacher's
// ClearLines (internal/models/tetris/board.go), generalized from a fixed
// 10-wide array scan to a scan over the sparse board's tracked bounds,
// and from "shift everything down one row" to per-player king-directed
// movement since there is no single shared gravity direction here.
package rowclear

import (
	"sort"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/chess"
)

// RequiredConsecutive is the default longest-run threshold; callers
// normally pass config.Tunables.RequiredConsecutive instead.
const RequiredConsecutive = 8

// SafeCell reports whether c lies inside a currently-safe home zone (a
// home zone containing at least one of its owner's chess pieces).
type SafeCell func(c board.Coord) bool

// ClearRows scans every Z row within the board's current bounds and
// clears any row whose longest run of occupied, non-safe cells reaches
// required. It returns the cleared Z values and the ids of chess pieces
// destroyed by the clear.
func ClearRows(b *board.Board, required int, safe SafeCell) (clearedRows []int, destroyedChessIDs []string) {
	bounds := b.Bounds()
	if bounds.Empty {
		return nil, nil
	}

	for z := bounds.MinZ; z <= bounds.MaxZ; z++ {
		run := 0
		best := 0
		for x := bounds.MinX; x <= bounds.MaxX; x++ {
			c := board.Coord{X: x, Z: z}
			if b.HasOccupant(c) && !safe(c) {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		if best < required {
			continue
		}

		clearedRows = append(clearedRows, z)
		for x := bounds.MinX; x <= bounds.MaxX; x++ {
			c := board.Coord{X: x, Z: z}
			if safe(c) {
				continue
			}
			items := b.Get(c)
			if len(items) == 0 {
				continue
			}
			var kept []board.Item
			for _, it := range items {
				if it.Kind == board.ItemHome {
					kept = append(kept, it)
					continue
				}
				if it.Kind == board.ItemChess {
					destroyedChessIDs = append(destroyedChessIDs, it.PieceID)
				}
			}
			b.Set(c, kept)
		}
	}
	return clearedRows, destroyedChessIDs
}

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

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// KingLookup resolves a player's current king coordinate.
type KingLookup func(player string) (c board.Coord, ok bool)

type movable struct {
	coord board.Coord
	owner board.Item
}

// Gravity moves every surviving, non-safe cell of each player one step at
// a time toward that player's king, along the axis with the larger
// absolute delta (ties break toward Z), iterating to a fixed point. It
// returns the set of players whose content moved, so callers can run
// Islands.Reconcile for exactly those players (spec §4.6).
func Gravity(b *board.Board, players []string, king KingLookup, safe SafeCell, pieces map[string]*chess.Piece) map[string]bool {
	moved := make(map[string]bool)

	for _, player := range players {
		kingPos, ok := king(player)
		if !ok {
			continue
		}

		for pass := 0; pass < 100000; pass++ {
			var candidates []movable
			for _, c := range b.Occupied() {
				if safe(c) {
					continue
				}
				for _, it := range b.Get(c) {
					if it.Kind != board.ItemHome && it.Player == player {
						candidates = append(candidates, movable{coord: c, owner: it})
					}
				}
			}
			if len(candidates) == 0 {
				break
			}
			sort.Slice(candidates, func(i, j int) bool {
				if candidates[i].coord.X != candidates[j].coord.X {
					return candidates[i].coord.X < candidates[j].coord.X
				}
				return candidates[i].coord.Z < candidates[j].coord.Z
			})

			movedThisPass := false
			for _, cand := range candidates {
				c := cand.coord
				dx := kingPos.X - c.X
				dz := kingPos.Z - c.Z
				if dx == 0 && dz == 0 {
					continue
				}

				var stepX, stepZ int
				if abs(dx) > abs(dz) {
					stepX = sign(dx)
				} else {
					stepZ = sign(dz)
				}
				dest := board.Coord{X: c.X + stepX, Z: c.Z + stepZ}
				if b.HasOccupant(dest) {
					continue
				}

				item, ok := b.RemoveWhere(c, func(it board.Item) bool {
					return it.Kind == cand.owner.Kind && it.Player == cand.owner.Player && it.PieceID == cand.owner.PieceID && it.PieceKind == cand.owner.PieceKind
				})
				if !ok {
					continue
				}
				if err := b.Append(dest, item); err != nil {
					b.Append(c, item) // put it back; destination rejected
					continue
				}
				if item.Kind == board.ItemChess {
					if p, found := pieces[item.PieceID]; found {
						p.X, p.Z = dest.X, dest.Z
					}
				}
				moved[player] = true
				movedThisPass = true
			}
			if !movedThisPass {
				break
			}
		}
	}
	return moved
}
