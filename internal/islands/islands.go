// Package islands implements connected-component discovery and
// king-reachability enforcement over a player's non-home board cells,
// per spec §4.5. Grounded on the teacher's BFS-free style (the teacher
// never needed graph algorithms), generalized from the corpus's other
// board-game connectivity code (e.g. other_examples' hexxagon/topology
// pool BFS patterns) into an orthogonal 4-neighbour BFS.
package islands

import "github.com/shaktris/shaktris-server/internal/board"

var neighbourOffsets = [4]board.Coord{{X: 1, Z: 0}, {X: -1, Z: 0}, {X: 0, Z: 1}, {X: 0, Z: -1}}

// ownsNonHome reports whether c holds a non-home item belonging to
// player, and returns the chess piece id if that item is a chess piece.
func ownsNonHome(b *board.Board, player string, c board.Coord) (owns bool, chessID string) {
	for _, it := range b.Get(c) {
		if it.Kind == board.ItemHome {
			continue
		}
		if it.Player != player {
			continue
		}
		if it.Kind == board.ItemChess {
			return true, it.PieceID
		}
		return true, ""
	}
	return false, ""
}

// HasPathToKing runs a BFS from start over player's own non-home occupied
// cells and reports whether it reaches kingCoord. start itself must
// already hold a non-home item of player's, or the search trivially fails
// unless start == kingCoord.
func HasPathToKing(b *board.Board, player string, start, kingCoord board.Coord) bool {
	if start == kingCoord {
		return true
	}
	if owns, _ := ownsNonHome(b, player, start); !owns {
		return false
	}
	visited := map[board.Coord]bool{start: true}
	queue := []board.Coord{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, off := range neighbourOffsets {
			next := board.Coord{X: cur.X + off.X, Z: cur.Z + off.Z}
			if visited[next] {
				continue
			}
			if next == kingCoord {
				return true
			}
			if owns, _ := ownsNonHome(b, player, next); owns {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// component collects one connected set of player's non-home cells
// starting from seed, using and updating the shared visited set.
func component(b *board.Board, player string, seed board.Coord, visited map[board.Coord]bool) []board.Coord {
	cells := []board.Coord{seed}
	visited[seed] = true
	queue := []board.Coord{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, off := range neighbourOffsets {
			next := board.Coord{X: cur.X + off.X, Z: cur.Z + off.Z}
			if visited[next] {
				continue
			}
			if owns, _ := ownsNonHome(b, player, next); owns {
				visited[next] = true
				cells = append(cells, next)
				queue = append(queue, next)
			}
		}
	}
	return cells
}

// componentsOf enumerates every connected component of player's
// non-home cells on the board.
func componentsOf(b *board.Board, player string) [][]board.Coord {
	visited := make(map[board.Coord]bool)
	var comps [][]board.Coord
	for _, c := range b.Occupied() {
		if visited[c] {
			continue
		}
		if owns, _ := ownsNonHome(b, player, c); !owns {
			continue
		}
		comps = append(comps, component(b, player, c, visited))
	}
	return comps
}

// removeComponent drops every non-home item belonging to player from
// comp's cells, returning the ids of any chess pieces destroyed.
func removeComponent(b *board.Board, player string, comp []board.Coord) []string {
	var orphanedChessIDs []string
	for _, cc := range comp {
		remaining := b.Get(cc)
		var kept []board.Item
		for _, it := range remaining {
			if it.Kind == board.ItemHome {
				kept = append(kept, it)
				continue
			}
			if it.Player == player {
				if it.Kind == board.ItemChess {
					orphanedChessIDs = append(orphanedChessIDs, it.PieceID)
				}
				continue // drop: the component being removed
			}
			kept = append(kept, it)
		}
		b.Set(cc, kept)
	}
	return orphanedChessIDs
}

// RemoveLargest deletes player's single largest connected component of
// non-home cells, per spec §4.7's pause-timeout penalty. It returns the
// ids of any chess pieces that component held, king included.
func RemoveLargest(b *board.Board, player string) []string {
	comps := componentsOf(b, player)
	if len(comps) == 0 {
		return nil
	}
	largest := comps[0]
	for _, c := range comps[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}
	return removeComponent(b, player, largest)
}

// Reconcile enumerates player's connected components of non-home cells
// and deletes every component that does not contain kingCoord, per spec
// §4.5. It returns the ids of chess pieces destroyed by the cleanup
// ("orphan event per piece").
func Reconcile(b *board.Board, player string, kingCoord board.Coord) []string {
	visited := make(map[board.Coord]bool)
	var orphanedChessIDs []string

	for _, c := range b.Occupied() {
		if visited[c] {
			continue
		}
		if owns, _ := ownsNonHome(b, player, c); !owns {
			continue
		}
		comp := component(b, player, c, visited)

		alive := false
		for _, cc := range comp {
			if cc == kingCoord {
				alive = true
				break
			}
		}
		if alive {
			continue
		}

		for _, cc := range comp {
			remaining := b.Get(cc)
			var kept []board.Item
			for _, it := range remaining {
				if it.Kind == board.ItemHome {
					kept = append(kept, it)
					continue
				}
				if it.Player == player {
					if it.Kind == board.ItemChess {
						orphanedChessIDs = append(orphanedChessIDs, it.PieceID)
					}
					continue // drop: orphaned non-home item
				}
				kept = append(kept, it)
			}
			b.Set(cc, kept)
		}
	}
	return orphanedChessIDs
}
