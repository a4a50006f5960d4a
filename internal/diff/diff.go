// Package diff implements the cell-ID tracking and per-observer
// incremental change computation described in spec §4.9.
//
// Tracker.Sync mutates genuinely shared state and must only be called
// while the owning Game's mutation lock is held (spec §5 — "the cell-ID
// counter and per-observer snapshots are mutated only under the Game
// lock"). It returns an independent copy of the id map for embedding in
// a Snapshot, which Compute then walks lock-free — matching spec §5's
// "network I/O happens after the lock is released, against the snapshot
// produced under the lock".
package diff

import "github.com/shaktris/shaktris-server/internal/board"

// Cell is one tracked board cell: its stable id plus its current items.
// A Cell with a nil Items slice represents a removal in a Change list.
type Cell struct {
	X, Z  int
	ID    int64
	Items []board.Item
}

// Tracker assigns and retires the monotonic cell-ID space shared by every
// observer of one Game. Owned by the Game and only ever touched under
// its mutation lock.
type Tracker struct {
	nextID int64
	ids    map[board.Coord]int64
}

func NewTracker() *Tracker {
	return &Tracker{ids: make(map[board.Coord]int64)}
}

// Sync assigns ids to newly-occupied cells and retires ids for cells
// that have gone empty, then returns an independent copy of the current
// occupied-coord → id map safe to read without the Game lock.
func (t *Tracker) Sync(b *board.Board) map[board.Coord]int64 {
	occupied := make(map[board.Coord]bool)
	for _, c := range b.Occupied() {
		occupied[c] = true
		if _, ok := t.ids[c]; !ok {
			t.nextID++
			t.ids[c] = t.nextID
		}
	}
	for c := range t.ids {
		if !occupied[c] {
			delete(t.ids, c)
		}
	}
	out := make(map[board.Coord]int64, len(t.ids))
	for c, id := range t.ids {
		out[c] = id
	}
	return out
}

// Snapshot is the immutable, post-mutation view handed to the transport
// layer for broadcast. Board must be a clone — never the live Game
// board — so it can be read without the Game lock.
type Snapshot struct {
	Board  *board.Board
	Bounds board.Bounds
	IDs    map[board.Coord]int64
}

// Observer holds the last state known to have been sent to one client.
// Exclusive to the connection it belongs to; never shared across
// goroutines without its own synchronization.
type Observer struct {
	haveSentOnce bool
	lastBounds   board.Bounds
	lastCells    map[board.Coord]sent
}

type sent struct {
	id    int64
	items []board.Item
}

func NewObserver() *Observer {
	return &Observer{lastCells: make(map[board.Coord]sent)}
}

func itemsEqual(a, b []board.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Full reports every cell in snap as a Cell list, for a full-state
// resync.
func Full(snap Snapshot) []Cell {
	out := make([]Cell, 0, len(snap.IDs))
	for c, id := range snap.IDs {
		out = append(out, Cell{X: c.X, Z: c.Z, ID: id, Items: snap.Board.Get(c)})
	}
	return out
}

// Compute returns the set of changes obs needs to catch up to snap,
// lock-free. full==true (and cells holding the entire board) is forced
// when this is the observer's first sync or snap's bounds differ from
// what it last saw, per spec §4.9.
func Compute(snap Snapshot, obs *Observer) (full bool, cells []Cell) {
	if !obs.haveSentOnce || snap.Bounds != obs.lastBounds {
		cells = Full(snap)
		obs.lastCells = make(map[board.Coord]sent, len(cells))
		for _, c := range cells {
			obs.lastCells[board.Coord{X: c.X, Z: c.Z}] = sent{id: c.ID, items: c.Items}
		}
		obs.lastBounds = snap.Bounds
		obs.haveSentOnce = true
		return true, cells
	}

	seen := make(map[board.Coord]bool, len(snap.IDs))
	for c, id := range snap.IDs {
		seen[c] = true
		items := snap.Board.Get(c)
		prev, existed := obs.lastCells[c]
		if !existed || prev.id != id || !itemsEqual(prev.items, items) {
			cells = append(cells, Cell{X: c.X, Z: c.Z, ID: id, Items: items})
			obs.lastCells[c] = sent{id: id, items: items}
		}
	}
	for c := range obs.lastCells {
		if !seen[c] {
			cells = append(cells, Cell{X: c.X, Z: c.Z, ID: 0, Items: nil})
			delete(obs.lastCells, c)
		}
	}
	obs.lastBounds = snap.Bounds
	return false, cells
}
