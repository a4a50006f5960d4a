package board

import "testing"

func TestBoundsTightness(t *testing.T) {
	b := New()
	if !b.Bounds().Empty {
		t.Fatal("expected empty bounds on new board")
	}

	b.Append(Coord{1, 1}, Item{Kind: ItemHome, Player: "p1"})
	b.Append(Coord{-3, 5}, Item{Kind: ItemTetromino, Player: "p1", PieceKind: "I"})
	b.Append(Coord{4, -2}, Item{Kind: ItemChess, Player: "p1", PieceID: "k1"})

	got := b.Bounds()
	want := Bounds{MinX: -3, MaxX: 4, MinZ: -2, MaxZ: 5}
	if got != want {
		t.Fatalf("bounds after inserts = %+v, want %+v", got, want)
	}

	b.Set(Coord{4, -2}, nil)
	got = b.Bounds()
	want = Bounds{MinX: -3, MaxX: 1, MinZ: 1, MaxZ: 5}
	if got != want {
		t.Fatalf("bounds after removing corner = %+v, want %+v", got, want)
	}
}

func TestRemoveWhereClearsEmptyCell(t *testing.T) {
	b := New()
	c := Coord{0, 0}
	b.Append(c, Item{Kind: ItemChess, PieceID: "a"})

	removed, ok := b.RemoveWhere(c, func(it Item) bool { return it.PieceID == "a" })
	if !ok || removed.PieceID != "a" {
		t.Fatalf("expected to remove item a, got %+v ok=%v", removed, ok)
	}
	if b.HasOccupant(c) {
		t.Fatal("expected cell to be empty after removing its only item")
	}
	if !b.Bounds().Empty {
		t.Fatal("expected bounds to reset to empty")
	}
}

func TestAppendStacksHomeWithOtherItem(t *testing.T) {
	b := New()
	c := Coord{2, 2}
	b.Append(c, Item{Kind: ItemHome, Player: "p1"})
	b.Append(c, Item{Kind: ItemChess, Player: "p1", PieceID: "king"})

	if !b.HasType(c, ItemHome) || !b.HasType(c, ItemChess) {
		t.Fatal("expected both home and chess items to coexist")
	}
}

func TestRejectsFarOutOfRangeCoordinates(t *testing.T) {
	b := New()
	if err := b.Append(Coord{20000, 0}, Item{Kind: ItemHome}); err == nil {
		t.Fatal("expected out-of-range coordinate to be rejected")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New()
	c := Coord{0, 0}
	b.Append(c, Item{Kind: ItemHome, Player: "p1"})

	clone := b.Clone()
	clone.Append(c, Item{Kind: ItemChess, Player: "p1", PieceID: "x"})

	if len(b.Get(c)) != 1 {
		t.Fatalf("original board mutated by clone, got %d items", len(b.Get(c)))
	}
	if len(clone.Get(c)) != 2 {
		t.Fatalf("clone did not receive its own append, got %d items", len(clone.Get(c)))
	}
}
