package rowclear

import (
	"testing"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/chess"
)

func noneSafe(board.Coord) bool { return false }

func TestClearRowsRemovesFullRun(t *testing.T) {
	b := board.New()
	for x := 0; x < 8; x++ {
		b.Append(board.Coord{X: x, Z: 0}, board.Item{Kind: board.ItemTetromino, Player: "p1"})
	}

	cleared, _ := ClearRows(b, 8, noneSafe)
	if len(cleared) != 1 || cleared[0] != 0 {
		t.Fatalf("expected row 0 cleared, got %v", cleared)
	}
	for x := 0; x < 8; x++ {
		if b.HasOccupant(board.Coord{X: x, Z: 0}) {
			t.Fatalf("expected cell (%d,0) cleared", x)
		}
	}
}

func TestClearRowsPreservesSafeHomeCells(t *testing.T) {
	b := board.New()
	for x := 0; x < 9; x++ {
		b.Append(board.Coord{X: x, Z: 0}, board.Item{Kind: board.ItemTetromino, Player: "p1"})
	}
	// cells 5..8 belong to a safe home zone and must survive.
	safeSet := map[board.Coord]bool{
		{X: 5, Z: 0}: true, {X: 6, Z: 0}: true, {X: 7, Z: 0}: true, {X: 8, Z: 0}: true,
	}
	safe := func(c board.Coord) bool { return safeSet[c] }

	cleared, _ := ClearRows(b, 8, safe)
	if len(cleared) != 1 {
		t.Fatalf("expected row cleared (run of 5 at x=0..4), got %v", cleared)
	}
	for x := 0; x < 5; x++ {
		if b.HasOccupant(board.Coord{X: x, Z: 0}) {
			t.Fatalf("expected non-safe cell (%d,0) cleared", x)
		}
	}
	for c := range safeSet {
		if !b.HasOccupant(c) {
			t.Fatalf("expected safe home cell %+v preserved", c)
		}
	}
}

func TestClearRowsSkipsShortRuns(t *testing.T) {
	b := board.New()
	for x := 0; x < 7; x++ {
		b.Append(board.Coord{X: x, Z: 0}, board.Item{Kind: board.ItemTetromino, Player: "p1"})
	}
	cleared, _ := ClearRows(b, 8, noneSafe)
	if len(cleared) != 0 {
		t.Fatalf("expected no row cleared for a 7-cell run, got %v", cleared)
	}
}

func TestGravityMovesCellTowardKing(t *testing.T) {
	b := board.New()
	king := board.Coord{X: 0, Z: 0}
	b.Append(king, board.Item{Kind: board.ItemChess, Player: "p1", PieceID: "king1"})
	b.Append(board.Coord{X: 3, Z: 0}, board.Item{Kind: board.ItemTetromino, Player: "p1"})

	pieces := map[string]*chess.Piece{"king1": {ID: "king1", Player: "p1", Type: chess.King, X: 0, Z: 0}}
	kingLookup := func(player string) (board.Coord, bool) {
		if player == "p1" {
			return king, true
		}
		return board.Coord{}, false
	}

	moved := Gravity(b, []string{"p1"}, kingLookup, noneSafe, pieces)
	if !moved["p1"] {
		t.Fatal("expected p1 to be reported as moved")
	}
	if b.HasOccupant(board.Coord{X: 3, Z: 0}) {
		t.Fatal("expected original cell vacated")
	}
	if !b.HasOccupant(board.Coord{X: 1, Z: 0}) {
		t.Fatal("expected the tetromino cell to have settled adjacent to the king")
	}
}
