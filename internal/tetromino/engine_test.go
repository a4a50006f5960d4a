package tetromino

import (
	"errors"
	"testing"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/shakerr"
)

func noKing(string) (board.Coord, bool) { return board.Coord{}, false }

func TestValidateFirstPlacementRequiresHomeAdjacency(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 0}, board.Item{Kind: board.ItemHome, Player: "p1"})

	home := func(player string, x, z int) bool { return player == "p1" && x == 0 && z == 0 }

	p := Placement{Kind: O, Rotation: 0, AnchorX: -1, AnchorZ: -1, Y: 0, Player: "p1"}
	explode, err := Validate(b, p, false, noKing, home)
	if err != nil || explode {
		t.Fatalf("expected valid first placement adjacent to home, got explode=%v err=%v", explode, err)
	}
}

func TestValidateFirstPlacementRejectsDisconnected(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 0}, board.Item{Kind: board.ItemHome, Player: "p1"})

	home := func(player string, x, z int) bool { return player == "p1" && x == 0 && z == 0 }

	p := Placement{Kind: O, Rotation: 0, AnchorX: 50, AnchorZ: 50, Y: 0, Player: "p1"}
	_, err := Validate(b, p, false, noKing, home)
	if !errors.Is(err, shakerr.New(shakerr.NotReachableFromKing, "")) {
		t.Fatalf("expected not_reachable_from_king, got %v", err)
	}
}

func TestValidateAirborneExplodesOnCollision(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 1}, board.Item{Kind: board.ItemTetromino, Player: "p2"})

	p := Placement{Kind: O, Rotation: 0, AnchorX: 0, AnchorZ: 0, Y: 1, Player: "p1"}
	explode, err := Validate(b, p, true, noKing, nil)
	if err != nil || !explode {
		t.Fatalf("expected silent explosion, got explode=%v err=%v", explode, err)
	}
}

func TestValidateAirborneWithoutCollisionIsInvalid(t *testing.T) {
	b := board.New()
	p := Placement{Kind: O, Rotation: 0, AnchorX: 0, AnchorZ: 0, Y: 1, Player: "p1"}
	_, err := Validate(b, p, true, noKing, nil)
	if err == nil {
		t.Fatal("expected error for non-colliding airborne check")
	}
}

func TestValidateRejectsOccupiedNonHomeCell(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 0}, board.Item{Kind: board.ItemChess, Player: "p2", PieceID: "x"})

	p := Placement{Kind: O, Rotation: 0, AnchorX: 0, AnchorZ: 0, Y: 0, Player: "p1"}
	_, err := Validate(b, p, true, noKing, nil)
	if !errors.Is(err, shakerr.New(shakerr.CellOccupied, "")) {
		t.Fatalf("expected cell_occupied, got %v", err)
	}
}

func TestValidateSubsequentPlacementRequiresPathToKing(t *testing.T) {
	b := board.New()
	kingPos := board.Coord{X: 0, Z: 0}
	b.Append(kingPos, board.Item{Kind: board.ItemChess, Player: "p1", PieceID: "king", PieceType: "KING"})
	b.Append(board.Coord{X: 1, Z: 0}, board.Item{Kind: board.ItemTetromino, Player: "p1", PieceKind: "I"})

	king := func(player string) (board.Coord, bool) {
		if player == "p1" {
			return kingPos, true
		}
		return board.Coord{}, false
	}

	p := Placement{Kind: O, Rotation: 0, AnchorX: 2, AnchorZ: 0, Y: 0, Player: "p1"}
	explode, err := Validate(b, p, true, king, nil)
	if err != nil || explode {
		t.Fatalf("expected placement connected through existing piece to king, got explode=%v err=%v", explode, err)
	}
}

func TestPlaceAppendsCellsAndPreservesHome(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 0}, board.Item{Kind: board.ItemHome, Player: "p1"})

	p := Placement{Kind: O, Rotation: 0, AnchorX: -1, AnchorZ: -1, Y: 0, Player: "p1"}
	if err := Place(b, p); err != nil {
		t.Fatalf("place: %v", err)
	}

	if !b.HasType(board.Coord{X: 0, Z: 0}, board.ItemHome) {
		t.Fatal("expected home item preserved under placed tetromino cell")
	}
	if !b.HasType(board.Coord{X: 0, Z: 0}, board.ItemTetromino) {
		t.Fatal("expected tetromino cell at (0,0)")
	}
	if !b.HasType(board.Coord{X: -1, Z: -1}, board.ItemTetromino) {
		t.Fatal("expected tetromino cell at anchor (-1,-1)")
	}
}
