package chess

import (
	"testing"

	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/shakerr"
)

func TestPawnSingleAndDoubleStep(t *testing.T) {
	b := board.New()
	p := Piece{ID: "p1", Player: "a", Type: Pawn, X: 0, Z: 0, Orientation: 0}
	b.Append(board.Coord{X: 0, Z: 0}, board.Item{Kind: board.ItemChess, Player: "a", PieceID: "p1", PieceType: string(Pawn)})

	if err := Validate(b, p, 0, 1); err != nil {
		t.Fatalf("single forward step should be legal: %v", err)
	}
	if err := Validate(b, p, 0, 2); err != nil {
		t.Fatalf("double step from unmoved pawn should be legal: %v", err)
	}

	p.HasMoved = true
	if err := Validate(b, p, 0, 2); err == nil {
		t.Fatal("double step after first move should be illegal")
	}
}

func TestPawnDiagonalRequiresCapture(t *testing.T) {
	b := board.New()
	p := Piece{ID: "p1", Player: "a", Type: Pawn, X: 0, Z: 0, Orientation: 0}

	if err := Validate(b, p, 1, 1); err == nil {
		t.Fatal("diagonal move onto empty cell should be illegal")
	}

	b.Append(board.Coord{X: 1, Z: 1}, board.Item{Kind: board.ItemChess, Player: "b", PieceID: "enemy"})
	if err := Validate(b, p, 1, 1); err != nil {
		t.Fatalf("diagonal capture should be legal: %v", err)
	}
}

func TestKnightJumpsOverPieces(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 1}, board.Item{Kind: board.ItemChess, Player: "a", PieceID: "blocker"})
	p := Piece{ID: "n1", Player: "a", Type: Knight, X: 0, Z: 0}

	if err := Validate(b, p, 1, 2); err != nil {
		t.Fatalf("knight should jump over an intervening piece: %v", err)
	}
}

func TestRookBlockedByIntermediatePiece(t *testing.T) {
	b := board.New()
	b.Append(board.Coord{X: 0, Z: 2}, board.Item{Kind: board.ItemChess, Player: "b", PieceID: "blocker"})
	p := Piece{ID: "r1", Player: "a", Type: Rook, X: 0, Z: 0}

	err := Validate(b, p, 0, 4)
	if se, ok := err.(*shakerr.Error); !ok || se.Kind != shakerr.PathObstructed {
		t.Fatalf("expected path_obstructed, got %v", err)
	}
}

func TestBishopDiagonalAndBlocking(t *testing.T) {
	b := board.New()
	p := Piece{ID: "b1", Player: "a", Type: Bishop, X: 0, Z: 0}
	if err := Validate(b, p, 1, 0); err == nil {
		t.Fatal("bishop cannot move orthogonally")
	}
	if err := Validate(b, p, 3, 3); err != nil {
		t.Fatalf("clear diagonal should be legal: %v", err)
	}
}

func TestKingOneStepAnyDirection(t *testing.T) {
	p := Piece{ID: "k1", Player: "a", Type: King, X: 0, Z: 0}
	b := board.New()
	if err := Validate(b, p, 1, 1); err != nil {
		t.Fatalf("king diagonal step should be legal: %v", err)
	}
	if err := Validate(b, p, 2, 0); err == nil {
		t.Fatal("king cannot move two cells")
	}
}

func TestExecuteCaptureAndPromotion(t *testing.T) {
	b := board.New()
	pawn := &Piece{ID: "pawn1", Player: "a", Type: Pawn, X: 0, Z: 7, Orientation: 0, MoveDistance: 7}
	enemy := &Piece{ID: "king1", Player: "b", Type: King, X: 1, Z: 8}
	b.Append(board.Coord{X: 0, Z: 7}, board.Item{Kind: board.ItemChess, Player: "a", PieceID: "pawn1", PieceType: string(Pawn)})
	b.Append(board.Coord{X: 1, Z: 8}, board.Item{Kind: board.ItemChess, Player: "b", PieceID: "king1", PieceType: string(King)})

	pieces := map[string]*Piece{"pawn1": pawn, "king1": enemy}

	result, err := Execute(b, pieces, pawn, 1, 8, 8, Knight)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Captured == nil || result.Captured.ID != "king1" {
		t.Fatalf("expected king1 captured, got %+v", result.Captured)
	}
	if !result.KingCaptured {
		t.Fatal("expected KingCaptured=true")
	}
	if !result.Promoted || pawn.Type != Knight {
		t.Fatalf("expected pawn promoted to knight, got type=%v promoted=%v", pawn.Type, result.Promoted)
	}
	if b.HasOccupant(board.Coord{X: 0, Z: 7}) {
		t.Fatal("source cell should be empty after move")
	}
	items := b.Get(board.Coord{X: 1, Z: 8})
	if len(items) != 1 || items[0].PieceType != string(Knight) {
		t.Fatalf("expected single promoted knight item at target, got %+v", items)
	}
}
