// Package chess implements per-type move legality, path obstruction,
// execution and promotion for chess pieces living on the shared sparse
// board, per spec §4.4. Grounded on the teacher's pieceShapes-style
// per-kind lookup table idiom (internal/models/tetris/tetrimino.go) and
// on the geometric move families enumerated in the corpus's chess
// engines (chessvariantengine-lib/movegen.go's Figure-keyed dispatch,
// easychessanimations-zurichess's per-piece move generators), adapted
// from their fixed 8x8 bitboards to this board's unbounded coordinate
// plane — no bitboards, no check/checkmate search, since king capture
// ends the game outright (spec §4.4.1).
package chess

import (
	"github.com/shaktris/shaktris-server/internal/board"
	"github.com/shaktris/shaktris-server/internal/shakerr"
)

// Type is one of the six standard chess piece kinds.
type Type string

const (
	Pawn   Type = "PAWN"
	Rook   Type = "ROOK"
	Knight Type = "KNIGHT"
	Bishop Type = "BISHOP"
	Queen  Type = "QUEEN"
	King   Type = "KING"
)

// Piece is the canonical record for one chess piece, owned by the Game's
// piece arena and cross-referenced from board cells by ID (spec §9 — the
// board never embeds the full struct).
type Piece struct {
	ID           string
	Player       string
	Type         Type
	X, Z         int
	Orientation  int // 0:+Z 1:+X 2:-Z 3:-X, set at creation from the home zone's facing
	HasMoved     bool
	MoveDistance int
}

// ForwardVector returns the unit step a pawn of the given orientation
// considers "forward" — derived explicitly per spec's redesign note,
// rather than assuming the teacher source's simple +Z case.
func ForwardVector(orientation int) (dx, dz int) {
	switch ((orientation % 4) + 4) % 4 {
	case 0:
		return 0, 1
	case 1:
		return 1, 0
	case 2:
		return 0, -1
	default:
		return -1, 0
	}
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

// chessItemAt returns the chess item at c, if any.
func chessItemAt(b *board.Board, c board.Coord) (board.Item, bool) {
	for _, it := range b.Get(c) {
		if it.Kind == board.ItemChess {
			return it, true
		}
	}
	return board.Item{}, false
}

// cellsBetween lists the intermediate cells strictly between from and to
// along a straight or diagonal line. Callers must have already confirmed
// the line is straight/diagonal; knight moves never call this.
func cellsBetween(from, to board.Coord) []board.Coord {
	dx := sign(to.X - from.X)
	dz := sign(to.Z - from.Z)
	var out []board.Coord
	c := board.Coord{X: from.X + dx, Z: from.Z + dz}
	for c != to {
		out = append(out, c)
		c = board.Coord{X: c.X + dx, Z: c.Z + dz}
	}
	return out
}

func pathClear(b *board.Board, from, to board.Coord) bool {
	for _, c := range cellsBetween(from, to) {
		if _, ok := chessItemAt(b, c); ok {
			return false
		}
	}
	return true
}

// Validate implements spec §4.4's per-type legality and path-obstruction
// rules for moving piece to (toX, toZ).
func Validate(b *board.Board, piece Piece, toX, toZ int) error {
	from := board.Coord{X: piece.X, Z: piece.Z}
	to := board.Coord{X: toX, Z: toZ}
	dx := toX - piece.X
	dz := toZ - piece.Z
	if dx == 0 && dz == 0 {
		return shakerr.New(shakerr.InvalidCoordinates, "move target equals source")
	}

	if target, ok := chessItemAt(b, to); ok && target.Player == piece.Player {
		return shakerr.New(shakerr.CellOccupied, "target cell holds a piece of your own")
	}

	switch piece.Type {
	case Pawn:
		return validatePawn(b, piece, dx, dz, to)
	case Rook:
		if dx != 0 && dz != 0 {
			return shakerr.New(shakerr.InvalidCoordinates, "rook must move along a single axis")
		}
	case Knight:
		if !((abs(dx) == 1 && abs(dz) == 2) || (abs(dx) == 2 && abs(dz) == 1)) {
			return shakerr.New(shakerr.InvalidCoordinates, "knight must move in an L shape")
		}
		return nil // jumps — no path check
	case Bishop:
		if abs(dx) != abs(dz) || dx == 0 {
			return shakerr.New(shakerr.InvalidCoordinates, "bishop must move diagonally")
		}
	case Queen:
		straight := dx == 0 || dz == 0
		diagonal := abs(dx) == abs(dz)
		if !straight && !diagonal {
			return shakerr.New(shakerr.InvalidCoordinates, "queen must move straight or diagonally")
		}
	case King:
		if abs(dx) > 1 || abs(dz) > 1 {
			return shakerr.New(shakerr.InvalidCoordinates, "king must move one cell")
		}
		return nil // adjacent — no intermediate cells to obstruct
	default:
		return shakerr.New(shakerr.InvalidPieceType, "unknown chess piece type")
	}

	if !pathClear(b, from, to) {
		return shakerr.New(shakerr.PathObstructed, "a piece blocks the path")
	}
	return nil
}

func validatePawn(b *board.Board, piece Piece, dx, dz int, to board.Coord) error {
	fx, fz := ForwardVector(piece.Orientation)
	_, targetHasChess := chessItemAt(b, to)

	if dx == fx && dz == fz {
		if targetHasChess {
			return shakerr.New(shakerr.CellOccupied, "pawn cannot advance into an occupied cell")
		}
		return nil
	}
	if !piece.HasMoved && dx == 2*fx && dz == 2*fz {
		mid := board.Coord{X: piece.X + fx, Z: piece.Z + fz}
		if _, ok := chessItemAt(b, mid); ok {
			return shakerr.New(shakerr.PathObstructed, "a piece blocks the pawn's double step")
		}
		if targetHasChess {
			return shakerr.New(shakerr.CellOccupied, "pawn cannot advance into an occupied cell")
		}
		return nil
	}

	sideX, sideZ := -fz, fx // perpendicular unit vector
	diag1 := [2]int{fx + sideX, fz + sideZ}
	diag2 := [2]int{fx - sideX, fz - sideZ}
	if (dx == diag1[0] && dz == diag1[1]) || (dx == diag2[0] && dz == diag2[1]) {
		if !targetHasChess {
			return shakerr.New(shakerr.InvalidCoordinates, "pawn can only move diagonally to capture")
		}
		return nil
	}
	return shakerr.New(shakerr.InvalidCoordinates, "illegal pawn move")
}

// ExecuteResult reports the side effects of a successful Execute call.
type ExecuteResult struct {
	Captured     *Piece
	KingCaptured bool
	Promoted     bool
}

// Execute applies an already-validated move: removes the source item,
// resolves any capture, writes the target item, advances move-tracking
// state and applies pawn promotion, per spec §4.4's Execution steps 1-3.
// Island reconciliation (step 4) is the caller's responsibility, since it
// requires the full player/king context this package does not own.
func Execute(b *board.Board, pieces map[string]*Piece, mover *Piece, toX, toZ int, promotionDistance int, promotionType Type) (ExecuteResult, error) {
	if err := Validate(b, *mover, toX, toZ); err != nil {
		return ExecuteResult{}, err
	}

	from := board.Coord{X: mover.X, Z: mover.Z}
	to := board.Coord{X: toX, Z: toZ}

	if _, ok := b.RemoveWhere(from, func(it board.Item) bool {
		return it.Kind == board.ItemChess && it.PieceID == mover.ID
	}); !ok {
		return ExecuteResult{}, shakerr.New(shakerr.Internal, "mover's chess item missing from its own cell")
	}

	var result ExecuteResult
	if capturedItem, ok := b.RemoveWhere(to, func(it board.Item) bool { return it.Kind == board.ItemChess }); ok {
		if capturedPiece, found := pieces[capturedItem.PieceID]; found {
			result.Captured = capturedPiece
			result.KingCaptured = capturedPiece.Type == King
		}
	}

	dx := toX - mover.X
	dz := toZ - mover.Z
	mover.X, mover.Z = toX, toZ
	mover.HasMoved = true

	if mover.Type == Pawn {
		fx, fz := ForwardVector(mover.Orientation)
		forwardComponent := dx*fx + dz*fz
		mover.MoveDistance += abs(forwardComponent)
		if mover.MoveDistance >= promotionDistance {
			mover.Type = promotionType
			result.Promoted = true
		}
	}

	if err := b.Append(to, board.Item{Kind: board.ItemChess, Player: mover.Player, PieceID: mover.ID, PieceType: string(mover.Type)}); err != nil {
		return ExecuteResult{}, err
	}
	return result, nil
}
