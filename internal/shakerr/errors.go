// Package shakerr defines the error taxonomy shared by every engine
// component and the transport layer that reports them to clients.
package shakerr

import "fmt"

// Kind is the stable, client-facing error identifier from spec §6/§7.
type Kind string

const (
	NotFound            Kind = "not_found"
	NotYourTurnPhase     Kind = "not_your_turn_phase"
	RateLimited          Kind = "rate_limited"
	InvalidCoordinates   Kind = "invalid_coordinates"
	InvalidPieceType     Kind = "invalid_piece_type"
	InvalidRotation      Kind = "invalid_rotation"
	NotReachableFromKing Kind = "not_reachable_from_king"
	CellOccupied         Kind = "cell_occupied"
	InsufficientFunds    Kind = "insufficient_funds"
	PathObstructed       Kind = "path_obstructed"
	Eliminated           Kind = "eliminated"
	Busy                 Kind = "busy"
	Internal             Kind = "internal"
)

// Error is the typed error every engine operation returns on rejection.
// WaitMs is only meaningful for RateLimited.
type Error struct {
	Kind    Kind
	Message string
	WaitMs  int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func RateLimit(waitMs int64) *Error {
	return &Error{Kind: RateLimited, Message: "action rejected by rate limit", WaitMs: waitMs}
}

// Is lets callers use errors.Is(err, shakerr.New(shakerr.NotFound, ""))
// via a comparison on Kind rather than identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
