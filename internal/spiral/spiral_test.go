package spiral

import (
	"fmt"
	"testing"
)

func TestFivePlayersNonOverlapping(t *testing.T) {
	p := New(16)
	var zones []Zone
	for i := 0; i < 5; i++ {
		z, err := p.Place(fmt.Sprintf("p%d", i), i)
		if err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
		zones = append(zones, z)
	}

	want := []struct{ x, z int }{{0, 0}, {16, 0}, {0, 16}, {-16, 0}, {0, -16}}
	for i, w := range want {
		if zones[i].X != w.x || zones[i].Z != w.z {
			t.Errorf("zone %d center = (%d,%d), want (%d,%d)", i, zones[i].X, zones[i].Z, w.x, w.z)
		}
	}

	for i := 0; i < len(zones); i++ {
		for j := i + 1; j < len(zones); j++ {
			if overlaps(zones[i], zones[j]) {
				t.Errorf("zones %d and %d overlap", i, j)
			}
		}
	}
}

func TestOverlapIsRejected(t *testing.T) {
	p := New(0) // degenerate distance forces every zone onto the origin
	if _, err := p.Place("p0", 0); err != nil {
		t.Fatalf("first placement should never fail: %v", err)
	}
	if _, err := p.Place("p1", 1); err == nil {
		t.Fatal("expected overlap to be rejected with distance 0")
	}
}

// TestOpposingZoneEdgesAreHalfDistanceApart checks the arithmetic spec §4.2
// relies on: with HOME_ZONE_DISTANCE=16, two same-orientation zones whose
// centers are Distance apart leave exactly 8 empty cells between their
// facing edges, matching the "opposing pawn edges are exactly 8 manhattan
// moves apart" rationale for choosing that constant.
func TestOpposingZoneEdgesAreHalfDistanceApart(t *testing.T) {
	p := New(16)
	origin, err := p.Place("p0", 0)
	if err != nil {
		t.Fatalf("place origin: %v", err)
	}
	neighbour, err := p.Place("p1", 1)
	if err != nil {
		t.Fatalf("place neighbour: %v", err)
	}

	_, oMaxX, _, _ := bboxOf(origin)
	nMinX, _, _, _ := bboxOf(neighbour)

	gap := nMinX - oMaxX - 1
	if gap != 8 {
		t.Errorf("gap between facing zone edges = %d, want 8", gap)
	}
}

func TestOrientationAlternates(t *testing.T) {
	p := New(16)
	orientations := []Orientation{}
	for i := 0; i < 5; i++ {
		z, _ := p.Place(fmt.Sprintf("p%d", i), i)
		orientations = append(orientations, z.Orientation)
	}
	want := []Orientation{Horizontal0, Horizontal0, Vertical1, Horizontal0, Vertical1}
	for i, o := range want {
		if orientations[i] != o {
			t.Errorf("zone %d orientation = %v, want %v", i, orientations[i], o)
		}
	}
}
