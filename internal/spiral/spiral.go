// Package spiral assigns home-zone rectangles to joining players in an
// outward spiral, alternating horizontal and vertical orientation, per
// spec §4.2. Grounded on the teacher's deterministic, index-driven
// placement style (e.g. internal/services/tetris/game_logic.go's
// GetFallInterval — a pure function of an integer state variable).
package spiral

import "fmt"

// Orientation describes a home zone's long axis.
type Orientation int

const (
	Horizontal0 Orientation = 0
	Vertical1   Orientation = 1
	Horizontal2 Orientation = 2
	Vertical3   Orientation = 3
)

// Zone is one player's assigned home-zone rectangle, centered at (X,Z).
type Zone struct {
	Player      string
	X, Z        int
	Width       int
	Height      int
	Orientation Orientation
}

// direction cycle from spec §4.2: +X, +Z, -X, -Z.
var directions = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// Placer generates home-zone positions deterministically from a player's
// join-order index. Distance is HOME_ZONE_DISTANCE from config.
type Placer struct {
	OriginX, OriginZ int
	Distance         int
	placed           []Zone
}

func New(distance int) *Placer {
	return &Placer{Distance: distance}
}

// zoneDimensions returns width,height for a given orientation: 8x2 for
// horizontal (0,2), 2x8 for vertical (1,3).
func zoneDimensions(o Orientation) (int, int) {
	if o == Horizontal0 || o == Horizontal2 {
		return 8, 2
	}
	return 2, 8
}

// centerFor computes the deterministic center for join-index i, following
// spec §4.2: i=0 at the origin; i>=1 cycles through the 4 directions with
// a growing multiplier every 4 steps.
func (p *Placer) centerFor(i int) (x, z int, orient Orientation) {
	if i == 0 {
		return p.OriginX, p.OriginZ, Horizontal0
	}
	dirIdx := (i - 1) % 4
	multiplier := (i-1)/4 + 1
	dir := directions[dirIdx]
	x = p.OriginX + dir[0]*p.Distance*multiplier
	z = p.OriginZ + dir[1]*p.Distance*multiplier
	if dir[0] != 0 {
		orient = Horizontal0
	} else {
		orient = Vertical1
	}
	return x, z, orient
}

func bboxOf(z Zone) (minX, maxX, minZ, maxZ int) {
	halfW := z.Width / 2
	halfH := z.Height / 2
	return z.X - halfW, z.X + z.Width - halfW - 1, z.Z - halfH, z.Z + z.Height - halfH - 1
}

func overlaps(a, b Zone) bool {
	aMinX, aMaxX, aMinZ, aMaxZ := bboxOf(a)
	bMinX, bMaxX, bMinZ, bMaxZ := bboxOf(b)
	if aMaxX < bMinX || bMaxX < aMinX {
		return false
	}
	if aMaxZ < bMinZ || bMaxZ < aMinZ {
		return false
	}
	return true
}

// Place assigns and records the next zone for player at join-index i. It
// hard-fails if the computed zone would overlap any previously placed
// zone, per spec §4.2's "reports a hard failure if one would occur".
func (p *Placer) Place(player string, i int) (Zone, error) {
	x, z, orient := p.centerFor(i)
	w, h := zoneDimensions(orient)
	zone := Zone{Player: player, X: x, Z: z, Width: w, Height: h, Orientation: orient}

	for _, existing := range p.placed {
		if overlaps(zone, existing) {
			return Zone{}, fmt.Errorf("spiral: zone for index %d overlaps existing zone for %s", i, existing.Player)
		}
	}
	p.placed = append(p.placed, zone)
	return zone, nil
}

// Contains reports whether (x,z) lies inside zone's rectangle.
func Contains(z Zone, x, zc int) bool {
	minX, maxX, minZ, maxZ := bboxOf(z)
	return x >= minX && x <= maxX && zc >= minZ && zc <= maxZ
}
