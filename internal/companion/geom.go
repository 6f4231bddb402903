package companion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TileSize is the edge length of one map tile in world units.
const TileSize = 64.0

// Companion collision box: a 48x48 square inset 8 units into its tile.
const (
	boxInset = 8.0
	boxSize  = TileSize - 2*boxInset
)

// Direction is a cardinal facing. Values match the host's facing codes
// (0=up, 1=right, 2=down, 3=left) so they can be passed through untouched.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

func (d Direction) Opposite() Direction  { return (d + 2) % 4 }
func (d Direction) Clockwise() Direction { return (d + 1) % 4 }
func (d Direction) Horizontal() bool     { return d == Right || d == Left }
func (d Direction) Valid() bool          { return d >= Up && d <= Left }

// Vector returns the unit step for d in screen space (y grows downward).
func (d Direction) Vector() mgl64.Vec2 {
	switch d {
	case Up:
		return mgl64.Vec2{0, -1}
	case Right:
		return mgl64.Vec2{1, 0}
	case Down:
		return mgl64.Vec2{0, 1}
	case Left:
		return mgl64.Vec2{-1, 0}
	}
	return mgl64.Vec2{}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "invalid"
}

// DirectionToward returns the cardinal direction closest to the angle from
// one point to another. Exact diagonals resolve to the vertical axis.
func DirectionToward(from, to mgl64.Vec2) Direction {
	d := to.Sub(from)
	if math.Abs(d.X()) > math.Abs(d.Y()) {
		if d.X() > 0 {
			return Right
		}
		return Left
	}
	if d.Y() < 0 {
		return Up
	}
	return Down
}

// Tile is an integer map cell coordinate.
type Tile struct {
	X, Y int
}

// Origin returns the world position of the tile's top-left corner.
func (t Tile) Origin() mgl64.Vec2 {
	return mgl64.Vec2{float64(t.X) * TileSize, float64(t.Y) * TileSize}
}

// TileAt returns the tile containing the center of a companion standing at pos.
func TileAt(pos mgl64.Vec2) Tile {
	return Tile{
		X: int(math.Floor((pos.X() + TileSize/2) / TileSize)),
		Y: int(math.Floor((pos.Y() + TileSize/2) / TileSize)),
	}
}

// Rect is an axis-aligned box in world units.
type Rect struct {
	X, Y, W, H float64
}

// BoundsAt returns the collision box of a companion standing at pos.
func BoundsAt(pos mgl64.Vec2) Rect {
	return Rect{X: pos.X() + boxInset, Y: pos.Y() + boxInset, W: boxSize, H: boxSize}
}

func (r Rect) Translate(v mgl64.Vec2) Rect {
	r.X += v.X()
	r.Y += v.Y()
	return r
}

func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

func (r Rect) Center() mgl64.Vec2 {
	return mgl64.Vec2{r.X + r.W/2, r.Y + r.H/2}
}

// Tile returns the tile under the box's top-left corner, which is the cell
// the host consults for tile properties such as barriers.
func (r Rect) Tile() Tile {
	return Tile{X: int(math.Floor(r.X / TileSize)), Y: int(math.Floor(r.Y / TileSize))}
}
