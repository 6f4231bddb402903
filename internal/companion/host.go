package companion

import "github.com/go-gl/mathgl/mgl64"

// Collision is the host's collision service for one game world.
type Collision interface {
	// Probe reports whether box would collide with terrain, objects or
	// buildings in location. flying is passed through for hosts that keep
	// separate layers; companions never probe while flying.
	Probe(box Rect, location string, flying bool) (bool, error)
	// TileHasBarrier reports an NPC barrier property on the tile.
	TileHasBarrier(location string, x, y int) bool
	IsTileOnMap(location string, t Tile) bool
}

// Sounds is the host's sound bank.
type Sounds interface {
	SoundValidator
	// Play requests playback and does not wait for it.
	Play(soundID string) error
}

// World is everything an entity needs from the host during one frame.
type World interface {
	Collision
	Sounds

	// Paused reports that game time is frozen. Map-bound companions skip
	// the frame; agent-bound ones keep following their owner.
	Paused() bool
	// Authoritative reports that this process owns companion state.
	// Random direction changes are only rolled on the authoritative side.
	Authoritative() bool
	// AgentPosition returns where an agent stands and which location it is in.
	AgentPosition(agentID int64) (pos mgl64.Vec2, location string, ok bool)
	// AgentIntersects reports whether any agent's bounding box overlaps box.
	AgentIntersects(location string, box Rect) bool
	// AgentWithin reports whether any agent is within radius tiles of t.
	AgentWithin(location string, t Tile, radius int) bool
}

// BindingKind says what a companion is attached to.
type BindingKind int

const (
	BindAgent BindingKind = iota
	BindMap
)

func (k BindingKind) String() string {
	if k == BindMap {
		return "map"
	}
	return "agent"
}

// Binding ties a companion to an agent (through a summoning ring instance) or
// to a fixed tile of a location. Tile is the spawn tile for agent bindings and
// the wander anchor for map bindings.
type Binding struct {
	Kind     BindingKind
	AgentID  int64
	RingID   uint64
	Location string
	Tile     Tile
}

// AgentBinding binds a companion to an agent via a ring instance.
func AgentBinding(agentID int64, ringID uint64, location string, tile Tile) Binding {
	return Binding{Kind: BindAgent, AgentID: agentID, RingID: ringID, Location: location, Tile: tile}
}

// MapBinding binds a companion to a tile of a location.
func MapBinding(location string, tile Tile) Binding {
	return Binding{Kind: BindMap, Location: location, Tile: tile}
}
