package event

import "github.com/l1jgo/companions/internal/companion"

// Binding source events. The host emits these; ring.Manager and
// MapSpawnSystem react to them at the next frame start.

// RingEquipped: an agent put on a summoning ring instance.
type RingEquipped struct {
	AgentID  int64
	RingID   uint64 // instance id, unique per worn ring
	Pack     string
	RingName string
	Location string
	Tile     companion.Tile
}

type RingUnequipped struct {
	AgentID int64
	RingID  uint64
}

// LocationEntered fires when an agent arrives in a location (warp, door,
// initial load). Followers of that agent are respawned there.
type LocationEntered struct {
	AgentID  int64
	Location string
	Tile     companion.Tile
}

type LocationLeft struct {
	AgentID  int64
	Location string
}

// LocationLoaded fires when the host activates a location; its map
// companions spawn.
type LocationLoaded struct {
	Location string
}

type LocationUnloaded struct {
	Location string
}

// ProfileReloaded is emitted after a content pack was reloaded from disk.
type ProfileReloaded struct {
	Pack    string
	Changed int
}
