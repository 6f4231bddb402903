package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/data"
)

// Agent is a player-like actor companions can follow.
type Agent struct {
	ID       int64
	Location string
	Pos      mgl64.Vec2
}

func (a *Agent) Tile() companion.Tile { return companion.TileAt(a.Pos) }

// State is a headless host: tile-map collision, a sound bank and the
// agents standing in each location. It implements companion.World.
// Accessed only from the frame loop goroutine, no locks needed.
type State struct {
	maps   *data.MapDataTable
	sounds *SoundBank

	agents map[int64]*Agent
	aoi    *AOIGrid
	loaded map[string]bool

	paused        bool
	authoritative bool
}

var _ companion.World = (*State)(nil)

func NewState(maps *data.MapDataTable, sounds *SoundBank, authoritative bool) *State {
	return &State{
		maps:          maps,
		sounds:        sounds,
		agents:        make(map[int64]*Agent),
		aoi:           NewAOIGrid(),
		loaded:        make(map[string]bool),
		authoritative: authoritative,
	}
}

// Maps exposes the location table.
func (s *State) Maps() *data.MapDataTable { return s.maps }

// --- collision ---

// Probe reports whether any tile under box is blocked. Tiles outside the
// location count as blocked.
func (s *State) Probe(box companion.Rect, location string, _ bool) (bool, error) {
	if !s.maps.HasMap(location) {
		return false, fmt.Errorf("probe: unknown location %q", location)
	}
	x0 := int(math.Floor(box.X / companion.TileSize))
	y0 := int(math.Floor(box.Y / companion.TileSize))
	x1 := int(math.Ceil((box.X+box.W)/companion.TileSize)) - 1
	y1 := int(math.Ceil((box.Y+box.H)/companion.TileSize)) - 1
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			if s.maps.IsBlocked(location, x, y) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *State) TileHasBarrier(location string, x, y int) bool {
	return s.maps.HasBarrier(location, x, y)
}

func (s *State) IsTileOnMap(location string, t companion.Tile) bool {
	return s.maps.IsInMap(location, t.X, t.Y)
}

// --- sounds ---

func (s *State) IsValid(soundID string) bool { return s.sounds.IsValid(soundID) }
func (s *State) Play(soundID string) error   { return s.sounds.Play(soundID) }

// --- host flags ---

func (s *State) Paused() bool        { return s.paused }
func (s *State) Authoritative() bool { return s.authoritative }

func (s *State) SetPaused(p bool) { s.paused = p }

// --- locations ---

// LoadLocation marks a location active. It reports false for unknown or
// already loaded locations.
func (s *State) LoadLocation(name string) bool {
	if !s.maps.HasMap(name) || s.loaded[name] {
		return false
	}
	s.loaded[name] = true
	return true
}

func (s *State) UnloadLocation(name string) bool {
	if !s.loaded[name] {
		return false
	}
	delete(s.loaded, name)
	return true
}

func (s *State) IsLoaded(name string) bool { return s.loaded[name] }

// --- agents ---

// PlaceAgent puts an agent at a tile, moving it if it already exists.
func (s *State) PlaceAgent(id int64, location string, t companion.Tile) *Agent {
	pos := t.Origin()
	if a, ok := s.agents[id]; ok {
		old := a.Tile()
		s.aoi.Move(id, old.X, old.Y, a.Location, t.X, t.Y, location)
		a.Location = location
		a.Pos = pos
		return a
	}
	a := &Agent{ID: id, Location: location, Pos: pos}
	s.agents[id] = a
	s.aoi.Add(id, t.X, t.Y, location)
	return a
}

// MoveAgent sets an agent's position within its current location.
func (s *State) MoveAgent(id int64, pos mgl64.Vec2) {
	a, ok := s.agents[id]
	if !ok {
		return
	}
	old, now := a.Tile(), companion.TileAt(pos)
	s.aoi.Move(id, old.X, old.Y, a.Location, now.X, now.Y, a.Location)
	a.Pos = pos
}

func (s *State) RemoveAgent(id int64) *Agent {
	a, ok := s.agents[id]
	if !ok {
		return nil
	}
	t := a.Tile()
	s.aoi.Remove(id, t.X, t.Y, a.Location)
	delete(s.agents, id)
	return a
}

func (s *State) GetAgent(id int64) *Agent { return s.agents[id] }

func (s *State) AgentCount() int { return len(s.agents) }

func (s *State) AgentPosition(agentID int64) (mgl64.Vec2, string, bool) {
	a, ok := s.agents[agentID]
	if !ok {
		return mgl64.Vec2{}, "", false
	}
	return a.Pos, a.Location, true
}

func (s *State) AgentIntersects(location string, box companion.Rect) bool {
	t := box.Tile()
	for _, id := range s.aoi.GetNearby(t.X, t.Y, location) {
		if companion.BoundsAt(s.agents[id].Pos).Intersects(box) {
			return true
		}
	}
	return false
}

// AgentWithin reports an agent within Chebyshev distance radius of t.
func (s *State) AgentWithin(location string, t companion.Tile, radius int) bool {
	within := func(a *Agent) bool {
		at := a.Tile()
		return a.Location == location && abs(at.X-t.X) <= radius && abs(at.Y-t.Y) <= radius
	}
	if radius > cellSize {
		for _, a := range s.agents {
			if within(a) {
				return true
			}
		}
		return false
	}
	for _, id := range s.aoi.GetNearby(t.X, t.Y, location) {
		if within(s.agents[id]) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
