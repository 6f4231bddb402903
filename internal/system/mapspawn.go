package system

import (
	"time"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/core/event"
	coresys "github.com/l1jgo/companions/internal/core/system"
	"github.com/l1jgo/companions/internal/data"
	"github.com/l1jgo/companions/internal/scripting"
	"github.com/l1jgo/companions/internal/world"
	"go.uber.org/zap"
)

// SpawnFilter decides how many companions of a spawn entry appear.
// *scripting.Engine implements it.
type SpawnFilter interface {
	AllowMapSpawn(ctx scripting.SpawnContext) int
}

type locationChange struct {
	location string
	loaded   bool
}

// MapSpawnSystem creates ambient map companions when a location loads and
// removes them when it unloads. Location events are queued by the bus
// handlers and applied in Phase 1 (Update), before CompanionSystem.
type MapSpawnSystem struct {
	reg    *companion.Registry
	world  *world.State
	spawns *data.SpawnTable
	filter SpawnFilter // may be nil
	rng    companion.Random
	log    *zap.Logger

	pending []locationChange
	live    map[string][]companion.Handle
}

func NewMapSpawnSystem(reg *companion.Registry, ws *world.State, spawns *data.SpawnTable, filter SpawnFilter, rng companion.Random, log *zap.Logger) *MapSpawnSystem {
	return &MapSpawnSystem{
		reg:    reg,
		world:  ws,
		spawns: spawns,
		filter: filter,
		rng:    rng,
		log:    log,
		live:   make(map[string][]companion.Handle),
	}
}

// Subscribe registers the location handlers on the bus.
func (s *MapSpawnSystem) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.LocationLoaded) {
		s.pending = append(s.pending, locationChange{location: ev.Location, loaded: true})
	})
	event.Subscribe(bus, func(ev event.LocationUnloaded) {
		s.pending = append(s.pending, locationChange{location: ev.Location})
	})
}

func (s *MapSpawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MapSpawnSystem) Update(_ time.Duration) {
	for _, c := range s.pending {
		if c.loaded {
			s.load(c.location)
		} else {
			s.unload(c.location)
		}
	}
	s.pending = s.pending[:0]
}

// Live returns the map companions currently spawned in a location.
func (s *MapSpawnSystem) Live(location string) []companion.Handle {
	return append([]companion.Handle(nil), s.live[location]...)
}

func (s *MapSpawnSystem) load(location string) {
	if !s.world.LoadLocation(location) {
		return
	}
	info := s.world.Maps().GetInfo(location)
	for _, sp := range s.spawns.ForLocation(location) {
		count := sp.Count
		if s.filter != nil {
			count = s.filter.AllowMapSpawn(scripting.SpawnContext{
				Location:  location,
				Outdoors:  info != nil && info.Outdoors,
				Pack:      sp.Pack,
				Companion: sp.Companion,
				X:         sp.X,
				Y:         sp.Y,
				Count:     sp.Count,
			})
		}
		key := companion.ProfileKey{Owner: sp.Pack, Name: sp.Companion}
		for i := 0; i < count; i++ {
			tile, ok := s.spawnTile(location, sp)
			if !ok {
				s.log.Warn("no open tile for map companion",
					zap.String("location", location),
					zap.Stringer("companion", key),
					zap.Int("x", sp.X),
					zap.Int("y", sp.Y),
				)
				break
			}
			h := s.reg.Spawn(key, companion.MapBinding(location, tile))
			if !h.Valid() {
				break
			}
			s.live[location] = append(s.live[location], h)
		}
	}
	s.log.Debug("location loaded",
		zap.String("location", location),
		zap.Int("companions", len(s.live[location])),
	)
}

func (s *MapSpawnSystem) unload(location string) {
	if !s.world.UnloadLocation(location) {
		return
	}
	n := 0
	for _, h := range s.live[location] {
		if s.reg.Despawn(h) {
			n++
		}
	}
	delete(s.live, location)
	s.log.Debug("location unloaded", zap.String("location", location), zap.Int("despawned", n))
}

// spawnTile picks a tile within the entry's random spread, falling back to
// the nearest open tile within three rings of the chosen one.
func (s *MapSpawnSystem) spawnTile(location string, sp data.MapSpawn) (companion.Tile, bool) {
	x, y := sp.X, sp.Y
	if sp.RandomX > 0 {
		x += s.rng.Intn(sp.RandomX*2+1) - sp.RandomX
	}
	if sp.RandomY > 0 {
		y += s.rng.Intn(sp.RandomY*2+1) - sp.RandomY
	}
	if s.open(location, x, y) {
		return companion.Tile{X: x, Y: y}, true
	}
	for r := 1; r <= 3; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				if s.open(location, x+dx, y+dy) {
					return companion.Tile{X: x + dx, Y: y + dy}, true
				}
			}
		}
	}
	return companion.Tile{}, false
}

func (s *MapSpawnSystem) open(location string, x, y int) bool {
	maps := s.world.Maps()
	return !maps.IsBlocked(location, x, y) && !maps.HasBarrier(location, x, y)
}
