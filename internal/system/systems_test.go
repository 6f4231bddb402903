package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/core/event"
	coresys "github.com/l1jgo/companions/internal/core/system"
	"github.com/l1jgo/companions/internal/data"
	"github.com/l1jgo/companions/internal/ring"
	"github.com/l1jgo/companions/internal/scripting"
	"github.com/l1jgo/companions/internal/world"
	"go.uber.org/zap/zaptest"
)

const pack = "test.critters"

type memStore struct {
	rings map[uint64]ring.WornRing
	fail  error
	saves int
}

func (m *memStore) LoadWornRings(context.Context) ([]ring.WornRing, error) { return nil, nil }

func (m *memStore) SaveWornRings(_ context.Context, changed []ring.WornRing, removed []uint64) error {
	m.saves++
	if m.fail != nil {
		return m.fail
	}
	for _, w := range changed {
		m.rings[w.RingID] = w
	}
	for _, id := range removed {
		delete(m.rings, id)
	}
	return nil
}

type fixedFilter int

func (f fixedFilter) AllowMapSpawn(scripting.SpawnContext) int { return int(f) }

type harness struct {
	bus    *event.Bus
	reg    *companion.Registry
	ws     *world.State
	runner *coresys.Runner
	spawns *MapSpawnSystem
	rings  *ring.Manager
	store  *memStore
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newHarness(t *testing.T, filter SpawnFilter) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "maps.yaml"), "maps:\n  - {name: Farm, width: 8, height: 8, outdoors: true}\n")
	writeFile(t, filepath.Join(dir, "tiles", "Farm.txt"), "0,0,0,0\n0,0,0,1\n")
	writeFile(t, filepath.Join(dir, "spawns.yaml"), `
spawns:
  - {location: Farm, x: 3, y: 1, pack: test.critters, companion: Frog, count: 2}
  - {location: Farm, x: 5, y: 5, pack: test.critters, companion: Ghost}
`)
	maps, _, err := data.LoadMapData(filepath.Join(dir, "maps.yaml"), filepath.Join(dir, "tiles"))
	if err != nil {
		t.Fatal(err)
	}
	spawnTable, err := data.LoadSpawnTable(filepath.Join(dir, "spawns.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	ws := world.NewState(maps, world.NewSoundBank(nil, log), true)
	rng := companion.NewRandom(3)
	reg := companion.NewRegistry(ws, rng, log)
	if err := reg.Register(companion.Profile{
		Name:     "Frog",
		Owner:    pack,
		Behavior: companion.BehaviorWander,
		Uniform:  &companion.AnimationSet{Animation: companion.Animation{FrameCount: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	rings := data.NewRingTable()
	rings.Put(data.RingModel{Owner: pack, Name: "Frog Ring", CompanionName: "Frog", NumberOfCompanionsToSummon: 1})

	bus := event.NewBus()
	mgr := ring.NewManager(reg, rings, log)
	mgr.Subscribe(bus)
	spawns := NewMapSpawnSystem(reg, ws, spawnTable, filter, rng, log)
	spawns.Subscribe(bus)
	store := &memStore{rings: make(map[uint64]ring.WornRing)}

	runner := coresys.NewRunner()
	runner.Register(NewCleanupSystem(reg))
	runner.Register(NewPersistenceSystem(mgr, store, log, 1))
	runner.Register(spawns)
	runner.Register(NewCompanionSystem(reg, ws))
	runner.Register(NewEventDispatchSystem(bus))

	return &harness{bus: bus, reg: reg, ws: ws, runner: runner, spawns: spawns, rings: mgr, store: store}
}

func (h *harness) tick() { h.runner.Tick(16 * time.Millisecond) }

func TestMapSpawnLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	event.Emit(h.bus, event.LocationLoaded{Location: "Farm"})
	h.tick()

	live := h.spawns.Live("Farm")
	if len(live) != 2 {
		t.Fatalf("map companions = %d, want 2 (unknown Ghost skipped)", len(live))
	}
	for _, hd := range live {
		e, ok := h.reg.Get(hd)
		if !ok {
			t.Fatal("spawned handle not live")
		}
		if b := e.Binding(); b.Kind != companion.BindMap || b.Tile == (companion.Tile{X: 3, Y: 1}) {
			t.Errorf("binding = %+v, want a map binding off the wall tile", b)
		}
	}

	// A second load of the same location does nothing.
	event.Emit(h.bus, event.LocationLoaded{Location: "Farm"})
	h.tick()
	if h.reg.Len() != 2 {
		t.Errorf("live = %d after repeated load", h.reg.Len())
	}

	event.Emit(h.bus, event.LocationUnloaded{Location: "Farm"})
	h.tick()
	if h.reg.Len() != 0 || len(h.spawns.Live("Farm")) != 0 {
		t.Errorf("live = %d after unload", h.reg.Len())
	}
}

func TestMapSpawnFilter(t *testing.T) {
	h := newHarness(t, fixedFilter(0))
	event.Emit(h.bus, event.LocationLoaded{Location: "Farm"})
	h.tick()
	if h.reg.Len() != 0 {
		t.Errorf("live = %d, filter denied every spawn", h.reg.Len())
	}

	h = newHarness(t, fixedFilter(3))
	event.Emit(h.bus, event.LocationLoaded{Location: "Farm"})
	h.tick()
	if h.reg.Len() != 3 {
		t.Errorf("live = %d, want 3 from the filter override", h.reg.Len())
	}
}

func TestUnknownLocationIgnored(t *testing.T) {
	h := newHarness(t, nil)
	event.Emit(h.bus, event.LocationLoaded{Location: "Moon"})
	h.tick()
	if h.reg.Len() != 0 || h.ws.IsLoaded("Moon") {
		t.Error("unknown location loaded")
	}
}

func TestWornRingsPersisted(t *testing.T) {
	h := newHarness(t, nil)
	h.ws.PlaceAgent(1, "Farm", companion.Tile{X: 1, Y: 1})
	event.Emit(h.bus, event.RingEquipped{AgentID: 1, RingID: 9, Pack: pack, RingName: "Frog Ring", Location: "Farm", Tile: companion.Tile{X: 1, Y: 1}})
	h.tick()

	if h.reg.Len() != 1 {
		t.Fatalf("live = %d, want the ring follower", h.reg.Len())
	}
	if w, ok := h.store.rings[9]; !ok || w.Location != "Farm" {
		t.Fatalf("store = %+v", h.store.rings)
	}

	// Nothing changed, nothing written.
	saves := h.store.saves
	h.tick()
	if h.store.saves != saves {
		t.Error("clean frame wrote to the store")
	}

	h.store.fail = errors.New("disk full")
	event.Emit(h.bus, event.RingUnequipped{AgentID: 1, RingID: 9})
	h.tick()
	if _, ok := h.store.rings[9]; !ok {
		t.Fatal("failed save applied")
	}
	if !h.rings.Dirty() {
		t.Fatal("failed save dropped the change")
	}

	h.store.fail = nil
	h.tick()
	if _, ok := h.store.rings[9]; ok {
		t.Error("removal not retried")
	}
	if h.reg.Len() != 0 {
		t.Errorf("live = %d after unequip", h.reg.Len())
	}
}
