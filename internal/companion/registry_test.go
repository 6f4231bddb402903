package companion

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, w *fakeWorld, profiles ...Profile) *Registry {
	t.Helper()
	reg := NewRegistry(w, newScriptRand(), zaptest.NewLogger(t))
	for _, p := range profiles {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Key(), err)
		}
	}
	return reg
}

func TestSpawnThenDespawnNeverUpdates(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("frog", BehaviorNone)
	p.Sounds = []SoundTrigger{{When: SoundAlways, SoundID: "croak", Chance: 1}}
	reg := newTestRegistry(t, w, p)

	h := reg.Spawn(p.Key(), MapBinding(farm, Tile{}))
	if !reg.Despawn(h) {
		t.Fatal("Despawn of fresh handle returned false")
	}
	reg.Tick(16*time.Millisecond, w)
	reg.Flush()

	if len(w.played) != 0 {
		t.Errorf("despawned companion updated: played %v", w.played)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestDespawnIsIdempotent(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("frog", BehaviorNone)
	reg := newTestRegistry(t, w, p)

	h := reg.Spawn(p.Key(), MapBinding(farm, Tile{}))
	if !reg.Despawn(h) {
		t.Fatal("first Despawn returned false")
	}
	if reg.Despawn(h) {
		t.Error("second Despawn returned true")
	}
	if reg.Despawn(0) {
		t.Error("Despawn of zero handle returned true")
	}
}

func TestStaleHandleDoesNotResolveReusedSlot(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("frog", BehaviorNone)
	reg := newTestRegistry(t, w, p)

	old := reg.Spawn(p.Key(), MapBinding(farm, Tile{}))
	reg.Despawn(old)
	reg.Flush()
	fresh := reg.Spawn(p.Key(), MapBinding(farm, Tile{1, 1}))

	if fresh == old {
		t.Fatal("reused slot got the same handle")
	}
	if fresh.index() != old.index() {
		t.Errorf("slot not reused: %d vs %d", fresh.index(), old.index())
	}
	if _, ok := reg.Get(old); ok {
		t.Error("stale handle resolved")
	}
	if reg.Despawn(old) {
		t.Error("stale handle despawned the new companion")
	}
	if _, ok := reg.Get(fresh); !ok {
		t.Error("fresh handle lost")
	}
}

func TestSpawnUnknownProfile(t *testing.T) {
	reg := newTestRegistry(t, newFakeWorld())
	h := reg.Spawn(ProfileKey{Owner: "x", Name: "missing"}, MapBinding(farm, Tile{}))
	if h.Valid() {
		t.Errorf("Spawn returned %d for unknown profile", h)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestRegisterRejectsBadProfile(t *testing.T) {
	reg := newTestRegistry(t, newFakeWorld())
	p := testProfile("blob", BehaviorNone)
	p.Uniform = nil

	err := reg.Register(p)
	if !errors.Is(err, ErrNoAnimation) {
		t.Fatalf("Register err = %v, want ErrNoAnimation", err)
	}
	if _, ok := reg.Lookup(p.Key()); ok {
		t.Error("rejected profile was registered")
	}
}

func TestForEachActiveOrder(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("frog", BehaviorNone)
	reg := newTestRegistry(t, w, p)

	var hs []Handle
	for i := 0; i < 4; i++ {
		hs = append(hs, reg.Spawn(p.Key(), MapBinding(farm, Tile{i, 0})))
	}
	reg.Despawn(hs[1])

	var got []int
	reg.ForEachActive(func(e *Entity) { got = append(got, e.Binding().Tile.X) })
	want := []int{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}

func TestDespawnWhere(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("dog", BehaviorNone)
	reg := newTestRegistry(t, w, p)

	reg.Spawn(p.Key(), AgentBinding(1, 10, farm, Tile{}))
	reg.Spawn(p.Key(), AgentBinding(1, 11, farm, Tile{}))
	reg.Spawn(p.Key(), AgentBinding(2, 12, farm, Tile{}))

	n := reg.DespawnWhere(func(e *Entity) bool { return e.Binding().RingID == 11 })
	if n != 1 || reg.Len() != 2 {
		t.Errorf("removed %d, left %d; want 1 and 2", n, reg.Len())
	}
}

func TestTickSkipsFailingCompanionOnly(t *testing.T) {
	w := newFakeWorld()
	w.agents[1] = fakeAgent{location: farm}
	good := testProfile("cat", BehaviorWander)
	bad := testProfile("dog", BehaviorWander)
	reg := newTestRegistry(t, w, good, bad)

	hg := reg.Spawn(good.Key(), MapBinding(farm, Tile{}))
	hb := reg.Spawn(bad.Key(), AgentBinding(1, 1, farm, Tile{}))
	eg, _ := reg.Get(hg)
	eb, _ := reg.Get(hb)
	eg.faceAndMove(Right)
	eb.faceAndMove(Right)

	// Only agent-bound companions look their owner up.
	w.panicOn = "agent"
	reg.Tick(16*time.Millisecond, w)

	if eg.Position() == (mgl64.Vec2{}) {
		t.Error("healthy companion did not move")
	}
	if eb.Position() != (mgl64.Vec2{}) {
		t.Errorf("failing companion moved to %v", eb.Position())
	}
}

func TestHotSwapKeepsTimersAndPosition(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("dog", BehaviorWander)
	p.Sounds = []SoundTrigger{{When: SoundAlways, SoundID: "bark", Interval: time.Second, Chance: 0}}
	reg := newTestRegistry(t, w, p)
	h := reg.Spawn(p.Key(), MapBinding(farm, Tile{}))
	e, _ := reg.Get(h)
	e.faceAndMove(Right)
	reg.Tick(400*time.Millisecond, w)
	pos := e.Position()

	updated := p
	updated.Behavior = BehaviorHover
	updated.EnableFarmerCollision = true
	updated.TravelSpeed = 9
	updated.Sounds = []SoundTrigger{
		{When: SoundAlways, SoundID: "bark", Interval: 5 * time.Second, Chance: 0},
		{When: SoundIdle, SoundID: "snore", Interval: 2 * time.Second, Chance: 0},
	}
	if err := reg.Register(updated); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !e.Profile().EnableFarmerCollision || e.Profile().TravelSpeed != 9 {
		t.Errorf("profile not swapped: %+v", e.Profile())
	}
	if e.Behavior() != BehaviorWander {
		t.Errorf("behavior changed to %v on live companion", e.Behavior())
	}
	if e.Position() != pos {
		t.Errorf("position moved from %v to %v", pos, e.Position())
	}
	if cd, _ := e.SoundCooldown(SoundAlways); cd != 600*time.Millisecond {
		t.Errorf("existing cooldown = %v, want 600ms", cd)
	}
	if cd, ok := e.SoundCooldown(SoundIdle); !ok || cd != 2*time.Second {
		t.Errorf("new trigger cooldown = %v (%v), want 2s", cd, ok)
	}
	if got := reg.Profiles(); len(got) != 1 {
		t.Errorf("Profiles = %v, want one key", got)
	}
}
