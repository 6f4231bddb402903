package companion

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap/zaptest"
)

// scriptRand replays queued rolls and falls back to fixed values, so tests
// choose exactly which probability checks pass.
type scriptRand struct {
	floats   []float64
	ints     []int
	defFloat float64
}

func newScriptRand() *scriptRand { return &scriptRand{defFloat: 0.99} }

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return r.defFloat
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

type fakeAgent struct {
	pos      mgl64.Vec2
	location string
}

type fakeWorld struct {
	paused    bool
	observer  bool
	blocked   func(Rect) bool
	probeErr  error
	barriers  map[Tile]bool
	offMap    func(Tile) bool
	agents    map[int64]fakeAgent
	agentBox  []Rect
	nearAgent bool
	panicOn   string

	validSounds map[string]bool
	played      []string
	playErr     error

	probes int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{agents: make(map[int64]fakeAgent), nearAgent: true}
}

func (w *fakeWorld) Probe(box Rect, location string, flying bool) (bool, error) {
	w.probes++
	if w.panicOn == "probe" {
		panic("collision layer missing")
	}
	if w.probeErr != nil {
		return false, w.probeErr
	}
	return w.blocked != nil && w.blocked(box), nil
}

func (w *fakeWorld) TileHasBarrier(location string, x, y int) bool {
	w.probes++
	return w.barriers[Tile{x, y}]
}

func (w *fakeWorld) IsTileOnMap(location string, t Tile) bool {
	return w.offMap == nil || !w.offMap(t)
}

func (w *fakeWorld) IsValid(id string) bool {
	return w.validSounds == nil || w.validSounds[id]
}

func (w *fakeWorld) Play(id string) error {
	if w.playErr != nil {
		return w.playErr
	}
	w.played = append(w.played, id)
	return nil
}

func (w *fakeWorld) Paused() bool        { return w.paused }
func (w *fakeWorld) Authoritative() bool { return !w.observer }

func (w *fakeWorld) AgentPosition(id int64) (mgl64.Vec2, string, bool) {
	if w.panicOn == "agent" {
		panic("agent table gone")
	}
	a, ok := w.agents[id]
	return a.pos, a.location, ok
}

func (w *fakeWorld) AgentIntersects(location string, box Rect) bool {
	for _, b := range w.agentBox {
		if b.Intersects(box) {
			return true
		}
	}
	return false
}

func (w *fakeWorld) AgentWithin(location string, t Tile, radius int) bool {
	return w.nearAgent
}

func testProfile(name string, b Behavior) Profile {
	return Profile{
		Name:        name,
		Owner:       "test.pack",
		Behavior:    b,
		TravelSpeed: 4,
		Uniform: &AnimationSet{
			Animation: Animation{StartFrame: 0, FrameCount: 4, Duration: 100 * time.Millisecond},
		},
		MaxIdleDistance:           Disabled,
		MaxDistanceBeforeTeleport: Disabled,
	}
}

func spawnOne(t *testing.T, w *fakeWorld, rng Random, p Profile, b Binding) (*Registry, *Entity) {
	t.Helper()
	reg := NewRegistry(w, rng, zaptest.NewLogger(t))
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h := reg.Spawn(p.Key(), b)
	e, ok := reg.Get(h)
	if !ok {
		t.Fatalf("Spawn(%s) returned unusable handle %d", p.Key(), h)
	}
	return reg, e
}

const farm = "Farm"
