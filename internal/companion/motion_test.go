package companion

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStepResolvesAxesIndependently(t *testing.T) {
	wall := func(box Rect) (bool, error) { return box.X+box.W > 120, nil }

	res, err := Step(mgl64.Vec2{60, 0}, mgl64.Vec2{10, 10}, wall)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !res.BlockedX || res.BlockedY {
		t.Fatalf("blocked = (%v, %v), want (true, false)", res.BlockedX, res.BlockedY)
	}
	if res.Pos != (mgl64.Vec2{60, 10}) {
		t.Errorf("pos = %v, want [60 10]", res.Pos)
	}
}

func TestStepNilProbeMovesFreely(t *testing.T) {
	res, err := Step(mgl64.Vec2{1, 2}, mgl64.Vec2{-3, 4}, nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Pos != (mgl64.Vec2{-2, 6}) || res.BlockedX || res.BlockedY {
		t.Errorf("res = %+v", res)
	}
}

func TestStepProbeErrorKeepsPosition(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	probe := func(Rect) (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return false, nil
	}
	res, err := Step(mgl64.Vec2{0, 0}, mgl64.Vec2{5, 5}, probe)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if res.Pos != (mgl64.Vec2{}) {
		t.Errorf("pos = %v, want origin", res.Pos)
	}
}

func TestFlyingNeverProbes(t *testing.T) {
	for _, b := range []Behavior{BehaviorWander, BehaviorHover, BehaviorJumper, BehaviorWalkSquare, BehaviorNone} {
		t.Run(b.String(), func(t *testing.T) {
			w := newFakeWorld()
			w.blocked = func(Rect) bool { return true }
			w.barriers = map[Tile]bool{{0, 0}: true}
			w.agents[1] = fakeAgent{pos: mgl64.Vec2{0, 0}, location: farm}

			p := testProfile("bat", b)
			p.Locomotion = Flying
			p.EnableFarmerCollision = true
			p.DirectionChangeWhileIdle = 0.5
			p.DirectionChangeWhileMoving = 0.5
			p.ChanceForHalting = 0.5
			p.MaxIdleDistance = DefaultMaxIdleDistance
			p.MaxDistanceBeforeTeleport = DefaultMaxDistanceBeforeTeleport
			_, e := spawnOne(t, w, NewRandom(7), p, AgentBinding(1, 1, farm, Tile{}))

			for i := 0; i < 500; i++ {
				if err := e.Update(16*time.Millisecond, w); err != nil {
					t.Fatalf("Update: %v", err)
				}
			}
			if w.probes != 0 {
				t.Errorf("flying companion probed collision %d times", w.probes)
			}
		})
	}
}

func TestBlockedWalkerHaltsOrReverses(t *testing.T) {
	tests := []struct {
		name       string
		floats     []float64
		wantFacing Direction
		wantPaused bool
	}{
		{"reverses", []float64{0.99, 0.1}, Left, false},
		{"keeps facing", []float64{0.99, 0.9}, Right, false},
		{"halts without reversing", []float64{0.0}, Right, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWorld()
			w.blocked = func(box Rect) bool { return box.X > 8 }
			rng := newScriptRand()

			p := testProfile("slime", BehaviorWander)
			p.ChanceForHalting = 0.5
			p.MinHaltTime = time.Second
			p.MaxHaltTime = time.Second
			_, e := spawnOne(t, w, rng, p, MapBinding(farm, Tile{}))
			e.faceAndMove(Right)

			// The first roll is the direction-change check, which must fail.
			rng.floats = append([]float64{0.99}, tt.floats...)
			if err := e.Update(16*time.Millisecond, w); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if e.Position() != (mgl64.Vec2{}) {
				t.Errorf("moved into wall: %v", e.Position())
			}
			if e.Facing() != tt.wantFacing {
				t.Errorf("facing = %v, want %v", e.Facing(), tt.wantFacing)
			}
			if e.Paused() != tt.wantPaused {
				t.Errorf("paused = %v, want %v", e.Paused(), tt.wantPaused)
			}
		})
	}
}

func TestBarrierAndFarmerCollision(t *testing.T) {
	w := newFakeWorld()
	w.barriers = map[Tile]bool{{0, 0}: true}
	p := testProfile("dog", BehaviorWander)
	_, e := spawnOne(t, w, newScriptRand(), p, MapBinding(farm, Tile{}))

	blocked, err := e.probe(w)(e.bounds())
	if err != nil || !blocked {
		t.Fatalf("barrier tile: blocked=%v err=%v", blocked, err)
	}

	w.barriers = nil
	w.agentBox = []Rect{{X: 0, Y: 0, W: 64, H: 64}}
	if blocked, _ := e.probe(w)(e.bounds()); blocked {
		t.Errorf("agent blocked without farmer collision")
	}
	p.EnableFarmerCollision = true
	e.applyProfile(&p)
	if blocked, _ := e.probe(w)(e.bounds()); !blocked {
		t.Errorf("agent did not block with farmer collision")
	}
}

func TestWalkerReversesAtMapEdge(t *testing.T) {
	w := newFakeWorld()
	w.offMap = func(t Tile) bool { return t.X < 0 }
	p := testProfile("dog", BehaviorWander)
	_, e := spawnOne(t, w, newScriptRand(), p, MapBinding(farm, Tile{}))
	e.faceAndMove(Left)

	for i := 0; i < 20; i++ {
		if err := e.Update(16*time.Millisecond, w); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if TileAt(e.Position()).X < 0 {
			t.Fatalf("left the map at %v", e.Position())
		}
	}
	if e.Facing() != Right {
		t.Errorf("facing = %v, want right", e.Facing())
	}
}

func TestFollowerCatchUpSpeed(t *testing.T) {
	w := newFakeWorld()
	w.agents[1] = fakeAgent{pos: mgl64.Vec2{5 * TileSize, 0}, location: farm}
	p := testProfile("dog", BehaviorWander)
	_, e := spawnOne(t, w, newScriptRand(), p, AgentBinding(1, 1, farm, Tile{}))

	e.refreshSpeed(w)
	if want := p.TravelSpeed + 4; e.st.speed != want {
		t.Errorf("speed = %v, want %v", e.st.speed, want)
	}

	w.agents[1] = fakeAgent{pos: mgl64.Vec2{TileSize, 0}, location: farm}
	e.refreshSpeed(w)
	if e.st.speed != p.TravelSpeed {
		t.Errorf("speed = %v, want base %v", e.st.speed, p.TravelSpeed)
	}
}

func TestIdleDistanceTurnsTowardTarget(t *testing.T) {
	w := newFakeWorld()
	w.agents[1] = fakeAgent{pos: mgl64.Vec2{0, 300}, location: farm}
	p := testProfile("dog", BehaviorWander)
	p.MaxIdleDistance = DefaultMaxIdleDistance
	_, e := spawnOne(t, w, newScriptRand(), p, AgentBinding(1, 1, farm, Tile{}))
	e.faceAndMove(Up)

	if err := e.Update(16*time.Millisecond, w); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.Facing() != Down {
		t.Errorf("facing = %v, want down toward owner", e.Facing())
	}
}

func TestMotionClampAndDashDecay(t *testing.T) {
	w := newFakeWorld()
	p := testProfile("bat", BehaviorWander)
	p.Locomotion = Flying
	p.BehaviorArgs = []float64{3, 1000}
	_, e := spawnOne(t, w, newScriptRand(), p, MapBinding(farm, Tile{}))
	e.faceAndMove(Right)

	if err := e.Update(16*time.Millisecond, w); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, want := e.st.multiplier, 3-dashDecayPerMs*16; math.Abs(got-want) > 1e-9 {
		t.Errorf("multiplier = %v, want %v", got, want)
	}
	for i := 0; i < 400; i++ {
		if err := e.Update(16*time.Millisecond, w); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if m := e.Motion(); m.X() > motionLimit || m.X() < -motionLimit || m.Y() > motionLimit || m.Y() < -motionLimit {
			t.Fatalf("motion %v escaped clamp", m)
		}
		if e.st.multiplier < 1 {
			t.Fatalf("multiplier %v below floor", e.st.multiplier)
		}
	}
}

func TestJumpArcLands(t *testing.T) {
	var j jump
	j.launch(5, -0.5)
	for i := 0; i < 100 && !j.grounded(); i++ {
		if j.offset > 0 {
			t.Fatalf("offset %v below ground", j.offset)
		}
		j.step()
	}
	if !j.grounded() || j.velocity != 0 {
		t.Errorf("jump did not land: %+v", j)
	}
}
