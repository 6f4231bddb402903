package companion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// LightState is the light a companion emits this frame.
type LightState struct {
	Position mgl64.Vec2
	Radius   float64
	Color    [4]uint8
}

func (e *Entity) tickLight(elapsed time.Duration) {
	l := e.profile.Light
	if l == nil || l.PulseSpeed <= 0 {
		return
	}
	e.st.lightPulse = countdown(e.st.lightPulse, elapsed)
	if e.st.lightPulse == 0 {
		e.st.lightPulse = l.PulseSpeed
	}
}

// Light returns the emitted light, centred on the companion's tile box plus
// the profile offset. A pulsing light swings its radius by PulseInterval over
// one PulseSpeed period.
func (e *Entity) Light() (LightState, bool) {
	l := e.profile.Light
	if l == nil {
		return LightState{}, false
	}
	r := l.Radius
	if l.PulseSpeed > 0 {
		phase := 1 - float64(e.st.lightPulse)/float64(l.PulseSpeed)
		r += l.PulseInterval * math.Sin(2*math.Pi*phase)
	}
	center := e.st.pos.Add(mgl64.Vec2{TileSize / 2, TileSize / 2})
	return LightState{
		Position: center.Add(l.Offset),
		Radius:   math.Max(r, 0),
		Color:    l.Color,
	}, true
}
