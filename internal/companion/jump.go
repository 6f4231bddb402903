package companion

// jump is the vertical draw offset of a hopping or hovering companion. The
// offset is negative while airborne; gravity is negative and pulls the launch
// velocity down until the offset returns to zero.
type jump struct {
	offset   float64
	velocity float64
	gravity  float64
}

func (j *jump) launch(velocity, gravity float64) {
	j.velocity = velocity
	j.gravity = gravity
	j.offset = -1
}

// step advances the arc by one frame and lands it once the offset is back at
// or below the ground.
func (j *jump) step() {
	if j.offset == 0 && j.velocity == 0 {
		return
	}
	j.offset -= j.velocity
	j.velocity += j.gravity
	if j.offset >= 0 {
		j.offset = 0
		j.velocity = 0
	}
}

func (j *jump) grounded() bool { return j.offset == 0 }
