package companion

// Handle identifies a spawned companion. The low 32 bits are a slot index and
// the high 32 bits a generation that is bumped when the slot is released, so a
// handle kept after despawn never resolves to a newer companion.
type Handle uint64

func newHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) index() uint32      { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

// Valid reports whether h could refer to a companion. The zero handle is what
// Spawn returns on failure.
func (h Handle) Valid() bool { return h != 0 }

// handlePool hands out generational handles with slot reuse. Generations start
// at 1 so no live handle is ever zero.
type handlePool struct {
	generations []uint32
	free        []uint32
}

func (p *handlePool) acquire() Handle {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return newHandle(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	return newHandle(idx, 1)
}

func (p *handlePool) alive(h Handle) bool {
	idx := h.index()
	if !h.Valid() || int(idx) >= len(p.generations) {
		return false
	}
	return p.generations[idx] == h.generation()
}

// release invalidates h. Stale or unknown handles are ignored.
func (p *handlePool) release(h Handle) bool {
	if !p.alive(h) {
		return false
	}
	idx := h.index()
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.free = append(p.free, idx)
	return true
}
