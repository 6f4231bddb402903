package companion

import (
	"time"

	"go.uber.org/zap"
)

// Registry owns every loaded profile and every live companion. It is not
// safe for concurrent use; the frame loop is its only caller.
type Registry struct {
	profiles map[ProfileKey]*Profile
	order    []ProfileKey

	handles  handlePool
	entities map[Handle]*Entity
	live     []*Entity // spawn order, may hold despawned entries until Flush
	dead     int

	sounds SoundValidator
	rng    Random
	log    *zap.Logger
}

// NewRegistry creates an empty registry. sounds validates sound ids when
// profiles are registered and may be nil.
func NewRegistry(sounds SoundValidator, rng Random, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		profiles: make(map[ProfileKey]*Profile),
		entities: make(map[Handle]*Entity),
		sounds:   sounds,
		rng:      rng,
		log:      log,
	}
}

// Register validates and stores a profile. Re-registering a key replaces the
// stored profile and hot-swaps it into every live companion of that key.
// A rejected profile is logged and returned as a *LoadError.
func (r *Registry) Register(p Profile) error {
	prepared, warnings, err := Prepare(p, r.sounds)
	if err != nil {
		r.log.Warn("companion profile rejected", zap.Error(err))
		return err
	}
	for _, w := range warnings {
		r.log.Warn("companion sound trigger dropped", zap.Error(w))
	}

	key := prepared.Key()
	if _, ok := r.profiles[key]; !ok {
		r.order = append(r.order, key)
	}
	r.profiles[key] = prepared

	swapped := 0
	for _, e := range r.live {
		if e.active && e.profile.Key() == key {
			e.applyProfile(prepared)
			swapped++
		}
	}
	if swapped > 0 {
		r.log.Info("companion profile reloaded",
			zap.Stringer("profile", key),
			zap.Int("live", swapped),
		)
	}
	return nil
}

// Lookup returns the registered profile for key.
func (r *Registry) Lookup(key ProfileKey) (*Profile, bool) {
	p, ok := r.profiles[key]
	return p, ok
}

// Profiles returns registered keys in first-registration order.
func (r *Registry) Profiles() []ProfileKey {
	return append([]ProfileKey(nil), r.order...)
}

// Spawn creates a companion of the given profile. An unknown key logs a
// BindingError and returns the zero Handle.
func (r *Registry) Spawn(key ProfileKey, b Binding) Handle {
	p, ok := r.profiles[key]
	if !ok {
		r.log.Warn("companion not spawned", zap.Error(&BindingError{Key: key}))
		return 0
	}
	h := r.handles.acquire()
	e := newEntity(h, p, b, r.rng)
	r.entities[h] = e
	r.live = append(r.live, e)
	r.log.Debug("companion spawned",
		zap.Stringer("profile", key),
		zap.Stringer("binding", b.Kind),
		zap.String("location", b.Location),
		zap.Int("x", b.Tile.X),
		zap.Int("y", b.Tile.Y),
	)
	return h
}

// Despawn removes a companion. Stale or unknown handles are a no-op and
// return false.
func (r *Registry) Despawn(h Handle) bool {
	e, ok := r.entities[h]
	if !ok || !r.handles.release(h) {
		return false
	}
	delete(r.entities, h)
	e.active = false
	r.dead++
	return true
}

// DespawnWhere removes every live companion for which match returns true and
// reports how many were removed.
func (r *Registry) DespawnWhere(match func(*Entity) bool) int {
	n := 0
	for _, e := range r.live {
		if e.active && match(e) && r.Despawn(e.handle) {
			n++
		}
	}
	return n
}

// Get resolves a handle to its live companion.
func (r *Registry) Get(h Handle) (*Entity, bool) {
	e, ok := r.entities[h]
	return e, ok
}

// Len is the number of live companions.
func (r *Registry) Len() int { return len(r.entities) }

// ForEachActive visits live companions in spawn order.
func (r *Registry) ForEachActive(fn func(*Entity)) {
	for _, e := range r.live {
		if e.active {
			fn(e)
		}
	}
}

// Tick updates every live companion. A companion whose frame fails is logged
// and left as it was; the rest still update.
func (r *Registry) Tick(elapsed time.Duration, w World) {
	for _, e := range r.live {
		if !e.active {
			continue
		}
		if err := e.Update(elapsed, w); err != nil {
			r.log.Warn("companion frame skipped",
				zap.Uint64("handle", uint64(e.handle)),
				zap.Error(err),
			)
		}
	}
}

// Flush drops despawned companions from the iteration list. Call it once per
// frame after all systems ran.
func (r *Registry) Flush() {
	if r.dead == 0 {
		return
	}
	kept := r.live[:0]
	for _, e := range r.live {
		if e.active {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(r.live); i++ {
		r.live[i] = nil
	}
	r.live = kept
	r.dead = 0
}
