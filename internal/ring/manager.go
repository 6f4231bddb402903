package ring

import (
	"context"
	"sort"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/core/event"
	"github.com/l1jgo/companions/internal/data"
	"go.uber.org/zap"
)

// WornRing is one summoning ring instance worn by an agent, with the place
// its followers were last summoned to.
type WornRing struct {
	RingID   uint64
	AgentID  int64
	Pack     string
	RingName string
	Location string
	Tile     companion.Tile
}

// Store persists worn rings across restarts.
type Store interface {
	LoadWornRings(ctx context.Context) ([]WornRing, error)
	// SaveWornRings upserts changed rings and deletes removed ring ids in
	// one unit of work.
	SaveWornRings(ctx context.Context, changed []WornRing, removed []uint64) error
}

type worn struct {
	WornRing
	followers []companion.Handle
}

// Manager turns ring and location events into follower spawns and
// despawns. Accessed only from the frame loop goroutine.
type Manager struct {
	reg   *companion.Registry
	rings *data.RingTable
	log   *zap.Logger

	worn    map[uint64]*worn
	changed map[uint64]bool // true = upsert, false = delete
}

func NewManager(reg *companion.Registry, rings *data.RingTable, log *zap.Logger) *Manager {
	return &Manager{
		reg:     reg,
		rings:   rings,
		log:     log,
		worn:    make(map[uint64]*worn),
		changed: make(map[uint64]bool),
	}
}

// Subscribe registers the manager's handlers on the bus.
func (m *Manager) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, m.onEquipped)
	event.Subscribe(bus, m.onUnequipped)
	event.Subscribe(bus, m.onEntered)
	event.Subscribe(bus, m.onLeft)
	event.Subscribe(bus, m.onReloaded)
}

// Restore re-equips rings read from a store at startup. Followers appear at
// each ring's stored location. Restored rings are not marked changed.
func (m *Manager) Restore(rings []WornRing) int {
	n := 0
	for _, r := range rings {
		w := &worn{WornRing: r}
		m.worn[r.RingID] = w
		if r.Location != "" {
			m.summon(w)
		}
		n += len(w.followers)
	}
	return n
}

func (m *Manager) onEquipped(ev event.RingEquipped) {
	if m.rings.Get(ev.Pack, ev.RingName) == nil {
		m.log.Warn("equipped ring is not a summoning ring",
			zap.String("pack", ev.Pack),
			zap.String("ring", ev.RingName),
		)
		return
	}
	if prev, ok := m.worn[ev.RingID]; ok {
		m.dismiss(prev)
	}
	w := &worn{WornRing: WornRing{
		RingID:   ev.RingID,
		AgentID:  ev.AgentID,
		Pack:     ev.Pack,
		RingName: ev.RingName,
		Location: ev.Location,
		Tile:     ev.Tile,
	}}
	m.worn[ev.RingID] = w
	m.changed[ev.RingID] = true
	m.summon(w)
}

func (m *Manager) onUnequipped(ev event.RingUnequipped) {
	w, ok := m.worn[ev.RingID]
	if !ok || w.AgentID != ev.AgentID {
		return
	}
	m.dismiss(w)
	delete(m.worn, ev.RingID)
	m.changed[ev.RingID] = false
}

func (m *Manager) onEntered(ev event.LocationEntered) {
	for _, w := range m.agentRings(ev.AgentID) {
		m.dismiss(w)
		w.Location = ev.Location
		w.Tile = ev.Tile
		m.changed[w.RingID] = true
		m.summon(w)
	}
}

func (m *Manager) onLeft(ev event.LocationLeft) {
	for _, w := range m.agentRings(ev.AgentID) {
		if w.Location == ev.Location {
			m.dismiss(w)
		}
	}
}

// onReloaded summons followers for rings whose companion was unknown when
// the ring was equipped.
func (m *Manager) onReloaded(ev event.ProfileReloaded) {
	for _, w := range m.sorted() {
		if w.Pack == ev.Pack && len(w.followers) == 0 && w.Location != "" {
			m.summon(w)
		}
	}
}

func (m *Manager) summon(w *worn) {
	model := m.rings.Get(w.Pack, w.RingName)
	if model == nil {
		m.log.Warn("worn ring no longer defined",
			zap.String("pack", w.Pack),
			zap.String("ring", w.RingName),
		)
		return
	}
	key := companion.ProfileKey{Owner: w.Pack, Name: model.CompanionName}
	b := companion.AgentBinding(w.AgentID, w.RingID, w.Location, w.Tile)
	for i := 0; i < model.NumberOfCompanionsToSummon; i++ {
		h := m.reg.Spawn(key, b)
		if !h.Valid() {
			return
		}
		w.followers = append(w.followers, h)
	}
}

func (m *Manager) dismiss(w *worn) {
	for _, h := range w.followers {
		m.reg.Despawn(h)
	}
	w.followers = nil
}

func (m *Manager) agentRings(agentID int64) []*worn {
	var out []*worn
	for _, w := range m.sorted() {
		if w.AgentID == agentID {
			out = append(out, w)
		}
	}
	return out
}

// sorted returns worn rings by ring id so spawn order is deterministic.
func (m *Manager) sorted() []*worn {
	out := make([]*worn, 0, len(m.worn))
	for _, w := range m.worn {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RingID < out[j].RingID })
	return out
}

// Followers returns the live companions summoned by a ring instance.
func (m *Manager) Followers(ringID uint64) []companion.Handle {
	w, ok := m.worn[ringID]
	if !ok {
		return nil
	}
	return append([]companion.Handle(nil), w.followers...)
}

// Worn lists every worn ring ordered by ring id.
func (m *Manager) Worn() []WornRing {
	ws := m.sorted()
	out := make([]WornRing, len(ws))
	for i, w := range ws {
		out[i] = w.WornRing
	}
	return out
}

// Dirty reports whether there are unsaved changes.
func (m *Manager) Dirty() bool { return len(m.changed) > 0 }

// Drain returns the changes since the last drain and clears them.
func (m *Manager) Drain() (changed []WornRing, removed []uint64) {
	for id, upsert := range m.changed {
		if !upsert {
			removed = append(removed, id)
			continue
		}
		if w, ok := m.worn[id]; ok {
			changed = append(changed, w.WornRing)
		}
	}
	m.changed = make(map[uint64]bool)
	sort.Slice(changed, func(i, j int) bool { return changed[i].RingID < changed[j].RingID })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return changed, removed
}

// Requeue puts drained changes back after a failed save. Newer changes to
// the same ring win.
func (m *Manager) Requeue(changed []WornRing, removed []uint64) {
	for _, r := range changed {
		if _, ok := m.changed[r.RingID]; !ok {
			m.changed[r.RingID] = true
		}
	}
	for _, id := range removed {
		if _, ok := m.changed[id]; !ok {
			m.changed[id] = false
		}
	}
}
