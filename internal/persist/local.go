package persist

import (
	"context"
	"fmt"
	"sort"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/ring"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	wornObject   = "rings"
	wornProperty = "worn"
)

type localRing struct {
	RingID   uint64 `yaml:"ring_id"`
	AgentID  int64  `yaml:"agent_id"`
	Pack     string `yaml:"pack"`
	RingName string `yaml:"ring_name"`
	Location string `yaml:"location,omitempty"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
}

// LocalStore keeps worn rings in the platform's per-user data directory,
// for single-player hosts without a database.
type LocalStore struct {
	m   *gdata.Manager
	log *zap.Logger
}

func OpenLocalStore(appName string, log *zap.Logger) (*LocalStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open local data %q: %w", appName, err)
	}
	return &LocalStore{m: m, log: log}, nil
}

func (s *LocalStore) LoadWornRings(_ context.Context) ([]ring.WornRing, error) {
	rows, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]ring.WornRing, 0, len(rows))
	for _, r := range rows {
		out = append(out, ring.WornRing{
			RingID:   r.RingID,
			AgentID:  r.AgentID,
			Pack:     r.Pack,
			RingName: r.RingName,
			Location: r.Location,
			Tile:     companion.Tile{X: r.X, Y: r.Y},
		})
	}
	return out, nil
}

// SaveWornRings rewrites the whole blob with the changes applied.
func (s *LocalStore) SaveWornRings(_ context.Context, changed []ring.WornRing, removed []uint64) error {
	if len(changed) == 0 && len(removed) == 0 {
		return nil
	}
	rows, err := s.load()
	if err != nil {
		return err
	}
	byID := make(map[uint64]localRing, len(rows))
	for _, r := range rows {
		byID[r.RingID] = r
	}
	for _, w := range changed {
		byID[w.RingID] = localRing{
			RingID:   w.RingID,
			AgentID:  w.AgentID,
			Pack:     w.Pack,
			RingName: w.RingName,
			Location: w.Location,
			X:        w.Tile.X,
			Y:        w.Tile.Y,
		}
	}
	for _, id := range removed {
		delete(byID, id)
	}

	rows = rows[:0]
	for _, r := range byID {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RingID < rows[j].RingID })

	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal worn rings: %w", err)
	}
	if err := s.m.SaveObjectProp(wornObject, wornProperty, data); err != nil {
		return fmt.Errorf("save worn rings: %w", err)
	}
	s.log.Debug("worn rings saved", zap.Int("count", len(rows)))
	return nil
}

func (s *LocalStore) load() ([]localRing, error) {
	if !s.m.ObjectPropExists(wornObject, wornProperty) {
		return nil, nil
	}
	data, err := s.m.LoadObjectProp(wornObject, wornProperty)
	if err != nil {
		return nil, fmt.Errorf("load worn rings: %w", err)
	}
	var rows []localRing
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal worn rings: %w", err)
	}
	return rows, nil
}
