package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RingModel is a summoning ring, read from <pack>/Objects/<dir>/object.json.
// Wearing it summons NumberOfCompanionsToSummon companions of CompanionName
// from the same pack.
type RingModel struct {
	Owner    string `yaml:"-"`
	ObjectID int    `yaml:"-"` // assigned by the host's asset registry, 0 until then

	Name                       string `yaml:"Name"`
	Description                string `yaml:"Description"`
	Price                      int    `yaml:"Price"`
	CompanionName              string `yaml:"CompanionName"`
	NumberOfCompanionsToSummon int    `yaml:"NumberOfCompanionsToSummon"`
}

// ParseRing decodes an object.json document.
func ParseRing(raw []byte) (RingModel, error) {
	r := RingModel{NumberOfCompanionsToSummon: 1}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return RingModel{}, fmt.Errorf("parse ring: %w", err)
	}
	if r.Name == "" {
		return RingModel{}, fmt.Errorf("parse ring: missing Name")
	}
	if r.CompanionName == "" {
		return RingModel{}, fmt.Errorf("ring %s: missing CompanionName", r.Name)
	}
	if r.NumberOfCompanionsToSummon < 1 {
		r.NumberOfCompanionsToSummon = 1
	}
	return r, nil
}

func LoadRing(path string) (RingModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RingModel{}, fmt.Errorf("read ring %s: %w", path, err)
	}
	return ParseRing(raw)
}

type ringKey struct{ owner, name string }

// RingTable holds every summoning ring indexed by pack and name.
type RingTable struct {
	rings map[ringKey]*RingModel
}

func NewRingTable() *RingTable {
	return &RingTable{rings: make(map[ringKey]*RingModel)}
}

// Put adds or replaces a ring. The assigned object id survives a replace.
func (t *RingTable) Put(r RingModel) {
	k := ringKey{r.Owner, r.Name}
	if old, ok := t.rings[k]; ok && r.ObjectID == 0 {
		r.ObjectID = old.ObjectID
	}
	t.rings[k] = &r
}

// Get returns a ring by pack id and name, or nil.
func (t *RingTable) Get(owner, name string) *RingModel {
	return t.rings[ringKey{owner, name}]
}

// ByObjectID finds a ring by its host object id, or nil.
func (t *RingTable) ByObjectID(id int) *RingModel {
	if id == 0 {
		return nil
	}
	for _, r := range t.rings {
		if r.ObjectID == id {
			return r
		}
	}
	return nil
}

// RemovePack drops every ring of a pack.
func (t *RingTable) RemovePack(owner string) {
	for k := range t.rings {
		if k.owner == owner {
			delete(t.rings, k)
		}
	}
}

// AssignObjectIDs asks lookup for the object id of every ring by name. Rings
// the registry does not know keep id 0. Returns how many got an id.
func (t *RingTable) AssignObjectIDs(lookup func(name string) (int, bool)) int {
	n := 0
	for _, r := range t.rings {
		if id, ok := lookup(r.Name); ok && id > 0 {
			r.ObjectID = id
			n++
		}
	}
	return n
}

// All returns rings sorted by pack then name.
func (t *RingTable) All() []*RingModel {
	out := make([]*RingModel, 0, len(t.rings))
	for _, r := range t.rings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *RingTable) Count() int { return len(t.rings) }
