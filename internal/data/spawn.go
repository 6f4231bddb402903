package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MapSpawn places Count map companions of Pack/Companion around a tile of a
// location when it loads.
type MapSpawn struct {
	Location  string `yaml:"location"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Pack      string `yaml:"pack"`
	Companion string `yaml:"companion"`
	Count     int    `yaml:"count"`
	RandomX   int    `yaml:"randomx"` // spread in tiles around X
	RandomY   int    `yaml:"randomy"`
}

type spawnFile struct {
	Spawns []MapSpawn `yaml:"spawns"`
}

// SpawnTable holds map companion spawns grouped by location.
type SpawnTable struct {
	byLocation map[string][]MapSpawn
	total      int
}

// LoadSpawnTable loads the map companion spawn list. A missing file yields
// an empty table.
func LoadSpawnTable(path string) (*SpawnTable, error) {
	t := &SpawnTable{byLocation: make(map[string][]MapSpawn)}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read map_companions: %w", err)
	}
	var f spawnFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map_companions: %w", err)
	}
	for i, s := range f.Spawns {
		if s.Location == "" || s.Companion == "" {
			return nil, fmt.Errorf("map_companions entry %d: location and companion are required", i)
		}
		if s.Count < 1 {
			s.Count = 1
		}
		t.byLocation[s.Location] = append(t.byLocation[s.Location], s)
		t.total++
	}
	return t, nil
}

// ForLocation returns the spawns of one location.
func (t *SpawnTable) ForLocation(name string) []MapSpawn {
	return t.byLocation[name]
}

func (t *SpawnTable) Count() int { return t.total }

type soundListFile struct {
	Sounds []string `yaml:"sounds"`
}

// LoadSoundList reads the ids of every sound the host can play.
func LoadSoundList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sound list: %w", err)
	}
	var f soundListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sound list: %w", err)
	}
	return f.Sounds, nil
}
