package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MapInfo holds metadata for a single location, loaded from maps.yaml.
type MapInfo struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`  // tiles
	Height   int    `yaml:"height"` // tiles
	Outdoors bool   `yaml:"outdoors"`
}

// mapEntry stores loaded tile data + metadata for one location.
type mapEntry struct {
	info  MapInfo
	tiles []byte // flat array [x * height + y], row-major by X
}

// MapDataTable provides tile flags and metadata lookups per location.
type MapDataTable struct {
	maps  map[string]*mapEntry
	names []string
}

// Tile flags as written in the tile files.
const (
	tileBlocked    byte = 0x01 // terrain or placed object
	tileBuilding   byte = 0x02 // building layer
	tileBarrier    byte = 0x04 // NPCBarrier property, blocks companions only
	tileImpassable byte = 0x80 // dynamic block set at runtime
)

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapData loads location metadata from YAML and tile flags from text
// files.
// yamlPath: path to maps.yaml
// tileDir: directory containing {name}.txt tile files
//
// A location whose tile file is missing is kept with all tiles open. The
// names of such locations are returned so the caller can log them.
func LoadMapData(yamlPath, tileDir string) (*MapDataTable, []string, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse map list: %w", err)
	}

	table := &MapDataTable{
		maps: make(map[string]*mapEntry, len(file.Maps)),
	}
	var missing []string
	for _, info := range file.Maps {
		if info.Name == "" || info.Width <= 0 || info.Height <= 0 {
			continue
		}
		tiles, err := loadTileFile(tileDir, info.Name, info.Width, info.Height)
		if os.IsNotExist(err) {
			tiles = make([]byte, info.Width*info.Height)
			missing = append(missing, info.Name)
		} else if err != nil {
			return nil, nil, fmt.Errorf("tiles for %s: %w", info.Name, err)
		}
		if _, dup := table.maps[info.Name]; !dup {
			table.names = append(table.names, info.Name)
		}
		table.maps[info.Name] = &mapEntry{info: info, tiles: tiles}
	}
	return table, missing, nil
}

// loadTileFile reads a CSV tile file: each line is a row of comma-separated
// flag bytes. File rows are Y lines, columns are X values.
func loadTileFile(dir, name string, xSize, ySize int) ([]byte, error) {
	path := filepath.Join(dir, name+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Allocate flat array: tiles[x * ySize + y]
	tiles := make([]byte, xSize*ySize)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < ySize {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= xSize {
				break
			}
			val, err := strconv.ParseUint(strings.TrimSpace(tok), 0, 8)
			if err != nil {
				val = 0
			}
			tiles[x*ySize+y] = byte(val)
			x++
		}
		y++
	}

	return tiles, scanner.Err()
}

// Count returns the number of locations loaded.
func (t *MapDataTable) Count() int {
	return len(t.maps)
}

// Names returns location names in file order.
func (t *MapDataTable) Names() []string {
	return append([]string(nil), t.names...)
}

// GetInfo returns metadata for a location, or nil if not found.
func (t *MapDataTable) GetInfo(name string) *MapInfo {
	e := t.maps[name]
	if e == nil {
		return nil
	}
	return &e.info
}

// accessTile returns the tile byte at tile coordinates, or 0 if out of bounds.
func (t *MapDataTable) accessTile(name string, x, y int) byte {
	e := t.maps[name]
	if e == nil {
		return 0
	}
	if x < 0 || x >= e.info.Width || y < 0 || y >= e.info.Height {
		return 0
	}
	return e.tiles[x*e.info.Height+y]
}

// HasMap reports whether a location is known.
func (t *MapDataTable) HasMap(name string) bool {
	return t.maps[name] != nil
}

// IsInMap checks if tile coordinates are within the location bounds.
func (t *MapDataTable) IsInMap(name string, x, y int) bool {
	e := t.maps[name]
	if e == nil {
		return false
	}
	return x >= 0 && x < e.info.Width && y >= 0 && y < e.info.Height
}

// IsBlocked reports terrain, object, building or dynamic blocks on a tile.
// Tiles outside the location are blocked.
func (t *MapDataTable) IsBlocked(name string, x, y int) bool {
	if !t.IsInMap(name, x, y) {
		return true
	}
	return t.accessTile(name, x, y)&(tileBlocked|tileBuilding|tileImpassable) != 0
}

// HasBarrier reports the NPC barrier flag on a tile.
func (t *MapDataTable) HasBarrier(name string, x, y int) bool {
	return t.accessTile(name, x, y)&tileBarrier != 0
}

// SetImpassable sets or clears the dynamic block flag, used for objects the
// host places at runtime.
func (t *MapDataTable) SetImpassable(name string, x, y int, blocked bool) {
	e := t.maps[name]
	if e == nil || !t.IsInMap(name, x, y) {
		return
	}
	idx := x*e.info.Height + y
	if blocked {
		e.tiles[idx] |= tileImpassable
	} else {
		e.tiles[idx] &^= tileImpassable
	}
}
