package world

// AOIGrid buckets agents into square cells of tiles so proximity queries
// only look at a 3x3 neighbourhood. A neighbourhood fully covers Chebyshev
// distance cellSize. Accessed only from the frame loop goroutine, no locks.

const cellSize = 10

type cellKey struct {
	location string
	cx       int
	cy       int
}

func toCellCoord(v int) int {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// AOIGrid tracks which agents are in which cells.
type AOIGrid struct {
	cells map[cellKey]map[int64]struct{}
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{
		cells: make(map[cellKey]map[int64]struct{}),
	}
}

func (g *AOIGrid) key(x, y int, location string) cellKey {
	return cellKey{location: location, cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Add places an agent into the grid.
func (g *AOIGrid) Add(agentID int64, x, y int, location string) {
	k := g.key(x, y, location)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[int64]struct{})
		g.cells[k] = cell
	}
	cell[agentID] = struct{}{}
}

// Remove takes an agent out of the grid.
func (g *AOIGrid) Remove(agentID int64, x, y int, location string) {
	k := g.key(x, y, location)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, agentID)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an agent's cell when its tile or location changes.
func (g *AOIGrid) Move(agentID int64, oldX, oldY int, oldLoc string, newX, newY int, newLoc string) {
	oldK := g.key(oldX, oldY, oldLoc)
	newK := g.key(newX, newY, newLoc)
	if oldK == newK {
		return
	}
	g.Remove(agentID, oldX, oldY, oldLoc)
	g.Add(agentID, newX, newY, newLoc)
}

// GetNearby returns all agent IDs in the 3x3 neighbourhood of cells around
// a tile. Caller does fine-grained distance filtering.
func (g *AOIGrid) GetNearby(x, y int, location string) []int64 {
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	var result []int64
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			k := cellKey{location: location, cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}
