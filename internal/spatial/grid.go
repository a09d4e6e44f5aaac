// Package spatial implements a uniform-grid spatial index used for
// nearest-neighbor and radius queries over simulation units.
package spatial

import (
	"math"

	"github.com/google/uuid"
)

// DefaultCellSize is the default grid cell edge length in meters.
const DefaultCellSize = 50.0

// Point is a 2D world-space coordinate.
type Point struct {
	X, Y float64
}

func (p Point) distance(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Hypot(dx, dy)
}

type cellKey struct {
	x, y int
}

// Grid is a uniform-grid spatial index over a set of IDs with positions.
// It is rebuilt wholesale once per tick from the engine's authoritative
// unit positions; it is not safe for concurrent use.
type Grid struct {
	cellSize  float64
	cells     map[cellKey][]uuid.UUID
	positions map[uuid.UUID]Point
}

// New creates a grid with the given cell size. A non-positive size falls
// back to DefaultCellSize.
func New(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize:  cellSize,
		cells:     make(map[cellKey][]uuid.UUID),
		positions: make(map[uuid.UUID]Point),
	}
}

func (g *Grid) keyFor(p Point) cellKey {
	return cellKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// Rebuild clears and repopulates the grid from the given id->position map.
func (g *Grid) Rebuild(positions map[uuid.UUID]Point) {
	g.cells = make(map[cellKey][]uuid.UUID, len(positions))
	g.positions = make(map[uuid.UUID]Point, len(positions))
	for id, p := range positions {
		g.positions[id] = p
		k := g.keyFor(p)
		g.cells[k] = append(g.cells[k], id)
	}
}

// Insert adds or moves a single id to its cell. Prefer Rebuild for
// whole-tick refreshes; Insert exists for incremental spawns mid-tick.
func (g *Grid) Insert(id uuid.UUID, p Point) {
	g.Remove(id)
	g.positions[id] = p
	k := g.keyFor(p)
	g.cells[k] = append(g.cells[k], id)
}

// Remove deletes an id from the grid, if present.
func (g *Grid) Remove(id uuid.UUID) {
	old, ok := g.positions[id]
	if !ok {
		return
	}
	k := g.keyFor(old)
	bucket := g.cells[k]
	for i, other := range bucket {
		if other == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.cells, k)
	} else {
		g.cells[k] = bucket
	}
	delete(g.positions, id)
}

// QueryRadius returns every id within radius meters of center, in
// arbitrary order. Uses the bounding set of cells covering the disk, then
// filters by exact euclidean distance.
func (g *Grid) QueryRadius(center Point, radius float64) []uuid.UUID {
	if radius < 0 {
		return nil
	}
	minCell := g.keyFor(Point{center.X - radius, center.Y - radius})
	maxCell := g.keyFor(Point{center.X + radius, center.Y + radius})

	var out []uuid.UUID
	for cx := minCell.x; cx <= maxCell.x; cx++ {
		for cy := minCell.y; cy <= maxCell.y; cy++ {
			for _, id := range g.cells[cellKey{cx, cy}] {
				if center.distance(g.positions[id]) <= radius {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// QueryRect returns every id whose position falls within the axis-aligned
// rectangle [minX,maxX] x [minY,maxY].
func (g *Grid) QueryRect(minX, minY, maxX, maxY float64) []uuid.UUID {
	minCell := g.keyFor(Point{minX, minY})
	maxCell := g.keyFor(Point{maxX, maxY})

	var out []uuid.UUID
	for cx := minCell.x; cx <= maxCell.x; cx++ {
		for cy := minCell.y; cy <= maxCell.y; cy++ {
			for _, id := range g.cells[cellKey{cx, cy}] {
				p := g.positions[id]
				if p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// Nearest returns the id closest to center (excluding exclude, if
// non-nil) and its distance, scanning every indexed position. Returns
// false if empty.
func Nearest(g *Grid, center Point, exclude *uuid.UUID) (uuid.UUID, float64, bool) {
	var best uuid.UUID
	bestDist := math.Inf(1)
	found := false
	for id, p := range g.positions {
		if exclude != nil && id == *exclude {
			continue
		}
		d := center.distance(p)
		if d < bestDist {
			bestDist = d
			best = id
			found = true
		}
	}
	return best, bestDist, found
}
