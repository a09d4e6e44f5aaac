// Package terrain implements a grid-based terrain map: movement cost,
// cover, visibility, and line-of-sight queries over the battlespace.
package terrain

import "math"

// Properties describes a terrain type's effect on movement, cover, and
// visibility.
type Properties struct {
	MovementCost float64 // multiplier; math.Inf(1) means impassable
	CoverValue   float64
	Visibility   float64
}

// Terrain type names.
const (
	Road     = "road"
	Building = "building"
	Yard     = "yard"
	Open     = "open"
	Water    = "water"
)

var terrainProperties = map[string]Properties{
	Road:     {MovementCost: 0.7, CoverValue: 0.0, Visibility: 1.0},
	Building: {MovementCost: math.Inf(1), CoverValue: 0.5, Visibility: 0.0},
	Yard:     {MovementCost: 1.0, CoverValue: 0.1, Visibility: 0.8},
	Open:     {MovementCost: 1.0, CoverValue: 0.0, Visibility: 1.0},
	Water:    {MovementCost: math.Inf(1), CoverValue: 0.0, Visibility: 1.0},
}

// flyingTypes lists asset types that ignore terrain entirely. The engine
// also consults the unit type registry (internal/unit) for flight
// capability; this set covers the common drone family names directly.
var flyingTypes = map[string]bool{
	"drone": true, "scout_drone": true, "heavy_drone": true, "recon_drone": true,
}

// DefaultResolution is the default terrain cell edge length in meters.
const DefaultResolution = 5.0

// Cell holds the resolved terrain properties at one grid cell.
type Cell struct {
	X, Y         float64
	TerrainType  string
	MovementCost float64
	CoverValue   float64
	Visibility   float64
}

type gridKey struct{ col, row int }

// Point is a world-space coordinate.
type Point struct{ X, Y float64 }

// Segment is a road centerline with a width.
type Segment struct {
	Start, End Point
	Width      float64
}

// BuildingFootprint is a footprint polygon.
type BuildingFootprint struct {
	Footprint []Point
	Position  Point
}

// Map is a grid-based terrain map. Cells not explicitly set default to
// "open" terrain.
type Map struct {
	bounds     float64
	resolution float64
	cells      map[gridKey]Cell
}

// New creates a terrain map spanning [-bounds, bounds] on each axis at the
// given cell resolution. A non-positive resolution falls back to
// DefaultResolution.
func New(bounds, resolution float64) *Map {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Map{
		bounds:     math.Abs(bounds),
		resolution: resolution,
		cells:      make(map[gridKey]Cell),
	}
}

func (m *Map) worldToGrid(x, y float64) gridKey {
	return gridKey{
		col: int((x + m.bounds) / m.resolution),
		row: int((y + m.bounds) / m.resolution),
	}
}

func (m *Map) gridToWorld(k gridKey) Point {
	return Point{
		X: float64(k.col)*m.resolution - m.bounds + m.resolution*0.5,
		Y: float64(k.row)*m.resolution - m.bounds + m.resolution*0.5,
	}
}

// SetCell sets the terrain type at a world position. Unknown terrain
// types are treated as "open".
func (m *Map) SetCell(x, y float64, terrainType string) {
	k := m.worldToGrid(x, y)
	props, ok := terrainProperties[terrainType]
	if !ok {
		props = terrainProperties[Open]
	}
	center := m.gridToWorld(k)
	m.cells[k] = Cell{
		X: center.X, Y: center.Y,
		TerrainType:  terrainType,
		MovementCost: props.MovementCost,
		CoverValue:   props.CoverValue,
		Visibility:   props.Visibility,
	}
}

// GetCell returns the terrain cell at a world position, defaulting to
// open terrain if unset.
func (m *Map) GetCell(x, y float64) Cell {
	k := m.worldToGrid(x, y)
	if c, ok := m.cells[k]; ok {
		return c
	}
	center := m.gridToWorld(k)
	return Cell{
		X: center.X, Y: center.Y,
		TerrainType:  Open,
		MovementCost: 1.0,
		CoverValue:   0.0,
		Visibility:   1.0,
	}
}

// Reset clears all terrain cells.
func (m *Map) Reset() { m.cells = make(map[gridKey]Cell) }

func (m *Map) GetTerrainType(x, y float64) string { return m.GetCell(x, y).TerrainType }
func (m *Map) GetMovementCost(x, y float64) float64 { return m.GetCell(x, y).MovementCost }
func (m *Map) GetCoverValue(x, y float64) float64   { return m.GetCell(x, y).CoverValue }
func (m *Map) GetVisibility(x, y float64) float64   { return m.GetCell(x, y).Visibility }

// LoadRoads paints road terrain along a set of centerline segments,
// covering cells within each segment's half-width.
func (m *Map) LoadRoads(segments []Segment) {
	for _, seg := range segments {
		width := seg.Width
		if width <= 0 {
			width = 6.0
		}
		dx := seg.End.X - seg.Start.X
		dy := seg.End.Y - seg.Start.Y
		length := math.Hypot(dx, dy)
		if length < 0.1 {
			continue
		}

		nx := -dy / length
		ny := dx / length

		steps := int(length / m.resolution)
		if steps < 1 {
			steps = 1
		}
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			cx := seg.Start.X + dx*t
			cy := seg.Start.Y + dy*t

			widthSteps := int(width / m.resolution)
			if widthSteps < 1 {
				widthSteps = 1
			}
			for w := 0; w <= widthSteps; w++ {
				wt := float64(w)/float64(widthSteps) - 0.5
				px := cx + nx*wt*width
				py := cy + ny*wt*width
				m.SetCell(px, py, Road)
			}
		}
	}
}

// LoadBuildings marks every grid cell whose center falls inside each
// building's footprint polygon as building terrain.
func (m *Map) LoadBuildings(buildings []BuildingFootprint) {
	for _, b := range buildings {
		if len(b.Footprint) < 3 {
			continue
		}
		minX, maxX := b.Footprint[0].X, b.Footprint[0].X
		minY, maxY := b.Footprint[0].Y, b.Footprint[0].Y
		for _, p := range b.Footprint {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}

		start := m.worldToGrid(minX, minY)
		end := m.worldToGrid(maxX, maxY)

		for col := start.col; col <= end.col; col++ {
			for row := start.row; row <= end.row; row++ {
				center := m.gridToWorld(gridKey{col, row})
				if pointInPolygon(center, b.Footprint) {
					m.SetCell(center.X, center.Y, Building)
				}
			}
		}
	}
}

// FindTerrainOfType returns all cell centers matching terrainType,
// optionally restricted to within radius of near.
func (m *Map) FindTerrainOfType(terrainType string, near *Point, radius float64) []Point {
	var out []Point
	for _, cell := range m.cells {
		if cell.TerrainType != terrainType {
			continue
		}
		if near != nil {
			dist := math.Hypot(cell.X-near.X, cell.Y-near.Y)
			if dist > radius {
				continue
			}
		}
		out = append(out, Point{X: cell.X, Y: cell.Y})
	}
	return out
}

// GetSpeedModifier returns the terrain-aware speed multiplier for a unit
// of the given asset type at (x, y). Flying types always return 1.0.
// Impassable terrain (building/water) returns 0.0. "person" units crossing
// a yard take a further 0.9x penalty.
func (m *Map) GetSpeedModifier(x, y float64, assetType string, isFlying bool) float64 {
	if isFlying || flyingTypes[assetType] {
		return 1.0
	}

	cost := m.GetMovementCost(x, y)
	if math.IsInf(cost, 1) {
		return 0.0
	}
	if cost <= 0 {
		return 1.0
	}

	modifier := 1.0 / cost

	if assetType == "person" && m.GetTerrainType(x, y) == Yard {
		modifier *= 0.9
	}

	return modifier
}

// LineOfSight reports whether there is clear line of sight between two
// positions; blocked by any building cell the line passes through.
func (m *Map) LineOfSight(a, b Point) bool {
	ca := m.worldToGrid(a.X, a.Y)
	cb := m.worldToGrid(b.X, b.Y)

	for _, k := range bresenham(ca, cb) {
		if cell, ok := m.cells[k]; ok && cell.TerrainType == Building {
			return false
		}
	}
	return true
}

// Telemetry is the serializable snapshot of non-default terrain cells.
type Telemetry struct {
	Bounds     float64 `json:"bounds"`
	Resolution float64 `json:"resolution"`
	Cells      []Cell  `json:"cells"`
}

// ToTelemetry serializes the terrain map for frontend rendering.
func (m *Map) ToTelemetry() Telemetry {
	cells := make([]Cell, 0, len(m.cells))
	for _, c := range m.cells {
		if math.IsInf(c.MovementCost, 1) {
			c.MovementCost = -1
		}
		cells = append(cells, c)
	}
	return Telemetry{Bounds: m.bounds, Resolution: m.resolution, Cells: cells}
}

func pointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := polygon[i].X, polygon[i].Y
		xj, yj := polygon[j].X, polygon[j].Y
		if ((yi > p.Y) != (yj > p.Y)) && (p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

func bresenham(a, b gridKey) []gridKey {
	var cells []gridKey
	x0, y0, x1, y1 := a.col, a.row, b.col, b.row
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx - dy

	for {
		cells = append(cells, gridKey{x0, y0})
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
	return cells
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
