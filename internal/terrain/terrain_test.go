package terrain

import "testing"

func TestDefaultCellIsOpen(t *testing.T) {
	m := New(200, 5)
	cell := m.GetCell(10, 10)
	if cell.TerrainType != Open {
		t.Fatalf("expected open default, got %s", cell.TerrainType)
	}
	if cell.MovementCost != 1.0 {
		t.Fatalf("expected movement cost 1.0, got %f", cell.MovementCost)
	}
}

func TestSetCellBuilding(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Building)
	cell := m.GetCell(0, 0)
	if cell.TerrainType != Building {
		t.Fatalf("expected building, got %s", cell.TerrainType)
	}
	if cell.MovementCost <= 1e9 {
		t.Fatalf("expected impassable (inf) movement cost, got %f", cell.MovementCost)
	}
}

func TestGetSpeedModifierRoadIsFaster(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Road)
	mod := m.GetSpeedModifier(0, 0, "rover", false)
	if mod <= 1.0 {
		t.Fatalf("expected road to speed up movement, got %f", mod)
	}
}

func TestGetSpeedModifierBuildingIsImpassable(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Building)
	mod := m.GetSpeedModifier(0, 0, "rover", false)
	if mod != 0.0 {
		t.Fatalf("expected impassable speed modifier 0.0, got %f", mod)
	}
}

func TestGetSpeedModifierFlyingIgnoresTerrain(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Building)
	mod := m.GetSpeedModifier(0, 0, "drone", false)
	if mod != 1.0 {
		t.Fatalf("expected flying unit to ignore terrain, got %f", mod)
	}
}

func TestGetSpeedModifierPersonYardPenalty(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Yard)
	mod := m.GetSpeedModifier(0, 0, "person", false)
	if mod >= 1.0 {
		t.Fatalf("expected yard penalty below 1.0 for person, got %f", mod)
	}
}

func TestLineOfSightBlockedByBuilding(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Building)
	clear := m.LineOfSight(Point{X: -50, Y: 0}, Point{X: 50, Y: 0})
	if clear {
		t.Fatalf("expected LOS to be blocked by building")
	}
}

func TestLineOfSightClearOverOpenTerrain(t *testing.T) {
	m := New(200, 5)
	clear := m.LineOfSight(Point{X: -50, Y: 0}, Point{X: 50, Y: 0})
	if !clear {
		t.Fatalf("expected clear LOS over open terrain")
	}
}

func TestLoadBuildingsMarksPolygonInterior(t *testing.T) {
	m := New(200, 5)
	m.LoadBuildings([]BuildingFootprint{{
		Footprint: []Point{{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}},
	}})
	if m.GetTerrainType(0, 0) != Building {
		t.Fatalf("expected interior point to be building terrain")
	}
	if m.GetTerrainType(100, 100) != Open {
		t.Fatalf("expected far point to remain open")
	}
}

func TestLoadRoadsPaintsRoadTerrain(t *testing.T) {
	m := New(200, 5)
	m.LoadRoads([]Segment{{Start: Point{X: -50, Y: 0}, End: Point{X: 50, Y: 0}, Width: 6}})
	if m.GetTerrainType(0, 0) != Road {
		t.Fatalf("expected road terrain along centerline")
	}
}

func TestFindTerrainOfTypeNear(t *testing.T) {
	m := New(200, 5)
	m.SetCell(0, 0, Road)
	m.SetCell(100, 100, Road)
	near := Point{X: 0, Y: 0}
	found := m.FindTerrainOfType(Road, &near, 20)
	if len(found) != 1 {
		t.Fatalf("expected 1 nearby road cell, got %d", len(found))
	}
}
