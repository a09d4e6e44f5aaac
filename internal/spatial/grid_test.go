package spatial

import (
	"testing"

	"github.com/google/uuid"
)

func TestQueryRadiusFindsNearbyOnly(t *testing.T) {
	g := New(50.0)
	near := uuid.New()
	far := uuid.New()
	g.Rebuild(map[uuid.UUID]Point{
		near: {X: 10, Y: 10},
		far:  {X: 500, Y: 500},
	})

	ids := g.QueryRadius(Point{X: 0, Y: 0}, 20)
	if len(ids) != 1 || ids[0] != near {
		t.Fatalf("expected only %v within radius, got %v", near, ids)
	}
}

func TestQueryRadiusSpansMultipleCells(t *testing.T) {
	g := New(50.0)
	a := uuid.New()
	b := uuid.New()
	g.Rebuild(map[uuid.UUID]Point{
		a: {X: -40, Y: 0},
		b: {X: 40, Y: 0},
	})

	ids := g.QueryRadius(Point{X: 0, Y: 0}, 45)
	if len(ids) != 2 {
		t.Fatalf("expected both ids within radius spanning cell boundary, got %d", len(ids))
	}
}

func TestInsertRemove(t *testing.T) {
	g := New(50.0)
	id := uuid.New()
	g.Insert(id, Point{X: 1, Y: 1})
	if ids := g.QueryRadius(Point{X: 0, Y: 0}, 5); len(ids) != 1 {
		t.Fatalf("expected inserted id to be found")
	}
	g.Remove(id)
	if ids := g.QueryRadius(Point{X: 0, Y: 0}, 5); len(ids) != 0 {
		t.Fatalf("expected removed id to be gone, got %v", ids)
	}
}

func TestQueryRect(t *testing.T) {
	g := New(50.0)
	inside := uuid.New()
	outside := uuid.New()
	g.Rebuild(map[uuid.UUID]Point{
		inside:  {X: 5, Y: 5},
		outside: {X: 1000, Y: 1000},
	})
	ids := g.QueryRect(0, 0, 10, 10)
	if len(ids) != 1 || ids[0] != inside {
		t.Fatalf("expected only inside id, got %v", ids)
	}
}

func TestNearestExcludesSelf(t *testing.T) {
	g := New(50.0)
	self := uuid.New()
	other := uuid.New()
	g.Rebuild(map[uuid.UUID]Point{
		self:  {X: 0, Y: 0},
		other: {X: 10, Y: 0},
	})
	id, dist, ok := Nearest(g, Point{X: 0, Y: 0}, &self)
	if !ok || id != other {
		t.Fatalf("expected other id, got %v ok=%v", id, ok)
	}
	if dist != 10 {
		t.Fatalf("expected distance 10, got %f", dist)
	}
}
