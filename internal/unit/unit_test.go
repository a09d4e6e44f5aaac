package unit

import (
	"testing"

	"github.com/valpatel/tritium-sc/internal/spatial"
)

func TestNewUnitStartsAtDefaultMorale(t *testing.T) {
	u := New("turret-1", Friendly, "turret", spatial.Point{})
	if u.Morale != 0.7 {
		t.Fatalf("expected starting morale 0.7, got %f", u.Morale)
	}
	if u.Status != StatusSpawning {
		t.Fatalf("expected spawning status, got %s", u.Status)
	}
}

func TestApplyDamageTransitionsToEliminatedOnce(t *testing.T) {
	u := New("hostile-1", Hostile, "person", spatial.Point{})
	u.Status = StatusActive
	if elim := u.ApplyDamage(10); elim {
		t.Fatalf("should not yet be eliminated")
	}
	if elim := u.ApplyDamage(1000); !elim {
		t.Fatalf("expected elimination transition on lethal damage")
	}
	if u.Health != 0 {
		t.Fatalf("expected health floored at 0, got %f", u.Health)
	}
	if elim := u.ApplyDamage(10); elim {
		t.Fatalf("should not re-report elimination on subsequent damage")
	}
}

func TestCategoryOfKnownAndUnknownTypes(t *testing.T) {
	if CategoryOf("turret") != CategoryStationary {
		t.Fatalf("expected turret to be stationary")
	}
	if CategoryOf("totally-unknown") != CategoryFoot {
		t.Fatalf("expected unknown asset type to default to foot category")
	}
}

func TestWaypointsAdvance(t *testing.T) {
	u := New("rover-1", Friendly, "rover", spatial.Point{})
	u.SetWaypoints([]spatial.Point{{X: 1, Y: 1}, {X: 2, Y: 2}})
	wp, ok := u.CurrentWaypoint()
	if !ok || wp.X != 1 {
		t.Fatalf("expected first waypoint, got %+v ok=%v", wp, ok)
	}
	u.WaypointIndex++
	wp, ok = u.CurrentWaypoint()
	if !ok || wp.X != 2 {
		t.Fatalf("expected second waypoint, got %+v ok=%v", wp, ok)
	}
	u.WaypointIndex++
	if _, ok := u.CurrentWaypoint(); ok {
		t.Fatalf("expected no waypoint past the end of the list")
	}
}
