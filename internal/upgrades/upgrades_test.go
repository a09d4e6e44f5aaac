package upgrades

import (
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func TestApplyUpgradeStacksMultiplicatively(t *testing.T) {
	s := New()
	RegisterStackable(s)

	rover := unit.New("rover-1", unit.Friendly, "rover", spatial.Point{})
	if !s.ApplyUpgrade(rover.ID, "stacking_speed", rover) {
		t.Fatalf("expected first application to succeed")
	}
	if !s.ApplyUpgrade(rover.ID, "stacking_speed", rover) {
		t.Fatalf("expected second application to succeed (max_stacks 2)")
	}
	if s.ApplyUpgrade(rover.ID, "stacking_speed", rover) {
		t.Fatalf("expected third application to fail past max_stacks")
	}

	got := s.GetStatModifier(rover.ID, "speed")
	want := 1.2 * 1.2
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected stacked multiplier %v, got %v", want, got)
	}
}

func TestApplyUpgradeRejectsIneligibleType(t *testing.T) {
	s := New()
	turret := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{})
	// turbo_motor has no eligibility restriction; armor_plating likewise.
	// Use a custom restricted upgrade to exercise the eligibility gate.
	s.RegisterUpgrade(Upgrade{
		ID: "drone_only", StatModifiers: map[string]float64{"speed": 1.5},
		MaxStacks: 1, EligibleTypes: []string{"drone"},
	})
	if s.ApplyUpgrade(turret.ID, "drone_only", turret) {
		t.Fatalf("expected ineligible asset type to be rejected")
	}
}

func TestDamageReductionIsAdditiveCappedAtOne(t *testing.T) {
	s := New()
	tank := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	s.ApplyUpgrade(tank.ID, "reinforced_chassis", tank) // 0.15
	s.GrantAbility(tank.ID, "shield")
	targets := map[uuid.UUID]*unit.Unit{tank.ID: tank}
	s.UseAbility(tank.ID, "shield", targets) // +0.5

	got := s.GetStatModifier(tank.ID, "damage_reduction")
	if got <= 0.15 || got > 1.0 {
		t.Fatalf("expected combined reduction between 0.15 and 1.0, got %v", got)
	}
}

func TestUseAbilityRespectsCooldown(t *testing.T) {
	s := New()
	rover := unit.New("rover-1", unit.Friendly, "rover", spatial.Point{})
	s.GrantAbility(rover.ID, "speed_boost")
	targets := map[uuid.UUID]*unit.Unit{rover.ID: rover}

	if !s.UseAbility(rover.ID, "speed_boost", targets) {
		t.Fatalf("expected first use to succeed")
	}
	if s.UseAbility(rover.ID, "speed_boost", targets) {
		t.Fatalf("expected second use on cooldown to fail")
	}

	s.Tick(30.0)
	if !s.CanUseAbility(rover.ID, "speed_boost") {
		t.Fatalf("expected ability off cooldown after 30s")
	}
}

func TestEmergencyRepairHealsInstantly(t *testing.T) {
	s := New()
	rover := unit.New("rover-1", unit.Friendly, "rover", spatial.Point{})
	rover.Health = rover.MaxHealth * 0.5
	s.GrantAbility(rover.ID, "emergency_repair")
	targets := map[uuid.UUID]*unit.Unit{rover.ID: rover}

	s.UseAbility(rover.ID, "emergency_repair", targets)
	if rover.Health <= rover.MaxHealth*0.5 {
		t.Fatalf("expected health to increase after repair")
	}
	if len(s.GetActiveEffects(rover.ID)) != 0 {
		t.Fatalf("instant abilities should not create an active effect")
	}
}

func TestEMPBurstSlowsNearbyEnemiesOnly(t *testing.T) {
	s := New()
	drone := unit.New("drone-1", unit.Hostile, "drone", spatial.Point{X: 0, Y: 0})
	ally := unit.New("ally-1", unit.Hostile, "drone", spatial.Point{X: 5, Y: 0})
	enemyNear := unit.New("friendly-1", unit.Friendly, "person", spatial.Point{X: 10, Y: 0})
	enemyFar := unit.New("friendly-2", unit.Friendly, "person", spatial.Point{X: 100, Y: 0})

	s.GrantAbility(drone.ID, "emp_burst")
	targets := map[uuid.UUID]*unit.Unit{
		drone.ID: drone, ally.ID: ally, enemyNear.ID: enemyNear, enemyFar.ID: enemyFar,
	}
	s.UseAbility(drone.ID, "emp_burst", targets)

	if len(s.GetActiveEffects(ally.ID)) != 0 {
		t.Fatalf("emp should not affect allies")
	}
	if len(s.GetActiveEffects(enemyNear.ID)) == 0 {
		t.Fatalf("expected emp to affect a nearby enemy")
	}
	if len(s.GetActiveEffects(enemyFar.ID)) != 0 {
		t.Fatalf("emp should not affect an enemy outside its radius")
	}
}

// RegisterStackable registers a test-only upgrade with max_stacks 2, since
// every predefined upgrade caps at 1.
func RegisterStackable(s *System) {
	s.RegisterUpgrade(Upgrade{
		ID: "stacking_speed", StatModifiers: map[string]float64{"speed": 1.2}, MaxStacks: 2,
	})
}
