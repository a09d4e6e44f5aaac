// Package unit defines the central simulation entity: its kinematic,
// combat, and state fields, lifecycle invariants, and the unit-type
// registry used to dispatch per-type behaviors.
package unit

import (
	"time"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
)

// Alliance values.
const (
	Friendly = "friendly"
	Hostile  = "hostile"
	Neutral  = "neutral"
)

// Status values. A unit persists for exactly one tick after entering a
// terminal state so event observers can see its final snapshot before the
// engine removes it.
const (
	StatusActive      = "active"
	StatusIdle        = "idle"
	StatusStationary  = "stationary"
	StatusEliminated  = "eliminated"
	StatusDestroyed   = "destroyed"
	StatusNeutralized = "neutralized"
	StatusSpawning    = "spawning"
)

func IsTerminal(status string) bool {
	switch status {
	case StatusEliminated, StatusDestroyed, StatusNeutralized:
		return true
	default:
		return false
	}
}

// Category groups asset types for behavior dispatch.
type Category int

const (
	CategoryStationary Category = iota
	CategoryGround
	CategoryAir
	CategoryFoot
)

// TypeDef describes the static profile of an asset type: default stats and
// movement category.
type TypeDef struct {
	AssetType      string
	Category       Category
	IsFlying       bool
	MaxHealth      float64
	Speed          float64
	WeaponRange    float64
	WeaponCooldown float64
	WeaponDamage   float64
}

var registry = map[string]TypeDef{
	"turret": {
		AssetType: "turret", Category: CategoryStationary, IsFlying: false,
		MaxHealth: 150, Speed: 0, WeaponRange: 60, WeaponCooldown: 1.2, WeaponDamage: 20,
	},
	"heavy_turret": {
		AssetType: "heavy_turret", Category: CategoryStationary, IsFlying: false,
		MaxHealth: 250, Speed: 0, WeaponRange: 80, WeaponCooldown: 2.0, WeaponDamage: 35,
	},
	"drone": {
		AssetType: "drone", Category: CategoryAir, IsFlying: true,
		MaxHealth: 60, Speed: 12, WeaponRange: 35, WeaponCooldown: 0.8, WeaponDamage: 10,
	},
	"scout_drone": {
		AssetType: "scout_drone", Category: CategoryAir, IsFlying: true,
		MaxHealth: 40, Speed: 16, WeaponRange: 20, WeaponCooldown: 1.0, WeaponDamage: 6,
	},
	"heavy_drone": {
		AssetType: "heavy_drone", Category: CategoryAir, IsFlying: true,
		MaxHealth: 90, Speed: 9, WeaponRange: 40, WeaponCooldown: 1.5, WeaponDamage: 18,
	},
	"recon_drone": {
		AssetType: "recon_drone", Category: CategoryAir, IsFlying: true,
		MaxHealth: 35, Speed: 18, WeaponRange: 0, WeaponCooldown: 0, WeaponDamage: 0,
	},
	"swarm_drone": {
		AssetType: "swarm_drone", Category: CategoryAir, IsFlying: true,
		MaxHealth: 20, Speed: 10, WeaponRange: 10, WeaponCooldown: 1.0, WeaponDamage: 5,
	},
	"rover": {
		AssetType: "rover", Category: CategoryGround, IsFlying: false,
		MaxHealth: 120, Speed: 6, WeaponRange: 40, WeaponCooldown: 1.0, WeaponDamage: 18,
	},
	"tank": {
		AssetType: "tank", Category: CategoryGround, IsFlying: false,
		MaxHealth: 300, Speed: 4, WeaponRange: 55, WeaponCooldown: 2.5, WeaponDamage: 45,
	},
	"apc": {
		AssetType: "apc", Category: CategoryGround, IsFlying: false,
		MaxHealth: 200, Speed: 7, WeaponRange: 35, WeaponCooldown: 1.5, WeaponDamage: 22,
	},
	"person": {
		AssetType: "person", Category: CategoryFoot, IsFlying: false,
		MaxHealth: 40, Speed: 3, WeaponRange: 25, WeaponCooldown: 1.2, WeaponDamage: 12,
	},
}

// GetType looks up the static type definition for an asset type. ok is
// false for unregistered types.
func GetType(assetType string) (TypeDef, bool) {
	t, ok := registry[assetType]
	return t, ok
}

// RegisterType adds or overrides a type definition, for scenario-specific
// asset types defined outside the built-in roster.
func RegisterType(def TypeDef) { registry[def.AssetType] = def }

// CategoryOf returns the behavior-dispatch category for an asset type,
// defaulting to CategoryFoot for unknown types.
func CategoryOf(assetType string) Category {
	if t, ok := registry[assetType]; ok {
		return t.Category
	}
	return CategoryFoot
}

// IsFlying reports whether the asset type ignores terrain.
func IsFlying(assetType string) bool {
	if t, ok := registry[assetType]; ok {
		return t.IsFlying
	}
	return false
}

// Unit is the central simulated entity.
type Unit struct {
	ID          uuid.UUID
	Name        string
	Alliance    string
	AssetType   string
	IsCombatant bool

	Position      spatial.Point
	Heading       float64 // degrees, 0 = north, clockwise
	Speed         float64 // current effective speed, m/s
	BaseSpeed     float64 // unmodified design speed
	Waypoints     []spatial.Point
	WaypointIndex int

	MaxHealth      float64
	Health         float64
	WeaponRange    float64
	WeaponCooldown float64
	WeaponDamage   float64
	LastFired      float64 // sim_time of last shot
	Kills          int

	FSMState string
	Status   string

	SquadID  *uuid.UUID
	Detected bool
	// Morale and Degradation are refreshed every tick by
	// tactical.MoraleSystem.Tick / tactical.ApplyDegradation; tactical's own
	// systems remain the source of truth (keyed by ID, surviving even
	// across a unit's final tick), these fields are a read-only mirror for
	// behaviors and the query surface that don't want to thread a system
	// reference through for a single field read.
	Morale      float64
	Degradation float64

	eliminatedTick bool // set true the tick status first becomes terminal
}

// New constructs a unit with the stat profile of its asset type (falling
// back to a generic foot-soldier profile for unregistered types), starting
// morale, and status "spawning".
func New(name, alliance, assetType string, pos spatial.Point) *Unit {
	def, ok := registry[assetType]
	if !ok {
		def = TypeDef{MaxHealth: 50, Speed: 3, WeaponRange: 20, WeaponCooldown: 1.0, WeaponDamage: 10, Category: CategoryFoot}
	}
	return &Unit{
		ID:             uuid.New(),
		Name:           name,
		Alliance:       alliance,
		AssetType:      assetType,
		IsCombatant:    def.WeaponDamage > 0,
		Position:       pos,
		BaseSpeed:      def.Speed,
		Speed:          def.Speed,
		MaxHealth:      def.MaxHealth,
		Health:         def.MaxHealth,
		WeaponRange:    def.WeaponRange,
		WeaponCooldown: def.WeaponCooldown,
		WeaponDamage:   def.WeaponDamage,
		LastFired:      neverFired,
		FSMState:       "spawning",
		Status:         StatusSpawning,
		Morale:         0.7,
		Degradation:    0.0,
	}
}

// neverFired seeds LastFired far enough in the past that a freshly spawned
// unit's weapon is always off cooldown, regardless of its weapon_cooldown
// or the sim-clock's current value (which starts at 0 each run).
const neverFired = -1e9

// HealthFraction returns health / max_health, or 0 for a zero-health unit
// type definition.
func (u *Unit) HealthFraction() float64 {
	if u.MaxHealth <= 0 {
		return 0
	}
	return u.Health / u.MaxHealth
}

// IsAlive reports whether the unit has not yet entered a terminal status.
func (u *Unit) IsAlive() bool { return !IsTerminal(u.Status) }

// CurrentWaypoint returns the unit's active waypoint and true, or the zero
// point and false if it has none remaining.
func (u *Unit) CurrentWaypoint() (spatial.Point, bool) {
	if u.WaypointIndex < 0 || u.WaypointIndex >= len(u.Waypoints) {
		return spatial.Point{}, false
	}
	return u.Waypoints[u.WaypointIndex], true
}

// SetWaypoints replaces the waypoint list and resets the index to the
// start.
func (u *Unit) SetWaypoints(points []spatial.Point) {
	u.Waypoints = points
	u.WaypointIndex = 0
}

// ApplyDamage subtracts damage from health (floored at 0) and, the first
// time health crosses zero, marks the unit eliminated. Returns true
// exactly on the tick the unit transitions to eliminated.
func (u *Unit) ApplyDamage(amount float64) (justEliminated bool) {
	if amount < 0 {
		amount = 0
	}
	wasAlive := u.IsAlive()
	u.Health -= amount
	if u.Health < 0 {
		u.Health = 0
	}
	if wasAlive && u.Health <= 0 {
		u.Status = StatusEliminated
		u.eliminatedTick = true
		return true
	}
	return false
}

// Category returns this unit's behavior-dispatch category.
func (u *Unit) Category() Category { return CategoryOf(u.AssetType) }

// JustEliminated reports whether this unit transitioned to a terminal
// status on the tick that just ran. The engine uses this to fan out
// elimination bookkeeping (pursuit release, squad succession, morale
// propagation) exactly once per unit.
func (u *Unit) JustEliminated() bool { return u.eliminatedTick }

// ClearEliminatedFlag resets the one-tick elimination flag once the
// engine has processed it.
func (u *Unit) ClearEliminatedFlag() { u.eliminatedTick = false }

// MonotonicNow returns wall-clock seconds. The engine does not use it
// (LastFired and every other engine timestamp is sim_time); tests and ad
// hoc tools can use it for wall-clock timestamps outside a tick.
func MonotonicNow() float64 { return float64(time.Now().UnixNano()) / 1e9 }
