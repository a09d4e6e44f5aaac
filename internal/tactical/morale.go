package tactical

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/unit"
)

// DefaultMorale is every unit's starting morale value. Passive recovery
// asymptotes back up to this baseline, not to 1.0; only an
// enemy-elimination boost can push a unit into the emboldened range.
const DefaultMorale = 0.7

const (
	recoveryRatePerSec  = 0.02
	damageMoraleLoss    = 0.005
	allyEliminatedLoss  = 0.15
	enemyEliminatedGain = 0.10

	BrokenThreshold     = 0.1
	SuppressedThreshold = 0.3
	EmboldenedThreshold = 0.9

	// noRecoveryGraceSec is how long a unit must go without taking damage
	// before morale starts recovering.
	noRecoveryGraceSec = 3.0

	// DefaultProximityRadiusM is the default "nearby" radius used for
	// ally/enemy elimination morale propagation.
	DefaultProximityRadiusM = 20.0
)

// MoraleSystem tracks per-unit morale and the sim-time of each unit's
// last hit, used to gate recovery.
type MoraleSystem struct {
	morale       map[uuid.UUID]float64
	lastHitAt    map[uuid.UUID]float64
	proximityRad float64
}

// NewMoraleSystem creates a morale system using proximityRadiusM for
// ally/enemy-elimination propagation (0 selects DefaultProximityRadiusM).
func NewMoraleSystem(proximityRadiusM float64) *MoraleSystem {
	if proximityRadiusM <= 0 {
		proximityRadiusM = DefaultProximityRadiusM
	}
	return &MoraleSystem{
		morale:       make(map[uuid.UUID]float64),
		lastHitAt:    make(map[uuid.UUID]float64),
		proximityRad: proximityRadiusM,
	}
}

// Seed gives a unit an explicit morale entry at its starting value,
// called once at unit construction rather than relying on a
// lazily-defaulting read.
func (m *MoraleSystem) Seed(id uuid.UUID) {
	if _, ok := m.morale[id]; !ok {
		m.morale[id] = DefaultMorale
	}
}

// Get returns a unit's current morale, defaulting to full morale (1.0)
// for an id with no entry; live units are always seeded explicitly at
// spawn.
func (m *MoraleSystem) Get(id uuid.UUID) float64 {
	if v, ok := m.morale[id]; ok {
		return v
	}
	return 1.0
}

// Set clamps and stores a unit's morale.
func (m *MoraleSystem) Set(id uuid.UUID, value float64) {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	m.morale[id] = value
}

// OnDamageTaken reduces morale proportionally to damage and resets the
// recovery grace timer.
func (m *MoraleSystem) OnDamageTaken(id uuid.UUID, damage float64, simTime float64) {
	m.Set(id, m.Get(id)-damage*damageMoraleLoss)
	m.lastHitAt[id] = simTime
}

// OnAllyEliminated applies the flat morale penalty for a nearby ally
// death.
func (m *MoraleSystem) OnAllyEliminated(id uuid.UUID) {
	m.Set(id, m.Get(id)-allyEliminatedLoss)
}

// OnEnemyEliminated applies the flat morale boost for a nearby enemy
// death.
func (m *MoraleSystem) OnEnemyEliminated(id uuid.UUID) {
	m.Set(id, m.Get(id)+enemyEliminatedGain)
}

// ProximityRadius returns the configured "nearby" radius for elimination
// propagation.
func (m *MoraleSystem) ProximityRadius() float64 { return m.proximityRad }

// Tick recovers morale toward DefaultMorale for units that haven't been
// hit in the last noRecoveryGraceSec seconds of sim time, then syncs
// Unit.Morale from the system's own authoritative value -- mirroring how
// ApplyDegradation refreshes Unit.Degradation each tick -- so the field a
// behavior or query reads off the unit itself never goes stale.
func (m *MoraleSystem) Tick(dt float64, simTime float64, units map[uuid.UUID]*unit.Unit) {
	for id, u := range units {
		if !u.IsAlive() {
			continue
		}
		lastHit := m.lastHitAt[id]
		if simTime-lastHit > noRecoveryGraceSec {
			current := m.Get(id)
			if current < DefaultMorale {
				next := current + recoveryRatePerSec*dt
				if next > DefaultMorale {
					next = DefaultMorale
				}
				m.Set(id, next)
			}
		}
		u.Morale = m.Get(id)
	}
}

func (m *MoraleSystem) IsBroken(id uuid.UUID) bool     { return m.Get(id) < BrokenThreshold }
func (m *MoraleSystem) IsSuppressed(id uuid.UUID) bool { return m.Get(id) < SuppressedThreshold }
func (m *MoraleSystem) IsEmboldened(id uuid.UUID) bool { return m.Get(id) > EmboldenedThreshold }

// Reset clears all morale state.
func (m *MoraleSystem) Reset() {
	m.morale = make(map[uuid.UUID]float64)
	m.lastHitAt = make(map[uuid.UUID]float64)
}
