// Package upgrades implements stacking passive stat modifiers and
// cooldown-gated active abilities.
package upgrades

import (
	"math"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Upgrade is a passive, permanent stat modifier. Multiple applications of
// the same upgrade stack, up to MaxStacks.
type Upgrade struct {
	ID            string
	Name          string
	Description   string
	StatModifiers map[string]float64 // e.g. {"speed": 1.2}
	MaxStacks     int
	EligibleTypes []string // nil = all asset types
}

// Ability is an active, cooldown-gated effect.
type Ability struct {
	ID            string
	Name          string
	Description   string
	Cooldown      float64
	Duration      float64 // 0 = instant
	Effect        string  // "speed_boost", "repair", "shield", "emp", "overclock"
	Magnitude     float64
	EligibleTypes []string
}

// ActiveEffect is a currently-running timed ability effect applied to a
// unit.
type ActiveEffect struct {
	TargetID  uuid.UUID
	AbilityID string
	Effect    string
	Magnitude float64
	Remaining float64
}

// empRadiusM is the area-of-effect radius for the emp_burst ability.
const empRadiusM = 15.0

var predefinedUpgrades = map[string]Upgrade{
	"armor_plating": {
		ID: "armor_plating", Name: "Armor Plating",
		Description:   "Increase max health by 25%",
		StatModifiers: map[string]float64{"max_health": 1.25},
		MaxStacks:     1,
	},
	"enhanced_optics": {
		ID: "enhanced_optics", Name: "Enhanced Optics",
		Description:   "Increase weapon range by 20%",
		StatModifiers: map[string]float64{"weapon_range": 1.2},
		MaxStacks:     1,
	},
	"rapid_fire": {
		ID: "rapid_fire", Name: "Rapid Fire",
		Description:   "Reduce weapon cooldown by 30%",
		StatModifiers: map[string]float64{"weapon_cooldown": 0.7},
		MaxStacks:     1,
	},
	"reinforced_chassis": {
		ID: "reinforced_chassis", Name: "Reinforced Chassis",
		Description:   "Reduce damage taken by 15%",
		StatModifiers: map[string]float64{"damage_reduction": 0.15},
		MaxStacks:     1,
	},
	"turbo_motor": {
		ID: "turbo_motor", Name: "Turbo Motor",
		Description:   "Increase speed by 20%",
		StatModifiers: map[string]float64{"speed": 1.2},
		MaxStacks:     1,
	},
	"precision_targeting": {
		ID: "precision_targeting", Name: "Precision Targeting",
		Description:   "Increase damage by 15%",
		StatModifiers: map[string]float64{"weapon_damage": 1.15},
		MaxStacks:     1,
	},
}

var predefinedAbilities = map[string]Ability{
	"speed_boost": {
		ID: "speed_boost", Name: "Speed Boost", Description: "Double speed for 5s",
		Cooldown: 30.0, Duration: 5.0, Effect: "speed_boost", Magnitude: 2.0,
		EligibleTypes: []string{"rover", "drone", "scout_drone"},
	},
	"emergency_repair": {
		ID: "emergency_repair", Name: "Emergency Repair", Description: "Restore 30% health",
		Cooldown: 60.0, Duration: 0.0, Effect: "repair", Magnitude: 0.3,
		EligibleTypes: []string{"rover", "turret", "tank", "apc"},
	},
	"shield": {
		ID: "shield", Name: "Energy Shield", Description: "Block 50% damage for 8s",
		Cooldown: 45.0, Duration: 8.0, Effect: "shield", Magnitude: 0.5,
		EligibleTypes: []string{"turret", "heavy_turret", "tank"},
	},
	"emp_burst": {
		ID: "emp_burst", Name: "EMP Burst", Description: "Slow enemies in 15m radius by 50% for 4s",
		Cooldown: 40.0, Duration: 4.0, Effect: "emp", Magnitude: 0.5,
		EligibleTypes: []string{"drone", "missile_turret"},
	},
	"overclock": {
		ID: "overclock", Name: "Overclock", Description: "Triple fire rate for 3s",
		Cooldown: 50.0, Duration: 3.0, Effect: "overclock", Magnitude: 3.0,
		EligibleTypes: []string{"turret", "heavy_turret", "apc"},
	},
}

type cooldownKey struct {
	target  uuid.UUID
	ability string
}

// System manages upgrades and abilities for every unit. It is called
// exclusively from the single-threaded engine tick loop and needs no
// internal locking.
type System struct {
	unitUpgrades  map[uuid.UUID][]string
	unitAbilities map[uuid.UUID][]string
	cooldowns     map[cooldownKey]float64
	activeEffects []ActiveEffect

	customUpgrades  map[string]Upgrade
	customAbilities map[string]Ability
}

// New creates an empty upgrade/ability system.
func New() *System {
	return &System{
		unitUpgrades:    make(map[uuid.UUID][]string),
		unitAbilities:   make(map[uuid.UUID][]string),
		cooldowns:       make(map[cooldownKey]float64),
		customUpgrades:  make(map[string]Upgrade),
		customAbilities: make(map[string]Ability),
	}
}

// RegisterUpgrade adds a custom upgrade, extending the predefined set.
func (s *System) RegisterUpgrade(u Upgrade) { s.customUpgrades[u.ID] = u }

// RegisterAbility adds a custom ability, extending the predefined set.
func (s *System) RegisterAbility(a Ability) { s.customAbilities[a.ID] = a }

func (s *System) resolveUpgrade(id string) (Upgrade, bool) {
	if u, ok := predefinedUpgrades[id]; ok {
		return u, true
	}
	u, ok := s.customUpgrades[id]
	return u, ok
}

func (s *System) resolveAbility(id string) (Ability, bool) {
	if a, ok := predefinedAbilities[id]; ok {
		return a, true
	}
	a, ok := s.customAbilities[id]
	return a, ok
}

// ApplyUpgrade applies an upgrade to a unit. Fails if the upgrade is
// unknown, the unit's asset type isn't eligible, or max_stacks would be
// exceeded.
func (s *System) ApplyUpgrade(targetID uuid.UUID, upgradeID string, target *unit.Unit) bool {
	up, ok := s.resolveUpgrade(upgradeID)
	if !ok {
		return false
	}
	if up.EligibleTypes != nil && !contains(up.EligibleTypes, target.AssetType) {
		return false
	}
	current := s.unitUpgrades[targetID]
	count := 0
	for _, id := range current {
		if id == upgradeID {
			count++
		}
	}
	if count >= up.MaxStacks {
		return false
	}
	s.unitUpgrades[targetID] = append(current, upgradeID)
	return true
}

// GetUpgrades returns the upgrade ids (with duplicates for stacks)
// applied to a unit.
func (s *System) GetUpgrades(targetID uuid.UUID) []string {
	out := make([]string, len(s.unitUpgrades[targetID]))
	copy(out, s.unitUpgrades[targetID])
	return out
}

// GrantAbility grants an ability to a unit. Fails if the ability is
// unknown or already granted.
func (s *System) GrantAbility(targetID uuid.UUID, abilityID string) bool {
	if _, ok := s.resolveAbility(abilityID); !ok {
		return false
	}
	current := s.unitAbilities[targetID]
	if contains(current, abilityID) {
		return false
	}
	s.unitAbilities[targetID] = append(current, abilityID)
	return true
}

// GetAbilities returns the ability ids granted to a unit.
func (s *System) GetAbilities(targetID uuid.UUID) []string {
	out := make([]string, len(s.unitAbilities[targetID]))
	copy(out, s.unitAbilities[targetID])
	return out
}

// CanUseAbility reports whether a granted ability is off cooldown.
func (s *System) CanUseAbility(targetID uuid.UUID, abilityID string) bool {
	if !contains(s.unitAbilities[targetID], abilityID) {
		return false
	}
	return s.cooldowns[cooldownKey{targetID, abilityID}] <= 0
}

// UseAbility activates an ability for a unit. targets is the full live
// unit population, consulted for target eligibility and EMP area effects.
func (s *System) UseAbility(targetID uuid.UUID, abilityID string, targets map[uuid.UUID]*unit.Unit) bool {
	if !s.CanUseAbility(targetID, abilityID) {
		return false
	}
	ability, ok := s.resolveAbility(abilityID)
	if !ok {
		return false
	}
	source, ok := targets[targetID]
	if !ok || !source.IsAlive() {
		return false
	}
	if ability.EligibleTypes != nil && !contains(ability.EligibleTypes, source.AssetType) {
		return false
	}

	s.cooldowns[cooldownKey{targetID, abilityID}] = ability.Cooldown
	s.executeAbility(ability, targetID, source, targets)
	return true
}

func (s *System) executeAbility(ability Ability, targetID uuid.UUID, source *unit.Unit, targets map[uuid.UUID]*unit.Unit) {
	switch ability.Effect {
	case "repair":
		heal := source.MaxHealth * ability.Magnitude
		source.Health = math.Min(source.MaxHealth, source.Health+heal)
		return
	case "emp":
		s.applyEMP(ability, targetID, source, targets)
		return
	}
	if ability.Duration > 0 {
		s.activeEffects = append(s.activeEffects, ActiveEffect{
			TargetID: targetID, AbilityID: ability.ID, Effect: ability.Effect,
			Magnitude: ability.Magnitude, Remaining: ability.Duration,
		})
	}
}

func (s *System) applyEMP(ability Ability, sourceID uuid.UUID, source *unit.Unit, targets map[uuid.UUID]*unit.Unit) {
	for id, t := range targets {
		if id == sourceID || t.Alliance == source.Alliance || t.Alliance == unit.Neutral {
			continue
		}
		dist := distance(source.Position, t.Position)
		if dist <= empRadiusM {
			s.activeEffects = append(s.activeEffects, ActiveEffect{
				TargetID: id, AbilityID: ability.ID, Effect: "emp",
				Magnitude: ability.Magnitude, Remaining: ability.Duration,
			})
		}
	}
}

// Tick advances ability cooldowns and active effect durations by dt.
func (s *System) Tick(dt float64) {
	for key, remaining := range s.cooldowns {
		remaining -= dt
		if remaining <= 0 {
			delete(s.cooldowns, key)
			continue
		}
		s.cooldowns[key] = remaining
	}

	stillActive := s.activeEffects[:0]
	for _, e := range s.activeEffects {
		e.Remaining -= dt
		if e.Remaining > 0 {
			stillActive = append(stillActive, e)
		}
	}
	s.activeEffects = stillActive
}

// GetStatModifier returns the combined modifier for a stat from every
// upgrade and active effect applied to a unit. "damage_reduction" is
// additive, capped at 1.0; every other stat is multiplicative, default
// 1.0.
func (s *System) GetStatModifier(targetID uuid.UUID, stat string) float64 {
	if stat == "damage_reduction" {
		return s.damageReduction(targetID)
	}
	return s.multiplicativeModifier(targetID, stat)
}

func (s *System) multiplicativeModifier(targetID uuid.UUID, stat string) float64 {
	combined := 1.0
	for _, uid := range s.unitUpgrades[targetID] {
		up, ok := s.resolveUpgrade(uid)
		if !ok {
			continue
		}
		if mod, ok := up.StatModifiers[stat]; ok {
			combined *= mod
		}
	}
	for _, e := range s.activeEffects {
		if e.TargetID != targetID {
			continue
		}
		switch {
		case stat == "speed" && e.Effect == "speed_boost":
			combined *= e.Magnitude
		case stat == "speed" && e.Effect == "emp":
			combined *= e.Magnitude
		case stat == "weapon_cooldown" && e.Effect == "overclock":
			combined *= 1.0 / e.Magnitude
		}
	}
	return combined
}

func (s *System) damageReduction(targetID uuid.UUID) float64 {
	total := 0.0
	for _, uid := range s.unitUpgrades[targetID] {
		up, ok := s.resolveUpgrade(uid)
		if !ok {
			continue
		}
		if v, ok := up.StatModifiers["damage_reduction"]; ok {
			total += v
		}
	}
	for _, e := range s.activeEffects {
		if e.TargetID == targetID && e.Effect == "shield" {
			total += e.Magnitude
		}
	}
	return math.Min(total, 1.0)
}

// GetActiveEffects returns the effects currently applied to a unit.
func (s *System) GetActiveEffects(targetID uuid.UUID) []ActiveEffect {
	var out []ActiveEffect
	for _, e := range s.activeEffects {
		if e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out
}

// ListUpgrades returns every available upgrade, predefined plus custom.
func (s *System) ListUpgrades() []Upgrade {
	out := make([]Upgrade, 0, len(predefinedUpgrades)+len(s.customUpgrades))
	for _, u := range predefinedUpgrades {
		out = append(out, u)
	}
	for _, u := range s.customUpgrades {
		out = append(out, u)
	}
	return out
}

// ListAbilities returns every available ability, predefined plus custom.
func (s *System) ListAbilities() []Ability {
	out := make([]Ability, 0, len(predefinedAbilities)+len(s.customAbilities))
	for _, a := range predefinedAbilities {
		out = append(out, a)
	}
	for _, a := range s.customAbilities {
		out = append(out, a)
	}
	return out
}

// Reset clears all upgrades, abilities, cooldowns, and active effects.
func (s *System) Reset() {
	s.unitUpgrades = make(map[uuid.UUID][]string)
	s.unitAbilities = make(map[uuid.UUID][]string)
	s.cooldowns = make(map[cooldownKey]float64)
	s.activeEffects = nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func distance(a, b spatial.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Hypot(dx, dy)
}
