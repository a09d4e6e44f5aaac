package tactical

import (
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Degradation thresholds and scaling factors.
const (
	degradationThreshold = 0.5
	minSpeedFactor       = 0.4
	maxCooldownFactor    = 2.0
	fireDisabledThresh   = 0.1
)

// HealthFraction returns u.Health / u.MaxHealth, clamped to [0,1].
func HealthFraction(u *unit.Unit) float64 {
	if u.MaxHealth <= 0 {
		return 0
	}
	f := u.Health / u.MaxHealth
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// DegradationFactor returns 1.0 (no degradation) above the 50% health
// threshold, scaling linearly to 0.0 (fully degraded) at zero health.
func DegradationFactor(u *unit.Unit) float64 {
	frac := HealthFraction(u)
	if frac >= degradationThreshold {
		return 1.0
	}
	return frac / degradationThreshold
}

// ApplyDegradation refreshes u.Degradation (1.0 - factor) from current
// health. Called once per tick from the engine; degradation itself has no
// other state to advance.
func ApplyDegradation(u *unit.Unit) {
	u.Degradation = 1.0 - DegradationFactor(u)
}

// EffectiveSpeed returns the unit's base speed scaled down by
// degradation.
func EffectiveSpeed(u *unit.Unit, baseSpeed float64) float64 {
	factor := DegradationFactor(u)
	speedFactor := minSpeedFactor + (1.0-minSpeedFactor)*factor
	return baseSpeed * speedFactor
}

// EffectiveCooldown returns the unit's weapon cooldown scaled up by
// degradation (damaged units fire more slowly).
func EffectiveCooldown(u *unit.Unit, baseCooldown float64) float64 {
	factor := DegradationFactor(u)
	mult := 1.0 + (maxCooldownFactor-1.0)*(1.0-factor)
	return baseCooldown * mult
}

// CanFireDegraded reports whether the unit is healthy enough to fire at
// all (weapon jam threshold).
func CanFireDegraded(u *unit.Unit) bool {
	return HealthFraction(u) >= fireDisabledThresh
}
