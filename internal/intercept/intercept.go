// Package intercept computes lead-target aim points and time-to-intercept
// for moving targets, used by every weapon-bearing unit behavior.
package intercept

import (
	"math"

	"github.com/valpatel/tritium-sc/internal/spatial"
)

// UncatchableTime is returned by TimeToIntercept when the pursuer cannot
// ever reach the target (e.g. target outruns a stationary pursuer).
const UncatchableTime = 9999.0

const epsilon = 1e-6

// TargetVelocity converts a heading (degrees, 0 = north, increasing
// clockwise) and speed into a world-space velocity vector.
func TargetVelocity(heading, speed float64) spatial.Point {
	rad := heading * math.Pi / 180.0
	return spatial.Point{
		X: math.Sin(rad) * speed,
		Y: math.Cos(rad) * speed,
	}
}

// solveInterceptTime solves for the smallest non-negative t such that
// |targetPos + targetVel*t - shooterPos| = shooterSpeed*t, i.e. the time
// at which a shooter moving at shooterSpeed directly toward the
// intercept point would arrive simultaneously with the target.
//
// This is the classic quadratic pursuit-intercept equation:
//
//	(vt.x^2 + vt.y^2 - s^2) t^2 + 2(dx*vt.x + dy*vt.y) t + (dx^2+dy^2) = 0
//
// where d = targetPos - shooterPos.
func solveInterceptTime(shooterPos, targetPos, targetVel spatial.Point, shooterSpeed float64) (float64, bool) {
	dx := targetPos.X - shooterPos.X
	dy := targetPos.Y - shooterPos.Y

	a := targetVel.X*targetVel.X + targetVel.Y*targetVel.Y - shooterSpeed*shooterSpeed
	b := 2 * (dx*targetVel.X + dy*targetVel.Y)
	c := dx*dx + dy*dy

	if math.Abs(a) < epsilon {
		// Degenerate to linear equation b*t + c = 0.
		if math.Abs(b) < epsilon {
			if c < epsilon {
				return 0, true
			}
			return 0, false
		}
		t := -c / b
		if t >= 0 {
			return t, true
		}
		return 0, false
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sqrtDisc := math.Sqrt(disc)
	t1 := (-b + sqrtDisc) / (2 * a)
	t2 := (-b - sqrtDisc) / (2 * a)

	// Want the smallest non-negative root.
	best, any := math.Inf(1), false
	for _, t := range []float64{t1, t2} {
		if t >= 0 && t < best {
			best = t
			any = true
		}
	}
	if !any {
		return 0, false
	}
	return best, true
}

// TimeToIntercept returns the time (seconds) for a shooter at shooterPos
// moving at shooterSpeed to reach a target at targetPos moving with
// targetVel, or UncatchableTime if no finite non-negative solution
// exists.
func TimeToIntercept(shooterPos, targetPos, targetVel spatial.Point, shooterSpeed float64) float64 {
	t, ok := solveInterceptTime(shooterPos, targetPos, targetVel, shooterSpeed)
	if !ok {
		return UncatchableTime
	}
	return t
}

// PredictIntercept returns the world-space point at which a shooter
// moving at shooterSpeed would meet a target currently at targetPos
// moving with targetVel, along with the time to reach it. If the target
// is uncatchable, the predicted point is the target's current position
// and the time is UncatchableTime.
func PredictIntercept(shooterPos, targetPos, targetVel spatial.Point, shooterSpeed float64) (spatial.Point, float64) {
	t, ok := solveInterceptTime(shooterPos, targetPos, targetVel, shooterSpeed)
	if !ok {
		return targetPos, UncatchableTime
	}
	return spatial.Point{
		X: targetPos.X + targetVel.X*t,
		Y: targetPos.Y + targetVel.Y*t,
	}, t
}

// LeadTarget returns the aim point a weapon should point at to hit a
// moving target, given the target's heading/speed and the projectile's
// travel speed. If the target can't be caught, aims at its current
// position.
func LeadTarget(shooterPos, targetPos spatial.Point, targetHeading, targetSpeed, projectileSpeed float64) spatial.Point {
	vel := TargetVelocity(targetHeading, targetSpeed)
	point, t := PredictIntercept(shooterPos, targetPos, vel, projectileSpeed)
	if t >= UncatchableTime {
		return targetPos
	}
	return point
}
