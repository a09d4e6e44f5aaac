// Package swarm implements boids-style flocking for hostile swarm drones
// and the attack-formation waypoint generators that steer them.
package swarm

import (
	"math"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Boids tuning, scaled for a ~200m battlespace at 10Hz.
const (
	SeparationRadius = 5.0
	SeparationWeight = 2.5

	AlignmentRadius = 15.0
	AlignmentWeight = 1.0

	CohesionRadius = 20.0
	CohesionWeight = 0.8

	TargetWeight = 1.5

	MaxForce = 3.0
)

// Controller runs the boids flocking pass for hostile swarm drones.
type Controller struct {
	sepRadius   float64
	alignRadius float64
	cohRadius   float64
	maxForce    float64
}

// New creates a flocking controller with the default radii.
func New() *Controller {
	return NewWithConfig(SeparationRadius, AlignmentRadius, CohesionRadius, MaxForce)
}

// NewWithConfig creates a flocking controller with tuning pulled from the
// engine's configuration surface (swarm_radii, max_force).
func NewWithConfig(sepRadius, alignRadius, cohRadius, maxForce float64) *Controller {
	return &Controller{
		sepRadius:   sepRadius,
		alignRadius: alignRadius,
		cohRadius:   cohRadius,
		maxForce:    maxForce,
	}
}

// Tick applies separation, alignment, cohesion, and target-seeking forces
// to every active swarm drone in swarmDrones, steering toward the nearest
// active friendly in friendlies.
func (c *Controller) Tick(dt float64, swarmDrones, friendlies map[uuid.UUID]*unit.Unit) {
	if len(swarmDrones) == 0 {
		return
	}

	nearestDef := c.nearestDefenders(swarmDrones, friendlies)

	type move struct{ fx, fy, mag float64 }
	moves := make(map[uuid.UUID]move, len(swarmDrones))

	for id, drone := range swarmDrones {
		if drone.Status != unit.StatusActive {
			continue
		}

		sepX, sepY := c.separation(id, drone, swarmDrones)
		aliX, aliY := c.alignment(id, drone, swarmDrones)
		cohX, cohY := c.cohesion(id, drone, swarmDrones)

		var tgtX, tgtY float64
		if defender, ok := nearestDef[id]; ok && defender != nil {
			dx := defender.Position.X - drone.Position.X
			dy := defender.Position.Y - drone.Position.Y
			dist := math.Hypot(dx, dy)
			if dist > 0.1 {
				tgtX, tgtY = dx/dist, dy/dist
			}
		}

		fx := sepX*SeparationWeight + aliX*AlignmentWeight + cohX*CohesionWeight + tgtX*TargetWeight
		fy := sepY*SeparationWeight + aliY*AlignmentWeight + cohY*CohesionWeight + tgtY*TargetWeight

		mag := math.Hypot(fx, fy)
		if mag > c.maxForce {
			fx = fx / mag * c.maxForce
			fy = fy / mag * c.maxForce
		}
		moves[id] = move{fx, fy, mag}
	}

	// Forces are all computed from the same pre-tick positions before any
	// drone moves.
	for id, mv := range moves {
		drone := swarmDrones[id]
		moveScale := drone.Speed * dt
		drone.Position.X += mv.fx * moveScale
		drone.Position.Y += mv.fy * moveScale

		if mv.mag > 0.01 {
			heading := math.Atan2(mv.fx, mv.fy) * 180.0 / math.Pi
			if heading < 0 {
				heading += 360.0
			}
			drone.Heading = heading
		}
	}
}

func (c *Controller) separation(id uuid.UUID, drone *unit.Unit, swarm map[uuid.UUID]*unit.Unit) (float64, float64) {
	var fx, fy float64
	r2 := c.sepRadius * c.sepRadius

	for otherID, other := range swarm {
		if otherID == id || other.Status != unit.StatusActive {
			continue
		}
		dx := drone.Position.X - other.Position.X
		dy := drone.Position.Y - other.Position.Y
		distSq := dx*dx + dy*dy
		if distSq < 0.001 {
			fx += 1.0
			continue
		}
		if distSq < r2 {
			dist := math.Sqrt(distSq)
			weight := 1.0 / dist
			fx += (dx / dist) * weight
			fy += (dy / dist) * weight
		}
	}
	return fx, fy
}

func (c *Controller) alignment(id uuid.UUID, drone *unit.Unit, swarm map[uuid.UUID]*unit.Unit) (float64, float64) {
	var sinSum, cosSum float64
	count := 0
	r2 := c.alignRadius * c.alignRadius

	for otherID, other := range swarm {
		if otherID == id || other.Status != unit.StatusActive {
			continue
		}
		dx := other.Position.X - drone.Position.X
		dy := other.Position.Y - drone.Position.Y
		if dx*dx+dy*dy <= r2 {
			rad := other.Heading * math.Pi / 180.0
			sinSum += math.Sin(rad)
			cosSum += math.Cos(rad)
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}

	avgHeading := math.Atan2(sinSum/float64(count), cosSum/float64(count))
	return math.Sin(avgHeading), math.Cos(avgHeading)
}

func (c *Controller) cohesion(id uuid.UUID, drone *unit.Unit, swarm map[uuid.UUID]*unit.Unit) (float64, float64) {
	var cx, cy float64
	count := 0
	r2 := c.cohRadius * c.cohRadius

	for otherID, other := range swarm {
		if otherID == id || other.Status != unit.StatusActive {
			continue
		}
		dx := other.Position.X - drone.Position.X
		dy := other.Position.Y - drone.Position.Y
		if dx*dx+dy*dy <= r2 {
			cx += other.Position.X
			cy += other.Position.Y
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	cx /= float64(count)
	cy /= float64(count)

	dx := cx - drone.Position.X
	dy := cy - drone.Position.Y
	dist := math.Hypot(dx, dy)
	if dist < 0.01 {
		return 0, 0
	}
	return dx / dist, dy / dist
}

func (c *Controller) nearestDefenders(swarmDrones, friendlies map[uuid.UUID]*unit.Unit) map[uuid.UUID]*unit.Unit {
	result := make(map[uuid.UUID]*unit.Unit, len(swarmDrones))
	if len(friendlies) == 0 {
		for id := range swarmDrones {
			result[id] = nil
		}
		return result
	}

	var active []*unit.Unit
	for _, f := range friendlies {
		switch f.Status {
		case unit.StatusActive, unit.StatusIdle, unit.StatusStationary:
			active = append(active, f)
		}
	}

	for id, drone := range swarmDrones {
		var best *unit.Unit
		bestDist := math.Inf(1)
		for _, defender := range active {
			dx := defender.Position.X - drone.Position.X
			dy := defender.Position.Y - drone.Position.Y
			d := dx*dx + dy*dy
			if d < bestDist {
				bestDist = d
				best = defender
			}
		}
		result[id] = best
	}
	return result
}

// CircleStrafePositions returns count positions evenly spaced on a circle
// of the given radius around target.
func CircleStrafePositions(target spatial.Point, radius float64, count int) []spatial.Point {
	positions := make([]spatial.Point, 0, count)
	for i := 0; i < count; i++ {
		angle := (2.0 * math.Pi * float64(i)) / float64(count)
		positions = append(positions, spatial.Point{
			X: target.X + radius*math.Cos(angle),
			Y: target.Y + radius*math.Sin(angle),
		})
	}
	return positions
}

// DiveBombPositions returns len(startPositions) copies of target: every
// drone converges directly on it.
func DiveBombPositions(target spatial.Point, startPositions []spatial.Point) []spatial.Point {
	positions := make([]spatial.Point, len(startPositions))
	for i := range startPositions {
		positions[i] = target
	}
	return positions
}

// WaveAssaultPositions returns a line of count positions perpendicular to
// approachHeading (degrees, 0=north clockwise), centered 30m from target
// along the approach vector, spaced spacing meters apart.
func WaveAssaultPositions(target spatial.Point, approachHeading float64, count int, spacing float64) []spatial.Point {
	rad := approachHeading * math.Pi / 180.0
	fwdX, fwdY := math.Sin(rad), math.Cos(rad)
	perpX, perpY := fwdY, -fwdX

	centerX := target.X - fwdX*30.0
	centerY := target.Y - fwdY*30.0

	positions := make([]spatial.Point, 0, count)
	half := float64(count-1) / 2.0
	for i := 0; i < count; i++ {
		offset := (float64(i) - half) * spacing
		positions = append(positions, spatial.Point{
			X: centerX + perpX*offset,
			Y: centerY + perpY*offset,
		})
	}
	return positions
}

// SplitPincerPositions returns two flanking groups approaching target from
// approachHeading, split left/right by flankDistance meters and 30m back.
func SplitPincerPositions(target spatial.Point, approachHeading float64, count int, flankDistance float64) (left, right []spatial.Point) {
	rad := approachHeading * math.Pi / 180.0
	fwdX, fwdY := math.Sin(rad), math.Cos(rad)
	perpX, perpY := fwdY, -fwdX

	leftCount := count / 2
	rightCount := count - leftCount

	leftCenterX := target.X - fwdX*30.0 - perpX*flankDistance
	leftCenterY := target.Y - fwdY*30.0 - perpY*flankDistance
	for i := 0; i < leftCount; i++ {
		offset := float64(i) * 3.0
		left = append(left, spatial.Point{X: leftCenterX + fwdX*offset, Y: leftCenterY + fwdY*offset})
	}

	rightCenterX := target.X - fwdX*30.0 + perpX*flankDistance
	rightCenterY := target.Y - fwdY*30.0 + perpY*flankDistance
	for i := 0; i < rightCount; i++ {
		offset := float64(i) * 3.0
		right = append(right, spatial.Point{X: rightCenterX + fwdX*offset, Y: rightCenterY + fwdY*offset})
	}

	return left, right
}

// ApplyAOEDamage applies flat damage to every non-terminal drone within
// radius of center, returning the number affected. Damage does not fall
// off with distance.
func ApplyAOEDamage(drones map[uuid.UUID]*unit.Unit, center spatial.Point, radius, damage float64) int {
	r2 := radius * radius
	affected := 0
	for _, drone := range drones {
		switch drone.Status {
		case unit.StatusActive, unit.StatusIdle, unit.StatusStationary:
		default:
			continue
		}
		dx := drone.Position.X - center.X
		dy := drone.Position.Y - center.Y
		if dx*dx+dy*dy <= r2 {
			drone.ApplyDamage(damage)
			affected++
		}
	}
	return affected
}
