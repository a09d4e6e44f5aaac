// Package squad implements coordinated hostile-unit formations with a
// leader/follower command hierarchy: auto-clustering,
// formation-keeping, tactical orders, and leader succession.
package squad

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Formation type names.
const (
	FormationWedge   = "wedge"
	FormationLine    = "line"
	FormationColumn  = "column"
	FormationCircle  = "circle"
	defaultFormation = FormationWedge
)

// Tactical order names a squad leader can issue.
const (
	OrderAdvance    = "advance"
	OrderHold       = "hold"
	OrderFlankLeft  = "flank_left"
	OrderFlankRight = "flank_right"
	OrderRetreat    = "retreat"
)

// DefaultLeaderSafeRangeM is the leader-AI flank-vs-advance threshold
// distance; it has no named config option, so
// callers wiring a squad.Manager from config pass this default through.
const DefaultLeaderSafeRangeM = 30.0

const (
	squadRadiusM            = 15.0
	formationSpacingM       = 4.0
	formationConvergence    = 0.15
	orderTimeoutSec         = 10.0
	leaderSafeRangeM        = DefaultLeaderSafeRangeM
	retreatHealthThreshold  = 0.3
	cohesionDropOnLeaderEnd = 0.3
	cohesionRecoveryPerSec  = 0.01
	flankOffsetStepM        = 2.0
	retreatFleeDistanceM    = 100.0

	// The engine runs a fixed 10Hz tick; the per-tick flank-offset step
	// below is scaled by that assumption rather than the caller's dt.
	fixedTickDt = 0.1
)

// Squad is a coordinated group of hostile units with a command hierarchy.
type Squad struct {
	ID             uuid.UUID
	MemberIDs      []uuid.UUID
	LeaderID       *uuid.UUID
	Formation      string
	SharedTargetID *uuid.UUID

	OfficerRank    int
	Cohesion       float64
	LastOrder      string // "" means no active order
	OrderTimestamp float64

	// FormationSpacingM is the rank spacing used by FormationOffsets. Zero
	// (the case for a Squad built directly, e.g. in a test) falls back to
	// the package default.
	FormationSpacingM float64
}

// FormationOffsets returns each member's (dx, dy) offset relative to the
// leader, in local coordinates where +x is right and +y is forward
// (toward the enemy). The leader is always at (0, 0).
func (s *Squad) FormationOffsets() map[uuid.UUID]spatial.Point {
	spacing := s.FormationSpacingM
	if spacing <= 0 {
		spacing = formationSpacingM
	}

	offsets := make(map[uuid.UUID]spatial.Point, len(s.MemberIDs))
	if len(s.MemberIDs) == 0 {
		return offsets
	}
	if s.LeaderID != nil {
		offsets[*s.LeaderID] = spatial.Point{}
	}

	followers := make([]uuid.UUID, 0, len(s.MemberIDs))
	for _, id := range s.MemberIDs {
		if s.LeaderID != nil && id == *s.LeaderID {
			continue
		}
		followers = append(followers, id)
	}

	switch s.Formation {
	case FormationWedge:
		cos45 := math.Sqrt2 / 2.0
		for i, id := range followers {
			rank := i + 1
			side := -1.0
			if rank%2 == 0 {
				side = 1.0
			}
			row := float64((rank + 1) / 2)
			dist := spacing * row
			offsets[id] = spatial.Point{X: side * dist * cos45, Y: -dist * cos45}
		}
	case FormationLine:
		for i, id := range followers {
			rank := i + 1
			side := -1.0
			if rank%2 == 0 {
				side = 1.0
			}
			col := float64((rank + 1) / 2)
			offsets[id] = spatial.Point{X: side * spacing * col, Y: 0}
		}
	case FormationColumn:
		for i, id := range followers {
			rank := i + 1
			offsets[id] = spatial.Point{X: 0, Y: -spacing * float64(rank)}
		}
	case FormationCircle:
		n := len(followers)
		if n > 0 {
			angleStep := 2.0 * math.Pi / float64(n)
			for i, id := range followers {
				angle := angleStep * float64(i)
				offsets[id] = spatial.Point{X: spacing * math.Cos(angle), Y: spacing * math.Sin(angle)}
			}
		}
	}
	return offsets
}

// Manager auto-forms and ticks hostile squads.
type Manager struct {
	rng            *rand.Rand
	squads         map[uuid.UUID]*Squad
	holdBaseSpeeds map[uuid.UUID]float64

	squadRadiusM      float64
	formationSpacingM float64
	orderTimeoutSec   float64
	leaderSafeRangeM  float64
}

// New creates an empty squad manager using rng for leader-AI tie-breaks
// (flank-left vs flank-right) and the default tuning (15m squad
// radius, 4m formation spacing, 10s order timeout, 30m leader safe range).
func New(rng *rand.Rand) *Manager {
	return NewWithConfig(rng, squadRadiusM, formationSpacingM, orderTimeoutSec, leaderSafeRangeM)
}

// NewWithConfig creates a squad manager with tuning pulled from the
// engine's configuration surface (squad_radius_m,
// formation_spacing_m, order_timeout_s). leaderSafeRange governs how close
// a defender must be before a squad leader flanks rather than advances.
func NewWithConfig(rng *rand.Rand, squadRadius, formationSpacing, orderTimeout, leaderSafeRange float64) *Manager {
	return &Manager{
		rng:               rng,
		squads:            make(map[uuid.UUID]*Squad),
		holdBaseSpeeds:    make(map[uuid.UUID]float64),
		squadRadiusM:      squadRadius,
		formationSpacingM: formationSpacing,
		orderTimeoutSec:   orderTimeout,
		leaderSafeRangeM:  leaderSafeRange,
	}
}

// GetSquad returns a squad by ID.
func (m *Manager) GetSquad(id uuid.UUID) (*Squad, bool) {
	s, ok := m.squads[id]
	return s, ok
}

// All returns every live squad, keyed by ID, for query surfaces that list
// squad state wholesale.
func (m *Manager) All() map[uuid.UUID]*Squad {
	out := make(map[uuid.UUID]*Squad, len(m.squads))
	for id, s := range m.squads {
		out[id] = s
	}
	return out
}

// IsLeader reports whether id currently leads any squad.
func (m *Manager) IsLeader(id uuid.UUID) bool {
	for _, s := range m.squads {
		if s.LeaderID != nil && *s.LeaderID == id {
			return true
		}
	}
	return false
}

// Clear dissolves every squad, restoring held speeds and clearing each
// unit's squad assignment.
func (m *Manager) Clear(units map[uuid.UUID]*unit.Unit) {
	for id, speed := range m.holdBaseSpeeds {
		if u, ok := units[id]; ok {
			u.BaseSpeed = speed
			u.Speed = speed
		}
	}
	for _, u := range units {
		u.SquadID = nil
	}
	m.holdBaseSpeeds = make(map[uuid.UUID]float64)
	m.squads = make(map[uuid.UUID]*Squad)
}

// IssueOrder sets a squad's active tactical order.
func (m *Manager) IssueOrder(squadID uuid.UUID, order string, simTime float64) {
	s, ok := m.squads[squadID]
	if !ok {
		return
	}
	s.LastOrder = order
	s.OrderTimestamp = simTime
}

// OnLeaderEliminated cascades the effects of a squad leader's death:
// cohesion drops and every member is ordered to retreat. Morale penalties
// are the caller's responsibility (tactical.MoraleSystem.OnAllyEliminated).
func (m *Manager) OnLeaderEliminated(squadID uuid.UUID, simTime float64) {
	s, ok := m.squads[squadID]
	if !ok {
		return
	}
	s.Cohesion = cohesionDropOnLeaderEnd
	s.LastOrder = OrderRetreat
	s.OrderTimestamp = simTime
}

// PromoteNewLeader assigns the member nearest to the eliminated leader's
// last known position as the new leader.
func (m *Manager) PromoteNewLeader(squadID uuid.UUID, oldLeaderPos spatial.Point, units map[uuid.UUID]*unit.Unit) {
	s, ok := m.squads[squadID]
	if !ok {
		return
	}

	var bestID uuid.UUID
	bestDist := math.Inf(1)
	found := false
	for _, mid := range s.MemberIDs {
		if s.LeaderID != nil && mid == *s.LeaderID {
			continue
		}
		u, ok := units[mid]
		if !ok || u.Status != unit.StatusActive {
			continue
		}
		d := distance(u.Position, oldLeaderPos)
		if d < bestDist {
			bestDist = d
			bestID = mid
			found = true
		}
	}
	if found {
		s.LeaderID = &bestID
	}
}

// TickOrders expires stale orders, runs leader AI, applies follower
// responses, and recovers cohesion. Call once per tick.
func (m *Manager) TickOrders(dt, simTime float64, units map[uuid.UUID]*unit.Unit) {
	for _, s := range m.squads {
		if s.LastOrder != "" && simTime-s.OrderTimestamp >= m.orderTimeoutSec {
			s.LastOrder = ""
		}
		if s.LastOrder == "" && s.LeaderID != nil {
			m.leaderAIDecide(s, units, simTime)
		}
		m.applyOrderToFollowers(s, units)

		if s.LeaderID != nil && s.Cohesion < 1.0 {
			if leader, ok := units[*s.LeaderID]; ok && leader.Status == unit.StatusActive {
				s.Cohesion = math.Min(1.0, s.Cohesion+cohesionRecoveryPerSec*dt)
			}
		}
	}
}

func (m *Manager) leaderAIDecide(s *Squad, units map[uuid.UUID]*unit.Unit, simTime float64) {
	if s.LeaderID == nil {
		return
	}
	leader, ok := units[*s.LeaderID]
	if !ok {
		return
	}

	var activeMembers []*unit.Unit
	for _, mid := range s.MemberIDs {
		if u, ok := units[mid]; ok && u.Status == unit.StatusActive {
			activeMembers = append(activeMembers, u)
		}
	}
	if len(activeMembers) == 0 {
		return
	}

	var totalFrac float64
	for _, u := range activeMembers {
		if u.MaxHealth > 0 {
			totalFrac += u.Health / u.MaxHealth
		} else {
			totalFrac += 1.0
		}
	}
	avgHealth := totalFrac / float64(len(activeMembers))
	if avgHealth < retreatHealthThreshold {
		m.IssueOrder(s.ID, OrderRetreat, simTime)
		return
	}

	var nearestDefender *unit.Unit
	nearestDist := math.Inf(1)
	for _, f := range units {
		if !isEngageableFriendly(f) {
			continue
		}
		d := distance(f.Position, leader.Position)
		if d < nearestDist {
			nearestDist = d
			nearestDefender = f
		}
	}

	if nearestDist > m.leaderSafeRangeM {
		m.IssueOrder(s.ID, OrderAdvance, simTime)
		return
	}

	if nearestDefender != nil && nearestDefender.Category() == unit.CategoryStationary {
		dir := OrderFlankLeft
		if m.rng.Float64() < 0.5 {
			dir = OrderFlankRight
		}
		m.IssueOrder(s.ID, dir, simTime)
		return
	}

	m.IssueOrder(s.ID, OrderAdvance, simTime)
}

func (m *Manager) applyOrderToFollowers(s *Squad, units map[uuid.UUID]*unit.Unit) {
	if s.LastOrder == "" {
		m.restoreHeldSpeeds(s, units)
		return
	}

	for _, mid := range s.MemberIDs {
		if s.LeaderID != nil && mid == *s.LeaderID {
			continue
		}
		u, ok := units[mid]
		if !ok || u.Status != unit.StatusActive {
			continue
		}

		switch s.LastOrder {
		case OrderAdvance:
			m.restoreSpeed(mid, u)

		case OrderHold:
			if _, held := m.holdBaseSpeeds[mid]; !held {
				m.holdBaseSpeeds[mid] = u.BaseSpeed
			}
			// Zero BaseSpeed too: the engine recomputes Speed from
			// BaseSpeed every kinematic step, so zeroing only the
			// mirror would last a single tick.
			u.BaseSpeed = 0.0
			u.Speed = 0.0

		case OrderFlankLeft, OrderFlankRight:
			m.restoreSpeed(mid, u)
			headingRad := u.Heading * math.Pi / 180.0
			sign := -1.0
			if s.LastOrder == OrderFlankRight {
				sign = 1.0
			}
			step := flankOffsetStepM * fixedTickDt
			u.Position.X += math.Sin(headingRad+sign*math.Pi/2) * step
			u.Position.Y += math.Cos(headingRad+sign*math.Pi/2) * step

		case OrderRetreat:
			m.restoreSpeed(mid, u)
			distFromCenter := math.Hypot(u.Position.X, u.Position.Y)
			var fleeX, fleeY float64
			if distFromCenter < 0.1 {
				headingRad := u.Heading * math.Pi / 180.0
				fleeX = math.Sin(headingRad) * retreatFleeDistanceM
				fleeY = math.Cos(headingRad) * retreatFleeDistanceM
			} else {
				fleeX = u.Position.X / distFromCenter * retreatFleeDistanceM
				fleeY = u.Position.Y / distFromCenter * retreatFleeDistanceM
			}
			u.Waypoints = []spatial.Point{{X: fleeX, Y: fleeY}}
			u.WaypointIndex = 0
		}
	}
}

func (m *Manager) restoreSpeed(id uuid.UUID, u *unit.Unit) {
	if base, ok := m.holdBaseSpeeds[id]; ok {
		u.BaseSpeed = base
		u.Speed = base
		delete(m.holdBaseSpeeds, id)
	}
}

func (m *Manager) restoreHeldSpeeds(s *Squad, units map[uuid.UUID]*unit.Unit) {
	for _, mid := range s.MemberIDs {
		if base, ok := m.holdBaseSpeeds[mid]; ok {
			if u, ok := units[mid]; ok {
				u.BaseSpeed = base
				u.Speed = base
			}
			delete(m.holdBaseSpeeds, mid)
		}
	}
}

// Tick re-evaluates squad membership and formations for the current
// tick: prunes scattered/eliminated members, forms new squads from
// unassigned hostiles, updates leaders, selects shared targets, and
// nudges followers toward their formation slots.
func (m *Manager) Tick(dt float64, units map[uuid.UUID]*unit.Unit) {
	activeHostiles := make(map[uuid.UUID]*unit.Unit)
	for id, u := range units {
		if u.Alliance == unit.Hostile && u.Status == unit.StatusActive {
			activeHostiles[id] = u
		}
	}

	m.pruneSquads(activeHostiles, units)
	m.formNewSquads(activeHostiles)

	for _, s := range m.squads {
		m.updateLeader(s, activeHostiles)
	}

	friendlies := make(map[uuid.UUID]*unit.Unit)
	for id, u := range units {
		if isEngageableFriendly(u) {
			friendlies[id] = u
		}
	}
	for _, s := range m.squads {
		m.selectSharedTarget(s, activeHostiles, friendlies)
	}
	for _, s := range m.squads {
		m.applyFormation(s, activeHostiles, dt)
	}
}

func (m *Manager) pruneSquads(activeHostiles, allUnits map[uuid.UUID]*unit.Unit) {
	var dissolve []uuid.UUID

	for sid, s := range m.squads {
		var alive []uuid.UUID
		for _, mid := range s.MemberIDs {
			if _, ok := activeHostiles[mid]; ok {
				alive = append(alive, mid)
			}
		}
		if len(alive) >= 2 {
			alive = filterByProximity(alive, activeHostiles, m.squadRadiusM)
		}

		aliveSet := make(map[uuid.UUID]bool, len(alive))
		for _, id := range alive {
			aliveSet[id] = true
		}
		for _, mid := range s.MemberIDs {
			if !aliveSet[mid] {
				if u, ok := allUnits[mid]; ok {
					u.SquadID = nil
				}
			}
		}

		s.MemberIDs = alive
		if len(alive) < 2 {
			dissolve = append(dissolve, sid)
		}
	}

	for _, sid := range dissolve {
		s := m.squads[sid]
		delete(m.squads, sid)
		for _, mid := range s.MemberIDs {
			if u, ok := allUnits[mid]; ok {
				u.SquadID = nil
			}
		}
	}
}

func filterByProximity(memberIDs []uuid.UUID, activeHostiles map[uuid.UUID]*unit.Unit, squadRadius float64) []uuid.UUID {
	if len(memberIDs) < 2 {
		return memberIDs
	}
	connected := make(map[uuid.UUID]bool)
	for i, a := range memberIDs {
		ta, ok := activeHostiles[a]
		if !ok {
			continue
		}
		for _, b := range memberIDs[i+1:] {
			tb, ok := activeHostiles[b]
			if !ok {
				continue
			}
			if distance(ta.Position, tb.Position) <= squadRadius {
				connected[a] = true
				connected[b] = true
			}
		}
	}
	var out []uuid.UUID
	for _, id := range memberIDs {
		if connected[id] {
			out = append(out, id)
		}
	}
	return out
}

func (m *Manager) formNewSquads(activeHostiles map[uuid.UUID]*unit.Unit) {
	var unassigned []uuid.UUID
	for id, u := range activeHostiles {
		if u.SquadID == nil {
			unassigned = append(unassigned, id)
		}
	}
	if len(unassigned) < 2 {
		return
	}

	assigned := make(map[uuid.UUID]bool)
	for _, tid := range unassigned {
		if assigned[tid] {
			continue
		}
		t := activeHostiles[tid]

		neighbors := []uuid.UUID{tid}
		for _, otherID := range unassigned {
			if otherID == tid || assigned[otherID] {
				continue
			}
			other := activeHostiles[otherID]
			if distance(t.Position, other.Position) <= m.squadRadiusM {
				neighbors = append(neighbors, otherID)
			}
		}

		if len(neighbors) >= 2 {
			s := &Squad{
				ID:                uuid.New(),
				MemberIDs:         neighbors,
				Formation:         defaultFormation,
				Cohesion:          1.0,
				FormationSpacingM: m.formationSpacingM,
			}
			m.updateLeader(s, activeHostiles)
			m.squads[s.ID] = s

			for _, mid := range neighbors {
				sid := s.ID
				activeHostiles[mid].SquadID = &sid
				assigned[mid] = true
			}
		}
	}
}

func (m *Manager) updateLeader(s *Squad, activeHostiles map[uuid.UUID]*unit.Unit) {
	var bestID uuid.UUID
	bestHealth := -1.0
	found := false
	for _, mid := range s.MemberIDs {
		u, ok := activeHostiles[mid]
		if !ok {
			continue
		}
		if u.Health > bestHealth {
			bestHealth = u.Health
			bestID = mid
			found = true
		}
	}
	if found {
		s.LeaderID = &bestID
	} else {
		s.LeaderID = nil
	}
}

func (m *Manager) selectSharedTarget(s *Squad, activeHostiles, friendlies map[uuid.UUID]*unit.Unit) {
	if s.LeaderID == nil || len(friendlies) == 0 {
		s.SharedTargetID = nil
		return
	}
	leader, ok := activeHostiles[*s.LeaderID]
	if !ok {
		s.SharedTargetID = nil
		return
	}

	var bestID uuid.UUID
	bestDist := math.Inf(1)
	found := false
	for fid, f := range friendlies {
		d := distance(f.Position, leader.Position)
		if d < bestDist {
			bestDist = d
			bestID = fid
			found = true
		}
	}
	if found {
		s.SharedTargetID = &bestID
	} else {
		s.SharedTargetID = nil
	}
}

func (m *Manager) applyFormation(s *Squad, activeHostiles map[uuid.UUID]*unit.Unit, dt float64) {
	if s.LeaderID == nil {
		return
	}
	leader, ok := activeHostiles[*s.LeaderID]
	if !ok {
		return
	}

	offsets := s.FormationOffsets()
	headingRad := leader.Heading * math.Pi / 180.0
	cosH := math.Cos(headingRad)
	sinH := math.Sin(headingRad)

	for _, mid := range s.MemberIDs {
		if mid == *s.LeaderID {
			continue
		}
		follower, ok := activeHostiles[mid]
		if !ok {
			continue
		}
		offset, ok := offsets[mid]
		if !ok || (offset.X == 0 && offset.Y == 0) {
			continue
		}

		worldDX := offset.X*cosH + offset.Y*sinH
		worldDY := -offset.X*sinH + offset.Y*cosH
		targetX := leader.Position.X + worldDX
		targetY := leader.Position.Y + worldDY

		dx := targetX - follower.Position.X
		dy := targetY - follower.Position.Y
		dist := math.Hypot(dx, dy)
		if dist > 0.5 {
			step := math.Min(dist*formationConvergence, follower.Speed*dt)
			follower.Position.X += dx / dist * step
			follower.Position.Y += dy / dist * step
		}
	}
}

func isEngageableFriendly(u *unit.Unit) bool {
	if u.Alliance != unit.Friendly || !u.IsCombatant {
		return false
	}
	switch u.Status {
	case unit.StatusActive, unit.StatusIdle, unit.StatusStationary:
		return true
	default:
		return false
	}
}

func distance(a, b spatial.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
