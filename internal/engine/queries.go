package engine

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/squad"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// UnitView is a read-only, lock-free copy of a unit's externally visible
// state.
type UnitView struct {
	ID          uuid.UUID
	Name        string
	Alliance    string
	AssetType   string
	Position    spatial.Point
	Heading     float64
	Speed       float64
	Health      float64
	MaxHealth   float64
	FSMState    string
	Status      string
	SquadID     *uuid.UUID
	Morale      float64
	Degradation float64
	Kills       int
}

func newUnitView(u *unit.Unit) UnitView {
	var squadID *uuid.UUID
	if u.SquadID != nil {
		id := *u.SquadID
		squadID = &id
	}
	return UnitView{
		ID:          u.ID,
		Name:        u.Name,
		Alliance:    u.Alliance,
		AssetType:   u.AssetType,
		Position:    u.Position,
		Heading:     u.Heading,
		Speed:       u.Speed,
		Health:      u.Health,
		MaxHealth:   u.MaxHealth,
		FSMState:    u.FSMState,
		Status:      u.Status,
		SquadID:     squadID,
		Morale:      u.Morale,
		Degradation: u.Degradation,
		Kills:       u.Kills,
	}
}

// GetUnits returns a snapshot of every unit currently in the simulation,
// including units in their final visible tick.
func (e *Engine) GetUnits() []UnitView {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]UnitView, 0, len(e.units))
	for _, u := range e.units {
		out = append(out, newUnitView(u))
	}
	return out
}

// GetUnit returns a snapshot of a single unit.
func (e *Engine) GetUnit(id uuid.UUID) (UnitView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[id]
	if !ok {
		return UnitView{}, false
	}
	return newUnitView(u), true
}

// SquadView is a read-only copy of a squad's externally visible state.
type SquadView struct {
	ID             uuid.UUID
	MemberIDs      []uuid.UUID
	LeaderID       *uuid.UUID
	Formation      string
	SharedTargetID *uuid.UUID
	Cohesion       float64
	LastOrder      string
}

// GetSquads returns a snapshot of every active squad.
func (e *Engine) GetSquads() []SquadView {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.Squads.All()
	out := make([]SquadView, 0, len(all))
	for _, s := range all {
		out = append(out, newSquadView(s))
	}
	return out
}

func newSquadView(s *squad.Squad) SquadView {
	members := make([]uuid.UUID, len(s.MemberIDs))
	copy(members, s.MemberIDs)
	return SquadView{
		ID:             s.ID,
		MemberIDs:      members,
		LeaderID:       s.LeaderID,
		Formation:      s.Formation,
		SharedTargetID: s.SharedTargetID,
		Cohesion:       s.Cohesion,
		LastOrder:      s.LastOrder,
	}
}

// StateView is the coarse-grained simulation status query.
type StateView struct {
	SimTime   float64
	Phase     Phase
	WaveNo    int
	Score     int
	UnitCount int
}

// GetState returns the engine's current coarse status.
func (e *Engine) GetState() StateView {
	e.mu.Lock()
	defer e.mu.Unlock()

	return StateView{
		SimTime:   e.simTime,
		Phase:     e.phase,
		WaveNo:    e.waveNo,
		Score:     e.score,
		UnitCount: len(e.units),
	}
}

// GetSpatialQuery returns the IDs of every unit within radius meters of
// point, as of the last completed tick's spatial index rebuild.
func (e *Engine) GetSpatialQuery(point spatial.Point, radius float64) []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.Spatial.QueryRadius(point, radius)
}
