// Package replay implements a bounded ring-buffer recorder of simulation
// snapshots and bus events for post-wave analysis and spectator playback
// and post-game analysis.
package replay

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// DefaultMaxFrames bounds the snapshot ring buffer at ~25 min of history
// at the default 2Hz snapshot rate.
const DefaultMaxFrames = 3000

// HeatmapGridSizeM quantises positions for heatmap aggregation.
const HeatmapGridSizeM = 2.0

// replayEventTypes is the subset of bus events the recorder captures.
// Diagnostic events (e.g. logged subsystem panics) are
// deliberately excluded -- they're operational noise, not replay content.
var replayEventTypes = map[string]bool{
	"projectile_fired":  true,
	"projectile_hit":    true,
	"target_eliminated": true,
	"unit_destroyed":    true,
	"wave_start":        true,
	"wave_complete":     true,
	"game_over":         true,
}

// TargetSnapshot is one unit's compact recorded state within a Frame.
type TargetSnapshot struct {
	TargetID  uuid.UUID `json:"target_id"`
	Name      string    `json:"name"`
	Alliance  string    `json:"alliance"`
	AssetType string    `json:"asset_type"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Heading   float64   `json:"heading"`
	Health    float64   `json:"health"`
	MaxHealth float64   `json:"max_health"`
	FSMState  string    `json:"fsm_state"`
	Status    string    `json:"status"`
}

// Frame is one recorded snapshot of every live unit at a point in
// simulation time.
type Frame struct {
	Timestamp float64          `json:"timestamp"`
	Targets   []TargetSnapshot `json:"targets"`
}

// EventRecord is one bus event captured by the recorder's listener.
type EventRecord struct {
	Timestamp float64                `json:"timestamp"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
}

// HeatmapCell is one quantised grid cell's visit count for a target.
type HeatmapCell struct {
	X, Y  float64
	Count int
}

// WaveSummary aggregates combat stats between a wave's start and
// completion.
type WaveSummary struct {
	WaveNumber   int
	Eliminations int
	Duration     float64
	ShotsFired   int
	ShotsHit     int
}

// Export is the JSON-serializable document shape of an exported replay.
type Export struct {
	Metadata ExportMetadata `json:"metadata"`
	Frames   []Frame        `json:"frames"`
	Events   []EventRecord  `json:"events"`
}

// ExportMetadata summarizes an exported replay.
type ExportMetadata struct {
	TotalFrames int     `json:"total_frames"`
	TotalEvents int     `json:"total_events"`
	StartTime   float64 `json:"start_time"`
	Duration    float64 `json:"duration"`
}

// Recorder is a bounded ring-buffer of snapshot frames plus an
// append-only event log, fed by the engine (snapshots, synchronously)
// and an internal bus listener goroutine (events, asynchronously).
//
// Both frame and event timestamps use simulation time rather than
// wall-clock time, so two runs of the same seeded scenario record
// identical replays. RecordSnapshot's sim-time argument is the
// authoritative clock; the listener goroutine stamps events with the
// most recently recorded sim-time at the moment of receipt.
type Recorder struct {
	mu          sync.Mutex
	maxFrames   int
	frames      []Frame
	frameHead   int
	frameCount  int
	events      []EventRecord
	recording   bool
	lastSimTime float64
	startTime   *float64

	bus          *eventbus.Bus
	sub          *eventbus.Subscription
	listenerDone chan struct{}
	listenerStop chan struct{}
}

// New constructs a recorder bound to bus, bounded at maxFrames snapshot
// frames (DefaultMaxFrames if <= 0).
func New(bus *eventbus.Bus, maxFrames int) *Recorder {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &Recorder{
		maxFrames: maxFrames,
		frames:    make([]Frame, maxFrames),
		bus:       bus,
	}
}

// FrameCount returns the number of snapshot frames currently stored.
func (r *Recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

// EventCount returns the number of events currently stored.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// IsRecording reports whether the recorder is currently capturing data.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start enables recording and, on first use, launches the bus listener
// goroutine. Idempotent.
func (r *Recorder) Start() {
	r.mu.Lock()
	r.recording = true
	if r.startTime == nil {
		t := r.lastSimTime
		r.startTime = &t
	}
	needListener := r.sub == nil
	r.mu.Unlock()

	if needListener {
		r.startListener()
	}
}

// Stop disables recording. Previously captured data is preserved; the
// listener goroutine keeps running but record calls become no-ops.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
}

// Clear resets the recorder to empty and stops recording. The listener
// goroutine, if running, is left running.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = make([]Frame, r.maxFrames)
	r.frameHead = 0
	r.frameCount = 0
	r.events = nil
	r.recording = false
	r.startTime = nil
	r.lastSimTime = 0
}

// RecordSnapshot stores one snapshot frame of every unit's compact
// state. Called by the engine at its configured snapshot rate. No-op
// when not recording.
func (r *Recorder) RecordSnapshot(units map[uuid.UUID]*unit.Unit, simTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSimTime = simTime
	if !r.recording {
		return
	}

	targets := make([]TargetSnapshot, 0, len(units))
	for _, u := range units {
		targets = append(targets, TargetSnapshot{
			TargetID:  u.ID,
			Name:      u.Name,
			Alliance:  u.Alliance,
			AssetType: u.AssetType,
			X:         u.Position.X,
			Y:         u.Position.Y,
			Heading:   u.Heading,
			Health:    u.Health,
			MaxHealth: u.MaxHealth,
			FSMState:  u.FSMState,
			Status:    u.Status,
		})
	}

	r.frames[r.frameHead] = Frame{Timestamp: simTime, Targets: targets}
	r.frameHead = (r.frameHead + 1) % r.maxFrames
	if r.frameCount < r.maxFrames {
		r.frameCount++
	}
}

// recordEvent stores a single bus event. No-op when not recording.
func (r *Recorder) recordEvent(eventType string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	cp := make(map[string]interface{}, len(data))
	for k, v := range data {
		cp[k] = v
	}
	r.events = append(r.events, EventRecord{Timestamp: r.lastSimTime, EventType: eventType, Data: cp})
}

// startListener subscribes to the bus and records replay-relevant events
// until StopListener is called.
func (r *Recorder) startListener() {
	r.mu.Lock()
	if r.sub != nil {
		r.mu.Unlock()
		return
	}
	sub := r.bus.Subscribe()
	r.sub = sub
	r.listenerDone = make(chan struct{})
	r.listenerStop = make(chan struct{})
	done := r.listenerDone
	stop := r.listenerStop
	r.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case evt := <-sub.C:
				if replayEventTypes[evt.Type] {
					r.recordEvent(evt.Type, evt.Data)
				}
			case <-stop:
				// Unsubscribe never closes sub.C; exit once its queue is empty.
				if len(sub.C) == 0 {
					return
				}
			}
		}
	}()
}

// StopListener unsubscribes from the bus and waits for the listener
// goroutine to drain.
func (r *Recorder) StopListener() {
	r.mu.Lock()
	sub := r.sub
	done := r.listenerDone
	stop := r.listenerStop
	r.sub = nil
	r.listenerDone = nil
	r.listenerStop = nil
	r.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Unsubscribe()
	if stop != nil {
		close(stop)
	}
	if done != nil {
		<-done
	}
}

// GetFrames returns a copy of every stored snapshot frame, oldest first.
func (r *Recorder) GetFrames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.framesLocked()
}

func (r *Recorder) framesLocked() []Frame {
	out := make([]Frame, r.frameCount)
	if r.frameCount < r.maxFrames {
		copy(out, r.frames[:r.frameCount])
		return out
	}
	// Ring buffer is full: oldest frame is at frameHead.
	n := copy(out, r.frames[r.frameHead:])
	copy(out[n:], r.frames[:r.frameHead])
	return out
}

// GetEvents returns a copy of every recorded event, in capture order.
func (r *Recorder) GetEvents() []EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventRecord, len(r.events))
	copy(out, r.events)
	return out
}

// GetTimeline returns every recorded event sorted chronologically.
// Capture order already is chronological (the listener appends in
// publish order), so this is an alias provided for API parity with
// get_timeline.
func (r *Recorder) GetTimeline() []EventRecord {
	return r.GetEvents()
}

// GetWaveSummary returns combat stats between a wave's wave_start and
// wave_complete events, or nil if that wave never started.
func (r *Recorder) GetWaveSummary(waveNumber int) *WaveSummary {
	events := r.GetEvents()

	var startTS float64
	var endTS float64
	found := false
	hasEnd := false
	for _, e := range events {
		if e.EventType == "wave_start" && intField(e.Data, "wave_number") == waveNumber {
			startTS = e.Timestamp
			found = true
		}
		if e.EventType == "wave_complete" && intField(e.Data, "wave_number") == waveNumber {
			endTS = e.Timestamp
			hasEnd = true
		}
	}
	if !found {
		return nil
	}
	if !hasEnd {
		endTS = r.lastKnownTime()
	}

	summary := &WaveSummary{WaveNumber: waveNumber, Duration: endTS - startTS}
	for _, e := range events {
		if e.Timestamp < startTS || e.Timestamp > endTS {
			continue
		}
		switch e.EventType {
		case "projectile_fired":
			summary.ShotsFired++
		case "projectile_hit":
			summary.ShotsHit++
		case "target_eliminated":
			summary.Eliminations++
		}
	}
	return summary
}

func (r *Recorder) lastKnownTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSimTime
}

func intField(data map[string]interface{}, key string) int {
	v, ok := data[key]
	if !ok {
		return -1
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return -1
	}
}

// GetHeatmapData aggregates recorded snapshot positions into
// HeatmapGridSizeM grid cells per target id.
func (r *Recorder) GetHeatmapData() map[uuid.UUID][]HeatmapCell {
	frames := r.GetFrames()
	if len(frames) == 0 {
		return map[uuid.UUID][]HeatmapCell{}
	}

	type cellKey struct {
		gx, gy int
	}
	grid := make(map[uuid.UUID]map[cellKey]int)
	for _, f := range frames {
		for _, t := range f.Targets {
			gx := floorDiv(t.X, HeatmapGridSizeM)
			gy := floorDiv(t.Y, HeatmapGridSizeM)
			cells, ok := grid[t.TargetID]
			if !ok {
				cells = make(map[cellKey]int)
				grid[t.TargetID] = cells
			}
			cells[cellKey{gx, gy}]++
		}
	}

	out := make(map[uuid.UUID][]HeatmapCell, len(grid))
	for tid, cells := range grid {
		list := make([]HeatmapCell, 0, len(cells))
		for k, count := range cells {
			list = append(list, HeatmapCell{
				X:     float64(k.gx) * HeatmapGridSizeM,
				Y:     float64(k.gy) * HeatmapGridSizeM,
				Count: count,
			})
		}
		out[tid] = list
	}
	return out
}

func floorDiv(v, size float64) int {
	q := v / size
	if q < 0 {
		return int(q) - 1
	}
	return int(q)
}

// ExportJSON returns the full replay as its exported document shape.
func (r *Recorder) ExportJSON() Export {
	r.mu.Lock()
	frames := r.framesLocked()
	events := make([]EventRecord, len(r.events))
	copy(events, r.events)
	start := 0.0
	if r.startTime != nil {
		start = *r.startTime
	}
	duration := r.lastSimTime - start
	r.mu.Unlock()

	return Export{
		Metadata: ExportMetadata{
			TotalFrames: len(frames),
			TotalEvents: len(events),
			StartTime:   start,
			Duration:    duration,
		},
		Frames: frames,
		Events: events,
	}
}

// Marshal serializes the export document.
func (e *Export) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// LoadExport parses a previously marshalled export document. The result
// satisfies the spectator's Replay interface, so a loaded replay can be
// played back without a live recorder.
func LoadExport(data []byte) (*Export, error) {
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetFrames returns the exported snapshot frames.
func (e *Export) GetFrames() []Frame { return e.Frames }

// GetEvents returns the exported event log.
func (e *Export) GetEvents() []EventRecord { return e.Events }
