// Package spectator implements a read-only VCR-style playback controller
// over a replay.Recorder's frames and events.
package spectator

import (
	"github.com/valpatel/tritium-sc/internal/replay"
)

// FrameRateHz is the playback frame rate, matching replay.Recorder's
// default snapshot rate.
const FrameRateHz = 2.0

// FrameIntervalS is seconds per frame at 1x speed.
const FrameIntervalS = 1.0 / FrameRateHz

// MinSpeed and MaxSpeed bound the playback speed multiplier.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

// Replay is the subset of replay.Recorder the spectator controller reads.
// It never writes to the recorder.
type Replay interface {
	GetFrames() []replay.Frame
	GetEvents() []replay.EventRecord
}

// Mode is a read-only VCR-style controller over a recorded replay.
type Mode struct {
	rec Replay

	playing    bool
	speed      float64
	frameIndex int
	elapsed    float64
}

// New constructs a spectator controller over rec, starting paused at
// frame 0 and 1x speed.
func New(rec Replay) *Mode {
	return &Mode{rec: rec, speed: 1.0}
}

// TotalFrames returns the number of frames currently recorded.
func (m *Mode) TotalFrames() int {
	return len(m.rec.GetFrames())
}

// CurrentFrame returns the current playback frame index.
func (m *Mode) CurrentFrame() int {
	return m.frameIndex
}

// Duration returns the total playback duration in seconds. Replays of 0
// or 1 frame have zero duration.
func (m *Mode) Duration() float64 {
	n := m.TotalFrames()
	if n <= 1 {
		return 0
	}
	return float64(n-1) / FrameRateHz
}

// CurrentTime returns the current playback position in seconds.
func (m *Mode) CurrentTime() float64 {
	return float64(m.frameIndex) / FrameRateHz
}

// Progress returns playback progress in [0, 1].
func (m *Mode) Progress() float64 {
	n := m.TotalFrames()
	if n <= 1 {
		return 0
	}
	return float64(m.frameIndex) / float64(n-1)
}

// IsPlaying reports whether playback is currently advancing.
func (m *Mode) IsPlaying() bool {
	return m.playing
}

// Speed returns the current playback speed multiplier.
func (m *Mode) Speed() float64 {
	return m.speed
}

// Play starts or resumes playback.
func (m *Mode) Play() {
	m.playing = true
}

// Pause halts playback at the current frame.
func (m *Mode) Pause() {
	m.playing = false
}

// Stop halts playback and rewinds to frame 0.
func (m *Mode) Stop() {
	m.playing = false
	m.frameIndex = 0
	m.elapsed = 0
}

// Seek jumps to a specific frame index, clamped to [0, total-1].
func (m *Mode) Seek(frame int) {
	n := m.TotalFrames()
	if n == 0 {
		m.frameIndex = 0
		m.elapsed = 0
		return
	}
	m.frameIndex = clampInt(frame, 0, n-1)
	m.elapsed = 0
}

// SeekTime jumps to the frame at or before the given playback second
// (the frame index is seconds*FrameRateHz rounded down).
func (m *Mode) SeekTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	m.Seek(int(seconds * FrameRateHz))
}

// SeekWave jumps to the frame nearest a wave_start event matching
// waveNumber. No-op if no such event was recorded.
func (m *Mode) SeekWave(waveNumber int) {
	frames := m.rec.GetFrames()
	if len(frames) == 0 {
		return
	}
	events := m.rec.GetEvents()

	var targetTS float64
	found := false
	for _, e := range events {
		if e.EventType == "wave_start" && intField(e.Data, "wave_number") == waveNumber {
			targetTS = e.Timestamp
			found = true
			break
		}
	}
	if !found {
		return
	}

	bestIdx := 0
	bestDiff := absF(frames[0].Timestamp - targetTS)
	for i, f := range frames {
		diff := absF(f.Timestamp - targetTS)
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
		}
	}
	m.Seek(bestIdx)
}

// SetSpeed sets the playback speed, clamped to [MinSpeed, MaxSpeed].
func (m *Mode) SetSpeed(speed float64) {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	m.speed = speed
}

// StepForward advances exactly one frame, not past the last frame.
func (m *Mode) StepForward() {
	n := m.TotalFrames()
	if n == 0 {
		return
	}
	if m.frameIndex < n-1 {
		m.frameIndex++
		m.elapsed = 0
	}
}

// StepBackward rewinds exactly one frame, not before frame 0.
func (m *Mode) StepBackward() {
	if m.frameIndex > 0 {
		m.frameIndex--
		m.elapsed = 0
	}
}

// Tick advances playback by dt seconds at the current speed. Returns the
// current frame, or nil if paused or the replay is empty. Auto-pauses
// once the last frame is reached.
func (m *Mode) Tick(dt float64) *replay.Frame {
	if !m.playing {
		return nil
	}
	n := m.TotalFrames()
	if n == 0 {
		return nil
	}

	m.elapsed += dt * m.speed
	if advance := int(m.elapsed / FrameIntervalS); advance > 0 {
		m.elapsed -= float64(advance) * FrameIntervalS
		m.frameIndex += advance
	}

	if m.frameIndex >= n-1 {
		m.frameIndex = n - 1
		m.playing = false
		m.elapsed = 0
	}

	return m.GetFrame(m.frameIndex)
}

// GetFrame returns a specific frame by index, or nil if out of bounds.
func (m *Mode) GetFrame(index int) *replay.Frame {
	if index < 0 {
		return nil
	}
	frames := m.rec.GetFrames()
	if index >= len(frames) {
		return nil
	}
	f := frames[index]
	return &f
}

// GetEventsInRange returns events whose timestamps fall within (±
// epsilon) the timestamps of the two given frame indices.
func (m *Mode) GetEventsInRange(startFrame, endFrame int) []replay.EventRecord {
	frames := m.rec.GetFrames()
	events := m.rec.GetEvents()
	if len(frames) == 0 || len(events) == 0 {
		return nil
	}

	startIdx := clampInt(startFrame, 0, len(frames)-1)
	endIdx := clampInt(endFrame, 0, len(frames)-1)
	startTS := frames[startIdx].Timestamp
	endTS := frames[endIdx].Timestamp
	const eps = 0.01

	var out []replay.EventRecord
	for _, e := range events {
		if e.Timestamp >= startTS-eps && e.Timestamp <= endTS+eps {
			out = append(out, e)
		}
	}
	return out
}

// State is the coarse spectator status for external consumers.
type State struct {
	Playing      bool
	Speed        float64
	CurrentFrame int
	TotalFrames  int
	Duration     float64
	CurrentTime  float64
	Progress     float64
}

// GetState returns the spectator's current playback status.
func (m *Mode) GetState() State {
	return State{
		Playing:      m.playing,
		Speed:        m.speed,
		CurrentFrame: m.frameIndex,
		TotalFrames:  m.TotalFrames(),
		Duration:     m.Duration(),
		CurrentTime:  m.CurrentTime(),
		Progress:     m.Progress(),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
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
