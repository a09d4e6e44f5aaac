package replay

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func TestRecordSnapshotNoopWhenNotRecording(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)

	u := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{u.ID: u}, 1.0)

	if r.FrameCount() != 0 {
		t.Fatalf("expected no frames recorded before Start(), got %d", r.FrameCount())
	}
}

func TestRecordSnapshotCapturesUnits(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()

	u := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 3, Y: 4})
	u.Health = 80
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{u.ID: u}, 2.5)

	frames := r.GetFrames()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Timestamp != 2.5 {
		t.Fatalf("expected frame timestamp 2.5, got %v", frames[0].Timestamp)
	}
	if len(frames[0].Targets) != 1 || frames[0].Targets[0].TargetID != u.ID {
		t.Fatalf("expected frame to contain unit %v", u.ID)
	}
}

func TestRingBufferBoundsFrameCount(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 3)
	r.Start()

	for i := 0; i < 10; i++ {
		r.RecordSnapshot(nil, float64(i))
	}

	frames := r.GetFrames()
	if len(frames) != 3 {
		t.Fatalf("expected ring buffer capped at 3 frames, got %d", len(frames))
	}
	// Oldest-first ordering: the last 3 snapshots (simTime 7,8,9) survive.
	if frames[0].Timestamp != 7 || frames[1].Timestamp != 8 || frames[2].Timestamp != 9 {
		t.Fatalf("expected frames [7,8,9] oldest-first, got %+v", frames)
	}
}

func TestListenerCapturesReplayEventTypesOnly(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()
	defer r.StopListener()

	bus.Publish("target_eliminated", map[string]interface{}{"target_id": "u1"})
	bus.Publish("state_change", map[string]interface{}{"target_id": "u1"}) // not in replay set
	bus.Publish("wave_start", map[string]interface{}{"wave_number": 1})

	waitForEventCount(t, r, 2)

	events := r.GetEvents()
	for _, e := range events {
		if e.EventType == "state_change" {
			t.Fatalf("state_change should not be captured by the replay listener")
		}
	}
}

func TestClearResetsEverything(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()
	r.RecordSnapshot(nil, 1.0)
	bus.Publish("game_over", map[string]interface{}{"victory": true})
	waitForEventCount(t, r, 1)

	r.Clear()
	if r.FrameCount() != 0 || r.EventCount() != 0 || r.IsRecording() {
		t.Fatalf("expected Clear to reset frames, events, and recording flag")
	}
}

func TestGetWaveSummaryCountsBetweenStartAndComplete(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()

	r.RecordSnapshot(nil, 0.0)
	bus.Publish("wave_start", map[string]interface{}{"wave_number": 1})
	waitForEventCount(t, r, 1)

	r.RecordSnapshot(nil, 1.0)
	bus.Publish("projectile_fired", map[string]interface{}{})
	bus.Publish("projectile_hit", map[string]interface{}{})
	bus.Publish("target_eliminated", map[string]interface{}{})
	waitForEventCount(t, r, 4)

	r.RecordSnapshot(nil, 2.0)
	bus.Publish("wave_complete", map[string]interface{}{"wave_number": 1})
	waitForEventCount(t, r, 5)

	summary := r.GetWaveSummary(1)
	if summary == nil {
		t.Fatal("expected a wave summary for wave 1")
	}
	if summary.ShotsFired != 1 || summary.ShotsHit != 1 || summary.Eliminations != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if r.GetWaveSummary(99) != nil {
		t.Fatal("expected nil summary for a wave that never started")
	}
}

func TestHeatmapQuantizesPositions(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()

	id := uuid.New()
	u := &unit.Unit{ID: id, Position: spatial.Point{X: 5.2, Y: 5.9}}
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{id: u}, 0.0)
	u.Position = spatial.Point{X: 5.9, Y: 5.1} // same 2m cell as above
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{id: u}, 0.5)

	heatmap := r.GetHeatmapData()
	cells := heatmap[id]
	if len(cells) != 1 {
		t.Fatalf("expected both positions to quantize into one cell, got %d cells", len(cells))
	}
	if cells[0].Count != 2 {
		t.Fatalf("expected cell count 2, got %d", cells[0].Count)
	}
}

func TestExportJSONRoundTripIsDeterministic(t *testing.T) {
	bus := eventbus.New(10)
	r := New(bus, 10)
	r.Start()

	u := unit.New("rover-1", unit.Friendly, "rover", spatial.Point{X: 1, Y: 2})
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{u.ID: u}, 1.0)
	bus.Publish("game_over", map[string]interface{}{"victory": true})
	waitForEventCount(t, r, 1)
	r.RecordSnapshot(map[uuid.UUID]*unit.Unit{u.ID: u}, 2.0)

	first := r.ExportJSON()
	second := r.ExportJSON()

	if first.Metadata.TotalFrames != second.Metadata.TotalFrames ||
		first.Metadata.TotalEvents != second.Metadata.TotalEvents ||
		first.Metadata.StartTime != second.Metadata.StartTime ||
		first.Metadata.Duration != second.Metadata.Duration {
		t.Fatalf("expected repeated export_json calls to be byte-equal: %+v vs %+v", first.Metadata, second.Metadata)
	}

	firstBytes, err := first.Marshal()
	if err != nil {
		t.Fatalf("marshal export: %v", err)
	}
	loaded, err := LoadExport(firstBytes)
	if err != nil {
		t.Fatalf("load export: %v", err)
	}
	reloadedBytes, err := loaded.Marshal()
	if err != nil {
		t.Fatalf("re-marshal loaded export: %v", err)
	}
	if !bytes.Equal(firstBytes, reloadedBytes) {
		t.Fatalf("expected export -> load -> export to be byte-equal:\n%s\nvs\n%s", firstBytes, reloadedBytes)
	}
	if len(loaded.GetFrames()) != first.Metadata.TotalFrames ||
		len(loaded.GetEvents()) != first.Metadata.TotalEvents {
		t.Fatalf("loaded export frame/event counts diverge from metadata: %+v", loaded.Metadata)
	}
}

func waitForEventCount(t *testing.T, r *Recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.EventCount() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d recorded events, got %d", n, r.EventCount())
}
