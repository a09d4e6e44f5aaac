package eventbus

import "testing"

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()

	b.Publish("unit_spawned", map[string]interface{}{"id": "u1"})

	select {
	case evt := <-sub.C:
		if evt.Type != "unit_spawned" {
			t.Fatalf("expected unit_spawned, got %s", evt.Type)
		}
	default:
		t.Fatalf("expected a queued event")
	}
}

func TestPublishIsLossyPerSubscriberOnOverflow(t *testing.T) {
	b := New(2)
	sub := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish("tick", nil)
	}

	drained := 0
	for {
		select {
		case <-sub.C:
			drained++
			continue
		default:
		}
		break
	}
	if drained != 2 {
		t.Fatalf("expected queue capacity to cap delivered events at 2, got %d", drained)
	}
	if b.DroppedCount("tick") != 3 {
		t.Fatalf("expected 3 dropped events, got %d", b.DroppedCount("tick"))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()
	sub.Unsubscribe()

	if b.SubscriberCount() != 0 {
		t.Fatalf("expected zero subscribers after unsubscribe")
	}

	b.Publish("noop", nil)
	select {
	case <-sub.C:
		t.Fatalf("unsubscribed queue should not receive further events")
	default:
	}
}

func TestMultipleSubscribersEachGetTheirOwnCopy(t *testing.T) {
	b := New(4)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish("wave_start", map[string]interface{}{"wave": 2})

	for _, sub := range []*Subscription{a, c} {
		select {
		case evt := <-sub.C:
			if evt.Type != "wave_start" {
				t.Fatalf("expected wave_start, got %s", evt.Type)
			}
		default:
			t.Fatalf("expected every subscriber to receive the event")
		}
	}
}
