package events

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher()
	ctx := context.Background()

	recorded := []Event{
		{Entity: "paper", Action: ActionCreated, ID: "p1", At: time.Now().UTC()},
		{Entity: "paper", Action: ActionUpdated, ID: "p1", At: time.Now().UTC()},
		{Entity: "note", Action: ActionDeleted, ID: "n1", At: time.Now().UTC()},
	}
	for _, ev := range recorded {
		if err := p.Publish(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	events := p.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Entity != "paper" || events[1].Action != ActionUpdated {
		t.Fatalf("unexpected event order: %+v", events)
	}
	if events[2].ID != "n1" {
		t.Fatalf("unexpected event: %+v", events[2])
	}
}
