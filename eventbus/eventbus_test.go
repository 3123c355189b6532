package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/boonlang/boon-runtime/value"
)

func TestBuildPathListItemSegment(t *testing.T) {
	got := BuildPath("store.todos."+ListItemSegment(2), "todo_checkbox", LinkClick, "")
	want := "store.todos.0002.todo_checkbox.event.LinkClick"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBusExactMatchDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(ctx)
	defer b.Stop()

	sub, err := b.Subscribe(ctx, "counter.event.LinkPress")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	b.Publish(ctx, Event{Path: "counter.event.LinkPress", Value: value.NewTag("Click")})

	select {
	case ev := <-sub.Chan():
		if ev.Path != "counter.event.LinkPress" {
			t.Fatalf("got path %q", ev.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusWildcardSegmentMatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(ctx)
	defer b.Stop()

	sub, _ := b.Subscribe(ctx, "store.todos.*.todo_checkbox.event.LinkClick")

	b.Publish(ctx, Event{Path: "store.todos.0002.todo_checkbox.event.LinkClick", Value: value.NewTag("Click")})
	b.Publish(ctx, Event{Path: "unrelated.path", Value: value.NewTag("Click")})

	select {
	case ev := <-sub.Chan():
		if ev.Path != "store.todos.0002.todo_checkbox.event.LinkClick" {
			t.Fatalf("got path %q", ev.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wildcard match")
	}
}

func TestTimerProducerPublishesTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(ctx)
	defer b.Stop()

	sub, _ := b.Subscribe(ctx, "clock.event.Timer")
	p := StartTimer(ctx, b, "clock.event.Timer", 10*time.Millisecond)
	defer p.Stop()

	select {
	case <-sub.Chan():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a tick")
	}
}
