package actor

import (
	"context"
	"testing"
	"time"
)

func TestNamedChannelSendReceive(t *testing.T) {
	ch := NewNamedChannel[int]("test", WithCapacity(1))
	ctx := context.Background()

	if err := ch.Send(ctx, 42); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := <-ch.Raw(); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestNamedChannelTrySendFull(t *testing.T) {
	ch := NewNamedChannel[int]("test", WithCapacity(1))
	if err := ch.TrySend(1); err != nil {
		t.Fatalf("first TrySend: %v", err)
	}
	if err := ch.TrySend(2); err == nil {
		t.Fatal("expected ErrFull, got nil")
	}
}

func TestNamedChannelSendOrDrop(t *testing.T) {
	ch := NewNamedChannel[int]("test", WithCapacity(1))
	ch.SendOrDrop(1)
	ch.SendOrDrop(2) // dropped, must not block or panic

	if got := <-ch.Raw(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestNamedChannelDebugTimeout(t *testing.T) {
	ch := NewNamedChannel[int]("test", WithCapacity(0), WithDebug(true), WithSendTimeout(20*time.Millisecond))
	ctx := context.Background()
	err := ch.Send(ctx, 1)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestActorLoopStop(t *testing.T) {
	started := make(chan struct{})
	l := NewActorLoop(context.Background(), "test-loop", nil, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started
	if !l.Running() {
		t.Fatal("expected loop to be running")
	}
	l.Stop()
	if l.Running() {
		t.Fatal("expected loop to be stopped")
	}
}

func TestBackpressureCoordinatorSerializes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewBackpressureCoordinator(ctx)
	defer c.Close()

	if err := c.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_ = c.Acquire(ctx)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire completed before Release")
	case <-time.After(20 * time.Millisecond):
	}

	c.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire never completed after Release")
	}
}

func TestTypedStreamKeepAlive(t *testing.T) {
	src := make(chan int, 2)
	src <- 1
	src <- 2
	close(src)

	finite := NewTypedStream[int, Finite](src)
	infinite := KeepAlive(finite)

	got := []int{<-infinite.Chan(), <-infinite.Chan()}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}

	select {
	case _, ok := <-infinite.Chan():
		if !ok {
			t.Fatal("infinite stream closed after source ended")
		}
	case <-time.After(20 * time.Millisecond):
		// expected: no further values, and the channel stays open.
	}
}
