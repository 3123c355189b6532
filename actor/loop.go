package actor

import (
	"context"
	"log/slog"
	"sync"
)

// ActorLoop owns exactly one cooperative goroutine. Creation spawns the
// task; Stop (or letting the last handle go out of scope with its context
// cancelled) cancels it. This is the single authority for task lifetimes
// in the runtime: every long-running coordination primitive (ValueActor,
// List, BackpressureCoordinator, connectors) embeds one.
//
// Grounded on pumped-go/examples/health-monitor/scheduler.go's
// ticker+stopCh+WaitGroup pattern, generalized into a reusable type.
type ActorLoop struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewActorLoop spawns run in its own goroutine under a context derived from
// parent. run must return when its ctx is Done.
func NewActorLoop(parent context.Context, name string, logger *slog.Logger, run func(ctx context.Context)) *ActorLoop {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	l := &ActorLoop{
		name:    name,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
		running: true,
	}
	go func() {
		defer close(l.done)
		run(ctx)
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		l.logger.Debug("actor: loop stopped", slog.String("actor", name))
	}()
	return l
}

// Name returns the loop's diagnostic name.
func (l *ActorLoop) Name() string { return l.name }

// Stop cancels the loop's context and blocks until its goroutine has
// returned.
func (l *ActorLoop) Stop() {
	l.cancel()
	<-l.done
}

// Done returns a channel closed once the loop's goroutine has returned.
func (l *ActorLoop) Done() <-chan struct{} { return l.done }

// Running reports whether the loop's goroutine is still executing.
func (l *ActorLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}
