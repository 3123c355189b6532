package eventbus

import (
	"context"
	"time"

	"github.com/boonlang/boon-runtime/actor"
	"github.com/boonlang/boon-runtime/value"
)

// TimerProducer publishes a Tag{"Tick"} event on path at a fixed
// interval, grounded on the same ticker/context.WithCancel background
// loop idiom actor.ActorLoop generalizes from the teacher's
// health-monitor polling loop.
type TimerProducer struct {
	loop *actor.ActorLoop
}

// StartTimer publishes to path every interval until ctx is cancelled or
// Stop is called.
func StartTimer(ctx context.Context, bus *Bus, path string, interval time.Duration) *TimerProducer {
	p := &TimerProducer{}
	p.loop = actor.NewActorLoop(ctx, "timer-producer", nil, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				bus.Publish(ctx, Event{Path: path, Value: value.NewTag("Tick")})
			}
		}
	})
	return p
}

// Stop cancels the timer producer.
func (p *TimerProducer) Stop() { p.loop.Stop() }

// RouterEvent is a navigation occurrence dispatched to the bus under the
// Router input kind.
type RouterEvent struct {
	Path  string
	Route string
}

// RouterProducer forwards a channel of external navigation events into
// the bus as {path, Tag{route}} events, used by SideEffect's
// RouterGoTo consumers and by router-bound LINK variables.
type RouterProducer struct {
	loop *actor.ActorLoop
}

// StartRouter drains in and publishes each navigation onto the bus.
func StartRouter(ctx context.Context, bus *Bus, in <-chan RouterEvent) *RouterProducer {
	p := &RouterProducer{}
	p.loop = actor.NewActorLoop(ctx, "router-producer", nil, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-in:
				if !ok {
					return
				}
				bus.Publish(ctx, Event{Path: ev.Path, Value: value.NewTag(ev.Route)})
			}
		}
	})
	return p
}

// Stop cancels the router producer.
func (p *RouterProducer) Stop() { p.loop.Stop() }
