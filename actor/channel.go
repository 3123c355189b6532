// Package actor provides the named-channel, actor-loop, backpressure and
// typed-stream primitives that every reactive cell in this runtime is built
// from.
package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrClosed is returned by TrySend when the channel has been closed. Send
// and SendOrDrop on a closed channel panic, as Go channel sends do.
var ErrClosed = errors.New("actor: channel closed")

// ErrFull is returned by TrySend when the channel has no free capacity.
var ErrFull = errors.New("actor: channel full")

// ErrTimeout is returned by Send in debug mode when a send could not
// complete within the configured deadline; it usually indicates a stuck
// consumer and is logged as a deadlock warning.
var ErrTimeout = errors.New("actor: send timed out")

// ChannelError wraps a channel-level send failure with the channel name,
// following the teacher's ResolveError shape (exported fields, Unwrap).
type ChannelError struct {
	Channel string
	Cause   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("actor: channel %q: %v", e.Channel, e.Cause)
}

func (e *ChannelError) Unwrap() error {
	return e.Cause
}

// ChannelOption configures a NamedChannel.
type ChannelOption func(*channelConfig)

type channelConfig struct {
	capacity   int
	debug      bool
	logger     *slog.Logger
	sendExpiry time.Duration
}

// WithCapacity sets the channel's buffer size. Default is 1.
func WithCapacity(n int) ChannelOption {
	return func(c *channelConfig) { c.capacity = n }
}

// WithDebug enables the 5-second (by default) deadlock-detecting Send
// timeout and deadlock-warning logging.
func WithDebug(enabled bool) ChannelOption {
	return func(c *channelConfig) { c.debug = enabled }
}

// WithLogger sets the logger used for drop/timeout diagnostics. Default is
// slog.Default().
func WithLogger(logger *slog.Logger) ChannelOption {
	return func(c *channelConfig) { c.logger = logger }
}

// WithSendTimeout overrides the debug-mode Send deadline. Default is 5s.
// Resolves spec.md's open question in favor of per-channel configurability.
func WithSendTimeout(d time.Duration) ChannelOption {
	return func(c *channelConfig) { c.sendExpiry = d }
}

// NamedChannel is a bounded MPSC channel with a static name, a fixed
// capacity, and three send modes (Send, SendOrDrop, TrySend).
type NamedChannel[T any] struct {
	name   string
	ch     chan T
	cfg    channelConfig
	logger *slog.Logger
}

// NewNamedChannel creates a channel under the given diagnostic name.
func NewNamedChannel[T any](name string, opts ...ChannelOption) *NamedChannel[T] {
	cfg := channelConfig{capacity: 1, sendExpiry: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NamedChannel[T]{
		name:   name,
		ch:     make(chan T, cfg.capacity),
		cfg:    cfg,
		logger: logger,
	}
}

// Name returns the channel's diagnostic name.
func (c *NamedChannel[T]) Name() string { return c.name }

// Raw exposes the underlying channel for select-loop composition.
func (c *NamedChannel[T]) Raw() chan T { return c.ch }

// Send delivers v, blocking until space is available or ctx is cancelled.
// In debug mode, a send that cannot complete within the configured timeout
// fails with ErrTimeout and logs a deadlock warning instead of blocking
// forever.
func (c *NamedChannel[T]) Send(ctx context.Context, v T) error {
	if !c.cfg.debug {
		select {
		case c.ch <- v:
			return nil
		case <-ctx.Done():
			return &ChannelError{Channel: c.name, Cause: ctx.Err()}
		}
	}

	timer := time.NewTimer(c.cfg.sendExpiry)
	defer timer.Stop()
	select {
	case c.ch <- v:
		return nil
	case <-ctx.Done():
		return &ChannelError{Channel: c.name, Cause: ctx.Err()}
	case <-timer.C:
		c.logger.Warn("actor: possible deadlock, send timed out",
			slog.String("channel", c.name), slog.Duration("timeout", c.cfg.sendExpiry))
		return &ChannelError{Channel: c.name, Cause: ErrTimeout}
	}
}

// SendOrDrop delivers v if there is room, otherwise silently drops it and
// logs at Debug level. Never blocks.
func (c *NamedChannel[T]) SendOrDrop(v T) {
	select {
	case c.ch <- v:
	default:
		c.logger.Debug("actor: dropped value, channel full", slog.String("channel", c.name))
	}
}

// TrySend attempts a non-blocking delivery, returning ErrFull if the
// channel has no capacity and ErrClosed if it has been closed.
func (c *NamedChannel[T]) TrySend(v T) (err error) {
	defer func() {
		if recover() != nil {
			err = &ChannelError{Channel: c.name, Cause: ErrClosed}
		}
	}()
	select {
	case c.ch <- v:
		return nil
	default:
		return &ChannelError{Channel: c.name, Cause: ErrFull}
	}
}

// Close closes the channel. Further Send and SendOrDrop calls panic,
// matching Go channel semantics, and TrySend reports ErrClosed; callers
// coordinate shutdown via ActorLoop instead of relying on post-close sends.
func (c *NamedChannel[T]) Close() {
	close(c.ch)
}
