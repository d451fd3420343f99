package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// BreakerLister wraps a [Lister] in a circuit breaker so a dead listing endpoint
// fails fast instead of stalling every sync.
type BreakerLister struct {
	next Lister
	cb   *gobreaker.CircuitBreaker
}

// BreakerOpts configures a [BreakerLister].
type BreakerOpts struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // time spent open before a trial request
	Logger      *log.Logger
}

// NewBreakerLister wraps next.
func NewBreakerLister(next Lister, opts BreakerOpts) *BreakerLister {
	if opts.Name == "" {
		opts.Name = "listing"
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if opts.Logger != nil {
				opts.Logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	}

	return &BreakerLister{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// ListResources implements [Lister].
func (b *BreakerLister) ListResources(ctx context.Context, kind models.Kind, tag string) ([]models.RemoteResource, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ListResources(ctx, kind, tag)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s listing: %v", shared.ErrServiceUnavailable, b.cb.Name(), err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]models.RemoteResource), nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *BreakerLister) State() string {
	return b.cb.State().String()
}
