package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs the router and both reconciliation loops for their
// combined lifetime.
type Supervisor struct {
	Router *Router
	Heater *Heater
	Light  *Light
	Now    func() time.Time
}

// Run publishes the initial heater and light status, then runs the three
// loops until ctx is cancelled or one of them fails. Cancellation of ctx is
// not reported as an error.
func (s *Supervisor) Run(ctx context.Context) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	t := now()
	s.Heater.PublishState(t)
	s.Light.PublishState(t)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Router.Run(gctx) })
	g.Go(func() error { return s.Light.Run(gctx) })
	g.Go(func() error { return s.Heater.Run(gctx) })

	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Healthy returns an error if either reconciliation loop has not stepped
// within maxAge of now.
func (s *Supervisor) Healthy(now time.Time, maxAge time.Duration) error {
	if age := now.Sub(s.Heater.LastStep()); age > maxAge {
		return fmt.Errorf("heater loop stalled for %v", age.Truncate(time.Millisecond))
	}
	if age := now.Sub(s.Light.LastStep()); age > maxAge {
		return fmt.Errorf("light loop stalled for %v", age.Truncate(time.Millisecond))
	}
	return nil
}
