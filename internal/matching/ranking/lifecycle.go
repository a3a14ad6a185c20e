package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"
)

// recoverable is implemented by queues that can return abandoned in-flight
// jobs to the pending list.
type recoverable interface {
	Recover(ctx context.Context) (int, error)
}

// Start runs the recompute consumer and the daily precompute under a
// supervisor until Stop is called or ctx ends.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("ranking service already started")
	}

	if r, ok := s.queue.(recoverable); ok {
		moved, err := r.Recover(ctx)
		if err != nil {
			s.logger.Warn("failed to recover in-flight recompute jobs", map[string]interface{}{"error": err})
		} else if moved > 0 {
			s.logger.Info("recovered in-flight recompute jobs", map[string]interface{}{"count": moved})
		}
	}

	sup := suture.New("match-ranking", suture.Spec{
		EventHook: func(e suture.Event) {
			s.logger.Warn("supervisor event", e.Map())
		},
		FailureBackoff: 5 * time.Second,
	})
	sup.Add(&ticker{name: "recompute-consumer", every: s.cfg.RecomputePollInterval, run: func(ctx context.Context) {
		if _, err := s.RunRecomputeOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("recompute drain failed", map[string]interface{}{"error": err})
		}
	}})
	sup.Add(&ticker{name: "daily-precompute", every: s.cfg.PrecomputeInterval, run: func(ctx context.Context) {
		if _, err := s.PrecomputeAll(ctx, PrecomputeOptions{}); err != nil && ctx.Err() == nil {
			s.logger.Error("scheduled precompute failed", map[string]interface{}{"error": err})
		}
	}})

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = sup.ServeBackground(runCtx)

	s.logger.Info("ranking service started", map[string]interface{}{
		"recomputePoll":      s.cfg.RecomputePollInterval.String(),
		"precomputeInterval": s.cfg.PrecomputeInterval.String(),
	})
	return nil
}

// Stop cancels the background loops and waits for them to return.
func (s *Service) Stop() error {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel, s.stopped = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := <-stopped
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ranking supervisor: %w", err)
	}
	s.logger.Info("ranking service stopped", nil)
	return nil
}

// ticker is a supervised loop that calls run on a fixed interval.
type ticker struct {
	name  string
	every time.Duration
	run   func(ctx context.Context)
}

func (t *ticker) Serve(ctx context.Context) error {
	tk := time.NewTicker(t.every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.run(ctx)
		}
	}
}

func (t *ticker) String() string { return t.name }
