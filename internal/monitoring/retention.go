package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/signalex/signalex-be/internal/services"
)

// Retention prunes audit events older than a configured window on a
// cron schedule.
type Retention struct {
	eventSvc services.EventServiceProvider
	window   time.Duration
	cron     *cron.Cron
}

// NewRetention creates a Retention job. spec is a standard cron
// expression (descriptors like "@daily" work too).
func NewRetention(eventSvc services.EventServiceProvider, spec string, window time.Duration) (*Retention, error) {
	r := &Retention{
		eventSvc: eventSvc,
		window:   window,
		cron:     cron.New(),
	}
	if _, err := r.cron.AddFunc(spec, r.PruneOnce); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins running the schedule in its own goroutine.
func (r *Retention) Start() {
	log.Info().Dur("window", r.window).Msg("Starting event retention job")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish.
func (r *Retention) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped event retention job")
}

// PruneOnce removes events that fell out of the retention window.
func (r *Retention) PruneOnce() {
	cutoff := time.Now().Add(-r.window)
	n, err := r.eventSvc.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Retention: failed to prune events")
		return
	}
	if n > 0 {
		log.Info().Int64("pruned", n).Time("cutoff", cutoff).Msg("Retention: pruned old events")
	}
}
