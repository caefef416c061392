package cronjob

import (
	"log"
	"time"

	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/service"
	"github.com/robfig/cron/v3"
)

const (
	sweepSpec      = "0 */5 * * * *" // every 5 minutes
	metricsLogSpec = "0 0 * * * *"   // hourly
	visitorIdleTTL = 10 * time.Minute
)

// Sweeper drops idle per-client state.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

type Scheduler struct {
	cron    *cron.Cron
	limiter Sweeper
}

func NewScheduler(limiter Sweeper) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		limiter: limiter,
	}
}

// Start registers the maintenance jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.limiter != nil {
		if _, err := s.cron.AddFunc(sweepSpec, s.sweepVisitors); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc(metricsLogSpec, logMetrics); err != nil {
		return err
	}

	log.Println("Cron scheduler started (limiter sweep every 5m, metrics hourly)")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) sweepVisitors() {
	if removed := s.limiter.Sweep(visitorIdleTTL); removed > 0 {
		log.Printf("[info] operation=limiter_sweep removed=%d", removed)
	}
}

func logMetrics() {
	m := service.GetMetrics().Snapshot()
	log.Printf(
		"[info] operation=metrics upstream_calls=%d upstream_error_rate=%.1f%% avg_latency_ms=%.0f cache_hits=%d cache_misses=%d succeeded=%d failed=%d",
		m.UpstreamCalls, m.UpstreamErrorRate, m.AvgUpstreamLatencyMs,
		m.CacheHits, m.CacheMisses, m.RequestsSucceeded, m.RequestsFailed,
	)
}
