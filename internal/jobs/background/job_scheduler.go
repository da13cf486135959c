package background

import (
	"context"
	"sort"
	"sync"
	"time"

	"salonhub/internal/jobs"
	"salonhub/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// Intervals configures how often each job runs.
type Intervals struct {
	DepositSweep time.Duration
	Reminders    time.Duration
	LowStock     time.Duration
	ReportWarmup time.Duration
}

// DefaultIntervals returns the standard schedule with the deposit sweep
// interval taken from configuration.
func DefaultIntervals(depositSweep time.Duration) Intervals {
	return Intervals{
		DepositSweep: depositSweep,
		Reminders:    15 * time.Minute,
		LowStock:     time.Hour,
		ReportWarmup: time.Hour,
	}
}

// JobFunc is one run of a scheduled job.
type JobFunc func(ctx context.Context) (*jobs.SweepResult, error)

// JobScheduler runs the periodic jobs. Each job runs in singleton mode, so a
// slow run delays the next one instead of overlapping it.
type JobScheduler struct {
	scheduler gocron.Scheduler
	clock     clock.Clock
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	stopOnce  sync.Once
	stopErr   error
}

// NewJobScheduler creates a scheduler with the appointment sweeps, low-stock
// alerts and dashboard warmup registered.
func NewJobScheduler(intervals Intervals, sweeps *jobs.AppointmentSweepService, alerts *jobs.InventoryAlertService,
	warmup *jobs.AnalyticsRefreshService, clk clock.Clock, logger zerolog.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Annotate(err, "create scheduler")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	js := &JobScheduler{
		scheduler: scheduler,
		clock:     clk,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}

	registrations := []struct {
		name     string
		interval time.Duration
		fn       JobFunc
	}{
		{"deposit-expiry", intervals.DepositSweep, sweeps.ExpireDeposits},
		{"appointment-reminders", intervals.Reminders, sweeps.MarkReminders},
		{"low-stock-alerts", intervals.LowStock, alerts.ScheduledLowStockCheck},
		{"report-warmup", intervals.ReportWarmup, warmup.WarmDashboards},
	}
	for _, r := range registrations {
		if err := js.AddJob(r.name, r.interval, r.fn); err != nil {
			cancel()
			return nil, err
		}
	}

	logger.Info().Int("jobs", len(js.jobs)).Msg("registered background jobs")
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info().Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return. Later calls
// return the first result.
func (js *JobScheduler) Stop() error {
	js.stopOnce.Do(func() {
		js.logger.Info().Msg("stopping background job scheduler")
		js.cancel()
		js.stopErr = js.scheduler.Shutdown()
	})
	return js.stopErr
}

// AddJob registers fn to run every interval.
func (js *JobScheduler) AddJob(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return errors.NotValidf("interval %v for job %q", interval, name)
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.run, name, fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Annotatef(err, "register job %s", name)
	}
	js.jobs[name] = job
	return nil
}

// run executes one job and records its outcome.
func (js *JobScheduler) run(name string, fn JobFunc) {
	start := js.clock.Now()
	result, err := fn(js.ctx)
	elapsed := js.clock.Now().Sub(start)
	metrics.RecordJobRun(name, elapsed, err == nil)

	if err != nil {
		js.logger.Error().Err(err).Str("job", name).Dur("duration", elapsed).Msg("job failed")
		return
	}
	event := js.logger.Debug().Str("job", name).Dur("duration", elapsed)
	if result != nil {
		event = event.Int("tenants", result.TenantsProcessed).Int("failed", result.TenantsFailed).Int("affected", result.Affected)
	}
	event.Msg("job finished")
}

// GetJobStatus returns the registered job names in order.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
