package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/nadavital/pulse/internal/cache"
	"github.com/nadavital/pulse/internal/coach"
	"github.com/nadavital/pulse/internal/llm"
	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/store"
)

// Scheduler manages background jobs: the morning context precompute,
// hourly store and cache maintenance, and the LLM health check.
type Scheduler struct {
	scheduler gocron.Scheduler
	store     *store.Store
	cache     *cache.Manager
	llm       *llm.Client
	clock     clockwork.Clock
	timezone  *time.Location
}

// Config holds scheduler configuration
type Config struct {
	Timezone string
}

// New creates a new scheduler
func New(s *store.Store, c *cache.Manager, llmClient *llm.Client, clock clockwork.Clock, cfg Config) (*Scheduler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		tz = time.UTC
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(tz))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: sched,
		store:     s,
		cache:     c,
		llm:       llmClient,
		clock:     clock,
		timezone:  tz,
	}, nil
}

// Start starts the scheduler and registers all jobs
func (s *Scheduler) Start() error {
	// Warm the context cache before the user wakes up
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(6, 0, 0))),
		gocron.NewTask(s.morningPrecompute),
		gocron.WithName("morning-precompute"),
	)
	if err != nil {
		return err
	}

	// Expire stale signals and sweep expired cache entries every hour
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(s.maintenance),
		gocron.WithName("maintenance"),
	)
	if err != nil {
		return err
	}

	// Health check the LLM every 5 minutes
	_, err = s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.healthCheck),
		gocron.WithName("health-check"),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	log.Println("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) morningPrecompute() {
	log.Println("Running morning context precompute...")

	ctx, _, err := s.cache.Get(true)
	if err != nil {
		log.Printf("Error precomputing context: %v", err)
		return
	}

	s.updateSignals(ctx)
	log.Printf("Precomputed context (revision %d, generated at %s)",
		ctx.Revision, ctx.GeneratedAt.Format(time.RFC3339))
}

// Trend-derived coaching flags. Raised with a fixed ID so the next
// morning's run upserts rather than duplicates; resolved as soon as
// the trend clears.
const (
	signalMissedWorkout = "sig_missed_workout"
	signalLowProtein    = "sig_low_protein"

	signalTTL               = 48 * time.Hour
	missedWorkoutAfterDays  = 3
	lowProteinStreakTrigger = 3
)

func (s *Scheduler) updateSignals(ctx *coach.DailyCoachContext) {
	now := s.clock.Now()

	s.setSignal(signalMissedWorkout, "no workout logged recently", now,
		ctx.Trend.DaysSinceLastWorkout >= missedWorkoutAfterDays)
	s.setSignal(signalLowProtein, "protein under goal several days running", now,
		ctx.Trend.LowProteinStreak >= lowProteinStreakTrigger)
}

func (s *Scheduler) setSignal(id, detail string, now time.Time, active bool) {
	if !active {
		if _, err := s.store.ResolveSignal(id, now); err != nil {
			log.Printf("Error resolving signal %s: %v", id, err)
		}
		return
	}

	sig := models.ActiveSignal{
		ID:        id,
		Kind:      id,
		Detail:    detail,
		RaisedAt:  now,
		ExpiresAt: now.Add(signalTTL),
	}
	if err := s.store.RaiseSignal(sig); err != nil {
		log.Printf("Error raising signal %s: %v", id, err)
	}
}

func (s *Scheduler) maintenance() {
	expired, err := s.store.ExpireSignals(s.clock.Now())
	if err != nil {
		log.Printf("Error expiring signals: %v", err)
	} else if expired > 0 {
		log.Printf("Expired %d stale signals", expired)
	}

	s.cache.Sweep()
}

func (s *Scheduler) healthCheck() {
	if s.llm == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.llm.HealthCheck(ctx); err != nil {
		log.Printf("Health check failed - LLM unreachable: %v", err)
	}
}

// PrecomputeNow triggers the morning precompute immediately (for testing)
func (s *Scheduler) PrecomputeNow() {
	s.morningPrecompute()
}
