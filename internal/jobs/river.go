package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const (
	JobKindRegistrationEmail      = "registration_email"
	JobKindEventDateChangeEmail   = "event_date_change_email"
	JobKindEventCancellationEmail = "event_cancellation_email"
)

const (
	NotificationMaxAttempts = 5
	// Cancellation jobs are the only remaining record of a deleted event.
	CancellationEmailMaxAttempts = 8
	DefaultMaxWorkers            = 10
)

const (
	defaultBaseDelay = 30 * time.Second
	defaultMaxDelay  = 30 * time.Minute
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the default retry policy configuration.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: NotificationMaxAttempts,
			BaseDelay:   defaultBaseDelay,
			MaxDelay:    defaultMaxDelay,
		},
		ByKind: map[string]RetryConfig{
			JobKindRegistrationEmail: {
				MaxAttempts: NotificationMaxAttempts,
				BaseDelay:   defaultBaseDelay,
				MaxDelay:    defaultMaxDelay,
			},
			JobKindEventDateChangeEmail: {
				MaxAttempts: NotificationMaxAttempts,
				BaseDelay:   time.Minute,
				MaxDelay:    time.Hour,
			},
			JobKindEventCancellationEmail: {
				MaxAttempts: CancellationEmailMaxAttempts,
				BaseDelay:   time.Minute,
				MaxDelay:    2 * time.Hour,
			},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	config := p.configFor(job.Kind)
	if config.BaseDelay == 0 {
		return time.Now()
	}

	attempt := max(job.Attempt, 1)

	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: NotificationMaxAttempts, BaseDelay: defaultBaseDelay, MaxDelay: defaultMaxDelay}
	}
	if config, ok := p.ByKind[kind]; ok {
		return config
	}
	return p.Default
}

// InsertOptsForKind returns default insert options for a job kind.
func InsertOptsForKind(kind string) *river.InsertOpts {
	config := NewRetryPolicy().configFor(kind)
	return &river.InsertOpts{MaxAttempts: config.MaxAttempts}
}

// NewClientConfig builds a River client configuration with retry policy. Job failures are
// logged and passed to alert when a logger is given.
func NewClientConfig(workers *river.Workers, logger *slog.Logger, alert AlertFunc, hooks []rivertype.Hook, maxWorkers int) *river.Config {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	policy := NewRetryPolicy()
	config := &river.Config{
		Workers:     workers,
		RetryPolicy: policy,
		MaxAttempts: policy.Default.MaxAttempts,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Hooks: hooks,
	}
	if logger != nil {
		config.Logger = logger
		config.ErrorHandler = NewAlertingErrorHandler(logger, alert)
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger, alert AlertFunc, hooks []rivertype.Hook, maxWorkers int) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger, alert, hooks, maxWorkers))
}
