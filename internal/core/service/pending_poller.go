package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/api/metrics"
	"github.com/opsdesk/dashboard/internal/core/domain"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPollTimeout  = 10 * time.Second
)

// PendingCounter counts profiles waiting for approval.
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// PendingPoller refreshes the pending-approval count on a fixed interval.
// A tick that is still running when the next one fires is skipped.
type PendingPoller struct {
	counter  PendingCounter
	token    string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	count   int
	ok      bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewPendingPoller returns a poller that counts as the holder of token.
func NewPendingPoller(counter PendingCounter, token string, interval time.Duration, logger zerolog.Logger) *PendingPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := defaultPollTimeout
	if interval < timeout {
		timeout = interval
	}
	return &PendingPoller{
		counter:  counter,
		token:    token,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start schedules the poll and runs the first tick right away.
func (p *PendingPoller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{log: p.logger}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() { p.tick(ctx) }))

	c := cron.New(cron.WithLogger(logger))
	if _, err := c.AddJob(fmt.Sprintf("@every %s", p.interval), job); err != nil {
		cancel()
		return fmt.Errorf("schedule pending poll: %w", err)
	}

	p.cron = c
	p.cancel = cancel
	c.Start()

	p.running.Add(1)
	go func() {
		defer p.running.Done()
		job.Run()
	}()

	p.logger.Info().Dur("interval", p.interval).Msg("pending approval poller started")
	return nil
}

// Stop cancels the running tick, removes the schedule and waits for every
// tick to return. It is idempotent.
func (p *PendingPoller) Stop() {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	for _, e := range c.Entries() {
		c.Remove(e.ID)
	}
	<-c.Stop().Done()
	p.running.Wait()
	p.logger.Info().Msg("pending approval poller stopped")
}

// Pending returns the last polled count. ok is false until a poll succeeded.
func (p *PendingPoller) Pending() (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count, p.ok
}

func (p *PendingPoller) tick(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(domain.WithAccessToken(parent, p.token), p.timeout)
	defer cancel()

	n, err := p.counter.CountPending(ctx)
	if err != nil {
		metrics.PendingPollErrorsTotal.Inc()
		p.logger.Warn().Err(err).Msg("pending approval poll failed")
		return
	}

	p.mu.Lock()
	p.count, p.ok = n, true
	p.mu.Unlock()
	metrics.PendingApprovals.Set(float64(n))
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
