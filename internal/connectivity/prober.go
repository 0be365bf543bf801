package connectivity

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultInterval = 5 * time.Second
	defaultAttempts = 3
)

// Pinger is the health check the Prober polls.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober polls a Pinger and tracks reachability. A probe is retried with
// exponential backoff before the remote is declared offline.
type Prober struct {
	broadcaster

	pinger   Pinger
	interval time.Duration
	attempts uint
	logger   *slog.Logger

	newBackOff func() backoff.BackOff
}

// NewProber creates a Prober. The initial state is offline until the
// first probe, or call Probe before Run for a synchronous first check.
func NewProber(pinger Pinger, interval time.Duration, attempts int, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &Prober{
		pinger:   pinger,
		interval: interval,
		attempts: uint(attempts),
		logger:   logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// Probe checks the remote once, with retries, and updates the state.
func (p *Prober) Probe(ctx context.Context) bool {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.pinger.Ping(ctx)
	}, backoff.WithBackOff(p.newBackOff()), backoff.WithMaxTries(p.attempts))

	online := err == nil
	if ctx.Err() != nil {
		// Cancelled mid-probe; keep the last known state
		return p.Online()
	}
	if p.set(online) {
		if online {
			p.logger.Info("remote store reachable")
		} else {
			p.logger.Warn("remote store unreachable", "error", err)
		}
	}
	return online
}

// Run probes on every interval tick until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
