package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Naude555/watson/internal/gateway/repository"
)

// PacingConfig holds the per-send pacing knobs, all in milliseconds.
type PacingConfig struct {
	BaseDelayMS    int
	JitterMS       int
	PerJIDGapMS    int
	GlobalMinGapMS int
}

// RateGate paces outbound sends. Acquire blocks until both the global
// minimum gap and the per-recipient gap have elapsed, then records the
// send time for the recipient. Calls are serialized; the worker is the
// only caller.
type RateGate struct {
	mu       sync.Mutex
	cfg      PacingConfig
	lastSend repository.LastSendRepository
	lastAny  time.Time
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

func NewRateGate(cfg PacingConfig, lastSend repository.LastSendRepository, logger *slog.Logger) *RateGate {
	return &RateGate{
		cfg:      cfg,
		lastSend: lastSend,
		logger:   logger.With("service", "RateGate"),
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire blocks until a send to jid is allowed, then stamps the send.
func (g *RateGate) Acquire(ctx context.Context, jid string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := g.now()
	var wait time.Duration

	if !g.lastAny.IsZero() && g.cfg.GlobalMinGapMS > 0 {
		if d := time.Duration(g.cfg.GlobalMinGapMS)*time.Millisecond - start.Sub(g.lastAny); d > wait {
			wait = d
		}
	}
	if last, err := g.lastSend.Get(ctx, jid); err == nil && last > 0 && g.cfg.PerJIDGapMS > 0 {
		lastAt := time.UnixMilli(last)
		if d := time.Duration(g.cfg.PerJIDGapMS)*time.Millisecond - start.Sub(lastAt); d > wait {
			wait = d
		}
	}

	if err := g.sleep(ctx, wait); err != nil {
		return err
	}
	rateGateWaitDurationHist.Observe(g.now().Sub(start).Seconds())

	now := g.now()
	g.lastAny = now
	// A failed stamp must not stop the send; the recipient just loses
	// its durable gap until the next successful write.
	if err := g.lastSend.Set(ctx, jid, now.UnixMilli()); err != nil {
		g.logger.ErrorContext(ctx, "Failed to persist last-send timestamp", "jid", jid, "error", err)
	}
	return nil
}

// PostSendDelay returns the randomized pause to take after a successful
// send: base delay plus uniform jitter.
func (g *RateGate) PostSendDelay() time.Duration {
	d := time.Duration(g.cfg.BaseDelayMS) * time.Millisecond
	if g.cfg.JitterMS > 0 {
		d += time.Duration(rand.Intn(g.cfg.JitterMS)) * time.Millisecond
	}
	return d
}
