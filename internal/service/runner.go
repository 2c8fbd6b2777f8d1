package service

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// Runner drives Scheduler.Tick on a fixed cadence until stopped.
type Runner struct {
	scheduler *Scheduler
	bot       *BotContext
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(scheduler *Scheduler, bot *BotContext, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{scheduler: scheduler, bot: bot, interval: interval}
}

// Start launches the tick loop in a background goroutine
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.runLoop(ctx, r.done)
}

// Stop ends the loop and waits for the running tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info("bot runner started", "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("bot runner stopped")
			return
		case now := <-ticker.C:
			r.scheduler.Tick(ctx, r.bot, now)
		}
	}
}
