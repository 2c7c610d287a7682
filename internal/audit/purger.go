package audit

import (
	"context"
	"log/slog"
	"time"
)

// Purger runs the retention sweep on an interval. Each tick deletes at most
// one batch; a backlog drains over successive ticks rather than holding a
// long-running delete.
type Purger struct {
	service  *Service
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewPurger(service *Service, interval time.Duration, batch int, logger *slog.Logger) *Purger {
	if interval <= 0 {
		interval = time.Hour
	}
	if batch <= 0 {
		batch = 500
	}
	return &Purger{
		service:  service,
		interval: interval,
		batch:    batch,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, purging expired entries on each tick.
func (p *Purger) Run(ctx context.Context) error {
	p.logger.Info("audit purge worker started", "interval", p.interval, "batch", p.batch)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit purge worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.service.PurgeExpired(ctx, p.batch); err != nil {
				p.logger.Error("audit purge tick failed", "error", err)
			}
		}
	}
}
