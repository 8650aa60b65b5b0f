package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"adtopia/internal/infra/metrics"
)

// PoolStatsFunc reports total, idle and acquired connections.
type PoolStatsFunc func() (total, idle, inUse int32)

// PgxPoolStats adapts a pgx pool to PoolStatsFunc.
func PgxPoolStats(pool *pgxpool.Pool) PoolStatsFunc {
	return func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	}
}

// PoolStatsCollector publishes connection pool gauges.
type PoolStatsCollector struct {
	interval time.Duration
	stats    PoolStatsFunc
	log      *zerolog.Logger
}

func NewPoolStatsCollector(interval time.Duration, stats PoolStatsFunc, logger *zerolog.Logger) *PoolStatsCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	compLog := logger.With().Str("component", "PoolStatsCollector").Logger()
	return &PoolStatsCollector{interval: interval, stats: stats, log: &compLog}
}

func (c *PoolStatsCollector) Run(ctx context.Context) error {
	c.collect()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *PoolStatsCollector) collect() {
	total, idle, inUse := c.stats()
	metrics.SetDBPoolStats(total, idle, inUse)
	c.log.Debug().Int32("total", total).Int32("idle", idle).Int32("in_use", inUse).Msg("pool stats")
}
