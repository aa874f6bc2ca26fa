package scheduler

import (
	"context"
	"log"
	"time"

	"wishshare/cache"

	"github.com/robfig/cron/v3"
)

const auditRetention = 30 * 24 * time.Hour

// AuditPruner deletes old audit rows
type AuditPruner interface {
	PruneOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

// CacheJanitor runs periodic parse cache and audit log maintenance
type CacheJanitor struct {
	cron   *cron.Cron
	cache  *cache.ParseCache
	pruner AuditPruner
}

// NewCacheJanitor creates a janitor; either dependency may be nil
func NewCacheJanitor(parseCache *cache.ParseCache, pruner AuditPruner) *CacheJanitor {
	return &CacheJanitor{
		cron:   cron.New(cron.WithSeconds()),
		cache:  parseCache,
		pruner: pruner,
	}
}

// Start schedules cache sweeps every 10 minutes and audit pruning nightly
func (j *CacheJanitor) Start() error {
	if j.cache != nil {
		if _, err := j.cron.AddFunc("0 */10 * * * *", j.sweepCache); err != nil {
			return err
		}
	}
	if j.pruner != nil {
		if _, err := j.cron.AddFunc("0 30 3 * * *", j.pruneAudit); err != nil {
			return err
		}
	}

	j.cron.Start()
	log.Println("🧹 Cache janitor scheduled")
	return nil
}

// Stop stops the scheduled jobs and waits for a running one to finish
func (j *CacheJanitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *CacheJanitor) sweepCache() {
	j.cache.DeleteExpired()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stats := j.cache.Stats(ctx)
	log.Printf("🧹 Parse cache (%s, connected=%t): %d keys, %d hits, %d misses, %.2f%% hit rate",
		stats.Backend, stats.Connected, stats.TotalKeys, stats.Hits, stats.Misses, stats.HitRate)
}

func (j *CacheJanitor) pruneAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := j.pruner.PruneOlderThan(ctx, auditRetention)
	if err != nil {
		log.Printf("❌ Failed to prune parse events: %v", err)
		return
	}
	log.Printf("🧹 Pruned %d parse events older than %v", n, auditRetention)
}
