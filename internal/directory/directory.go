// internal/directory/directory.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maintenance-dispatch/internal/common/logger"
	"maintenance-dispatch/internal/models"

	"github.com/redis/go-redis/v9"
)

// ContractorSource is the persistence view the directory sits on.
type ContractorSource interface {
	ListEligible(ctx context.Context, companyID string) ([]*models.Contractor, error)
	GetContractor(ctx context.Context, contractorID string) (*models.Contractor, error)
	GetStats(ctx context.Context, contractorID string) (*models.ContractorStats, error)
}

// Directory serves contractor rosters and performance stats. Stats are
// cache-aside in Redis with a short TTL: scoring reads them once per
// candidate per routing attempt, and slightly stale workload numbers are
// acceptable.
type Directory struct {
	source ContractorSource
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func New(source ContractorSource, redisClient *redis.Client, ttl time.Duration, log logger.Logger) *Directory {
	return &Directory{
		source: source,
		redis:  redisClient,
		ttl:    ttl,
		logger: log,
	}
}

// ListEligible returns ACTIVE contractors for the company in stable order.
func (d *Directory) ListEligible(ctx context.Context, companyID string) ([]*models.Contractor, error) {
	return d.source.ListEligible(ctx, companyID)
}

func (d *Directory) GetContractor(ctx context.Context, contractorID string) (*models.Contractor, error) {
	return d.source.GetContractor(ctx, contractorID)
}

// StatsFor returns performance stats, Redis first, database on miss. Cache
// failures fall through to the database; a flaky cache must not block scoring.
func (d *Directory) StatsFor(ctx context.Context, contractorID string) (*models.ContractorStats, error) {
	key := statsKey(contractorID)

	if d.redis != nil {
		cached, err := d.redis.Get(ctx, key).Result()
		if err == nil {
			var stats models.ContractorStats
			if jsonErr := json.Unmarshal([]byte(cached), &stats); jsonErr == nil {
				return &stats, nil
			}
		} else if err != redis.Nil {
			d.logger.Warn("Contractor stats cache read failed", map[string]interface{}{
				"contractorId": contractorID,
				"error":        err.Error(),
			})
		}
	}

	stats, err := d.source.GetStats(ctx, contractorID)
	if err != nil {
		return nil, err
	}

	if d.redis != nil {
		if payload, jsonErr := json.Marshal(stats); jsonErr == nil {
			if setErr := d.redis.Set(ctx, key, payload, d.ttl).Err(); setErr != nil {
				d.logger.Warn("Contractor stats cache write failed", map[string]interface{}{
					"contractorId": contractorID,
					"error":        setErr.Error(),
				})
			}
		}
	}

	return stats, nil
}

// InvalidateStats drops the cached stats after an assignment changes the
// active-job count.
func (d *Directory) InvalidateStats(ctx context.Context, contractorID string) {
	if d.redis == nil {
		return
	}
	if err := d.redis.Del(ctx, statsKey(contractorID)).Err(); err != nil {
		d.logger.Warn("Contractor stats cache invalidation failed", map[string]interface{}{
			"contractorId": contractorID,
			"error":        err.Error(),
		})
	}
}

func statsKey(contractorID string) string {
	return fmt.Sprintf("contractor:stats:%s", contractorID)
}
