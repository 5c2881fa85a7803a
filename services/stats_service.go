package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bingo-system/models"
	"bingo-system/utils"
)

// StatsService keeps live scan counters in Redis for the operator
// dashboard. All calls run through a circuit breaker: when Redis is down
// the counters go stale, the scan path keeps running.
type StatsService struct {
	Redis   *redis.Client
	breaker *utils.CircuitBreaker
}

func NewStatsService(redisClient *redis.Client) *StatsService {
	return &StatsService{
		Redis:   redisClient,
		breaker: utils.NewCircuitBreaker("scan-stats"),
	}
}

func countKey(outcome string) string {
	return fmt.Sprintf("scans:count:%s", outcome)
}

func dailyKey(day, outcome string) string {
	return fmt.Sprintf("scans:daily:%s:%s", day, outcome)
}

const valueKey = "scans:value:accepted"

// RecordScan bumps the per-outcome totals and, for accepted scans, the
// redeemed prize value.
func (s *StatsService) RecordScan(ctx context.Context, outcome string, amount int) error {
	day := time.Now().UTC().Format("2006-01-02")

	_, err := s.breaker.Execute(ctx, func() (any, error) {
		pipe := s.Redis.Pipeline()
		pipe.Incr(ctx, countKey(outcome))
		pipe.Incr(ctx, dailyKey(day, outcome))
		if outcome == models.OutcomeAccepted && amount > 0 {
			pipe.IncrBy(ctx, valueKey, int64(amount))
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	return err
}

// GetStats returns the running totals per outcome plus the accepted value.
func (s *StatsService) GetStats(ctx context.Context) (map[string]any, error) {
	result, err := s.breaker.Execute(ctx, func() (any, error) {
		outcomes := []string{
			models.OutcomeAccepted,
			models.OutcomeDuplicate,
			models.OutcomeExpired,
			models.OutcomeInvalid,
		}

		stats := map[string]any{}
		for _, outcome := range outcomes {
			count, err := s.Redis.Get(ctx, countKey(outcome)).Int64()
			if err == redis.Nil {
				count = 0
			} else if err != nil {
				return nil, err
			}
			stats[outcome] = count
		}

		value, err := s.Redis.Get(ctx, valueKey).Int64()
		if err == redis.Nil {
			value = 0
		} else if err != nil {
			return nil, err
		}
		stats["accepted_value"] = value

		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(map[string]any), nil
}

// Reset clears the running totals. Called alongside the admin bulk wipe.
func (s *StatsService) Reset(ctx context.Context) error {
	_, err := s.breaker.Execute(ctx, func() (any, error) {
		keys := []string{
			countKey(models.OutcomeAccepted),
			countKey(models.OutcomeDuplicate),
			countKey(models.OutcomeExpired),
			countKey(models.OutcomeInvalid),
			valueKey,
		}
		return nil, s.Redis.Del(ctx, keys...).Err()
	})
	return err
}
