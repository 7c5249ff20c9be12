package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisScheduler keeps pending jobs in a sorted set scored by trigger time,
// with the job bodies in a hash under the same member key. Scheduling a job
// that is already pending replaces it.
type RedisScheduler struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

func NewRedisScheduler(client *redis.Client, prefix string, log logger.Logger) *RedisScheduler {
	return &RedisScheduler{
		client: client,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "redis-scheduler"}),
	}
}

func (s *RedisScheduler) queueKey() string   { return s.prefix + ":due" }
func (s *RedisScheduler) payloadKey() string { return s.prefix + ":jobs" }

func (s *RedisScheduler) Schedule(ctx context.Context, job models.ReminderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	key := jobKey(job)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.queueKey(), redis.Z{Score: float64(job.TriggerAt.Unix()), Member: key})
	pipe.HSet(ctx, s.payloadKey(), key, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store job %s: %w", key, err)
	}
	return nil
}

// Claim removes and returns up to limit jobs due at now. A job claimed by
// another worker in the meantime is skipped.
func (s *RedisScheduler) Claim(ctx context.Context, now time.Time, limit int64) ([]models.ReminderJob, error) {
	keys, err := s.client.ZRangeByScore(ctx, s.queueKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	jobs := make([]models.ReminderJob, 0, len(keys))
	for _, key := range keys {
		removed, err := s.client.ZRem(ctx, s.queueKey(), key).Result()
		if err != nil {
			return jobs, fmt.Errorf("claim job %s: %w", key, err)
		}
		if removed == 0 {
			continue
		}

		data, err := s.client.HGet(ctx, s.payloadKey(), key).Bytes()
		if errors.Is(err, redis.Nil) {
			s.logger.Warn("Claimed job has no body", map[string]interface{}{"job": key})
			continue
		}
		if err != nil {
			return jobs, fmt.Errorf("load job %s: %w", key, err)
		}
		s.client.HDel(ctx, s.payloadKey(), key)

		var job models.ReminderJob
		if err := json.Unmarshal(data, &job); err != nil {
			s.logger.Error("Dropping undecodable job", map[string]interface{}{
				"job":   key,
				"error": err.Error(),
			})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *RedisScheduler) Pending(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, s.queueKey()).Result()
}

// Poll claims due jobs every interval and passes them to run until ctx is
// cancelled. A job whose run fails is put back one interval later.
func (s *RedisScheduler) Poll(ctx context.Context, interval time.Duration, run func(context.Context, models.ReminderJob) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.runDue(ctx, now, interval, run)
		}
	}
}

func (s *RedisScheduler) runDue(ctx context.Context, now time.Time, retryAfter time.Duration, run func(context.Context, models.ReminderJob) error) {
	jobs, err := s.Claim(ctx, now, 100)
	if err != nil {
		s.logger.Error("Claiming due jobs failed", map[string]interface{}{"error": err.Error()})
	}

	for _, job := range jobs {
		if err := run(ctx, job); err != nil {
			s.logger.Error("Due job failed, rescheduling", map[string]interface{}{
				"jobGroup": job.JobGroup,
				"caseId":   job.CaseID,
				"error":    err.Error(),
			})
			job.TriggerAt = now.Add(retryAfter)
			if err := s.Schedule(ctx, job); err != nil {
				s.logger.Error("Rescheduling failed, job dropped", map[string]interface{}{
					"jobGroup": job.JobGroup,
					"error":    err.Error(),
				})
			}
		}
	}
}
