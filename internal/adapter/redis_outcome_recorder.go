package adapter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"reel-quizzer/internal/cache"
	"reel-quizzer/internal/domain"
)

// RedisOutcomeRecorder implements domain.OutcomeRecorder using a Redis client.
// Each artifact keeps a hash with its latest outcome; failed artifacts are
// also members of a set, and each run keeps per-status counters.
type RedisOutcomeRecorder struct {
	client redis.Cmdable
	runTTL time.Duration
}

// NewRedisOutcomeRecorder creates a new instance of RedisOutcomeRecorder.
// Run counters expire after runTTL; zero keeps them forever.
func NewRedisOutcomeRecorder(client redis.Cmdable, runTTL time.Duration) *RedisOutcomeRecorder {
	return &RedisOutcomeRecorder{client: client, runTTL: runTTL}
}

// Record implements domain.OutcomeRecorder.
func (r *RedisOutcomeRecorder) Record(ctx context.Context, o domain.ArtifactOutcome) error {
	key := cache.OutcomeArtifactKey(o.Artifact)
	err := r.client.HSet(ctx, key,
		"run_id", o.RunID,
		"status", string(o.Status),
		"stage", string(o.Stage),
		"error", o.Error,
		"raw_saved", strconv.FormatBool(o.RawSaved),
		"started_at", formatTime(o.StartedAt),
		"finished_at", formatTime(o.FinishedAt),
	).Err()
	if err != nil {
		return domain.NewPersistenceError("failed to record outcome in redis", err).WithContext("artifact", o.Artifact)
	}

	failedKey := cache.OutcomeFailedSetKey()
	if o.Status == domain.OutcomeFailed {
		err = r.client.SAdd(ctx, failedKey, o.Artifact).Err()
	} else {
		err = r.client.SRem(ctx, failedKey, o.Artifact).Err()
	}
	if err != nil {
		return domain.NewPersistenceError("failed to update failed set in redis", err).WithContext("artifact", o.Artifact)
	}

	if o.RunID == "" {
		return nil
	}
	runKey := cache.OutcomeRunKey(o.RunID)
	if err := r.client.HIncrBy(ctx, runKey, string(o.Status), 1).Err(); err != nil {
		return domain.NewPersistenceError("failed to update run counters in redis", err).WithContext("run_id", o.RunID)
	}
	if r.runTTL > 0 {
		if err := r.client.Expire(ctx, runKey, r.runTTL).Err(); err != nil {
			return domain.NewPersistenceError("failed to set run counter expiry in redis", err).WithContext("run_id", o.RunID)
		}
	}
	return nil
}

// FailedArtifacts lists artifacts whose latest RUN failed.
func (r *RedisOutcomeRecorder) FailedArtifacts(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, cache.OutcomeFailedSetKey()).Result()
	if err != nil && err != redis.Nil {
		return nil, domain.NewPersistenceError("failed to read failed set from redis", err)
	}
	return members, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
