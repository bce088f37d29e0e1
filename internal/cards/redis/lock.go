package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-fidelity/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	enrollLockPrefix    = "enroll_lock:"
	pendingIntentPrefix = "pending_enroll:"
)

type Redis struct {
	Client    *redis.Client
	LockTTL   time.Duration
	IntentTTL time.Duration
}

func NewRedis(client *redis.Client, lockTTL, intentTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	if intentTTL <= 0 {
		intentTTL = 30 * time.Minute
	}
	return &Redis{
		Client:    client,
		LockTTL:   lockTTL,
		IntentTTL: intentTTL,
	}
}

func enrollLockKey(customerID, programID string) string {
	return fmt.Sprintf("%s%s:%s", enrollLockPrefix, customerID, programID)
}

// LockEnrollment serialises enrollment attempts for one (customer, program)
// pair. It returns false when another attempt holds the lock.
func (r *Redis) LockEnrollment(ctx context.Context, customerID, programID, token string) (bool, error) {
	return r.Client.SetNX(ctx, enrollLockKey(customerID, programID), token, r.LockTTL).Result()
}

// UnlockEnrollment releases the lock only if token still owns it.
func (r *Redis) UnlockEnrollment(ctx context.Context, customerID, programID, token string) error {
	key := enrollLockKey(customerID, programID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

func (r *Redis) SavePendingIntent(ctx context.Context, visitorID string, intent models.PendingIntent) error {
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now()
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal pending intent: %w", err)
	}
	if err := r.Client.Set(ctx, pendingIntentPrefix+visitorID, data, r.IntentTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending intent: %w", err)
	}
	return nil
}

// LoadPendingIntent returns nil, nil when the visitor has no intent.
func (r *Redis) LoadPendingIntent(ctx context.Context, visitorID string) (*models.PendingIntent, error) {
	data, err := r.Client.Get(ctx, pendingIntentPrefix+visitorID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending intent: %w", err)
	}
	var intent models.PendingIntent
	if err := json.Unmarshal([]byte(data), &intent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending intent: %w", err)
	}
	return &intent, nil
}

func (r *Redis) ClearPendingIntent(ctx context.Context, visitorID string) error {
	return r.Client.Del(ctx, pendingIntentPrefix+visitorID).Err()
}
