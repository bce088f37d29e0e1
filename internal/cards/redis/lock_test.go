package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"ms-fidelity/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis runs an in-memory Redis for the duration of the test.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, 5*time.Second, time.Minute), mr
}

func TestLockEnrollment(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.LockEnrollment(ctx, "u1", "p1", "attempt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.LockEnrollment(ctx, "u1", "p1", "attempt-2")
	require.NoError(t, err)
	assert.False(t, ok, "second attempt must not acquire the lock")

	// another program is independent
	ok, err = r.LockEnrollment(ctx, "u1", "p2", "attempt-3")
	require.NoError(t, err)
	assert.True(t, ok)

	// a foreign token cannot release the lock
	require.NoError(t, r.UnlockEnrollment(ctx, "u1", "p1", "attempt-2"))
	ok, err = r.LockEnrollment(ctx, "u1", "p1", "attempt-4")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.UnlockEnrollment(ctx, "u1", "p1", "attempt-1"))
	ok, err = r.LockEnrollment(ctx, "u1", "p1", "attempt-5")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockEnrollmentExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.LockEnrollment(ctx, "u1", "p1", "attempt-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = r.LockEnrollment(ctx, "u1", "p1", "attempt-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockEnrollmentConcurrent(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := r.LockEnrollment(ctx, "u1", "p1", time.Now().String())
			if err == nil && ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, acquired)
}

func TestPendingIntentRoundTrip(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	intent, err := r.LoadPendingIntent(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, intent)

	require.NoError(t, r.SavePendingIntent(ctx, "visitor-1", models.PendingIntent{ProgramID: "p1", RestaurantID: "r1", FromQR: true}))

	intent, err = r.LoadPendingIntent(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, intent)
	assert.Equal(t, "p1", intent.ProgramID)
	assert.Equal(t, "r1", intent.RestaurantID)
	assert.True(t, intent.FromQR)
	assert.False(t, intent.CreatedAt.IsZero())

	require.NoError(t, r.ClearPendingIntent(ctx, "visitor-1"))
	intent, err = r.LoadPendingIntent(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, intent)

	require.NoError(t, r.SavePendingIntent(ctx, "visitor-2", models.PendingIntent{ProgramID: "p2"}))
	mr.FastForward(2 * time.Minute)
	intent, err = r.LoadPendingIntent(ctx, "visitor-2")
	require.NoError(t, err)
	assert.Nil(t, intent)
}
