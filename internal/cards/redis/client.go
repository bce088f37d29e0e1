package redis

import (
	"context"
	"fmt"
	"time"

	"ms-fidelity/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and checks the connection.
func Connect(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		client.Close()
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s", addr))
	return client, nil
}
