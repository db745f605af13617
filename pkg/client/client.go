package client

import (
	"context"
	"sync"
	"time"

	"bookline/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Client holds the shared external connections. Set calls are memoized:
// once a connection is open, further calls return it unchanged, so any
// component may call them without coordinating startup order.
type Client struct {
	mu    sync.Mutex
	Mongo *mongo.Client
	Redis *redis.Client
}

func New() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
		c.Mongo = nil
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis connection", "error", err)
		}
		c.Redis = nil
	}
}
