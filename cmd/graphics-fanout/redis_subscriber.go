package main

import (
	"context"

	"github.com/lumacast/showrunner/common/graphics"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/redis/go-redis/v9"
)

// RedisSubscriber listens to the graphics channel topics and forwards
// commands to the hub
type RedisSubscriber struct {
	redis *redis.Client
	hub   *Hub
	log   *logger.Logger
}

// NewRedisSubscriber creates a new RedisSubscriber instance
func NewRedisSubscriber(redisClient *redis.Client, hub *Hub, log *logger.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		redis: redisClient,
		hub:   hub,
		log:   log,
	}
}

// Start begins listening to the channel topic pattern. Returns when
// the context is cancelled.
func (s *RedisSubscriber) Start(ctx context.Context) error {
	pubsub := s.redis.PSubscribe(ctx, graphics.ChannelTopicPattern)
	defer pubsub.Close()

	s.log.Info("redis subscriber started", "pattern", graphics.ChannelTopicPattern)

	// Wait for confirmation that the subscription is live
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("redis subscriber stopping")
			return nil

		case msg := <-ch:
			if msg == nil {
				continue
			}

			channel := graphics.ChannelFromTopic(msg.Channel)
			if channel < 0 {
				s.log.Warn("ignoring message on unexpected topic", "topic", msg.Channel)
				continue
			}

			s.hub.broadcast <- &Message{
				Channel: channel,
				Data:    []byte(msg.Payload),
			}
		}
	}
}
