package service

import (
	"log/slog"

	"github.com/attendly/attendly/internal/repository"
	redisrepo "github.com/attendly/attendly/internal/repository/redis"
	"github.com/attendly/attendly/internal/service/allocation"
	"github.com/attendly/attendly/internal/service/events"
	"github.com/attendly/attendly/internal/service/subscribers"
)

type Services struct {
	Allocation  *allocation.Service
	Events      *events.Service
	Subscribers *subscribers.Service
}

type Config struct {
	Allocation allocation.Config
}

// Stores groups the persistence contracts the services are built on. One
// backend (postgres in production, memory in tests) typically provides all
// three.
type Stores struct {
	Allocation  repository.AllocationStore
	Events      repository.EventStore
	Subscribers repository.SubscriberStore
}

func NewServices(
	stores Stores,
	cache *redisrepo.Cache,
	pubsub *redisrepo.RegistrationsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Allocation:  allocation.New(stores.Allocation, cache, pubsub, limiter, logger, cfg.Allocation),
		Events:      events.New(stores.Events, cache, pubsub),
		Subscribers: subscribers.New(stores.Subscribers),
	}
}
