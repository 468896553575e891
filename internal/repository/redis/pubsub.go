package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RegistrationsPubSub fans out registration changes so other instances can
// drop their cached event views.
type RegistrationsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewRegistrationsPubSub(rdb *redis.Client) *RegistrationsPubSub {
	return &RegistrationsPubSub{
		rdb:     rdb,
		channel: ChannelRegistrationsChanged(),
	}
}

type registrationsChangedMsg struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *RegistrationsPubSub) PublishChanged(ctx context.Context, eventID uuid.UUID) error {
	msg := registrationsChangedMsg{
		Type:    "registrations_changed",
		EventID: eventID.String(),
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *RegistrationsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, eventID uuid.UUID)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg registrationsChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			id, err := uuid.Parse(msg.EventID)
			if err != nil {
				continue
			}
			handler(ctx, id)
		}
	}
}
