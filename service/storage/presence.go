package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence key: jm:presence:<user>
// Value is the gateway node holding the connection; the TTL bounds how long
// a user counts as online after their last heartbeat. The connection layer
// owns the write side; the notification core only reads.
func presenceKey(user string) string { return "jm:presence:" + user }

type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

// Heartbeat marks the user online and renews the TTL.
func (p *PresenceStore) Heartbeat(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	return p.rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// Offline removes the presence key when a user disconnects cleanly.
func (p *PresenceStore) Offline(ctx context.Context, user string) error {
	return p.rdb.Del(ctx, presenceKey(user)).Err()
}

// IsOnline reports whether the user currently holds a live connection.
func (p *PresenceStore) IsOnline(ctx context.Context, user string) (bool, error) {
	_, online, err := p.Lookup(ctx, user)
	return online, err
}

// Lookup returns the gateway holding the user's connection, if any.
func (p *PresenceStore) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
