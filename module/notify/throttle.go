package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ===== Lua =====

// Counter increment with window start.
// KEYS[1] = counter key
// ARGV[1] = window ttl seconds
// Returns the post-increment count. The increment is unconditional so the
// window keeps filling even on over-limit calls; only the first increment
// arms the TTL.
const luaConsumeWindow = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("EXPIRE", KEYS[1], tonumber(ARGV[1]))
end
return n
`

func throttleKey(conversationID, recipientID string) string {
	return "jm:notify:cnt:" + conversationID + ":" + recipientID
}

// Throttle is a fixed-window cap on notifications per conversation+recipient.
// The window resets when the counter's TTL lapses. All dispatcher and poller
// instances share the same counters, so the combined rate stays bounded.
type Throttle struct {
	rdb        *redis.Client
	luaConsume *redis.Script
}

func NewThrottle(rdb *redis.Client) *Throttle {
	return &Throttle{
		rdb:        rdb,
		luaConsume: redis.NewScript(luaConsumeWindow),
	}
}

// TryConsume counts one attempted send and reports whether the caller may
// actually perform it. maxPerWindow and windowSeconds come from the current
// policy, passed per call because the policy is never cached.
func (t *Throttle) TryConsume(ctx context.Context, conversationID, recipientID string, maxPerWindow, windowSeconds int) (bool, error) {
	n, err := t.luaConsume.Run(ctx, t.rdb,
		[]string{throttleKey(conversationID, recipientID)},
		windowSeconds,
	).Int64()
	if err != nil {
		return false, err
	}
	return n <= int64(maxPerWindow), nil
}
