package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Job is the payload of one scheduled unread re-check.
type Job struct {
	ConversationID string `json:"conversation_id"`
	RecipientID    string `json:"recipient_id"`
	MessageID      string `json:"message_id"`
	CreatedAt      int64  `json:"created_at"` // unix seconds
	DueAt          int64  `json:"due_at"`     // unix seconds
}

// ===== Lua =====

// Claim all due entries up to a batch limit, oldest first.
// KEYS[1] = due index (zset, score = due unix seconds)
// ARGV[1] = now unix seconds
// ARGV[2] = batch limit
// Removing inside the same script makes claim atomic across instances:
// a job is processed by exactly one poller tick.
const luaPopDueBatch = `
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for i = 1, #due do
  redis.call("ZREM", KEYS[1], due[i])
end
return due
`

const dueIndexKey = "jm:notify:due"

// dedupSafetyMargin pads the dedup marker TTL past the due time, so a
// marker whose job record was lost cannot block the pair forever.
const dedupSafetyMargin = 10 * time.Minute

func dedupKey(conversationID, recipientID string) string {
	return "jm:notify:dedup:" + conversationID + ":" + recipientID
}

// JobStore persists delayed re-check jobs in the shared store: a SETNX
// dedup marker per (conversation, recipient) pair plus a due-time-ordered
// index holding the payloads.
type JobStore struct {
	rdb       *redis.Client
	luaPopDue *redis.Script
}

func NewJobStore(rdb *redis.Client) *JobStore {
	return &JobStore{
		rdb:       rdb,
		luaPopDue: redis.NewScript(luaPopDueBatch),
	}
}

// EnqueueIfAbsent schedules a re-check unless one is already outstanding
// for the pair. First enqueue wins; later messages in the same conversation
// ride on the existing job. The marker and the index entry are written in
// two steps on purpose: a stale marker only delays the next enqueue until
// its TTL lapses, it never loses a due job.
func (s *JobStore) EnqueueIfAbsent(ctx context.Context, job Job) (bool, error) {
	due := time.Unix(job.DueAt, 0)
	ttl := time.Until(due) + dedupSafetyMargin
	if ttl <= 0 {
		ttl = dedupSafetyMargin
	}

	ok, err := s.rdb.SetNX(ctx, dedupKey(job.ConversationID, job.RecipientID), job.MessageID, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "set dedup marker")
	}
	if !ok {
		return false, nil
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return false, errors.Wrap(err, "marshal job")
	}
	if err := s.rdb.ZAdd(ctx, dueIndexKey, redis.Z{
		Score:  float64(job.DueAt),
		Member: payload,
	}).Err(); err != nil {
		return false, errors.Wrap(err, "add to due index")
	}
	return true, nil
}

// PopDue atomically claims and removes every job due at or before now,
// up to maxBatch, in ascending due order. Entries that fail to decode are
// dropped (they were already removed from the index by the claim).
func (s *JobStore) PopDue(ctx context.Context, now time.Time, maxBatch int) ([]Job, error) {
	raw, err := s.luaPopDue.Run(ctx, s.rdb, []string{dueIndexKey}, now.Unix(), maxBatch).StringSlice()
	if err != nil {
		return nil, errors.Wrap(err, "pop due jobs")
	}
	jobs := make([]Job, 0, len(raw))
	for _, r := range raw {
		var j Job
		if err := json.Unmarshal([]byte(r), &j); err != nil {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// ReleaseDedup frees the pair's dedup marker. The poller calls it right
// after claiming a job, so a new message can schedule a fresh re-check
// while the old one is still mid-flight.
func (s *JobStore) ReleaseDedup(ctx context.Context, conversationID, recipientID string) error {
	return s.rdb.Del(ctx, dedupKey(conversationID, recipientID)).Err()
}
