package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pollerEnv struct {
	poller   *Poller
	policies *fakePolicyStore
	presence *fakePresence
	sender   *fakeSender
	msgs     *fakeMessageStore
	jobs     *JobStore
	throttle *Throttle
}

func newPollerEnv(t *testing.T, pol NotificationPolicy) *pollerEnv {
	t.Helper()
	_, rdb := newTestRedis(t)
	th := testThread()
	env := &pollerEnv{
		policies: &fakePolicyStore{pol: pol},
		presence: &fakePresence{online: map[string]bool{}},
		sender:   &fakeSender{},
		msgs: &fakeMessageStore{
			unread:    map[string]int64{},
			unreadErr: map[string]error{},
			threads:   map[string]*Thread{"conv1": &th},
		},
		jobs:     NewJobStore(rdb),
		throttle: NewThrottle(rdb),
	}
	env.poller = NewPoller(env.jobs, env.policies, env.presence, env.throttle,
		env.sender, env.msgs, DefaultPollInterval, DefaultPollBatch)
	return env
}

func (e *pollerEnv) enqueueDue(t *testing.T, conv, rcpt string) {
	t.Helper()
	created, err := e.jobs.EnqueueIfAbsent(context.Background(), Job{
		ConversationID: conv,
		RecipientID:    rcpt,
		MessageID:      "m-" + conv,
		CreatedAt:      time.Now().Add(-31 * time.Minute).Unix(),
		DueAt:          time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestPollerSendsUnreadReminder(t *testing.T) {
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 4
	env.enqueueDue(t, "conv1", "seek1")

	env.poller.Tick(context.Background())

	require.Len(t, env.sender.calls, 1)
	call := env.sender.calls[0]
	require.Equal(t, TemplateUnreadReminder, call.Kind)
	require.Equal(t, "jane@mail.test", call.To.Email)
	require.Equal(t, "4", call.Params["unread_count"])
	require.NotContains(t, call.Params, "preview", "reminders carry no message preview")
}

func TestPollerSkipsWhenAllRead(t *testing.T) {
	// the message was read before the job fired: no send, and the throttle
	// window is not consumed either
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 0
	env.enqueueDue(t, "conv1", "seek1")

	env.poller.Tick(context.Background())

	require.Empty(t, env.sender.calls)
	allowed, err := env.throttle.TryConsume(context.Background(), "conv1", "seek1", 1, 3600)
	require.NoError(t, err)
	require.True(t, allowed, "no throttle increment may have happened")
}

func TestPollerSkipsWhenRecipientCameOnline(t *testing.T) {
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 2
	env.presence.online["seek1"] = true
	env.enqueueDue(t, "conv1", "seek1")

	env.poller.Tick(context.Background())

	require.Empty(t, env.sender.calls)
}

func TestPollerSkipsWhenDelayedDisabled(t *testing.T) {
	// policy can change between enqueue and fire; the poller honors the
	// current one
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 2
	env.enqueueDue(t, "conv1", "seek1")
	env.policies.pol.Delayed.Enabled = false

	env.poller.Tick(context.Background())

	require.Empty(t, env.sender.calls)
}

func TestPollerReleasesDedupOnClaim(t *testing.T) {
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 0
	env.enqueueDue(t, "conv1", "seek1")

	env.poller.Tick(context.Background())

	// a fresh message can schedule again even though the old job was
	// skipped
	created, err := env.jobs.EnqueueIfAbsent(context.Background(), Job{
		ConversationID: "conv1",
		RecipientID:    "seek1",
		MessageID:      "m-next",
		CreatedAt:      time.Now().Unix(),
		DueAt:          time.Now().Add(30 * time.Minute).Unix(),
	})
	require.NoError(t, err)
	require.True(t, created)
}

func TestPollerIsolatesFailingJobs(t *testing.T) {
	env := newPollerEnv(t, activePolicy())
	th2 := testThread()
	th2.ConversationID = "conv2"
	env.msgs.threads["conv2"] = &th2
	env.msgs.unread["conv1"] = 1
	env.msgs.unread["conv2"] = 1
	env.msgs.unreadErr["conv1"] = context.DeadlineExceeded
	env.enqueueDue(t, "conv1", "seek1")
	env.enqueueDue(t, "conv2", "seek1")

	env.poller.Tick(context.Background())

	require.Len(t, env.sender.calls, 1, "the healthy job still went through")
}

func TestPollerRespectsThrottle(t *testing.T) {
	// immediate sends and reminders share one window
	env := newPollerEnv(t, activePolicy())
	env.msgs.unread["conv1"] = 1
	env.enqueueDue(t, "conv1", "seek1")

	for i := 0; i < 3; i++ {
		allowed, err := env.throttle.TryConsume(context.Background(), "conv1", "seek1", 3, 3600)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	env.poller.Tick(context.Background())

	require.Empty(t, env.sender.calls, "the window was already full")
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	env := newPollerEnv(t, activePolicy())
	env.poller.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	env.poller.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	// nothing to assert beyond "no panic, no leak noise"; the loop exits
	// on ctx.Done
}
