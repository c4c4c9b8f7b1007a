package notify

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"JProject/logger"
	"JProject/tools/safe"
)

const (
	DefaultPollInterval = 20 * time.Second
	DefaultPollBatch    = 100
)

// Poller claims due re-check jobs on a fixed interval and re-runs the send
// decision: still unread, still configured, still offline, still under the
// throttle. Jobs are claimed before processing; a crash mid-processing
// loses the claimed job rather than duplicating it. That trade was chosen
// deliberately: the unread re-check makes duplicates likely on re-enqueue,
// and losing a courtesy reminder is the cheaper failure.
type Poller struct {
	jobs     *JobStore
	policies PolicyStore
	presence PresenceOracle
	throttle *Throttle
	sender   Sender
	msgs     MessageStore

	interval time.Duration
	batch    int
	now      func() time.Time
}

func NewPoller(jobs *JobStore, policies PolicyStore, presence PresenceOracle, throttle *Throttle, sender Sender, msgs MessageStore, interval time.Duration, batch int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if batch <= 0 {
		batch = DefaultPollBatch
	}
	return &Poller{
		jobs:     jobs,
		policies: policies,
		presence: presence,
		throttle: throttle,
		sender:   sender,
		msgs:     msgs,
		interval: interval,
		batch:    batch,
		now:      time.Now,
	}
}

// Start runs the poll loop until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	safe.Go("notify-poller", func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		logger.Info("notify: poller started",
			zap.Duration("interval", p.interval), zap.Int("batch", p.batch))
		for {
			select {
			case <-ticker.C:
				p.Tick(ctx)
			case <-ctx.Done():
				logger.Info("notify: poller stopped")
				return
			}
		}
	})
}

// Tick claims and processes one batch of due jobs. One failing job never
// aborts the rest of the batch.
func (p *Poller) Tick(ctx context.Context) {
	jobs, err := p.jobs.PopDue(ctx, p.now(), p.batch)
	if err != nil {
		logger.Error("notify: due-job scan failed", zap.Error(err))
		return
	}
	for _, job := range jobs {
		p.process(ctx, job)
	}
}

func (p *Poller) process(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notify: job processing panic",
				zap.String("conversation", job.ConversationID), zap.Any("panic", r))
		}
	}()

	// Free the dedup marker first, so a new message can schedule a fresh
	// re-check while this one is mid-flight.
	if err := p.jobs.ReleaseDedup(ctx, job.ConversationID, job.RecipientID); err != nil {
		logger.Warn("notify: release dedup failed",
			zap.String("conversation", job.ConversationID), zap.Error(err))
	}

	unread, err := p.msgs.CountUnread(ctx, job.ConversationID, job.RecipientID)
	if err != nil {
		logger.Error("notify: unread count failed, dropping job",
			zap.String("conversation", job.ConversationID), zap.Error(err))
		return
	}
	if unread == 0 {
		// recipient caught up, nothing to remind about
		return
	}

	pol, err := p.policies.GetNotificationPolicy(ctx)
	if err != nil {
		logger.Warn("notify: policy read failed, dropping job",
			zap.String("conversation", job.ConversationID), zap.Error(err))
		return
	}
	if !pol.Enabled || !pol.Delayed.Enabled {
		return
	}

	online, err := p.presence.IsOnline(ctx, job.RecipientID)
	if err != nil {
		logger.Warn("notify: presence lookup failed, assuming offline",
			zap.String("user", job.RecipientID), zap.Error(err))
		online = false
	}
	if online {
		return
	}

	th, err := p.msgs.Thread(ctx, job.ConversationID)
	if err != nil || th == nil {
		logger.Error("notify: thread lookup failed, dropping job",
			zap.String("conversation", job.ConversationID), zap.Error(err))
		return
	}

	allowed, err := p.throttle.TryConsume(ctx, job.ConversationID, job.RecipientID,
		pol.Throttle.MaxPerWindow, pol.Throttle.WindowMinutes*60)
	if err != nil {
		logger.Warn("notify: throttle unavailable, suppressing reminder",
			zap.String("conversation", job.ConversationID), zap.Error(err))
		return
	}
	if !allowed {
		return
	}

	params := map[string]string{
		"subject":      th.Subject,
		"sender_name":  th.Employer.Name,
		"unread_count": strconv.FormatInt(unread, 10),
	}
	if err := p.sender.Send(ctx, Contact(th.Seeker), TemplateUnreadReminder, params); err != nil {
		logger.Error("notify: reminder send failed",
			zap.String("conversation", job.ConversationID),
			zap.String("recipient", job.RecipientID), zap.Error(err))
		return
	}
	logger.Info("notify: unread reminder sent",
		zap.String("conversation", job.ConversationID),
		zap.String("recipient", job.RecipientID),
		zap.Int64("unread", unread))
}
