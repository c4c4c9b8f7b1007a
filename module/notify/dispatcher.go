package notify

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"JProject/logger"
)

const previewMaxRunes = 120

// Dispatcher runs inline after a chat message is persisted and decides
// whether to notify the recipient out of band: maybe immediately, maybe
// via a delayed unread re-check, maybe not at all. It is best-effort
// throughout; nothing here ever fails the message-send operation.
type Dispatcher struct {
	policies PolicyStore
	presence PresenceOracle
	throttle *Throttle
	jobs     *JobStore
	sender   Sender

	now func() time.Time
}

func NewDispatcher(policies PolicyStore, presence PresenceOracle, throttle *Throttle, jobs *JobStore, sender Sender) *Dispatcher {
	return &Dispatcher{
		policies: policies,
		presence: presence,
		throttle: throttle,
		jobs:     jobs,
		sender:   sender,
		now:      time.Now,
	}
}

// Dispatch applies the notification decision policy to one new message.
// Per invocation it performs at most one throttle increment, one send and
// one job enqueue. All failures are logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message, th Thread) {
	pol, err := d.policies.GetNotificationPolicy(ctx)
	if err != nil {
		// uncertain config never notifies
		logger.Warn("notify: policy read failed, skipping dispatch",
			zap.String("conversation", msg.ConversationID), zap.Error(err))
		return
	}
	if !pol.Enabled {
		return
	}

	// Only employer -> seeker messages qualify. The reverse direction never
	// triggers notification logic.
	if msg.SenderID != th.Employer.UserID || msg.RecipientID != th.Seeker.UserID {
		return
	}

	immediate := pol.Immediate.Enabled
	if pol.Immediate.OnlyFirstMessageInThread && msg.SenderSeq > 1 {
		immediate = false
	}

	online, err := d.presence.IsOnline(ctx, msg.RecipientID)
	if err != nil {
		logger.Warn("notify: presence lookup failed, assuming offline",
			zap.String("user", msg.RecipientID), zap.Error(err))
		online = false
	}
	if online {
		// the delayed job re-checks presence at fire time
		immediate = false
	}

	if immediate {
		d.sendImmediate(ctx, pol, msg, th)
	}

	if pol.Delayed.Enabled {
		d.enqueueRecheck(ctx, pol, msg)
	}
}

func (d *Dispatcher) sendImmediate(ctx context.Context, pol NotificationPolicy, msg Message, th Thread) {
	allowed, err := d.throttle.TryConsume(ctx, msg.ConversationID, msg.RecipientID,
		pol.Throttle.MaxPerWindow, pol.Throttle.WindowMinutes*60)
	if err != nil {
		logger.Warn("notify: throttle unavailable, suppressing send",
			zap.String("conversation", msg.ConversationID), zap.Error(err))
		return
	}
	if !allowed {
		logger.Debug("notify: immediate send throttled",
			zap.String("conversation", msg.ConversationID),
			zap.String("recipient", msg.RecipientID))
		return
	}

	params := map[string]string{
		"subject":     th.Subject,
		"sender_name": th.Employer.Name,
		"preview":     truncatePreview(msg.Content),
	}
	if err := d.sender.Send(ctx, Contact(th.Seeker), TemplateNewMessage, params); err != nil {
		logger.Error("notify: immediate send failed",
			zap.String("conversation", msg.ConversationID),
			zap.String("recipient", msg.RecipientID), zap.Error(err))
		return
	}
	logger.Info("notify: immediate notification sent",
		zap.String("conversation", msg.ConversationID),
		zap.String("recipient", msg.RecipientID),
		zap.String("message", msg.MessageID))
}

func (d *Dispatcher) enqueueRecheck(ctx context.Context, pol NotificationPolicy, msg Message) {
	now := d.now()
	job := Job{
		ConversationID: msg.ConversationID,
		RecipientID:    msg.RecipientID,
		MessageID:      msg.MessageID,
		CreatedAt:      now.Unix(),
		DueAt:          now.Add(time.Duration(pol.Delayed.DelayMinutes) * time.Minute).Unix(),
	}
	created, err := d.jobs.EnqueueIfAbsent(ctx, job)
	if err != nil {
		logger.Warn("notify: enqueue delayed re-check failed",
			zap.String("conversation", msg.ConversationID), zap.Error(err))
		return
	}
	if created {
		logger.Debug("notify: delayed re-check scheduled",
			zap.String("conversation", msg.ConversationID),
			zap.String("recipient", msg.RecipientID),
			zap.String("due_at", strconv.FormatInt(job.DueAt, 10)))
	}
}

func truncatePreview(content string) string {
	if utf8.RuneCountInString(content) <= previewMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewMaxRunes]) + "..."
}
