package notify

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"JProject/tools/errs"
)

// ImmediatePolicy controls the same-turn notification attempt.
type ImmediatePolicy struct {
	Enabled bool `bson:"enabled" json:"enabled"`
	// OnlyFirstMessageInThread restricts immediate sends to the employer's
	// first message in a conversation.
	OnlyFirstMessageInThread bool `bson:"only_first_message_in_thread" json:"only_first_message_in_thread"`
}

// DelayedPolicy controls the unread re-check scheduled after a message.
type DelayedPolicy struct {
	Enabled      bool `bson:"enabled" json:"enabled"`
	DelayMinutes int  `bson:"delay_minutes" json:"delay_minutes"`
}

// ThrottlePolicy caps notifications per conversation+recipient per window.
type ThrottlePolicy struct {
	MaxPerWindow  int `bson:"max_per_window" json:"max_per_window"`
	WindowMinutes int `bson:"window_minutes" json:"window_minutes"`
}

// NotificationPolicy is the operator-managed switchboard for chat
// notifications. It is read fresh on every dispatch decision so changes
// take effect without a restart.
type NotificationPolicy struct {
	Enabled   bool            `bson:"enabled" json:"enabled"`
	Immediate ImmediatePolicy `bson:"immediate" json:"immediate"`
	Delayed   DelayedPolicy   `bson:"delayed" json:"delayed"`
	Throttle  ThrottlePolicy  `bson:"throttle" json:"throttle"`
}

// DefaultPolicy is disabled as a whole but carries usable sub-settings, so
// enabling notifications is a single flag flip for the operator.
func DefaultPolicy() NotificationPolicy {
	return NotificationPolicy{
		Enabled: false,
		Immediate: ImmediatePolicy{
			Enabled:                  true,
			OnlyFirstMessageInThread: false,
		},
		Delayed: DelayedPolicy{
			Enabled:      true,
			DelayMinutes: 30,
		},
		Throttle: ThrottlePolicy{
			MaxPerWindow:  3,
			WindowMinutes: 60,
		},
	}
}

// Validate rejects settings the scheduler cannot honor.
func (p NotificationPolicy) Validate() error {
	if p.Delayed.Enabled && p.Delayed.DelayMinutes < 1 {
		return errs.ErrPolicyInvalid.WithDetail("delayed.delay_minutes must be >= 1")
	}
	if p.Throttle.MaxPerWindow < 1 {
		return errs.ErrPolicyInvalid.WithDetail("throttle.max_per_window must be >= 1")
	}
	if p.Throttle.WindowMinutes < 1 {
		return errs.ErrPolicyInvalid.WithDetail("throttle.window_minutes must be >= 1")
	}
	return nil
}

// PolicyStore supplies the current notification policy.
type PolicyStore interface {
	GetNotificationPolicy(ctx context.Context) (NotificationPolicy, error)
}

const policyDocID = "notification"

// MongoPolicyStore keeps the policy in the admin settings collection,
// one document per concern.
type MongoPolicyStore struct {
	coll *mongo.Collection
}

func NewMongoPolicyStore(db *mongo.Database) *MongoPolicyStore {
	return &MongoPolicyStore{coll: db.Collection("settings")}
}

type policyDoc struct {
	ID     string             `bson:"_id"`
	Policy NotificationPolicy `bson:"policy"`
}

func (s *MongoPolicyStore) GetNotificationPolicy(ctx context.Context) (NotificationPolicy, error) {
	var doc policyDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": policyDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return DefaultPolicy(), nil
	}
	if err != nil {
		return NotificationPolicy{}, errors.Wrap(err, "load notification policy")
	}
	return doc.Policy, nil
}

func (s *MongoPolicyStore) UpdateNotificationPolicy(ctx context.Context, p NotificationPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": policyDocID}, policyDoc{ID: policyDocID, Policy: p}, opts)
	return errors.Wrap(err, "store notification policy")
}
