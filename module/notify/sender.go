package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// TemplateKind names an outbound notification template. Rendering, retries
// and the provider API live with the consumer of the events.
type TemplateKind string

const (
	// TemplateNewMessage carries a preview of a just-arrived message.
	TemplateNewMessage TemplateKind = "chat_new_message"
	// TemplateUnreadReminder is the generic "you have unread messages"
	// follow-up; it carries no preview because newer messages may have
	// arrived since the job was scheduled.
	TemplateUnreadReminder TemplateKind = "chat_unread_reminder"
)

// Contact is the resolved recipient of one notification.
type Contact struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Sender performs the actual out-of-band notification.
type Sender interface {
	Send(ctx context.Context, to Contact, kind TemplateKind, params map[string]string) error
}

// notifyEvent is the wire shape published for the email worker.
type notifyEvent struct {
	Recipient Contact           `json:"recipient"`
	Template  TemplateKind      `json:"template"`
	Params    map[string]string `json:"params"`
	SentAt    int64             `json:"sent_at"`
}

// KafkaSender publishes notification events keyed by recipient, so events
// for one user land on one partition in order.
type KafkaSender struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSender(producer sarama.SyncProducer, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic}
}

func (k *KafkaSender) Send(_ context.Context, to Contact, kind TemplateKind, params map[string]string) error {
	if to.Email == "" {
		return errors.New("recipient has no email on file")
	}
	b, err := json.Marshal(notifyEvent{
		Recipient: to,
		Template:  kind,
		Params:    params,
		SentAt:    time.Now().Unix(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal notify event")
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(to.UserID),
		Value: sarama.ByteEncoder(b),
	})
	return errors.Wrap(err, "publish notify event")
}
