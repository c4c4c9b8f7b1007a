package notify

import (
	"context"
	"time"
)

// Message is the dispatcher's view of a newly persisted chat message.
type Message struct {
	ConversationID string
	MessageID      string
	SenderID       string
	RecipientID    string
	Content        string
	CreatedAt      time.Time
	// SenderSeq is the 1-based count of the sender's messages in this
	// conversation; 1 marks the sender's first message in the thread.
	SenderSeq int64
}

// Participant is one side of a conversation, with the display and contact
// data needed to compose a notification.
type Participant struct {
	UserID string
	Name   string
	Email  string
}

// Thread describes a conversation and its two parties. Marketplace chat is
// asymmetric: the employer opens the thread about a job, the seeker is the
// only party that ever gets notified.
type Thread struct {
	ConversationID string
	Subject        string
	Employer       Participant
	Seeker         Participant
}

// PresenceOracle answers whether a user currently holds a live connection.
type PresenceOracle interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// MessageStore is the poller's read-side view of the chat store.
type MessageStore interface {
	CountUnread(ctx context.Context, conversationID, recipientID string) (int64, error)
	Thread(ctx context.Context, conversationID string) (*Thread, error)
}
