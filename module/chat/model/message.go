package model

import "time"

type MessageModel struct {
	MessageID      string    `bson:"message_id" json:"message_id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	RecipientID    string    `bson:"recipient_id" json:"recipient_id"`
	Content        string    `bson:"content" json:"content"`
	Read           bool      `bson:"read" json:"read"`
	SenderSeq      int64     `bson:"sender_seq" json:"sender_seq"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
