package message

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "JProject/module/chat/model"
	"JProject/module/notify"
)

type Store struct {
	ConvColl *mongo.Collection // conversation
	MsgColl  *mongo.Collection // message
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		ConvColl: db.Collection("conversation"),
		MsgColl:  db.Collection("message"),
	}
}

func (s *Store) CreateConversation(ctx context.Context, c *chatmodel.Conversation) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.ConvColl.InsertOne(ctx, c)
	return errors.Wrap(err, "insert conversation")
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (*chatmodel.Conversation, error) {
	var c chatmodel.Conversation
	err := s.ConvColl.FindOne(ctx, bson.M{"conversation_id": conversationID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find conversation")
	}
	return &c, nil
}

// InsertMessage persists the message and bumps the conversation counters.
// The returned seq is the 1-based count of the sender's messages in the
// thread (only tracked for the employer side, which is the side the
// notification policy cares about).
func (s *Store) InsertMessage(ctx context.Context, m *chatmodel.MessageModel) (int64, error) {
	conv, err := s.GetConversation(ctx, m.ConversationID)
	if err != nil {
		return 0, err
	}
	if conv == nil {
		return 0, errors.Errorf("conversation %s not found", m.ConversationID)
	}

	inc := bson.M{"message_count": 1}
	if m.SenderID == conv.EmployerID {
		inc["employer_msg_count"] = 1
	}
	var updated chatmodel.Conversation
	err = s.ConvColl.FindOneAndUpdate(ctx,
		bson.M{"conversation_id": m.ConversationID},
		bson.M{"$inc": inc, "$set": bson.M{"updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return 0, errors.Wrap(err, "bump conversation counters")
	}

	seq := updated.MessageCount
	if m.SenderID == conv.EmployerID {
		seq = updated.EmployerMsgCount
	}
	m.SenderSeq = seq

	if _, err := s.MsgColl.InsertOne(ctx, m); err != nil {
		return 0, errors.Wrap(err, "insert message")
	}
	return seq, nil
}

// CountUnread counts messages addressed to recipientID in the conversation
// that are still unread.
func (s *Store) CountUnread(ctx context.Context, conversationID, recipientID string) (int64, error) {
	n, err := s.MsgColl.CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"recipient_id":    recipientID,
		"read":            false,
	})
	return n, errors.Wrap(err, "count unread")
}

// MarkConversationRead flips every unread message addressed to userID.
func (s *Store) MarkConversationRead(ctx context.Context, conversationID, userID string) error {
	_, err := s.MsgColl.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "recipient_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return errors.Wrap(err, "mark conversation read")
}

// Thread resolves the conversation participants for notification composing.
func (s *Store) Thread(ctx context.Context, conversationID string) (*notify.Thread, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errors.Errorf("conversation %s not found", conversationID)
	}
	return &notify.Thread{
		ConversationID: conv.ConversationID,
		Subject:        conv.JobTitle,
		Employer: notify.Participant{
			UserID: conv.EmployerID,
			Name:   conv.EmployerName,
			Email:  conv.EmployerEmail,
		},
		Seeker: notify.Participant{
			UserID: conv.SeekerID,
			Name:   conv.SeekerName,
			Email:  conv.SeekerEmail,
		},
	}, nil
}
