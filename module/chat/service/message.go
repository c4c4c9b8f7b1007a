package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"JProject/module/chat/message"
	chatmodel "JProject/module/chat/model"
	"JProject/module/notify"
	"JProject/tools/ids"
	"JProject/tools/safe"
)

const dispatchTimeout = 15 * time.Second

// MessageService is the chat message-creation path. Persisting the message
// is the caller's operation; the notification dispatch runs detached and
// its outcome never reaches the caller.
type MessageService struct {
	store      *message.Store
	dispatcher *notify.Dispatcher
}

func NewMessageService(store *message.Store, dispatcher *notify.Dispatcher) *MessageService {
	return &MessageService{store: store, dispatcher: dispatcher}
}

// SendMessage persists a message into the conversation and fires the
// notification dispatch in the background.
func (s *MessageService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*chatmodel.MessageModel, error) {
	if content == "" {
		return nil, errors.New("empty message content")
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errors.Errorf("conversation %s not found", conversationID)
	}
	recipientID := conv.Other(senderID)
	if recipientID == "" {
		return nil, errors.Errorf("user %s is not a participant of %s", senderID, conversationID)
	}

	m := &chatmodel.MessageModel{
		MessageID:      ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		Read:           false,
		CreatedAt:      time.Now(),
	}
	seq, err := s.store.InsertMessage(ctx, m)
	if err != nil {
		return nil, err
	}

	th := notify.Thread{
		ConversationID: conv.ConversationID,
		Subject:        conv.JobTitle,
		Employer:       notify.Participant{UserID: conv.EmployerID, Name: conv.EmployerName, Email: conv.EmployerEmail},
		Seeker:         notify.Participant{UserID: conv.SeekerID, Name: conv.SeekerName, Email: conv.SeekerEmail},
	}
	nmsg := notify.Message{
		ConversationID: m.ConversationID,
		MessageID:      m.MessageID,
		SenderID:       m.SenderID,
		RecipientID:    m.RecipientID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		SenderSeq:      seq,
	}
	// fire and continue: the caller's response does not wait on this
	safe.Go("notify-dispatch", func() {
		dctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		s.dispatcher.Dispatch(dctx, nmsg, th)
	})

	return m, nil
}

// ReadConversation marks everything addressed to userID as read.
func (s *MessageService) ReadConversation(ctx context.Context, conversationID, userID string) error {
	return s.store.MarkConversationRead(ctx, conversationID, userID)
}
