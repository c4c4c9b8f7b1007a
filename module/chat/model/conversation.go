package model

import "time"

// Conversation is a job-application thread between an employer and a
// seeker. Display names and emails are snapshots taken when the thread is
// opened; account data itself lives with the accounts service.
type Conversation struct {
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	JobID          string    `bson:"job_id" json:"job_id"`
	JobTitle       string    `bson:"job_title" json:"job_title"`
	EmployerID     string    `bson:"employer_id" json:"employer_id"`
	EmployerName   string    `bson:"employer_name" json:"employer_name"`
	EmployerEmail  string    `bson:"employer_email" json:"employer_email"`
	SeekerID       string    `bson:"seeker_id" json:"seeker_id"`
	SeekerName     string    `bson:"seeker_name" json:"seeker_name"`
	SeekerEmail    string    `bson:"seeker_email" json:"seeker_email"`
	MessageCount   int64     `bson:"message_count" json:"message_count"`
	// EmployerMsgCount backs the "first message in thread" policy rule.
	EmployerMsgCount int64     `bson:"employer_msg_count" json:"employer_msg_count"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// Other returns the participant opposite to userID, empty if userID is not
// a participant.
func (c *Conversation) Other(userID string) string {
	switch userID {
	case c.EmployerID:
		return c.SeekerID
	case c.SeekerID:
		return c.EmployerID
	}
	return ""
}
