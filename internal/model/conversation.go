package model

import "time"

// Conversation is the single thread kept for a pair of users.
type Conversation struct {
	ID           string    `json:"id" db:"id"`
	Participants [2]string `json:"participants"`
	LastMessage  string    `json:"last_message" db:"last_message"`
	LastTime     time.Time `json:"last_time" db:"last_time"`
	CreateAt     time.Time `json:"create_at" db:"create_at"`
}

// NewConversation builds the conversation record for a and b.
func NewConversation(a, b string) *Conversation {
	return &Conversation{
		ID:           PairKey(a, b),
		Participants: SortedPair(a, b),
	}
}

// HasParticipant reports whether uid takes part in the conversation.
func (c *Conversation) HasParticipant(uid string) bool {
	return c.Participants[0] == uid || c.Participants[1] == uid
}

// Other returns the participant that is not uid.
func (c *Conversation) Other(uid string) string {
	if c.Participants[0] == uid {
		return c.Participants[1]
	}
	return c.Participants[0]
}

// ConversationSummary is a conversation list entry for one viewer.
type ConversationSummary struct {
	*Conversation
	OtherUID    string `json:"other_uid"`
	UnreadCount int    `json:"unread_count"`
}

// Message is one entry of a conversation. Only Read changes after creation.
type Message struct {
	ID             int64     `json:"id,string" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	Text           string    `json:"text" db:"text"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
	Read           bool      `json:"read" db:"read"`
}
