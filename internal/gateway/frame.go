package gateway

import "encoding/json"

// Client frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
)

// Server frame types.
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
	FramePong     = "pong"
)

// Subscribable topics. Messages and comments need a target id, feed takes
// an optional sport filter.
const (
	TopicConnections   = "connections"
	TopicConversations = "conversations"
	TopicMessages      = "messages"
	TopicComments      = "comments"
	TopicFeed          = "feed"
	TopicUsers         = "users"
)

// ClientFrame is a frame sent by the client.
type ClientFrame struct {
	Type           string `json:"type"`
	ID             string `json:"id,omitempty"`
	Topic          string `json:"topic,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	PostID         string `json:"postId,omitempty"`
	Sport          string `json:"sport,omitempty"`
}

// ServerFrame is a frame sent to the client.
type ServerFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Topic   string `json:"topic,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func encode(f *ServerFrame) ([]byte, error) {
	return json.Marshal(f)
}
