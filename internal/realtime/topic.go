package realtime

import (
	"strconv"
	"strings"
)

// Topic kinds. A topic is a kind, optionally followed by "." and a key.
const (
	KindConnections   = "connections"
	KindConversations = "conversations"
	KindMessages      = "messages"
	KindComments      = "comments"
	KindFeed          = "feed"
	KindUsers         = "users"
)

// ConnectionsTopic changes whenever a connection record of uid changes.
func ConnectionsTopic(uid string) string { return KindConnections + "." + uid }

// ConversationsTopic changes whenever uid's conversation list changes.
func ConversationsTopic(uid string) string { return KindConversations + "." + uid }

// MessagesTopic changes whenever a message of the conversation changes.
func MessagesTopic(conversationID string) string { return KindMessages + "." + conversationID }

// CommentsTopic changes whenever a comment is added to the post.
func CommentsTopic(postID int64) string {
	return KindComments + "." + strconv.FormatInt(postID, 10)
}

// FeedTopic changes whenever any post changes.
func FeedTopic() string { return KindFeed }

// UsersTopic changes whenever any profile changes.
func UsersTopic() string { return KindUsers }

// KindOf returns the kind part of topic.
func KindOf(topic string) string {
	kind, _, _ := strings.Cut(topic, ".")
	return kind
}
