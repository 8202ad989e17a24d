package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// ConversationHandler serves direct messaging.
type ConversationHandler struct {
	messagingService MessagingService
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(messagingService MessagingService) *ConversationHandler {
	return &ConversationHandler{messagingService: messagingService}
}

// OpenRequest names the peer of a conversation.
type OpenRequest struct {
	PeerID string `json:"peerId" binding:"required"`
}

// SendRequest carries message text.
type SendRequest struct {
	Text string `json:"text"`
}

// List returns the caller's conversations, most recent first
// @Summary      List conversations
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ConversationSummary}
// @Router       /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	list, err := h.messagingService.ListConversations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, list)
}

// Open returns the conversation with a peer, creating it if needed
// @Summary      Open conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  OpenRequest  true  "peer"
// @Success      200  {object}  response.Response{data=object{conversation_id=string}}
// @Failure      200  {object}  response.Response
// @Router       /conversations [post]
func (h *ConversationHandler) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	id, err := h.messagingService.GetOrCreateConversation(c.Request.Context(), middleware.GetUserID(c), req.PeerID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"conversation_id": id})
}

// Messages returns the messages of a conversation, oldest first
// @Summary      List messages
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "conversation id"
// @Success      200  {object}  response.Response{data=[]model.Message}
// @Failure      200  {object}  response.Response
// @Router       /conversations/{id}/messages [get]
func (h *ConversationHandler) Messages(c *gin.Context) {
	msgs, err := h.messagingService.ListMessages(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, msgs)
}

// Send appends a message
// @Summary      Send message
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string       true  "conversation id"
// @Param        request  body  SendRequest  true  "message"
// @Success      200  {object}  response.Response{data=model.Message}
// @Failure      200  {object}  response.Response
// @Router       /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}

	msg, err := h.messagingService.SendMessage(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, msg)
}

// Read marks the conversation's incoming messages read
// @Summary      Mark read
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "conversation id"
// @Success      200  {object}  response.Response{data=object{marked=int}}
// @Failure      200  {object}  response.Response
// @Router       /conversations/{id}/read [post]
func (h *ConversationHandler) Read(c *gin.Context) {
	n, err := h.messagingService.MarkRead(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"marked": n})
}
