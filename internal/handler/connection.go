package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/pkg/response"
)

// ConnectionHandler serves connection requests between users.
type ConnectionHandler struct {
	connectionService ConnectionService
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(connectionService ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// List returns the caller's connections and pending requests
// @Summary      List connections
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ConnectionView}
// @Router       /connections [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	views, err := h.connectionService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, views)
}

// Status returns the relation between the caller and another user
// @Summary      Connection status
// @Description  One of none, sent, incoming or connected.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "other user id"
// @Success      200  {object}  response.Response{data=object{status=string}}
// @Router       /connections/{uid}/status [get]
func (h *ConnectionHandler) Status(c *gin.Context) {
	status, err := h.connectionService.Status(c.Request.Context(), middleware.GetUserID(c), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// Statuses returns the caller's relation to every user they have a record with
// @Summary      Connection statuses
// @Description  Maps user id to sent, incoming or connected. Absent users read as none.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=map[string]string}
// @Router       /connections/statuses [get]
func (h *ConnectionHandler) Statuses(c *gin.Context) {
	statuses, err := h.connectionService.Statuses(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, statuses)
}

// Send sends a connection request
// @Summary      Send connection request
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "recipient user id"
// @Success      200  {object}  response.Response{data=model.Connection}
// @Failure      200  {object}  response.Response
// @Router       /connections/{uid} [post]
func (h *ConnectionHandler) Send(c *gin.Context) {
	conn, err := h.connectionService.SendRequest(c.Request.Context(), middleware.GetUserID(c), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, conn)
}

// Accept accepts a pending request from another user
// @Summary      Accept connection request
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "requester user id"
// @Success      200  {object}  response.Response{data=model.Connection}
// @Failure      200  {object}  response.Response
// @Router       /connections/{uid}/accept [post]
func (h *ConnectionHandler) Accept(c *gin.Context) {
	conn, err := h.connectionService.Accept(c.Request.Context(), middleware.GetUserID(c), c.Param("uid"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, conn)
}

// Remove withdraws, declines or removes a connection
// @Summary      Remove connection
// @Description  Succeeds even when there is nothing to remove.
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path  string  true  "other user id"
// @Success      200  {object}  response.Response
// @Router       /connections/{uid} [delete]
func (h *ConnectionHandler) Remove(c *gin.Context) {
	if err := h.connectionService.Remove(c.Request.Context(), middleware.GetUserID(c), c.Param("uid")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
