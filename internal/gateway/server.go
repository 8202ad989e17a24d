package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/middleware"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

// ConnectionWatcher streams a user's connections.
type ConnectionWatcher interface {
	Subscribe(ctx context.Context, viewer string, fn func([]model.ConnectionView)) (*realtime.Subscription, error)
}

// MessagingWatcher streams conversations and messages.
type MessagingWatcher interface {
	SubscribeConversations(ctx context.Context, uid string, fn func([]*model.ConversationSummary)) (*realtime.Subscription, error)
	SubscribeMessages(ctx context.Context, key, viewer string, fn func([]*model.Message)) (*realtime.Subscription, error)
}

// FeedWatcher streams the feed and comments.
type FeedWatcher interface {
	SubscribeFeed(ctx context.Context, sport string, fn func([]*model.Post)) (*realtime.Subscription, error)
	SubscribeComments(ctx context.Context, postID int64, fn func([]*model.Comment)) (*realtime.Subscription, error)
}

// UserWatcher streams the directory and tracks presence.
type UserWatcher interface {
	SubscribeUsers(ctx context.Context, viewer string, fn func([]*model.UserProfile)) (*realtime.Subscription, error)
	Attach(ctx context.Context, uid, connID string) error
	Detach(ctx context.Context, uid, connID string) error
	Touch(ctx context.Context, uid, connID string) error
}

// Services are the live queries the gateway exposes.
type Services struct {
	Connections ConnectionWatcher
	Messaging   MessagingWatcher
	Feed        FeedWatcher
	Users       UserWatcher
}

// Server upgrades authenticated requests to WebSockets and serves the
// subscription protocol on them.
type Server struct {
	services Services
	manager  *Manager
	cfg      config.GatewayConfig
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewServer creates a gateway. allowedOrigins follows the CORS settings;
// "*" or an empty list accepts any origin.
func NewServer(services Services, manager *Manager, cfg config.GatewayConfig, allowedOrigins []string, m *metrics.Metrics, logger *slog.Logger) *Server {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = 3 * cfg.HeartbeatInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 64 << 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	anyOrigin := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")
	return &Server{
		services: services,
		manager:  manager,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		metrics: m,
		logger:  logger,
	}
}

// Manager returns the connection registry.
func (s *Server) Manager() *Manager {
	return s.manager
}

// ServeWS handles GET /ws. It must run behind TokenAuth.
// @Summary      Live subscriptions
// @Description  Upgrades to a WebSocket speaking the subscribe/unsubscribe/ping protocol.
// @Tags         live
// @Security     BearerAuth
// @Param        access_token  query  string  false  "token for browsers that cannot set headers"
// @Success      101  {string}  string  "switching protocols"
// @Router       /ws [get]
func (s *Server) ServeWS(c *gin.Context) {
	uid := middleware.GetUserID(c)
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Debug("WebSocket upgrade failed", "uid", uid, "error", err)
		return
	}

	conn := NewConnection(ws, uid, middleware.GetDeviceID(c), middleware.GetPlatform(c), s.cfg.SendBuffer, s.logger)
	s.Serve(conn)
}

// Serve runs conn until it closes. It blocks.
func (s *Server) Serve(conn *Connection) {
	s.manager.Add(conn)
	s.metrics.SocketOpened()
	s.logger.Info("Connection opened", "conn_id", conn.ID(), "uid", conn.UserID(), "platform", conn.Platform())

	if err := s.services.Users.Attach(conn.Context(), conn.UserID(), conn.SessionID()); err != nil {
		s.logger.Warn("Failed to attach presence", "uid", conn.UserID(), "error", err)
	}

	go conn.writeLoop(s.cfg.HeartbeatInterval, s.cfg.WriteTimeout)
	s.readLoop(conn)
	s.cleanup(conn)
}

func (s *Server) cleanup(conn *Connection) {
	conn.Close()
	if !s.manager.Remove(conn.ID()) {
		return
	}
	s.metrics.SocketClosed()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.services.Users.Detach(ctx, conn.UserID(), conn.SessionID()); err != nil {
		s.logger.Warn("Failed to detach presence", "uid", conn.UserID(), "error", err)
	}
	s.logger.Info("Connection closed",
		"conn_id", conn.ID(),
		"uid", conn.UserID(),
		"duration", time.Since(conn.CreateTime()))
}

func (s *Server) readLoop(conn *Connection) {
	ws := conn.ws
	ws.SetReadLimit(s.cfg.MaxMessageBytes)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.HeartbeatTimeout))
	ws.SetPongHandler(func(string) error {
		conn.UpdateActive()
		s.touch(conn)
		return ws.SetReadDeadline(time.Now().Add(s.cfg.HeartbeatTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Debug("Read failed", "conn_id", conn.ID(), "error", err)
			}
			return
		}
		conn.UpdateActive()
		_ = ws.SetReadDeadline(time.Now().Add(s.cfg.HeartbeatTimeout))

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendError(conn, "", apperrors.ErrInvalidParams)
			continue
		}
		s.dispatch(conn, &frame)
	}
}

func (s *Server) dispatch(conn *Connection, frame *ClientFrame) {
	switch frame.Type {
	case FramePing:
		s.touch(conn)
		_ = conn.SendFrame(&ServerFrame{Type: FramePong, ID: frame.ID})
	case FrameSubscribe:
		if frame.ID == "" {
			s.sendError(conn, "", apperrors.ErrInvalidParams)
			return
		}
		sub, err := s.subscribe(conn, frame)
		if err != nil {
			s.logger.Debug("Subscribe rejected", "conn_id", conn.ID(), "topic", frame.Topic, "error", err)
			s.sendError(conn, frame.ID, err)
			return
		}
		conn.AddSubscription(frame.ID, sub)
	case FrameUnsubscribe:
		conn.RemoveSubscription(frame.ID)
	default:
		s.sendError(conn, frame.ID, apperrors.ErrInvalidParams)
	}
}

// subscribe opens the live query named by frame. The first snapshot is
// queued before it returns.
func (s *Server) subscribe(conn *Connection, frame *ClientFrame) (*realtime.Subscription, error) {
	ctx := conn.Context()
	uid := conn.UserID()
	id, topic := frame.ID, frame.Topic

	switch topic {
	case TopicConnections:
		return s.services.Connections.Subscribe(ctx, uid, deliver[[]model.ConnectionView](conn, id, topic))
	case TopicConversations:
		return s.services.Messaging.SubscribeConversations(ctx, uid, deliver[[]*model.ConversationSummary](conn, id, topic))
	case TopicMessages:
		if frame.ConversationID == "" {
			return nil, apperrors.ErrInvalidParams
		}
		return s.services.Messaging.SubscribeMessages(ctx, frame.ConversationID, uid, deliver[[]*model.Message](conn, id, topic))
	case TopicComments:
		postID, err := strconv.ParseInt(frame.PostID, 10, 64)
		if err != nil {
			return nil, apperrors.ErrInvalidParams
		}
		return s.services.Feed.SubscribeComments(ctx, postID, deliver[[]*model.Comment](conn, id, topic))
	case TopicFeed:
		send := deliver[[]model.PostView](conn, id, topic)
		return s.services.Feed.SubscribeFeed(ctx, frame.Sport, func(posts []*model.Post) {
			send(model.ViewPosts(posts, uid))
		})
	case TopicUsers:
		return s.services.Users.SubscribeUsers(ctx, uid, deliver[[]*model.UserProfile](conn, id, topic))
	default:
		return nil, apperrors.ErrInvalidParams
	}
}

// touch keeps conn's presence alive. Browsers answer protocol pings without
// sending app-level ping frames, so both paths land here.
func (s *Server) touch(conn *Connection) {
	if err := s.services.Users.Touch(conn.Context(), conn.UserID(), conn.SessionID()); err != nil {
		s.logger.Debug("Failed to touch presence", "uid", conn.UserID(), "error", err)
	}
}

func deliver[T any](conn *Connection, id, topic string) func(T) {
	return func(v T) {
		if err := conn.SendFrame(&ServerFrame{Type: FrameSnapshot, ID: id, Topic: topic, Data: v}); err != nil {
			conn.logger.Debug("Snapshot dropped", "sub_id", id, "topic", topic, "error", err)
		}
	}
}

func (s *Server) sendError(conn *Connection, id string, err error) {
	_ = conn.SendFrame(&ServerFrame{
		Type:    FrameError,
		ID:      id,
		Code:    apperrors.GetCode(err),
		Message: apperrors.GetMessage(err),
	})
}

// Shutdown closes every connection.
func (s *Server) Shutdown() {
	s.manager.CloseAll()
}
