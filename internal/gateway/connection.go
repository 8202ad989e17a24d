package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

var connIDCounter int64

// Connection is one live WebSocket of a signed-in user. It owns the
// subscriptions opened through it.
type Connection struct {
	id         int64
	sessionID  string
	userID     string
	deviceID   string
	platform   string
	ws         *websocket.Conn
	logger     *slog.Logger
	writeChan  chan []byte
	closeChan  chan struct{}
	closeOnce  sync.Once
	createTime time.Time
	lastActive atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]*realtime.Subscription
}

// NewConnection wraps an upgraded socket. Subscriptions opened with
// Context() end when the connection closes.
func NewConnection(ws *websocket.Conn, userID, deviceID, platform string, sendBuffer int, logger *slog.Logger) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:         atomic.AddInt64(&connIDCounter, 1),
		sessionID:  uuid.NewString(),
		userID:     userID,
		deviceID:   deviceID,
		platform:   platform,
		ws:         ws,
		writeChan:  make(chan []byte, sendBuffer),
		closeChan:  make(chan struct{}),
		createTime: time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		subs:       make(map[string]*realtime.Subscription),
	}
	c.logger = logger.With("conn_id", c.id, "uid", userID)
	c.UpdateActive()
	return c
}

func (c *Connection) ID() int64 {
	return c.id
}

// SessionID names the connection across instances.
func (c *Connection) SessionID() string {
	return c.sessionID
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) DeviceID() string {
	return c.deviceID
}

func (c *Connection) Platform() string {
	return c.platform
}

// Context is cancelled when the connection closes.
func (c *Connection) Context() context.Context {
	return c.ctx
}

// Send queues data for the write loop. Snapshots are delivered from the
// realtime workers, so a client that stops reading is dropped rather than
// allowed to block them.
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.writeChan <- data:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
		c.logger.Warn("Send buffer full, closing connection")
		c.Close()
		return ErrSendBufferFull
	}
}

// SendFrame encodes and queues f.
func (c *Connection) SendFrame(f *ServerFrame) error {
	data, err := encode(f)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// writeLoop is the only writer of the socket. It also pings the client
// every pingInterval.
func (c *Connection) writeLoop(pingInterval, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.writeChan:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write frame", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Failed to write ping", "error", err)
				c.Close()
				return
			}
		case <-c.closeChan:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// AddSubscription registers sub under the client's id, replacing and
// closing any previous one with that id.
func (c *Connection) AddSubscription(id string, sub *realtime.Subscription) {
	c.mu.Lock()
	prev := c.subs[id]
	c.subs[id] = sub
	c.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// RemoveSubscription closes the subscription with id. It reports whether
// one existed.
func (c *Connection) RemoveSubscription(id string) bool {
	c.mu.Lock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if ok {
		sub.Close()
	}
	return ok
}

// SubscriptionCount returns the number of open subscriptions.
func (c *Connection) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close ends the connection and every subscription it owns. It is
// idempotent.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		c.cancel()

		c.mu.Lock()
		subs := c.subs
		c.subs = make(map[string]*realtime.Subscription)
		c.mu.Unlock()
		for _, sub := range subs {
			sub.Close()
		}
	})
}

// Done is closed once Close has run.
func (c *Connection) Done() <-chan struct{} {
	return c.closeChan
}

func (c *Connection) UpdateActive() {
	c.lastActive.Store(time.Now().UnixNano())
}

func (c *Connection) LastActiveTime() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Connection) CreateTime() time.Time {
	return c.createTime
}
