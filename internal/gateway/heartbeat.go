package gateway

import (
	"context"
	"log/slog"
	"time"
)

// HeartbeatChecker closes connections that went quiet.
type HeartbeatChecker struct {
	manager       *Manager
	timeout       time.Duration
	checkInterval time.Duration
	logger        *slog.Logger
	onTimeout     func(conn *Connection)
}

// NewHeartbeatChecker creates a checker. onTimeout may be nil.
func NewHeartbeatChecker(manager *Manager, timeout, checkInterval time.Duration, logger *slog.Logger, onTimeout func(conn *Connection)) *HeartbeatChecker {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HeartbeatChecker{
		manager:       manager,
		timeout:       timeout,
		checkInterval: checkInterval,
		logger:        logger,
		onTimeout:     onTimeout,
	}
}

// Start runs until ctx ends. Call it in a goroutine.
func (h *HeartbeatChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	h.logger.Info("Heartbeat checker started",
		"timeout", h.timeout,
		"check_interval", h.checkInterval)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Heartbeat checker stopped")
			return
		case <-ticker.C:
			h.checkConnections(time.Now())
		}
	}
}

func (h *HeartbeatChecker) checkConnections(now time.Time) int {
	conns := h.manager.GetAllConnections()
	timeoutCount := 0

	for _, conn := range conns {
		lastActive := conn.LastActiveTime()
		if now.Sub(lastActive) <= h.timeout {
			continue
		}
		timeoutCount++
		h.logger.Debug("Connection heartbeat timeout",
			"conn_id", conn.ID(),
			"uid", conn.UserID(),
			"last_active", lastActive)

		if h.onTimeout != nil {
			h.onTimeout(conn)
		}
		// the read loop notices the closed socket and unregisters
		conn.Close()
	}

	if timeoutCount > 0 {
		h.logger.Info("Heartbeat check completed",
			"total", len(conns),
			"timeout", timeoutCount)
	}
	return timeoutCount
}
