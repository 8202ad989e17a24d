package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateDisabled     = "disabled"
)

const pingTimeout = 2 * time.Second

// Status reports each backend.
type Status struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	NATS     string `json:"nats"`
}

// Healthy reports whether the required backends are reachable. NATS is
// optional and only counts when configured.
func (s *Status) Healthy() bool {
	return s.Database == StateConnected &&
		s.Redis == StateConnected &&
		s.NATS != StateDisconnected
}

// PingFunc checks one backend.
type PingFunc func(ctx context.Context) error

// Checker probes the backends.
type Checker struct {
	database PingFunc
	redis    PingFunc
	nats     func() bool
}

// NewChecker creates a checker. nc may be nil when cross-instance fan-out
// is disabled.
func NewChecker(db *pgxpool.Pool, redisClient *redis.Client, nc *nats.Conn) *Checker {
	c := &Checker{
		database: db.Ping,
		redis: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if nc != nil {
		c.nats = nc.IsConnected
	}
	return c
}

// NewCheckerFuncs builds a checker from probe functions.
func NewCheckerFuncs(databasePing, redisPing PingFunc, natsUp func() bool) *Checker {
	return &Checker{database: databasePing, redis: redisPing, nats: natsUp}
}

// Check probes every backend.
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Database: ping(ctx, h.database),
		Redis:    ping(ctx, h.redis),
		NATS:     StateDisabled,
	}
	if h.nats != nil {
		status.NATS = StateDisconnected
		if h.nats() {
			status.NATS = StateConnected
		}
	}
	return status
}

func ping(ctx context.Context, fn PingFunc) string {
	if fn == nil {
		return StateDisconnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return StateDisconnected
	}
	return StateConnected
}

// IsHealthy reports whether the required backends are reachable.
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP writes the status, with 503 when unhealthy.
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
