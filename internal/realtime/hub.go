package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/workerpool"
)

// Notifier announces that the data behind some topics changed.
type Notifier interface {
	Publish(ctx context.Context, topics ...string) error
}

// Hub keeps the live subscriptions of this process and re-runs their
// queries when their topic changes.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[uint64]*Subscription
	nextID  atomic.Uint64
	pool    *workerpool.Pool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHub creates a hub that runs refreshes on pool.
func NewHub(pool *workerpool.Pool, m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:  make(map[string]map[uint64]*Subscription),
		pool:    pool,
		metrics: m,
		logger:  logger,
	}
}

// Publish notifies local subscribers directly. It lets a single process run
// without a message bus.
func (h *Hub) Publish(_ context.Context, topics ...string) error {
	for _, topic := range topics {
		h.Notify(topic)
	}
	return nil
}

// Notify schedules a refresh of every subscription on topic. Refreshes that
// are already queued absorb the notification.
func (h *Hub) Notify(topic string) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.topics[topic]))
	for _, s := range h.topics[topic] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.schedule()
	}
}

// Count returns the number of open subscriptions on topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) add(s *Subscription) {
	h.mu.Lock()
	subs, ok := h.topics[s.topic]
	if !ok {
		subs = make(map[uint64]*Subscription)
		h.topics[s.topic] = subs
	}
	subs[s.id] = s
	h.mu.Unlock()
	h.metrics.SubscriptionOpened(KindOf(s.topic))
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	if subs, ok := h.topics[s.topic]; ok {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(h.topics, s.topic)
		}
	}
	h.mu.Unlock()
	h.metrics.SubscriptionClosed(KindOf(s.topic))
}

// Subscription is a standing query. It delivers a fresh snapshot after
// every change of its topic until closed.
type Subscription struct {
	id      uint64
	topic   string
	hub     *Hub
	ctx     context.Context
	cancel  context.CancelFunc
	refresh func(ctx context.Context)

	// mu serializes loads and deliveries so snapshots arrive in order
	mu        sync.Mutex
	pending   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

// Topic returns the topic the subscription listens to.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close releases the subscription. It is idempotent and safe to call from
// a delivery callback.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.hub.remove(s)
	})
}

// Closed reports whether Close has run.
func (s *Subscription) Closed() bool {
	return s.closed.Load()
}

func (s *Subscription) schedule() {
	if s.closed.Load() {
		return
	}
	if !s.pending.CompareAndSwap(false, true) {
		return
	}
	if !s.hub.pool.Submit(s.run) {
		s.pending.Store(false)
	}
}

func (s *Subscription) run() {
	// cleared before loading so a change landing during the load schedules
	// another pass
	s.pending.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}
	s.refresh(s.ctx)
}

// Watch opens a subscription on topic. It runs load once, delivers the
// result and then re-runs load after every change of topic. A failing first
// load is returned and leaves nothing behind. The subscription closes when
// ctx ends.
func Watch[T any](ctx context.Context, h *Hub, topic string, load func(context.Context) (T, error), deliver func(T)) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		id:     h.nextID.Add(1),
		topic:  topic,
		hub:    h,
		ctx:    subCtx,
		cancel: cancel,
	}
	kind := KindOf(topic)
	s.refresh = func(ctx context.Context) {
		v, err := load(ctx)
		h.metrics.RecordSnapshot(kind, err)
		if err != nil {
			if ctx.Err() == nil {
				h.logger.Warn("Snapshot refresh failed", "topic", topic, "error", err)
			}
			return
		}
		if s.closed.Load() {
			return
		}
		deliver(v)
	}

	// registered before the first load so no change slips between the two
	h.add(s)
	context.AfterFunc(subCtx, s.Close)

	s.mu.Lock()
	v, err := load(subCtx)
	h.metrics.RecordSnapshot(kind, err)
	if err != nil {
		s.mu.Unlock()
		s.Close()
		return nil, err
	}
	deliver(v)
	s.mu.Unlock()
	return s, nil
}
