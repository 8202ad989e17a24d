package service

import (
	"context"
	"log/slog"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

// ConnectionService runs the connection lifecycle between two users.
// Every precondition is checked here, not by the caller.
type ConnectionService struct {
	conns   ConnectionStore
	users   UserStore
	hub     *realtime.Hub
	changes changes
	metrics *metrics.Metrics
}

// NewConnectionService creates a connection service.
func NewConnectionService(conns ConnectionStore, users UserStore, hub *realtime.Hub, notifier realtime.Notifier, m *metrics.Metrics) *ConnectionService {
	return &ConnectionService{
		conns:   conns,
		users:   users,
		hub:     hub,
		changes: newChanges(notifier, slog.Default()),
		metrics: m,
	}
}

func checkPair(a, b string) error {
	if blank(a) || blank(b) {
		return apperrors.ErrInvalidParams
	}
	if a == b {
		return apperrors.ErrCannotConnectSelf
	}
	return nil
}

// SendRequest creates a pending record from -> to. It fails with
// ErrConnectionExists when the pair already has a record in any state.
func (s *ConnectionService) SendRequest(ctx context.Context, from, to string) (*model.Connection, error) {
	conn, err := s.sendRequest(ctx, from, to)
	s.metrics.RecordMutation("connection.send", err)
	return conn, err
}

func (s *ConnectionService) sendRequest(ctx context.Context, from, to string) (*model.Connection, error) {
	if err := checkPair(from, to); err != nil {
		return nil, err
	}

	// the target must be a known user
	if _, err := s.users.GetByUID(ctx, to); err != nil {
		return nil, err
	}

	conn := model.NewConnectionRequest(from, to)
	if err := s.conns.CreateIfAbsent(ctx, conn); err != nil {
		return nil, err
	}

	s.changes.publish(ctx, realtime.ConnectionsTopic(from), realtime.ConnectionsTopic(to))
	return conn, nil
}

// Accept turns the pending request between actor and other into a
// connection. Only the recipient of the request may accept it.
func (s *ConnectionService) Accept(ctx context.Context, actor, other string) (*model.Connection, error) {
	conn, err := s.accept(ctx, actor, other)
	s.metrics.RecordMutation("connection.accept", err)
	return conn, err
}

func (s *ConnectionService) accept(ctx context.Context, actor, other string) (*model.Connection, error) {
	if err := checkPair(actor, other); err != nil {
		return nil, err
	}

	id := model.PairKey(actor, other)
	current, err := s.conns.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.ConnectionAccepted {
		return nil, apperrors.ErrAlreadyConnected
	}
	if current.RequestedBy == actor {
		return nil, apperrors.ErrNotRequestRecipient
	}

	conn, err := s.conns.Accept(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	s.changes.publish(ctx, realtime.ConnectionsTopic(actor), realtime.ConnectionsTopic(other))
	return conn, nil
}

// Remove deletes the record between actor and other, whatever its state.
// It serves withdrawing, ignoring and unfriending alike, and succeeds when
// there is nothing to delete.
func (s *ConnectionService) Remove(ctx context.Context, actor, other string) error {
	err := s.remove(ctx, actor, other)
	s.metrics.RecordMutation("connection.remove", err)
	return err
}

func (s *ConnectionService) remove(ctx context.Context, actor, other string) error {
	if err := checkPair(actor, other); err != nil {
		return err
	}
	deleted, err := s.conns.Delete(ctx, model.PairKey(actor, other))
	if err != nil {
		return err
	}
	if deleted {
		s.changes.publish(ctx, realtime.ConnectionsTopic(actor), realtime.ConnectionsTopic(other))
	}
	return nil
}

// Status returns the relation between viewer and other as seen by viewer.
func (s *ConnectionService) Status(ctx context.Context, viewer, other string) (model.RelationStatus, error) {
	if err := checkPair(viewer, other); err != nil {
		return model.RelationNone, err
	}
	conn, err := s.conns.Get(ctx, model.PairKey(viewer, other))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConnectionNotFound) {
			return model.RelationNone, nil
		}
		return model.RelationNone, err
	}
	return conn.StatusFor(viewer), nil
}

// List returns every record viewer takes part in, annotated for viewer.
func (s *ConnectionService) List(ctx context.Context, viewer string) ([]model.ConnectionView, error) {
	if blank(viewer) {
		return nil, apperrors.ErrInvalidParams
	}
	conns, err := s.conns.ListForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return model.ViewsFor(conns, viewer), nil
}

// Statuses maps every counterpart of viewer to the relation viewer sees.
// Users without a record are absent and read as none.
func (s *ConnectionService) Statuses(ctx context.Context, viewer string) (map[string]model.RelationStatus, error) {
	if blank(viewer) {
		return nil, apperrors.ErrInvalidParams
	}
	conns, err := s.conns.ListForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return model.StatusMap(conns, viewer), nil
}

// Subscribe delivers List snapshots to fn until ctx ends or the
// subscription is closed.
func (s *ConnectionService) Subscribe(ctx context.Context, viewer string, fn func([]model.ConnectionView)) (*realtime.Subscription, error) {
	if blank(viewer) {
		return nil, apperrors.ErrInvalidParams
	}
	return realtime.Watch(ctx, s.hub, realtime.ConnectionsTopic(viewer),
		func(ctx context.Context) ([]model.ConnectionView, error) {
			return s.List(ctx, viewer)
		}, fn)
}
