package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/abhishek-bajpai1/athletecho/internal/metrics"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/realtime"
	"github.com/abhishek-bajpai1/athletecho/internal/storage"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
)

const avatarFolder = "avatars"

// UserService is the user directory: profiles and presence.
type UserService struct {
	users    UserStore
	presence PresenceStore
	images   ImageStore
	hub      *realtime.Hub
	changes  changes
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewUserService creates a user service. images may be nil.
func NewUserService(users UserStore, presence PresenceStore, images ImageStore, hub *realtime.Hub, notifier realtime.Notifier, m *metrics.Metrics) *UserService {
	return &UserService{
		users:    users,
		presence: presence,
		images:   images,
		hub:      hub,
		changes:  newChanges(notifier, slog.Default()),
		metrics:  m,
		logger:   slog.Default(),
	}
}

// SignIn creates or refreshes the profile of a signed-in identity and
// marks the user online.
func (s *UserService) SignIn(ctx context.Context, id *model.Identity) (*model.UserProfile, error) {
	if id == nil || !model.ValidUID(id.UID) {
		return nil, apperrors.ErrInvalidParams
	}
	identity := *id
	if blank(identity.DisplayName) {
		identity.DisplayName = model.DefaultDisplayName
	}

	profile, err := s.users.UpsertSignIn(ctx, &identity)
	s.metrics.RecordMutation("user.sign_in", err)
	if err != nil {
		return nil, err
	}
	s.changes.publish(ctx, realtime.UsersTopic())
	return profile, nil
}

// SignOut marks the user offline.
func (s *UserService) SignOut(ctx context.Context, uid string) error {
	return s.setPresence(ctx, uid, false)
}

// GetProfile returns one profile.
func (s *UserService) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if blank(uid) {
		return nil, apperrors.ErrInvalidParams
	}
	return s.users.GetByUID(ctx, uid)
}

// UpdateProfile applies the set fields of update to uid's profile.
func (s *UserService) UpdateProfile(ctx context.Context, uid string, update *model.ProfileUpdate) (*model.UserProfile, error) {
	profile, err := s.updateProfile(ctx, uid, update)
	s.metrics.RecordMutation("user.update", err)
	return profile, err
}

func (s *UserService) updateProfile(ctx context.Context, uid string, update *model.ProfileUpdate) (*model.UserProfile, error) {
	if blank(uid) || update == nil {
		return nil, apperrors.ErrInvalidParams
	}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return nil, apperrors.ErrInvalidParams
		}
		update.DisplayName = &name
	}

	profile, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	update.Apply(profile)
	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.changes.publish(ctx, realtime.UsersTopic())
	return profile, nil
}

// UploadAvatar stores img and makes it uid's profile picture.
func (s *UserService) UploadAvatar(ctx context.Context, uid string, img *storage.Image) (string, error) {
	url, err := s.uploadAvatar(ctx, uid, img)
	s.metrics.RecordMutation("user.avatar", err)
	return url, err
}

func (s *UserService) uploadAvatar(ctx context.Context, uid string, img *storage.Image) (string, error) {
	if blank(uid) || img == nil {
		return "", apperrors.ErrInvalidParams
	}
	if s.images == nil {
		return "", apperrors.ErrImageUploadFailed.Wrap(storage.ErrNotConfigured)
	}
	url, err := s.images.Upload(ctx, avatarFolder, img)
	if err != nil {
		return "", apperrors.ErrImageUploadFailed.Wrap(err)
	}
	if err := s.users.UpdatePhoto(ctx, uid, url); err != nil {
		return "", err
	}
	s.changes.publish(ctx, realtime.UsersTopic())
	return url, nil
}

// ListOthers returns every profile except viewer's.
func (s *UserService) ListOthers(ctx context.Context, viewer string) ([]*model.UserProfile, error) {
	if blank(viewer) {
		return nil, apperrors.ErrInvalidParams
	}
	return s.users.ListExcept(ctx, viewer)
}

// SubscribeUsers delivers ListOthers snapshots to fn.
func (s *UserService) SubscribeUsers(ctx context.Context, viewer string, fn func([]*model.UserProfile)) (*realtime.Subscription, error) {
	if blank(viewer) {
		return nil, apperrors.ErrInvalidParams
	}
	return realtime.Watch(ctx, s.hub, realtime.UsersTopic(),
		func(ctx context.Context) ([]*model.UserProfile, error) {
			return s.ListOthers(ctx, viewer)
		}, fn)
}

// Attach registers live connection connID of uid. The first one marks the
// user online.
func (s *UserService) Attach(ctx context.Context, uid, connID string) error {
	if s.presence == nil {
		return s.setPresence(ctx, uid, true)
	}
	n, err := s.presence.Connect(ctx, uid, connID)
	if err != nil {
		return err
	}
	if n == 1 {
		return s.setPresence(ctx, uid, true)
	}
	return nil
}

// Detach unregisters live connection connID of uid. The last one marks the
// user offline with a fresh last-seen time.
func (s *UserService) Detach(ctx context.Context, uid, connID string) error {
	if s.presence == nil {
		return s.setPresence(ctx, uid, false)
	}
	n, err := s.presence.Disconnect(ctx, uid, connID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.setPresence(ctx, uid, false); err != nil {
		return err
	}

	// an Attach racing this Detach may have written online before the
	// offline above landed
	n, err = s.presence.Count(ctx, uid)
	if err != nil {
		return err
	}
	if n > 0 {
		return s.setPresence(ctx, uid, true)
	}
	return nil
}

// Touch keeps connection connID of uid alive.
func (s *UserService) Touch(ctx context.Context, uid, connID string) error {
	if s.presence == nil {
		return nil
	}
	return s.presence.Touch(ctx, uid, connID)
}

func (s *UserService) setPresence(ctx context.Context, uid string, online bool) error {
	if blank(uid) {
		return apperrors.ErrInvalidParams
	}
	err := s.users.SetPresence(ctx, uid, online)
	s.metrics.RecordMutation("user.presence", err)
	if err != nil {
		return err
	}
	s.logger.Debug("Presence changed", "uid", uid, "online", online)
	s.changes.publish(ctx, realtime.UsersTopic())
	return nil
}
