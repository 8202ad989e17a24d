package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhishek-bajpai1/athletecho/internal/model"
	"github.com/abhishek-bajpai1/athletecho/internal/repository"
	apperrors "github.com/abhishek-bajpai1/athletecho/pkg/errors"
	"github.com/abhishek-bajpai1/athletecho/pkg/jwt"
)

const defaultStateTTL = 10 * time.Minute

// DeviceInfo identifies the client a session is opened from.
type DeviceInfo struct {
	DeviceID string
	Platform string
}

// LoginResponse is returned after sign-in and refresh.
type LoginResponse struct {
	UID          string             `json:"uid"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresAt    int64              `json:"expires_at"`
	Profile      *model.UserProfile `json:"profile,omitempty"`
}

// AuthService signs users in through the identity provider and manages
// their sessions.
type AuthService struct {
	provider   IdentityProvider
	states     StateStore
	sessions   SessionStore
	users      *UserService
	jwtService *jwt.Service
	stateTTL   time.Duration
	logger     *slog.Logger
}

// NewAuthService creates an auth service. provider may be nil when sign-in
// is not configured.
func NewAuthService(provider IdentityProvider, states StateStore, sessions SessionStore, users *UserService, jwtService *jwt.Service, stateTTL time.Duration) *AuthService {
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	return &AuthService{
		provider:   provider,
		states:     states,
		sessions:   sessions,
		users:      users,
		jwtService: jwtService,
		stateTTL:   stateTTL,
		logger:     slog.Default(),
	}
}

// LoginURL starts a sign-in and returns the provider's consent page URL.
func (s *AuthService) LoginURL(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", apperrors.ErrIdentityFailed
	}
	state := uuid.NewString()
	if err := s.states.Save(ctx, state, s.stateTTL); err != nil {
		return "", err
	}
	return s.provider.AuthURL(state), nil
}

// Callback finishes a sign-in started by LoginURL.
func (s *AuthService) Callback(ctx context.Context, state, code string, device DeviceInfo) (*LoginResponse, error) {
	if s.provider == nil {
		return nil, apperrors.ErrIdentityFailed
	}
	if blank(state) || blank(code) {
		return nil, apperrors.ErrInvalidParams
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidOAuthState
	}

	identity, err := s.provider.Identify(ctx, code)
	if err != nil {
		s.logger.Warn("Identity provider rejected sign-in", "error", err)
		return nil, apperrors.ErrIdentityFailed.Wrap(err)
	}

	profile, err := s.users.SignIn(ctx, identity)
	if err != nil {
		return nil, err
	}

	resp, err := s.issue(ctx, profile.UID, device.DeviceID, jwt.ParsePlatform(device.Platform))
	if err != nil {
		return nil, err
	}
	resp.Profile = profile
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenErr(err)
	}

	// the account must still exist
	if _, err := s.users.GetProfile(ctx, claims.UserID); err != nil {
		return nil, err
	}

	return s.issue(ctx, claims.UserID, claims.DeviceID, claims.Platform)
}

// Logout ends the session of accessToken and marks the user offline.
func (s *AuthService) Logout(ctx context.Context, uid, platform, accessToken string) error {
	if err := s.sessions.DeleteToken(ctx, uid, platform, accessToken); err != nil {
		return err
	}
	return s.users.SignOut(ctx, uid)
}

// Authenticate validates an access token and checks that its session is
// still signed in.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, tokenErr(err)
	}

	session, err := s.sessions.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UID != claims.UserID {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, uid, deviceID string, platform jwt.Platform) (*LoginResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(uid, deviceID, platform)
	if err != nil {
		return nil, err
	}

	info := &repository.SessionInfo{
		UID:      uid,
		DeviceID: deviceID,
		Platform: string(platform),
	}
	if err := s.sessions.SaveToken(ctx, info, pair.AccessToken, s.jwtService.AccessExpire()); err != nil {
		return nil, err
	}

	return &LoginResponse{
		UID:          uid,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

func tokenErr(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.ErrTokenExpired
	}
	return apperrors.ErrTokenInvalid
}
