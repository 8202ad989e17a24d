package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/abhishek-bajpai1/athletecho/internal/config"
	"github.com/abhishek-bajpai1/athletecho/internal/model"
)

// ErrNotConfigured is returned when no client id is configured.
var ErrNotConfigured = errors.New("oauth: google sign-in is not configured")

const maxCodeLength = 4096

// Endpoints are the provider URLs. Tests point them at a fake server.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleEndpoints are Google's production endpoints.
var GoogleEndpoints = Endpoints{
	AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL:    "https://oauth2.googleapis.com/token",
	UserInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
}

// GoogleProvider signs users in with the authorization code flow.
type GoogleProvider struct {
	config      oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a provider from cfg.
func NewGoogleProvider(cfg config.OAuthConfig, endpoints Endpoints) (*GoogleProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, ErrNotConfigured
	}
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			RedirectURL:  strings.TrimSpace(cfg.RedirectURL),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  endpoints.AuthURL,
				TokenURL: endpoints.TokenURL,
			},
		},
		userInfoURL: endpoints.UserInfoURL,
	}, nil
}

// AuthURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Identify exchanges code and fetches the user's identity.
func (p *GoogleProvider) Identify(ctx context.Context, code string) (*model.Identity, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > maxCodeLength {
		return nil, errors.New("oauth: invalid authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth: exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: user info request: %w", err)
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, fmt.Errorf("oauth: user info failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parseGoogleUser(data)
}

func parseGoogleUser(data []byte) (*model.Identity, error) {
	var payload struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("oauth: decode user info: %w", err)
	}
	if payload.Sub == "" {
		return nil, errors.New("oauth: user info without subject")
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = model.DefaultDisplayName
	}
	return &model.Identity{
		UID:         payload.Sub,
		DisplayName: name,
		PhotoURL:    payload.Picture,
		Email:       payload.Email,
	}, nil
}
