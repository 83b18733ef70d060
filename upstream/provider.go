package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Identity is the subset of the upstream userinfo response the server cares
// about.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Provider abstracts the third-party identity provider the interactive login
// is delegated to. The authorization endpoint only ever talks to it through
// this interface.
type Provider interface {
	// LoginURL returns the provider's authorization URL carrying state.
	LoginURL(state string) string

	// CompleteLogin exchanges the provider's authorization code and fetches
	// the identity of the logged-in user.
	CompleteLogin(ctx context.Context, code string) (*Identity, error)
}

// OAuth2Provider implements Provider on top of a standard OAuth2/OIDC
// provider using golang.org/x/oauth2.
type OAuth2Provider struct {
	config      *oauth2.Config
	userInfoURL string
	httpTimeout time.Duration
}

// Config carries the upstream provider settings.
type Config struct {
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// NewOAuth2Provider creates a provider from explicit endpoint configuration.
func NewOAuth2Provider(cfg Config) *OAuth2Provider {
	return &OAuth2Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpTimeout: 10 * time.Second,
	}
}

// LoginURL implements Provider.LoginURL.
func (p *OAuth2Provider) LoginURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// CompleteLogin implements Provider.CompleteLogin. Both the code exchange and
// the userinfo fetch run under a finite timeout so a wedged provider cannot
// hang a login.
func (p *OAuth2Provider) CompleteLogin(ctx context.Context, code string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.httpTimeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("upstream code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream userinfo returned status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode upstream userinfo: %w", err)
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("upstream userinfo did not include a subject")
	}

	return &identity, nil
}
