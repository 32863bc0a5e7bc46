package lineauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/oakmont-labs/memberhub/pkg/config"
)

// LINE Login v2.1 endpoints.
const (
	defaultAuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	defaultTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	defaultProfileURL = "https://api.line.me/v2/profile"
	defaultIssuerURL  = "https://access.line.me"
)

// Profile is the identity returned by the LINE profile endpoint.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// Provider wraps the OAuth2 code exchange and profile fetch against
// LINE Login. Endpoints are overridable for tests.
type Provider struct {
	oauth2Config *oauth2.Config
	profileURL   string
	verifier     *oidc.IDTokenVerifier
}

// NewProvider builds a provider from channel configuration. When
// VerifyIDToken is set the issuer is discovered via OIDC and id_token
// claims are verified on every callback.
func NewProvider(ctx context.Context, cfg config.LineConfig) (*Provider, error) {
	if cfg.ChannelID == "" || cfg.ChannelSecret == "" {
		return nil, fmt.Errorf("line channel credentials are required")
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	profileURL := cfg.ProfileURL
	if profileURL == "" {
		profileURL = defaultProfileURL
	}

	oauth2Cfg := &oauth2.Config{
		ClientID:     cfg.ChannelID,
		ClientSecret: cfg.ChannelSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      []string{"openid", "profile", "email"},
	}

	p := &Provider{
		oauth2Config: oauth2Cfg,
		profileURL:   profileURL,
	}

	if cfg.VerifyIDToken {
		issuerURL := cfg.IssuerURL
		if issuerURL == "" {
			issuerURL = defaultIssuerURL
		}
		oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover line issuer: %w", err)
		}
		p.verifier = oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ChannelID})
	}

	return p, nil
}

// AuthCodeURL returns the authorization URL carrying the state token.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	if p.verifier != nil {
		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return nil, fmt.Errorf("token response missing id_token")
		}
		if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
			return nil, fmt.Errorf("id token verification failed: %w", err)
		}
	}

	return token, nil
}

// FetchProfile reads the user's LINE profile with the access token.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("profile request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.UserID == "" {
		return nil, fmt.Errorf("profile response missing userId")
	}
	return &profile, nil
}
