package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/portcullis-admin/portcullis/internal/config"
	"github.com/portcullis-admin/portcullis/internal/db/models"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

const defaultGroupsClaim = "groups"

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config      config.OIDC
	verifier    *oidc.IDTokenVerifier
	oauth2      oauth2.Config
	provisioner *Provisioner
}

// NewOIDCProvider discovers the provider and creates the OIDC login flow.
func NewOIDCProvider(ctx context.Context, cfg config.OIDC, provisioner *Provisioner) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	if cfg.GroupsClaim == "" {
		cfg.GroupsClaim = defaultGroupsClaim
	}

	return &OIDCProvider{
		config:   cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		provisioner: provisioner,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
// It is also used for the nonce.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthURL returns the provider login URL for state and nonce.
func (p *OIDCProvider) AuthURL(state, nonce string) string {
	return p.oauth2.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Callback exchanges code, verifies the ID token against nonce and returns
// the provisioned local account.
func (p *OIDCProvider) Callback(ctx context.Context, code, nonce string) (*models.User, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	if idToken.Nonce != nonce {
		return nil, ErrNonceMismatch
	}

	var claims map[string]any
	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return p.provisioner.Provision(externalFromClaims(idToken.Subject, claims, p.config.GroupsClaim))
}

// externalFromClaims maps ID token claims onto an ExternalUser.
// The username is preferred_username, falling back to email and then to the subject.
func externalFromClaims(subject string, claims map[string]any, groupsClaim string) ExternalUser {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}

	username := str("preferred_username")
	if username == "" {
		username = str("email")
	}

	if username == "" {
		username = subject
	}

	return ExternalUser{
		Username:   username,
		Email:      str("email"),
		FirstName:  str("given_name"),
		LastName:   str("family_name"),
		ExternalID: subject,
		Source:     models.AuthSourceOIDC,
		Groups:     groupsFromClaims(claims, groupsClaim),
	}
}

// groupsFromClaims reads the group names from claim, which may be a list or a single string.
func groupsFromClaims(claims map[string]any, claim string) []string {
	switch v := claims[claim].(type) {
	case []string:
		return v
	case []any:
		groups := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}

		return groups
	case string:
		return []string{v}
	default:
		return nil
	}
}
