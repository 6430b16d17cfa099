// Package oidc provides handlers for the OpenID Connect (OIDC) login flow.
//
// The flow:
//   - GET /auth/oidc/login stores state and nonce in a pending session and
//     redirects to the provider
//   - GET /auth/oidc/callback checks the state, verifies the ID token,
//     provisions the local user and starts its session
//
// Both routes answer 503 when OIDC is disabled.
package oidc
