package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrNonceMismatch is returned when the ID token nonce differs from the one sent with the login redirect.
	ErrNonceMismatch = errors.New("id_token nonce does not match")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrAccountLocked is returned when a failed login reached the configured fault limit.
	ErrAccountLocked = errors.New("user account is locked after too many failed logins")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotLocalUser is returned for password operations on LDAP or OIDC accounts.
	ErrNotLocalUser = errors.New("user does not authenticate locally")

	// ErrMultipleUsersFound is returned when a query expected one user but found multiple.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrNotAuthenticated is returned by the guard when the request carries no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// IsCredentialError reports whether err means the login was refused for
// the given credentials, as opposed to a failure of the store or directory.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrUserAccountDisabled) ||
		errors.Is(err, ErrAccountLocked) ||
		errors.Is(err, ErrMultipleUsersFound)
}
