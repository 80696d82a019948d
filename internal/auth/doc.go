// Package auth provides the single-user account and session tokens for
// mindease.
//
// # Account
//
// Each installation holds at most one account. The email and bcrypt password
// hash live in the settings bucket; a second signup fails. Login compares
// credentials and issues an HS256 JWT whose sub claim is the account email.
//
// # Sessions
//
// SessionTokens issues and verifies tokens bound to a fixed issuer claim, so
// tokens minted elsewhere never pass. API middleware is optional-auth: a
// valid bearer token attaches the subject to the request context, anything
// else continues anonymously, because all wellness data is local to the
// device. Only cloud-backed features consult the subject.
package auth
