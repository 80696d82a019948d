// ABOUTME: Single-user account management with bcrypt password hashing
// ABOUTME: Credentials live in the settings bucket; login issues a session JWT

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account errors
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrNoAccount          = errors.New("no account registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Settings keys holding the registered account.
const (
	settingEmail        = "auth_user_email"
	settingPasswordHash = "auth_password_hash"
)

// sessionTTL is how long issued session tokens stay valid.
const sessionTTL = 7 * 24 * time.Hour

// SettingsStore is the slice of the store the account manager needs.
type SettingsStore interface {
	SetSetting(ctx context.Context, key, value string) error
	Setting(ctx context.Context, key string) (string, error)
}

// Manager handles signup and login for the app's single local account.
type Manager struct {
	settings SettingsStore
	tokens   *SessionTokens
}

// NewManager creates an account manager issuing tokens signed with secret.
func NewManager(settings SettingsStore, secret []byte) *Manager {
	return &Manager{
		settings: settings,
		tokens:   NewSessionTokens(secret, sessionTTL),
	}
}

// Verifier exposes the token verifier for middleware use.
func (m *Manager) Verifier() *SessionTokens {
	return m.tokens
}

// SignUp registers the account. Only one account exists per installation;
// a second signup fails with ErrAccountExists.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := m.settings.Setting(ctx, settingEmail); err == nil {
		return ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := m.settings.SetSetting(ctx, settingEmail, email); err != nil {
		return fmt.Errorf("storing account: %w", err)
	}
	if err := m.settings.SetSetting(ctx, settingPasswordHash, string(hash)); err != nil {
		return fmt.Errorf("storing account: %w", err)
	}
	return nil
}

// LogIn checks the credentials and returns a session token on success.
func (m *Manager) LogIn(ctx context.Context, email, password string) (string, error) {
	storedEmail, err := m.settings.Setting(ctx, settingEmail)
	if err != nil {
		return "", ErrNoAccount
	}
	hash, err := m.settings.Setting(ctx, settingPasswordHash)
	if err != nil {
		return "", ErrNoAccount
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if email != storedEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := m.tokens.Issue(email)
	if err != nil {
		return "", fmt.Errorf("issuing session token: %w", err)
	}
	return token, nil
}
