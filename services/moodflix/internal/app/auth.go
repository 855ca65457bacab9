package app

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"moodflix/internal/util"
	"moodflix/pkg/auth"
	"moodflix/pkg/domain"
	"moodflix/pkg/store"
)

// Register creates an account and logs it in.
func (a *App) Register(username, email, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, "", ErrUsernameEmailPasswordRequired
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, "", err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUsernameOrEmail(username, email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check username and email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrUsernameOrEmailExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := a.nowUTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, store.ErrDuplicate) {
			return domain.User{}, "", ErrUsernameOrEmailExists
		}
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Login accepts a username, or an email when the identifier contains "@".
func (a *App) Login(identifier, password string) (domain.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return domain.User{}, "", ErrCredentialsRequired
	}
	var (
		user  domain.User
		found bool
		err   error
	)
	if strings.Contains(identifier, "@") {
		user, found, err = a.store.GetUserByEmail(strings.ToLower(identifier))
	} else {
		user, found, err = a.store.GetUserByUsername(identifier)
	}
	if err != nil {
		return domain.User{}, "", fmt.Errorf("find user: %w", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Logout invalidates a session token. Unknown tokens are ignored.
func (a *App) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := a.sessions.DeleteSession(token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UserFromToken resolves a session token to its user.
func (a *App) UserFromToken(token string) (domain.User, bool, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, false, nil
	}
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return domain.User{}, false, nil
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("load user: %w", err)
	}
	return user, found, nil
}

// revokeAllUserSessions signs a user out everywhere when the session store
// supports it.
func (a *App) revokeAllUserSessions(userID string) error {
	revoker, ok := a.sessions.(store.UserSessionRevoker)
	if !ok {
		return nil
	}
	return revoker.RevokeUserSessions(userID, a.nowUTC())
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func maskEmail(email string) string {
	local, domainPart, ok := strings.Cut(strings.TrimSpace(strings.ToLower(email)), "@")
	if !ok {
		return email
	}
	switch len(local) {
	case 0:
		return "***@" + domainPart
	case 1:
		return local + "***@" + domainPart
	case 2:
		return local[:1] + "***@" + domainPart
	default:
		return local[:1] + "***" + local[len(local)-1:] + "@" + domainPart
	}
}
