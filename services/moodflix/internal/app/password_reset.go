package app

import (
	"context"
	"fmt"

	"moodflix/internal/util"
	"moodflix/pkg/auth"
	"moodflix/pkg/mailer"
)

const (
	resetMailSubject = "MoodFlix password reset"
	resetMailBody    = "Your password reset code: %s\n\nThe code expires in %d minutes. If you did not ask for a reset, ignore this mail."
)

// RequestPasswordReset mails a verification code to a registered email.
func (a *App) RequestPasswordReset(ctx context.Context, email string) (ResetChallenge, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return ResetChallenge{}, err
	}
	_, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return ResetChallenge{}, fmt.Errorf("find user: %w", err)
	}
	if !found {
		return ResetChallenge{}, ErrEmailNotRegistered
	}
	challenge, err := a.resets.CreateChallenge(ctx, email)
	if err != nil {
		return ResetChallenge{}, err
	}
	msg := mailer.Message{
		To:      email,
		Subject: resetMailSubject,
		Body:    fmt.Sprintf(resetMailBody, challenge.Code, challenge.ExpiresIn/60),
	}
	if err := a.mail.Dispatch(ctx, msg); err != nil {
		if discardErr := a.resets.Discard(ctx, challenge.ID, email); discardErr != nil {
			util.LoggerFromContext(ctx).Warn("discard reset challenge failed", "err", discardErr)
		}
		return ResetChallenge{}, fmt.Errorf("dispatch reset code: %w", err)
	}
	return challenge, nil
}

// VerifyResetCode checks the mailed code and returns a one-time reset token.
func (a *App) VerifyResetCode(ctx context.Context, challengeID, email, code string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if err := a.resets.VerifyChallenge(ctx, challengeID, email, code); err != nil {
		return "", err
	}
	return a.resets.IssueToken(ctx, email)
}

// ResetPassword sets a new password for the token's account and signs it out
// everywhere.
func (a *App) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	email, err := a.resets.ConsumeToken(ctx, resetToken)
	if err != nil {
		return err
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !found {
		return ErrResetTokenInvalid
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.store.UpdatePassword(user.ID, hash, a.nowUTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := a.revokeAllUserSessions(user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	util.LoggerFromContext(ctx).Info("password reset", "user_id", user.ID, "email", maskEmail(email))
	return nil
}
