package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/lockpass/internal/models"
)

// createSession issues a fresh (access, refresh) pair for the user and
// persists one session row holding both identifiers
//
// After a successful insert the stale sessions of this user are purged
// lazily: rows not touched for longer than the refresh lifetime can't be
// refreshed anymore, so login is the moment to drop them. There is no
// background reaper.
func (s *AuthService) createSession(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	accessID, refreshID := uuid.New(), uuid.New()

	pair, err := s.signPair(user, accessID, refreshID)
	if err != nil {
		return pair, err
	}

	_, err = s.storage.Token().Create(ctx, user.ID, accessID, refreshID)
	if err != nil {
		return pair, fmt.Errorf("error while saving session. Err: %w", err)
	}

	deleted, err := s.storage.Token().DeleteStaleTokens(ctx, user.ID, time.Now().Add(-s.refreshTTL))
	if err != nil {
		// Session is issued already, failed housekeeping must not fail login
		s.logger.Warn("failed to purge stale sessions", "user_id", user.ID, "error", err)
	} else if deleted > 0 {
		s.logger.Debug("purged stale sessions", "user_id", user.ID, "count", deleted)
	}

	return pair, nil
}

// rotateSession replaces the token pair of one session row in place
//
// Both previous identifiers die atomically with the update: the row holds
// exactly one (access, refresh) pair, so the old tokens stop matching any
// row the moment the new pair is written
func (s *AuthService) rotateSession(ctx context.Context, user models.User, tokenID int64, oldRefresh uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair

	accessID, refreshID := uuid.New(), uuid.New()

	pair, err := s.signPair(user, accessID, refreshID)
	if err != nil {
		return pair, err
	}

	_, err = s.storage.Token().Rotate(ctx, tokenID, oldRefresh, accessID, refreshID)
	if err != nil {
		return pair, fmt.Errorf("error while rotating session. Err: %w", err)
	}

	return pair, nil
}

// InvalidateSessions deletes every session row of the user
// All outstanding tokens stop matching immediately
func (s *AuthService) InvalidateSessions(ctx context.Context, userID int64) (int64, error) {
	deleted, err := s.storage.Token().DeleteUserTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error while invalidating sessions. Err: %w", err)
	}

	return deleted, nil
}

// signPair signs both session identifiers keyed by the user's current
// password hash with their distinct lifetimes
func (s *AuthService) signPair(user models.User, accessID uuid.UUID, refreshID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	secret := []byte(user.PasswordHash)

	access, err := s.codec.Issue(secret, accessID, s.accessTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := s.codec.Issue(secret, refreshID, s.refreshTTL)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: now.Add(s.accessTTL)},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: now.Add(s.refreshTTL)},
	}, nil
}
