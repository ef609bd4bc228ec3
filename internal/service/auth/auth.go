package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/logger"
	"github.com/nkiryanov/lockpass/internal/models"
	"github.com/nkiryanov/lockpass/internal/repository"
)

const (
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	bearerScheme = "bearer "
)

// Auth service config with sensible defaults
// Built once at startup, services never mutate it
type Config struct {
	// Hasher to use during registration or login
	// If not set bcrypt is used
	Hasher PasswordHasher

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Whether new users may register
	RegistrationEnabled bool

	Logger logger.Logger
}

type AuthService struct {
	hasher PasswordHasher
	codec  TokenCodec

	accessTTL           time.Duration
	refreshTTL          time.Duration
	registrationEnabled bool

	storage repository.Storage
	logger  logger.Logger
}

func NewService(cfg Config, storage repository.Storage) (*AuthService, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &AuthService{
		hasher:              hasher,
		codec:               TokenCodec{},
		accessTTL:           cfg.AccessTTL,
		refreshTTL:          cfg.RefreshTTL,
		registrationEnabled: cfg.RegistrationEnabled,
		storage:             storage,
		logger:              log,
	}, nil
}

// Register creates a new user
// The user logs in separately, no session is issued here
func (s *AuthService) Register(ctx context.Context, email string, password string) (models.User, error) {
	var user models.User

	if !s.registrationEnabled {
		return user, apperrors.ErrRegistrationDisabled
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, email, hash)
	if err != nil {
		return user, err
	}

	return user, nil
}

// Login verifies credentials and issues a fresh token pair
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return pair, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return pair, apperrors.ErrUserNotFound
	}

	return s.createSession(ctx, user)
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// session row in place so the previous pair can never be used again
func (s *AuthService) Refresh(ctx context.Context, refreshString string) (models.TokenPair, error) {
	var pair models.TokenPair

	authorized, err := s.authenticate(ctx, refreshString, s.storage.Token().GetByRefresh)
	if err != nil {
		return pair, err
	}

	return s.rotateSession(ctx, authorized.User, authorized.TokenID, authorized.refreshID)
}

// AuthenticateAccess is the authorization guard for protected routes
//
// State machine over one request: missing header, malformed header,
// session lookup by the peeked identifier, signature and expiry check
// against the owner's password hash. Any failure is terminal, no retries.
func (s *AuthService) AuthenticateAccess(ctx context.Context, authorizationHeader string) (models.AuthorizedUser, error) {
	var authorized models.AuthorizedUser

	if authorizationHeader == "" {
		return authorized, apperrors.ErrAuthHeaderMissing
	}

	if len(authorizationHeader) <= len(bearerScheme) ||
		!strings.EqualFold(authorizationHeader[:len(bearerScheme)], bearerScheme) {
		return authorized, apperrors.ErrAuthHeaderMalformed
	}

	tokenString := authorizationHeader[len(bearerScheme):]

	user, err := s.authenticate(ctx, tokenString, s.storage.Token().GetByAccess)
	if err != nil {
		return authorized, err
	}

	return models.AuthorizedUser{User: user.User, TokenID: user.TokenID}, nil
}

type authenticatedUser struct {
	models.User
	TokenID   int64
	refreshID uuid.UUID
}

// authenticate runs the two phase parse-then-verify protocol shared by the
// access and refresh guards
//
// Phase one reads the session identifier without trusting the token, only
// to find the session row and its owner. Phase two verifies signature and
// expiry with the owner's password hash. Nothing from phase one is used
// beyond the lookup.
func (s *AuthService) authenticate(
	ctx context.Context,
	tokenString string,
	lookup func(context.Context, uuid.UUID) (models.Token, error),
) (authenticatedUser, error) {
	var authorized authenticatedUser

	sessionID, err := s.codec.PeekSessionID(tokenString)
	if err != nil {
		return authorized, err
	}

	token, err := lookup(ctx, sessionID)
	if err != nil {
		return authorized, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil {
		return authorized, fmt.Errorf("session owner lookup failed. Err: %w", err)
	}

	if err := s.codec.Verify([]byte(user.PasswordHash), tokenString); err != nil {
		return authorized, err
	}

	return authenticatedUser{
		User:      user,
		TokenID:   token.ID,
		refreshID: token.Refresh,
	}, nil
}
