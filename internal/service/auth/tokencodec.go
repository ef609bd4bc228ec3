package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/lockpass/internal/apperrors"
)

// JWT MAC (Message Authentication Code) algorithm
// Tokens are keyed per user by the stored password hash, so the method is
// fixed rather than configurable
var signingMethod = jwt.SigningMethodHS256

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"uuid"`
}

// TokenCodec creates and verifies self contained bearer tokens
//
// There is no server wide signing key: every call takes the secret
// explicitly and the caller derives it from the owning user's current
// password hash. Changing the password makes every outstanding token
// unverifiable even before its session row is deleted.
type TokenCodec struct{}

// Issue signs a token carrying the session identifier and expiry
func (TokenCodec) Issue(secret []byte, sessionID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		signingMethod,
		sessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
			SessionID: sessionID,
		},
	)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}

	return signed, nil
}

// Verify re-signs the claims with secret, byte-compares the signature and
// checks expiry
func (TokenCodec) Verify(secret []byte, tokenString string) error {
	_, err := jwt.ParseWithClaims(
		tokenString,
		&sessionClaims{},
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.ErrTokenSignature
	default:
		return apperrors.ErrTokenMalformed
	}
}

// PeekSessionID decodes the claims WITHOUT verifying the signature
//
// The signing secret is not known until the owning user is found, and the
// user is found by the session identifier. So the identifier is read
// untrusted first and used only as a lookup key, identity comes solely from
// the later Verify call against the owner's secret.
func (TokenCodec) PeekSessionID(tokenString string) (uuid.UUID, error) {
	claims := &sessionClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return uuid.Nil, apperrors.ErrTokenMalformed
	}

	if claims.SessionID == uuid.Nil {
		return uuid.Nil, apperrors.ErrTokenMalformed
	}

	return claims.SessionID, nil
}
