package auth

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/lockpass/internal/apperrors"
	"github.com/nkiryanov/lockpass/internal/repository/postgres"
	"github.com/nkiryanov/lockpass/internal/testutil"
)

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService over it
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, cfg Config, t *testing.T, fn func(s *AuthService, tx pgx.Tx)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			s, err := NewService(cfg, postgres.NewStorage(tx))
			require.NoError(t, err, "auth service couldn't be created")

			fn(s, tx)
		})
	}

	enabled := Config{RegistrationEnabled: true}

	t.Run("new service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, postgres.NewStorage(pg.Pool))

		require.NoError(t, err)
		require.Equal(t, defaultAccessTokenTTL, s.accessTTL, "default access ttl should be set")
		require.Equal(t, defaultRefreshTokenTTL, s.refreshTTL, "default refresh ttl should be set")
		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				user, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")

				require.NoError(t, err)
				require.Greater(t, user.ID, int64(0))
				require.Equal(t, "ada@example.com", user.Email)
				require.NotEqual(t, "long-enough-pwd", user.PasswordHash, "password must be stored hashed")
			})
		})

		t.Run("fail if user exists", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				_, err = s.Register(t.Context(), "ada@example.com", "other-pwd-12345")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("fail if registration disabled", func(t *testing.T) {
			withTx(pg.Pool, Config{RegistrationEnabled: false}, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrRegistrationDisabled)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")

				require.NoError(t, err)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
				require.True(t, pair.Refresh.ExpiresAt.After(pair.Access.ExpiresAt), "refresh must outlive access")
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{"wrong password", "ada@example.com", "not-the-password"},
			{"unknown user", "nobody@example.com", "long-enough-pwd"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
					_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
					require.NoError(t, err)

					_, err = s.Login(t.Context(), tt.email, tt.password)

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrUserNotFound)
				})
			})
		}

		t.Run("login purges stale sessions", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				_, err = s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				// Make the first session look untouched for longer than the
				// refresh lifetime
				user, err := s.storage.User().GetUserByEmail(t.Context(), "ada@example.com")
				require.NoError(t, err)
				_, err = tx.Exec(t.Context(),
					"UPDATE tokens SET modified_at = now() - interval '31 days' WHERE user_id = $1", user.ID)
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				var count int
				err = tx.QueryRow(t.Context(), "SELECT count(*) FROM tokens WHERE user_id = $1", user.ID).Scan(&count)
				require.NoError(t, err)
				require.Equal(t, 1, count, "only the fresh session should survive")
			})
		})
	})

	t.Run("AuthenticateAccess", func(t *testing.T) {
		t.Run("fresh access token ok", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				user, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				authorized, err := s.AuthenticateAccess(t.Context(), "Bearer "+pair.Access.Value)

				require.NoError(t, err)
				require.Equal(t, user.ID, authorized.ID)
				require.Equal(t, user.Email, authorized.Email)
				require.Greater(t, authorized.TokenID, int64(0), "must carry the session row id")
			})
		})

		t.Run("header errors", func(t *testing.T) {
			tests := []struct {
				name        string
				header      string
				expectedErr error
			}{
				{"missing header", "", apperrors.ErrAuthHeaderMissing},
				{"no bearer prefix", "Basic dXNlcjpwd2Q=", apperrors.ErrAuthHeaderMalformed},
				{"bearer without token", "bearer ", apperrors.ErrAuthHeaderMalformed},
				{"garbage token", "bearer garbage", apperrors.ErrTokenMalformed},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
						_, err := s.AuthenticateAccess(t.Context(), tt.header)

						require.Error(t, err)
						require.ErrorIs(t, err, tt.expectedErr)
					})
				})
			}
		})

		t.Run("scheme is case insensitive", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				for _, scheme := range []string{"bearer ", "Bearer ", "BEARER "} {
					_, err := s.AuthenticateAccess(t.Context(), scheme+pair.Access.Value)
					require.NoError(t, err, "scheme %q should be accepted", scheme)
				}
			})
		})

		t.Run("expired access token fails", func(t *testing.T) {
			cfg := Config{RegistrationEnabled: true, AccessTTL: -time.Minute}
			withTx(pg.Pool, cfg, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				_, err = s.AuthenticateAccess(t.Context(), "bearer "+pair.Access.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			})
		})

		t.Run("refresh token is not an access token", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				_, err = s.AuthenticateAccess(t.Context(), "bearer "+pair.Refresh.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenNotFound, "refresh id must not match the access column")
			})
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("rotates pair in place", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				old, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				fresh, err := s.Refresh(t.Context(), old.Refresh.Value)

				require.NoError(t, err)
				require.NotEqual(t, old.Access.Value, fresh.Access.Value)
				require.NotEqual(t, old.Refresh.Value, fresh.Refresh.Value)

				// New pair works
				_, err = s.AuthenticateAccess(t.Context(), "bearer "+fresh.Access.Value)
				require.NoError(t, err)

				// Both old tokens are dead: their identifiers match no row
				_, err = s.AuthenticateAccess(t.Context(), "bearer "+old.Access.Value)
				require.ErrorIs(t, err, apperrors.ErrTokenNotFound)

				_, err = s.Refresh(t.Context(), old.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrTokenNotFound)
			})
		})

		t.Run("garbage refresh fails", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Refresh(t.Context(), "garbage")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
			})
		})

		t.Run("expired refresh fails", func(t *testing.T) {
			cfg := Config{RegistrationEnabled: true, RefreshTTL: -time.Minute}
			withTx(pg.Pool, cfg, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			})
		})

		t.Run("sessions rotate independently", func(t *testing.T) {
			withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
				_, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				first, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)
				second, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), first.Refresh.Value)
				require.NoError(t, err)

				// The other session is untouched
				_, err = s.AuthenticateAccess(t.Context(), "bearer "+second.Access.Value)
				require.NoError(t, err)
			})
		})
	})

	t.Run("InvalidateSessions", func(t *testing.T) {
		withTx(pg.Pool, enabled, t, func(s *AuthService, tx pgx.Tx) {
			user, err := s.Register(t.Context(), "ada@example.com", "long-enough-pwd")
			require.NoError(t, err)
			first, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
			require.NoError(t, err)
			second, err := s.Login(t.Context(), "ada@example.com", "long-enough-pwd")
			require.NoError(t, err)

			deleted, err := s.InvalidateSessions(t.Context(), user.ID)

			require.NoError(t, err)
			require.Equal(t, int64(2), deleted)

			for _, pair := range []string{first.Access.Value, second.Access.Value} {
				_, err := s.AuthenticateAccess(t.Context(), "bearer "+pair)
				require.ErrorIs(t, err, apperrors.ErrTokenNotFound)
			}
		})
	})
}
