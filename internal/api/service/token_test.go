package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/internal/api/store/drivers/sqlite"
	"github.com/glimpse-social/glimpse/pkg/idx"
	"github.com/glimpse-social/glimpse/pkg/jwtx"
)

const testIssuer = "glimpse-api"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTokenService(t *testing.T, s store.Store) *service.TokenService {
	t.Helper()

	hs, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	return &service.TokenService{
		Signer:     hs,
		Verifier:   hs,
		Store:      s,
		Issuer:     testIssuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
}

func newStoreWithUser(t *testing.T, username string) (*sqlite.Store, domain.User) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now()
	user := domain.User{
		ID:           idx.New().String(),
		Name:         "Alice Example",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), user))
	return s, user
}

func TestIssueInitialTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	svc := newTokenService(t, s)

	t.Run("issues a pair with profile claims", func(t *testing.T) {
		pair, err := svc.IssueInitialTokens(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.EqualValues(t, 300, pair.ExpiresIn)

		access, err := svc.DecodeAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, access.Subject)
		require.Equal(t, "alice", access.Username)
		require.Equal(t, "Alice Example", access.Name)

		hs, err := jwtx.NewHS256(testSecret, testIssuer)
		require.NoError(t, err)
		refresh, err := hs.Verify(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, refresh.Subject)
		require.Empty(t, refresh.Username, "refresh token must not carry profile claims")
		require.Empty(t, refresh.Name)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.IssueInitialTokens(ctx, idx.New().String())
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("banned user is refused even on the issue path", func(t *testing.T) {
		until := time.Now().Add(time.Hour)
		require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, &until))
		t.Cleanup(func() {
			require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, nil))
		})

		_, err := svc.IssueInitialTokens(ctx, user.ID)

		var banned *service.BannedError
		require.ErrorAs(t, err, &banned)
		require.WithinDuration(t, until, banned.Until, time.Second)
	})
}

func TestVerifyAndReissue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	svc := newTokenService(t, s)

	pair, err := svc.IssueInitialTokens(ctx, user.ID)
	require.NoError(t, err)

	t.Run("reissues a fresh pair", func(t *testing.T) {
		next, err := svc.VerifyAndReissue(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, next.AccessToken)
		require.NotEmpty(t, next.RefreshToken)
	})

	t.Run("reissued access token reflects the current profile", func(t *testing.T) {
		require.NoError(t, s.Users().UpdateProfile(ctx, user.ID, "Renamed", "", "", ""))
		t.Cleanup(func() {
			require.NoError(t, s.Users().UpdateProfile(ctx, user.ID, user.Name, "", "", ""))
		})

		next, err := svc.VerifyAndReissue(ctx, pair.RefreshToken)
		require.NoError(t, err)

		claims, err := svc.DecodeAccessToken(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "Renamed", claims.Name)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.VerifyAndReissue(ctx, "not.a.jwt")
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256([]byte("ffffffffffffffffffffffffffffffff"), testIssuer)
		require.NoError(t, err)
		forged, err := other.Sign(jwtx.NewRefreshClaims(user.ID, testIssuer, time.Hour, time.Now()))
		require.NoError(t, err)

		_, err = svc.VerifyAndReissue(ctx, forged)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("tampered token", func(t *testing.T) {
		tampered := pair.RefreshToken + "x"
		_, err := svc.VerifyAndReissue(ctx, tampered)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
		require.NotErrorIs(t, err, service.ErrExpiredRefresh)
	})

	t.Run("expired refresh token is distinguishable from an invalid one", func(t *testing.T) {
		hs, err := jwtx.NewHS256(testSecret, testIssuer)
		require.NoError(t, err)
		stale, err := hs.Sign(jwtx.NewRefreshClaims(user.ID, testIssuer, time.Minute, time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = svc.VerifyAndReissue(ctx, stale)
		require.ErrorIs(t, err, service.ErrExpiredRefresh)
		require.NotErrorIs(t, err, service.ErrInvalidRefresh)
	})

	t.Run("deleted subject", func(t *testing.T) {
		ghost := domain.User{
			ID: idx.New().String(), Name: "Ghost", Username: "ghost",
			Email: "ghost@example.com", PasswordHash: "hash", Role: domain.RoleUser,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		require.NoError(t, s.Users().CreateUser(ctx, ghost))

		ghostPair, err := svc.IssueInitialTokens(ctx, ghost.ID)
		require.NoError(t, err)

		require.NoError(t, s.Users().DeleteUser(ctx, ghost.ID))

		_, err = svc.VerifyAndReissue(ctx, ghostPair.RefreshToken)
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("ban lands on the next refresh", func(t *testing.T) {
		until := time.Now().Add(24 * time.Hour)
		require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, &until))
		t.Cleanup(func() {
			require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, nil))
		})

		_, err := svc.VerifyAndReissue(ctx, pair.RefreshToken)

		var banned *service.BannedError
		require.ErrorAs(t, err, &banned)
		require.WithinDuration(t, until, banned.Until, time.Second)
	})

	t.Run("elapsed ban no longer blocks", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, &past))
		t.Cleanup(func() {
			require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, nil))
		})

		_, err := svc.VerifyAndReissue(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})
}

// countingStore records how often the user repo is reached so tests can pin
// down which service methods touch the database at all.
type countingStore struct {
	store.Store
	userCalls int
}

func (c *countingStore) Users() store.Users {
	c.userCalls++
	return nil
}

func TestDecodeAccessTokenNeverTouchesTheStore(t *testing.T) {
	t.Parallel()

	counting := &countingStore{}
	svc := newTokenService(t, counting)

	hs, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	userID := idx.New().String()
	token, err := hs.Sign(jwtx.NewAccessClaims(userID, "alice", "Alice", testIssuer, time.Minute, time.Now()))
	require.NoError(t, err)

	claims, err := svc.DecodeAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.Subject)
	require.Zero(t, counting.userCalls)

	t.Run("even a banned user's live token decodes", func(t *testing.T) {
		// No store involved, so there is nothing to check bans against.
		claims, err := svc.DecodeAccessToken(token)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Username)
		require.Zero(t, counting.userCalls)
	})

	t.Run("expired token is still rejected", func(t *testing.T) {
		stale, err := hs.Sign(jwtx.NewAccessClaims(userID, "alice", "Alice", testIssuer, time.Minute, time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = svc.DecodeAccessToken(stale)
		require.ErrorIs(t, err, jwtx.ErrExpired)
		require.Zero(t, counting.userCalls)
	})
}
