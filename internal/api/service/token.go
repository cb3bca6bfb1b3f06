package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/jwtx"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrExpiredRefresh     = errors.New("expired_refresh_token")
	ErrUserNotFound       = errors.New("user_not_found")
)

// BannedError is returned when the account is banned. Until tells the caller
// when the ban lifts so the response can surface it.
type BannedError struct {
	Until time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("account banned until %s", e.Until.Format(time.RFC3339))
}

// TokenService mints and verifies the API's access and refresh tokens. Both
// are HS256 JWTs; refresh tokens are stateless, so nothing here rotates or
// revokes them. Bans take effect on the next refresh, bounded by the access
// token TTL.
type TokenService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueInitialTokens mints a fresh token pair for a user who has just proven
// their identity (signup or signin). The ban state is re-checked here no
// matter what the caller already looked at, so every issuance path carries
// the check.
func (s *TokenService) IssueInitialTokens(ctx context.Context, userID string) (*domain.TokenPair, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	if user.IsBanned(now) {
		return nil, &BannedError{Until: *user.BannedUntil}
	}

	return s.mintPair(user, now)
}

// VerifyAndReissue exchanges a valid refresh token for a new token pair. The
// order is fixed: signature, expiry, subject lookup, ban re-check, then a
// reissue built from the user's current profile rather than whatever the old
// token carried.
func (s *TokenService) VerifyAndReissue(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Verifier.Verify(refreshToken)
	if err != nil {
		l.Info("refresh token rejected", slog.String("reason", err.Error()))
		if errors.Is(err, jwtx.ErrExpired) {
			return nil, ErrExpiredRefresh
		}
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	if user.IsBanned(now) {
		l.Info("refresh blocked for banned user", slog.String("user_id", user.ID))
		return nil, &BannedError{Until: *user.BannedUntil}
	}

	return s.mintPair(user, now)
}

// DecodeAccessToken validates an access token's signature and expiry and
// returns its claims. It never touches the store: banned or deleted users
// keep working access tokens until they expire.
func (s *TokenService) DecodeAccessToken(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

func (s *TokenService) mintPair(user domain.User, now time.Time) (*domain.TokenPair, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(user.ID, user.Username, user.Name, s.Issuer, accessTTL, now))
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.Sign(jwtx.NewRefreshClaims(user.ID, s.Issuer, refreshTTL, now))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}
