package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store/drivers/sqlite"
)

func newAccountService(t *testing.T) (*service.AccountService, *sqlite.Store) {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	accounts := &service.AccountService{
		Store:  s,
		Tokens: newTokenService(t, s),
		Media:  newFakeMedia(),
	}
	return accounts, s
}

func TestSignUpAndSignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accounts, s := newAccountService(t)

	pair, err := accounts.SignUp(ctx, "Alice Example", "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := accounts.SignUp(ctx, "Other", "alice", "other@example.com", "password1")
		require.ErrorIs(t, err, service.ErrUsernameTaken)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := accounts.SignUp(ctx, "Other", "alice2", "alice@example.com", "password1")
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("signin with the right password", func(t *testing.T) {
		pair, err := accounts.SignIn(ctx, "alice", "correct horse")
		require.NoError(t, err)
		require.NotEmpty(t, pair.RefreshToken)

		user, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, user.LastLogin, "signin should record last_login")
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, wrongPass := accounts.SignIn(ctx, "alice", "wrong")
		_, unknown := accounts.SignIn(ctx, "nobody", "whatever")
		require.ErrorIs(t, wrongPass, service.ErrInvalidCredentials)
		require.ErrorIs(t, unknown, service.ErrInvalidCredentials)
	})

	t.Run("banned account is told when the ban lifts", func(t *testing.T) {
		user, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)

		until := time.Now().Add(time.Hour)
		require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, &until))
		t.Cleanup(func() {
			require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, nil))
		})

		_, err = accounts.SignIn(ctx, "alice", "correct horse")

		var banned *service.BannedError
		require.ErrorAs(t, err, &banned)
		require.WithinDuration(t, until, banned.Until, time.Second)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accounts, s := newAccountService(t)

	_, err := accounts.SignUp(ctx, "Alice Example", "alice", "alice@example.com", "old password")
	require.NoError(t, err)

	user, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	require.ErrorIs(t,
		accounts.ChangePassword(ctx, user.ID, "not the old one", "new password"),
		service.ErrWrongPassword)

	require.NoError(t, accounts.ChangePassword(ctx, user.ID, "old password", "new password"))

	_, err = accounts.SignIn(ctx, "alice", "old password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = accounts.SignIn(ctx, "alice", "new password")
	require.NoError(t, err)
}

func TestSetAvatarReplacesPrevious(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accounts, s := newAccountService(t)
	media := accounts.Media.(*fakeMedia)

	_, err := accounts.SignUp(ctx, "Alice Example", "alice", "alice@example.com", "correct horse")
	require.NoError(t, err)

	user, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	_, err = accounts.SetAvatar(ctx, user.ID, "image/gif", strings.NewReader("x"))
	require.ErrorIs(t, err, service.ErrUnsupportedImage)

	url1, err := accounts.SetAvatar(ctx, user.ID, "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	require.NotEmpty(t, url1)

	_, err = accounts.SetAvatar(ctx, user.ID, "image/jpeg", strings.NewReader("y"))
	require.NoError(t, err)
	require.Len(t, media.uploads, 2)
	require.Len(t, media.deletes, 1, "old avatar object should be removed")

	require.NoError(t, accounts.RemoveAvatar(ctx, user.ID))

	got, err := s.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, got.AvatarURL)
}
