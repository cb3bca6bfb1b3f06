package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/cryptox"
	"github.com/glimpse-social/glimpse/pkg/idx"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

var (
	ErrUsernameTaken = errors.New("username_taken")
	ErrEmailTaken    = errors.New("email_taken")
	ErrWrongPassword = errors.New("wrong_password")
)

// AccountService handles signup, signin and self-service profile changes.
type AccountService struct {
	Store  store.Store
	Tokens *TokenService
	Media  mediastore.Store
}

// SignUp registers a new account and signs it in. Field shape (lengths,
// confirmation) is the transport layer's problem; uniqueness is enforced
// here against the database.
func (s *AccountService) SignUp(ctx context.Context, name, username, email, password string) (*domain.TokenPair, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, s.classifyConflict(ctx, username, email)
		}
		return nil, err
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return s.Tokens.IssueInitialTokens(ctx, user.ID)
}

// classifyConflict turns a UNIQUE violation into the field-specific error so
// the client can point at the right input.
func (s *AccountService) classifyConflict(ctx context.Context, username, email string) error {
	if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	}
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}
	return store.ErrAlreadyExists
}

// SignIn authenticates by username and password. Unknown usernames and wrong
// passwords are indistinguishable to the caller; bans are not, and surface
// before last_login is touched.
func (s *AccountService) SignIn(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("signin rejected", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	if user.IsBanned(time.Now()) {
		return nil, &BannedError{Until: *user.BannedUntil}
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.Tokens.IssueInitialTokens(ctx, user.ID)
}

// GetUserByID fetches a user by id.
func (s *AccountService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// UpdateProfile changes the display name and bio of the account.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, name, bio string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdateProfile(ctx, userID, name, bio, user.AvatarKey, user.AvatarURL)
}

// SetAvatar uploads a new avatar and points the profile at it. The previous
// avatar object is removed afterwards; a failed removal only logs, the
// profile already references the new image.
func (s *AccountService) SetAvatar(ctx context.Context, userID, contentType string, body io.Reader) (string, error) {
	ext, err := imageExt(contentType)
	if err != nil {
		return "", err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	key := "avatars/" + idx.New().String() + ext
	up, err := s.Media.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", err
	}

	if err := s.Store.Users().UpdateProfile(ctx, userID, user.Name, user.Bio, up.Key, up.URL); err != nil {
		return "", err
	}

	if user.AvatarKey != "" {
		if err := s.Media.Delete(ctx, user.AvatarKey); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete previous avatar",
				slog.String("key", user.AvatarKey),
				slog.String("error", err.Error()))
		}
	}
	return up.URL, nil
}

// RemoveAvatar clears the avatar and deletes the stored object.
func (s *AccountService) RemoveAvatar(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarKey == "" {
		return nil
	}

	if err := s.Store.Users().UpdateProfile(ctx, userID, user.Name, user.Bio, "", ""); err != nil {
		return err
	}
	if err := s.Media.Delete(ctx, user.AvatarKey); err != nil {
		slogx.FromContext(ctx).Warn("failed to delete avatar",
			slog.String("key", user.AvatarKey),
			slog.String("error", err.Error()))
	}
	return nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		return ErrWrongPassword
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}
