package store

import (
	"context"
	"errors"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Posts() Posts
	Comments() Comments
	Follows() Follows

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used for sign-in and profile lookups.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used to enforce email uniqueness at signup.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates name, bio and avatar, and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, name, bio, avatarKey, avatarURL string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateLastLogin records a successful sign-in.
	UpdateLastLogin(ctx context.Context, userID string) error

	// SetBannedUntil bans (non-nil) or unbans (nil) a user.
	SetBannedUntil(ctx context.Context, userID string, until *time.Time) error

	// ClearExpiredBans nils out banned_until where it has elapsed and
	// returns the number of rows touched.
	ClearExpiredBans(ctx context.Context) (int64, error)

	// DeleteUser cascades to posts, comments, likes and follows (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// GetProfile assembles the public profile with counts, from the
	// viewer's perspective. viewerID may be empty.
	GetProfile(ctx context.Context, username, viewerID string) (domain.Profile, error)

	// ListProfiles pages through all profiles ordered by follower count,
	// optionally filtered by a case-insensitive name/username search.
	ListProfiles(ctx context.Context, search, viewerID string, limit, offset int) ([]domain.Profile, int64, error)
}

type Posts interface {
	// GetPostByID returns a single post with counts from the viewer's
	// perspective. viewerID may be empty.
	GetPostByID(ctx context.Context, id, viewerID string) (domain.Post, error)

	// CreatePost inserts a new post (id is ULID).
	CreatePost(ctx context.Context, p domain.Post) error

	// UpdateCaption mutates the caption and bumps updated_at.
	UpdateCaption(ctx context.Context, postID, caption string) error

	// UpdateImage points the post at a new media object, records its
	// pixel dimensions and bumps updated_at.
	UpdateImage(ctx context.Context, postID, imageKey, imageURL string, width, height int) error

	// DeletePost cascades to comments and likes (per schema).
	DeletePost(ctx context.Context, postID string) error

	// ListFeed pages through posts for the given scope and sort.
	// For FeedPersonal, subjectID is the viewer; for FeedUser and
	// FeedLiked it is the user named in the path.
	ListFeed(ctx context.Context, scope domain.FeedScope, sort domain.FeedSort, subjectID, viewerID string, limit, offset int) ([]domain.Post, int64, error)

	// LikePost is idempotent.
	LikePost(ctx context.Context, postID, userID string) error

	// UnlikePost is idempotent.
	UnlikePost(ctx context.Context, postID, userID string) error

	// ListImageKeysByAuthor returns the media keys of every post the
	// author owns, for bulk deletion.
	ListImageKeysByAuthor(ctx context.Context, authorID string) ([]string, error)
}

type Comments interface {
	// GetCommentByID returns a comment with counts from the viewer's perspective.
	GetCommentByID(ctx context.Context, id, viewerID string) (domain.Comment, error)

	// CreateComment inserts a new comment (id is ULID).
	CreateComment(ctx context.Context, c domain.Comment) error

	// UpdateBody mutates the body and bumps updated_at.
	UpdateBody(ctx context.Context, commentID, body string) error

	// DeleteComment cascades to comment likes (per schema).
	DeleteComment(ctx context.Context, commentID string) error

	// ListByPost pages comments on a post, newest first.
	ListByPost(ctx context.Context, postID, viewerID string, limit, offset int) ([]domain.Comment, int64, error)

	// LikeComment is idempotent.
	LikeComment(ctx context.Context, commentID, userID string) error

	// UnlikeComment is idempotent.
	UnlikeComment(ctx context.Context, commentID, userID string) error
}

type Follows interface {
	// Follow is idempotent. Self-follows are the caller's problem to reject.
	Follow(ctx context.Context, followerID, followingID string) error

	// Unfollow is idempotent.
	Unfollow(ctx context.Context, followerID, followingID string) error

	// ListFollowers returns profiles following userID, ordered by follower
	// count descending.
	ListFollowers(ctx context.Context, userID, viewerID string, limit int) ([]domain.Profile, error)

	// ListFollowing returns profiles userID follows, ordered by follower
	// count descending.
	ListFollowing(ctx context.Context, userID, viewerID string, limit int) ([]domain.Profile, error)
}
