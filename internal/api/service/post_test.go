package service_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/idx"
)

// pngImage encodes a width x height PNG to stand in for an upload.
func pngImage(t *testing.T, width, height int) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return &buf
}

func TestFeedPageClamping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	posts := &service.PostService{Store: s, Media: newFakeMedia()}

	t.Run("empty feed still has one page", func(t *testing.T) {
		page, err := posts.ListFeed(ctx, domain.FeedExplore, domain.SortLatest, "", "", 1)
		require.NoError(t, err)
		require.Equal(t, 1, page.Page)
		require.Equal(t, 1, page.TotalPages)
		require.Empty(t, page.Items)
	})

	for i := 0; i < service.FeedPageSize+1; i++ {
		_, err := posts.CreatePost(ctx, user.ID, "", "image/jpeg", pngImage(t, 1, 1))
		require.NoError(t, err)
	}

	t.Run("overflow page folds back to the last page", func(t *testing.T) {
		page, err := posts.ListFeed(ctx, domain.FeedExplore, domain.SortLatest, "", "", 99)
		require.NoError(t, err)
		require.Equal(t, 2, page.Page)
		require.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Items, 1)
	})

	t.Run("page below one folds to the first page", func(t *testing.T) {
		page, err := posts.ListFeed(ctx, domain.FeedExplore, domain.SortLatest, "", "", -3)
		require.NoError(t, err)
		require.Equal(t, 1, page.Page)
		require.Len(t, page.Items, service.FeedPageSize)
	})
}

func newSecondUser(t *testing.T, s store.Store, username, role string) domain.User {
	t.Helper()

	now := time.Now()
	u := domain.User{
		ID:           idx.New().String(),
		Name:         "Test " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestPostAuthorization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, alice := newStoreWithUser(t, "alice")
	posts := &service.PostService{Store: s, Media: newFakeMedia()}

	bob := newSecondUser(t, s, "bob", domain.RoleUser)
	admin := newSecondUser(t, s, "root", domain.RoleAdmin)

	post, err := posts.CreatePost(ctx, alice.ID, "mine", "image/jpeg", pngImage(t, 1, 1))
	require.NoError(t, err)

	t.Run("only the author edits the caption", func(t *testing.T) {
		_, err := posts.UpdateCaption(ctx, post.ID, bob.ID, "hijacked")
		require.ErrorIs(t, err, service.ErrNotPostAuthor)

		got, err := posts.UpdateCaption(ctx, post.ID, alice.ID, "updated")
		require.NoError(t, err)
		require.Equal(t, "updated", got.Caption)
	})

	t.Run("non-author cannot delete", func(t *testing.T) {
		require.ErrorIs(t, posts.DeletePost(ctx, post.ID, bob), service.ErrNotPostAuthor)
	})

	t.Run("admin can delete", func(t *testing.T) {
		require.NoError(t, posts.DeletePost(ctx, post.ID, admin))
	})
}

func TestReplaceImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, alice := newStoreWithUser(t, "alice")
	media := newFakeMedia()
	posts := &service.PostService{Store: s, Media: media}

	bob := newSecondUser(t, s, "bob", domain.RoleUser)

	post, err := posts.CreatePost(ctx, alice.ID, "sunset", "image/jpeg", pngImage(t, 1, 1))
	require.NoError(t, err)
	oldURL := post.ImageURL

	t.Run("author only", func(t *testing.T) {
		_, err := posts.ReplaceImage(ctx, post.ID, bob.ID, "image/png", pngImage(t, 1, 1))
		require.ErrorIs(t, err, service.ErrNotPostAuthor)
	})

	t.Run("unsupported type rejected before anything uploads", func(t *testing.T) {
		_, err := posts.ReplaceImage(ctx, post.ID, alice.ID, "image/gif", pngImage(t, 1, 1))
		require.ErrorIs(t, err, service.ErrUnsupportedImage)
		require.Len(t, media.uploads, 1)
	})

	t.Run("replacement swaps the object and drops the old one", func(t *testing.T) {
		got, err := posts.ReplaceImage(ctx, post.ID, alice.ID, "image/png", pngImage(t, 4, 3))
		require.NoError(t, err)
		require.NotEqual(t, oldURL, got.ImageURL)
		require.Equal(t, "sunset", got.Caption)
		require.Equal(t, 4, got.ImageWidth)
		require.Equal(t, 3, got.ImageHeight)

		require.Len(t, media.uploads, 2)
		require.Equal(t, []string{"posts/" + post.ID + ".jpg"}, media.deletes)
	})
}

func TestCreatePostImageDimensions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, alice := newStoreWithUser(t, "alice")
	posts := &service.PostService{Store: s, Media: newFakeMedia()}

	t.Run("pixel dimensions are recorded", func(t *testing.T) {
		post, err := posts.CreatePost(ctx, alice.ID, "wide", "image/png", pngImage(t, 6, 2))
		require.NoError(t, err)
		require.Equal(t, 6, post.ImageWidth)
		require.Equal(t, 2, post.ImageHeight)

		got, err := posts.GetPost(ctx, post.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, 6, got.ImageWidth)
		require.Equal(t, 2, got.ImageHeight)
	})

	t.Run("undecodable payload stores zero dimensions", func(t *testing.T) {
		post, err := posts.CreatePost(ctx, alice.ID, "", "image/png", bytes.NewReader([]byte("not a png")))
		require.NoError(t, err)
		require.Zero(t, post.ImageWidth)
		require.Zero(t, post.ImageHeight)
	})

	t.Run("oversized payload is rejected", func(t *testing.T) {
		huge := io.MultiReader(pngImage(t, 1, 1), bytes.NewReader(make([]byte, service.MaxImageBytes)))
		_, err := posts.CreatePost(ctx, alice.ID, "", "image/png", huge)
		require.ErrorIs(t, err, service.ErrImageTooLarge)
	})
}

func TestCommentAuthorization(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, alice := newStoreWithUser(t, "alice")
	posts := &service.PostService{Store: s, Media: newFakeMedia()}
	comments := &service.CommentService{Store: s}

	bob := newSecondUser(t, s, "bob", domain.RoleUser)
	admin := newSecondUser(t, s, "root", domain.RoleAdmin)

	post, err := posts.CreatePost(ctx, alice.ID, "", "image/jpeg", pngImage(t, 1, 1))
	require.NoError(t, err)

	comment, err := comments.Create(ctx, post.ID, bob.ID, "first")
	require.NoError(t, err)

	t.Run("stranger cannot edit", func(t *testing.T) {
		alice, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)

		_, err = comments.Update(ctx, comment.ID, "defaced", alice)
		require.ErrorIs(t, err, service.ErrNotCommentAuthor)
	})

	t.Run("author edits", func(t *testing.T) {
		got, err := comments.Update(ctx, comment.ID, "edited", bob)
		require.NoError(t, err)
		require.Equal(t, "edited", got.Body)
	})

	t.Run("admin deletes", func(t *testing.T) {
		require.NoError(t, comments.Delete(ctx, comment.ID, admin))
	})
}
