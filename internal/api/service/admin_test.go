package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/idx"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
)

// fakeMedia records every call and can be told to fail specific batches.
type fakeMedia struct {
	uploads     []string
	deletes     []string
	batches     [][]string
	failBatches map[int]error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{failBatches: map[int]error{}}
}

func (f *fakeMedia) Upload(ctx context.Context, key, contentType string, body io.Reader) (mediastore.Upload, error) {
	f.uploads = append(f.uploads, key)
	return mediastore.Upload{Key: key, URL: "https://media.test/" + key}, nil
}

func (f *fakeMedia) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeMedia) DeleteBatch(ctx context.Context, keys []string) error {
	n := len(f.batches)
	f.batches = append(f.batches, append([]string(nil), keys...))
	if err, ok := f.failBatches[n]; ok {
		return err
	}
	return nil
}

func TestAdminDeleteUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	media := newFakeMedia()

	posts := &service.PostService{Store: s, Media: media}
	admin := &service.AdminService{Store: s, Media: media, DeleteBatchSize: 2}

	var keys []string
	for i := 0; i < 5; i++ {
		p, err := posts.CreatePost(ctx, user.ID, "caption", "image/jpeg", pngImage(t, 1, 1))
		require.NoError(t, err)
		keys = append(keys, p.ImageKey)
	}

	require.NoError(t, admin.DeleteUser(ctx, "alice"))

	t.Run("media deleted in capped batches", func(t *testing.T) {
		require.Len(t, media.batches, 3)
		require.Len(t, media.batches[0], 2)
		require.Len(t, media.batches[1], 2)
		require.Len(t, media.batches[2], 1)

		var sent []string
		for _, b := range media.batches {
			sent = append(sent, b...)
		}
		require.ElementsMatch(t, keys, sent)
	})

	t.Run("row is gone", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, user.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		require.ErrorIs(t, admin.DeleteUser(ctx, "nobody"), store.ErrNotFound)
	})
}

func TestAdminDeleteUserSurvivesFailedBatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	media := newFakeMedia()
	media.failBatches[0] = errors.New("bucket unavailable")

	posts := &service.PostService{Store: s, Media: media}
	admin := &service.AdminService{Store: s, Media: media, DeleteBatchSize: 2}

	for i := 0; i < 3; i++ {
		_, err := posts.CreatePost(ctx, user.ID, "", "image/png", pngImage(t, 1, 1))
		require.NoError(t, err)
	}

	require.NoError(t, admin.DeleteUser(ctx, "alice"))

	// Both batches were attempted despite the first one failing.
	require.Len(t, media.batches, 2)

	_, err := s.Users().GetUserByID(ctx, user.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdminBanAndUnban(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")
	admin := &service.AdminService{Store: s, Media: newFakeMedia()}

	until := time.Now().Add(48 * time.Hour)
	banned, err := admin.Ban(ctx, "alice", until)
	require.NoError(t, err)
	require.NotNil(t, banned.BannedUntil)
	require.True(t, banned.IsBanned(time.Now()))

	t.Run("banned user cannot get tokens", func(t *testing.T) {
		svc := newTokenService(t, s)
		_, err := svc.IssueInitialTokens(ctx, user.ID)

		var be *service.BannedError
		require.ErrorAs(t, err, &be)
	})

	unbanned, err := admin.Unban(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, unbanned.BannedUntil)
}

func TestHousekeepingSweepClearsElapsedBans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, user := newStoreWithUser(t, "alice")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, s.Users().SetBannedUntil(ctx, user.ID, &past))

	other := domain.User{
		ID: idx.New().String(), Name: "Bob", Username: "bob",
		Email: "bob@example.com", PasswordHash: "hash", Role: domain.RoleUser,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, s.Users().CreateUser(ctx, other))
	future := time.Now().Add(time.Hour)
	require.NoError(t, s.Users().SetBannedUntil(ctx, other.ID, &future))

	hk := service.NewHousekeepingService(s, slogDiscard(), 50*time.Millisecond)
	hk.Start()
	defer hk.Stop()

	require.Eventually(t, func() bool {
		got, err := s.Users().GetUserByID(ctx, user.ID)
		return err == nil && got.BannedUntil == nil
	}, time.Second, 20*time.Millisecond)

	got, err := s.Users().GetUserByID(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BannedUntil)
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
