package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/batch"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

// AdminService implements moderation: bans and full account removal.
type AdminService struct {
	Store store.Store
	Media mediastore.Store

	// DeleteBatchSize caps how many media keys go into one bulk delete
	// request. Zero means mediastore.MaxDeleteBatch.
	DeleteBatchSize int
}

// Ban blocks an account until the given time. Existing access tokens keep
// working until they expire; refreshes are refused from now on.
func (s *AdminService) Ban(ctx context.Context, username string, until time.Time) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().SetBannedUntil(ctx, user.ID, &until); err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user banned",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Time("until", until))

	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// Unban lifts a ban immediately.
func (s *AdminService) Unban(ctx context.Context, username string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().SetBannedUntil(ctx, user.ID, nil); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, user.ID)
}

// DeleteUser removes an account and everything it owns. Media cleanup runs
// first: every post image key is collected, partitioned into bulk-delete
// sized batches and sent to the media store. A failed batch is logged and
// skipped so one bad request doesn't leave the rest of the media behind, and
// never blocks the row delete that follows.
func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	keys, err := s.Store.Posts().ListImageKeysByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}

	batchSize := s.DeleteBatchSize
	if batchSize <= 0 {
		batchSize = mediastore.MaxDeleteBatch
	}

	batches, err := batch.MakeBatches(keys, batchSize)
	if err != nil {
		return err
	}
	for i, b := range batches {
		if err := s.Media.DeleteBatch(ctx, b); err != nil {
			l.Error("bulk media delete failed",
				slog.Int("batch", i),
				slog.Int("keys", len(b)),
				slog.String("error", err.Error()))
		}
	}

	if user.AvatarKey != "" {
		if err := s.Media.Delete(ctx, user.AvatarKey); err != nil {
			l.Warn("failed to delete avatar",
				slog.String("key", user.AvatarKey),
				slog.String("error", err.Error()))
		}
	}

	if err := s.Store.Users().DeleteUser(ctx, user.ID); err != nil {
		return err
	}

	l.Info("user deleted",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Int("media_batches", len(batches)))
	return nil
}
