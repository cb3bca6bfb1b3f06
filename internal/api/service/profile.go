package service

import (
	"context"
	"errors"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
)

// ProfilePageSize is how many profiles a listing page holds.
const ProfilePageSize = 25

// Follower and following listings take a client-chosen limit inside these bounds.
const (
	MinRelationLimit = 10
	MaxRelationLimit = 50
)

var ErrSelfFollow = errors.New("cannot_follow_self")

// ProfileService serves public profiles and the follow graph.
type ProfileService struct {
	Store store.Store
}

// GetProfile returns the named profile from the viewer's perspective.
// viewerID may be empty for anonymous reads.
func (s *ProfileService) GetProfile(ctx context.Context, username, viewerID string) (domain.Profile, error) {
	return s.Store.Users().GetProfile(ctx, username, viewerID)
}

// ListProfiles pages through all profiles ordered by follower count. An
// out-of-range page folds back into the valid window instead of erroring.
func (s *ProfileService) ListProfiles(ctx context.Context, search, viewerID string, page int) (domain.Page[domain.Profile], error) {
	_, total, err := s.Store.Users().ListProfiles(ctx, search, viewerID, 1, 0)
	if err != nil {
		return domain.Page[domain.Profile]{}, err
	}

	totalPages := domain.TotalPages(total, ProfilePageSize)
	page = domain.ClampPage(page, totalPages)

	items, total, err := s.Store.Users().ListProfiles(ctx, search, viewerID, ProfilePageSize, (page-1)*ProfilePageSize)
	if err != nil {
		return domain.Page[domain.Profile]{}, err
	}

	return domain.Page[domain.Profile]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Follow makes the viewer follow the named profile. Repeats are no-ops.
func (s *ProfileService) Follow(ctx context.Context, viewerID, username string) error {
	target, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == viewerID {
		return ErrSelfFollow
	}
	return s.Store.Follows().Follow(ctx, viewerID, target.ID)
}

// Unfollow removes the follow edge. Repeats are no-ops.
func (s *ProfileService) Unfollow(ctx context.Context, viewerID, username string) error {
	target, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.Store.Follows().Unfollow(ctx, viewerID, target.ID)
}

// Followers lists who follows the named profile, most-followed first.
func (s *ProfileService) Followers(ctx context.Context, username, viewerID string, limit int) ([]domain.Profile, error) {
	target, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Store.Follows().ListFollowers(ctx, target.ID, viewerID, clampRelationLimit(limit))
}

// Following lists who the named profile follows, most-followed first.
func (s *ProfileService) Following(ctx context.Context, username, viewerID string, limit int) ([]domain.Profile, error) {
	target, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Store.Follows().ListFollowing(ctx, target.ID, viewerID, clampRelationLimit(limit))
}

func clampRelationLimit(limit int) int {
	if limit < MinRelationLimit {
		return MinRelationLimit
	}
	if limit > MaxRelationLimit {
		return MaxRelationLimit
	}
	return limit
}
