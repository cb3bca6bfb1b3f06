package sqlite

import (
	"context"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

type followsRepo struct {
	db dbtx
}

func (r *followsRepo) Follow(ctx context.Context, followerID, followingID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, following_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID, time.Now().Unix(),
	)
	return err
}

func (r *followsRepo) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	)
	return err
}

func (r *followsRepo) ListFollowers(ctx context.Context, userID, viewerID string, limit int) ([]domain.Profile, error) {
	return r.listRelated(ctx,
		`u.id IN (SELECT follower_id FROM follows WHERE following_id = ?)`,
		userID, viewerID, limit)
}

func (r *followsRepo) ListFollowing(ctx context.Context, userID, viewerID string, limit int) ([]domain.Profile, error) {
	return r.listRelated(ctx,
		`u.id IN (SELECT following_id FROM follows WHERE follower_id = ?)`,
		userID, viewerID, limit)
}

func (r *followsRepo) listRelated(ctx context.Context, filter, userID, viewerID string, limit int) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		profileSelect+` WHERE `+filter+`
		ORDER BY follower_count DESC, u.id ASC
		LIMIT ?`,
		viewerID, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
