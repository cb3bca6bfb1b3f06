package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

type postsRepo struct {
	db dbtx
}

const postSelect = `
	SELECT p.id, p.author_id, u.username, u.name, u.avatar_url,
		p.caption, p.image_key, p.image_url, p.image_width, p.image_height,
		(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
		EXISTS(SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = ?) AS liked,
		p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(scan func(dest ...any) error) (domain.Post, error) {
	var p domain.Post
	var createdAt, updatedAt int64
	err := scan(
		&p.ID, &p.AuthorID, &p.AuthorUsername, &p.AuthorName, &p.AuthorAvatar,
		&p.Caption, &p.ImageKey, &p.ImageURL, &p.ImageWidth, &p.ImageHeight,
		&p.LikeCount, &p.CommentCount, &p.LikedByViewer,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return p, nil
}

func (r *postsRepo) GetPostByID(ctx context.Context, id, viewerID string) (domain.Post, error) {
	row := r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, viewerID, id)
	p, err := scanPost(row.Scan)
	if err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	return p, nil
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, caption, image_key, image_url, image_width, image_height, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Caption, p.ImageKey, p.ImageURL,
		p.ImageWidth, p.ImageHeight,
		toUnix(p.CreatedAt), toUnix(p.UpdatedAt),
	)
	return mapConflict(err)
}

func (r *postsRepo) UpdateCaption(ctx context.Context, postID, caption string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts SET caption = ?, updated_at = ? WHERE id = ?`,
		caption, time.Now().Unix(), postID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *postsRepo) UpdateImage(ctx context.Context, postID, imageKey, imageURL string, width, height int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts SET image_key = ?, image_url = ?, image_width = ?, image_height = ?, updated_at = ?
		WHERE id = ?`,
		imageKey, imageURL, width, height, time.Now().Unix(), postID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *postsRepo) DeletePost(ctx context.Context, postID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// feedFilter returns the WHERE clause and its bind args for a feed scope.
func feedFilter(scope domain.FeedScope) (string, bool, error) {
	switch scope {
	case domain.FeedPersonal:
		return `p.author_id IN (SELECT following_id FROM follows WHERE follower_id = ?)`, true, nil
	case domain.FeedExplore:
		return `1 = 1`, false, nil
	case domain.FeedUser:
		return `p.author_id = ?`, true, nil
	case domain.FeedLiked:
		return `p.id IN (SELECT post_id FROM post_likes WHERE user_id = ?)`, true, nil
	default:
		return "", false, fmt.Errorf("unknown feed scope %q", scope)
	}
}

func feedOrder(sort domain.FeedSort) string {
	switch sort {
	case domain.SortPopular:
		return `like_count DESC, p.created_at DESC, p.id DESC`
	case domain.SortOldest:
		return `p.created_at ASC, p.id ASC`
	default:
		return `p.created_at DESC, p.id DESC`
	}
}

func (r *postsRepo) ListFeed(ctx context.Context, scope domain.FeedScope, sort domain.FeedSort, subjectID, viewerID string, limit, offset int) ([]domain.Post, int64, error) {
	filter, needsSubject, err := feedFilter(scope)
	if err != nil {
		return nil, 0, err
	}

	countArgs := []any{}
	listArgs := []any{viewerID}
	if needsSubject {
		countArgs = append(countArgs, subjectID)
		listArgs = append(listArgs, subjectID)
	}

	var total int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p WHERE `+filter,
		countArgs...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	listArgs = append(listArgs, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		postSelect+` WHERE `+filter+` ORDER BY `+feedOrder(sort)+` LIMIT ? OFFSET ?`,
		listArgs...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *postsRepo) LikePost(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO post_likes (post_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID, time.Now().Unix(),
	)
	return err
}

func (r *postsRepo) UnlikePost(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`,
		postID, userID,
	)
	return err
}

func (r *postsRepo) ListImageKeysByAuthor(ctx context.Context, authorID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT image_key FROM posts WHERE author_id = ? AND image_key != ''`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
