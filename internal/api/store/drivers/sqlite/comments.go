package sqlite

import (
	"context"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

type commentsRepo struct {
	db dbtx
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username, u.name, u.avatar_url,
		c.body,
		(SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id) AS like_count,
		EXISTS(SELECT 1 FROM comment_likes cl WHERE cl.comment_id = c.id AND cl.user_id = ?) AS liked,
		c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(scan func(dest ...any) error) (domain.Comment, error) {
	var c domain.Comment
	var createdAt, updatedAt int64
	err := scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.AuthorName, &c.AuthorAvatar,
		&c.Body, &c.LikeCount, &c.LikedByViewer,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Comment{}, err
	}
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return c, nil
}

func (r *commentsRepo) GetCommentByID(ctx context.Context, id, viewerID string) (domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, viewerID, id)
	c, err := scanComment(row.Scan)
	if err != nil {
		return domain.Comment{}, mapNotFound(err)
	}
	return c, nil
}

func (r *commentsRepo) CreateComment(ctx context.Context, c domain.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.Body,
		toUnix(c.CreatedAt), toUnix(c.UpdatedAt),
	)
	return mapConflict(err)
}

func (r *commentsRepo) UpdateBody(ctx context.Context, commentID, body string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET body = ?, updated_at = ? WHERE id = ?`,
		body, time.Now().Unix(), commentID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *commentsRepo) DeleteComment(ctx context.Context, commentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, commentID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *commentsRepo) ListByPost(ctx context.Context, postID, viewerID string, limit, offset int) ([]domain.Comment, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		commentSelect+` WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ? OFFSET ?`,
		viewerID, postID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *commentsRepo) LikeComment(ctx context.Context, commentID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comment_likes (comment_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (comment_id, user_id) DO NOTHING`,
		commentID, userID, time.Now().Unix(),
	)
	return err
}

func (r *commentsRepo) UnlikeComment(ctx context.Context, commentID, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_likes WHERE comment_id = ? AND user_id = ?`,
		commentID, userID,
	)
	return err
}
