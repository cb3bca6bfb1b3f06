package service

import (
	"context"
	"errors"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/idx"
)

// CommentPageSize is how many comments a page holds.
const CommentPageSize = 15

var ErrNotCommentAuthor = errors.New("not_comment_author")

// CommentService owns comments and their likes.
type CommentService struct {
	Store store.Store
}

// ListByPost pages a post's comments, newest first. Out-of-range pages fold
// back into the valid window.
func (s *CommentService) ListByPost(ctx context.Context, postID, viewerID string, page int) (domain.Page[domain.Comment], error) {
	if _, err := s.Store.Posts().GetPostByID(ctx, postID, viewerID); err != nil {
		return domain.Page[domain.Comment]{}, err
	}

	_, total, err := s.Store.Comments().ListByPost(ctx, postID, viewerID, 1, 0)
	if err != nil {
		return domain.Page[domain.Comment]{}, err
	}

	totalPages := domain.TotalPages(total, CommentPageSize)
	page = domain.ClampPage(page, totalPages)

	items, total, err := s.Store.Comments().ListByPost(ctx, postID, viewerID, CommentPageSize, (page-1)*CommentPageSize)
	if err != nil {
		return domain.Page[domain.Comment]{}, err
	}

	return domain.Page[domain.Comment]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Create adds a comment to a post.
func (s *CommentService) Create(ctx context.Context, postID, authorID, body string) (domain.Comment, error) {
	if _, err := s.Store.Posts().GetPostByID(ctx, postID, authorID); err != nil {
		return domain.Comment{}, err
	}

	now := time.Now()
	comment := domain.Comment{
		ID:        idx.NewAt(now).String(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Comments().CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, err
	}
	return s.Store.Comments().GetCommentByID(ctx, comment.ID, authorID)
}

// Update edits a comment's body. Admins may edit anyone's comment, everyone
// else only their own.
func (s *CommentService) Update(ctx context.Context, commentID, body string, actor domain.User) (domain.Comment, error) {
	comment, err := s.Store.Comments().GetCommentByID(ctx, commentID, actor.ID)
	if err != nil {
		return domain.Comment{}, err
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return domain.Comment{}, ErrNotCommentAuthor
	}

	if err := s.Store.Comments().UpdateBody(ctx, commentID, body); err != nil {
		return domain.Comment{}, err
	}
	return s.Store.Comments().GetCommentByID(ctx, commentID, actor.ID)
}

// Delete removes a comment under the same authorization rule as Update.
func (s *CommentService) Delete(ctx context.Context, commentID string, actor domain.User) error {
	comment, err := s.Store.Comments().GetCommentByID(ctx, commentID, actor.ID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrNotCommentAuthor
	}
	return s.Store.Comments().DeleteComment(ctx, commentID)
}

// Like records the viewer's like on a comment. Repeats are no-ops.
func (s *CommentService) Like(ctx context.Context, commentID, viewerID string) error {
	if _, err := s.Store.Comments().GetCommentByID(ctx, commentID, viewerID); err != nil {
		return err
	}
	return s.Store.Comments().LikeComment(ctx, commentID, viewerID)
}

// Unlike removes the viewer's like on a comment. Repeats are no-ops.
func (s *CommentService) Unlike(ctx context.Context, commentID, viewerID string) error {
	if _, err := s.Store.Comments().GetCommentByID(ctx, commentID, viewerID); err != nil {
		return err
	}
	return s.Store.Comments().UnlikeComment(ctx, commentID, viewerID)
}
