package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/idx"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

// FeedPageSize is how many posts a feed page holds.
const FeedPageSize = 15

var ErrNotPostAuthor = errors.New("not_post_author")

// PostService owns posts, their images and their likes.
type PostService struct {
	Store store.Store
	Media mediastore.Store
}

// ListFeed returns one page of the requested feed. For the user and liked
// scopes, subjectUsername names whose posts or likes to list; for the
// personal scope the viewer is the subject. Out-of-range pages fold back
// into the valid window.
func (s *PostService) ListFeed(ctx context.Context, scope domain.FeedScope, sort domain.FeedSort, subjectUsername, viewerID string, page int) (domain.Page[domain.Post], error) {
	subjectID := viewerID
	if scope == domain.FeedUser || scope == domain.FeedLiked {
		subject, err := s.Store.Users().GetUserByUsername(ctx, subjectUsername)
		if err != nil {
			return domain.Page[domain.Post]{}, err
		}
		subjectID = subject.ID
	}

	_, total, err := s.Store.Posts().ListFeed(ctx, scope, sort, subjectID, viewerID, 1, 0)
	if err != nil {
		return domain.Page[domain.Post]{}, err
	}

	totalPages := domain.TotalPages(total, FeedPageSize)
	page = domain.ClampPage(page, totalPages)

	items, total, err := s.Store.Posts().ListFeed(ctx, scope, sort, subjectID, viewerID, FeedPageSize, (page-1)*FeedPageSize)
	if err != nil {
		return domain.Page[domain.Post]{}, err
	}

	return domain.Page[domain.Post]{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// GetPost returns a single post from the viewer's perspective.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (domain.Post, error) {
	return s.Store.Posts().GetPostByID(ctx, postID, viewerID)
}

// CreatePost uploads the image first, then writes the row. If the row write
// fails the uploaded object is removed again so the bucket doesn't collect
// orphans.
func (s *PostService) CreatePost(ctx context.Context, authorID, caption, contentType string, image io.Reader) (domain.Post, error) {
	ext, err := imageExt(contentType)
	if err != nil {
		return domain.Post{}, err
	}
	data, err := readImage(image)
	if err != nil {
		return domain.Post{}, err
	}
	width, height := imageDims(data)

	now := time.Now()
	id := idx.NewAt(now).String()
	key := "posts/" + id + ext

	up, err := s.Media.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return domain.Post{}, err
	}

	post := domain.Post{
		ID:          id,
		AuthorID:    authorID,
		Caption:     caption,
		ImageKey:    up.Key,
		ImageURL:    up.URL,
		ImageWidth:  width,
		ImageHeight: height,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Posts().CreatePost(ctx, post); err != nil {
		if delErr := s.Media.Delete(ctx, up.Key); delErr != nil {
			slogx.FromContext(ctx).Warn("failed to roll back uploaded image",
				slog.String("key", up.Key),
				slog.String("error", delErr.Error()))
		}
		return domain.Post{}, err
	}

	return s.Store.Posts().GetPostByID(ctx, post.ID, authorID)
}

// UpdateCaption lets the author change a post's caption.
func (s *PostService) UpdateCaption(ctx context.Context, postID, actorID, caption string) (domain.Post, error) {
	post, err := s.Store.Posts().GetPostByID(ctx, postID, actorID)
	if err != nil {
		return domain.Post{}, err
	}
	if post.AuthorID != actorID {
		return domain.Post{}, ErrNotPostAuthor
	}

	if err := s.Store.Posts().UpdateCaption(ctx, postID, caption); err != nil {
		return domain.Post{}, err
	}
	return s.Store.Posts().GetPostByID(ctx, postID, actorID)
}

// ReplaceImage swaps a post's image for a freshly uploaded one. Author
// only. The new object goes up under its own key before the row switches
// over, so a failed upload leaves the post untouched; the old object is
// removed afterwards, best effort.
func (s *PostService) ReplaceImage(ctx context.Context, postID, actorID, contentType string, image io.Reader) (domain.Post, error) {
	ext, err := imageExt(contentType)
	if err != nil {
		return domain.Post{}, err
	}
	data, err := readImage(image)
	if err != nil {
		return domain.Post{}, err
	}
	width, height := imageDims(data)

	post, err := s.Store.Posts().GetPostByID(ctx, postID, actorID)
	if err != nil {
		return domain.Post{}, err
	}
	if post.AuthorID != actorID {
		return domain.Post{}, ErrNotPostAuthor
	}

	key := "posts/" + idx.New().String() + ext
	up, err := s.Media.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return domain.Post{}, err
	}

	if err := s.Store.Posts().UpdateImage(ctx, postID, up.Key, up.URL, width, height); err != nil {
		if delErr := s.Media.Delete(ctx, up.Key); delErr != nil {
			slogx.FromContext(ctx).Warn("failed to roll back uploaded image",
				slog.String("key", up.Key),
				slog.String("error", delErr.Error()))
		}
		return domain.Post{}, err
	}

	if post.ImageKey != "" && post.ImageKey != up.Key {
		if err := s.Media.Delete(ctx, post.ImageKey); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete replaced post image",
				slog.String("key", post.ImageKey),
				slog.String("error", err.Error()))
		}
	}

	return s.Store.Posts().GetPostByID(ctx, postID, actorID)
}

// DeletePost removes a post and its image. Admins may delete anyone's post,
// everyone else only their own. The row goes first; a leftover image object
// is only logged since nothing references it anymore.
func (s *PostService) DeletePost(ctx context.Context, postID string, actor domain.User) error {
	post, err := s.Store.Posts().GetPostByID(ctx, postID, actor.ID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrNotPostAuthor
	}

	if err := s.Store.Posts().DeletePost(ctx, postID); err != nil {
		return err
	}

	if post.ImageKey != "" {
		if err := s.Media.Delete(ctx, post.ImageKey); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete post image",
				slog.String("key", post.ImageKey),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Like records the viewer's like. Repeats are no-ops.
func (s *PostService) Like(ctx context.Context, postID, viewerID string) error {
	if _, err := s.Store.Posts().GetPostByID(ctx, postID, viewerID); err != nil {
		return err
	}
	return s.Store.Posts().LikePost(ctx, postID, viewerID)
}

// Unlike removes the viewer's like. Repeats are no-ops.
func (s *PostService) Unlike(ctx context.Context, postID, viewerID string) error {
	if _, err := s.Store.Posts().GetPostByID(ctx, postID, viewerID); err != nil {
		return err
	}
	return s.Store.Posts().UnlikePost(ctx, postID, viewerID)
}
