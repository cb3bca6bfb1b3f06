package domain

import "time"

// FeedScope selects which posts a feed query returns.
type FeedScope string

const (
	FeedPersonal FeedScope = "personal" // posts by users the viewer follows
	FeedExplore  FeedScope = "explore"  // everything
	FeedUser     FeedScope = "user"     // a single author's posts
	FeedLiked    FeedScope = "liked"    // posts the named user has liked
)

// FeedSort orders a feed.
type FeedSort string

const (
	SortPopular FeedSort = "popular" // like count desc, then newest
	SortLatest  FeedSort = "latest"
	SortOldest  FeedSort = "oldest"
)

// ParseFeedSort maps a query parameter to a FeedSort, defaulting to latest.
func ParseFeedSort(s string) FeedSort {
	switch FeedSort(s) {
	case SortPopular, SortLatest, SortOldest:
		return FeedSort(s)
	default:
		return SortLatest
	}
}

type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"-"`
	AuthorUsername string    `json:"authorUsername"`
	AuthorName     string    `json:"authorName"`
	AuthorAvatar   string    `json:"authorAvatar,omitempty"`
	Caption        string    `json:"caption,omitempty"`
	ImageKey       string    `json:"-"` // object key in the media store
	ImageURL       string    `json:"imageUrl"`
	ImageWidth     int       `json:"imageWidth"`  // pixels; 0 when undecodable
	ImageHeight    int       `json:"imageHeight"` // pixels; 0 when undecodable
	LikeCount      int64     `json:"likeCount"`
	CommentCount   int64     `json:"commentCount"`
	LikedByViewer  bool      `json:"likedByViewer"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Page wraps a feed slice with its pagination window.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
}

// TotalPages computes the page count for total rows at limit per page.
// An empty result set still has one (empty) page.
func TotalPages(total int64, limit int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ClampPage folds an out-of-range page number back into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
