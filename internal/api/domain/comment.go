package domain

import "time"

type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	AuthorID       string    `json:"-"`
	AuthorUsername string    `json:"authorUsername"`
	AuthorName     string    `json:"authorName"`
	AuthorAvatar   string    `json:"authorAvatar,omitempty"`
	Body           string    `json:"body"`
	LikeCount      int64     `json:"likeCount"`
	LikedByViewer  bool      `json:"likedByViewer"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
