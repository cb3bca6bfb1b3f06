package domain

import "time"

// Role values stored on the users table.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string
	Name         string
	Username     string
	Email        string
	PasswordHash string     // argon2 encoded
	Bio          string
	AvatarKey    string     // object key in the media store, empty if none
	AvatarURL    string
	Role         string     // USER or ADMIN
	BannedUntil  *time.Time // nullable, cleared by housekeeping once elapsed
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsBanned reports whether the user is banned as of now.
func (u *User) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the public view of a user, as listed and searched.
type Profile struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio,omitempty"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	FollowerCount  int64     `json:"followerCount"`
	FollowingCount int64     `json:"followingCount"`
	PostCount      int64     `json:"postCount"`
	IsFollowing    bool      `json:"isFollowing"` // whether the viewer follows this profile
	CreatedAt      time.Time `json:"createdAt"`
}
