package http

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Field limits for account and content input.
const (
	minNameLen     = 3
	maxNameLen     = 48
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	maxPasswordLen = 64
	maxCaptionLen  = 2048
	minCommentLen  = 1
	maxCommentLen  = 2048
	maxBioLen      = 512
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// fieldErrors collects per-field validation messages. Nil-safe checks keep
// handler code flat: run them all, then test len.
type fieldErrors map[string]string

func (f fieldErrors) checkName(name string) {
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		f["name"] = "Name must be between 3 and 48 characters"
	}
}

func (f fieldErrors) checkUsername(username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n < minUsernameLen || n > maxUsernameLen:
		f["username"] = "Username must be between 3 and 32 characters"
	case !usernameRe.MatchString(username):
		f["username"] = "Username may only contain letters, digits and underscores"
	}
}

func (f fieldErrors) checkEmail(email string) {
	if !emailRe.MatchString(email) {
		f["email"] = "A valid email address is required"
	}
}

func (f fieldErrors) checkPassword(password, confirm string) {
	if n := len(password); n < minPasswordLen || n > maxPasswordLen {
		f["password"] = "Password must be between 8 and 64 characters"
		return
	}
	if password != confirm {
		f["confirmPassword"] = "Passwords do not match"
	}
}

func (f fieldErrors) checkCaption(caption string) {
	if utf8.RuneCountInString(caption) > maxCaptionLen {
		f["caption"] = "Caption must be at most 2048 characters"
	}
}

func (f fieldErrors) checkBio(bio string) {
	if utf8.RuneCountInString(bio) > maxBioLen {
		f["bio"] = "Bio must be at most 512 characters"
	}
}

func (f fieldErrors) checkCommentBody(body string) {
	if n := utf8.RuneCountInString(strings.TrimSpace(body)); n < minCommentLen || n > maxCommentLen {
		f["body"] = "Comment must be between 1 and 2048 characters"
	}
}

// pageParam parses a ?page= query value, defaulting to 1. Range folding
// happens in the services.
func pageParam(raw string) int {
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

// limitParam parses a ?limit= query value with a fallback.
func limitParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
