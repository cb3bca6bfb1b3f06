package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

// TestAdminDeleteUserRemovesMedia: deleting an account takes its posts,
// comments and stored images with it. The server under test runs with a
// media delete batch size of 2, so five images need three provider calls.
func TestAdminDeleteUserRemovesMedia(t *testing.T) {
	e := setupServer(t)

	bob := signUp(t, e, "bob")
	carol := signUp(t, e, "carol")

	var keys []string
	for _, caption := range []string{"one", "two", "three", "four", "five"} {
		post := createPost(t, bob, caption)
		keys = append(keys, "posts/"+post.ID+".png")
	}
	carolPost := createPost(t, carol, "survivor")

	admin := signInAdmin(t, e)
	status, _ := admin.do(http.MethodDelete, "/v1/admin/users/bob", nil)
	require.Equal(t, http.StatusNoContent, status)

	// Every one of bob's image keys went to the provider, split into
	// batches of at most two.
	require.ElementsMatch(t, keys, e.media.deletedKeys())
	require.Equal(t, 3, e.media.batchCount())

	// The account and its content are gone; carol's post is untouched.
	status, resp := admin.do(http.MethodGet, "/v1/profiles/bob", nil)
	assertErrorCode(t, http.StatusNotFound, "NOT_FOUND", status, resp)

	var feed domain.Page[domain.Post]
	admin.dataInto(http.MethodGet, "/v1/posts/feed/explore", nil, &feed)
	require.Len(t, feed.Items, 1)
	require.Equal(t, carolPost.ID, feed.Items[0].ID)

	// Deleting again is a 404, not a crash.
	status, resp = admin.do(http.MethodDelete, "/v1/admin/users/bob", nil)
	assertErrorCode(t, http.StatusNotFound, "NOT_FOUND", status, resp)
}

// TestAdminCanModerateContent: admins may delete any post or comment
// without being the author.
func TestAdminCanModerateContent(t *testing.T) {
	e := setupServer(t)

	bob := signUp(t, e, "bob")
	post := createPost(t, bob, "questionable")

	var comment domain.Comment
	bob.dataInto(http.MethodPost, "/v1/posts/"+post.ID+"/comments",
		map[string]string{"body": "also questionable"}, &comment)

	admin := signInAdmin(t, e)

	status, _ := admin.do(http.MethodDelete, "/v1/comments/"+comment.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = admin.do(http.MethodDelete, "/v1/posts/"+post.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, resp := bob.do(http.MethodGet, "/v1/posts/"+post.ID, nil)
	assertErrorCode(t, http.StatusNotFound, "NOT_FOUND", status, resp)
}
