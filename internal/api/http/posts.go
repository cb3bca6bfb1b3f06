package http

import (
	"encoding/json"
	"net/http"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type PostsHandler struct {
	PostService    *service.PostService
	AccountService *service.AccountService
}

// HandleFeed godoc
//
//	@Summary		Post Feed
//	@Description	Pages through posts. The scope path segment selects the feed: personal (followed authors), explore (everything), user/{username}, or liked/{username}. Sort is popular, latest or oldest.
//	@Tags			Posts
//	@Security		BearerAuth
//	@Produce		json
//	@Param			scope	path	string	true	"personal or explore"
//	@Param			page	query	int		false	"Page number, folded into the valid range"
//	@Param			sort	query	string	false	"popular, latest or oldest (default latest)"
//	@Success		200	{object}	domain.Page[domain.Post]
//	@Router			/v1/posts/feed/{scope} [get].
func (h *PostsHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := domain.ParseFeedSort(q.Get("sort"))
	viewerID := httpx.UserIDFromCtx(r.Context())

	var scope domain.FeedScope
	switch r.PathValue("scope") {
	case "personal":
		scope = domain.FeedPersonal
	case "explore":
		scope = domain.FeedExplore
	default:
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "Unknown feed")
		return
	}

	page, err := h.PostService.ListFeed(r.Context(), scope, sort, "", viewerID, pageParam(q.Get("page")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, page)
}

// HandleUserFeed godoc
//
//	@Summary	Posts By User
//	@Tags		Posts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		username	path	string	true	"Author username"
//	@Success	200	{object}	domain.Page[domain.Post]
//	@Failure	404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/posts/user/{username} [get].
func (h *PostsHandler) HandleUserFeed(w http.ResponseWriter, r *http.Request) {
	h.handleSubjectFeed(w, r, domain.FeedUser)
}

// HandleLikedFeed godoc
//
//	@Summary	Posts Liked By User
//	@Tags		Posts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		username	path	string	true	"Username whose likes to list"
//	@Success	200	{object}	domain.Page[domain.Post]
//	@Failure	404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/posts/liked/{username} [get].
func (h *PostsHandler) HandleLikedFeed(w http.ResponseWriter, r *http.Request) {
	h.handleSubjectFeed(w, r, domain.FeedLiked)
}

func (h *PostsHandler) handleSubjectFeed(w http.ResponseWriter, r *http.Request, scope domain.FeedScope) {
	q := r.URL.Query()
	page, err := h.PostService.ListFeed(r.Context(), scope, domain.ParseFeedSort(q.Get("sort")),
		r.PathValue("username"), httpx.UserIDFromCtx(r.Context()), pageParam(q.Get("page")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, page)
}

// HandleGet godoc
//
//	@Summary	Get Post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Post id"
//	@Success	200	{object}	domain.Post
//	@Failure	404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/posts/{id} [get].
func (h *PostsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.PostService.GetPost(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, post)
}

// HandleCreate godoc
//
//	@Summary		Create Post
//	@Description	Uploads a JPEG, PNG or WebP image of at most 9 MiB with an optional caption
//	@Tags			Posts
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	domain.Post
//	@Failure		400	{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Router			/v1/posts [post].
func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	file, contentType, ok := imageFromMultipart(w, r)
	if !ok {
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")
	fields := fieldErrors{}
	fields.checkCaption(caption)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), httpx.UserIDFromCtx(r.Context()), caption, contentType, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, post)
}

type updatePostRequest struct {
	Caption string `json:"caption"`
}

// HandleUpdate godoc
//
//	@Summary	Update Post Caption
//	@Tags		Posts
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id	path		string	true	"Post id"
//	@Success	200	{object}	domain.Post
//	@Failure	403	{object}	httpx.Envelope	"FORBIDDEN when not the author"
//	@Router		/v1/posts/{id} [patch].
func (h *PostsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return
	}

	fields := fieldErrors{}
	fields.checkCaption(req.Caption)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return
	}

	post, err := h.PostService.UpdateCaption(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context()), req.Caption)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, post)
}

// HandleReplaceImage godoc
//
//	@Summary		Replace Post Image
//	@Description	Uploads a new image for the post and deletes the old one. Author only.
//	@Tags			Posts
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Post id"
//	@Param			image	formData	file	true	"Image file (JPEG, PNG or WebP, max 9 MiB)"
//	@Success		200		{object}	domain.Post
//	@Failure		400		{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Failure		403		{object}	httpx.Envelope	"FORBIDDEN when not the author"
//	@Router			/v1/posts/{id}/image [put].
func (h *PostsHandler) HandleReplaceImage(w http.ResponseWriter, r *http.Request) {
	file, contentType, ok := imageFromMultipart(w, r)
	if !ok {
		return
	}
	defer file.Close()

	post, err := h.PostService.ReplaceImage(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context()), contentType, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, post)
}

// HandleDelete godoc
//
//	@Summary		Delete Post
//	@Description	Removes a post and its image. Admins may delete any post.
//	@Tags			Posts
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Post id"
//	@Success		204
//	@Failure		403	{object}	httpx.Envelope	"FORBIDDEN"
//	@Router			/v1/posts/{id} [delete].
func (h *PostsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.AccountService.GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.PostService.DeletePost(r.Context(), r.PathValue("id"), actor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLike godoc
//
//	@Summary	Like Post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Post id"
//	@Success	204
//	@Failure	404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/posts/{id}/like [post].
func (h *PostsHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	if err := h.PostService.Like(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlike godoc
//
//	@Summary	Unlike Post
//	@Tags		Posts
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Post id"
//	@Success	204
//	@Router		/v1/posts/{id}/like [delete].
func (h *PostsHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	if err := h.PostService.Unlike(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
