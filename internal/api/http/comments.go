package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type CommentsHandler struct {
	CommentService *service.CommentService
	AccountService *service.AccountService
}

// HandleList godoc
//
//	@Summary		List Comments
//	@Description	Pages a post's comments, newest first
//	@Tags			Comments
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id		path	string	true	"Post id"
//	@Param			page	query	int		false	"Page number, folded into the valid range"
//	@Success		200	{object}	domain.Page[domain.Comment]
//	@Failure		404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router			/v1/posts/{id}/comments [get].
func (h *CommentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.CommentService.ListByPost(r.Context(), r.PathValue("id"),
		httpx.UserIDFromCtx(r.Context()), pageParam(r.URL.Query().Get("page")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, page)
}

type commentRequest struct {
	Body string `json:"body"`
}

// HandleCreate godoc
//
//	@Summary	Create Comment
//	@Tags		Comments
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id	path		string	true	"Post id"
//	@Success	201	{object}	domain.Comment
//	@Failure	400	{object}	httpx.Envelope	"VALIDATION_ERROR"
//	@Router		/v1/posts/{id}/comments [post].
func (h *CommentsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.commentBody(w, r)
	if !ok {
		return
	}

	comment, err := h.CommentService.Create(r.Context(), r.PathValue("id"),
		httpx.UserIDFromCtx(r.Context()), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusCreated, comment)
}

// HandleUpdate godoc
//
//	@Summary		Edit Comment
//	@Description	The author may edit their own comment; admins may edit any
//	@Tags			Comments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Comment id"
//	@Success		200	{object}	domain.Comment
//	@Failure		403	{object}	httpx.Envelope	"FORBIDDEN"
//	@Router			/v1/comments/{id} [patch].
func (h *CommentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.commentBody(w, r)
	if !ok {
		return
	}

	actor, err := h.AccountService.GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	comment, err := h.CommentService.Update(r.Context(), r.PathValue("id"), body, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, comment)
}

// HandleDelete godoc
//
//	@Summary		Delete Comment
//	@Description	The author may delete their own comment; admins may delete any
//	@Tags			Comments
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Comment id"
//	@Success		204
//	@Failure		403	{object}	httpx.Envelope	"FORBIDDEN"
//	@Router			/v1/comments/{id} [delete].
func (h *CommentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.AccountService.GetUserByID(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.CommentService.Delete(r.Context(), r.PathValue("id"), actor); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLike godoc
//
//	@Summary	Like Comment
//	@Tags		Comments
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Comment id"
//	@Success	204
//	@Router		/v1/comments/{id}/like [post].
func (h *CommentsHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	if err := h.CommentService.Like(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlike godoc
//
//	@Summary	Unlike Comment
//	@Tags		Comments
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Comment id"
//	@Success	204
//	@Router		/v1/comments/{id}/like [delete].
func (h *CommentsHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	if err := h.CommentService.Unlike(r.Context(), r.PathValue("id"), httpx.UserIDFromCtx(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentsHandler) commentBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid request body")
		return "", false
	}

	body := strings.TrimSpace(req.Body)
	fields := fieldErrors{}
	fields.checkCommentBody(body)
	if len(fields) > 0 {
		httpx.WriteValidationError(w, fields)
		return "", false
	}
	return body, true
}
