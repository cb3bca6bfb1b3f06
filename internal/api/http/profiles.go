package http

import (
	"net/http"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/pkg/httpx"
)

type ProfilesHandler struct {
	ProfileService *service.ProfileService
}

// HandleList godoc
//
//	@Summary		List Profiles
//	@Description	Pages through all profiles ordered by follower count, optionally filtered by a search term
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page	query	int		false	"Page number, folded into the valid range"
//	@Param			search	query	string	false	"Case-insensitive name or username filter"
//	@Success		200	{object}	domain.Page[domain.Profile]
//	@Router			/v1/profiles [get].
func (h *ProfilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.ProfileService.ListProfiles(r.Context(),
		q.Get("search"), httpx.UserIDFromCtx(r.Context()), pageParam(q.Get("page")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, page)
}

// HandleGet godoc
//
//	@Summary	Get Profile
//	@Tags		Profiles
//	@Security	BearerAuth
//	@Produce	json
//	@Param		username	path		string	true	"Profile username"
//	@Success	200			{object}	domain.Profile
//	@Failure	404			{object}	httpx.Envelope	"NOT_FOUND"
//	@Router		/v1/profiles/{username} [get].
func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ProfileService.GetProfile(r.Context(),
		r.PathValue("username"), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, profile)
}

// HandleFollow godoc
//
//	@Summary		Follow Profile
//	@Description	Makes the viewer follow the named profile. Following twice is a no-op.
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Param			username	path	string	true	"Profile username"
//	@Success		204
//	@Failure		404	{object}	httpx.Envelope	"NOT_FOUND"
//	@Router			/v1/profiles/{username}/follow [post].
func (h *ProfilesHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	err := h.ProfileService.Follow(r.Context(),
		httpx.UserIDFromCtx(r.Context()), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnfollow godoc
//
//	@Summary	Unfollow Profile
//	@Tags		Profiles
//	@Security	BearerAuth
//	@Param		username	path	string	true	"Profile username"
//	@Success	204
//	@Router		/v1/profiles/{username}/follow [delete].
func (h *ProfilesHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	err := h.ProfileService.Unfollow(r.Context(),
		httpx.UserIDFromCtx(r.Context()), r.PathValue("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFollowers godoc
//
//	@Summary		List Followers
//	@Description	Lists who follows the named profile, most-followed first. Limit is clamped to [10, 50].
//	@Tags			Profiles
//	@Security		BearerAuth
//	@Produce		json
//	@Param			username	path	string	true	"Profile username"
//	@Param			limit		query	int		false	"Max results, clamped to [10, 50]"
//	@Success		200	{array}	domain.Profile
//	@Router			/v1/profiles/{username}/followers [get].
func (h *ProfilesHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.ProfileService.Followers(r.Context(),
		r.PathValue("username"), httpx.UserIDFromCtx(r.Context()),
		limitParam(r.URL.Query().Get("limit"), service.MinRelationLimit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, profiles)
}

// HandleFollowing godoc
//
//	@Summary	List Following
//	@Tags		Profiles
//	@Security	BearerAuth
//	@Produce	json
//	@Param		username	path	string	true	"Profile username"
//	@Param		limit		query	int		false	"Max results, clamped to [10, 50]"
//	@Success	200	{array}	domain.Profile
//	@Router		/v1/profiles/{username}/following [get].
func (h *ProfilesHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.ProfileService.Following(r.Context(),
		r.PathValue("username"), httpx.UserIDFromCtx(r.Context()),
		limitParam(r.URL.Query().Get("limit"), service.MinRelationLimit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, profiles)
}
