package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store"
	"github.com/glimpse-social/glimpse/pkg/httpx"
	"github.com/glimpse-social/glimpse/pkg/jwtx"
	"github.com/glimpse-social/glimpse/pkg/slogx"

	_ "github.com/glimpse-social/glimpse/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService   *service.TokenService
	AccountService *service.AccountService
	ProfileService *service.ProfileService
	PostService    *service.PostService
	CommentService *service.CommentService
	AdminService   *service.AdminService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerProfiles()
	r.registerPosts()
	r.registerComments()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Glimpse API
//	@version		0.1.0
//	@description	Backend API for the Glimpse photo-sharing service: accounts, profiles,
//	@description	posts with image uploads, comments, likes, follows and admin moderation.
//	@description	Access and refresh tokens are HS256 JWTs.
//
//	@contact.name				Glimpse Team
//	@contact.url				https://github.com/glimpse-social/glimpse
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps a handler with token verification and a per-user rate limit.
func (r *Router) secured(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AccountService: r.AccountService, TokenService: r.TokenService}

	// Credential and signup endpoints take the strict per-IP limit to slow
	// down brute force and bulk registration.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	r.Mux.Handle("GET /v1/auth/check",
		r.secured(http.HandlerFunc(h.HandleCheck), httpx.LenientLimit))
}

func (r *Router) registerAccount() {
	h := &AccountHandler{AccountService: r.AccountService}

	r.Mux.Handle("GET /v1/account",
		r.secured(http.HandlerFunc(h.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/account",
		r.secured(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/account/password",
		r.secured(http.HandlerFunc(h.HandleChangePassword), httpx.StrictLimit))
	r.Mux.Handle("PUT /v1/account/avatar",
		r.secured(http.HandlerFunc(h.HandleSetAvatar), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/account/avatar",
		r.secured(http.HandlerFunc(h.HandleRemoveAvatar), httpx.ModerateLimit))
}

func (r *Router) registerProfiles() {
	h := &ProfilesHandler{ProfileService: r.ProfileService}

	r.Mux.Handle("GET /v1/profiles",
		r.secured(http.HandlerFunc(h.HandleList), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/profiles/{username}",
		r.secured(http.HandlerFunc(h.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("POST /v1/profiles/{username}/follow",
		r.secured(http.HandlerFunc(h.HandleFollow), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/profiles/{username}/follow",
		r.secured(http.HandlerFunc(h.HandleUnfollow), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/profiles/{username}/followers",
		r.secured(http.HandlerFunc(h.HandleFollowers), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/profiles/{username}/following",
		r.secured(http.HandlerFunc(h.HandleFollowing), httpx.LenientLimit))
}

func (r *Router) registerPosts() {
	h := &PostsHandler{PostService: r.PostService, AccountService: r.AccountService}

	r.Mux.Handle("GET /v1/posts/feed/{scope}",
		r.secured(http.HandlerFunc(h.HandleFeed), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/posts/user/{username}",
		r.secured(http.HandlerFunc(h.HandleUserFeed), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/posts/liked/{username}",
		r.secured(http.HandlerFunc(h.HandleLikedFeed), httpx.LenientLimit))
	r.Mux.Handle("GET /v1/posts/{id}",
		r.secured(http.HandlerFunc(h.HandleGet), httpx.LenientLimit))

	// Uploads are the most expensive request we serve, so they get the
	// strict per-user limit.
	r.Mux.Handle("POST /v1/posts",
		r.secured(http.HandlerFunc(h.HandleCreate), httpx.StrictLimit))

	r.Mux.Handle("PATCH /v1/posts/{id}",
		r.secured(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("PUT /v1/posts/{id}/image",
		r.secured(http.HandlerFunc(h.HandleReplaceImage), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/posts/{id}",
		r.secured(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/posts/{id}/like",
		r.secured(http.HandlerFunc(h.HandleLike), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/posts/{id}/like",
		r.secured(http.HandlerFunc(h.HandleUnlike), httpx.ModerateLimit))
}

func (r *Router) registerComments() {
	h := &CommentsHandler{CommentService: r.CommentService, AccountService: r.AccountService}

	r.Mux.Handle("GET /v1/posts/{id}/comments",
		r.secured(http.HandlerFunc(h.HandleList), httpx.LenientLimit))
	r.Mux.Handle("POST /v1/posts/{id}/comments",
		r.secured(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit))
	r.Mux.Handle("PATCH /v1/comments/{id}",
		r.secured(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/comments/{id}",
		r.secured(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/comments/{id}/like",
		r.secured(http.HandlerFunc(h.HandleLike), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/comments/{id}/like",
		r.secured(http.HandlerFunc(h.HandleUnlike), httpx.ModerateLimit))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	// Admin routes re-check the role against the database on every request.
	admin := func(handler http.Handler) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			RequireAdmin(r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("DELETE /v1/admin/users/{username}",
		admin(http.HandlerFunc(h.HandleDeleteUser)))
	r.Mux.Handle("POST /v1/admin/users/ban",
		admin(http.HandlerFunc(h.HandleBan)))
	r.Mux.Handle("POST /v1/admin/users/unban",
		admin(http.HandlerFunc(h.HandleUnban)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
