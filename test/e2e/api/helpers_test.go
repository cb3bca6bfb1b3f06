package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-social/glimpse/internal/api/domain"
	httpapi "github.com/glimpse-social/glimpse/internal/api/http"
	"github.com/glimpse-social/glimpse/internal/api/service"
	"github.com/glimpse-social/glimpse/internal/api/store/drivers/sqlite"
	"github.com/glimpse-social/glimpse/pkg/cryptox"
	"github.com/glimpse-social/glimpse/pkg/httpx"
	"github.com/glimpse-social/glimpse/pkg/idx"
	"github.com/glimpse-social/glimpse/pkg/jwtx"
	"github.com/glimpse-social/glimpse/pkg/mediastore"
)

/*
 * Common helpers for API end-to-end tests. Each test gets its own fully
 * wired service (file-backed SQLite, fake media store, real router and
 * middleware) behind an httptest server, plus direct handles on the store
 * and media fake for seeding and assertions the HTTP surface doesn't offer.
 */

const (
	testIssuer = "glimpse-api"
	testSecret = "e2e-test-secret-0123456789abcdef"

	adminUsername = "admin"
	adminPassword = "Admin123!pass"

	defaultPassword = "Sw0rdfish!pass"
)

// fakeMedia is an in-memory mediastore.Store that records every call.
// It must be safe for concurrent use: handlers run on server goroutines.
type fakeMedia struct {
	mu      sync.Mutex
	uploads map[string]string // key -> content type
	deletes []string
	batches [][]string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{uploads: map[string]string{}}
}

func (f *fakeMedia) Upload(_ context.Context, key, contentType string, body io.Reader) (mediastore.Upload, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return mediastore.Upload{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = contentType
	return mediastore.Upload{Key: key, URL: "https://media.test/" + key}, nil
}

func (f *fakeMedia) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeMedia) DeleteBatch(_ context.Context, keys []string) error {
	if len(keys) > mediastore.MaxDeleteBatch {
		return mediastore.ErrBatchTooLarge
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), keys...))
	return nil
}

// deletedKeys flattens single deletes and batch deletes into one list.
func (f *fakeMedia) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := append([]string(nil), f.deletes...)
	for _, b := range f.batches {
		keys = append(keys, b...)
	}
	return keys
}

func (f *fakeMedia) hasUpload(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.uploads[key]
	return ok
}

func (f *fakeMedia) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeMedia) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// env is one fully wired API instance under test.
type env struct {
	server *httptest.Server
	store  *sqlite.Store
	media  *fakeMedia
}

// setupServer wires the whole stack the way cmd/api does, minus the real
// S3 client and the housekeeping worker, and serves it over httptest.
func setupServer(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "glimpse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte(testSecret), testIssuer)
	require.NoError(t, err)

	media := newFakeMedia()
	logger := slog.New(slog.DiscardHandler)

	router := httpapi.NewRouter(signer, "e2e", st, logger)
	router.TokenService = &service.TokenService{
		Signer:     signer,
		Verifier:   signer,
		Store:      st,
		Issuer:     testIssuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
	router.AccountService = &service.AccountService{Store: st, Tokens: router.TokenService, Media: media}
	router.ProfileService = &service.ProfileService{Store: st}
	router.PostService = &service.PostService{Store: st, Media: media}
	router.CommentService = &service.CommentService{Store: st}
	// Small batch size so bulk media deletion needs several provider calls
	// even with a handful of posts.
	router.AdminService = &service.AdminService{Store: st, Media: media, DeleteBatchSize: 2}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &env{server: server, store: st, media: media}
}

// apiResponse is the decoded envelope either way: data on success, error
// on failure.
type apiResponse struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *httpx.ErrorBody `json:"error"`
}

// session is an HTTP client bound to one signed-in user.
type session struct {
	t       *testing.T
	baseURL string
	access  string
	refresh string
}

func (s *session) do(method, path string, body any) (int, apiResponse) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.access != "" {
		req.Header.Set("Authorization", "Bearer "+s.access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var decoded apiResponse
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&decoded),
			"%s %s should return the JSON envelope", method, path)
	}
	return resp.StatusCode, decoded
}

// dataInto unmarshals the success payload into out, failing the test on a
// non-2xx status.
func (s *session) dataInto(method, path string, body, out any) {
	s.t.Helper()
	status, resp := s.do(method, path, body)
	require.Less(s.t, status, 300, "%s %s failed: %+v", method, path, resp.Error)
	require.True(s.t, resp.Success)
	require.NoError(s.t, json.Unmarshal(resp.Data, out))
}

func (s *session) setTokens(pair domain.TokenPair) {
	s.access = pair.AccessToken
	s.refresh = pair.RefreshToken
}

// anonymous returns a session with no tokens attached.
func anonymous(t *testing.T, e *env) *session {
	return &session{t: t, baseURL: e.server.URL}
}

// signUp registers a fresh user through the public endpoint and returns a
// signed-in session.
func signUp(t *testing.T, e *env, username string) *session {
	t.Helper()

	s := anonymous(t, e)
	var pair domain.TokenPair
	s.dataInto(http.MethodPost, "/v1/auth/signup", map[string]string{
		"name":            "Test " + username,
		"username":        username,
		"email":           username + "@example.com",
		"password":        defaultPassword,
		"confirmPassword": defaultPassword,
	}, &pair)

	assertTokenPair(t, pair)
	s.setTokens(pair)
	return s
}

// signIn authenticates an existing user through the public endpoint.
func signIn(t *testing.T, e *env, username, password string) *session {
	t.Helper()

	s := anonymous(t, e)
	var pair domain.TokenPair
	s.dataInto(http.MethodPost, "/v1/auth/signin", map[string]string{
		"username": username,
		"password": password,
	}, &pair)

	assertTokenPair(t, pair)
	s.setTokens(pair)
	return s
}

// seedAdmin inserts an ADMIN user directly into the store; role changes
// have no public endpoint.
func seedAdmin(t *testing.T, e *env) {
	t.Helper()

	hash, err := cryptox.HashPassword(adminPassword)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, e.store.Users().CreateUser(context.Background(), domain.User{
		ID:           idx.New().String(),
		Name:         "Administrator",
		Username:     adminUsername,
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

// signInAdmin seeds the admin account if needed and signs it in.
func signInAdmin(t *testing.T, e *env) *session {
	t.Helper()
	seedAdmin(t, e)
	return signIn(t, e, adminUsername, adminPassword)
}

// createPost uploads an image post through the multipart endpoint and
// returns the decoded post.
func createPost(t *testing.T, s *session, caption string) domain.Post {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image bytes for e2e"))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("caption", caption))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.access)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create post failed: %+v", decoded.Error)

	var post domain.Post
	require.NoError(t, json.Unmarshal(decoded.Data, &post))
	require.NotEmpty(t, post.ID)
	require.NotEmpty(t, post.ImageURL)
	return post
}

// assertTokenPair verifies a token response has all required fields.
func assertTokenPair(t *testing.T, pair domain.TokenPair) {
	t.Helper()
	require.NotEmpty(t, pair.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, pair.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(jwtx.DefaultAccessTokenTTL.Seconds()), pair.ExpiresIn)
}

// assertErrorCode checks a failure envelope's status and machine code.
func assertErrorCode(t *testing.T, wantStatus int, wantCode string, status int, resp apiResponse) {
	t.Helper()
	require.Equal(t, wantStatus, status)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, wantCode, resp.Error.Code)
}

// detailString digs a string field out of an error's details payload.
func detailString(t *testing.T, resp apiResponse, field string) string {
	t.Helper()
	require.NotNil(t, resp.Error)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok, "error details should be an object, got %T", resp.Error.Details)
	value, ok := details[field].(string)
	require.True(t, ok, "details[%q] should be a string", field)
	return value
}
