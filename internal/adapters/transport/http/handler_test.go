package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gophertalk/feed-service/internal/adapters/transport/http/dto"
	"github.com/gophertalk/feed-service/internal/adapters/transport/http/middleware"
	"github.com/gophertalk/feed-service/internal/domain/auth/model"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
	postModel "github.com/gophertalk/feed-service/internal/domain/post/model"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type authStub struct {
	pair model.TokenPair
	err  error
}

func (a *authStub) Register(context.Context, dto.RegisterDTO) (model.TokenPair, error) {
	return a.pair, a.err
}

func (a *authStub) Login(context.Context, dto.LoginDTO) (model.TokenPair, error) {
	return a.pair, a.err
}

func (a *authStub) Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error) {
	return a.pair, a.err
}

type call struct {
	op     string
	postID int64
	userID int64
}

type postStub struct {
	posts  []postModel.Post
	err    error
	calls  []call
	listIn dto.ListPostsDTO
}

func (p *postStub) ListPosts(_ context.Context, viewerID int64, in dto.ListPostsDTO) ([]postModel.Post, error) {
	p.calls = append(p.calls, call{op: "list", userID: viewerID})
	p.listIn = in
	return p.posts, p.err
}

func (p *postStub) CreatePost(_ context.Context, ownerID int64, in dto.CreatePostDTO) (postModel.Post, error) {
	p.calls = append(p.calls, call{op: "create", userID: ownerID})
	if p.err != nil {
		return postModel.Post{}, p.err
	}
	return postModel.Post{ID: 7, UserID: ownerID, Text: in.Text, ReplyToID: in.ReplyToID}, nil
}

func (p *postStub) record(op string) func(context.Context, int64, int64) error {
	return func(_ context.Context, postID, userID int64) error {
		p.calls = append(p.calls, call{op: op, postID: postID, userID: userID})
		return p.err
	}
}

func (p *postStub) DeletePost(ctx context.Context, postID, userID int64) error {
	return p.record("delete")(ctx, postID, userID)
}

func (p *postStub) ViewPost(ctx context.Context, postID, userID int64) error {
	return p.record("view")(ctx, postID, userID)
}

func (p *postStub) LikePost(ctx context.Context, postID, userID int64) error {
	return p.record("like")(ctx, postID, userID)
}

func (p *postStub) DislikePost(ctx context.Context, postID, userID int64) error {
	return p.record("dislike")(ctx, postID, userID)
}

type verifierStub map[string]error

func (v verifierStub) VerifyAccess(token string) (int64, error) {
	if err, ok := v[token]; ok {
		return 0, err
	}
	return 42, nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

func newRouter(auth *authStub, posts *postStub, extra ...func(*RouterDeps)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	d := RouterDeps{
		Handler: NewHandler(auth, posts, zap.NewNop()),
		Verifier: verifierStub{
			"expired": customErrors.ErrExpiredToken,
			"forged":  customErrors.ErrInvalidToken,
		},
		Logger: zap.NewNop(),
	}
	for _, f := range extra {
		f(&d)
	}
	return NewRouter(d)
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out["error"]
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestRouter_RegisterReturnsPair(t *testing.T) {
	auth := &authStub{pair: model.TokenPair{AccessToken: "a", RefreshToken: "r", AccessTTL: time.Hour, UserID: 1}}
	r := newRouter(auth, &postStub{})

	w := do(r, http.MethodPost, "/auth/register", "", dto.RegisterDTO{Username: "alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var pair dto.TokenPairDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	require.Equal(t, "a", pair.AccessToken)
	require.Equal(t, "r", pair.RefreshToken)
	require.Equal(t, int64(3600), pair.ExpiresIn)
	require.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_MalformedBody(t *testing.T) {
	r := newRouter(&authStub{}, &postStub{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", customErrors.NewInvalidArgument("user_name too short"), http.StatusBadRequest, ""},
		{"unknown user", errors.Join(customErrors.ErrInvalidCredentials, customErrors.ErrUserNotFound), http.StatusUnauthorized, "invalid credentials"},
		{"bad password", customErrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"expired", customErrors.ErrExpiredToken, http.StatusUnauthorized, "token expired"},
		{"conflict", customErrors.ErrUserAlreadyExists, http.StatusConflict, ""},
		{"internal", customErrors.WrapInternal(errors.New("dial tcp"), "Login"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&authStub{err: tc.err}, &postStub{})
			w := do(r, http.MethodPost, "/auth/login", "", dto.LoginDTO{Username: "alice", Password: "secret-pw"})
			require.Equal(t, tc.code, w.Code)
			msg := errorOf(t, w)
			if tc.msg != "" {
				require.Equal(t, tc.msg, msg)
			}
			require.NotContains(t, msg, "secret-pw")
		})
	}
}

func TestRouter_PostsRequireToken(t *testing.T) {
	posts := &postStub{}
	r := newRouter(&authStub{}, posts)

	w := do(r, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/posts", "forged", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid token", errorOf(t, w))

	w = do(r, http.MethodGet, "/posts", "expired", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "token expired", errorOf(t, w))

	require.Empty(t, posts.calls)
}

func TestRouter_ListPostsPassesViewerAndQuery(t *testing.T) {
	parent := int64(3)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	posts := &postStub{posts: []postModel.Post{{
		ID: 9, UserID: 5, ReplyToID: &parent, Text: "hi", CreatedAt: created,
		LikesCount: 2, ViewsCount: 4, RepliesCount: 1, UserLiked: true,
	}}}
	r := newRouter(&authStub{}, posts)

	w := do(r, http.MethodGet, "/posts?limit=10&offset=20&reply_to_id=3&search=go", "good", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, []call{{op: "list", userID: 42}}, posts.calls)
	require.NotNil(t, posts.listIn.Limit)
	require.Equal(t, 10, *posts.listIn.Limit)
	require.Equal(t, 20, *posts.listIn.Offset)
	require.Equal(t, int64(3), *posts.listIn.ReplyToID)
	require.Nil(t, posts.listIn.OwnerID)
	require.Equal(t, "go", posts.listIn.Search)

	var out []dto.PostDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "2026-02-03T04:05:06Z", out[0].CreatedAt)
	require.True(t, out[0].UserLiked)
	require.Equal(t, int64(1), out[0].RepliesCount)

	w = do(r, http.MethodGet, "/posts?limit=abc", "good", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_EmptyListIsArray(t *testing.T) {
	r := newRouter(&authStub{}, &postStub{})
	w := do(r, http.MethodGet, "/posts", "good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestRouter_CreatePost(t *testing.T) {
	posts := &postStub{}
	r := newRouter(&authStub{}, posts)

	w := do(r, http.MethodPost, "/posts", "good", dto.CreatePostDTO{Text: "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	var out dto.PostDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, int64(42), out.UserID)
	require.Equal(t, "hello", out.Text)
	require.Nil(t, out.ReplyToID)
}

func TestRouter_PostMutations(t *testing.T) {
	cases := []struct {
		method, path string
		code         int
		want         call
	}{
		{http.MethodDelete, "/posts/5", http.StatusNoContent, call{"delete", 5, 42}},
		{http.MethodPost, "/posts/5/view", http.StatusCreated, call{"view", 5, 42}},
		{http.MethodPost, "/posts/5/like", http.StatusCreated, call{"like", 5, 42}},
		{http.MethodDelete, "/posts/5/like", http.StatusNoContent, call{"dislike", 5, 42}},
	}
	for _, tc := range cases {
		t.Run(tc.want.op, func(t *testing.T) {
			posts := &postStub{}
			w := do(newRouter(&authStub{}, posts), tc.method, tc.path, "good", nil)
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, []call{tc.want}, posts.calls)
		})
	}
}

func TestRouter_PostMutationErrors(t *testing.T) {
	posts := &postStub{err: customErrors.ErrNotOwner}
	r := newRouter(&authStub{}, posts)

	w := do(r, http.MethodDelete, "/posts/5", "good", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	posts.err = customErrors.ErrPostNotFound
	w = do(r, http.MethodPost, "/posts/5/like", "good", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/posts/zero/like", "good", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/posts/0/view", "good", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	var pingErr error
	r := newRouter(&authStub{}, &postStub{}, func(d *RouterDeps) {
		d.Metrics = middleware.NewHTTPMetrics(reg)
		d.Gatherer = reg
		d.Ping = func(context.Context) error { return pingErr }
	})

	w := do(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	pingErr = errors.New("db down")
	w = do(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `gophertalk_http_requests_total{method="GET",route="/health",status="503"} 1`)
}

func TestRouter_CORS(t *testing.T) {
	r := newRouter(&authStub{}, &postStub{}, func(d *RouterDeps) {
		d.AllowedOrigins = []string{"https://gophertalk.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "https://gophertalk.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://gophertalk.example", w.Header().Get("Access-Control-Allow-Origin"))
}
