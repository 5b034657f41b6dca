package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gophertalk/feed-service/internal/adapters/transport/http/dto"
	"github.com/gophertalk/feed-service/internal/adapters/transport/http/middleware"
	authsvc "github.com/gophertalk/feed-service/internal/app/auth/service"
	postsvc "github.com/gophertalk/feed-service/internal/app/post/service"
	"github.com/gophertalk/feed-service/internal/domain/auth/model"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
	postModel "github.com/gophertalk/feed-service/internal/domain/post/model"
)

type Handler struct {
	auth  authsvc.Service
	posts postsvc.Service
	log   *zap.Logger
}

func NewHandler(auth authsvc.Service, posts postsvc.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, posts: posts, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	pair, err := h.auth.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Info("user registered",
		zap.Int64("user_id", pair.UserID),
		zap.String("request_id", middleware.RequestID(c)),
	)
	c.JSON(http.StatusCreated, toTokenPairDTO(pair))
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenPairDTO(pair))
}

func (h *Handler) Refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokenPairDTO(pair))
}

func (h *Handler) ListPosts(c *gin.Context) {
	var q dto.ListPostsDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed query"})
		return
	}
	posts, err := h.posts.ListPosts(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostDTO(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var body dto.CreatePostDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		badBody(c)
		return
	}
	post, err := h.posts.CreatePost(c.Request.Context(), middleware.UserID(c), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPostDTO(post))
}

func (h *Handler) DeletePost(c *gin.Context) {
	h.onPost(c, http.StatusNoContent, h.posts.DeletePost)
}

func (h *Handler) ViewPost(c *gin.Context) {
	h.onPost(c, http.StatusCreated, h.posts.ViewPost)
}

func (h *Handler) LikePost(c *gin.Context) {
	h.onPost(c, http.StatusCreated, h.posts.LikePost)
}

func (h *Handler) DislikePost(c *gin.Context) {
	h.onPost(c, http.StatusNoContent, h.posts.DislikePost)
}

// onPost runs a mutation keyed by the :id path parameter and the caller.
func (h *Handler) onPost(c *gin.Context, okStatus int, op func(ctx context.Context, postID, userID int64) error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be a positive integer"})
		return
	}
	if err := op(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(okStatus)
}

// handleError maps the error kind to a status. Auth failures get fixed
// messages so responses do not reveal which check failed.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch customErrors.KindOf(err) {
	case customErrors.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.KindAuth:
		msg := "invalid token"
		switch {
		case customErrors.IsInvalidCredentials(err):
			msg = "invalid credentials"
		case customErrors.IsExpiredToken(err):
			msg = "token expired"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	case customErrors.KindOwnership:
		c.JSON(http.StatusForbidden, gin.H{"error": "post belongs to another user"})
	case customErrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case customErrors.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
}

func toTokenPairDTO(p model.TokenPair) dto.TokenPairDTO {
	return dto.TokenPairDTO{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    int64(p.AccessTTL / time.Second),
	}
}

func toPostDTO(p postModel.Post) dto.PostDTO {
	return dto.PostDTO{
		ID:           p.ID,
		Text:         p.Text,
		UserID:       p.UserID,
		ReplyToID:    p.ReplyToID,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		LikesCount:   p.LikesCount,
		ViewsCount:   p.ViewsCount,
		RepliesCount: p.RepliesCount,
		UserLiked:    p.UserLiked,
		UserViewed:   p.UserViewed,
	}
}
