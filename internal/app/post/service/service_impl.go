package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gophertalk/feed-service/internal/adapters/transport/http/dto"
	"github.com/gophertalk/feed-service/internal/domain/clock"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
	"github.com/gophertalk/feed-service/internal/domain/post/model"
	"github.com/gophertalk/feed-service/internal/domain/post/repo"
)

// Service is the feed core. Every method takes the caller's verified user id
// explicitly.
type Service interface {
	ListPosts(ctx context.Context, viewerID int64, in dto.ListPostsDTO) ([]model.Post, error)
	CreatePost(ctx context.Context, ownerID int64, in dto.CreatePostDTO) (model.Post, error)
	DeletePost(ctx context.Context, postID, requesterID int64) error
	ViewPost(ctx context.Context, postID, viewerID int64) error
	LikePost(ctx context.Context, postID, viewerID int64) error
	DislikePost(ctx context.Context, postID, viewerID int64) error
}

type postService struct {
	posts repo.PostStore
	clock clock.Clock
	v     *validator.Validate
}

func New(posts repo.PostStore, clk clock.Clock, v *validator.Validate) Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if v == nil {
		v = validator.New()
	}
	return &postService{posts: posts, clock: clk, v: v}
}

func (s *postService) ListPosts(ctx context.Context, viewerID int64, in dto.ListPostsDTO) ([]model.Post, error) {
	if err := checkID("viewer_id", viewerID); err != nil {
		return nil, err
	}
	if err := s.v.Struct(in); err != nil {
		return nil, customErrors.NewInvalidArgument(err.Error())
	}

	f := model.PostFilter{
		ViewerID:  viewerID,
		Limit:     model.DefaultLimit,
		ReplyToID: in.ReplyToID,
		OwnerID:   in.OwnerID,
		Search:    strings.TrimSpace(in.Search),
	}
	if in.Limit != nil {
		f.Limit = *in.Limit
	}
	if in.Offset != nil {
		f.Offset = *in.Offset
	}

	posts, err := s.posts.QueryPosts(ctx, f)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListPosts")
	}
	return posts, nil
}

func (s *postService) CreatePost(ctx context.Context, ownerID int64, in dto.CreatePostDTO) (model.Post, error) {
	if err := checkID("owner_id", ownerID); err != nil {
		return model.Post{}, err
	}
	if err := s.v.Struct(in); err != nil {
		return model.Post{}, customErrors.NewInvalidArgument(err.Error())
	}
	if strings.TrimSpace(in.Text) == "" {
		return model.Post{}, customErrors.NewInvalidArgument("text is blank")
	}

	if in.ReplyToID != nil {
		if _, err := s.posts.FindPost(ctx, *in.ReplyToID); err != nil {
			if customErrors.IsNotFound(err) {
				return model.Post{}, customErrors.ErrParentNotFound
			}
			return model.Post{}, customErrors.WrapInternal(err, "CreatePost")
		}
	}

	post, err := s.posts.InsertPost(ctx, model.Post{
		UserID:    ownerID,
		ReplyToID: in.ReplyToID,
		Text:      in.Text,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return model.Post{}, customErrors.WrapInternal(err, "CreatePost")
	}
	return post, nil
}

// DeletePost removes the post and its edges. Replies keep their reply_to_id.
func (s *postService) DeletePost(ctx context.Context, postID, requesterID int64) error {
	if err := checkIDs(postID, requesterID); err != nil {
		return err
	}

	post, err := s.posts.FindPost(ctx, postID)
	if err != nil {
		return storeErr(err, "DeletePost")
	}
	if post.UserID != requesterID {
		return customErrors.ErrNotOwner
	}

	return storeErr(s.posts.DeletePost(ctx, postID), "DeletePost")
}

// ViewPost counts at most one view per viewer, ever.
func (s *postService) ViewPost(ctx context.Context, postID, viewerID int64) error {
	if err := checkIDs(postID, viewerID); err != nil {
		return err
	}
	_, err := s.posts.UpsertViewEdge(ctx, postID, viewerID)
	return storeErr(err, "ViewPost")
}

func (s *postService) LikePost(ctx context.Context, postID, viewerID int64) error {
	if err := checkIDs(postID, viewerID); err != nil {
		return err
	}
	_, err := s.posts.UpsertLikeEdge(ctx, postID, viewerID)
	return storeErr(err, "LikePost")
}

func (s *postService) DislikePost(ctx context.Context, postID, viewerID int64) error {
	if err := checkIDs(postID, viewerID); err != nil {
		return err
	}
	_, err := s.posts.RemoveLikeEdge(ctx, postID, viewerID)
	return storeErr(err, "DislikePost")
}

func checkID(name string, id int64) error {
	if id <= 0 {
		return customErrors.NewInvalidArgument(name + " must be positive")
	}
	return nil
}

func checkIDs(postID, userID int64) error {
	if err := checkID("post_id", postID); err != nil {
		return err
	}
	return checkID("user_id", userID)
}

func storeErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case customErrors.IsNotFound(err):
		return customErrors.ErrPostNotFound
	default:
		return customErrors.WrapInternal(err, op)
	}
}
