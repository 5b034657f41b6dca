package repo

import (
	"context"

	"github.com/gophertalk/feed-service/internal/domain/post/model"
)

// PostStore owns posts and their view/like edges. Edge mutations and the
// matching counter change commit in one transaction.
type PostStore interface {
	InsertPost(ctx context.Context, p model.Post) (model.Post, error)
	FindPost(ctx context.Context, id int64) (model.Post, error)
	DeletePost(ctx context.Context, id int64) error
	QueryPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error)

	// The edge methods yield ErrPostNotFound when the post is gone.
	UpsertViewEdge(ctx context.Context, postID, userID int64) (created bool, err error)
	UpsertLikeEdge(ctx context.Context, postID, userID int64) (created bool, err error)
	RemoveLikeEdge(ctx context.Context, postID, userID int64) (removed bool, err error)
}
