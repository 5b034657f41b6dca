package model

import "time"

const (
	DefaultLimit  = 100
	MaxTextLength = 280
)

type Post struct {
	ID         int64
	UserID     int64
	ReplyToID  *int64
	Text       string
	CreatedAt  time.Time
	LikesCount int64
	ViewsCount int64

	// Viewer-relative annotations, filled by listing only.
	RepliesCount int64
	UserLiked    bool
	UserViewed   bool
}

type PostFilter struct {
	ViewerID  int64
	Limit     int
	Offset    int
	ReplyToID *int64
	OwnerID   *int64
	Search    string
}
