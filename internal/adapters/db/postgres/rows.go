package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	authModel "github.com/gophertalk/feed-service/internal/domain/auth/model"
	postModel "github.com/gophertalk/feed-service/internal/domain/post/model"
)

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	UserName     string `gorm:"column:user_name;size:50;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"size:50;not null"`
	LastName     string `gorm:"size:50;not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() authModel.User {
	return authModel.User{
		ID:           r.ID,
		Username:     r.UserName,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CreatedAt:    r.CreatedAt,
	}
}

// reply_to_id deliberately has no foreign key: replies outlive their parent.
type postRow struct {
	ID         int64     `gorm:"primaryKey"`
	Text       string    `gorm:"size:280;not null"`
	UserID     int64     `gorm:"not null;index"`
	ReplyToID  *int64    `gorm:"index"`
	LikesCount int64     `gorm:"not null;default:0"`
	ViewsCount int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (postRow) TableName() string { return "posts" }

func (r postRow) toModel() postModel.Post {
	return postModel.Post{
		ID:         r.ID,
		UserID:     r.UserID,
		ReplyToID:  r.ReplyToID,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
		LikesCount: r.LikesCount,
		ViewsCount: r.ViewsCount,
	}
}

// postView is a postRow plus the viewer-relative columns of a listing.
type postView struct {
	postRow
	RepliesCount int64
	UserLiked    bool
	UserViewed   bool
}

func (v postView) toModel() postModel.Post {
	p := v.postRow.toModel()
	p.RepliesCount = v.RepliesCount
	p.UserLiked = v.UserLiked
	p.UserViewed = v.UserViewed
	return p
}

type likeRow struct {
	PostID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (likeRow) TableName() string { return "likes" }

type viewRow struct {
	PostID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (viewRow) TableName() string { return "views" }

// AutoMigrate creates the schema from the row models. Production uses the
// SQL migrations; this serves tests and throwaway databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &postRow{}, &likeRow{}, &viewRow{})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
