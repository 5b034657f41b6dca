package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
	"github.com/gophertalk/feed-service/internal/domain/post/model"
)

const listColumns = `p.id, p.text, p.user_id, p.reply_to_id, p.likes_count, p.views_count, p.created_at,
	(SELECT COUNT(*) FROM posts r WHERE r.reply_to_id = p.id) AS replies_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?) AS user_liked,
	EXISTS (SELECT 1 FROM views v WHERE v.post_id = p.id AND v.user_id = ?) AS user_viewed`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresPostRepo struct {
	db *gorm.DB
}

func NewPostgresPostRepo(db *gorm.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

func (p *PostgresPostRepo) InsertPost(ctx context.Context, post model.Post) (model.Post, error) {
	row := postRow{
		Text:      post.Text,
		UserID:    post.UserID,
		ReplyToID: post.ReplyToID,
		CreatedAt: post.CreatedAt,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Post{}, customErrors.WrapInternal(err, "InsertPost")
	}
	return row.toModel(), nil
}

func (p *PostgresPostRepo) FindPost(ctx context.Context, id int64) (model.Post, error) {
	var row postRow
	res := p.db.WithContext(ctx).Where("id = ?", id).Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Post{}, customErrors.ErrPostNotFound
	}
	if err := res.Error; err != nil {
		return model.Post{}, customErrors.WrapInternal(err, "FindPost")
	}
	return row.toModel(), nil
}

// DeletePost drops the post with its edges. Replies are left untouched.
func (p *PostgresPostRepo) DeletePost(ctx context.Context, id int64) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&likeRow{}).Error; err != nil {
			return customErrors.WrapInternal(err, "DeletePost likes")
		}
		if err := tx.Where("post_id = ?", id).Delete(&viewRow{}).Error; err != nil {
			return customErrors.WrapInternal(err, "DeletePost views")
		}
		res := tx.Where("id = ?", id).Delete(&postRow{})
		if err := res.Error; err != nil {
			return customErrors.WrapInternal(err, "DeletePost")
		}
		if res.RowsAffected == 0 {
			return customErrors.ErrPostNotFound
		}
		return nil
	})
}

// QueryPosts returns newest first; ties on created_at fall back to id.
func (p *PostgresPostRepo) QueryPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	q := p.db.WithContext(ctx).
		Table("posts AS p").
		Select(listColumns, f.ViewerID, f.ViewerID)

	if f.ReplyToID != nil {
		q = q.Where("p.reply_to_id = ?", *f.ReplyToID)
	}
	if f.OwnerID != nil {
		q = q.Where("p.user_id = ?", *f.OwnerID)
	}
	if f.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Search)) + "%"
		q = q.Where(`LOWER(p.text) LIKE ? ESCAPE '\'`, pattern)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = model.DefaultLimit
	}

	var views []postView
	err := q.Order("p.created_at DESC").Order("p.id DESC").
		Limit(limit).
		Offset(f.Offset).
		Scan(&views).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "QueryPosts")
	}

	posts := make([]model.Post, 0, len(views))
	for _, v := range views {
		posts = append(posts, v.toModel())
	}
	return posts, nil
}

func (p *PostgresPostRepo) UpsertViewEdge(ctx context.Context, postID, userID int64) (bool, error) {
	return p.upsertEdge(ctx, &viewRow{PostID: postID, UserID: userID}, postID, "views_count")
}

func (p *PostgresPostRepo) UpsertLikeEdge(ctx context.Context, postID, userID int64) (bool, error) {
	return p.upsertEdge(ctx, &likeRow{PostID: postID, UserID: userID}, postID, "likes_count")
}

// upsertEdge inserts the edge if absent and bumps the counter in the same
// transaction, so the counter moves only when a row was actually created.
func (p *PostgresPostRepo) upsertEdge(ctx context.Context, edge interface{}, postID int64, counter string) (bool, error) {
	var created bool
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
		if err := res.Error; err != nil {
			return edgeInsertErr(err)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		created = true
		return bump(tx, postID, counter, 1)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// edgeInsertErr classifies a failed edge insert. The post row is locked by
// then, so a foreign-key failure can only come from user_id.
func edgeInsertErr(err error) error {
	if isForeignKeyViolation(err) {
		return customErrors.WrapInternal(err, "insert edge: unknown user")
	}
	return customErrors.WrapInternal(err, "insert edge")
}

func (p *PostgresPostRepo) RemoveLikeEdge(ctx context.Context, postID, userID int64) (bool, error) {
	var removed bool
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&likeRow{})
		if err := res.Error; err != nil {
			return customErrors.WrapInternal(err, "delete like")
		}
		if res.RowsAffected == 0 {
			return nil
		}

		removed = true
		return bump(tx, postID, "likes_count", -1)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// lockPost serialises edge mutations per post and rejects missing posts.
func lockPost(tx *gorm.DB, postID int64) error {
	var row postRow
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", postID).
		Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return customErrors.ErrPostNotFound
	}
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "lock post")
	}
	return nil
}

func bump(tx *gorm.DB, postID int64, counter string, delta int) error {
	q := tx.Model(&postRow{}).Where("id = ?", postID)
	if delta < 0 {
		q = q.Where(counter+" > 0")
	}
	if err := q.UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error; err != nil {
		return customErrors.WrapInternal(err, "update "+counter)
	}
	return nil
}
