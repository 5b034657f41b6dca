package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gophertalk/feed-service/internal/domain/auth/model"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
)

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) InsertUser(ctx context.Context, user model.User) (model.User, error) {
	row := userRow{
		UserName:     user.Username,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		CreatedAt:    user.CreatedAt,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return model.User{}, customErrors.ErrUserAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "InsertUser")
	}
	return row.toModel(), nil
}

func (p *PostgresUserRepo) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	var row userRow
	res := p.db.WithContext(ctx).Where("user_name = ?", username).Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrUserNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "FindUserByUsername")
	}
	return row.toModel(), nil
}
