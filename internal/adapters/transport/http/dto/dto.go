package dto

type RegisterDTO struct {
	Username        string `json:"user_name"        validate:"required,min=3,max=50"`
	Password        string `json:"password"         validate:"required,min=6,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name"       validate:"required,min=1,max=50"`
	LastName        string `json:"last_name"        validate:"required,min=1,max=50"`
}

type LoginDTO struct {
	Username string `json:"user_name" validate:"required,max=50"`
	Password string `json:"password"  validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type CreatePostDTO struct {
	Text      string `json:"text"        validate:"required,min=1,max=280"`
	ReplyToID *int64 `json:"reply_to_id" validate:"omitempty,min=1"`
}

type ListPostsDTO struct {
	Limit     *int   `form:"limit"       validate:"omitempty,min=1"`
	Offset    *int   `form:"offset"      validate:"omitempty,min=0"`
	ReplyToID *int64 `form:"reply_to_id" validate:"omitempty,min=1"`
	OwnerID   *int64 `form:"owner_id"    validate:"omitempty,min=1"`
	Search    string `form:"search"      validate:"max=280"`
}

type PostDTO struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	UserID       int64  `json:"user_id"`
	ReplyToID    *int64 `json:"reply_to_id"`
	CreatedAt    string `json:"created_at"`
	LikesCount   int64  `json:"likes_count"`
	ViewsCount   int64  `json:"views_count"`
	RepliesCount int64  `json:"replies_count"`
	UserLiked    bool   `json:"user_liked"`
	UserViewed   bool   `json:"user_viewed"`
}
