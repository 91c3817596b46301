package user_repo

import (
	"context"
	"errors"
	"net/http"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
	"gorm.io/gorm"
)

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepoContract {
	return &UserRepo{DB: db}
}

func (r *UserRepo) FindUserByID(ctx context.Context, userID string) (*entity.User, *app_error.AppError) {
	var user entity.User

	if err := r.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NewAppError(http.StatusNotFound, "cannot find user", "user-id")
		}
		return nil, app_error.Internal("unexpected error occur when fetch user", "db-error")
	}

	return &user, nil
}
