package user_repo

import (
	"context"

	"github.com/NiklasTech/hans-peter-online-shop-sub001/internal/entity"
	app_error "github.com/NiklasTech/hans-peter-online-shop-sub001/internal/errors"
)

// UserRepoContract is a read-only view over the account service's user table,
// used to attach author public fields to broadcast messages.
type UserRepoContract interface {
	FindUserByID(ctx context.Context, userID string) (*entity.User, *app_error.AppError)
}
