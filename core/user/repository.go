package user

import (
	"context"
	"errors"

	"github.com/trezcool/registro/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("a user with this username or email already exists")
)

type Repository interface {
	CreateUser(ctx context.Context, usr User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	// QueryUsers applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
	QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
}
