package boiledrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/user"
)

const userTable = "users"

var userColumns = []string{"id", "name", "username", "email", "is_active", "roles", "created_at", "updated_at"}

type userRow struct {
	ID        int64       `boil:"id"`
	Name      string      `boil:"name"`
	Username  string      `boil:"username"`
	Email     null.String `boil:"email"`
	IsActive  bool        `boil:"is_active"`
	Roles     string      `boil:"roles"`
	CreatedAt time.Time   `boil:"created_at"`
	UpdatedAt time.Time   `boil:"updated_at"`
}

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func (repo userRepository) boil(usr user.User) []interface{} {
	return []interface{}{
		usr.Name,
		usr.Username,
		null.NewString(usr.Email, usr.Email != ""),
		usr.IsActive,
		strings.Join(usr.Roles, ","),
		usr.CreatedAt.UTC(),
		usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	usr := user.User{
		ID:        row.ID,
		Name:      row.Name,
		Username:  row.Username,
		Email:     row.Email.String,
		IsActive:  row.IsActive,
		CreatedAt: utc(row.CreatedAt),
		UpdatedAt: utc(row.UpdatedAt),
	}
	if row.Roles != "" {
		usr.Roles = strings.Split(row.Roles, ",")
	}
	return usr
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := repo.insert(ctx, userTable, userColumns[1:], repo.boil(usr)...)
	if err != nil {
		return user.User{}, trapWriteErr(err, user.ErrUserExists, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, id int64) (user.User, error) {
	var row userRow
	if err := repo.newQuery(userTable, userColumns, qm.Where("id = ?", id)).Bind(ctx, repo.exec, &row); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var mods []qm.QueryMod

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			mods = append(mods, repo.likeAny(filter.Search, "name", "username", "email"))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			clauses := make([]string, 0, len(filter.Roles))
			args := make([]interface{}, 0, len(filter.Roles)*2)
			for _, role := range filter.Roles {
				role = strings.TrimSpace(role)
				clauses = append(clauses, "roles LIKE ? OR roles LIKE ?")
				args = append(args, role+"%", "%,"+role+"%")
			}
			mods = append(mods, qm.Where("("+strings.Join(clauses, " OR ")+")", args...))
		}
		if filter.IsActive != nil {
			mods = append(mods, qm.Where("is_active = ?", *filter.IsActive))
		}
	}
	mods = append(mods, orderBy(ordering, "id", "name", "username"))

	var rows []userRow
	if err := repo.newQuery(userTable, userColumns, mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users, nil
}
