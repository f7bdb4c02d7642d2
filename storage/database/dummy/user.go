package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/registro/core"
	"github.com/trezcool/registro/core/user"
)

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	if err := repo.writable(); err != nil {
		return user.User{}, err
	}
	for _, u := range repo.t.users {
		if u.Username == usr.Username || (usr.Email != "" && u.Email == usr.Email) {
			return user.User{}, user.ErrUserExists
		}
	}
	usr.ID = repo.t.nextID("user")
	usr.Roles = append([]string(nil), usr.Roles...)
	repo.t.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, id int64) (user.User, error) {
	if usr, ok := repo.t.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	users := make([]user.User, 0, len(repo.t.users))
	for _, u := range repo.t.users {
		if filter != nil && !matchUser(u, filter) {
			continue
		}
		users = append(users, u)
	}

	ords := core.AllowedOrderings(ordering, "id", "name", "username")
	sort.Slice(users, func(i, j int) bool {
		for _, ord := range ords {
			var a, b string
			switch ord.Field {
			case "name":
				a, b = users[i].Name, users[j].Name
			case "username":
				a, b = users[i].Username, users[j].Username
			default:
				if users[i].ID == users[j].ID {
					continue
				}
				return (users[i].ID < users[j].ID) == ord.Ascending
			}
			if a != b {
				return (a < b) == ord.Ascending
			}
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func matchUser(u user.User, filter *user.QueryFilter) bool {
	// users with search keyword matching any Name, Username or Email ?
	if filter.Search != "" &&
		!containsFold(u.Name, filter.Search) &&
		!containsFold(u.Username, filter.Search) &&
		!containsFold(u.Email, filter.Search) {
		return false
	}
	// users with any of the specified roles
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if u.RoleStartsWith(strings.TrimSpace(r)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && u.IsActive != *filter.IsActive {
		return false
	}
	return true
}
