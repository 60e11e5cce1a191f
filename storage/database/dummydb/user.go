package dummydb

import (
	"context"
	"strings"
	"time"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/user"
)

type userRepository struct {
	db  *userTable
	rts *refreshTokenTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user, rts: db.refreshToken}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	usr.ID = repo.db.pkCount
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		if filter.Email != "" && usr.Email == filter.Email {
			return usr, nil
		}
		if filter.KakaoID != "" && usr.KakaoID == filter.KakaoID {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, _ []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var users []user.User
	for _, usr := range repo.query() {
		if filter != nil {
			if filter.Search != "" &&
				!strings.Contains(strings.ToLower(usr.Name), strings.ToLower(filter.Search)) &&
				!strings.Contains(strings.ToLower(usr.Email), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.Role != "" && usr.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
			if filter.SchoolID != 0 && usr.SchoolID != filter.SchoolID {
				continue
			}
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpsertRefreshToken(_ context.Context, userID uint, tokenHash []byte) error {
	repo.rts.Lock()
	defer repo.rts.Unlock()

	repo.rts.table[userID] = &user.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (repo *userRepository) GetRefreshToken(_ context.Context, userID uint) (user.RefreshToken, error) {
	repo.rts.RLock()
	defer repo.rts.RUnlock()

	if rt, ok := repo.rts.table[userID]; ok {
		return *rt, nil
	}
	return user.RefreshToken{}, user.ErrNoRefreshToken
}

func (repo *userRepository) ClearRefreshToken(_ context.Context, userID uint) error {
	repo.rts.Lock()
	defer repo.rts.Unlock()

	if rt, ok := repo.rts.table[userID]; ok {
		rt.TokenHash = nil
	}
	return nil
}
