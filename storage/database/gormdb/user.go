package gormrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/user"
)

type userRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps gorm's "record not found" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := repo.db.WithContext(ctx).Model(&user.User{}).Where("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]uint, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where("id NOT IN ?", ids)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.WithContext(ctx).Create(&usr).Error; err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := repo.db.WithContext(ctx)

	switch {
	case filter.ID != 0:
		q = q.Where("id = ?", filter.ID)
	case filter.Email != "":
		q = q.Where("email = ?", filter.Email)
	case filter.KakaoID != "":
		q = q.Where("kakao_id = ?", filter.KakaoID)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := q.First(&usr).Error; err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := repo.db.WithContext(ctx).Model(&user.User{})

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where("name ILIKE ? OR email ILIKE ?", val, val)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.SchoolID != 0 {
			q = q.Where("school_id = ?", filter.SchoolID)
		}
	}
	for _, ord := range ordering {
		q = q.Order(ord.String())
	}

	var users []user.User
	if err := q.Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.WithContext(ctx).Save(&usr).Error; err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) UpsertRefreshToken(ctx context.Context, userID uint, tokenHash []byte) error {
	rt := user.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		UpdatedAt: time.Now().UTC(),
	}
	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "updated_at"}),
		}).
		Create(&rt).Error
	return errors.Wrap(err, "upserting refresh token")
}

func (repo userRepository) GetRefreshToken(ctx context.Context, userID uint) (user.RefreshToken, error) {
	var rt user.RefreshToken
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.RefreshToken{}, user.ErrNoRefreshToken
		}
		return user.RefreshToken{}, errors.Wrap(err, "finding refresh token")
	}
	return rt, nil
}

func (repo userRepository) ClearRefreshToken(ctx context.Context, userID uint) error {
	err := repo.db.WithContext(ctx).
		Model(&user.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("token_hash", nil).Error
	return errors.Wrap(err, "clearing refresh token")
}
