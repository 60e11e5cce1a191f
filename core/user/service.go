package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/jihokim/haksa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrNoRefreshToken  = errors.New("no refresh token found")
	ErrBadRefreshToken = errors.New("refresh token mismatch")
)

type (
	GetFilter struct {
		ID      uint
		Email   string
		KakaoID string
	}

	QueryFilter struct {
		Search   string `query:"search"`
		Role     string `query:"role"`
		IsActive *bool  `query:"is_active"`
		SchoolID uint   `query:"school_id"`
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpsertRefreshToken(ctx context.Context, userID uint, tokenHash []byte) error
		GetRefreshToken(ctx context.Context, userID uint) (RefreshToken, error)
		ClearRefreshToken(ctx context.Context, userID uint) error
	}

	ServiceInterface interface {
		CheckUniqueness(email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		GetByID(id uint) (User, error)
		GetByEmail(email string) (User, error)
		GetByKakaoID(kakaoID string) (User, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		Update(id uint, uu UpdateUser) (User, error)
		SetLastLogin(usr User) (User, error)
		LinkKakao(usr User, kakaoID string) (User, error)
		StoreRefreshToken(usr User, token string) error
		VerifyRefreshToken(usr User, token string) error
		ClearRefreshToken(usr User) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = strings.ToUpper(core.CleanString(qf.Role))
}

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		Subject:   nu.Subject,
		SchoolID:  nu.SchoolID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	usr, err := svc.repo.CreateUser(context.Background(), usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) GetByID(id uint) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{ID: id})
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByKakaoID(kakaoID string) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{KakaoID: kakaoID})
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(context.Background(), filter, ordering)
}

func (svc *Service) Update(id uint, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(context.Background(), GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(context.Background(), usr)
}

func (svc *Service) LinkKakao(usr User, kakaoID string) (User, error) {
	usr.KakaoID = kakaoID
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(context.Background(), usr)
}

// StoreRefreshToken hashes and upserts the user's refresh token.
// Only the hash is persisted; a stolen DB dump cannot be replayed.
func (svc *Service) StoreRefreshToken(usr User, token string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing refresh token")
	}
	return svc.repo.UpsertRefreshToken(context.Background(), usr.ID, hash)
}

func (svc *Service) VerifyRefreshToken(usr User, token string) error {
	rt, err := svc.repo.GetRefreshToken(context.Background(), usr.ID)
	if err != nil {
		return err
	}
	if len(rt.TokenHash) == 0 {
		return ErrNoRefreshToken
	}
	if err = bcrypt.CompareHashAndPassword(rt.TokenHash, []byte(token)); err != nil {
		return ErrBadRefreshToken
	}
	return nil
}

func (svc *Service) ClearRefreshToken(usr User) error {
	return svc.repo.ClearRefreshToken(context.Background(), usr.ID)
}

func (svc *Service) sendWelcomeEmail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Welcome to " + svc.conf.AppName,
		BodyStr: "Hi " + usr.Name + ", your account has been created. You can now sign in with your email address.",
	})
}
