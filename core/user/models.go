package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/jihokim/haksa/core"
)

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
	RoleParent  = "PARENT"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Role         string    `json:"role" gorm:"index"`
	Subject      string    `json:"subject,omitempty"` // teachers only
	Photo        string    `json:"photo,omitempty"`
	KakaoID      string    `json:"-" gorm:"index"`
	SchoolID     uint      `json:"school_id" gorm:"index"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (User) TableName() string { return "users" }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsParent() bool  { return u.Role == RoleParent }

// RefreshToken holds the (hashed) refresh token of a signed-in User.
// At most one per user; cleared at sign-out.
type RefreshToken struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey"`
	TokenHash []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,userrole"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	SchoolID        uint   `json:"school_id" validate:"required"`

	// teachers only
	Subject string `json:"subject,omitempty"`

	// students only
	Grade      int `json:"grade,omitempty"`
	GradeClass int `json:"grade_class,omitempty"`
	Number     int `json:"number,omitempty"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = strings.ToUpper(core.CleanString(nu.Role))
	nu.Subject = core.CleanString(nu.Subject)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if nu.Role != RoleTeacher && nu.Subject != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "subject", Error: "only teachers may have a subject"})
	}
	if nu.Role != RoleStudent && (nu.Grade != 0 || nu.GradeClass != 0 || nu.Number != 0) {
		return core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "only students may have a grade, class and number"})
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	uu.Name = core.CleanString(uu.Name)
	if uu.Name == "" {
		uu.Name = origUsr.Name
	}
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	if uu.Email == "" {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}
