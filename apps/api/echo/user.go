package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	conf       *core.Config
	svc        user.ServiceInterface
	studentSvc student.ServiceInterface
	validate   *validator.Validate
	kakaoConf  *oauth2.Config
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
		kakaoConf:  newKakaoOAuthConfig(deps.Conf),
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/sign-in", api.signIn)
	ug.POST("/parent-sign-up", api.parentSignUp)
	ug.POST("/token", api.refreshToken)
	ug.GET("/kakao/sign-in", api.kakaoSignIn)
	ug.GET("/kakao/callback", api.kakaoCallback)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/sign-up", api.signUp, adminMiddleware())
	ag.POST("/sign-out", api.signOut)
	ag.POST("/kakao/link", api.kakaoLink)
	ag.GET("", api.query, adminMiddleware())
	ag.GET("/me", api.me)
	ag.PUT("/:id", api.update)
}

// Handlers

// signUp creates a school account. Student accounts get a student profile
// created alongside, linked to the matching class when one exists.
func (api *userApi) signUp(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	if usr.IsStudent() {
		ns := student.NewStudent{
			UserID:     usr.ID,
			SchoolID:   usr.SchoolID,
			Grade:      data.Grade,
			GradeClass: data.GradeClass,
			Number:     data.Number,
		}
		if err = ns.Validate(api.validate); err != nil {
			return err
		}
		if _, err = api.studentSvc.Create(ns); err != nil {
			return errors.Wrap(err, "creating student profile")
		}
	}

	return ctx.JSON(http.StatusCreated, usr)
}

// parentSignUp is the only open registration: a parent creates their own
// account and gets linked to their child's student record.
func (api *userApi) parentSignUp(ctx echo.Context) error {
	var data ParentSignUpRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentSignUpRequest")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	st, err := api.studentSvc.GetOne(data.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "no such student"})
		}
		return errors.Wrap(err, "finding student")
	}

	usr, err := api.svc.Create(user.NewUser{
		Name:            data.Name,
		Email:           data.Email,
		Role:            user.RoleParent,
		Password:        data.Password,
		PasswordConfirm: data.PasswordConfirm,
		SchoolID:        st.User.SchoolID,
	})
	if err != nil {
		return errors.Wrap(err, "creating parent user")
	}

	if err = api.studentSvc.AttachParent(st.UserID, usr.ID); err != nil {
		return errors.Wrap(err, "attaching parent")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, claims, err := authenticate(api.conf, data.Email, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return api.tokenResponse(ctx, usr, claims)
}

func (api *userApi) signOut(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.ClearRefreshToken(usr); err != nil {
		return errors.Wrap(err, "clearing refresh token")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// refreshToken exchanges a valid stored refresh token for a new access token.
func (api *userApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := ParseToken(api.conf, data.RefreshToken)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(claims.UserID())
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errRefreshExpired
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	if err = api.svc.VerifyRefreshToken(usr, data.RefreshToken); err != nil {
		return errRefreshExpired
	}

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token, User: usr})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if id != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpNotFound
	}

	usr, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if !ctxUsr.IsAdmin() {
		// `IsActive` and `Email` can only be changed by admin
		if data.IsActive != nil || data.Email != "" {
			return errHttpForbidden
		}
	}
	if err = data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// Kakao social login

func (api *userApi) kakaoSignIn(ctx echo.Context) error {
	url := api.kakaoConf.AuthCodeURL(ctx.QueryParam("state"))
	return ctx.Redirect(http.StatusTemporaryRedirect, url)
}

// kakaoCallback signs in a user whose account has been linked to Kakao.
func (api *userApi) kakaoCallback(ctx echo.Context) error {
	kakaoID, err := api.fetchKakaoID(ctx, ctx.QueryParam("code"))
	if err != nil {
		return err
	}

	usr, err := api.svc.GetByKakaoID(kakaoID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(errors.New("no account linked to this Kakao profile"))
		}
		return errors.Wrap(err, "finding user by kakao ID")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	usr, err = api.svc.SetLastLogin(usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	return api.tokenResponse(ctx, usr, GetUserClaims(api.conf, usr))
}

// kakaoLink attaches a Kakao profile to the signed-in account.
func (api *userApi) kakaoLink(ctx echo.Context) error {
	var data KakaoLinkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KakaoLinkRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	kakaoID, err := api.fetchKakaoID(ctx, data.Code)
	if err != nil {
		return err
	}

	usr, err = api.svc.LinkKakao(usr, kakaoID)
	if err != nil {
		return errors.Wrap(err, "linking kakao profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// fetchKakaoID exchanges the authorization code and queries the Kakao
// profile API for the account's unique ID.
func (api *userApi) fetchKakaoID(ctx echo.Context, code string) (string, error) {
	if code == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "code", Error: "this field is required"})
	}

	reqCtx := ctx.Request().Context()
	token, err := api.kakaoConf.Exchange(reqCtx, code)
	if err != nil {
		return "", errAuthenticationFailed
	}

	res, err := api.kakaoConf.Client(reqCtx, token).Get(kakaoUserInfoURL)
	if err != nil {
		return "", errors.Wrap(err, "fetching kakao profile")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", errAuthenticationFailed
	}

	var profile struct {
		ID json.Number `json:"id"`
	}
	if err = json.NewDecoder(res.Body).Decode(&profile); err != nil {
		return "", errors.Wrap(err, "decoding kakao profile")
	}
	return profile.ID.String(), nil
}

func (api *userApi) tokenResponse(ctx echo.Context, usr user.User, claims *Claims) error {
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	refresh, err := GenerateRefreshToken(api.conf, usr)
	if err != nil {
		return errors.Wrap(err, "generating refresh token")
	}
	if err = api.svc.StoreRefreshToken(usr, refresh); err != nil {
		return errors.Wrap(err, "storing refresh token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token, RefreshToken: refresh, User: usr})
}

type (
	SignInRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	ParentSignUpRequest struct {
		Name            string `json:"name" validate:"required"`
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=8"`
		PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
		StudentID       uint   `json:"student_id" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	KakaoLinkRequest struct {
		Code string `json:"code" validate:"required"`
	}

	TokenResponse struct {
		Token        string    `json:"token"`
		RefreshToken string    `json:"refresh_token,omitempty"`
		User         user.User `json:"user"`
	}
)

func (sr *SignInRequest) Validate(validate *validator.Validate) error {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	return validate.Struct(sr)
}

func (pr *ParentSignUpRequest) Validate(validate *validator.Validate, svc user.ServiceInterface) error {
	pr.Name = core.CleanString(pr.Name)
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	if err := validate.Struct(pr); err != nil {
		return err
	}
	return svc.CheckUniqueness(pr.Email)
}

func (rr *RefreshRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}

func (kr *KakaoLinkRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(kr)
}
