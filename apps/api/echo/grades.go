package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/grades"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

type gradesApi struct {
	svc        grades.ServiceInterface
	studentSvc student.ServiceInterface
	validate   *validator.Validate
}

func registerGradesAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gradesApi{
		svc:        deps.GradesSvc,
		studentSvc: deps.StudentSvc,
		validate:   deps.Validate,
	}

	staff := roleMiddleware(user.RoleTeacher)

	sg := g.Group("/students/:id/grades", jwt, staff)
	sg.POST("", api.create)
	sg.GET("", api.query)

	gg := g.Group("/grades", jwt)
	gg.PATCH("/:id", api.update, staff)
	gg.GET("/mine", api.queryMine, roleMiddleware(user.RoleStudent))
	gg.GET("/child", api.queryForChild, roleMiddleware(user.RoleParent))
}

// Handlers

func (api *gradesApi) create(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data CreateGradesRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateGradesRequest")
	}
	for i := range data.Grades {
		if err = data.Grades[i].Validate(api.validate); err != nil {
			return err
		}
	}
	if data.SchoolYear == 0 {
		data.SchoolYear = core.SchoolYear(time.Now())
	}

	gds, err := api.svc.Create(ctx.Request().Context(), studentID, data.Grades, data.SchoolYear)
	if err != nil {
		return errors.Wrap(err, "creating grades")
	}
	return ctx.JSON(http.StatusCreated, gds)
}

func (api *gradesApi) query(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	gds, err := api.svc.Query(ctx.Request().Context(), studentID, schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return api.gradesResponse(ctx, gds)
}

func (api *gradesApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data grades.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	gd, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, gd)
}

func (api *gradesApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	st, err := api.studentSvc.GetByUserID(claims.UserID())
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	gds, err := api.svc.Query(ctx.Request().Context(), st.ID, schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying own grades")
	}
	return api.gradesResponse(ctx, gds)
}

func (api *gradesApi) queryForChild(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	st, err := api.studentSvc.GetByParentUserID(claims.UserID())
	if err != nil {
		return errors.Wrap(err, "finding child student")
	}
	gds, err := api.svc.Query(ctx.Request().Context(), st.ID, schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying child grades")
	}
	return api.gradesResponse(ctx, gds)
}

func (api *gradesApi) gradesResponse(ctx echo.Context, gds []grades.Grade) error {
	if gds == nil {
		gds = []grades.Grade{}
	}
	return ctx.JSON(http.StatusOK, gds)
}

type CreateGradesRequest struct {
	SchoolYear int                   `json:"school_year"`
	Grades     []grades.NewGradeItem `json:"grades"`
}
