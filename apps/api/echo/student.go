package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core/class"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

type studentApi struct {
	svc      student.ServiceInterface
	userSvc  user.ServiceInterface
	classSvc class.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		userSvc:  deps.UserSvc,
		classSvc: deps.ClassSvc,
		validate: deps.Validate,
	}

	staff := roleMiddleware(user.RoleTeacher)

	sg := g.Group("/students", jwt, staff)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy, adminMiddleware())

	cg := g.Group("/classes", jwt, staff)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, adminMiddleware())
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// staff only see their own school
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter.SchoolID = ctxUsr.SchoolID

	students, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	st, err := api.svc.GetOne(id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	st, err := api.svc.Update(id, data, ctxUsr.SchoolID)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) queryClasses(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	classes, err := api.classSvc.QueryBySchool(ctxUsr.SchoolID)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *studentApi) createClass(ctx echo.Context) error {
	var data NewClassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cls, err := api.classSvc.Create(class.Class{
		Grade:      data.Grade,
		GradeClass: data.GradeClass,
		SchoolID:   ctxUsr.SchoolID,
		TeacherID:  data.TeacherID,
	})
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

type NewClassRequest struct {
	Grade      int   `json:"grade" validate:"required,min=1"`
	GradeClass int   `json:"grade_class" validate:"required,min=1"`
	TeacherID  *uint `json:"teacher_id"`
}

func (nc *NewClassRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(nc)
}
