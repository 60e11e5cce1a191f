package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/user"
)

type consultationApi struct {
	svc      consultation.ServiceInterface
	validate *validator.Validate
}

func registerConsultationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := consultationApi{
		svc:      deps.ConsultationSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/consultations", jwt)
	cg.POST("", api.request, roleMiddleware(user.RoleParent))
	cg.GET("", api.query)
	cg.PATCH("/:id", api.updateStatus, roleMiddleware(user.RoleTeacher))
}

// Handlers

func (api *consultationApi) request(ctx echo.Context) error {
	var data consultation.NewConsultation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConsultation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.Request(ctx.Request().Context(), claims.UserID(), data)
	if err != nil {
		return errors.Wrap(err, "requesting consultation")
	}
	return ctx.JSON(http.StatusCreated, c)
}

// query lists the caller's consultations: teachers see requests addressed to
// them, parents see requests they made.
func (api *consultationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var consultations []consultation.Consultation
	switch {
	case claims.IsTeacher || claims.IsAdmin:
		consultations, err = api.svc.QueryForTeacher(ctx.Request().Context(), claims.UserID())
	case claims.IsParent:
		consultations, err = api.svc.QueryForRequester(ctx.Request().Context(), claims.UserID())
	default:
		return errHttpForbidden
	}
	if err != nil {
		return errors.Wrap(err, "querying consultations")
	}
	if consultations == nil {
		consultations = []consultation.Consultation{}
	}
	return ctx.JSON(http.StatusOK, consultations)
}

func (api *consultationApi) updateStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data consultation.UpdateConsultationStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConsultationStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.UpdateStatus(ctx.Request().Context(), id, claims.UserID(), data)
	if err != nil {
		return errors.Wrap(err, "updating consultation status")
	}
	return ctx.JSON(http.StatusOK, c)
}
