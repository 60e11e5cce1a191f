package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core/feedback"
	"github.com/jihokim/haksa/core/user"
)

type feedbackApi struct {
	svc      feedback.ServiceInterface
	validate *validator.Validate
}

func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feedbackApi{
		svc:      deps.FeedbackSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/students/:id/feedback", jwt, roleMiddleware(user.RoleTeacher))
	sg.POST("", api.create)
	sg.PATCH("", api.update)
	sg.GET("", api.query)

	fg := g.Group("/feedback", jwt)
	fg.GET("/mine", api.queryMine, roleMiddleware(user.RoleStudent))
	fg.GET("/child", api.queryForChild, roleMiddleware(user.RoleParent))
}

// Handlers

func (api *feedbackApi) create(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data CreateFeedbackRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateFeedbackRequest")
	}

	entries, err := api.svc.Create(ctx.Request().Context(), studentID, data.Feedback, data.SchoolYear)
	if err != nil {
		return errors.Wrap(err, "creating feedback")
	}
	return ctx.JSON(http.StatusCreated, entries)
}

// update applies the batch all-or-nothing: each item must echo the
// updated_at it last read, and any mismatch rejects the whole batch
// with 409 so the client can reload.
func (api *feedbackApi) update(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data UpdateFeedbackRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFeedbackRequest")
	}

	if err = api.svc.Update(ctx.Request().Context(), studentID, data.Feedback, data.SchoolYear); err != nil {
		return errors.Wrap(err, "updating feedback")
	}

	entries, err := api.svc.Query(ctx.Request().Context(), studentID, data.SchoolYear)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.Query(ctx.Request().Context(), studentID, schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return api.entriesResponse(ctx, entries)
}

func (api *feedbackApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	entries, err := api.svc.QueryMine(ctx.Request().Context(), claims.UserID(), schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying own feedback")
	}
	return api.entriesResponse(ctx, entries)
}

func (api *feedbackApi) queryForChild(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	entries, err := api.svc.QueryForChild(ctx.Request().Context(), claims.UserID(), schoolYearParam(ctx))
	if err != nil {
		return errors.Wrap(err, "querying child feedback")
	}
	return api.entriesResponse(ctx, entries)
}

func (api *feedbackApi) entriesResponse(ctx echo.Context, entries []feedback.Entry) error {
	if entries == nil {
		entries = []feedback.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type (
	CreateFeedbackRequest struct {
		SchoolYear int                     `json:"school_year"`
		Feedback   []feedback.NewEntryItem `json:"feedback"`
	}

	UpdateFeedbackRequest struct {
		SchoolYear int                   `json:"school_year"`
		Feedback   []feedback.UpdateItem `json:"feedback"`
	}
)
