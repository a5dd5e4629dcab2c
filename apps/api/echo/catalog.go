package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
)

// CatalogService is satisfied by *catalog.Service.
type CatalogService interface {
	Departments(ctx context.Context) ([]catalog.Department, error)
	Plans(ctx context.Context) ([]catalog.SubscriptionPlan, error)
	Courses(ctx context.Context, filter catalog.QueryFilter, ordering ...core.DBOrdering) ([]catalog.Course, error)
	Course(ctx context.Context, id string) (catalog.Course, error)
	LessonComments(ctx context.Context, lessonID string) ([]catalog.Comment, error)
}

type catalogApi struct {
	svc CatalogService
}

func registerCatalogAPI(g *echo.Group, svc CatalogService) {
	api := catalogApi{svc: svc}

	g.GET("/departments", api.departments)
	g.GET("/plans", api.plans)
	g.GET("/courses", api.courses)
	g.GET("/courses/:id", api.course)
	g.GET("/lessons/:id/comments", api.lessonComments)
}

// trapNotFound maps catalog.ErrNotFound to a 404
func trapNotFound(err error, msg string) error {
	if errors.Cause(err) == catalog.ErrNotFound {
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

// Handlers

func (api *catalogApi) departments(ctx echo.Context) error {
	depts, err := api.svc.Departments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *catalogApi) plans(ctx echo.Context) error {
	plans, err := api.svc.Plans(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *catalogApi) courses(ctx echo.Context) error {
	var query CourseQuery
	if err := query.Bind(ctx); err != nil {
		return err
	}

	courses, err := api.svc.Courses(ctx.Request().Context(), query.Filter, query.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *catalogApi) course(ctx echo.Context) error {
	course, err := api.svc.Course(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFound(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *catalogApi) lessonComments(ctx echo.Context) error {
	comments, err := api.svc.LessonComments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return trapNotFound(err, "querying comments")
	}
	return ctx.JSON(http.StatusOK, comments)
}
