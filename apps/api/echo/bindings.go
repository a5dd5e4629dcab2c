package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=views,-title": a leading "-" means descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// CourseQuery holds the course list query params.
type CourseQuery struct {
	Ordering
	Filter catalog.QueryFilter
}

func (q *CourseQuery) Bind(ctx echo.Context) error {
	q.Ordering.Bind(ctx)
	q.Filter = catalog.QueryFilter{
		DepartmentID: ctx.QueryParam("department"),
		Semester:     ctx.QueryParam("semester"),
		Search:       ctx.QueryParam("search"),
	}
	if val := ctx.QueryParam("premium"); val != "" {
		premium, err := strconv.ParseBool(val)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "premium", Error: "must be a boolean"})
		}
		q.Filter.IsPremium = &premium
	}
	return nil
}
