package catalog

import (
	"context"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
)

var (
	// errors
	ErrNotFound = errors.New("not found")

	// course fields clients may order by
	courseOrderingFields = map[string]bool{
		"title":      true,
		"semester":   true,
		"professor":  true,
		"views":      true,
		"created_at": true,
	}
	defaultCourseOrdering = []core.DBOrdering{
		{Field: "views"},
		{Field: "title", Ascending: true},
	}
)

type (
	Repository interface {
		QueryDepartments(ctx context.Context) ([]Department, error)
		QueryPlans(ctx context.Context, activeOnly bool) ([]SubscriptionPlan, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryLessons(ctx context.Context, courseID string) ([]Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		QueryComments(ctx context.Context, lessonID string) ([]Comment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Departments(ctx context.Context) ([]Department, error) {
	return svc.repo.QueryDepartments(ctx)
}

// Plans returns the active subscription plans, cheapest first.
func (svc *Service) Plans(ctx context.Context) ([]SubscriptionPlan, error) {
	return svc.repo.QueryPlans(ctx, true)
}

// Courses returns the courses matching `filter`, most viewed first unless `ordering` is given.
func (svc *Service) Courses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	for _, ord := range ordering {
		if !courseOrderingFields[ord.Field] {
			err := errors.Errorf("cannot order by %q", ord.Field)
			return nil, core.NewValidationError(err, core.FieldError{Field: "ordering", Error: err.Error()})
		}
	}
	if len(ordering) == 0 {
		ordering = defaultCourseOrdering
	}

	filter.DepartmentID = core.CleanString(filter.DepartmentID)
	filter.Semester = core.CleanString(filter.Semester)
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.QueryCourses(ctx, &filter, ordering)
}

// Course returns the course with its lessons ordered by OrderIndex.
func (svc *Service) Course(ctx context.Context, id string) (Course, error) {
	course, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, course.ID)
	if err != nil {
		return Course{}, errors.Wrap(err, "querying lessons")
	}
	course.Lessons = lessons
	return course, nil
}

// LessonComments returns the comments posted on a lesson, oldest first.
func (svc *Service) LessonComments(ctx context.Context, lessonID string) ([]Comment, error) {
	if _, err := svc.repo.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return svc.repo.QueryComments(ctx, lessonID)
}
