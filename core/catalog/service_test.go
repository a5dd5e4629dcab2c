package catalog

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archify/backend/core"
)

type stubRepository struct {
	courses  map[string]Course
	lessons  map[string][]Lesson  // {courseID: lessons}
	comments map[string][]Comment // {lessonID: comments}

	lastFilter   *QueryFilter
	lastOrdering []core.DBOrdering
}

var _ Repository = (*stubRepository)(nil)

func (r *stubRepository) QueryDepartments(context.Context) ([]Department, error) {
	return []Department{{ID: "d-1", Name: "Architecture"}}, nil
}

func (r *stubRepository) QueryPlans(_ context.Context, activeOnly bool) ([]SubscriptionPlan, error) {
	plans := []SubscriptionPlan{{ID: "free-plan", IsActive: true}, {ID: "legacy"}}
	if !activeOnly {
		return plans, nil
	}
	return plans[:1], nil
}

func (r *stubRepository) QueryCourses(_ context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	r.lastFilter, r.lastOrdering = filter, ordering
	return nil, nil
}

func (r *stubRepository) GetCourse(_ context.Context, id string) (Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return course, nil
}

func (r *stubRepository) QueryLessons(_ context.Context, courseID string) ([]Lesson, error) {
	return r.lessons[courseID], nil
}

func (r *stubRepository) GetLesson(_ context.Context, id string) (Lesson, error) {
	for _, lessons := range r.lessons {
		for _, l := range lessons {
			if l.ID == id {
				return l, nil
			}
		}
	}
	return Lesson{}, ErrNotFound
}

func (r *stubRepository) QueryComments(_ context.Context, lessonID string) ([]Comment, error) {
	return r.comments[lessonID], nil
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		courses: map[string]Course{"course-1": {ID: "course-1", Title: "Histoire"}},
		lessons: map[string][]Lesson{"course-1": {
			{ID: "lesson-1-1", CourseID: "course-1", OrderIndex: 1},
			{ID: "lesson-1-2", CourseID: "course-1", OrderIndex: 2},
		}},
		comments: map[string][]Comment{"lesson-1-1": {{ID: "comment-1", LessonID: "lesson-1-1"}}},
	}
}

func TestService_Course(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	course, err := svc.Course(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, course.Lessons, 2)
	assert.Equal(t, "lesson-1-1", course.Lessons[0].ID)

	_, err = svc.Course(ctx, "nope")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_LessonComments(t *testing.T) {
	svc := NewService(newStubRepository())
	ctx := context.Background()

	comments, err := svc.LessonComments(ctx, "lesson-1-1")
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	comments, err = svc.LessonComments(ctx, "lesson-1-2")
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = svc.LessonComments(ctx, "nope")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_CoursesAndPlans(t *testing.T) {
	repo := newStubRepository()
	svc := NewService(repo)
	ctx := context.Background()

	premium := true
	_, err := svc.Courses(ctx, QueryFilter{Search: "  histoire ", Semester: " S1", IsPremium: &premium})
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter)
	assert.Equal(t, "histoire", repo.lastFilter.Search)
	assert.Equal(t, "S1", repo.lastFilter.Semester)
	assert.Equal(t, &premium, repo.lastFilter.IsPremium)
	assert.Equal(t, "views DESC", repo.lastOrdering[0].String())

	_, err = svc.Courses(ctx, QueryFilter{}, core.DBOrdering{Field: "title", Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []core.DBOrdering{{Field: "title", Ascending: true}}, repo.lastOrdering)

	_, err = svc.Courses(ctx, QueryFilter{}, core.DBOrdering{Field: "views; DROP TABLE courses"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "ordering", vErr.Fields[0].Field)

	plans, err := svc.Plans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}
