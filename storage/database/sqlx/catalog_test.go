package sqlxrepos

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/fixtures"
	"github.com/archify/backend/tests"
)

func seed(t *testing.T) (*catalogRepository, fixtures.Summary) {
	t.Helper()
	db := testutil.PrepareDB(t)
	repo := NewCatalogRepository(db)

	data, err := fixtures.DemoData()
	require.NoError(t, err)

	loader := fixtures.NewLoader(repo, NewUserRepository(db), testutil.NewLogger(t))
	sum, err := loader.Load(context.Background(), data)
	require.NoError(t, err)
	return repo, sum
}

func count(t *testing.T, repo *catalogRepository, table string) int {
	t.Helper()
	var n int
	require.NoError(t, repo.get(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestFixtures_loadTwice(t *testing.T) {
	repo, sum := seed(t)
	ctx := context.Background()

	data, err := fixtures.DemoData()
	require.NoError(t, err)
	loader := fixtures.NewLoader(repo, NewUserRepository(repo.exec), testutil.NewLogger(t))
	sum2, err := loader.Load(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, sum.Rows(), sum2.Rows())

	for table, want := range map[string]int{
		"departments":        len(data.Departments),
		"subscription_plans": len(data.Plans),
		"users":              len(data.Users),
		"courses":            len(data.Courses),
		"lessons":            len(data.Lessons),
		"comments":           len(data.Comments),
		"subscriptions":      len(data.Subscriptions),
	} {
		assert.Equal(t, want, count(t, repo, table), table)
	}
}

func TestCatalogRepository_reads(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	depts, err := repo.QueryDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 4)
	assert.Equal(t, "Comptabilité", depts[0].Name)

	plans, err := repo.QueryPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, plans, 4)
	assert.Equal(t, "free-plan", plans[0].ID)
	assert.True(t, plans[0].IsFree())
	assert.Equal(t, "full-access", plans[3].ID)
	assert.Equal(t, "1000", plans[3].Price.String())
	assert.Contains(t, plans[3].Features, "Support premium 24/7")

	course, err := repo.GetCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Algorithmique", "Programmation", "Logique"}, course.Tags)
	assert.True(t, course.IsPremium)

	_, err = repo.GetCourse(ctx, "nope")
	assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))

	lessons, err := repo.QueryLessons(ctx, "course-1")
	require.NoError(t, err)
	require.NotEmpty(t, lessons)
	for i := 1; i < len(lessons); i++ {
		assert.LessOrEqual(t, lessons[i-1].OrderIndex, lessons[i].OrderIndex)
	}
	assert.Equal(t, "123456789", lessons[0].VimeoID)
	assert.Equal(t, 1800, lessons[0].Duration)

	comments, err := repo.QueryComments(ctx, "lesson-1-1")
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestCatalogRepository_QueryCourses(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()
	bPtr := func(b bool) *bool { return &b }

	depts, err := repo.QueryDepartments(ctx)
	require.NoError(t, err)
	var comptaID string
	for _, d := range depts {
		if d.Name == "Comptabilité" {
			comptaID = d.ID
		}
	}
	byViews := []core.DBOrdering{{Field: "views"}}

	tests := []struct {
		name    string
		filter  *catalog.QueryFilter
		wantIDs []string
	}{
		{name: "all", wantIDs: []string{"course-1", "course-4", "course-2", "course-3"}},
		{name: "department", filter: &catalog.QueryFilter{DepartmentID: comptaID}, wantIDs: []string{"course-4"}},
		{name: "semester", filter: &catalog.QueryFilter{Semester: "S2"}, wantIDs: []string{"course-3"}},
		{name: "search title", filter: &catalog.QueryFilter{Search: "ANALYSE"}, wantIDs: []string{"course-2"}},
		{name: "search professor", filter: &catalog.QueryFilter{Search: "fermat"}, wantIDs: []string{"course-3"}},
		{name: "premium", filter: &catalog.QueryFilter{IsPremium: bPtr(true)}, wantIDs: []string{"course-1", "course-3"}},
		{name: "free S1", filter: &catalog.QueryFilter{Semester: "S1", IsPremium: bPtr(false)}, wantIDs: []string{"course-4", "course-2"}},
		{name: "no match", filter: &catalog.QueryFilter{Search: "lol"}, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := repo.QueryCourses(ctx, tt.filter, byViews)
			require.NoError(t, err)
			ids := make([]string, 0, len(courses))
			for _, c := range courses {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
