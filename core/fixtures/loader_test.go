package fixtures

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/user"
)

// memStore keeps the first row written for every key.
type memStore struct {
	mu            sync.Mutex
	departments   map[string]catalog.Department // {name: dept}
	plans         map[string]catalog.SubscriptionPlan
	users         map[string]user.User // {email: user}
	courses       map[string]catalog.Course
	lessons       map[string]catalog.Lesson
	comments      map[string]catalog.Comment
	subscriptions map[string]catalog.Subscription
	writes        int
}

var (
	_ Store     = (*memStore)(nil)
	_ UserStore = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		departments:   make(map[string]catalog.Department),
		plans:         make(map[string]catalog.SubscriptionPlan),
		users:         make(map[string]user.User),
		courses:       make(map[string]catalog.Course),
		lessons:       make(map[string]catalog.Lesson),
		comments:      make(map[string]catalog.Comment),
		subscriptions: make(map[string]catalog.Subscription),
	}
}

func upsert[T any](s *memStore, m map[string]T, key string, v T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := m[key]; ok {
		return existing, nil
	}
	m[key] = v
	s.writes++
	return v, nil
}

func (s *memStore) UpsertDepartment(_ context.Context, d catalog.Department) (catalog.Department, error) {
	return upsert(s, s.departments, d.Name, d)
}

func (s *memStore) UpsertPlan(_ context.Context, p catalog.SubscriptionPlan) (catalog.SubscriptionPlan, error) {
	return upsert(s, s.plans, p.ID, p)
}

func (s *memStore) UpsertUser(_ context.Context, u user.User) (user.User, error) {
	return upsert(s, s.users, u.Email, u)
}

func (s *memStore) UpsertCourse(_ context.Context, c catalog.Course) (catalog.Course, error) {
	return upsert(s, s.courses, c.ID, c)
}

func (s *memStore) UpsertLesson(_ context.Context, l catalog.Lesson) (catalog.Lesson, error) {
	return upsert(s, s.lessons, l.ID, l)
}

func (s *memStore) UpsertComment(_ context.Context, c catalog.Comment) (catalog.Comment, error) {
	return upsert(s, s.comments, c.ID, c)
}

func (s *memStore) UpsertSubscription(_ context.Context, sub catalog.Subscription) (catalog.Subscription, error) {
	return upsert(s, s.subscriptions, sub.ID, sub)
}

type nopLogger struct{ *log.Logger }

func (l nopLogger) Debug(msg string, _ ...interface{}) { l.Println(msg) }
func (l nopLogger) Info(msg string, _ ...interface{})  { l.Println(msg) }
func (l nopLogger) Warn(msg string, _ ...interface{})  { l.Println(msg) }
func (l nopLogger) Error(msg string, _ ...interface{}) { l.Println(msg) }
func (l nopLogger) Fatal(msg string, _ ...interface{}) { l.Println(msg) }

func newTestLoader(store *memStore) *Loader {
	return NewLoader(store, store, nopLogger{log.New(io.Discard, "", 0)})
}

func TestLoader_Load_idempotent(t *testing.T) {
	data, err := DemoData()
	require.NoError(t, err)

	store := newMemStore()
	loader := newTestLoader(store)
	ctx := context.Background()

	sum, err := loader.Load(ctx, data)
	require.NoError(t, err)
	firstWrites := store.writes

	assert.Equal(t, 4, sum.Departments)
	assert.Equal(t, 4, sum.Plans)
	assert.Equal(t, 2, sum.Users)
	assert.Equal(t, 4, sum.Courses)
	assert.Equal(t, len(data.Lessons), sum.Lessons)
	assert.Equal(t, 2, sum.Comments)
	assert.Equal(t, 1, sum.Subscriptions)
	require.Len(t, sum.Accounts, 2)
	assert.Equal(t, "admin@archify.ma", sum.Accounts[0].Email)
	assert.Equal(t, "admin123", sum.Accounts[0].Password)

	admin := store.users["admin@archify.ma"]
	deptID := admin.DepartmentID
	assert.Equal(t, store.departments["Informatique de Gestion"].ID, deptID)
	assert.NoError(t, admin.CheckPassword("admin123"))

	sub := store.subscriptions["sub-1"]
	assert.Equal(t, store.users["student@archify.ma"].ID, sub.UserID)
	assert.Equal(t, 30*24, int(sub.EndAt.Sub(sub.StartAt).Hours()))

	// second run: same summary, nothing new written, stored IDs unchanged
	sum2, err := loader.Load(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, firstWrites, store.writes)
	assert.Equal(t, sum.Rows(), sum2.Rows())
	assert.Len(t, store.departments, 4)
	assert.Len(t, store.users, 2)
	assert.Len(t, store.lessons, len(data.Lessons))
	assert.Equal(t, deptID, store.users["admin@archify.ma"].DepartmentID)
}

func TestLoader_Load_unknownReference(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "course department",
			data:    "courses:\n  - id: c1\n    department: Nope\n",
			wantErr: `course "c1": unknown department "Nope"`,
		},
		{
			name:    "lesson course",
			data:    "lessons:\n  - id: l1\n    course: c1\n",
			wantErr: `lesson "l1": unknown course "c1"`,
		},
		{
			name:    "subscription plan",
			data:    "users:\n  - email: a@b.c\n    password: x\n    name: A\nsubscriptions:\n  - id: s1\n    user: a@b.c\n    plan: gold\n",
			wantErr: `subscription "s1": unknown plan "gold"`,
		},
		{
			name:    "user role",
			data:    "users:\n  - email: a@b.c\n    password: x\n    role: KING\n",
			wantErr: `invalid role "KING"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Parse(strings.NewReader(tt.data))
			require.NoError(t, err)

			_, err = newTestLoader(newMemStore()).Load(context.Background(), data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse(t *testing.T) {
	data, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, data.Departments)

	_, err = Parse(strings.NewReader("departments:\n  - name: A\n    color: red\n"))
	assert.Error(t, err)

	data, err = Parse(strings.NewReader("plans:\n  - id: p\n    price_cents: 4900\n    features: [a, b]\n"))
	require.NoError(t, err)
	assert.Equal(t, []PlanData{{ID: "p", PriceCents: 4900, Features: []string{"a", "b"}}}, data.Plans)
}
