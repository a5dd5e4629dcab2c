package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/user"
)

type (
	// Store upserts catalog entities: it inserts the entity unless one with the same key exists,
	// and returns the stored row either way.
	Store interface {
		UpsertDepartment(ctx context.Context, dept catalog.Department) (catalog.Department, error)
		UpsertPlan(ctx context.Context, plan catalog.SubscriptionPlan) (catalog.SubscriptionPlan, error)
		UpsertCourse(ctx context.Context, course catalog.Course) (catalog.Course, error)
		UpsertLesson(ctx context.Context, lesson catalog.Lesson) (catalog.Lesson, error)
		UpsertComment(ctx context.Context, comment catalog.Comment) (catalog.Comment, error)
		UpsertSubscription(ctx context.Context, sub catalog.Subscription) (catalog.Subscription, error)
	}

	UserStore interface {
		UpsertUser(ctx context.Context, usr user.User) (user.User, error)
	}

	// Account is a user created from fixtures, with its plain password.
	Account struct {
		Email    string
		Password string
		Role     string
	}

	Summary struct {
		Departments   int
		Plans         int
		Users         int
		Courses       int
		Lessons       int
		Comments      int
		Subscriptions int
		Accounts      []Account
	}

	Loader struct {
		store   Store
		users   UserStore
		logger  core.Logger
		nowFunc func() time.Time // mockable
	}
)

// Rows lists the entity counts, in loading order.
func (s Summary) Rows() [][2]interface{} {
	return [][2]interface{}{
		{"departments", s.Departments},
		{"plans", s.Plans},
		{"users", s.Users},
		{"courses", s.Courses},
		{"lessons", s.Lessons},
		{"comments", s.Comments},
		{"subscriptions", s.Subscriptions},
	}
}

func NewLoader(store Store, users UserStore, logger core.Logger) *Loader {
	return &Loader{store: store, users: users, logger: logger, nowFunc: time.Now}
}

// references resolves natural keys to stored IDs.
type references struct {
	departments map[string]string // {name: id}
	users       map[string]string // {email: id}
	plans       map[string]bool
	courses     map[string]bool
	lessons     map[string]bool
}

// Load upserts `data` in dependency order: departments, plans, users, courses, lessons,
// comments, then subscriptions. It stops at the first failure; rows written before it are kept.
func (l *Loader) Load(ctx context.Context, data *Data) (Summary, error) {
	var sum Summary
	refs := references{
		departments: make(map[string]string),
		users:       make(map[string]string),
		plans:       make(map[string]bool),
		courses:     make(map[string]bool),
		lessons:     make(map[string]bool),
	}
	now := l.nowFunc().UTC()

	for _, d := range data.Departments {
		dept, err := l.store.UpsertDepartment(ctx, catalog.Department{ID: uuid.NewString(), Name: d.Name, CreatedAt: now})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting department %q", d.Name)
		}
		refs.departments[dept.Name] = dept.ID
		sum.Departments++
	}

	for _, p := range data.Plans {
		_, err := l.store.UpsertPlan(ctx, catalog.SubscriptionPlan{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Interval:    p.Interval,
			Price:       catalog.PriceFromCents(p.PriceCents),
			Currency:    p.Currency,
			Features:    p.Features,
			IsActive:    true,
			CreatedAt:   now,
		})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting plan %q", p.ID)
		}
		refs.plans[p.ID] = true
		sum.Plans++
	}

	for _, u := range data.Users {
		usr, err := l.loadUser(ctx, u, refs, now)
		if err != nil {
			return sum, errors.Wrapf(err, "upserting user %q", u.Email)
		}
		refs.users[usr.Email] = usr.ID
		sum.Users++
		sum.Accounts = append(sum.Accounts, Account{Email: usr.Email, Password: u.Password, Role: usr.Role})
	}

	for _, c := range data.Courses {
		deptID, ok := refs.departments[c.Department]
		if !ok {
			return sum, errors.Errorf("course %q: unknown department %q", c.ID, c.Department)
		}
		_, err := l.store.UpsertCourse(ctx, catalog.Course{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			Semester:     c.Semester,
			Professor:    c.Professor,
			DepartmentID: deptID,
			Tags:         c.Tags,
			IsPremium:    c.IsPremium,
			Views:        c.Views,
			CreatedAt:    now,
		})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting course %q", c.ID)
		}
		refs.courses[c.ID] = true
		sum.Courses++
	}

	for _, ls := range data.Lessons {
		if !refs.courses[ls.Course] {
			return sum, errors.Errorf("lesson %q: unknown course %q", ls.ID, ls.Course)
		}
		_, err := l.store.UpsertLesson(ctx, catalog.Lesson{
			ID:                           ls.ID,
			CourseID:                     ls.Course,
			Title:                        ls.Title,
			Type:                         ls.Type,
			Duration:                     ls.DurationSec,
			VimeoID:                      ls.VimeoID,
			PDFURL:                       ls.PDFURL,
			IsPremium:                    ls.IsPremium,
			RequiresVideoSubscription:    ls.RequiresVideoSubscription,
			RequiresDocumentSubscription: ls.RequiresDocumentSubscription,
			OrderIndex:                   ls.OrderIndex,
			CreatedAt:                    now,
		})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting lesson %q", ls.ID)
		}
		refs.lessons[ls.ID] = true
		sum.Lessons++
	}

	for _, c := range data.Comments {
		if !refs.lessons[c.Lesson] {
			return sum, errors.Errorf("comment %q: unknown lesson %q", c.ID, c.Lesson)
		}
		userID, ok := refs.users[core.CleanString(c.User, true)]
		if !ok {
			return sum, errors.Errorf("comment %q: unknown user %q", c.ID, c.User)
		}
		_, err := l.store.UpsertComment(ctx, catalog.Comment{ID: c.ID, LessonID: c.Lesson, UserID: userID, Content: c.Content, CreatedAt: now})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting comment %q", c.ID)
		}
		sum.Comments++
	}

	for _, s := range data.Subscriptions {
		userID, ok := refs.users[core.CleanString(s.User, true)]
		if !ok {
			return sum, errors.Errorf("subscription %q: unknown user %q", s.ID, s.User)
		}
		if !refs.plans[s.Plan] {
			return sum, errors.Errorf("subscription %q: unknown plan %q", s.ID, s.Plan)
		}
		_, err := l.store.UpsertSubscription(ctx, catalog.Subscription{
			ID:        s.ID,
			UserID:    userID,
			PlanID:    s.Plan,
			Status:    s.Status,
			StartAt:   now,
			EndAt:     now.AddDate(0, 0, s.DurationDays),
			CreatedAt: now,
		})
		if err != nil {
			return sum, errors.Wrapf(err, "upserting subscription %q", s.ID)
		}
		sum.Subscriptions++
	}

	for _, acc := range sum.Accounts {
		l.logger.Info(fmt.Sprintf("demo account: %s / %s (%s)", acc.Email, acc.Password, acc.Role))
	}
	return sum, nil
}

func (l *Loader) loadUser(ctx context.Context, u UserData, refs references, now time.Time) (user.User, error) {
	role := u.Role
	if role == "" {
		role = user.RoleStudent
	}
	if !user.IsValidRole(role) {
		return user.User{}, errors.Errorf("invalid role %q", role)
	}

	var deptID string
	if u.Department != "" {
		id, ok := refs.departments[u.Department]
		if !ok {
			return user.User{}, errors.Errorf("unknown department %q", u.Department)
		}
		deptID = id
	}

	usr := user.User{
		ID:           uuid.NewString(),
		Email:        core.CleanString(u.Email, true /* lower */),
		Name:         u.Name,
		Role:         role,
		DepartmentID: deptID,
		Semester:     u.Semester,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := usr.SetPassword(u.Password); err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}
	return l.users.UpsertUser(ctx, usr)
}
