package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/fixtures"
)

const (
	departmentColumns   = "id, name, created_at"
	planColumns         = "id, name, description, type, billing_interval, price_cents, currency, features, is_active, created_at"
	courseColumns       = "id, title, description, semester, professor, department_id, tags, is_premium, views, created_at"
	lessonColumns       = "id, course_id, title, type, duration_sec, vimeo_id, pdf_url, is_premium, requires_video_subscription, requires_document_subscription, order_index, created_at"
	commentColumns      = "id, lesson_id, user_id, content, created_at"
	subscriptionColumns = "id, user_id, plan_id, status, start_at, end_at, created_at"
)

type (
	departmentRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}

	planRow struct {
		ID          string         `db:"id"`
		Name        string         `db:"name"`
		Description string         `db:"description"`
		Type        string         `db:"type"`
		Interval    string         `db:"billing_interval"`
		PriceCents  int64          `db:"price_cents"`
		Currency    string         `db:"currency"`
		Features    pq.StringArray `db:"features"`
		IsActive    bool           `db:"is_active"`
		CreatedAt   time.Time      `db:"created_at"`
	}

	courseRow struct {
		ID           string         `db:"id"`
		Title        string         `db:"title"`
		Description  string         `db:"description"`
		Semester     string         `db:"semester"`
		Professor    string         `db:"professor"`
		DepartmentID string         `db:"department_id"`
		Tags         pq.StringArray `db:"tags"`
		IsPremium    bool           `db:"is_premium"`
		Views        int            `db:"views"`
		CreatedAt    time.Time      `db:"created_at"`
	}

	lessonRow struct {
		ID                           string      `db:"id"`
		CourseID                     string      `db:"course_id"`
		Title                        string      `db:"title"`
		Type                         string      `db:"type"`
		DurationSec                  null.Int    `db:"duration_sec"`
		VimeoID                      null.String `db:"vimeo_id"`
		PDFURL                       null.String `db:"pdf_url"`
		IsPremium                    bool        `db:"is_premium"`
		RequiresVideoSubscription    bool        `db:"requires_video_subscription"`
		RequiresDocumentSubscription bool        `db:"requires_document_subscription"`
		OrderIndex                   int         `db:"order_index"`
		CreatedAt                    time.Time   `db:"created_at"`
	}

	commentRow struct {
		ID        string    `db:"id"`
		LessonID  string    `db:"lesson_id"`
		UserID    string    `db:"user_id"`
		Content   string    `db:"content"`
		CreatedAt time.Time `db:"created_at"`
	}

	subscriptionRow struct {
		ID        string    `db:"id"`
		UserID    string    `db:"user_id"`
		PlanID    string    `db:"plan_id"`
		Status    string    `db:"status"`
		StartAt   time.Time `db:"start_at"`
		EndAt     time.Time `db:"end_at"`
		CreatedAt time.Time `db:"created_at"`
	}
)

func (r departmentRow) toDepartment() catalog.Department {
	return catalog.Department{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func (r planRow) toPlan() catalog.SubscriptionPlan {
	return catalog.SubscriptionPlan{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		Interval:    r.Interval,
		Price:       catalog.PriceFromCents(r.PriceCents),
		Currency:    r.Currency,
		Features:    nonNil(r.Features),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r courseRow) toCourse() catalog.Course {
	return catalog.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Semester:     r.Semester,
		Professor:    r.Professor,
		DepartmentID: r.DepartmentID,
		Tags:         nonNil(r.Tags),
		IsPremium:    r.IsPremium,
		Views:        r.Views,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r lessonRow) toLesson() catalog.Lesson {
	return catalog.Lesson{
		ID:                           r.ID,
		CourseID:                     r.CourseID,
		Title:                        r.Title,
		Type:                         r.Type,
		Duration:                     r.DurationSec.Int,
		VimeoID:                      r.VimeoID.String,
		PDFURL:                       r.PDFURL.String,
		IsPremium:                    r.IsPremium,
		RequiresVideoSubscription:    r.RequiresVideoSubscription,
		RequiresDocumentSubscription: r.RequiresDocumentSubscription,
		OrderIndex:                   r.OrderIndex,
		CreatedAt:                    r.CreatedAt.UTC(),
	}
}

func (r commentRow) toComment() catalog.Comment {
	return catalog.Comment{ID: r.ID, LessonID: r.LessonID, UserID: r.UserID, Content: r.Content, CreatedAt: r.CreatedAt.UTC()}
}

func (r subscriptionRow) toSubscription() catalog.Subscription {
	return catalog.Subscription{
		ID:        r.ID,
		UserID:    r.UserID,
		PlanID:    r.PlanID,
		Status:    r.Status,
		StartAt:   r.StartAt.UTC(),
		EndAt:     r.EndAt.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func nonNil(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return a
}

type catalogRepository struct {
	exec core.DBExecutor
}

var (
	// interface compliance checks
	_ catalog.Repository = (*catalogRepository)(nil)
	_ fixtures.Store     = (*catalogRepository)(nil)
)

func NewCatalogRepository(exec core.DBExecutor) *catalogRepository {
	return &catalogRepository{exec: exec}
}

// trapNoRowsErr maps "no rows" err to catalog.ErrNotFound
func (repo catalogRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return catalog.ErrNotFound
	}
	return wrapErr(err, msg)
}

func (repo catalogRepository) selectAll(ctx context.Context, dest interface{}, q string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, repo.exec, dest, repo.exec.Rebind(q), args...)
}

func (repo catalogRepository) get(ctx context.Context, dest interface{}, q string, args ...interface{}) error {
	return sqlx.GetContext(ctx, repo.exec, dest, repo.exec.Rebind(q), args...)
}

// upsert inserts `row` into `table` unless a row with the same `key` exists.
func (repo catalogRepository) upsert(ctx context.Context, table, columns, key string, row interface{}) error {
	q := "INSERT INTO " + table + " (" + columns + ") VALUES (" + namedParams(columns) + ") ON CONFLICT (" + key + ") DO NOTHING"
	_, err := sqlx.NamedExecContext(ctx, repo.exec, q, row)
	return err
}

func (repo catalogRepository) QueryDepartments(ctx context.Context) ([]catalog.Department, error) {
	var rows []departmentRow
	if err := repo.selectAll(ctx, &rows, "SELECT "+departmentColumns+" FROM departments ORDER BY name"); err != nil {
		return nil, wrapErr(err, "querying departments")
	}
	depts := make([]catalog.Department, 0, len(rows))
	for _, r := range rows {
		depts = append(depts, r.toDepartment())
	}
	return depts, nil
}

func (repo catalogRepository) QueryPlans(ctx context.Context, activeOnly bool) ([]catalog.SubscriptionPlan, error) {
	q := "SELECT " + planColumns + " FROM subscription_plans"
	var args []interface{}
	if activeOnly {
		q += " WHERE is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY price_cents, id"

	var rows []planRow
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, wrapErr(err, "querying plans")
	}
	plans := make([]catalog.SubscriptionPlan, 0, len(rows))
	for _, r := range rows {
		plans = append(plans, r.toPlan())
	}
	return plans, nil
}

func (repo catalogRepository) QueryCourses(ctx context.Context, filter *catalog.QueryFilter, ordering []core.DBOrdering) ([]catalog.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.DepartmentID != "" {
			where = append(where, "department_id = ?")
			args = append(args, filter.DepartmentID)
		}
		if filter.Semester != "" {
			where = append(where, "semester = ?")
			args = append(args, filter.Semester)
		}
		// courses with Title, Description or Professor matching the search keyword
		if filter.Search != "" {
			val := "%" + strings.ToLower(filter.Search) + "%"
			where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(professor) LIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.IsPremium != nil {
			where = append(where, "is_premium = ?")
			args = append(args, *filter.IsPremium)
		}
	}

	q := "SELECT " + courseColumns + " FROM courses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []courseRow
	if err := repo.selectAll(ctx, &rows, q, args...); err != nil {
		return nil, wrapErr(err, "querying courses")
	}
	courses := make([]catalog.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo catalogRepository) GetCourse(ctx context.Context, id string) (catalog.Course, error) {
	var row courseRow
	if err := repo.get(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = ?", id); err != nil {
		return catalog.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo catalogRepository) QueryLessons(ctx context.Context, courseID string) ([]catalog.Lesson, error) {
	var rows []lessonRow
	q := "SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY order_index, id"
	if err := repo.selectAll(ctx, &rows, q, courseID); err != nil {
		return nil, wrapErr(err, "querying lessons")
	}
	lessons := make([]catalog.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons, nil
}

func (repo catalogRepository) GetLesson(ctx context.Context, id string) (catalog.Lesson, error) {
	var row lessonRow
	if err := repo.get(ctx, &row, "SELECT "+lessonColumns+" FROM lessons WHERE id = ?", id); err != nil {
		return catalog.Lesson{}, repo.trapNoRowsErr(err, "getting lesson")
	}
	return row.toLesson(), nil
}

func (repo catalogRepository) QueryComments(ctx context.Context, lessonID string) ([]catalog.Comment, error) {
	var rows []commentRow
	q := "SELECT " + commentColumns + " FROM comments WHERE lesson_id = ? ORDER BY created_at, id"
	if err := repo.selectAll(ctx, &rows, q, lessonID); err != nil {
		return nil, wrapErr(err, "querying comments")
	}
	comments := make([]catalog.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toComment())
	}
	return comments, nil
}

func (repo catalogRepository) UpsertDepartment(ctx context.Context, dept catalog.Department) (catalog.Department, error) {
	row := departmentRow{ID: dept.ID, Name: dept.Name, CreatedAt: dept.CreatedAt.UTC()}
	if err := repo.upsert(ctx, "departments", departmentColumns, "name", row); err != nil {
		return catalog.Department{}, wrapErr(err, "upserting department")
	}
	if err := repo.get(ctx, &row, "SELECT "+departmentColumns+" FROM departments WHERE name = ?", dept.Name); err != nil {
		return catalog.Department{}, repo.trapNoRowsErr(err, "getting department")
	}
	return row.toDepartment(), nil
}

func (repo catalogRepository) UpsertPlan(ctx context.Context, plan catalog.SubscriptionPlan) (catalog.SubscriptionPlan, error) {
	row := planRow{
		ID:          plan.ID,
		Name:        plan.Name,
		Description: plan.Description,
		Type:        plan.Type,
		Interval:    plan.Interval,
		PriceCents:  plan.PriceCents(),
		Currency:    plan.Currency,
		Features:    nonNil(plan.Features),
		IsActive:    plan.IsActive,
		CreatedAt:   plan.CreatedAt.UTC(),
	}
	if err := repo.upsert(ctx, "subscription_plans", planColumns, "id", row); err != nil {
		return catalog.SubscriptionPlan{}, wrapErr(err, "upserting plan")
	}
	if err := repo.get(ctx, &row, "SELECT "+planColumns+" FROM subscription_plans WHERE id = ?", plan.ID); err != nil {
		return catalog.SubscriptionPlan{}, repo.trapNoRowsErr(err, "getting plan")
	}
	return row.toPlan(), nil
}

func (repo catalogRepository) UpsertCourse(ctx context.Context, course catalog.Course) (catalog.Course, error) {
	row := courseRow{
		ID:           course.ID,
		Title:        course.Title,
		Description:  course.Description,
		Semester:     course.Semester,
		Professor:    course.Professor,
		DepartmentID: course.DepartmentID,
		Tags:         nonNil(course.Tags),
		IsPremium:    course.IsPremium,
		Views:        course.Views,
		CreatedAt:    course.CreatedAt.UTC(),
	}
	if err := repo.upsert(ctx, "courses", courseColumns, "id", row); err != nil {
		return catalog.Course{}, wrapErr(err, "upserting course")
	}
	return repo.GetCourse(ctx, course.ID)
}

func (repo catalogRepository) UpsertLesson(ctx context.Context, lesson catalog.Lesson) (catalog.Lesson, error) {
	row := lessonRow{
		ID:                           lesson.ID,
		CourseID:                     lesson.CourseID,
		Title:                        lesson.Title,
		Type:                         lesson.Type,
		DurationSec:                  null.NewInt(lesson.Duration, lesson.Duration > 0),
		VimeoID:                      null.NewString(lesson.VimeoID, lesson.VimeoID != ""),
		PDFURL:                       null.NewString(lesson.PDFURL, lesson.PDFURL != ""),
		IsPremium:                    lesson.IsPremium,
		RequiresVideoSubscription:    lesson.RequiresVideoSubscription,
		RequiresDocumentSubscription: lesson.RequiresDocumentSubscription,
		OrderIndex:                   lesson.OrderIndex,
		CreatedAt:                    lesson.CreatedAt.UTC(),
	}
	if err := repo.upsert(ctx, "lessons", lessonColumns, "id", row); err != nil {
		return catalog.Lesson{}, wrapErr(err, "upserting lesson")
	}
	return repo.GetLesson(ctx, lesson.ID)
}

func (repo catalogRepository) UpsertComment(ctx context.Context, comment catalog.Comment) (catalog.Comment, error) {
	row := commentRow{
		ID:        comment.ID,
		LessonID:  comment.LessonID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.UTC(),
	}
	if err := repo.upsert(ctx, "comments", commentColumns, "id", row); err != nil {
		return catalog.Comment{}, wrapErr(err, "upserting comment")
	}
	if err := repo.get(ctx, &row, "SELECT "+commentColumns+" FROM comments WHERE id = ?", comment.ID); err != nil {
		return catalog.Comment{}, repo.trapNoRowsErr(err, "getting comment")
	}
	return row.toComment(), nil
}

func (repo catalogRepository) UpsertSubscription(ctx context.Context, sub catalog.Subscription) (catalog.Subscription, error) {
	row := subscriptionRow{
		ID:        sub.ID,
		UserID:    sub.UserID,
		PlanID:    sub.PlanID,
		Status:    sub.Status,
		StartAt:   sub.StartAt.UTC(),
		EndAt:     sub.EndAt.UTC(),
		CreatedAt: sub.CreatedAt.UTC(),
	}
	if err := repo.upsert(ctx, "subscriptions", subscriptionColumns, "id", row); err != nil {
		return catalog.Subscription{}, wrapErr(err, "upserting subscription")
	}
	if err := repo.get(ctx, &row, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE id = ?", sub.ID); err != nil {
		return catalog.Subscription{}, repo.trapNoRowsErr(err, "getting subscription")
	}
	return row.toSubscription(), nil
}
