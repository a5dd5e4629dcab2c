package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan types
const (
	PlanVideosOnly    = "VIDEOS_ONLY"
	PlanDocumentsOnly = "DOCUMENTS_ONLY"
	PlanFullAccess    = "FULL_ACCESS"
)

// Billing intervals
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Lesson types
const (
	LessonVideo = "VIDEO"
	LessonPDF   = "PDF"
)

// Subscription statuses
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionCanceled = "CANCELED"
	SubscriptionExpired  = "EXPIRED"
)

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type SubscriptionPlan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Interval    string          `json:"interval"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Features    []string        `json:"features"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
}

// PriceFromCents converts an amount in cents to a price.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// PriceCents returns the plan price in cents, rounded half away from zero.
func (p SubscriptionPlan) PriceCents() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

func (p SubscriptionPlan) IsFree() bool { return p.Price.IsZero() }

// GrantsVideos tells whether the plan unlocks premium videos.
func (p SubscriptionPlan) GrantsVideos() bool {
	return p.Type == PlanVideosOnly || p.Type == PlanFullAccess
}

// GrantsDocuments tells whether the plan unlocks premium documents.
func (p SubscriptionPlan) GrantsDocuments() bool {
	return p.Type == PlanDocumentsOnly || p.Type == PlanFullAccess
}

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Semester     string    `json:"semester"`
	Professor    string    `json:"professor"`
	DepartmentID string    `json:"department_id"`
	Tags         []string  `json:"tags"`
	IsPremium    bool      `json:"is_premium"`
	Views        int       `json:"views"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	Lessons      []Lesson  `json:"lessons,omitempty"`
}

type Lesson struct {
	ID                           string    `json:"id"`
	CourseID                     string    `json:"course_id"`
	Title                        string    `json:"title"`
	Type                         string    `json:"type"`
	Duration                     int       `json:"duration,omitempty"` // seconds
	VimeoID                      string    `json:"vimeo_id,omitempty"`
	PDFURL                       string    `json:"pdf_url,omitempty"`
	IsPremium                    bool      `json:"is_premium"`
	RequiresVideoSubscription    bool      `json:"requires_video_subscription"`
	RequiresDocumentSubscription bool      `json:"requires_document_subscription"`
	OrderIndex                   int       `json:"order_index"`
	CreatedAt                    time.Time `json:"created_at"` // UTC
}

type Comment struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	StartAt   time.Time `json:"start_at"` // UTC
	EndAt     time.Time `json:"end_at"`   // UTC
	CreatedAt time.Time `json:"created_at"`
}

func (s Subscription) IsActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && !t.Before(s.StartAt) && t.Before(s.EndAt)
}

type QueryFilter struct {
	DepartmentID string
	Semester     string
	Search       string // title, description or professor
	IsPremium    *bool
}
