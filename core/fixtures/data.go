package fixtures

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/archify/backend/fs"
)

type (
	Data struct {
		Departments   []DepartmentData   `yaml:"departments"`
		Plans         []PlanData         `yaml:"plans"`
		Users         []UserData         `yaml:"users"`
		Courses       []CourseData       `yaml:"courses"`
		Lessons       []LessonData       `yaml:"lessons"`
		Comments      []CommentData      `yaml:"comments"`
		Subscriptions []SubscriptionData `yaml:"subscriptions"`
	}

	DepartmentData struct {
		Name string `yaml:"name"`
	}

	PlanData struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Type        string   `yaml:"type"`
		Interval    string   `yaml:"interval"`
		PriceCents  int64    `yaml:"price_cents"`
		Currency    string   `yaml:"currency"`
		Features    []string `yaml:"features"`
	}

	UserData struct {
		Email      string `yaml:"email"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		Role       string `yaml:"role"`
		Department string `yaml:"department"` // department name
		Semester   string `yaml:"semester"`
	}

	CourseData struct {
		ID          string   `yaml:"id"`
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Semester    string   `yaml:"semester"`
		Professor   string   `yaml:"professor"`
		Department  string   `yaml:"department"` // department name
		Tags        []string `yaml:"tags"`
		IsPremium   bool     `yaml:"is_premium"`
		Views       int      `yaml:"views"`
	}

	LessonData struct {
		ID                           string `yaml:"id"`
		Course                       string `yaml:"course"` // course id
		Title                        string `yaml:"title"`
		Type                         string `yaml:"type"`
		DurationSec                  int    `yaml:"duration_sec"`
		VimeoID                      string `yaml:"vimeo_id"`
		PDFURL                       string `yaml:"pdf_url"`
		IsPremium                    bool   `yaml:"is_premium"`
		RequiresVideoSubscription    bool   `yaml:"requires_video_subscription"`
		RequiresDocumentSubscription bool   `yaml:"requires_document_subscription"`
		OrderIndex                   int    `yaml:"order_index"`
	}

	CommentData struct {
		ID      string `yaml:"id"`
		Lesson  string `yaml:"lesson"` // lesson id
		User    string `yaml:"user"`   // user email
		Content string `yaml:"content"`
	}

	SubscriptionData struct {
		ID           string `yaml:"id"`
		User         string `yaml:"user"` // user email
		Plan         string `yaml:"plan"` // plan id
		Status       string `yaml:"status"`
		DurationDays int    `yaml:"duration_days"`
	}
)

// Parse decodes YAML fixtures. Unknown fields are rejected.
func Parse(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	data := new(Data)
	if err := dec.Decode(data); err != nil {
		if err == io.EOF {
			return data, nil
		}
		return nil, errors.Wrap(err, "decoding fixtures")
	}
	return data, nil
}

// ReadFile parses the fixtures file at `path`.
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening fixtures")
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// DemoData returns the embedded demo fixtures.
func DemoData() (*Data, error) {
	f, err := appfs.FS.Open(appfs.DemoFixtures)
	if err != nil {
		return nil, errors.Wrap(err, "opening demo fixtures")
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}
