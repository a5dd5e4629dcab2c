package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/archify/backend/core"
	"github.com/archify/backend/core/catalog"
	"github.com/archify/backend/core/user"
)

const defaultTimeout = 30 * time.Second

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string            // {"error": "..."} bodies
	Fields     map[string]string // validation errors, keyed by field
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	if len(e.Fields) > 0 {
		pairs := make([]string, 0, len(e.Fields))
		for fld, msg := range e.Fields {
			pairs = append(pairs, fld+": "+msg)
		}
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), strings.Join(pairs, "; "))
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is an HTTPError with status 401.
func IsUnauthorized(err error) bool {
	var herr *HTTPError
	return errors.As(err, &herr) && herr.StatusCode == http.StatusUnauthorized
}

// Client talks to the v1 API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the API served at baseURL (e.g. "http://localhost:8888").
// Every request goes through the error interceptor.
func New(baseURL string, nav Navigator) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/v1",
		http: &http.Client{
			Transport: NewErrorInterceptor(http.DefaultTransport, nav),
			Timeout:   defaultTimeout,
		},
	}
}

func (c *Client) Departments(ctx context.Context) ([]catalog.Department, error) {
	var depts []catalog.Department
	if err := c.do(ctx, http.MethodGet, "/departments", nil, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

func (c *Client) Plans(ctx context.Context) ([]catalog.SubscriptionPlan, error) {
	var plans []catalog.SubscriptionPlan
	if err := c.do(ctx, http.MethodGet, "/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Courses lists the courses matching filter. Orderings use the API syntax: "views", "-title"...
func (c *Client) Courses(ctx context.Context, filter catalog.QueryFilter, ordering ...core.DBOrdering) ([]catalog.Course, error) {
	params := url.Values{}
	if filter.DepartmentID != "" {
		params.Set("department", filter.DepartmentID)
	}
	if filter.Semester != "" {
		params.Set("semester", filter.Semester)
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}
	if filter.IsPremium != nil {
		params.Set("premium", strconv.FormatBool(*filter.IsPremium))
	}
	if len(ordering) > 0 {
		fields := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			if ord.Ascending {
				fields = append(fields, ord.Field)
			} else {
				fields = append(fields, "-"+ord.Field)
			}
		}
		params.Set("ordering", strings.Join(fields, ","))
	}

	path := "/courses"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var courses []catalog.Course
	if err := c.do(ctx, http.MethodGet, path, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) Course(ctx context.Context, id string) (catalog.Course, error) {
	var course catalog.Course
	if err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(id), nil, &course); err != nil {
		return catalog.Course{}, err
	}
	return course, nil
}

func (c *Client) Register(ctx context.Context, nu user.NewUser) (user.User, error) {
	var usr user.User
	if err := c.do(ctx, http.MethodPost, "/users/register", nu, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp)
	}
	if dest == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

func newHTTPError(resp *http.Response) *HTTPError {
	herr := &HTTPError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(data) == 0 {
		return herr
	}

	var fields map[string]string
	if err = json.Unmarshal(data, &fields); err != nil {
		herr.Message = strings.TrimSpace(string(data))
		return herr
	}
	if msg, ok := fields["error"]; ok && len(fields) == 1 {
		herr.Message = msg
	} else {
		herr.Fields = fields
	}
	return herr
}
