package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultEndpoint = "https://api.harvestapp.com/v2"
	userAgent       = "timetrack 1.0"
)

// API defines the Harvest v2 operations the driver relies on.
type API interface {
	CurrentUser(ctx context.Context) (User, error)
	ProjectAssignments(ctx context.Context, userID int64) ([]ProjectAssignment, error)
	TimeEntries(ctx context.Context, query TimeEntryQuery) ([]TimeEntry, error)
	CreateTimeEntry(ctx context.Context, entry NewTimeEntry) (TimeEntry, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	Endpoint    string
	AccessToken string
	AccountID   string
	HTTPClient  httpDoer
}

type HTTPClient struct {
	endpoint    string
	accessToken string
	accountID   string
	httpClient  httpDoer
}

var _ API = (*HTTPClient)(nil)

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", cfg.Endpoint)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}

	return &HTTPClient{
		endpoint:    endpoint,
		accessToken: strings.TrimSpace(cfg.AccessToken),
		accountID:   strings.TrimSpace(cfg.AccountID),
		httpClient:  doer,
	}, nil
}

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type TaskAssignment struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
	Task     Ref   `json:"task"`
}

type ProjectAssignment struct {
	ID              int64            `json:"id"`
	IsActive        bool             `json:"is_active"`
	Project         Ref              `json:"project"`
	Client          Ref              `json:"client"`
	TaskAssignments []TaskAssignment `json:"task_assignments"`
}

// Label renders the assignment as Client/Code/Name, the form used for
// project identifiers handed to callers.
func (a ProjectAssignment) Label() string {
	return a.Client.Name + "/" + a.Project.Code + "/" + a.Project.Name
}

type TimeEntry struct {
	ID        int64   `json:"id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
	Project   Ref     `json:"project"`
	Client    Ref     `json:"client"`
	Task      Ref     `json:"task"`
}

type NewTimeEntry struct {
	UserID    int64   `json:"user_id"`
	ProjectID int64   `json:"project_id"`
	TaskID    int64   `json:"task_id"`
	SpentDate string  `json:"spent_date"`
	Hours     float64 `json:"hours"`
	Notes     string  `json:"notes"`
}

// TimeEntryQuery selects entries of one user between two inclusive
// YYYY-MM-DD dates. A zero ProjectID means all projects.
type TimeEntryQuery struct {
	UserID    int64
	From      string
	To        string
	ProjectID int64
}

func (q TimeEntryQuery) values() url.Values {
	values := url.Values{}
	values.Set("user_id", strconv.FormatInt(q.UserID, 10))
	values.Set("from", q.From)
	values.Set("to", q.To)
	if q.ProjectID != 0 {
		values.Set("project_id", strconv.FormatInt(q.ProjectID, 10))
	}
	return values
}

type projectAssignmentsPage struct {
	ProjectAssignments []ProjectAssignment `json:"project_assignments"`
	NextPage           *int                `json:"next_page"`
}

type timeEntriesPage struct {
	TimeEntries []TimeEntry `json:"time_entries"`
	NextPage    *int        `json:"next_page"`
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", 0, nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *HTTPClient) ProjectAssignments(ctx context.Context, userID int64) ([]ProjectAssignment, error) {
	assignments := make([]ProjectAssignment, 0, 16)
	page := 1
	for {
		path := fmt.Sprintf("/users/%d/project_assignments?page=%d", userID, page)
		var out projectAssignmentsPage
		if err := c.doJSON(ctx, http.MethodGet, path, 0, nil, &out); err != nil {
			return nil, err
		}
		assignments = append(assignments, out.ProjectAssignments...)
		if out.NextPage == nil || *out.NextPage <= page {
			return assignments, nil
		}
		page = *out.NextPage
	}
}

func (c *HTTPClient) TimeEntries(ctx context.Context, query TimeEntryQuery) ([]TimeEntry, error) {
	entries := make([]TimeEntry, 0, 32)
	values := query.values()
	page := 1
	for {
		values.Set("page", strconv.Itoa(page))
		var out timeEntriesPage
		if err := c.doJSON(ctx, http.MethodGet, "/time_entries?"+values.Encode(), 0, nil, &out); err != nil {
			return nil, err
		}
		entries = append(entries, out.TimeEntries...)
		if out.NextPage == nil || *out.NextPage <= page {
			return entries, nil
		}
		page = *out.NextPage
	}
}

func (c *HTTPClient) CreateTimeEntry(ctx context.Context, entry NewTimeEntry) (TimeEntry, error) {
	var out TimeEntry
	if err := c.doJSON(ctx, http.MethodPost, "/time_entries", http.StatusCreated, entry, &out); err != nil {
		return TimeEntry{}, err
	}
	return out, nil
}

// doJSON performs one request. A non-zero wantStatus must match exactly;
// otherwise any 2xx status is accepted.
func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, wantStatus int, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Harvest-Account-Id", c.accountID)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if wantStatus != 0 {
		ok = resp.StatusCode == wantStatus
	}
	if !ok {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s",
			method,
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}
