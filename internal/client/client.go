// Package client is the Go consumer of the todo API: a thin REST client
// and a TaskStore that keeps an in-memory todo list synchronized with the
// server under rapidly changing filters.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
)

// ErrServerOffline marks transport failures where no server response
// arrived, as opposed to a served 4xx/5xx.
var ErrServerOffline = errors.New("server offline")

// APIError is a decoded non-2xx server response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the todo REST API. The zero token means unauthenticated.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a client for the API rooted at baseURL (e.g.
// "http://localhost:8080/api").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// LoginResult is the login response payload.
type LoginResult struct {
	AccessToken string     `json:"accessToken"`
	User        model.User `json:"user"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodPost, "/auth/register", jsonBody(map[string]string{
		"email": email, "password": password, "name": name,
	}), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", jsonBody(map[string]string{
		"email": email, "password": password,
	}), &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

// ListTodos fetches todos matching the filter parameters.
func (c *Client) ListTodos(ctx context.Context, p query.Params) ([]model.Todo, error) {
	values := url.Values{}
	set := func(k, v string) {
		if v != "" {
			values.Set(k, v)
		}
	}
	set("search", p.Search)
	set("status", p.Status)
	set("priority", p.Priority)
	set("startDate", p.StartDate)
	set("endDate", p.EndDate)
	set("sortBy", p.SortBy)
	set("order", p.Order)

	path := "/todos"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, path, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// TodoDraft is the form payload for creating a todo.
type TodoDraft struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Status      string
	FileName    string
	FileData    []byte
}

// CreateTodo posts a multipart form, attaching file bytes when present.
func (c *Client) CreateTodo(ctx context.Context, draft TodoDraft) (*model.Todo, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"dueDate":     draft.DueDate,
		"priority":    draft.Priority,
		"status":      draft.Status,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if len(draft.FileData) > 0 {
		part, err := w.CreateFormFile("file", draft.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(draft.FileData); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var todo model.Todo
	err := c.doRaw(ctx, http.MethodPost, "/todos", &buf, w.FormDataContentType(), &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// TodoPatch is a partial update; nil fields are left untouched.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// UpdateTodo patches a todo.
func (c *Client) UpdateTodo(ctx context.Context, id uint, patch TodoPatch) (*model.Todo, error) {
	var todo model.Todo
	err := c.do(ctx, http.MethodPatch, "/todos/"+strconv.FormatUint(uint64(id), 10), jsonBody(patch), &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// MarkTodoDone marks a todo as done.
func (c *Client) MarkTodoDone(ctx context.Context, id uint) (*model.Todo, error) {
	var todo model.Todo
	err := c.do(ctx, http.MethodPatch, "/todos/"+strconv.FormatUint(uint64(id), 10)+"/done", nil, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo deletes a todo and returns the removed record.
func (c *Client) DeleteTodo(ctx context.Context, id uint) (*model.Todo, error) {
	var todo model.Todo
	err := c.do(ctx, http.MethodDelete, "/todos/"+strconv.FormatUint(uint64(id), 10), nil, &todo)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// Notifications fetches the caller's notification feed.
func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id uint) (*model.Notification, error) {
	var n model.Notification
	err := c.do(ctx, http.MethodPatch, "/notifications/"+strconv.FormatUint(uint64(id), 10)+"/read", nil, &n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func jsonBody(v interface{}) io.Reader {
	data, _ := json.Marshal(v)
	return bytes.NewReader(data)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, path, body, contentType, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No response at all: transport failure, not a server verdict.
		return fmt.Errorf("%w: %v", ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var payload struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message any    `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Code = payload.Code
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		default:
			// echo wraps HTTPError payloads under "message", either as a
			// plain string or as the ErrorResponse object.
			switch m := payload.Message.(type) {
			case string:
				if m != "" {
					apiErr.Message = m
				}
			case map[string]any:
				if s, ok := m["error"].(string); ok && s != "" {
					apiErr.Message = s
				}
				if s, ok := m["code"].(string); ok {
					apiErr.Code = s
				}
			}
		}
	}
	return apiErr
}
