package client

import (
	"context"
	"sync"
	"time"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
)

// DefaultSearchDebounce is how long search input must stay idle before the
// term is committed into the filter and a fetch is issued.
const DefaultSearchDebounce = 500 * time.Millisecond

// Filter is the committed filter state driving loads.
type Filter struct {
	Search    string
	Status    string
	Priority  string
	StartDate string
	EndDate   string
	SortBy    string
	Order     string
}

func (f Filter) params() query.Params {
	return query.Params{
		Search:    f.Search,
		Status:    f.Status,
		Priority:  f.Priority,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		SortBy:    f.SortBy,
		Order:     f.Order,
	}
}

// TaskStore holds the in-memory todo list and keeps it consistent with the
// server. Mutations are confirmed-only: the list changes after a
// successful response, never before, so a failure leaves prior state
// intact. Loads carry a generation token; only the response matching the
// latest issued generation is applied, so a slow fetch can never overwrite
// fresher results.
type TaskStore struct {
	api *Client
	ctx context.Context

	mu         sync.Mutex
	todos      []model.Todo
	loading    bool
	filter     Filter
	generation uint64

	debounce      *time.Timer
	debounceDelay time.Duration

	onChange func()
	onError  func(error)
}

// StoreOption configures a TaskStore.
type StoreOption func(*TaskStore)

// WithDebounce overrides the search debounce interval.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *TaskStore) { s.debounceDelay = d }
}

// WithOnChange registers a callback invoked after every state change.
func WithOnChange(fn func()) StoreOption {
	return func(s *TaskStore) { s.onChange = fn }
}

// WithOnError registers a callback for surfaced request failures.
func WithOnError(fn func(error)) StoreOption {
	return func(s *TaskStore) { s.onError = fn }
}

// NewTaskStore creates a store bound to the API client. ctx bounds all
// background fetches the store issues.
func NewTaskStore(ctx context.Context, api *Client, opts ...StoreOption) *TaskStore {
	s := &TaskStore{
		api:           api,
		ctx:           ctx,
		debounceDelay: DefaultSearchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Todos returns a copy of the current list.
func (s *TaskStore) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Filter returns the committed filter state.
func (s *TaskStore) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter commits non-search filter fields immediately and triggers a
// load. The committed search term is preserved.
func (s *TaskStore) SetFilter(f Filter) {
	s.mu.Lock()
	f.Search = s.filter.Search
	s.filter = f
	s.mu.Unlock()
	s.Reload()
}

// SetSearch feeds one keystroke of the raw search field. The term is
// committed only after the debounce interval passes with no further
// keystrokes; each call resets the pending timer, so a burst of input
// produces exactly one committed change and one fetch.
func (s *TaskStore) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.debounceDelay, func() {
		s.mu.Lock()
		s.filter.Search = text
		s.mu.Unlock()
		s.Reload()
	})
}

// Reload issues a fetch for the committed filter. The response is applied
// only if no newer load was issued while it was in flight.
func (s *TaskStore) Reload() {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	filter := s.filter
	s.loading = true
	s.mu.Unlock()
	s.notify()

	go func() {
		todos, err := s.api.ListTodos(s.ctx, filter.params())

		s.mu.Lock()
		if gen != s.generation {
			// A newer load superseded this one; drop the stale response.
			s.mu.Unlock()
			return
		}
		s.loading = false
		if err == nil {
			s.todos = todos
		}
		s.mu.Unlock()

		// Notify even on failure: loading has flipped off and subscribers
		// rendering a spinner need to hear about it.
		s.notify()
		if err != nil {
			s.fail(err)
		}
	}()
}

// Create submits a draft and appends the server-confirmed record, with its
// assigned id and timestamps, on success.
func (s *TaskStore) Create(ctx context.Context, draft TodoDraft) (*model.Todo, error) {
	todo, err := s.api.CreateTodo(ctx, draft)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.todos = append(s.todos, *todo)
	s.mu.Unlock()
	s.notify()
	return todo, nil
}

// Update patches a todo and merges the confirmed record into the list.
func (s *TaskStore) Update(ctx context.Context, id uint, patch TodoPatch) (*model.Todo, error) {
	todo, err := s.api.UpdateTodo(ctx, id, patch)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.applyServerTodo(*todo)
	return todo, nil
}

// MarkDone marks a todo done and merges the confirmed record.
func (s *TaskStore) MarkDone(ctx context.Context, id uint) (*model.Todo, error) {
	todo, err := s.api.MarkTodoDone(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.applyServerTodo(*todo)
	return todo, nil
}

// Delete removes a todo from the server, then from the local list.
func (s *TaskStore) Delete(ctx context.Context, id uint) (*model.Todo, error) {
	todo, err := s.api.DeleteTodo(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	kept := s.todos[:0]
	for _, t := range s.todos {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	s.mu.Unlock()
	s.notify()
	return todo, nil
}

// applyServerTodo replaces the matching list entry with the confirmed
// server record.
func (s *TaskStore) applyServerTodo(todo model.Todo) {
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID == todo.ID {
			s.todos[i] = todo
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *TaskStore) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *TaskStore) fail(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
