package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/cache"
	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
	"github.com/pray3m/hyteno-fullstack-todo/internal/repository"
	"github.com/pray3m/hyteno-fullstack-todo/internal/upload"
)

const (
	todoListCacheTTL = time.Minute

	titleMaxLen       = 100
	descriptionMaxLen = 500
)

// allowedAttachmentTypes is the content-type allow-list for uploads.
var allowedAttachmentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// CreateTodoInput carries the fields of a new todo before validation.
type CreateTodoInput struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Status      string
}

// UpdateTodoInput is a partial patch; nil fields keep their prior values.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
}

// AttachmentInput is an uploaded file still in memory.
type AttachmentInput struct {
	FileName string
	Data     []byte
}

// TodoService orchestrates todo reads and mutations. Every update and
// delete is authorized through CanModify before touching storage.
type TodoService interface {
	List(ctx context.Context, ownerID uint, spec *query.Spec) ([]model.Todo, error)
	Get(ctx context.Context, id uint) (*model.Todo, error)
	Create(ctx context.Context, ownerID uint, input CreateTodoInput, attachment *AttachmentInput) (*model.Todo, error)
	Update(ctx context.Context, actor *model.User, id uint, patch UpdateTodoInput) (*model.Todo, error)
	Remove(ctx context.Context, actor *model.User, id uint) (*model.Todo, error)
	MarkDone(ctx context.Context, actor *model.User, id uint) (*model.Todo, error)
}

type todoService struct {
	todoRepo repository.TodoRepository
	userRepo repository.UserRepository
	uploader upload.Uploader
	cache    *cache.Client
	maxBytes int64
	sf       singleflight.Group
}

// NewTodoService creates a new todo service. maxUploadBytes caps
// attachment size; the reference ceiling is 5 MB.
func NewTodoService(
	todoRepo repository.TodoRepository,
	userRepo repository.UserRepository,
	uploader upload.Uploader,
	cache *cache.Client,
	maxUploadBytes int64,
) TodoService {
	return &todoService{
		todoRepo: todoRepo,
		userRepo: userRepo,
		uploader: uploader,
		cache:    cache,
		maxBytes: maxUploadBytes,
	}
}

func (s *todoService) listCachePrefix(ownerID uint) string {
	return fmt.Sprintf("todos:%d:", ownerID)
}

func (s *todoService) listCacheKey(ownerID uint, spec *query.Spec) string {
	return s.listCachePrefix(ownerID) + spec.Fingerprint()
}

// List returns the owner's todos filtered and ordered by spec. Results are
// cached per owner and filter fingerprint; concurrent identical loads are
// collapsed through singleflight.
func (s *todoService) List(ctx context.Context, ownerID uint, spec *query.Spec) ([]model.Todo, error) {
	key := s.listCacheKey(ownerID, spec)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if data, _ := s.cache.Get(ctx, key); data != nil {
			var cached []model.Todo
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}

		todos, err := s.todoRepo.List(ctx, ownerID, spec)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		for i := range todos {
			attachOwner(&todos[i])
		}

		if payload, err := json.Marshal(todos); err == nil {
			_ = s.cache.Set(ctx, key, payload, todoListCacheTTL)
		}
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Todo), nil
}

// Get returns a single todo with its owner summary.
func (s *todoService) Get(ctx context.Context, id uint) (*model.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTodoNotFound
		}
		return nil, err
	}
	attachOwner(todo)
	return todo, nil
}

// Create validates the draft, uploads the optional attachment, and
// persists the todo in one write. Server assigns id, createdAt, and
// ownerId; status defaults to TODO and priority to MEDIUM.
func (s *todoService) Create(ctx context.Context, ownerID uint, input CreateTodoInput, attachment *AttachmentInput) (*model.Todo, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	dueDate, err := query.ParseDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if input.Priority != "" {
		priority = model.Priority(input.Priority)
		if !priority.Valid() {
			return nil, errors.NewValidation("invalid priority %q", input.Priority)
		}
	}

	status := model.StatusTodo
	if input.Status != "" {
		status = model.Status(input.Status)
		if !status.Valid() {
			return nil, errors.NewValidation("invalid status %q", input.Status)
		}
	}

	todo := &model.Todo{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      status,
		UserID:      ownerID,
	}

	var uploaded *upload.Result
	if attachment != nil {
		uploaded, err = s.uploadAttachment(ctx, attachment)
		if err != nil {
			return nil, err
		}
		todo.URL = uploaded.URL
		todo.FileName = attachment.FileName
		todo.StorageKey = uploaded.StorageKey
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		// Upload and persist are not one transaction; drop the file so
		// a failed write does not leave an orphan behind.
		if uploaded != nil {
			_ = s.uploader.Delete(ctx, uploaded.StorageKey)
		}
		return nil, fmt.Errorf("create todo: %w", err)
	}

	s.invalidateLists(ctx, ownerID)

	todo.Owner = ownerSummary(owner)
	return todo, nil
}

// Update loads, authorizes, merges the patch, and persists. Unspecified
// fields retain their prior values; dueDate is re-normalized if present.
func (s *todoService) Update(ctx context.Context, actor *model.User, id uint, patch UpdateTodoInput) (*model.Todo, error) {
	todo, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		todo.Title = title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		todo.Description = description
	}
	if patch.DueDate != nil {
		dueDate, err := query.ParseDate(*patch.DueDate)
		if err != nil {
			return nil, err
		}
		todo.DueDate = dueDate
	}
	if patch.Priority != nil {
		priority := model.Priority(*patch.Priority)
		if !priority.Valid() {
			return nil, errors.NewValidation("invalid priority %q", *patch.Priority)
		}
		todo.Priority = priority
	}
	if patch.Status != nil {
		status := model.Status(*patch.Status)
		if !status.Valid() {
			return nil, errors.NewValidation("invalid status %q", *patch.Status)
		}
		todo.Status = status
	}

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}

	s.invalidateLists(ctx, todo.UserID)

	attachOwner(todo)
	return todo, nil
}

// Remove loads, authorizes, and hard-deletes the todo along with its
// stored attachment. The deleted record is returned for UI confirmation.
func (s *todoService) Remove(ctx context.Context, actor *model.User, id uint) (*model.Todo, error) {
	todo, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.todoRepo.Delete(ctx, todo.ID); err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	if todo.HasAttachment() {
		_ = s.uploader.Delete(ctx, todo.StorageKey)
	}

	s.invalidateLists(ctx, todo.UserID)

	attachOwner(todo)
	return todo, nil
}

// MarkDone is an Update specialization setting status=DONE. Reopening a
// done todo goes through the generic patch path only.
func (s *todoService) MarkDone(ctx context.Context, actor *model.User, id uint) (*model.Todo, error) {
	done := string(model.StatusDone)
	return s.Update(ctx, actor, id, UpdateTodoInput{Status: &done})
}

// invalidateLists drops cached listings for the owner and for the shared
// all-owners scope, which both reflect the mutated row.
func (s *todoService) invalidateLists(ctx context.Context, ownerID uint) {
	_ = s.cache.DeletePrefix(ctx, s.listCachePrefix(ownerID))
	_ = s.cache.DeletePrefix(ctx, s.listCachePrefix(0))
}

// loadForMutation is the shared load-then-authorize sequence of update
// and delete.
func (s *todoService) loadForMutation(ctx context.Context, actor *model.User, id uint) (*model.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTodoNotFound
		}
		return nil, err
	}
	if !CanModify(actor, todo) {
		return nil, errors.ErrForbidden
	}
	return todo, nil
}

func (s *todoService) uploadAttachment(ctx context.Context, attachment *AttachmentInput) (*upload.Result, error) {
	if int64(len(attachment.Data)) > s.maxBytes {
		return nil, errors.NewValidation("attachment exceeds %d bytes", s.maxBytes)
	}
	mtype := mimetype.Detect(attachment.Data)
	allowed := false
	for _, t := range allowedAttachmentTypes {
		if mtype.Is(t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errors.NewValidation("unsupported attachment type %s", mtype.String())
	}

	uploaded, err := s.uploader.Upload(ctx, attachment.FileName, attachment.Data)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}
	return uploaded, nil
}

// Length limits count characters, not bytes, so multibyte text is not
// penalized.
func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n == 0 || n > titleMaxLen {
		return errors.NewValidation("title must be 1-%d characters", titleMaxLen)
	}
	return nil
}

func validateDescription(description string) error {
	if n := utf8.RuneCountInString(description); n == 0 || n > descriptionMaxLen {
		return errors.NewValidation("description must be 1-%d characters", descriptionMaxLen)
	}
	return nil
}

func attachOwner(todo *model.Todo) {
	if todo.User != nil {
		todo.Owner = ownerSummary(todo.User)
	}
}

func ownerSummary(u *model.User) *model.OwnerSummary {
	s := u.Summary()
	return &s
}
