package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
	"github.com/pray3m/hyteno-fullstack-todo/internal/upload"
)

const testMaxUploadBytes = 5 << 20

// pngBytes returns a payload that sniffs as image/png.
func pngBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, "\x89PNG\r\n\x1a\n")
	return data
}

func newTestTodoService(todoRepo *MockTodoRepository, userRepo *MockUserRepository, uploader *MockUploader) TodoService {
	return NewTodoService(todoRepo, userRepo, uploader, nil, testMaxUploadBytes)
}

func TestTodoService_Create(t *testing.T) {
	owner := &model.User{ID: 7, Name: "Prem Gautam", Email: "user@hy.com", Role: model.RoleUser}

	t.Run("applies defaults and returns the persisted todo", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)
		todoRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Todo")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*model.Todo).ID = 42
			}).
			Return(nil)

		todo, err := svc.Create(context.Background(), 7, CreateTodoInput{
			Title:       "  Write release notes  ",
			Description: "Cover the migration steps",
			DueDate:     "2025-12-31",
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, uint(42), todo.ID)
		assert.Equal(t, "Write release notes", todo.Title)
		assert.Equal(t, model.PriorityMedium, todo.Priority)
		assert.Equal(t, model.StatusTodo, todo.Status)
		assert.Equal(t, uint(7), todo.UserID)
		assert.NotNil(t, todo.Owner)
		assert.Equal(t, "Prem Gautam", todo.Owner.Name)
		todoRepo.AssertExpectations(t)
	})

	t.Run("limits count characters, not bytes", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)
		todoRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(nil)

		// 60 characters, 180 bytes.
		title := strings.Repeat("日", 60)
		todo, err := svc.Create(context.Background(), 7, CreateTodoInput{
			Title: title, Description: "d", DueDate: "2025-12-31",
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, title, todo.Title)
	})

	t.Run("rejects invalid drafts before touching storage", func(t *testing.T) {
		tests := []struct {
			name  string
			input CreateTodoInput
		}{
			{"empty title", CreateTodoInput{Title: "   ", Description: "d", DueDate: "2025-12-31"}},
			{"title too long", CreateTodoInput{Title: strings.Repeat("x", 101), Description: "d", DueDate: "2025-12-31"}},
			{"multibyte title too long", CreateTodoInput{Title: strings.Repeat("日", 101), Description: "d", DueDate: "2025-12-31"}},
			{"empty description", CreateTodoInput{Title: "t", Description: "", DueDate: "2025-12-31"}},
			{"description too long", CreateTodoInput{Title: "t", Description: strings.Repeat("x", 501), DueDate: "2025-12-31"}},
			{"invalid priority", CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31", Priority: "URGENT"}},
			{"invalid status", CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31", Status: "PENDING"}},
			{"malformed due date", CreateTodoInput{Title: "t", Description: "d", DueDate: "next tuesday"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				todoRepo := new(MockTodoRepository)
				userRepo := new(MockUserRepository)
				uploader := new(MockUploader)
				svc := newTestTodoService(todoRepo, userRepo, uploader)

				userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)

				_, err := svc.Create(context.Background(), 7, tt.input, nil)

				assert.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				todoRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("unknown owner", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		userRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Create(context.Background(), 99, CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31"}, nil)

		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("stores an allowed attachment", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		data := pngBytes(128)
		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)
		uploader.On("Upload", mock.Anything, "shot.png", data).
			Return(&upload.Result{URL: "/uploads/abc.png", StorageKey: "abc.png"}, nil)
		todoRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(nil)

		todo, err := svc.Create(context.Background(), 7, CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31"},
			&AttachmentInput{FileName: "shot.png", Data: data})

		assert.NoError(t, err)
		assert.Equal(t, "/uploads/abc.png", todo.URL)
		assert.Equal(t, "shot.png", todo.FileName)
		assert.True(t, todo.HasAttachment())
		uploader.AssertExpectations(t)
	})

	t.Run("rejects an oversized attachment", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)

		_, err := svc.Create(context.Background(), 7, CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31"},
			&AttachmentInput{FileName: "big.png", Data: pngBytes(testMaxUploadBytes + 1)})

		assert.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a disallowed content type", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)

		_, err := svc.Create(context.Background(), 7, CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31"},
			&AttachmentInput{FileName: "script.sh", Data: []byte("#!/bin/sh\nrm -rf /tmp/x\n")})

		assert.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes the uploaded file when persist fails", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, userRepo, uploader)

		data := pngBytes(64)
		userRepo.On("FindByID", mock.Anything, uint(7)).Return(owner, nil)
		uploader.On("Upload", mock.Anything, "shot.png", data).
			Return(&upload.Result{URL: "/uploads/abc.png", StorageKey: "abc.png"}, nil)
		todoRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(gorm.ErrInvalidData)
		uploader.On("Delete", mock.Anything, "abc.png").Return(nil)

		_, err := svc.Create(context.Background(), 7, CreateTodoInput{Title: "t", Description: "d", DueDate: "2025-12-31"},
			&AttachmentInput{FileName: "shot.png", Data: data})

		assert.Error(t, err)
		uploader.AssertCalled(t, "Delete", mock.Anything, "abc.png")
	})
}

func TestTodoService_Update(t *testing.T) {
	ownerActor := &model.User{ID: 7, Role: model.RoleUser}
	adminActor := &model.User{ID: 1, Role: model.RoleAdmin}
	stranger := &model.User{ID: 9, Role: model.RoleUser}

	existing := func() *model.Todo {
		return &model.Todo{
			ID:          42,
			Title:       "Review PRs",
			Description: "Open pull requests",
			Priority:    model.PriorityMedium,
			Status:      model.StatusTodo,
			UserID:      7,
		}
	}

	t.Run("merges only the provided fields", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(existing(), nil)
		todoRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(nil)

		title := "Review open PRs"
		todo, err := svc.Update(context.Background(), ownerActor, 42, UpdateTodoInput{Title: &title})

		assert.NoError(t, err)
		assert.Equal(t, "Review open PRs", todo.Title)
		assert.Equal(t, "Open pull requests", todo.Description)
		assert.Equal(t, model.PriorityMedium, todo.Priority)
	})

	t.Run("a non-owner cannot modify someone else's todo", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(existing(), nil)

		title := "hijacked"
		_, err := svc.Update(context.Background(), stranger, 42, UpdateTodoInput{Title: &title})

		assert.ErrorIs(t, err, errors.ErrForbidden)
		todoRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("an admin can modify any todo", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(existing(), nil)
		todoRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(nil)

		priority := "HIGH"
		todo, err := svc.Update(context.Background(), adminActor, 42, UpdateTodoInput{Priority: &priority})

		assert.NoError(t, err)
		assert.Equal(t, model.PriorityHigh, todo.Priority)
	})

	t.Run("unknown id", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		title := "t"
		_, err := svc.Update(context.Background(), ownerActor, 404, UpdateTodoInput{Title: &title})

		assert.ErrorIs(t, err, errors.ErrTodoNotFound)
	})

	t.Run("rejects an invalid patch value", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(existing(), nil)

		status := "ARCHIVED"
		_, err := svc.Update(context.Background(), ownerActor, 42, UpdateTodoInput{Status: &status})

		assert.True(t, errors.IsValidation(err))
		todoRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("mark done sets the status", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(existing(), nil)
		todoRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Todo")).Return(nil)

		todo, err := svc.MarkDone(context.Background(), ownerActor, 42)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusDone, todo.Status)
	})
}

func TestTodoService_Remove(t *testing.T) {
	ownerActor := &model.User{ID: 7, Role: model.RoleUser}

	t.Run("returns the deleted record and drops its attachment", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		uploader := new(MockUploader)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), uploader)

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(&model.Todo{
			ID:         42,
			Title:      "t",
			UserID:     7,
			URL:        "/uploads/abc.png",
			StorageKey: "abc.png",
		}, nil)
		todoRepo.On("Delete", mock.Anything, uint(42)).Return(nil)
		uploader.On("Delete", mock.Anything, "abc.png").Return(nil)

		todo, err := svc.Remove(context.Background(), ownerActor, 42)

		assert.NoError(t, err)
		assert.Equal(t, uint(42), todo.ID)
		uploader.AssertCalled(t, "Delete", mock.Anything, "abc.png")
	})

	t.Run("unknown id", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Remove(context.Background(), ownerActor, 404)

		assert.ErrorIs(t, err, errors.ErrTodoNotFound)
	})

	t.Run("only the owner or an admin may delete", func(t *testing.T) {
		todoRepo := new(MockTodoRepository)
		svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

		todoRepo.On("FindByID", mock.Anything, uint(42)).Return(&model.Todo{ID: 42, UserID: 7}, nil)

		_, err := svc.Remove(context.Background(), &model.User{ID: 9, Role: model.RoleUser}, 42)

		assert.ErrorIs(t, err, errors.ErrForbidden)
		todoRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestTodoService_List(t *testing.T) {
	todoRepo := new(MockTodoRepository)
	svc := newTestTodoService(todoRepo, new(MockUserRepository), new(MockUploader))

	spec, err := query.ParseSpec(query.Params{Status: "TODO"})
	assert.NoError(t, err)

	owner := model.User{ID: 7, Name: "Prem Gautam", Email: "user@hy.com", Role: model.RoleUser}
	todoRepo.On("List", mock.Anything, uint(0), spec).Return([]model.Todo{
		{ID: 1, Title: "a", UserID: 7, User: &owner},
		{ID: 2, Title: "b", UserID: 7, User: &owner},
	}, nil)

	todos, err := svc.List(context.Background(), 0, spec)

	assert.NoError(t, err)
	assert.Len(t, todos, 2)
	assert.NotNil(t, todos[0].Owner)
	assert.Equal(t, "Prem Gautam", todos[0].Owner.Name)
}
