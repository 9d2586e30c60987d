package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pray3m/hyteno-fullstack-todo/internal/config"
	"github.com/pray3m/hyteno-fullstack-todo/internal/db"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/repository"
)

type seedUser struct {
	Email    string
	Name     string
	Password string
	Role     model.Role
}

var seedUsers = []seedUser{
	{Email: "admin@hy.com", Name: "Super Admin", Password: "password", Role: model.RoleAdmin},
	{Email: "user@hy.com", Name: "Prem Gautam", Password: "password", Role: model.RoleUser},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Todo{}, &model.Notification{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	todoRepo := repository.NewTodoRepository(gormDB)

	var demoOwner *model.User
	for _, su := range seedUsers {
		existing, err := userRepo.FindByEmail(ctx, su.Email)
		if err == nil && existing != nil {
			log.Printf("User already exists: %s with role %s", existing.Email, existing.Role)
			if existing.Role == model.RoleUser {
				demoOwner = existing
			}
			continue
		}
		if err != nil && err != gorm.ErrRecordNotFound {
			log.Fatalf("Failed to check user %s: %v", su.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), 10)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		user := &model.User{
			Email:        su.Email,
			Name:         su.Name,
			PasswordHash: string(hash),
			Role:         su.Role,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", su.Email, err)
		}
		log.Printf("Created user: %s with role %s", user.Email, user.Role)
		if user.Role == model.RoleUser {
			demoOwner = user
		}
	}

	if demoOwner == nil {
		log.Println("No demo owner available, skipping todo seed")
		return
	}

	todos := []model.Todo{
		{
			Title:       "Complete Project Documentation",
			Description: "Write detailed documentation for the project",
			DueDate:     time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour),
			Priority:    model.PriorityHigh,
			Status:      model.StatusTodo,
			UserID:      demoOwner.ID,
		},
		{
			Title:       "Review PRs",
			Description: "Go through the open pull requests",
			DueDate:     time.Now().UTC().AddDate(0, 0, 2).Truncate(24 * time.Hour),
			Priority:    model.PriorityMedium,
			Status:      model.StatusTodo,
			UserID:      demoOwner.ID,
		},
	}
	for i := range todos {
		if err := todoRepo.Create(ctx, &todos[i]); err != nil {
			log.Fatalf("Failed to create todo %q: %v", todos[i].Title, err)
		}
		log.Printf("Created todo: %s", todos[i].Title)
	}

	log.Println("Seed completed")
}
