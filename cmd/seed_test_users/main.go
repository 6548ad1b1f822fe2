package main

import (
	"errors"
	"log"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

const password = "testpassword123"

var testUsers = []struct {
	email     string
	username  string
	firstName string
	lastName  string
	staff     bool
}{
	{"john.doe@example.com", "johndoe", "John", "Doe", false},
	{"jane.smith@example.com", "janesmith", "Jane", "Smith", false},
	{"bob.wilson@example.com", "bobwilson", "Bob", "Wilson", false},
	{"admin@example.com", "admin", "Admin", "User", true},
}

var defaultTags = []models.Tag{
	{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Lunch", Color: "#49B64E", Slug: "lunch"},
	{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = zlog.Sync() }()

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.DatabaseURL(), zlog); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Fatal("Failed to hash password", zap.Error(err))
	}

	for _, u := range testUsers {
		user := models.User{
			Email:        u.email,
			Username:     u.username,
			FirstName:    u.firstName,
			LastName:     u.lastName,
			PasswordHash: string(hashedPassword),
			IsStaff:      u.staff,
		}
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				zlog.Info("User already exists, skipping", zap.String("email", u.email))
				continue
			}
			zlog.Error("Failed to create user", zap.String("email", u.email), zap.Error(err))
			continue
		}
		zlog.Info("Created user", zap.String("email", u.email), zap.Bool("staff", u.staff))
	}

	for _, tag := range defaultTags {
		tag := tag
		if err := db.Create(&tag).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			zlog.Error("Failed to create tag", zap.String("slug", tag.Slug), zap.Error(err))
			continue
		}
		zlog.Info("Created tag", zap.String("slug", tag.Slug))
	}

	var users int64
	db.Model(&models.User{}).Count(&users)
	zlog.Info("Seeding finished", zap.Int64("users", users), zap.String("password", password))
}
