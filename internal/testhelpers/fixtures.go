package testhelpers

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the plain-text password of every fixture user
const TestPassword = "password123"

// CreateTestUser inserts a user named username with TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateStaffUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateTestUser(t, db, username)
	if err := db.Model(user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("failed to promote user %s: %v", username, err)
	}
	user.IsStaff = true
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	item := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return item
}

// CreateTag inserts a tag; the color is derived from the tag count so it stays unique.
func CreateTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	var count int64
	db.Model(&models.Tag{}).Count(&count)
	tag := &models.Tag{Name: name, Slug: slug, Color: fmt.Sprintf("#%06X", count+1)}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
	return tag
}

// Amount pairs an ingredient with a decimal amount for CreateRecipe
type Amount struct {
	IngredientID uint
	Value        string
}

// CreateRecipe inserts a recipe with its ingredient and tag rows directly.
func CreateRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, amounts []Amount, tagIDs ...uint) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        name + " text",
		Image:       "/media/recipes/" + name + ".png",
		CookingTime: 10,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		for _, a := range amounts {
			row := models.RecipeIngredient{
				RecipeID:     recipe.ID,
				IngredientID: a.IngredientID,
				Amount:       decimal.RequireFromString(a.Value),
			}
			if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
				return err
			}
		}
		for _, id := range tagIDs {
			if err := tx.Omit(clause.Associations).Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: id}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}
