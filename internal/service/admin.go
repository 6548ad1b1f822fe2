package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AdminService backs the staff-only management API
type AdminService struct {
	db     *gorm.DB
	images *ImageService
}

func NewAdminService(db *gorm.DB, images *ImageService) *AdminService {
	return &AdminService{db: db, images: images}
}

// IsStaff reports whether the user may use the admin API.
func (s *AdminService) IsStaff(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "is_staff").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsStaff, nil
}

type adminUserRow struct {
	models.User
	RecipesCount int64
}

func (r *adminUserRow) response() types.AdminUserResponse {
	return types.AdminUserResponse{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		IsStaff:      r.IsStaff,
		RecipesCount: r.RecipesCount,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, search string, page types.PageQuery) ([]types.AdminUserResponse, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where("LOWER(users.email) LIKE ? ESCAPE '\\' OR LOWER(users.username) LIKE ? ESCAPE '\\'", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []adminUserRow
	err := q.Select("users.*, (SELECT COUNT(*) FROM recipes WHERE recipes.author_id = users.id) AS recipes_count").
		Order("users.id").Scopes(paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	out := make([]types.AdminUserResponse, len(rows))
	for i := range rows {
		out[i] = rows[i].response()
	}
	return out, total, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id uint, req *types.AdminUserUpdate) (*types.AdminUserResponse, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.IsStaff != nil {
		updates["is_staff"] = *req.IsStaff
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", id)
		}
		return nil, err
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	row := adminUserRow{User: user, RecipesCount: count}
	out := row.response()
	return &out, nil
}

// DeleteUser removes a user and everything they own. Staff cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return invalid("", "you cannot delete your own account from the admin")
	}

	var images []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("user", id)
		}

		var recipes []models.Recipe
		if err := tx.Select("id", "image").Where("author_id = ?", id).Find(&recipes).Error; err != nil {
			return err
		}
		for _, r := range recipes {
			if err := deleteRecipe(tx, r.ID); err != nil {
				return err
			}
			images = append(images, r.Image)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Shoplist{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}
	for _, img := range images {
		s.images.Discard(ctx, img)
	}
	return nil
}

type adminRecipeRow struct {
	ID            uint
	Name          string
	AuthorID      uint
	Author        string
	CookingTime   int
	FavoriteCount int64
	CreatedAt     time.Time
}

// ListRecipes supports name search and author/tag filters, and counts favorites per recipe.
func (s *AdminService) ListRecipes(ctx context.Context, f *types.AdminRecipeFilter) ([]types.AdminRecipeResponse, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})
	if f.Search != "" {
		q = q.Where("LOWER(recipes.name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(f.Search))+"%")
	}
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.Tag != "" {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug = ?", f.Tag)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []adminRecipeRow
	err := q.Select(`recipes.id, recipes.name, recipes.author_id, users.username AS author,
		recipes.cooking_time, recipes.created_at,
		(SELECT COUNT(*) FROM favorites WHERE favorites.recipe_id = recipes.id) AS favorite_count`).
		Joins("JOIN users ON users.id = recipes.author_id").
		Order("recipes.id DESC").Scopes(paginate(f.PageQuery)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	out := make([]types.AdminRecipeResponse, len(rows))
	for i, r := range rows {
		out[i] = types.AdminRecipeResponse{
			ID:            r.ID,
			Name:          r.Name,
			AuthorID:      r.AuthorID,
			Author:        r.Author,
			CookingTime:   r.CookingTime,
			FavoriteCount: r.FavoriteCount,
			CreatedAt:     r.CreatedAt,
		}
	}
	return out, total, nil
}

// UpdateRecipe edits any recipe regardless of author. Ingredients and tags are
// replaced when present, as on the public endpoint.
func (s *AdminService) UpdateRecipe(ctx context.Context, id uint, req *types.AdminRecipeUpdate) (*types.RecipeResponse, error) {
	load := func(tx *gorm.DB) (*models.Recipe, error) {
		return loadRecipe(tx, id)
	}
	var reassign func(tx *gorm.DB, recipe *models.Recipe) error
	if req.AuthorID != nil {
		reassign = func(tx *gorm.DB, recipe *models.Recipe) error {
			if err := ensureExist(tx, &models.User{}, "author", "user", []uint{*req.AuthorID}); err != nil {
				return err
			}
			return tx.Model(recipe).Update("author_id", *req.AuthorID).Error
		}
	}
	if err := updateRecipe(ctx, s.db, s.images, load, &req.UpdateRecipeRequest, reassign); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := withRecipeAssociations(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, err
	}
	out, err := presentRecipes(ctx, s.db, 0, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *AdminService) DeleteRecipe(ctx context.Context, id uint) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Select("id", "image").First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("recipe", id)
			}
			return err
		}
		image = recipe.Image
		return deleteRecipe(tx, id)
	})
	if err != nil {
		return err
	}
	s.images.Discard(ctx, image)
	return nil
}

func (s *AdminService) CreateTag(ctx context.Context, req *types.TagRequest) (*types.TagResponse, error) {
	tag := models.Tag{Name: req.Name, Color: strings.ToUpper(req.Color), Slug: req.Slug}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("a tag with this name, color or slug already exists")
		}
		return nil, err
	}
	out := tagResponse(&tag)
	return &out, nil
}

func (s *AdminService) UpdateTag(ctx context.Context, id uint, req *types.TagUpdate) (*types.TagResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Color != nil {
		updates["color"] = strings.ToUpper(*req.Color)
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}

	var tag models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("tag", id)
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&tag).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("a tag with this name, color or slug already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := tagResponse(&tag)
	return &out, nil
}

func (s *AdminService) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("tag", id)
		}
		return nil
	})
}

func (s *AdminService) ListIngredients(ctx context.Context, search string, page types.PageQuery) ([]types.IngredientResponse, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Ingredient
	if err := q.Order("name").Scopes(paginate(page)).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	out := make([]types.IngredientResponse, len(items))
	for i := range items {
		out[i] = ingredientResponse(&items[i])
	}
	return out, total, nil
}

func (s *AdminService) CreateIngredient(ctx context.Context, req *types.IngredientRequest) (*types.IngredientResponse, error) {
	item := models.Ingredient{Name: strings.TrimSpace(req.Name), MeasurementUnit: strings.TrimSpace(req.MeasurementUnit)}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("ingredient %q already exists", item.Name)
		}
		return nil, err
	}
	out := ingredientResponse(&item)
	return &out, nil
}

func (s *AdminService) UpdateIngredient(ctx context.Context, id uint, req *types.IngredientUpdate) (*types.IngredientResponse, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.MeasurementUnit != nil {
		updates["measurement_unit"] = strings.TrimSpace(*req.MeasurementUnit)
	}

	var item models.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ingredient", id)
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("ingredient %q already exists", updates["name"])
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := ingredientResponse(&item)
	return &out, nil
}

// DeleteIngredient also drops the ingredient from every recipe using it.
func (s *AdminService) DeleteIngredient(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Ingredient{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("ingredient", id)
		}
		return nil
	})
}

// Relation selects which link table the relation endpoints operate on
type Relation string

const (
	RelationFavorites Relation = "favorites"
	RelationShoplists Relation = "shoplists"
	RelationFollows   Relation = "follows"
)

func (r Relation) model() interface{} {
	switch r {
	case RelationFavorites:
		return &models.Favorite{}
	case RelationShoplists:
		return &models.Shoplist{}
	default:
		return &models.Follow{}
	}
}

type relationRow struct {
	ID            uint
	UserID        uint
	UserName      string
	RecipeID      uint
	RecipeName    string
	FollowingID   uint
	FollowingName string
	CreatedAt     time.Time
}

func (s *AdminService) ListRelations(ctx context.Context, rel Relation, f *types.AdminRelationFilter) ([]types.AdminRelationResponse, int64, error) {
	table := string(rel)
	q := s.db.WithContext(ctx).Table(table)
	if f.UserID != 0 {
		q = q.Where(table+".user_id = ?", f.UserID)
	}
	if rel == RelationFollows {
		if f.FollowingID != 0 {
			q = q.Where("follows.following_id = ?", f.FollowingID)
		}
	} else if f.RecipeID != 0 {
		q = q.Where(table+".recipe_id = ?", f.RecipeID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []relationRow
	if err := relationSelect(q, rel).Order(table + ".id DESC").Scopes(paginate(f.PageQuery)).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}

	out := make([]types.AdminRelationResponse, len(rows))
	for i := range rows {
		out[i] = rows[i].response()
	}
	return out, total, nil
}

// relationSelect joins the usernames and recipe names shown in the admin lists
func relationSelect(q *gorm.DB, rel Relation) *gorm.DB {
	table := string(rel)
	q = q.Joins("JOIN users u ON u.id = " + table + ".user_id")
	if rel == RelationFollows {
		return q.Select("follows.id, follows.user_id, u.username AS user_name, follows.following_id, f.username AS following_name, follows.created_at").
			Joins("JOIN users f ON f.id = follows.following_id")
	}
	return q.Select(table + ".id, " + table + ".user_id, u.username AS user_name, " + table + ".recipe_id, r.name AS recipe_name, " + table + ".created_at").
		Joins("JOIN recipes r ON r.id = " + table + ".recipe_id")
}

func (r *relationRow) response() types.AdminRelationResponse {
	return types.AdminRelationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		User:        r.UserName,
		RecipeID:    r.RecipeID,
		Recipe:      r.RecipeName,
		FollowingID: r.FollowingID,
		Following:   r.FollowingName,
		CreatedAt:   r.CreatedAt,
	}
}

// CreateRelation adds a favorite, shoplist or follow row on behalf of a user.
func (s *AdminService) CreateRelation(ctx context.Context, rel Relation, req *types.AdminRelationCreate) (*types.AdminRelationResponse, error) {
	var (
		row interface{}
		id  uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing *gorm.DB
		if err := ensureExist(tx, &models.User{}, "user", "user", []uint{req.UserID}); err != nil {
			return err
		}
		switch rel {
		case RelationFollows:
			if req.FollowingID == 0 {
				return invalid("following", "this field is required")
			}
			if req.FollowingID == req.UserID {
				return invalid("following", "a user cannot follow themselves")
			}
			if err := ensureExist(tx, &models.User{}, "following", "user", []uint{req.FollowingID}); err != nil {
				return err
			}
			row = &models.Follow{UserID: req.UserID, FollowingID: req.FollowingID}
			existing = tx.Model(&models.Follow{}).Where("user_id = ? AND following_id = ?", req.UserID, req.FollowingID)
		default:
			if req.RecipeID == 0 {
				return invalid("recipe", "this field is required")
			}
			if err := ensureExist(tx, &models.Recipe{}, "recipe", "recipe", []uint{req.RecipeID}); err != nil {
				return err
			}
			if rel == RelationFavorites {
				row = &models.Favorite{UserID: req.UserID, RecipeID: req.RecipeID}
			} else {
				row = &models.Shoplist{UserID: req.UserID, RecipeID: req.RecipeID}
			}
			existing = tx.Model(rel.model()).Where("user_id = ? AND recipe_id = ?", req.UserID, req.RecipeID)
		}
		duplicate := conflict("this %s entry already exists", strings.TrimSuffix(string(rel), "s"))
		var count int64
		if err := existing.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return duplicate
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicate
			}
			return fmt.Errorf("create %s: %w", rel, err)
		}
		switch r := row.(type) {
		case *models.Follow:
			id = r.ID
		case *models.Favorite:
			id = r.ID
		case *models.Shoplist:
			id = r.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var created relationRow
	q := s.db.WithContext(ctx).Table(string(rel)).Where(string(rel)+".id = ?", id)
	if err := relationSelect(q, rel).Scan(&created).Error; err != nil {
		return nil, err
	}
	out := created.response()
	return &out, nil
}

func (s *AdminService) DeleteRelation(ctx context.Context, rel Relation, id uint) error {
	res := s.db.WithContext(ctx).Delete(rel.model(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(string(rel), id)
	}
	return nil
}
