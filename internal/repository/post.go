package repository

import (
	"context"
	"errors"

	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// feedOrder is total: equal timestamps fall back to the primary key so pages
// never overlap or skip rows.
const feedOrder = "posts.created_at DESC, posts.id DESC"

// publicAuthor loads the author columns shown next to content. Email and
// password hash stay behind.
func publicAuthor(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "first_name", "last_name", "is_admin", "created_at", "updated_at")
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page models.PageRequest) ([]*models.Post, int64, error)
	ListByGroup(ctx context.Context, groupID uint, page models.PageRequest) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) ([]*models.Post, int64, error)
	ListByFollower(ctx context.Context, userID uint, page models.PageRequest) ([]*models.Post, int64, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return translateWriteError(err, "Post")
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author", publicAuthor).Preload("Group").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Update writes the editable columns only. Author and creation time are fixed.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	res := r.db.WithContext(ctx).
		Model(post).
		Omit(clause.Associations).
		Select("text", "group_id", "image", "updated_at").
		Updates(post)
	if res.Error != nil {
		return translateWriteError(res.Error, "Post")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, page models.PageRequest) ([]*models.Post, int64, error) {
	return r.paginate("list", r.db.WithContext(ctx).Model(&models.Post{}), page)
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.group_id = ?", groupID)
	return r.paginate("list_by_group", q, page)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.author_id = ?", authorID)
	return r.paginate("list_by_author", q, page)
}

// ListByFollower returns posts written by the authors userID follows.
func (r *postRepository) ListByFollower(ctx context.Context, userID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	followed := r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.author_id IN (?)", followed)
	return r.paginate("list_by_follower", q, page)
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) paginate(op string, q *gorm.DB, page models.PageRequest) ([]*models.Post, int64, error) {
	defer observability.TrackQuery(op, "posts")()

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := []*models.Post{}
	if total == 0 || int64(page.Offset()) >= total {
		return posts, total, nil
	}

	err := q.Session(&gorm.Session{}).
		Preload("Author", publicAuthor).
		Preload("Group").
		Order(feedOrder).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// translateWriteError maps a dangling foreign key to a validation error so
// callers can report the offending field.
func translateWriteError(err error, resource string) error {
	if database.IsForeignKeyViolation(err) {
		return models.NewValidationError(resource + " references a missing record")
	}
	return models.NewInternalError(err)
}
