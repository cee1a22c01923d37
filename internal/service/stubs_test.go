package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	listFn           func(context.Context, models.PageRequest) ([]*models.Post, int64, error)
	listByGroupFn    func(context.Context, uint, models.PageRequest) ([]*models.Post, int64, error)
	listByAuthorFn   func(context.Context, uint, models.PageRequest) ([]*models.Post, int64, error)
	listByFollowerFn func(context.Context, uint, models.PageRequest) ([]*models.Post, int64, error)
	countByAuthorFn  func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, page models.PageRequest) ([]*models.Post, int64, error) {
	return s.listFn(ctx, page)
}
func (s *postRepoStub) ListByGroup(ctx context.Context, groupID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	return s.listByGroupFn(ctx, groupID, page)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	return s.listByAuthorFn(ctx, authorID, page)
}
func (s *postRepoStub) ListByFollower(ctx context.Context, userID uint, page models.PageRequest) ([]*models.Post, int64, error) {
	return s.listByFollowerFn(ctx, userID, page)
}
func (s *postRepoStub) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.countByAuthorFn(ctx, authorID)
}

func noopPostRepo() *postRepoStub {
	empty := func(_ context.Context, _ uint, _ models.PageRequest) ([]*models.Post, int64, error) { return nil, 0, nil }
	return &postRepoStub{
		createFn:         func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		updateFn:         func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		listFn:           func(_ context.Context, _ models.PageRequest) ([]*models.Post, int64, error) { return nil, 0, nil },
		listByGroupFn:    empty,
		listByAuthorFn:   empty,
		listByFollowerFn: empty,
		countByAuthorFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	createFn       func(context.Context, *models.Group) error
	getByIDFn      func(context.Context, uint) (*models.Group, error)
	getBySlugFn    func(context.Context, string) (*models.Group, error)
	listFn         func(context.Context) ([]*models.Group, error)
	deleteBySlugFn func(context.Context, string) error
}

func (s *groupRepoStub) Create(ctx context.Context, g *models.Group) error {
	return s.createFn(ctx, g)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]*models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) DeleteBySlug(ctx context.Context, slug string) error {
	return s.deleteBySlugFn(ctx, slug)
}

func noopGroupRepo() *groupRepoStub {
	return &groupRepoStub{
		createFn:       func(_ context.Context, _ *models.Group) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Group, error) { return &models.Group{ID: id}, nil },
		getBySlugFn:    func(_ context.Context, slug string) (*models.Group, error) { return &models.Group{Slug: slug}, nil },
		listFn:         func(_ context.Context) ([]*models.Group, error) { return nil, nil },
		deleteBySlugFn: func(_ context.Context, _ string) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// assetStoreStub records deleted references.
type assetStoreStub struct {
	deleted   []string
	deleteErr error
}

func (*assetStoreStub) URL(ref string) string { return "/media/" + ref }
func (*assetStoreStub) ThumbnailURL(ref string) string {
	return "/media/thumbs/" + ref
}
func (s *assetStoreStub) Delete(_ context.Context, ref string) error {
	s.deleted = append(s.deleted, ref)
	return s.deleteErr
}

// assertCode asserts that err is an AppError carrying code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// setupSQLiteDB returns a private in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, db.Create(u).Error)
	return u
}
