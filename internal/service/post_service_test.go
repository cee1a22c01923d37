package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostServiceWithStubs(posts *postRepoStub, groups *groupRepoStub) *PostService {
	return NewPostService(posts, groups, noopCommentRepo(), &assetStoreStub{})
}

func TestCreatePost_Validation(t *testing.T) {
	ctx := context.Background()
	groups := noopGroupRepo()
	groups.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		return nil, models.NewNotFoundError("Group", id)
	}
	svc := newPostServiceWithStubs(noopPostRepo(), groups)

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty text", CreatePostInput{AuthorID: 1, Text: ""}},
		{"whitespace text", CreatePostInput{AuthorID: 1, Text: "  \n "}},
		{"unknown group", CreatePostInput{AuthorID: 1, Text: "hello", GroupID: uintPtr(99)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestCreatePost_ResolvesImageURL(t *testing.T) {
	posts := noopPostRepo()
	var stored *models.Post
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 7
		stored = p
		return nil
	}
	posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		cp := *stored
		return &cp, nil
	}
	svc := newPostServiceWithStubs(posts, noopGroupRepo())

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1, Text: "with picture", GroupID: uintPtr(3), Image: "posts/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), post.ID)
	assert.Equal(t, "/media/posts/a.png", post.ImageURL)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, uint(3), *post.GroupID)
}

func TestUpdatePost(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	original := func() *models.Post {
		return &models.Post{ID: 5, AuthorID: 1, Text: "original", GroupID: uintPtr(2), Image: "posts/old.png", CreatedAt: created}
	}

	tests := []struct {
		name     string
		in       UpdatePostInput
		wantCode string
		check    func(t *testing.T, p *models.Post)
	}{
		{
			name:     "non author is denied",
			in:       UpdatePostInput{EditorID: 2, PostID: 5, Text: strPtr("hijack")},
			wantCode: models.CodePermissionDenied,
		},
		{
			name:     "empty text rejected",
			in:       UpdatePostInput{EditorID: 1, PostID: 5, Text: strPtr(" ")},
			wantCode: models.CodeValidation,
		},
		{
			name: "only text changes",
			in:   UpdatePostInput{EditorID: 1, PostID: 5, Text: strPtr("edited")},
			check: func(t *testing.T, p *models.Post) {
				assert.Equal(t, "edited", p.Text)
				assert.Equal(t, uint(2), *p.GroupID)
				assert.Equal(t, "posts/old.png", p.Image)
				assert.Equal(t, uint(1), p.AuthorID)
				assert.Equal(t, created, p.CreatedAt)
			},
		},
		{
			name: "group cleared",
			in:   UpdatePostInput{EditorID: 1, PostID: 5, ClearGroup: true},
			check: func(t *testing.T, p *models.Post) {
				assert.Nil(t, p.GroupID)
				assert.Equal(t, "original", p.Text)
			},
		},
		{
			name: "image replaced",
			in:   UpdatePostInput{EditorID: 1, PostID: 5, Image: strPtr("posts/new.png")},
			check: func(t *testing.T, p *models.Post) {
				assert.Equal(t, "posts/new.png", p.Image)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := original()
			var updated *models.Post
			posts := noopPostRepo()
			posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
				if updated != nil {
					cp := *updated
					return &cp, nil
				}
				cp := *current
				return &cp, nil
			}
			posts.updateFn = func(_ context.Context, p *models.Post) error {
				updated = p
				return nil
			}
			svc := newPostServiceWithStubs(posts, noopGroupRepo())

			post, err := svc.UpdatePost(context.Background(), tt.in)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			tt.check(t, post)
		})
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	svc := newPostServiceWithStubs(posts, noopGroupRepo())

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{EditorID: 1, PostID: 404, Text: strPtr("x")})
	assertCode(t, err, models.CodeNotFound)
}

func TestDeletePost_AuthorOnly(t *testing.T) {
	deleted := false
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 1}, nil
	}
	posts.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := newPostServiceWithStubs(posts, noopGroupRepo())

	err := svc.DeletePost(context.Background(), DeletePostInput{EditorID: 2, PostID: 3})
	assertCode(t, err, models.CodePermissionDenied)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(context.Background(), DeletePostInput{EditorID: 1, PostID: 3}))
	assert.True(t, deleted)
}

func TestUpdatePost_RemovesReplacedImage(t *testing.T) {
	tests := []struct {
		name        string
		in          UpdatePostInput
		updateErr   error
		wantDeleted []string
	}{
		{
			name:        "new image drops the old one",
			in:          UpdatePostInput{EditorID: 1, PostID: 5, Image: strPtr("posts/new.png")},
			wantDeleted: []string{"posts/old.png"},
		},
		{
			name: "text edit keeps the image",
			in:   UpdatePostInput{EditorID: 1, PostID: 5, Text: strPtr("edited")},
		},
		{
			name: "same image kept",
			in:   UpdatePostInput{EditorID: 1, PostID: 5, Image: strPtr("posts/old.png")},
		},
		{
			name:      "failed update keeps the old image",
			in:        UpdatePostInput{EditorID: 1, PostID: 5, Image: strPtr("posts/new.png")},
			updateErr: models.NewInternalError(errors.New("db down")),
		},
		{
			name: "non author touches nothing",
			in:   UpdatePostInput{EditorID: 2, PostID: 5, Image: strPtr("posts/new.png")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := noopPostRepo()
			posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, AuthorID: 1, Text: "original", Image: "posts/old.png"}, nil
			}
			posts.updateFn = func(_ context.Context, _ *models.Post) error { return tt.updateErr }
			assets := &assetStoreStub{}
			svc := NewPostService(posts, noopGroupRepo(), noopCommentRepo(), assets)

			_, _ = svc.UpdatePost(context.Background(), tt.in)
			assert.Equal(t, tt.wantDeleted, assets.deleted)
		})
	}
}

func TestDeletePost_RemovesImage(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 1, Image: "posts/pic.png"}, nil
	}
	assets := &assetStoreStub{deleteErr: errors.New("disk gone")}
	svc := NewPostService(posts, noopGroupRepo(), noopCommentRepo(), assets)

	assertCode(t, svc.DeletePost(context.Background(), DeletePostInput{EditorID: 2, PostID: 3}), models.CodePermissionDenied)
	assert.Empty(t, assets.deleted)

	require.NoError(t, svc.DeletePost(context.Background(), DeletePostInput{EditorID: 1, PostID: 3}))
	assert.Equal(t, []string{"posts/pic.png"}, assets.deleted)
}

func TestDeletePost_WithoutImage(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 1}, nil
	}
	assets := &assetStoreStub{}
	svc := NewPostService(posts, noopGroupRepo(), noopCommentRepo(), assets)

	require.NoError(t, svc.DeletePost(context.Background(), DeletePostInput{EditorID: 1, PostID: 3}))
	assert.Empty(t, assets.deleted)
}

func TestGetPost_Detail(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 4, Text: "hello"}, nil
	}
	posts.countByAuthorFn = func(_ context.Context, authorID uint) (int64, error) {
		assert.Equal(t, uint(4), authorID)
		return 12, nil
	}
	comments := noopCommentRepo()
	comments.listByPostFn = func(_ context.Context, _ uint) ([]*models.Comment, error) {
		return []*models.Comment{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}, nil
	}
	svc := NewPostService(posts, noopGroupRepo(), comments, nil)

	detail, err := svc.GetPost(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, uint(9), detail.Post.ID)
	assert.Equal(t, int64(12), detail.AuthorPostCount)
	assert.Len(t, detail.Comments, 2)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
