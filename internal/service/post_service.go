package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	commentRepo repository.CommentRepository
	assets      AssetStore
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    string
}

// UpdatePostInput carries only the fields being changed. A nil pointer keeps
// the current value; ClearGroup detaches the post from its group.
type UpdatePostInput struct {
	EditorID   uint
	PostID     uint
	Text       *string
	GroupID    *uint
	ClearGroup bool
	Image      *string
}

type DeletePostInput struct {
	EditorID uint
	PostID   uint
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	commentRepo repository.CommentRepository,
	assets AssetStore,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		commentRepo: commentRepo,
		assets:      assets,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "create", attribute.Int64("user.id", int64(in.AuthorID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.ValidateText(in.Text); err != nil {
		return nil, models.NewFieldValidationError("text", err.Error())
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post = &models.Post{
		Text:     in.Text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
		Image:    in.Image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.RecordWrite("post", "create")
	return s.getPost(ctx, post.ID)
}

// UpdatePost applies the supplied fields for the post's author. Anyone else
// gets PermissionDenied; author and creation time never change.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "update", attribute.Int64("post.id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.EditorID {
		return nil, models.NewPermissionDeniedError("You can only edit your own posts")
	}

	if in.Text != nil {
		if err := validation.ValidateText(*in.Text); err != nil {
			return nil, models.NewFieldValidationError("text", err.Error())
		}
		post.Text = *in.Text
	}
	switch {
	case in.ClearGroup:
		post.GroupID = nil
	case in.GroupID != nil:
		if err := s.checkGroup(ctx, in.GroupID); err != nil {
			return nil, err
		}
		post.GroupID = in.GroupID
	}
	previous := post.Image
	if in.Image != nil {
		post.Image = *in.Image
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	observability.RecordWrite("post", "update")
	if previous != post.Image {
		s.removeAsset(ctx, previous)
	}
	return s.getPost(ctx, post.ID)
}

// GetPost returns the post with its comments and the author's post count.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.PostDetail, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	detail := &models.PostDetail{Post: post, Comments: make([]models.Comment, 0, len(comments)), AuthorPostCount: count}
	for _, c := range comments {
		detail.Comments = append(detail.Comments, *c)
	}
	return detail, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.EditorID {
		return models.NewPermissionDeniedError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	observability.RecordWrite("post", "delete")
	s.removeAsset(ctx, post.Image)
	return nil
}

// removeAsset deletes an image no post refers to any more. The row change is
// already committed, so a failure is logged rather than returned.
func (s *PostService) removeAsset(ctx context.Context, ref string) {
	if s.assets == nil || ref == "" {
		return
	}
	if err := s.assets.Delete(ctx, ref); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove post image",
			slog.String("image", ref), slog.String("error", err.Error()))
	}
}

func (s *PostService) getPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resolveImage(s.assets, post)
	return post, nil
}

// checkGroup reports an unknown group as a form error, not a missing page.
func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewFieldValidationError("group", "Select a valid group")
		}
		return err
	}
	return nil
}
