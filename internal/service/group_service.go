package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type GroupService struct {
	groupRepo repository.GroupRepository
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// CreateGroup validates and stores a new group. A taken slug is reported
// as a field error on "slug".
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (group *models.Group, err error) {
	ctx, span := observability.StartSpan(ctx, "group", "create", attribute.String("group.slug", in.Slug))
	defer func() { observability.EndSpan(span, err) }()

	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)

	fields := map[string]string{}
	if err := validation.ValidateGroupTitle(in.Title); err != nil {
		fields["title"] = err.Error()
	}
	if err := validation.ValidateGroupSlug(in.Slug); err != nil {
		fields["slug"] = err.Error()
	}
	if len(fields) > 0 {
		appErr := models.NewValidationError("Invalid group")
		appErr.Fields = fields
		return nil, appErr
	}

	group = &models.Group{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	observability.RecordWrite("group", "create")
	return group, nil
}

func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.groupRepo.List(ctx)
}

// DeleteGroup removes the group; its posts remain without a group.
func (s *GroupService) DeleteGroup(ctx context.Context, slug string) error {
	if err := s.groupRepo.DeleteBySlug(ctx, slug); err != nil {
		return err
	}
	observability.RecordWrite("group", "delete")
	return nil
}
