package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostPage is one page of a post feed.
type PostPage = models.Page[*models.Post]

// GroupFeed is a group together with one page of its posts.
type GroupFeed struct {
	Group *models.Group `json:"group"`
	Page  *PostPage     `json:"page"`
}

// ProfileFeed is an author's profile together with one page of their posts.
type ProfileFeed struct {
	Profile *models.Profile `json:"profile"`
	Page    *PostPage       `json:"page"`
}

// Renderer turns a feed page into the bytes stored in the page cache.
type Renderer func(page *PostPage) ([]byte, error)

// RenderJSON is the default Renderer.
func RenderJSON(page *PostPage) ([]byte, error) {
	return json.Marshal(page)
}

type FeedService struct {
	postRepo   repository.PostRepository
	groupRepo  repository.GroupRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	pages      cache.PageCache
	render     Renderer
	pageSize   int
	assets     AssetResolver
}

type FeedServiceConfig struct {
	PageSize int
	Cache    cache.PageCache
	Render   Renderer
	Assets   AssetResolver
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	cfg FeedServiceConfig,
) *FeedService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = models.DefaultPageSize
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemoryPageCache()
	}
	if cfg.Render == nil {
		cfg.Render = RenderJSON
	}
	return &FeedService{
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		pages:      cfg.Cache,
		render:     cfg.Render,
		pageSize:   cfg.PageSize,
		assets:     cfg.Assets,
	}
}

func (s *FeedService) pageRequest(number int) models.PageRequest {
	return models.NewPageRequest(number, s.pageSize)
}

func (s *FeedService) buildPage(posts []*models.Post, req models.PageRequest, total int64) *PostPage {
	resolveImages(s.assets, posts)
	return models.NewPage(posts, req, total)
}

// ListFeed returns every post, newest first.
func (s *FeedService) ListFeed(ctx context.Context, page int) (result *PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", "list", attribute.Int("page", page))
	defer func() { observability.EndSpan(span, err) }()

	req := s.pageRequest(page)
	posts, total, err := s.postRepo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.buildPage(posts, req, total), nil
}

func (s *FeedService) ListGroupFeed(ctx context.Context, slug string, page int) (result *GroupFeed, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", "list_group",
		attribute.String("group.slug", slug), attribute.Int("page", page))
	defer func() { observability.EndSpan(span, err) }()

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	req := s.pageRequest(page)
	posts, total, err := s.postRepo.ListByGroup(ctx, group.ID, req)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: s.buildPage(posts, req, total)}, nil
}

// ListProfileFeed returns the author's posts with their post count. The
// Following flag is set for viewerID; pass 0 for anonymous viewers.
func (s *FeedService) ListProfileFeed(ctx context.Context, username string, page int, viewerID uint) (result *ProfileFeed, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", "list_profile",
		attribute.String("profile.username", username), attribute.Int("page", page))
	defer func() { observability.EndSpan(span, err) }()

	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	req := s.pageRequest(page)
	posts, total, err := s.postRepo.ListByAuthor(ctx, author.ID, req)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *author, PostCount: total}
	if profile.FollowerCount, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = s.followRepo.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != author.ID {
		if profile.Following, err = s.followRepo.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	profile.User.Email = ""

	return &ProfileFeed{Profile: profile, Page: s.buildPage(posts, req, total)}, nil
}

// ListFollowedFeed returns posts by the authors userID follows. Following
// nobody yields an empty page.
func (s *FeedService) ListFollowedFeed(ctx context.Context, userID uint, page int) (result *PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed", "list_followed",
		attribute.Int64("user.id", int64(userID)), attribute.Int("page", page))
	defer func() { observability.EndSpan(span, err) }()

	req := s.pageRequest(page)
	posts, total, err := s.postRepo.ListByFollower(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return s.buildPage(posts, req, total), nil
}

// RenderIndex returns the rendered global feed page, serving it from the
// page cache when present. A cached page is returned as is until ClearCache
// runs, even if posts changed in between.
func (s *FeedService) RenderIndex(ctx context.Context, page int) ([]byte, error) {
	req := s.pageRequest(page)
	key := cache.FeedPageKey(cache.IndexFeed, req.Number)

	body, found, err := s.pages.Get(ctx, key)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "feed cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return body, nil
	}

	result, err := s.ListFeed(ctx, req.Number)
	if err != nil {
		return nil, err
	}
	body, err = s.render(result)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.pages.Set(ctx, key, body); err != nil {
		middleware.Logger.WarnContext(ctx, "feed cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return body, nil
}

// ClearCache drops every cached feed page.
func (s *FeedService) ClearCache(ctx context.Context) error {
	if err := s.pages.Clear(ctx); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
