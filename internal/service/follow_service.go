package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// Follow outcomes recorded in observability.FollowOutcomes.
const (
	FollowCreated   = "created"
	FollowDuplicate = "duplicate"
	FollowSelf      = "self"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow makes userID follow the author named username. Following yourself
// or an author you already follow changes nothing and is not an error.
// It reports whether a new edge was created.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (bool, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if author.ID == userID {
		observability.FollowOutcomes.WithLabelValues(FollowSelf).Inc()
		return false, nil
	}

	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return false, err
	}
	outcome := FollowCreated
	if !created {
		outcome = FollowDuplicate
	}
	observability.FollowOutcomes.WithLabelValues(outcome).Inc()
	middleware.Logger.DebugContext(ctx, "Follow processed",
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("author_id", uint64(author.ID)),
		slog.String("outcome", outcome),
	)
	return created, nil
}

// Unfollow removes the edge if it exists.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) error {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	_, err = s.followRepo.Delete(ctx, userID, author.ID)
	return err
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}
