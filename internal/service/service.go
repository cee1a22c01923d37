// Package service holds the content and social graph operations that sit
// between the HTTP handlers and the repositories.
package service

import (
	"context"

	"yatube/internal/models"
)

// AssetResolver turns a stored asset reference into public URLs.
type AssetResolver interface {
	URL(ref string) string
	ThumbnailURL(ref string) string
}

// AssetStore is an AssetResolver that can also remove stored assets.
type AssetStore interface {
	AssetResolver
	Delete(ctx context.Context, ref string) error
}

func resolveImage(assets AssetResolver, post *models.Post) {
	if assets == nil || post == nil || post.Image == "" {
		return
	}
	post.ImageURL = assets.URL(post.Image)
	post.ThumbnailURL = assets.ThumbnailURL(post.Image)
}

func resolveImages(assets AssetResolver, posts []*models.Post) {
	for _, p := range posts {
		resolveImage(assets, p)
	}
}
