// Package storage keeps uploaded post images on local disk.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// PostsDir is the directory, relative to the media root, holding post images.
const PostsDir = "posts"

// DefaultMaxPixels caps width*height of an accepted upload. Decoding for the
// thumbnail allocates memory proportional to it.
const DefaultMaxPixels = 40_000_000

// ErrInvalidReference is returned for references outside the media root.
var ErrInvalidReference = errors.New("invalid asset reference")

// LocalAssetStore writes images under Root and serves them at URLPrefix.
type LocalAssetStore struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
	MaxPixels int64
}

// UploadInput is one uploaded file.
type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NewLocalAssetStore returns a store rooted at root. maxUploadMB <= 0 means 10MB.
func NewLocalAssetStore(root, urlPrefix string, maxUploadMB int) *LocalAssetStore {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	if urlPrefix == "" {
		urlPrefix = "/media/"
	}
	return &LocalAssetStore{
		Root:      root,
		URLPrefix: strings.TrimSuffix(urlPrefix, "/") + "/",
		MaxBytes:  int64(maxUploadMB) * 1024 * 1024,
		MaxPixels: DefaultMaxPixels,
	}
}

// Save validates that the upload is a decodable image and stores it under a
// fresh name. It returns the opaque reference to keep on the post.
func (s *LocalAssetStore) Save(_ context.Context, in UploadInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewFieldValidationError("image", "No file uploaded")
	}
	if int64(len(in.Content)) > s.MaxBytes {
		return "", models.NewFieldValidationError("image", fmt.Sprintf("File too large (max %dMB)", s.MaxBytes/(1024*1024)))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewFieldValidationError("image", "Upload a valid image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", models.NewFieldValidationError("image", "Upload a valid image")
	}
	if s.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > s.MaxPixels {
		return "", models.NewFieldValidationError("image",
			fmt.Sprintf("Image dimensions too large (%dx%d)", cfg.Width, cfg.Height))
	}
	ext, ok := formatExtensions[format]
	if !ok {
		return "", models.NewFieldValidationError("image", "Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !matchesFormat(provided, format) {
		return "", models.NewFieldValidationError("image", "Image content type mismatch")
	}

	thumb, err := renderThumbnail(in.Content)
	if err != nil {
		return "", models.NewFieldValidationError("image", "Upload a valid image")
	}

	ref := path.Join(PostsDir, uuid.NewString()+ext)
	if err := s.write(ref, in.Content); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.write(thumbnailRef(ref), thumb); err != nil {
		_ = s.Delete(context.Background(), ref)
		return "", models.NewInternalError(err)
	}
	return ref, nil
}

func (s *LocalAssetStore) write(ref string, content []byte) error {
	abs := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return err
	}
	return os.WriteFile(abs, content, 0o600)
}

// Open returns the stored bytes and their content type.
func (s *LocalAssetStore) Open(_ context.Context, ref string) ([]byte, string, error) {
	abs, err := s.resolve(ref)
	if err != nil {
		return nil, "", models.NewNotFoundError("Asset", ref)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", models.NewNotFoundError("Asset", ref)
		}
		return nil, "", models.NewInternalError(err)
	}
	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = http.DetectContentType(b)
	}
	return b, contentType, nil
}

// Delete removes a stored asset and its thumbnail. Missing files are ignored.
func (s *LocalAssetStore) Delete(_ context.Context, ref string) error {
	abs, err := s.resolve(ref)
	if err != nil {
		return err
	}
	for _, p := range []string{abs, filepath.Join(s.Root, filepath.FromSlash(thumbnailRef(ref)))} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// URL returns the public URL for ref.
func (s *LocalAssetStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.URLPrefix + strings.TrimPrefix(ref, "/")
}

// ThumbnailURL returns the public URL of the feed thumbnail for ref.
func (s *LocalAssetStore) ThumbnailURL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.URL(thumbnailRef(ref))
}

func (s *LocalAssetStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)[1:]
	if clean == "" || clean != ref || !strings.HasPrefix(clean, PostsDir+"/") {
		return "", ErrInvalidReference
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

var formatExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func matchesFormat(contentType, format string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return format == "jpeg"
	default:
		return contentType == "image/"+format
	}
}
