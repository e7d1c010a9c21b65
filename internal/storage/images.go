package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aircnc/aircnc-server/pkg/apperrors"
)

// MaxImageBytes caps a single room photo.
const MaxImageBytes int64 = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ObjectStore is what ImageService needs from a bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Image is the reference a client stores in a room document.
type Image struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ImageService stores room photos under rooms/<host email>/<uuid>.<ext>.
type ImageService struct {
	store  ObjectStore
	expiry time.Duration
}

func NewImageService(store ObjectStore, expiry time.Duration) *ImageService {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &ImageService{store: store, expiry: expiry}
}

// Upload validates and stores one photo for owner and returns a presigned URL to it.
func (s *ImageService) Upload(ctx context.Context, owner, contentType string, r io.Reader, size int64) (Image, error) {
	if s == nil || s.store == nil {
		return Image{}, apperrors.Unavailable("image storage")
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageExt[contentType]
	if !ok {
		return Image{}, apperrors.Validation("unsupported image type")
	}
	if size <= 0 {
		return Image{}, apperrors.Validation("image is empty")
	}
	if size > MaxImageBytes {
		return Image{}, apperrors.Validation(fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
	}

	key := fmt.Sprintf("rooms/%s/%s%s", strings.ToLower(owner), uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, r, size, contentType); err != nil {
		return Image{}, apperrors.Upstream("object storage", err)
	}
	u, err := s.store.PresignedURL(ctx, key, s.expiry)
	if err != nil {
		return Image{}, apperrors.Upstream("object storage", err)
	}
	return Image{Key: key, URL: u}, nil
}
