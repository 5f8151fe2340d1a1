package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/config"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// BlobStore is the subset of the bucket client the upload service needs.
// *gcs.Bucket satisfies it.
type BlobStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, objectName string) error
	ObjectNameFromURL(publicURL string) (string, error)
}

// Kind namespaces uploaded objects.
type Kind string

const (
	KindProduct Kind = "products"
	KindProof   Kind = "proofs"
)

var extensionByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Service validates and stores image uploads: product photos and payment
// slips. Only JPEG, PNG and WebP are accepted, capped by config.
type Service struct {
	store BlobStore
	cfg   config.MediaConfig
	logg  *logger.Logger
}

func NewService(store BlobStore, cfg config.MediaConfig, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("media: blob store is required")
	}
	if logg == nil {
		return nil, errors.New("media: logger is required")
	}
	return &Service{store: store, cfg: cfg, logg: logg}, nil
}

// UploadInput is one raw file upload.
type UploadInput struct {
	Kind        Kind
	ContentType string
	Data        []byte
}

func (s *Service) Upload(ctx context.Context, in UploadInput) (string, error) {
	if in.Kind != KindProduct && in.Kind != KindProof {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown upload kind")
	}
	if len(in.Data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}

	maxBytes := s.maxUploadBytes()
	if int64(len(in.Data)) > maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds %d MB limit", maxBytes/(1<<20)))
	}

	mediaType, err := sniffMimeType(in.ContentType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}
	ext, ok := extensionByMime[mediaType]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "only JPEG, PNG or WebP images are allowed")
	}

	objectName := fmt.Sprintf("%s/%s%s", in.Kind, uuid.NewString(), ext)
	publicURL, err := s.store.Upload(ctx, objectName, mediaType, in.Data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload failed")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"object": objectName,
		"bytes":  len(in.Data),
	}), "file uploaded")
	return publicURL, nil
}

// Remove deletes a previously uploaded file by its public URL.
func (s *Service) Remove(ctx context.Context, publicURL string) error {
	objectName, err := s.store.ObjectNameFromURL(publicURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file url")
	}
	if err := s.store.Delete(ctx, objectName); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete failed")
	}
	s.logg.Info(s.logg.WithField(ctx, "object", objectName), "file deleted")
	return nil
}

func (s *Service) maxUploadBytes() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = 5
	}
	return int64(mb) << 20
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", errors.New("content type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", err
	}
	return strings.ToLower(mediaType), nil
}
