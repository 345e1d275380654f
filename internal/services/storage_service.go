// internal/services/storage_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/storage"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

const jarContentType = "application/java-archive"

type UploadKind string

const (
	UploadArtifact  UploadKind = "artifact"
	UploadThumbnail UploadKind = "thumbnail"
)

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredBlob describes a blob written by SaveUpload.
type StoredBlob struct {
	Key         string `json:"key"`
	Checksum    string `json:"checksum"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type UploadOptions struct {
	Folder  string
	MaxSize int64 // in bytes
}

type StorageService struct {
	blobs   storage.BlobStore
	config  config.StorageConfig
	metrics *metrics.Metrics
}

func NewStorageService(blobs storage.BlobStore, cfg config.StorageConfig, m *metrics.Metrics) *StorageService {
	return &StorageService{
		blobs:   blobs,
		config:  cfg,
		metrics: m,
	}
}

// UploadFromFileHeader adapts a multipart file part to an Upload. The caller
// closes the returned file.
func UploadFromFileHeader(header *multipart.FileHeader) (*Upload, multipart.File, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return &Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

func (s *StorageService) GetDefaultUploadOptions(kind UploadKind) UploadOptions {
	switch kind {
	case UploadThumbnail:
		return UploadOptions{
			Folder:  "thumbnails",
			MaxSize: s.config.MaxThumbnailSize,
		}
	default:
		return UploadOptions{
			Folder:  "plugins",
			MaxSize: s.config.MaxArtifactSize,
		}
	}
}

// ValidateUpload applies the per-kind type and size rules: artifacts must be
// JAR files by extension or content type, thumbnails must declare an image
// content type.
func (s *StorageService) ValidateUpload(kind UploadKind, upload *Upload) error {
	options := s.GetDefaultUploadOptions(kind)

	if options.MaxSize > 0 && upload.Size > options.MaxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum allowed size %d bytes", ErrFileTooLarge, upload.Size, options.MaxSize)
	}

	contentType := mediaType(upload.ContentType)
	switch kind {
	case UploadArtifact:
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		if ext != ".jar" && contentType != jarContentType {
			return fmt.Errorf("%w: only JAR files are allowed", ErrInvalidFileType)
		}
	case UploadThumbnail:
		if !strings.HasPrefix(contentType, "image/") {
			return fmt.Errorf("%w: only image files are allowed", ErrInvalidFileType)
		}
	}
	return nil
}

// SaveUpload validates and stores the upload under a fresh key, computing
// its sha256 checksum while streaming.
func (s *StorageService) SaveUpload(ctx context.Context, kind UploadKind, upload *Upload) (*StoredBlob, error) {
	if err := s.ValidateUpload(kind, upload); err != nil {
		return nil, err
	}

	options := s.GetDefaultUploadOptions(kind)
	key := s.generateFileName(kind, upload.Filename, options.Folder)
	contentType := mediaType(upload.ContentType)
	if kind == UploadArtifact {
		contentType = jarContentType
	}

	body := upload.Body
	if options.MaxSize > 0 {
		// Declared sizes can lie; never store more than one byte past the limit.
		body = io.LimitReader(body, options.MaxSize+1)
	}
	hashing := utils.NewHashingReader(body)

	if err := s.blobs.Put(ctx, key, hashing, upload.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", kind, err)
	}

	if options.MaxSize > 0 && hashing.BytesRead() > options.MaxSize {
		s.DeleteBlobs(ctx, logrus.Fields{"reason": "oversized upload"}, key)
		return nil, fmt.Errorf("%w: exceeds maximum allowed size %d bytes", ErrFileTooLarge, options.MaxSize)
	}

	return &StoredBlob{
		Key:         key,
		Checksum:    hashing.Sum(),
		Size:        hashing.BytesRead(),
		ContentType: contentType,
	}, nil
}

// Open resolves a key to a readable blob. Missing blobs yield storage.ErrNotFound.
func (s *StorageService) Open(ctx context.Context, key string) (*storage.Object, error) {
	return s.blobs.Open(ctx, key)
}

// DeleteBlobs removes each key independently. Failures are logged and
// counted but never returned; a missing blob counts as deleted.
func (s *StorageService) DeleteBlobs(ctx context.Context, fields logrus.Fields, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.metrics.BlobCleanupFailed()
			logrus.WithFields(fields).WithField("key", key).WithError(err).Warn("Failed to delete blob")
		}
	}
}

func (s *StorageService) generateFileName(kind UploadKind, originalName, folder string) string {
	// Generate UUID for uniqueness
	id := uuid.New()

	ext := strings.ToLower(filepath.Ext(originalName))
	if kind == UploadArtifact {
		ext = ".jar"
	}
	if !safeExtension(ext) {
		ext = ""
	}

	// Create filename with timestamp and UUID
	timestamp := time.Now().UTC().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String(), ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func safeExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 10 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// mediaType strips parameters such as charset from a Content-Type value.
// Unparseable values yield "".
func mediaType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return ""
	}
	return parsed
}
