// internal/services/plugin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/storage"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

// PluginService manages the plugin lifecycle: creation, metadata edits,
// version appends and deletion.
type PluginService struct {
	store   *PluginStore
	storage *StorageService
	cache   CatalogCache
	metrics *metrics.Metrics
}

type CreatePluginRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"required,notblank"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Version     string   `json:"version" validate:"required,version_label"`
	Category    string   `json:"category"`
}

// UpdatePluginRequest is a patch: nil fields are left unchanged and non-nil
// fields replace the stored value. Name and description may not be blank; a
// blank category counts as unset.
type UpdatePluginRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,notblank"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Version     *string  `json:"version,omitempty" validate:"omitempty,version_label"`
	Category    *string  `json:"category,omitempty"`
	Changelog   *string  `json:"changelog,omitempty"`
}

func NewPluginService(store *PluginStore, storageService *StorageService, cache CatalogCache, m *metrics.Metrics) *PluginService {
	return &PluginService{
		store:   store,
		storage: storageService,
		cache:   cache,
		metrics: m,
	}
}

func parseCategory(value string) (models.Category, error) {
	if strings.TrimSpace(value) == "" {
		return models.DefaultCategory, nil
	}
	category := models.Category(value)
	if !category.Valid() {
		return "", ErrInvalidCategory
	}
	return category, nil
}

// CreatePlugin stores the uploads and creates the plugin with its seed
// version. Uploaded blobs are removed again if the plugin cannot be saved.
func (s *PluginService) CreatePlugin(ctx context.Context, authorID uuid.UUID, req *CreatePluginRequest, artifact, thumbnail *Upload) (*models.Plugin, error) {
	if artifact == nil {
		return nil, ErrArtifactRequired
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Version = strings.TrimSpace(req.Version)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	category, err := parseCategory(req.Category)
	if err != nil {
		return nil, err
	}

	// Reject bad files before anything is written.
	if err := s.storage.ValidateUpload(UploadArtifact, artifact); err != nil {
		return nil, err
	}
	if thumbnail != nil {
		if err := s.storage.ValidateUpload(UploadThumbnail, thumbnail); err != nil {
			return nil, err
		}
	}

	stored, err := s.storage.SaveUpload(ctx, UploadArtifact, artifact)
	if err != nil {
		return nil, err
	}
	fresh := []string{stored.Key}

	var thumbnailKey *string
	if thumbnail != nil {
		thumb, err := s.storage.SaveUpload(ctx, UploadThumbnail, thumbnail)
		if err != nil {
			s.discardUploads(ctx, uuid.Nil, fresh)
			return nil, err
		}
		thumbnailKey = &thumb.Key
		fresh = append(fresh, thumb.Key)
	}

	now := time.Now()
	plugin := &models.Plugin{
		AuthorID:         authorID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            *req.Price,
		Category:         category,
		Version:          req.Version,
		ArtifactKey:      stored.Key,
		ArtifactChecksum: stored.Checksum,
		ThumbnailKey:     thumbnailKey,
		Versions: []models.PluginVersion{{
			Sequence:    1,
			Version:     req.Version,
			Changelog:   models.InitialChangelog,
			ArtifactKey: stored.Key,
			Checksum:    stored.Checksum,
			SizeBytes:   stored.Size,
			ReleasedAt:  now,
		}},
	}

	if err := s.store.Create(ctx, plugin); err != nil {
		s.discardUploads(ctx, plugin.ID, fresh)
		return nil, err
	}

	s.metrics.PluginCreated()
	invalidateCatalog(ctx, s.cache, plugin.ID)

	logrus.WithFields(logrus.Fields{
		"plugin_id": plugin.ID,
		"author_id": authorID,
		"version":   plugin.Version,
	}).Info("Plugin created")

	return s.store.FindByID(ctx, plugin.ID)
}

// UpdatePlugin applies the patch, appends a version when a new artifact is
// supplied and swaps the thumbnail. The replaced thumbnail blob is deleted
// after commit; earlier artifacts stay referenced by their versions.
func (s *PluginService) UpdatePlugin(ctx context.Context, authorID, id uuid.UUID, req *UpdatePluginRequest, artifact, thumbnail *Upload) (*models.Plugin, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Version != nil {
		version := strings.TrimSpace(*req.Version)
		req.Version = &version
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	var category *models.Category
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		parsed, err := parseCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		category = &parsed
	}

	if artifact != nil && (req.Version == nil || strings.TrimSpace(*req.Version) == "") {
		return nil, ErrVersionRequired
	}

	// Authorize before storing anything; the check is repeated under the lock.
	if _, err := s.authorize(ctx, authorID, id); err != nil {
		return nil, err
	}

	if artifact != nil {
		if err := s.storage.ValidateUpload(UploadArtifact, artifact); err != nil {
			return nil, err
		}
	}
	if thumbnail != nil {
		if err := s.storage.ValidateUpload(UploadThumbnail, thumbnail); err != nil {
			return nil, err
		}
	}

	var fresh []string
	var newArtifact, newThumbnail *StoredBlob
	if artifact != nil {
		stored, err := s.storage.SaveUpload(ctx, UploadArtifact, artifact)
		if err != nil {
			return nil, err
		}
		newArtifact = stored
		fresh = append(fresh, stored.Key)
	}
	if thumbnail != nil {
		stored, err := s.storage.SaveUpload(ctx, UploadThumbnail, thumbnail)
		if err != nil {
			s.discardUploads(ctx, id, fresh)
			return nil, err
		}
		newThumbnail = stored
		fresh = append(fresh, stored.Key)
	}

	var replacedThumbnail string
	_, err := s.store.Mutate(ctx, id, func(tx *gorm.DB, plugin *models.Plugin) error {
		if !plugin.IsAuthor(authorID) {
			return ErrNotPluginAuthor
		}
		// A new artifact must move a semantic version forward.
		if newArtifact != nil {
			if cmp, ok := utils.CompareVersionLabels(*req.Version, plugin.Version); ok && cmp <= 0 {
				return ErrVersionNotNewer
			}
		}

		if req.Name != nil {
			plugin.Name = *req.Name
		}
		if req.Description != nil {
			plugin.Description = *req.Description
		}
		if req.Price != nil {
			plugin.Price = *req.Price
		}
		if req.Version != nil {
			plugin.Version = *req.Version
		}
		if category != nil {
			plugin.Category = *category
		}

		if newArtifact != nil {
			changelog := fmt.Sprintf("Updated to version %s", plugin.Version)
			if req.Changelog != nil && strings.TrimSpace(*req.Changelog) != "" {
				changelog = *req.Changelog
			}
			version := models.PluginVersion{
				PluginID:    plugin.ID,
				Sequence:    plugin.NextSequence(),
				Version:     plugin.Version,
				Changelog:   changelog,
				ArtifactKey: newArtifact.Key,
				Checksum:    newArtifact.Checksum,
				SizeBytes:   newArtifact.Size,
				ReleasedAt:  time.Now(),
			}
			if err := tx.Create(&version).Error; err != nil {
				return fmt.Errorf("failed to append version: %w", err)
			}
			plugin.ArtifactKey = newArtifact.Key
			plugin.ArtifactChecksum = newArtifact.Checksum
		}

		if newThumbnail != nil {
			if plugin.ThumbnailKey != nil {
				replacedThumbnail = *plugin.ThumbnailKey
			}
			plugin.ThumbnailKey = &newThumbnail.Key
		}

		err := tx.Model(plugin).Select(
			"name", "description", "price", "version", "category",
			"artifact_key", "artifact_checksum", "thumbnail_key", "updated_at",
		).Updates(plugin).Error
		if err != nil {
			return fmt.Errorf("failed to update plugin: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discardUploads(ctx, id, fresh)
		return nil, err
	}

	if replacedThumbnail != "" {
		s.storage.DeleteBlobs(ctx, logrus.Fields{"plugin_id": id}, replacedThumbnail)
	}
	if newArtifact != nil {
		s.metrics.VersionAppended()
	}
	invalidateCatalog(ctx, s.cache, id)

	return s.store.FindByID(ctx, id)
}

// DeletePlugin removes the plugin and its child rows in one transaction,
// then deletes every referenced blob best-effort.
func (s *PluginService) DeletePlugin(ctx context.Context, authorID, id uuid.UUID) error {
	deleted, err := s.store.Mutate(ctx, id, func(tx *gorm.DB, plugin *models.Plugin) error {
		if !plugin.IsAuthor(authorID) {
			return ErrNotPluginAuthor
		}
		return deleteAggregate(tx, plugin.ID)
	})
	if err != nil {
		return err
	}

	s.storage.DeleteBlobs(ctx, logrus.Fields{"plugin_id": id}, deleted.BlobKeys()...)
	s.metrics.PluginDeleted()
	invalidateCatalog(ctx, s.cache, id)

	logrus.WithFields(logrus.Fields{
		"plugin_id": id,
		"author_id": authorID,
	}).Info("Plugin deleted")

	return nil
}

// GetVersions returns the version history, oldest first.
func (s *PluginService) GetVersions(ctx context.Context, id uuid.UUID) ([]models.PluginVersion, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return plugin.Versions, nil
}

// OpenThumbnail opens the plugin thumbnail for public display.
func (s *PluginService) OpenThumbnail(ctx context.Context, id uuid.UUID) (*storage.Object, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plugin.ThumbnailKey == nil {
		return nil, ErrArtifactNotFound
	}

	object, err := s.storage.Open(ctx, *plugin.ThumbnailKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return object, nil
}

func (s *PluginService) authorize(ctx context.Context, userID, id uuid.UUID) (*models.Plugin, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plugin.IsAuthor(userID) {
		return nil, ErrNotPluginAuthor
	}
	return plugin, nil
}

// discardUploads removes blobs stored for a request that did not commit.
func (s *PluginService) discardUploads(ctx context.Context, pluginID uuid.UUID, keys []string) {
	s.storage.DeleteBlobs(ctx, logrus.Fields{"plugin_id": pluginID, "reason": "rollback"}, keys...)
}
