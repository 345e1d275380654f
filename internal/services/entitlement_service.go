// internal/services/entitlement_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/storage"
)

// EntitlementService decides who may download a plugin and records purchases.
// Purchases are bookkeeping only; no payment is taken.
type EntitlementService struct {
	db      *gorm.DB
	store   *PluginStore
	storage *StorageService
	metrics *metrics.Metrics
}

// Download is an open artifact ready to be streamed. The caller closes Body.
type Download struct {
	*storage.Object
	Filename string
	PluginID uuid.UUID
	Version  string
	Checksum string
}

type PurchaseSummary struct {
	ID           uuid.UUID     `json:"id"`
	Plugin       PluginSummary `json:"plugin"`
	Price        float64       `json:"price"`
	PurchaseDate time.Time     `json:"purchase_date"`
}

type PluginSummary struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Version       string       `json:"version"`
	Author        *models.User `json:"author,omitempty"`
	Thumbnail     *string      `json:"thumbnail,omitempty"`
	AverageRating float64      `json:"average_rating"`
}

func NewEntitlementService(db *gorm.DB, store *PluginStore, storageService *StorageService, m *metrics.Metrics) *EntitlementService {
	return &EntitlementService{
		db:      db,
		store:   store,
		storage: storageService,
		metrics: m,
	}
}

// CanDownload reports whether userID is the author or has bought the plugin.
func (s *EntitlementService) CanDownload(userID uuid.UUID, plugin *models.Plugin) bool {
	return plugin.IsAuthor(userID) || plugin.HasPurchased(userID)
}

// Download opens the current artifact for an entitled user and counts the
// download.
func (s *EntitlementService) Download(ctx context.Context, userID, id uuid.UUID) (*Download, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.CanDownload(userID, plugin) {
		return nil, ErrNotEntitled
	}

	object, err := s.storage.Open(ctx, plugin.ArtifactKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			logrus.WithFields(logrus.Fields{
				"plugin_id": id,
				"key":       plugin.ArtifactKey,
			}).Warn("Plugin artifact missing from blob store")
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}

	if err := s.store.IncrementDownloads(ctx, id); err != nil {
		logrus.WithError(err).WithField("plugin_id", id).Warn("Failed to record download")
	}
	entitlement := "purchase"
	if plugin.IsAuthor(userID) {
		entitlement = "author"
	}
	s.metrics.Download(entitlement)

	return &Download{
		Object:   object,
		Filename: plugin.DownloadFilename(),
		PluginID: plugin.ID,
		Version:  plugin.Version,
		Checksum: plugin.ArtifactChecksum,
	}, nil
}

// Purchase records a purchase at the current price. A second purchase by
// the same user is rejected with ErrAlreadyPurchased; the unique index on
// (plugin_id, user_id) backs the check if two requests race.
func (s *EntitlementService) Purchase(ctx context.Context, userID, id uuid.UUID) (*models.PluginPurchase, error) {
	var purchase models.PluginPurchase
	_, err := s.store.Mutate(ctx, id, func(tx *gorm.DB, plugin *models.Plugin) error {
		if plugin.HasPurchased(userID) {
			return ErrAlreadyPurchased
		}

		purchase = models.PluginPurchase{
			PluginID:    plugin.ID,
			UserID:      userID,
			Price:       plugin.Price,
			PurchasedAt: time.Now(),
		}
		if err := tx.Create(&purchase).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyPurchased
			}
			return fmt.Errorf("failed to record purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Purchase()
	logrus.WithFields(logrus.Fields{
		"plugin_id": id,
		"user_id":   userID,
		"price":     purchase.Price,
	}).Info("Plugin purchased")

	return &purchase, nil
}

// GetPurchases lists the user's purchases, newest first.
func (s *EntitlementService) GetPurchases(ctx context.Context, userID uuid.UUID) ([]PurchaseSummary, error) {
	var purchases []models.PluginPurchase
	err := s.db.WithContext(ctx).
		Preload("Plugin").
		Preload("Plugin.Author", authorSummary).
		Where("user_id = ?", userID).
		Order("purchased_at DESC, id DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	summaries := make([]PurchaseSummary, 0, len(purchases))
	for _, purchase := range purchases {
		if purchase.Plugin == nil {
			continue
		}
		p := purchase.Plugin
		summaries = append(summaries, PurchaseSummary{
			ID: purchase.ID,
			Plugin: PluginSummary{
				ID:            p.ID,
				Name:          p.Name,
				Description:   p.Description,
				Version:       p.Version,
				Author:        p.Author,
				Thumbnail:     p.ThumbnailKey,
				AverageRating: p.AverageRating,
			},
			Price:        purchase.Price,
			PurchaseDate: purchase.PurchasedAt,
		})
	}
	return summaries, nil
}
