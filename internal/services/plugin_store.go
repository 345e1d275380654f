// internal/services/plugin_store.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

// PluginStore persists the plugin aggregate: the plugins row together with
// its versions, ratings and purchases.
type PluginStore struct {
	db *gorm.DB
}

type PluginQuery struct {
	Category   models.Category
	AuthorID   *uuid.UUID
	Sort       models.SortKey
	Pagination utils.PaginationParams
}

func NewPluginStore(db *gorm.DB) *PluginStore {
	return &PluginStore{db: db}
}

// authorSummary limits the preloaded author to public fields.
func authorSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}

func loadAggregate(tx *gorm.DB, id uuid.UUID) (*models.Plugin, error) {
	var plugin models.Plugin
	err := tx.
		Preload("Author", authorSummary).
		Preload("Versions", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("Ratings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Purchases", func(db *gorm.DB) *gorm.DB { return db.Order("purchased_at ASC, id ASC") }).
		First(&plugin, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPluginNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &plugin, nil
}

// FindByID loads the full aggregate without locking.
func (s *PluginStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Plugin, error) {
	return loadAggregate(s.db.WithContext(ctx), id)
}

func (s *PluginStore) Create(ctx context.Context, plugin *models.Plugin) error {
	// Versions are inserted with the plugin in the same transaction.
	if err := s.db.WithContext(ctx).Create(plugin).Error; err != nil {
		return fmt.Errorf("failed to create plugin: %w", err)
	}
	return nil
}

// List returns plugin summaries (author included, child collections not
// loaded) and the total number of matches before pagination.
func (s *PluginStore) List(ctx context.Context, q PluginQuery) ([]models.Plugin, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Plugin{})
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.AuthorID != nil {
		query = query.Where("author_id = ?", *q.AuthorID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count plugins: %w", err)
	}

	var plugins []models.Plugin
	err := utils.ApplyPagination(query.Preload("Author", authorSummary), q.Pagination).
		Order(q.Sort.OrderClause()).
		Find(&plugins).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list plugins: %w", err)
	}

	return plugins, total, nil
}

// Mutate runs fn inside a transaction holding the plugin row lock. The
// aggregate passed to fn is loaded after the lock is taken, so concurrent
// writers to the same plugin are serialized. fn must use tx for all writes.
func (s *PluginStore) Mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, plugin *models.Plugin) error) (*models.Plugin, error) {
	var result *models.Plugin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Plugin
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPluginNotFound
			}
			return fmt.Errorf("failed to lock plugin: %w", err)
		}

		plugin, err := loadAggregate(tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, plugin); err != nil {
			return err
		}
		result = plugin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deleteAggregate removes the plugin row and every child row.
func deleteAggregate(tx *gorm.DB, id uuid.UUID) error {
	for _, child := range []interface{}{
		&models.PluginVersion{},
		&models.PluginRating{},
		&models.PluginPurchase{},
	} {
		if err := tx.Where("plugin_id = ?", id).Delete(child).Error; err != nil {
			return fmt.Errorf("failed to delete plugin children: %w", err)
		}
	}
	if err := tx.Delete(&models.Plugin{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete plugin: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter without loading the aggregate.
func (s *PluginStore) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.Plugin{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}
