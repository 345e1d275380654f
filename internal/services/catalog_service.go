// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/plugin-marketplace/internal/cache"
	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

const FeaturedLimit = 3

// CatalogService answers read-only catalog queries.
type CatalogService struct {
	store   *PluginStore
	cache   CatalogCache
	metrics *metrics.Metrics
}

type ListPluginsParams struct {
	Category   string
	Sort       string
	Pagination utils.PaginationParams
}

// PluginDetail is a plugin as seen by one viewer. HasPurchased is only set
// when the viewer is authenticated.
type PluginDetail struct {
	*models.Plugin
	HasPurchased *bool `json:"has_purchased,omitempty"`
}

func NewCatalogService(store *PluginStore, catalogCache CatalogCache, m *metrics.Metrics) *CatalogService {
	return &CatalogService{
		store:   store,
		cache:   catalogCache,
		metrics: m,
	}
}

// ListPlugins filters by category and orders by the requested sort key,
// falling back to newest first. An unknown category matches nothing.
func (s *CatalogService) ListPlugins(ctx context.Context, params ListPluginsParams) ([]models.Plugin, int64, error) {
	return s.store.List(ctx, PluginQuery{
		Category:   models.Category(params.Category),
		Sort:       models.ParseSortKey(params.Sort),
		Pagination: params.Pagination,
	})
}

// GetFeatured returns the top rated plugins, newest first among equal
// ratings. Results are served from the catalog cache when one is configured.
func (s *CatalogService) GetFeatured(ctx context.Context) ([]models.Plugin, error) {
	if s.cache != nil {
		plugins, err := s.cache.GetFeatured(ctx)
		switch {
		case err == nil:
			s.metrics.CacheLookup("hit")
			return plugins, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.CacheLookup("miss")
		default:
			s.metrics.CacheLookup("error")
			logrus.WithError(err).Warn("Catalog cache lookup failed")
		}
	}

	plugins, _, err := s.store.List(ctx, PluginQuery{
		Sort:       models.SortRating,
		Pagination: utils.PaginationParams{Page: 1, Limit: FeaturedLimit},
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetFeatured(ctx, plugins); err != nil {
			logrus.WithError(err).Warn("Failed to cache featured plugins")
		}
	}
	return plugins, nil
}

// GetPlugin returns the plugin with its author, versions and ratings. When
// viewerID is set the detail carries whether the viewer owns a purchase.
func (s *CatalogService) GetPlugin(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*PluginDetail, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &PluginDetail{Plugin: plugin}
	if viewerID != nil {
		purchased := plugin.HasPurchased(*viewerID)
		detail.HasPurchased = &purchased
	}
	return detail, nil
}

// GetAuthorPlugins lists the plugins authored by userID, newest first.
func (s *CatalogService) GetAuthorPlugins(ctx context.Context, userID uuid.UUID) ([]models.Plugin, error) {
	plugins, _, err := s.store.List(ctx, PluginQuery{
		AuthorID: &userID,
		Sort:     models.SortNewest,
	})
	return plugins, err
}
