// internal/services/rating_service.go
package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/models"
)

type RatingService struct {
	store   *PluginStore
	cache   CatalogCache
	metrics *metrics.Metrics
}

type RatePluginRequest struct {
	Rating  float64 `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

// UserRating is a user's rating of a plugin. Rating 0 means the user has
// not rated it.
type UserRating struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment,omitempty"`
}

func NewRatingService(store *PluginStore, cache CatalogCache, m *metrics.Metrics) *RatingService {
	return &RatingService{
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

func validScore(score float64) (int, bool) {
	if score != math.Trunc(score) || score < 1 || score > 5 {
		return 0, false
	}
	return int(score), true
}

// RatePlugin inserts or replaces the user's rating and recomputes the
// plugin average before commit. An omitted comment keeps the previous one.
func (s *RatingService) RatePlugin(ctx context.Context, userID, id uuid.UUID, req *RatePluginRequest) (*models.Plugin, error) {
	score, ok := validScore(req.Rating)
	if !ok {
		return nil, ErrInvalidRating
	}

	kind := "new"
	plugin, err := s.store.Mutate(ctx, id, func(tx *gorm.DB, plugin *models.Plugin) error {
		if existing := plugin.FindRating(userID); existing != nil {
			kind = "update"
			existing.Rating = score
			if req.Comment != nil {
				existing.Comment = req.Comment
			}
			err := tx.Model(existing).Select("rating", "comment", "updated_at").Updates(existing).Error
			if err != nil {
				return fmt.Errorf("failed to update rating: %w", err)
			}
		} else {
			rating := models.PluginRating{
				PluginID: plugin.ID,
				UserID:   userID,
				Rating:   score,
				Comment:  req.Comment,
			}
			if err := tx.Create(&rating).Error; err != nil {
				return fmt.Errorf("failed to add rating: %w", err)
			}
			plugin.Ratings = append(plugin.Ratings, rating)
		}

		plugin.AverageRating = models.AverageRating(plugin.Ratings)
		plugin.RatingCount = int64(len(plugin.Ratings))
		err := tx.Model(plugin).Select("average_rating", "rating_count").Updates(plugin).Error
		if err != nil {
			return fmt.Errorf("failed to update rating aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Rating(kind)
	invalidateCatalog(ctx, s.cache, id)

	return plugin, nil
}

// GetUserRating returns the user's rating, or a zero rating when the user
// has not rated the plugin.
func (s *RatingService) GetUserRating(ctx context.Context, userID, id uuid.UUID) (*UserRating, error) {
	plugin, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rating := plugin.FindRating(userID)
	if rating == nil {
		return &UserRating{Rating: 0}, nil
	}
	return &UserRating{
		Rating:  rating.Rating,
		Comment: rating.Comment,
	}, nil
}
