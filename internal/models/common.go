// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key client-side so the schema works on
// both PostgreSQL and SQLite.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type Category string

const (
	CategoryUtility       Category = "Utility"
	CategoryEconomy       Category = "Economy"
	CategoryAdminTools    Category = "Admin Tools"
	CategoryFun           Category = "Fun"
	CategoryGameMechanics Category = "Game Mechanics"
	CategoryAntiGrief     Category = "Anti-Grief"
	CategoryOther         Category = "Other"
)

const DefaultCategory = CategoryOther

var Categories = []Category{
	CategoryUtility,
	CategoryEconomy,
	CategoryAdminTools,
	CategoryFun,
	CategoryGameMechanics,
	CategoryAntiGrief,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
)

// ParseSortKey maps a query value to a sort key, falling back to newest for
// anything unrecognised.
func ParseSortKey(value string) SortKey {
	switch SortKey(value) {
	case SortOldest, SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
		return SortKey(value)
	default:
		return SortNewest
	}
}

// OrderClause returns the ORDER BY expression for the sort key. Every
// ordering ends on a deterministic tie-break.
func (s SortKey) OrderClause() string {
	switch s {
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortPriceAsc:
		return "price ASC, created_at DESC"
	case SortPriceDesc:
		return "price DESC, created_at DESC"
	case SortRating:
		return "average_rating DESC, created_at DESC"
	default:
		return "created_at DESC, id DESC"
	}
}
