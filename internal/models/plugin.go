// internal/models/plugin.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const InitialChangelog = "Initial release"

// Plugin is the catalog aggregate. Versions, ratings and purchases are owned
// child rows and are always loaded and mutated together with the plugin.
type Plugin struct {
	BaseModel
	AuthorID         uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Name             string    `json:"name" gorm:"size:255;not null"`
	Description      string    `json:"description" gorm:"type:text;not null"`
	Price            float64   `json:"price" gorm:"type:decimal(10,2);not null;default:0;index"`
	Category         Category  `json:"category" gorm:"type:varchar(32);not null;default:'Other';index"`
	Version          string    `json:"version" gorm:"size:64;not null"`
	ArtifactKey      string    `json:"-" gorm:"size:512;not null"`
	ArtifactChecksum string    `json:"artifact_checksum" gorm:"size:64"`
	ThumbnailKey     *string   `json:"thumbnail,omitempty" gorm:"size:512"`
	AverageRating    float64   `json:"average_rating" gorm:"not null;default:0;index"`
	RatingCount      int64     `json:"rating_count" gorm:"not null;default:0"`
	DownloadCount    int64     `json:"download_count" gorm:"not null;default:0"`

	// Relationships
	Author    *User            `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Versions  []PluginVersion  `json:"versions,omitempty" gorm:"foreignKey:PluginID"`
	Ratings   []PluginRating   `json:"ratings,omitempty" gorm:"foreignKey:PluginID"`
	Purchases []PluginPurchase `json:"-" gorm:"foreignKey:PluginID"`
}

// PluginVersion is an immutable release record. Sequence gives the append
// order; rows are never updated or removed except with the whole plugin.
type PluginVersion struct {
	BaseModel
	PluginID    uuid.UUID `json:"plugin_id" gorm:"type:uuid;not null;uniqueIndex:idx_plugin_versions_sequence"`
	Sequence    int       `json:"sequence" gorm:"not null;uniqueIndex:idx_plugin_versions_sequence"`
	Version     string    `json:"version" gorm:"size:64;not null"`
	Changelog   string    `json:"changelog" gorm:"type:text"`
	ArtifactKey string    `json:"-" gorm:"size:512;not null"`
	Checksum    string    `json:"checksum" gorm:"size:64"`
	SizeBytes   int64     `json:"size_bytes"`
	ReleasedAt  time.Time `json:"released_at" gorm:"not null"`
}

type PluginRating struct {
	BaseModel
	PluginID uuid.UUID `json:"plugin_id" gorm:"type:uuid;not null;uniqueIndex:idx_plugin_ratings_user"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_plugin_ratings_user"`
	Rating   int       `json:"rating" gorm:"not null"`
	Comment  *string   `json:"comment,omitempty" gorm:"type:text"`
}

// PluginPurchase records a purchase. Price is the plugin price at the time
// of purchase and never changes afterwards.
type PluginPurchase struct {
	BaseModel
	PluginID    uuid.UUID `json:"plugin_id" gorm:"type:uuid;not null;uniqueIndex:idx_plugin_purchases_user"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_plugin_purchases_user;index"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	PurchasedAt time.Time `json:"purchase_date" gorm:"not null"`

	// Relationships
	Plugin *Plugin `json:"plugin,omitempty" gorm:"foreignKey:PluginID"`
}

func (p *Plugin) IsAuthor(userID uuid.UUID) bool {
	return p.AuthorID == userID
}

func (p *Plugin) HasPurchased(userID uuid.UUID) bool {
	return p.FindPurchase(userID) != nil
}

func (p *Plugin) FindPurchase(userID uuid.UUID) *PluginPurchase {
	for i := range p.Purchases {
		if p.Purchases[i].UserID == userID {
			return &p.Purchases[i]
		}
	}
	return nil
}

func (p *Plugin) FindRating(userID uuid.UUID) *PluginRating {
	for i := range p.Ratings {
		if p.Ratings[i].UserID == userID {
			return &p.Ratings[i]
		}
	}
	return nil
}

// NextSequence returns the sequence number for the next appended version.
func (p *Plugin) NextSequence() int {
	next := 1
	for _, v := range p.Versions {
		if v.Sequence >= next {
			next = v.Sequence + 1
		}
	}
	return next
}

// BlobKeys lists every blob the plugin references, without duplicates: the
// current artifact, the thumbnail and each version artifact.
func (p *Plugin) BlobKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(key string) {
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	add(p.ArtifactKey)
	if p.ThumbnailKey != nil {
		add(*p.ThumbnailKey)
	}
	for _, v := range p.Versions {
		add(v.ArtifactKey)
	}
	return keys
}

// DownloadFilename is the suggested attachment name for the current artifact.
func (p *Plugin) DownloadFilename() string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return -1
		}
		return r
	}, strings.TrimSpace(p.Name))
	if name == "" {
		name = "plugin"
	}
	return name + ".jar"
}

// AverageRating is the arithmetic mean of the scores, or 0 when there are none.
func AverageRating(ratings []PluginRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range ratings {
		total += r.Rating
	}
	return float64(total) / float64(len(ratings))
}
