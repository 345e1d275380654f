package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 5.0, AverageRating([]PluginRating{{Rating: 5}}))
	assert.InDelta(t, 3.5, AverageRating([]PluginRating{{Rating: 3}, {Rating: 4}}), 1e-9)
	assert.InDelta(t, 2.0, AverageRating([]PluginRating{{Rating: 1}, {Rating: 2}, {Rating: 3}}), 1e-9)
}

func TestPluginEntitlementLookups(t *testing.T) {
	author := uuid.New()
	buyer := uuid.New()
	stranger := uuid.New()

	p := &Plugin{
		AuthorID:  author,
		Purchases: []PluginPurchase{{UserID: buyer, Price: 10}},
		Ratings:   []PluginRating{{UserID: stranger, Rating: 4}},
	}

	assert.True(t, p.IsAuthor(author))
	assert.False(t, p.IsAuthor(buyer))
	assert.True(t, p.HasPurchased(buyer))
	assert.False(t, p.HasPurchased(author))
	assert.Equal(t, 10.0, p.FindPurchase(buyer).Price)
	assert.Nil(t, p.FindRating(buyer))
	assert.Equal(t, 4, p.FindRating(stranger).Rating)
}

func TestNextSequence(t *testing.T) {
	p := &Plugin{}
	assert.Equal(t, 1, p.NextSequence())

	p.Versions = []PluginVersion{{Sequence: 1}, {Sequence: 2}}
	assert.Equal(t, 3, p.NextSequence())
}

func TestBlobKeysDeduplicates(t *testing.T) {
	thumb := "thumbnails/a.png"
	p := &Plugin{
		ArtifactKey:  "plugins/v2.jar",
		ThumbnailKey: &thumb,
		Versions: []PluginVersion{
			{ArtifactKey: "plugins/v1.jar"},
			{ArtifactKey: "plugins/v2.jar"},
		},
	}

	assert.Equal(t, []string{"plugins/v2.jar", "thumbnails/a.png", "plugins/v1.jar"}, p.BlobKeys())
}

func TestDownloadFilename(t *testing.T) {
	assert.Equal(t, "WorldEdit.jar", (&Plugin{Name: "WorldEdit"}).DownloadFilename())
	assert.Equal(t, "Bad name.jar", (&Plugin{Name: " Bad\" name\n"}).DownloadFilename())
	assert.Equal(t, "plugin.jar", (&Plugin{Name: "  "}).DownloadFilename())
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSortKey(""))
	assert.Equal(t, SortNewest, ParseSortKey("popular"))
	assert.Equal(t, SortPriceAsc, ParseSortKey("price_asc"))
	assert.Equal(t, SortRating, ParseSortKey("rating"))
	assert.Equal(t, "average_rating DESC, created_at DESC", SortRating.OrderClause())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, Category("Admin Tools").Valid())
	assert.True(t, DefaultCategory.Valid())
	assert.False(t, Category("Cheats").Valid())
	assert.False(t, Category("").Valid())
}
