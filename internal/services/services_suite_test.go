package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/database"
	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/storage"
)

// serviceTestSuite wires every service against a private in-memory SQLite
// database and a temp-dir blob store. Each test gets fresh state.
type serviceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	cfg     *config.Config
	blobs   *storage.LocalBlobStore
	metrics *metrics.Metrics

	store        *PluginStore
	storage      *StorageService
	plugins      *PluginService
	entitlements *EntitlementService
	ratings      *RatingService
	catalog      *CatalogService
	auth         *AuthService
	users        *UserService
}

func (suite *serviceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.cfg = &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			LogLevel:     "silent",
		},
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Storage: config.StorageConfig{
			Driver:           "local",
			LocalPath:        suite.T().TempDir(),
			MaxArtifactSize:  1024,
			MaxThumbnailSize: 64,
		},
	}

	db, err := database.Initialize(suite.cfg.Database)
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(db))
	suite.db = db

	blobs, err := storage.NewLocalBlobStore(suite.cfg.Storage.LocalPath)
	suite.Require().NoError(err)
	suite.blobs = blobs

	suite.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	suite.wire(nil)
}

// wire (re)builds the services, optionally with a catalog cache.
func (suite *serviceTestSuite) wire(catalogCache CatalogCache) {
	suite.store = NewPluginStore(suite.db)
	suite.storage = NewStorageService(suite.blobs, suite.cfg.Storage, suite.metrics)
	suite.plugins = NewPluginService(suite.store, suite.storage, catalogCache, suite.metrics)
	suite.entitlements = NewEntitlementService(suite.db, suite.store, suite.storage, suite.metrics)
	suite.ratings = NewRatingService(suite.store, catalogCache, suite.metrics)
	suite.catalog = NewCatalogService(suite.store, catalogCache, suite.metrics)
	suite.auth = NewAuthService(suite.db, suite.cfg)
	suite.users = NewUserService(suite.db)
}

func (suite *serviceTestSuite) TearDownTest() {
	database.Close(suite.db)
}

func (suite *serviceTestSuite) createUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func jarUpload(content string) *Upload {
	return &Upload{
		Filename:    "plugin.jar",
		ContentType: "application/java-archive",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func pngUpload(content string) *Upload {
	return &Upload{
		Filename:    "icon.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func price(v float64) *float64 {
	return &v
}

func str(v string) *string {
	return &v
}

func (suite *serviceTestSuite) createPlugin(author *models.User, name string, cost float64) *models.Plugin {
	plugin, err := suite.plugins.CreatePlugin(suite.ctx, author.ID, &CreatePluginRequest{
		Name:        name,
		Description: name + " description",
		Price:       price(cost),
		Version:     "1.0.0",
	}, jarUpload("jar:"+name), nil)
	suite.Require().NoError(err)
	return plugin
}

func (suite *serviceTestSuite) blobExists(key string) bool {
	exists, err := suite.blobs.Exists(suite.ctx, key)
	suite.Require().NoError(err)
	return exists
}

func (suite *serviceTestSuite) reload(id uuid.UUID) *models.Plugin {
	plugin, err := suite.store.FindByID(suite.ctx, id)
	suite.Require().NoError(err)
	return plugin
}
