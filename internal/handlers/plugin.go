// internal/handlers/plugin.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/plugin-marketplace/internal/i18n"
	"github.com/javajoker/plugin-marketplace/internal/services"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

const (
	artifactField  = "jarFile"
	thumbnailField = "thumbnail"

	// multipartMemory is how much of a multipart body is held in memory
	// before parts spill to temp files.
	multipartMemory = 8 << 20

	artifactContentType = "application/java-archive"
)

type PluginHandler struct {
	pluginService      *services.PluginService
	catalogService     *services.CatalogService
	entitlementService *services.EntitlementService
	ratingService      *services.RatingService
	maxUploadBytes     int64
}

// NewPluginHandler builds the plugin routes' handler. maxUploadBytes caps a
// whole multipart request body; 0 disables the cap.
func NewPluginHandler(
	pluginService *services.PluginService,
	catalogService *services.CatalogService,
	entitlementService *services.EntitlementService,
	ratingService *services.RatingService,
	maxUploadBytes int64,
) *PluginHandler {
	return &PluginHandler{
		pluginService:      pluginService,
		catalogService:     catalogService,
		entitlementService: entitlementService,
		ratingService:      ratingService,
		maxUploadBytes:     maxUploadBytes,
	}
}

// GET /api/plugins
func (h *PluginHandler) GetPlugins(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	plugins, total, err := h.catalogService.ListPlugins(c.Request.Context(), services.ListPluginsParams{
		Category:   c.Query("category"),
		Sort:       c.Query("sort"),
		Pagination: params,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(plugins, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/plugins/featured
func (h *PluginHandler) GetFeaturedPlugins(c *gin.Context) {
	plugins, err := h.catalogService.GetFeatured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, plugins)
}

// GET /api/plugins/my-plugins
func (h *PluginHandler) GetMyPlugins(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	plugins, err := h.catalogService.GetAuthorPlugins(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, plugins)
}

// GET /api/plugins/:id
func (h *PluginHandler) GetPlugin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var viewerID *uuid.UUID
	if userID, authenticated := utils.GetUserUUIDFromContext(c); authenticated {
		viewerID = &userID
	}

	detail, err := h.catalogService.GetPlugin(c.Request.Context(), id, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, detail)
}

// GET /api/plugins/:id/versions
func (h *PluginHandler) GetPluginVersions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	versions, err := h.pluginService.GetVersions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, versions)
}

// POST /api/plugins
func (h *PluginHandler) CreatePlugin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authorID, ok := currentUser(c)
	if !ok {
		return
	}

	if !h.parseForm(c) {
		return
	}

	req := services.CreatePluginRequest{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Version:     strings.TrimSpace(c.PostForm("version")),
		Category:    c.PostForm("category"),
	}
	price, ok := formPrice(c)
	if !ok {
		return
	}
	req.Price = price

	artifact, thumbnail, closeFiles, ok := formUploads(c)
	if !ok {
		return
	}
	defer closeFiles()

	plugin, err := h.pluginService.CreatePlugin(c.Request.Context(), authorID, &req, artifact, thumbnail)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPluginCreated),
		"plugin":  plugin,
	})
}

// PUT /api/plugins/:id
func (h *PluginHandler) UpdatePlugin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if !h.parseForm(c) {
		return
	}

	// Only fields present in the form are changed.
	var req services.UpdatePluginRequest
	req.Name = optionalFormValue(c, "name")
	req.Description = optionalFormValue(c, "description")
	req.Category = optionalFormValue(c, "category")
	req.Changelog = optionalFormValue(c, "changelog")
	if version := optionalFormValue(c, "version"); version != nil {
		trimmed := strings.TrimSpace(*version)
		if trimmed != "" {
			req.Version = &trimmed
		}
	}
	price, ok := formPrice(c)
	if !ok {
		return
	}
	req.Price = price

	artifact, thumbnail, closeFiles, ok := formUploads(c)
	if !ok {
		return
	}
	defer closeFiles()

	plugin, err := h.pluginService.UpdatePlugin(c.Request.Context(), authorID, id, &req, artifact, thumbnail)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPluginUpdated),
		"plugin":  plugin,
	})
}

// DELETE /api/plugins/:id
func (h *PluginHandler) DeletePlugin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	authorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.pluginService.DeletePlugin(c.Request.Context(), authorID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPluginDeleted),
	})
}

// POST /api/plugins/:id/rate
func (h *PluginHandler) RatePlugin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RatePluginRequest
	if !bindJSON(c, &req) {
		return
	}

	plugin, err := h.ratingService.RatePlugin(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPluginRated),
		"plugin":  plugin,
	})
}

// GET /api/plugins/:id/rating
func (h *PluginHandler) GetUserRating(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rating, err := h.ratingService.GetUserRating(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, rating)
}

// POST /api/plugins/:id/purchase
func (h *PluginHandler) PurchasePlugin(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := h.entitlementService.Purchase(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyPluginPurchased),
		"purchase": purchase,
	})
}

// GET /api/plugins/:id/download
func (h *PluginHandler) DownloadPlugin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	download, err := h.entitlementService.Download(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer download.Body.Close()

	// Artifacts are always JARs whatever the blob store reports.
	c.DataFromReader(http.StatusOK, contentLength(download.Size), artifactContentType, download.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, download.Filename),
		"X-Plugin-Version":    download.Version,
		"X-Checksum-Sha256":   download.Checksum,
	})
}

// GET /api/plugins/:id/thumbnail
func (h *PluginHandler) GetThumbnail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	object, err := h.pluginService.OpenThumbnail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer object.Body.Close()

	contentType := object.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, contentLength(object.Size), contentType, object.Body, map[string]string{
		"Cache-Control": "public, max-age=300",
	})
}

// parseForm parses a multipart or urlencoded body under the upload cap.
func (h *PluginHandler) parseForm(c *gin.Context) bool {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	err := c.Request.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, services.ErrFileTooLarge)
		return false
	}
	lang := utils.GetLangFromContext(c)
	utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "form"), err.Error())
	return false
}

func optionalFormValue(c *gin.Context, key string) *string {
	value, exists := c.GetPostForm(key)
	if !exists {
		return nil
	}
	return &value
}

// formPrice reads the optional price field, answering 400 when it is not a
// number. An empty value counts as absent.
func formPrice(c *gin.Context) (*float64, bool) {
	raw := optionalFormValue(c, "price")
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "price"), nil)
		return nil, false
	}
	return &price, true
}

// formUploads opens the optional artifact and thumbnail parts. The returned
// func closes whatever was opened.
func formUploads(c *gin.Context) (artifact, thumbnail *services.Upload, closeFiles func(), ok bool) {
	var closers []func() error
	closeFiles = func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}

	open := func(field string) (*services.Upload, error) {
		if c.Request.MultipartForm == nil {
			return nil, nil
		}
		headers := c.Request.MultipartForm.File[field]
		if len(headers) == 0 {
			return nil, nil
		}
		upload, file, err := services.UploadFromFileHeader(headers[0])
		if err != nil {
			return nil, err
		}
		closers = append(closers, file.Close)
		return upload, nil
	}

	var err error
	if artifact, err = open(artifactField); err == nil {
		thumbnail, err = open(thumbnailField)
	}
	if err != nil {
		closeFiles()
		respondError(c, err)
		return nil, nil, func() {}, false
	}
	return artifact, thumbnail, closeFiles, true
}

func contentLength(size int64) int64 {
	if size <= 0 {
		return -1
	}
	return size
}
