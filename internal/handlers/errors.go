// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/plugin-marketplace/internal/i18n"
	"github.com/javajoker/plugin-marketplace/internal/services"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

// invalidArgumentKeys localizes the known caller-input errors. Anything
// else wrapping services.ErrInvalidArgument is reported with its own text.
var invalidArgumentKeys = []struct {
	err error
	key string
}{
	{services.ErrInvalidRating, i18n.KeyPluginInvalidRating},
	{services.ErrArtifactRequired, i18n.KeyPluginJarRequired},
	{services.ErrVersionRequired, i18n.KeyPluginVersionRequired},
	{services.ErrInvalidCategory, i18n.KeyPluginInvalidCategory},
	{services.ErrVersionNotNewer, i18n.KeyPluginVersionNotNewer},
	{services.ErrInvalidFileType, i18n.KeyFileInvalidType},
	{services.ErrFileTooLarge, i18n.KeyFileTooLarge},
	{services.ErrCurrentPasswordRequired, i18n.KeyUserPasswordRequired},
}

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrPluginNotFound):
		utils.NotFoundResponse(c, i18n.KeyPluginNotFound)
	case errors.Is(err, services.ErrArtifactNotFound):
		utils.NotFoundResponse(c, i18n.KeyPluginFileNotFound)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, i18n.KeyUserNotFound)
	case errors.Is(err, services.ErrNotPluginAuthor):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPluginNotAuthor))
	case errors.Is(err, services.ErrNotEntitled):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPluginNotEntitled))
	case errors.Is(err, services.ErrAlreadyPurchased):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPluginAlreadyPurchased))
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAuthUserExists))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrCurrentPasswordIncorrect):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUserPasswordIncorrect), nil)
	case errors.Is(err, services.ErrInvalidArgument):
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.BadRequestResponse(c, invalidArgumentMessage(lang, err), nil)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		_ = c.Error(err)
		utils.InternalErrorResponse(c, "")
	}
}

func invalidArgumentMessage(lang string, err error) string {
	for _, known := range invalidArgumentKeys {
		if errors.Is(err, known.err) {
			return i18n.T(lang, known.key)
		}
	}
	return err.Error()
}

// parseIDParam reads a UUID path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated principal, answering 401 if absent.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}
