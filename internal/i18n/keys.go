// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthLoginSuccess       = "auth.login_success"

	// User Management
	KeyUserProfileUpdated    = "user.profile_updated"
	KeyUserNotFound          = "user.not_found"
	KeyUserPasswordRequired  = "user.current_password_required"
	KeyUserPasswordIncorrect = "user.current_password_incorrect"

	// Plugins
	KeyPluginCreated          = "plugin.created"
	KeyPluginUpdated          = "plugin.updated"
	KeyPluginDeleted          = "plugin.deleted"
	KeyPluginNotFound         = "plugin.not_found"
	KeyPluginNotAuthor        = "plugin.not_author"
	KeyPluginPurchased        = "plugin.purchased"
	KeyPluginAlreadyPurchased = "plugin.already_purchased"
	KeyPluginNotEntitled      = "plugin.not_entitled"
	KeyPluginFileNotFound     = "plugin.file_not_found"
	KeyPluginRated            = "plugin.rated"
	KeyPluginInvalidRating    = "plugin.invalid_rating"
	KeyPluginJarRequired      = "plugin.jar_required"
	KeyPluginVersionRequired  = "plugin.version_required"
	KeyPluginInvalidCategory  = "plugin.invalid_category"
	KeyPluginVersionNotNewer  = "plugin.version_not_newer"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileInvalidType = "file.invalid_type"
	KeyFileTooLarge    = "file.too_large"

	// Rate limiting
	KeyRateLimited = "rate_limit.exceeded"
)
