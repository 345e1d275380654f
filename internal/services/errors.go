// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is wrapped by every error caused by bad caller input.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrPluginNotFound   = errors.New("plugin not found")
	ErrArtifactNotFound = errors.New("plugin file not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrNotPluginAuthor = errors.New("not the author of this plugin")
	ErrNotEntitled     = errors.New("plugin must be purchased before it can be downloaded")

	ErrAlreadyPurchased = errors.New("plugin already purchased")
	ErrUserExists       = errors.New("user with this email or username already exists")

	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)

var (
	ErrInvalidRating           = fmt.Errorf("%w: rating must be an integer between 1 and 5", ErrInvalidArgument)
	ErrArtifactRequired        = fmt.Errorf("%w: a plugin JAR file is required", ErrInvalidArgument)
	ErrVersionRequired         = fmt.Errorf("%w: a version is required when uploading a new JAR file", ErrInvalidArgument)
	ErrInvalidCategory         = fmt.Errorf("%w: unknown category", ErrInvalidArgument)
	ErrVersionNotNewer         = fmt.Errorf("%w: version must be greater than the current version", ErrInvalidArgument)
	ErrInvalidFileType         = fmt.Errorf("%w: file type not allowed", ErrInvalidArgument)
	ErrFileTooLarge            = fmt.Errorf("%w: file too large", ErrInvalidArgument)
	ErrCurrentPasswordRequired = fmt.Errorf("%w: current password is required to set a new password", ErrInvalidArgument)
)

// validationError marks a struct validation failure as caller input error
// while keeping the validator details reachable through errors.As.
func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}
