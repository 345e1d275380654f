// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validate        *validator.Validate
	usernamePattern = regexp.MustCompile("^[a-zA-Z0-9_]+$")
	// Semantic versions and free-form labels such as "1.0-beta" or "b42".
	versionLabelPattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+\-]*$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("version_label", validateVersionLabel)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()

	// Username should be alphanumeric and underscores, 3-50 characters
	if len(username) < 3 || len(username) > 50 {
		return false
	}

	return usernamePattern.MatchString(username)
}

func validateVersionLabel(fl validator.FieldLevel) bool {
	return ValidVersionLabel(fl.Field().String())
}

// ValidVersionLabel accepts semantic versions ("1.2.3", "v2.0.0-rc.1") and
// simple dotted labels up to 64 characters.
func ValidVersionLabel(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || len(label) > 64 {
		return false
	}
	return versionLabelPattern.MatchString(label)
}

// CompareVersionLabels orders two labels by semantic version precedence.
// ok is false when either label is not a semantic version.
func CompareVersionLabels(a, b string) (cmp int, ok bool) {
	va, err := semver.NewVersion(strings.TrimSpace(a))
	if err != nil {
		return 0, false
	}
	vb, err := semver.NewVersion(strings.TrimSpace(b))
	if err != nil {
		return 0, false
	}
	return va.Compare(vb), true
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase and a number"
	case "username":
		return "Username must be 3-50 characters and contain only letters, numbers, and underscores"
	case "version_label":
		return "Version must be a version label such as 1.0.0"
	default:
		return e.Field() + " is invalid"
	}
}
