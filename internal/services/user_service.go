// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/plugin-marketplace/internal/models"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

// UpdateUserProfileRequest changes only the fields that are set. A new
// password requires the current one.
type UpdateUserProfileRequest struct {
	Username        *string `json:"username,omitempty" validate:"omitempty,username"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty" validate:"omitempty,strong_password"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = found

		// Check username uniqueness if updating
		if req.Username != nil && *req.Username != user.Username {
			if err := ensureUnused(tx, "username", *req.Username, userID); err != nil {
				return err
			}
			user.Username = *req.Username
		}

		// Check email uniqueness if updating
		if req.Email != nil && *req.Email != user.Email {
			if err := ensureUnused(tx, "email", *req.Email, userID); err != nil {
				return err
			}
			user.Email = *req.Email
		}

		if req.NewPassword != nil && *req.NewPassword != "" {
			if req.CurrentPassword == nil || *req.CurrentPassword == "" {
				return ErrCurrentPasswordRequired
			}
			if err := user.CheckPassword(*req.CurrentPassword); err != nil {
				return ErrCurrentPasswordIncorrect
			}
			if err := user.SetPassword(*req.NewPassword); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		if err := tx.Model(user).Select("username", "email", "password_hash", "updated_at").Updates(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserExists
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func ensureUnused(tx *gorm.DB, column, value string, userID uuid.UUID) error {
	var count int64
	err := tx.Model(&models.User{}).
		Where(column+" = ? AND id <> ?", value, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}
	return nil
}
