package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/irisdrone/library/auth"
	"github.com/irisdrone/library/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Accounts is the credential store.
type Accounts struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewAccounts(db *gorm.DB, log zerolog.Logger) *Accounts {
	return &Accounts{db: db, log: log.With().Str("component", "accounts").Logger()}
}

// Register stores a new user with a hashed password. A taken username is a
// conflict and leaves the existing record untouched.
func (a *Accounts) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return models.User{}, newError(ErrInvalidInput, "Invalid username")
	}
	if req.Password == "" {
		return models.User{}, newError(ErrInvalidInput, "Invalid password")
	}
	if !req.Role.Valid() {
		return models.User{}, newError(ErrInvalidInput, "Invalid role")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         req.Role,
	}

	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrConflict, "Username already registered")
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return newError(ErrConflict, "Username already registered")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("register %q: %w", username, err)
	}

	a.log.Info().Str("username", username).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are
// indistinguishable to the caller. There is no lockout.
func (a *Accounts) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, newError(auth.ErrUnauthenticated, "Invalid username or password")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %q: %w", username, err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		a.log.Debug().Str("username", username).Msg("password mismatch")
		return models.User{}, newError(auth.ErrUnauthenticated, "Invalid username or password")
	}
	return user, nil
}

// EnsureAdmin creates an administrator unless the username already exists.
// It reports whether a user was created.
func (a *Accounts) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := a.Register(ctx, models.RegisterRequest{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
