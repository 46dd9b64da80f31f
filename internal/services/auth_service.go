package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/tandem/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthUserRepository interface {
	ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateTelegramChatID(ctx context.Context, userID uint, chatID int64) error
	UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error
}

type RegistrationInput struct {
	Email       string
	Password    string
	DisplayName string
	Language    string
}

type AuthService struct {
	users AuthUserRepository
	now   func() time.Time
}

func NewAuthService(users AuthUserRepository) *AuthService {
	return &AuthService{users: users, now: time.Now}
}

func (service *AuthService) Register(ctx context.Context, input RegistrationInput) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(input.Email, input.Password)
	if err != nil {
		return models.User{}, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return models.User{}, err
	}
	displayName, err := NormalizeDisplayName(input.DisplayName, email)
	if err != nil {
		return models.User{}, err
	}

	exists, err := service.users.ExistsByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrAuthEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Language:     input.Language,
		CreatedAt:    service.now().UTC(),
	}
	if err := service.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrAuthEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (service *AuthService) Authenticate(ctx context.Context, emailRaw string, passwordRaw string) (models.User, error) {
	email, password, err := NormalizeCredentialsInput(emailRaw, passwordRaw)
	if err != nil {
		return models.User{}, err
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrAuthCredentialsInvalid
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrAuthCredentialsInvalid
	}
	return user, nil
}

func (service *AuthService) FindByID(ctx context.Context, userID uint) (models.User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translateLookupError(err)
	}
	return user, nil
}

// LinkTelegram stores the chat that offline notifications are sent to. A
// zero chat id unlinks.
func (service *AuthService) LinkTelegram(ctx context.Context, userID uint, chatID int64) error {
	if _, err := service.FindByID(ctx, userID); err != nil {
		return err
	}
	return service.users.UpdateTelegramChatID(ctx, userID, chatID)
}

// ResetPassword replaces the password of the account registered under
// emailRaw. It is an operator action and skips the strength policy so
// generated passwords are accepted as is.
func (service *AuthService) ResetPassword(ctx context.Context, emailRaw string, password string) (models.User, error) {
	email := NormalizeAuthEmail(emailRaw)
	if email == "" {
		return models.User{}, invalidField("email", "must be a valid address")
	}
	if strings.TrimSpace(password) == "" {
		return models.User{}, invalidField("password", "is required")
	}

	user, err := service.users.FindByNormalizedEmail(ctx, email)
	if err != nil {
		return models.User{}, translateLookupError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	if err := service.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return models.User{}, translateLookupError(err)
	}
	user.PasswordHash = string(hash)
	return user, nil
}
