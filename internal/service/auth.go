package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// Токен живет, пока пользователь активен: 48 часов без запросов — выход
const tokenLifetime = 48 * time.Hour

// StartRegistrationInput — первый шаг регистрации (до пароля)
type StartRegistrationInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=30"`
	LastName string `json:"last_name" validate:"max=30"`
	Phone    string `json:"phone" validate:"omitempty,len=10,numeric"`
}

// CompleteRegistrationInput — завершение регистрации по ссылке из письма
type CompleteRegistrationInput struct {
	Hash     string `json:"hash" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
}

// StartRegistration создает заявку с одноразовым хэшом.
// Занятый email не раскрываем деталями — просто отказ.
func StartRegistration(db *gorm.DB, in StartRegistrationInput) (string, error) {
	var existingReg models.UserRegistration
	if err := db.First(&existingReg, "email = ?", in.Email).Error; err == nil {
		return "", BadRequest("Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	var existingUser models.User
	if err := db.First(&existingUser, "email = ?", in.Email).Error; err == nil {
		return "", BadRequest("Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	registration := models.UserRegistration{
		Email:    in.Email,
		Name:     in.Name,
		LastName: in.LastName,
		Phone:    in.Phone,
		Hash:     uuid.NewString(),
	}
	if err := db.Create(&registration).Error; err != nil {
		return "", err
	}
	// TODO: отправить письмо со ссылкой на завершение регистрации
	return registration.Hash, nil
}

// CompleteRegistration превращает заявку в пользователя.
// Незаполненные поля берутся из заявки.
func CompleteRegistration(db *gorm.DB, in CompleteRegistrationInput) (*models.User, error) {
	var registration models.UserRegistration
	err := db.First(&registration, "hash = ?", in.Hash).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Registration hash")
		}
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if in.Name == "" {
		in.Name = registration.Name
	}
	if in.LastName == "" {
		in.LastName = registration.LastName
	}
	if in.Phone == "" {
		in.Phone = registration.Phone
	}

	token := uuid.NewString()
	user := models.User{
		Email:        registration.Email,
		Role:         models.RoleStudent,
		Status:       models.UserStatusRegistered,
		Name:         in.Name,
		LastName:     in.LastName,
		Phone:        in.Phone,
		City:         in.City,
		PasswordHash: string(passwordHash),
		Token:        &token,
		LastSeen:     time.Now(),
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&registration).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login проверяет пароль и выдает свежий токен
func Login(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	user.Token = &token
	user.LastSeen = time.Now()
	if err := db.Model(&user).Updates(map[string]interface{}{
		"token":     token,
		"last_seen": user.LastSeen,
	}).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByToken находит пользователя по токену и продлевает сессию.
// Просроченный по last_seen токен отклоняется.
func UserByToken(db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidCredentials
	}
	var user models.User
	err := db.First(&user, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if time.Since(user.LastSeen) >= tokenLifetime {
		return nil, ErrInvalidCredentials
	}

	user.LastSeen = time.Now()
	if err := db.Model(&user).Update("last_seen", user.LastSeen).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout сбрасывает токен
func Logout(db *gorm.DB, user *models.User) error {
	return db.Model(user).Update("token", nil).Error
}
