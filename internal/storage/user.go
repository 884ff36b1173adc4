package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// GoogleProfile — данные из ответа Google userinfo
type GoogleProfile struct {
	GoogleID      string
	Email         string
	Name          string
	LastName      string
	ProfilePicURL string
}

// SaveGoogleUser находит пользователя по Google ID или email; найденного
// обновляет, нового создает. В обоих случаях выдается свежий токен.
func SaveGoogleUser(db *gorm.DB, profile GoogleProfile) (*models.User, error) {
	var user models.User

	// Сначала ищем по Google ID, затем по email: аккаунт, заведенный
	// по паролю, привязывается к Google при первом OAuth-входе
	result := db.Where("google_id = ?", profile.GoogleID).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		result = db.Where("email = ?", profile.Email).First(&user)
	}

	token := uuid.NewString()

	if result.Error == nil {
		updates := map[string]interface{}{
			"google_id": profile.GoogleID,
			"name":      profile.Name,
			"last_name": profile.LastName,
			"token":     token,
			"last_seen": time.Now(),
			// Роль не трогаем, ее назначает админ
		}
		if profile.ProfilePicURL != "" {
			updates["profile_pic_url"] = profile.ProfilePicURL
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
		user.Token = &token
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	user = models.User{
		Email:         profile.Email,
		Role:          models.RoleStudent,
		Status:        models.UserStatusRegistered,
		Name:          profile.Name,
		LastName:      profile.LastName,
		ProfilePicURL: profile.ProfilePicURL,
		GoogleID:      profile.GoogleID,
		Token:         &token,
		LastSeen:      time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
