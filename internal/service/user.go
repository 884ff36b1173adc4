package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// UserPatch — явный набор обновляемых полей. Динамические map-патчи
// не используем: так видно, что именно может меняться через API.
type UserPatch struct {
	Name          *string `json:"name" validate:"omitempty,max=30"`
	LastName      *string `json:"last_name" validate:"omitempty,max=30"`
	Phone         *string `json:"phone" validate:"omitempty,len=10,numeric"`
	City          *string `json:"city" validate:"omitempty,max=30"`
	ProfilePicURL *string `json:"profile_pic_url" validate:"omitempty,max=150"`
	Role          *string `json:"role" validate:"omitempty,oneof=ADMIN TEACHER STUDENT"`
	Status        *string `json:"status" validate:"omitempty,oneof=REGISTERED ACTIVE ARCHIVED"`
}

// GetUser — пользователь по id
func GetUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("User")
		}
		return nil, err
	}
	return &user, nil
}

// PatchUser применяет частичное обновление
func PatchUser(db *gorm.DB, userID uint, patch UserPatch) (*models.User, error) {
	user, err := GetUser(db, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.City != nil {
		updates["city"] = *patch.City
	}
	if patch.ProfilePicURL != nil {
		updates["profile_pic_url"] = *patch.ProfilePicURL
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser удаляет пользователя; заказы остаются с user_id = NULL
func DeleteUser(db *gorm.DB, userID uint) error {
	user, err := GetUser(db, userID)
	if err != nil {
		return err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Model(&models.Order{}).Where("user_id = ?", userID).
		Update("user_id", nil).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Access{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(user).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// ListUsers — список для админки. Преподаватель видит только своих
// студентов: тех, у кого есть доступ к урокам его курсов.
func ListUsers(db *gorm.DB, current *models.User) ([]models.User, error) {
	var users []models.User
	switch current.Role {
	case models.RoleAdmin:
		err := db.Order("registration_date desc").Find(&users).Error
		return users, err
	case models.RoleTeacher:
		err := db.Distinct("users.*").
			Joins("JOIN video_access ON video_access.user_id = users.id").
			Joins("JOIN videos ON videos.id = video_access.video_id").
			Joins("JOIN course_teachers ON course_teachers.course_id = videos.course_id").
			Where("course_teachers.user_id = ?", current.ID).
			Order("users.registration_date desc").
			Find(&users).Error
		return users, err
	default:
		return nil, ErrAccessDenied
	}
}
