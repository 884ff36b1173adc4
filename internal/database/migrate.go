package database

import (
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRegistration{},
		&models.Course{},
		&models.CourseTeacher{},
		&models.Video{},
		&models.Homework{},
		&models.CourseProduct{},
		&models.ServiceProduct{},
		&models.CourseApplication{},
		&models.Order{},
		&models.OrderCourseProductItem{},
		&models.OrderServiceProductItem{},
		&models.Access{},
		&models.CourseProgressTracking{},
		&models.VideoProgressTracking{},
		&models.Chat{},
		&models.ChatThread{},
		&models.ChatLine{},
	)
}
