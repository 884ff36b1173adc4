package database

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// Seed заводит администратора, если его еще нет.
// Почта и пароль задаются через ADMIN_EMAIL / ADMIN_PASSWORD.
func Seed(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD не заданы, сид админа пропущен")
		return nil
	}

	var existing models.User
	if err := db.First(&existing, "email = ?", email).Error; err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        email,
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
		Name:         "Admin",
		PasswordHash: string(hash),
	}
	return db.Create(&admin).Error
}
