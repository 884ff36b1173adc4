package models

import "time"

// User (Пользователь)
type User struct {
	ID               uint      `gorm:"primarykey" json:"user_id"`
	Email            string    `gorm:"uniqueIndex;size:255" json:"email"`
	Role             string    `gorm:"size:10;not null;default:STUDENT" json:"role"`
	Status           string    `gorm:"size:10;not null;default:REGISTERED" json:"status"`
	RegistrationDate time.Time `gorm:"autoCreateTime" json:"registration_date"`
	LastSeen         time.Time `json:"last_seen"`
	Name             string    `gorm:"size:30" json:"name"`
	LastName         string    `gorm:"size:30" json:"last_name"`
	Token            *string   `gorm:"size:36;index" json:"-"`
	ProfilePicURL    string    `gorm:"size:150" json:"profile_pic_url"`
	Phone            string    `gorm:"size:10" json:"phone"`
	City             string    `gorm:"size:30" json:"city"`
	PasswordHash     string    `gorm:"size:100" json:"-"`
	GoogleID         string    `gorm:"size:64;index" json:"-"`

	Orders []Order `json:"-" gorm:"foreignKey:UserID"`
}

// UserRegistration — заявка на регистрацию (до подтверждения по ссылке)
type UserRegistration struct {
	Email    string `gorm:"primarykey;size:255" json:"email"`
	Name     string `gorm:"size:30" json:"name"`
	LastName string `gorm:"size:30" json:"last_name"`
	Phone    string `gorm:"size:10" json:"phone"`
	Hash     string `gorm:"size:36;index" json:"-"`
}
