package models

import (
	"time"

	"gorm.io/datatypes"
)

// Course (Курс)
type Course struct {
	ID           uint           `gorm:"primarykey" json:"course_id"`
	Title        string         `gorm:"size:50;not null" json:"title"`
	Description  string         `gorm:"size:250" json:"description"`
	CoursePicURL string         `gorm:"size:100" json:"course_pic_url"`
	AuthorID     uint           `json:"author_id"`
	LandingInfo  datatypes.JSON `json:"landing_info"`

	Author          User             `json:"-" gorm:"foreignKey:AuthorID"`
	Videos          []Video          `json:"videos,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CourseProducts  []CourseProduct  `json:"course_products,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	ServiceProducts []ServiceProduct `json:"service_products,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

// CourseTeacher — явная join-таблица "преподаватели курса".
// Навигация идет через service.TeachersOf / service.CoursesTaughtBy.
type CourseTeacher struct {
	ID       uint `gorm:"primarykey" json:"id"`
	CourseID uint `gorm:"not null;uniqueIndex:unique_course_teacher" json:"course_id"`
	UserID   uint `gorm:"not null;uniqueIndex:unique_course_teacher" json:"user_id"`
}

// Video (Урок курса). Position задает порядок выдачи доступа.
type Video struct {
	ID          uint   `gorm:"primarykey" json:"video_id"`
	CourseID    uint   `gorm:"not null;index" json:"course_id"`
	Position    int    `json:"position"`
	Title       string `gorm:"size:50" json:"title"`
	Description string `gorm:"size:250" json:"description"`
	URL         string `gorm:"size:100" json:"url"`
	Duration    uint   `json:"duration"`

	Homework *Homework `json:"homework,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

// Homework — текст домашнего задания к уроку (один к одному)
type Homework struct {
	ID      uint   `gorm:"primarykey" json:"homework_id"`
	VideoID uint   `gorm:"not null;uniqueIndex" json:"video_id"`
	Message string `gorm:"size:1000" json:"message"`
}

// CourseProduct — покупаемый вариант курса
type CourseProduct struct {
	ID           uint    `gorm:"primarykey" json:"course_product_id"`
	CourseID     uint    `gorm:"not null;index" json:"course_id"`
	Title        string  `gorm:"size:50" json:"title"`
	Description  string  `gorm:"size:250" json:"description"`
	Duration     uint    `json:"duration"`
	Price        uint    `json:"price"`
	Discount     *uint   `json:"discount,omitempty"`
	DiscountType *string `gorm:"size:1" json:"discount_type,omitempty"`

	Course Course `json:"-"`
}

// ServiceProduct — дополнительная услуга к курсу (консультация и т.п.)
type ServiceProduct struct {
	ID           uint    `gorm:"primarykey" json:"service_product_id"`
	CourseID     uint    `gorm:"not null;index" json:"course_id"`
	Title        string  `gorm:"size:50" json:"title"`
	Description  string  `gorm:"size:250" json:"description"`
	Price        uint    `json:"price"`
	Discount     *uint   `json:"discount,omitempty"`
	DiscountType *string `gorm:"size:1" json:"discount_type,omitempty"`

	Course Course `json:"-"`
}

// CourseApplication — заявка с лендинга (лид)
type CourseApplication struct {
	ID              uint      `gorm:"primarykey" json:"application_id"`
	CourseID        uint      `gorm:"not null;index" json:"course_id"`
	Email           string    `gorm:"size:255;not null" json:"email"`
	Phone           string    `gorm:"size:10;not null" json:"phone"`
	Name            string    `gorm:"size:30;not null" json:"name"`
	IsRegistered    bool      `json:"is_registered"`
	ApplicationDate time.Time `gorm:"autoCreateTime" json:"application_date"`
}
