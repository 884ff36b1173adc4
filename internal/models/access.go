package models

import "time"

// Access — окно доступа пользователя к одному уроку.
// Пара (user_id, video_id) уникальна: повторная выдача доступа невозможна.
// EndDate == nil означает бессрочный доступ.
type Access struct {
	ID        uint       `gorm:"primarykey" json:"access_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:unique_access_entry" json:"user_id"`
	VideoID   uint       `gorm:"not null;uniqueIndex:unique_access_entry" json:"video_id"`
	BeginDate time.Time  `gorm:"not null;index:access_date_index" json:"begin_date"`
	EndDate   *time.Time `gorm:"index:access_date_index" json:"end_date"`

	Video Video `json:"-"`
}

func (Access) TableName() string { return "video_access" }
