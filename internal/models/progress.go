package models

// CourseProgressTracking — агрегированный прогресс пользователя по курсу.
// VideoCount — кэш количества доступных уроков, пересчитывается при
// изменении доступа.
type CourseProgressTracking struct {
	ID              uint `gorm:"primarykey" json:"id"`
	UserID          uint `gorm:"not null;uniqueIndex:unique_course_progress" json:"user_id"`
	CourseID        uint `gorm:"not null;uniqueIndex:unique_course_progress" json:"course_id"`
	ProgressPercent int  `json:"progress_percent"`
	VideoCount      int  `json:"video_count"`

	VideoProgressItems []VideoProgressTracking `json:"-" gorm:"foreignKey:CourseProgressID"`
}

// VideoProgressTracking — прогресс пользователя по одному уроку.
// Процент только растет (откаты от плеера игнорируются).
type VideoProgressTracking struct {
	ID               uint `gorm:"primarykey" json:"id"`
	UserID           uint `gorm:"not null;uniqueIndex:unique_video_progress" json:"user_id"`
	VideoID          uint `gorm:"not null;uniqueIndex:unique_video_progress" json:"video_id"`
	CourseProgressID uint `gorm:"not null;index" json:"-"`
	ProgressPercent  int  `json:"progress_percent"`

	CourseProgress CourseProgressTracking `json:"course_progress"`
}
