package models

import "time"

// Chat — переписка студента с преподавателями по одному курсу.
// Флаги чтения дублируются на уровне чата и треда (см. ChatThread).
type Chat struct {
	ID              uint       `gorm:"primarykey" json:"chat_id"`
	StudentID       uint       `gorm:"not null;uniqueIndex:unique_student_course_chat" json:"student_id"`
	CourseID        uint       `gorm:"not null;uniqueIndex:unique_student_course_chat" json:"course_id"`
	TeacherRead     bool       `json:"teacher_read"`
	StudentRead     bool       `json:"student_read"`
	LastMessageDate *time.Time `json:"last_message_date"`

	Course      Course       `json:"-"`
	ChatThreads []ChatThread `json:"chat_threads,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

// ChatThread — ветка обсуждения домашнего задания одного урока.
// Для пары (chat_id, video_id) тред создается один раз.
type ChatThread struct {
	ID          uint   `gorm:"primarykey" json:"chat_thread_id"`
	ChatID      uint   `gorm:"not null;uniqueIndex:unique_chat_video_thread" json:"chat_id"`
	VideoID     *uint  `gorm:"uniqueIndex:unique_chat_video_thread" json:"video_id"`
	HwStatus    string `gorm:"size:12;not null;default:PENDING" json:"hw_status"`
	TeacherRead bool   `json:"teacher_read"`
	StudentRead bool   `json:"student_read"`

	Chat      Chat       `json:"-"`
	ChatLines []ChatLine `json:"chat_lines,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
}

// ChatLine — одно сообщение в треде
type ChatLine struct {
	ID           uint      `gorm:"primarykey" json:"chat_line_id"`
	ChatThreadID uint      `gorm:"not null;index" json:"chat_thread_id"`
	Sender       string    `gorm:"size:7;not null" json:"sender"`
	Message      string    `gorm:"size:2000" json:"message"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}
