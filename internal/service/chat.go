package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// AddChatLineInput — сообщение в тред домашнего задания.
// HwStatus заполняет преподаватель, вынося вердикт по работе.
type AddChatLineInput struct {
	ChatThreadID uint   `json:"chat_thread_id" validate:"required"`
	Sender       string `json:"sender" validate:"required,oneof=STUDENT TEACHER"`
	Message      string `json:"message"`
	HwStatus     string `json:"hw_status" validate:"omitempty,oneof=PENDING NOT_APPROVED APPROVED"`
}

// AddChatLine добавляет сообщение и двигает статус проверки:
// сообщение студента возвращает тред в PENDING, вердикт преподавателя
// ставит APPROVED/NOT_APPROVED. В APPROVED-тред писать нельзя.
func AddChatLine(db *gorm.DB, user *models.User, in AddChatLineInput) (*models.ChatLine, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var thread models.ChatThread
	err := tx.Preload("Chat").First(&thread, in.ChatThreadID).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Chat thread")
		}
		return nil, err
	}

	if thread.HwStatus == models.HwStatusApproved {
		tx.Rollback()
		return nil, ErrHomeworkApproved
	}

	allowed, err := checkSender(tx, user, &thread.Chat, in.Sender)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !allowed {
		tx.Rollback()
		return nil, ErrAccessDenied
	}

	// Последнее сообщение читаем внутри транзакции: проверка «сейчас
	// очередь другой стороны» не должна опираться на устаревшие данные
	var lastLine models.ChatLine
	err = tx.Where("chat_thread_id = ?", thread.ID).
		Order("id desc").First(&lastLine).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}
	if err == nil && lastLine.Sender == in.Sender {
		tx.Rollback()
		return nil, ErrAccessDenied
	}

	line := models.ChatLine{
		ChatThreadID: thread.ID,
		Sender:       in.Sender,
		Message:      in.Message,
	}
	if err := tx.Create(&line).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	switch in.Sender {
	case models.SenderStudent:
		thread.HwStatus = models.HwStatusPending
	case models.SenderTeacher:
		if in.HwStatus == models.HwStatusApproved || in.HwStatus == models.HwStatusNotApproved {
			thread.HwStatus = in.HwStatus
		}
	}
	applyReadStatus(&thread.TeacherRead, &thread.StudentRead, in.Sender, true)
	if err := tx.Model(&models.ChatThread{}).Where("id = ?", thread.ID).
		Updates(map[string]interface{}{
			"hw_status":    thread.HwStatus,
			"teacher_read": thread.TeacherRead,
			"student_read": thread.StudentRead,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	chat := thread.Chat
	now := time.Now()
	chat.LastMessageDate = &now
	applyReadStatus(&chat.TeacherRead, &chat.StudentRead, in.Sender, true)
	if err := tx.Model(&models.Chat{}).Where("id = ?", chat.ID).
		Updates(map[string]interface{}{
			"last_message_date": chat.LastMessageDate,
			"teacher_read":      chat.TeacherRead,
			"student_read":      chat.StudentRead,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// notifyHomework публикует домашнее задание после полного просмотра
// урока. На пару (чат, урок) тред создается один раз: повторное
// завершение урока не дублирует сообщение. Пустое задание — no-op.
func notifyHomework(tx *gorm.DB, studentID, courseID, videoID uint, homework string) error {
	if homework == "" {
		return nil
	}

	var chat models.Chat
	err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		chat = models.Chat{StudentID: studentID, CourseID: courseID}
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else {
		var existing models.ChatThread
		err = tx.Where("chat_id = ? AND video_id = ?", chat.ID, videoID).
			First(&existing).Error
		if err == nil {
			// Тред уже есть — задание было выдано раньше
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	thread := models.ChatThread{
		ChatID:   chat.ID,
		VideoID:  &videoID,
		HwStatus: models.HwStatusPending,
	}
	applyReadStatus(&thread.TeacherRead, &thread.StudentRead, models.SenderTeacher, true)
	if err := tx.Create(&thread).Error; err != nil {
		return err
	}

	line := models.ChatLine{
		ChatThreadID: thread.ID,
		Sender:       models.SenderTeacher,
		Message:      homework,
	}
	if err := tx.Create(&line).Error; err != nil {
		return err
	}

	now := time.Now()
	applyReadStatus(&chat.TeacherRead, &chat.StudentRead, models.SenderTeacher, true)
	return tx.Model(&models.Chat{}).Where("id = ?", chat.ID).
		Updates(map[string]interface{}{
			"last_message_date": &now,
			"teacher_read":      chat.TeacherRead,
			"student_read":      chat.StudentRead,
		}).Error
}

// applyReadStatus — правило флагов чтения: отправитель видит свое
// сообщение, у второй стороны новое сообщение сбрасывает флаг
func applyReadStatus(teacherRead, studentRead *bool, sender string, isNewMessage bool) {
	if sender == models.SenderTeacher {
		*teacherRead = true
		if isNewMessage {
			*studentRead = false
		}
	}
	if sender == models.SenderStudent {
		*studentRead = true
		if isNewMessage {
			*teacherRead = false
		}
	}
}

// ChatsForStudent — чаты студента по всем его курсам
func ChatsForStudent(db *gorm.DB, user *models.User) ([]models.Chat, error) {
	var chats []models.Chat
	err := db.Preload("Course").
		Where("student_id = ?", user.ID).
		Order("last_message_date desc").
		Find(&chats).Error
	return chats, err
}

// CourseChats — чаты одного курса для витрины преподавателя
type CourseChats struct {
	Course models.Course `json:"course"`
	Chats  []models.Chat `json:"chats"`
}

// ChatsForTeacher группирует чаты по курсам, которые ведет преподаватель
func ChatsForTeacher(db *gorm.DB, user *models.User) ([]CourseChats, error) {
	var chats []models.Chat
	err := db.Preload("Course").
		Joins("JOIN course_teachers ON course_teachers.course_id = chats.course_id").
		Where("course_teachers.user_id = ?", user.ID).
		Order("chats.course_id, chats.last_message_date desc").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	var result []CourseChats
	index := make(map[uint]int)
	for _, chat := range chats {
		i, ok := index[chat.CourseID]
		if !ok {
			result = append(result, CourseChats{Course: chat.Course})
			i = len(result) - 1
			index[chat.CourseID] = i
		}
		result[i].Chats = append(result[i].Chats, chat)
	}
	return result, nil
}

// ChatItems возвращает треды чата и отмечает их прочитанными.
// Админ, открывший чат как преподаватель, флаги не трогает.
func ChatItems(db *gorm.DB, user *models.User, chatID uint, sender string) ([]models.ChatThread, error) {
	var chat models.Chat
	err := db.Preload("ChatThreads", func(db *gorm.DB) *gorm.DB {
		return db.Order("chat_threads.id ASC")
	}).Preload("ChatThreads.ChatLines", func(db *gorm.DB) *gorm.DB {
		return db.Order("chat_lines.id ASC")
	}).First(&chat, chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Chat")
		}
		return nil, err
	}

	allowed, err := checkSender(db, user, &chat, sender)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	if sender == models.SenderTeacher && user.Role == models.RoleAdmin {
		return chat.ChatThreads, nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	applyReadStatus(&chat.TeacherRead, &chat.StudentRead, sender, false)
	if err := tx.Model(&models.Chat{}).Where("id = ?", chat.ID).
		Updates(map[string]interface{}{
			"teacher_read": chat.TeacherRead,
			"student_read": chat.StudentRead,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range chat.ChatThreads {
		thread := &chat.ChatThreads[i]
		applyReadStatus(&thread.TeacherRead, &thread.StudentRead, sender, false)
		if err := tx.Model(&models.ChatThread{}).Where("id = ?", thread.ID).
			Updates(map[string]interface{}{
				"teacher_read": thread.TeacherRead,
				"student_read": thread.StudentRead,
			}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if n := len(thread.ChatLines); n > 0 {
			last := &thread.ChatLines[n-1]
			if last.Sender != sender && !last.IsRead {
				last.IsRead = true
				if err := tx.Model(&models.ChatLine{}).Where("id = ?", last.ID).
					Update("is_read", true).Error; err != nil {
					tx.Rollback()
					return nil, err
				}
			}
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return chat.ChatThreads, nil
}

// checkSender проверяет право писать от имени sender:
// студент — только в свой чат, преподаватель — в чаты своих курсов,
// админ может выступать преподавателем в любом чате.
func checkSender(db *gorm.DB, user *models.User, chat *models.Chat, sender string) (bool, error) {
	switch sender {
	case models.SenderTeacher:
		if user.Role == models.RoleAdmin {
			return true, nil
		}
		teachers, err := TeachersOf(db, chat.CourseID)
		if err != nil {
			return false, err
		}
		for _, teacher := range teachers {
			if teacher.ID == user.ID {
				return true, nil
			}
		}
		return false, nil
	case models.SenderStudent:
		return user.ID == chat.StudentID, nil
	default:
		return false, nil
	}
}

// TeachersOf — преподаватели курса через явную join-таблицу
func TeachersOf(db *gorm.DB, courseID uint) ([]models.User, error) {
	var teachers []models.User
	err := db.Joins("JOIN course_teachers ON course_teachers.user_id = users.id").
		Where("course_teachers.course_id = ?", courseID).
		Find(&teachers).Error
	return teachers, err
}

// CoursesTaughtBy — курсы, которые ведет пользователь
func CoursesTaughtBy(db *gorm.DB, userID uint) ([]models.Course, error) {
	var courses []models.Course
	err := db.Joins("JOIN course_teachers ON course_teachers.course_id = courses.id").
		Where("course_teachers.user_id = ?", userID).
		Find(&courses).Error
	return courses, err
}
