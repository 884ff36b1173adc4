package service

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/s/courseMarket/internal/database"
	"github.com/s/courseMarket/internal/models"
)

// setupDB — in-memory SQLite со схемой проекта.
// Одно соединение: у каждого коннекта sqlite своя память.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("не удалось открыть sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("не удалось получить *sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("миграция не прошла: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:  email,
		Role:   role,
		Status: models.UserStatusRegistered,
		Name:   "Test",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}
	return &user
}

// createCourse — курс с уроками и одним продуктом на весь курс.
// homework задает текст задания по позиции урока (с нуля).
func createCourse(t *testing.T, db *gorm.DB, videoCount int, price uint, homework map[int]string) (*models.Course, *models.CourseProduct) {
	t.Helper()

	author := createUser(t, db, fmt.Sprintf("author-%d@test.io", time.Now().UnixNano()), models.RoleAdmin)
	course := models.Course{
		Title:    "Тестовый курс",
		AuthorID: author.ID,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("не удалось создать курс: %v", err)
	}

	for i := 0; i < videoCount; i++ {
		video := models.Video{
			CourseID: course.ID,
			Position: i,
			Title:    fmt.Sprintf("Урок %d", i+1),
		}
		if err := db.Create(&video).Error; err != nil {
			t.Fatalf("не удалось создать урок: %v", err)
		}
		if message, ok := homework[i]; ok {
			hw := models.Homework{VideoID: video.ID, Message: message}
			if err := db.Create(&hw).Error; err != nil {
				t.Fatalf("не удалось создать домашку: %v", err)
			}
		}
	}

	product := models.CourseProduct{
		CourseID: course.ID,
		Title:    "Полный доступ",
		Price:    price,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("не удалось создать продукт: %v", err)
	}
	return &course, &product
}

func courseVideos(t *testing.T, db *gorm.DB, courseID uint) []models.Video {
	t.Helper()
	var videos []models.Video
	if err := db.Where("course_id = ?", courseID).
		Order("position asc, id asc").Find(&videos).Error; err != nil {
		t.Fatalf("не удалось прочитать уроки: %v", err)
	}
	return videos
}

// openAccess выдает действующий доступ ко всем урокам курса напрямую,
// минуя покупку: для тестов прогресса и чатов
func openAccess(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()
	begin := time.Now().Add(-time.Hour)
	for _, video := range courseVideos(t, db, courseID) {
		access := models.Access{
			UserID:    userID,
			VideoID:   video.ID,
			BeginDate: begin,
		}
		if err := db.Create(&access).Error; err != nil {
			t.Fatalf("не удалось выдать доступ: %v", err)
		}
	}
}

func assignTeacher(t *testing.T, db *gorm.DB, courseID, userID uint) {
	t.Helper()
	if err := db.Create(&models.CourseTeacher{CourseID: courseID, UserID: userID}).Error; err != nil {
		t.Fatalf("не удалось назначить преподавателя: %v", err)
	}
}

// stubProvider — платежный провайдер для тестов
type stubProvider struct {
	link string
	err  error
}

func (p stubProvider) CreateLink(order *models.Order) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if p.link != "" {
		return p.link, nil
	}
	return fmt.Sprintf("https://pay.test/%d", order.ID), nil
}

func serviceCode(t *testing.T, err error) int {
	t.Helper()
	svcErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("ожидалась сервисная ошибка, получено: %v", err)
	}
	return svcErr.Code
}
