package service

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// VideoInput — урок при создании курса
type VideoInput struct {
	Position    int    `json:"position"`
	Title       string `json:"title" validate:"max=50"`
	Description string `json:"description" validate:"max=250"`
	URL         string `json:"url" validate:"max=100"`
	Duration    uint   `json:"duration"`
	Homework    string `json:"homework"`
}

// ProductInput — продукт при создании курса
type ProductInput struct {
	Title        string  `json:"title" validate:"max=50"`
	Description  string  `json:"description" validate:"max=250"`
	Duration     uint    `json:"duration"`
	Price        uint    `json:"price"`
	Discount     *uint   `json:"discount"`
	DiscountType *string `json:"discount_type" validate:"omitempty,oneof=P R"`
}

// CreateCourseInput — курс вместе с уроками, продуктами и преподавателями
type CreateCourseInput struct {
	Title           string                 `json:"title" validate:"required,max=50"`
	Description     string                 `json:"description" validate:"max=250"`
	CoursePicURL    string                 `json:"course_pic_url" validate:"max=100"`
	LandingInfo     map[string]interface{} `json:"landing_info"`
	TeacherIDs      []uint                 `json:"teacher_ids"`
	Videos          []VideoInput           `json:"videos"`
	CourseProducts  []ProductInput         `json:"course_products"`
	ServiceProducts []ProductInput         `json:"service_products"`
}

// VideoPatch — частичное обновление урока внутри патча курса
type VideoPatch struct {
	VideoID     uint    `json:"video_id" validate:"required"`
	Position    *int    `json:"position"`
	Title       *string `json:"title" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=250"`
	URL         *string `json:"url" validate:"omitempty,max=100"`
	Duration    *uint   `json:"duration"`
	Homework    *string `json:"homework"`
}

// CoursePatch — частичное обновление курса.
// LandingInfo сливается с сохраненным JSON по ключам.
type CoursePatch struct {
	Title        *string                `json:"title" validate:"omitempty,max=50"`
	Description  *string                `json:"description" validate:"omitempty,max=250"`
	CoursePicURL *string                `json:"course_pic_url" validate:"omitempty,max=100"`
	LandingInfo  map[string]interface{} `json:"landing_info"`
	TeacherIDs   *[]uint                `json:"teacher_ids"`
	Videos       []VideoPatch           `json:"videos"`
}

// GetCourse — курс по id
func GetCourse(db *gorm.DB, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Course")
		}
		return nil, err
	}
	return &course, nil
}

// CreateCourse создает курс со всеми вложенными сущностями
func CreateCourse(db *gorm.DB, author *models.User, in CreateCourseInput) (*models.Course, error) {
	for _, teacherID := range in.TeacherIDs {
		if _, err := GetUser(db, teacherID); err != nil {
			return nil, err
		}
	}

	landingInfo := datatypes.JSON("{}")
	if in.LandingInfo != nil {
		raw, err := json.Marshal(in.LandingInfo)
		if err != nil {
			return nil, err
		}
		landingInfo = raw
	}

	course := models.Course{
		Title:        in.Title,
		Description:  in.Description,
		CoursePicURL: in.CoursePicURL,
		AuthorID:     author.ID,
		LandingInfo:  landingInfo,
	}
	for _, videoIn := range in.Videos {
		video := models.Video{
			Position:    videoIn.Position,
			Title:       videoIn.Title,
			Description: videoIn.Description,
			URL:         videoIn.URL,
			Duration:    videoIn.Duration,
		}
		if videoIn.Homework != "" {
			video.Homework = &models.Homework{Message: videoIn.Homework}
		}
		course.Videos = append(course.Videos, video)
	}
	for _, productIn := range in.CourseProducts {
		course.CourseProducts = append(course.CourseProducts, models.CourseProduct{
			Title:        productIn.Title,
			Description:  productIn.Description,
			Duration:     productIn.Duration,
			Price:        productIn.Price,
			Discount:     productIn.Discount,
			DiscountType: productIn.DiscountType,
		})
	}
	for _, productIn := range in.ServiceProducts {
		course.ServiceProducts = append(course.ServiceProducts, models.ServiceProduct{
			Title:        productIn.Title,
			Description:  productIn.Description,
			Price:        productIn.Price,
			Discount:     productIn.Discount,
			DiscountType: productIn.DiscountType,
		})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&course).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, teacherID := range in.TeacherIDs {
		if err := tx.Create(&models.CourseTeacher{
			CourseID: course.ID,
			UserID:   teacherID,
		}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// PatchCourse применяет частичное обновление курса и его уроков.
// Урок из патча обязан принадлежать курсу.
func PatchCourse(db *gorm.DB, courseID uint, patch CoursePatch) (*models.Course, error) {
	course, err := GetCourse(db, courseID)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.CoursePicURL != nil {
		updates["course_pic_url"] = *patch.CoursePicURL
	}
	if patch.LandingInfo != nil {
		merged := map[string]interface{}{}
		if len(course.LandingInfo) > 0 {
			if err := json.Unmarshal(course.LandingInfo, &merged); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		for key, value := range patch.LandingInfo {
			merged[key] = value
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		updates["landing_info"] = datatypes.JSON(raw)
	}
	if len(updates) > 0 {
		if err := tx.Model(course).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if patch.TeacherIDs != nil {
		if err := tx.Where("course_id = ?", course.ID).
			Delete(&models.CourseTeacher{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, teacherID := range *patch.TeacherIDs {
			if err := tx.Create(&models.CourseTeacher{
				CourseID: course.ID,
				UserID:   teacherID,
			}).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	for _, videoPatch := range patch.Videos {
		var video models.Video
		if err := tx.First(&video, videoPatch.VideoID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NotFound("Video")
			}
			return nil, err
		}
		if video.CourseID != course.ID {
			tx.Rollback()
			return nil, BadRequest("Incorrect video id for course")
		}

		videoUpdates := map[string]interface{}{}
		if videoPatch.Position != nil {
			videoUpdates["position"] = *videoPatch.Position
		}
		if videoPatch.Title != nil {
			videoUpdates["title"] = *videoPatch.Title
		}
		if videoPatch.Description != nil {
			videoUpdates["description"] = *videoPatch.Description
		}
		if videoPatch.URL != nil {
			videoUpdates["url"] = *videoPatch.URL
		}
		if videoPatch.Duration != nil {
			videoUpdates["duration"] = *videoPatch.Duration
		}
		if len(videoUpdates) > 0 {
			if err := tx.Model(&video).Updates(videoUpdates).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
		if videoPatch.Homework != nil {
			if err := upsertHomework(tx, video.ID, *videoPatch.Homework); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetCourse(db, courseID)
}

// upsertHomework обновляет текст задания; пустой текст удаляет его
func upsertHomework(tx *gorm.DB, videoID uint, message string) error {
	if message == "" {
		return tx.Where("video_id = ?", videoID).Delete(&models.Homework{}).Error
	}
	var homework models.Homework
	err := tx.Where("video_id = ?", videoID).First(&homework).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.Homework{VideoID: videoID, Message: message}).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&homework).Update("message", message).Error
}

// DeleteCourse — курс и вложенные сущности (каскад на уровне БД)
func DeleteCourse(db *gorm.DB, courseID uint) error {
	result := db.Delete(&models.Course{}, courseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFound("Course")
	}
	return nil
}

// LandingCourses — каталог для неавторизованных посетителей
func LandingCourses(db *gorm.DB) ([]models.Course, error) {
	var courses []models.Course
	err := db.Preload("CourseProducts").Preload("ServiceProducts").
		Order("id asc").Find(&courses).Error
	return courses, err
}

// CourseWithProgress — курс с процентом прохождения (nil = не начат)
type CourseWithProgress struct {
	models.Course
	ProgressPercent *int `json:"progress_percent"`
}

// AvailableCourseIDs — курсы, к урокам которых у студента есть
// действующий доступ
func AvailableCourseIDs(db *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := activeAccess(db.Model(&models.Access{})).
		Joins("JOIN videos ON videos.id = video_access.video_id").
		Where("video_access.user_id = ?", userID).
		Distinct().
		Pluck("videos.course_id", &ids).Error
	return ids, err
}

// CoursesForStudent — доступные курсы с прогрессом
func CoursesForStudent(db *gorm.DB, user *models.User) ([]CourseWithProgress, error) {
	courseIDs, err := AvailableCourseIDs(db, user.ID)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) == 0 {
		return []CourseWithProgress{}, nil
	}

	var courses []models.Course
	if err := db.Where("id IN ?", courseIDs).Order("id asc").Find(&courses).Error; err != nil {
		return nil, err
	}

	result := make([]CourseWithProgress, 0, len(courses))
	for _, course := range courses {
		item := CourseWithProgress{Course: course}
		progress, err := GetCourseProgress(db, user.ID, course.ID)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			percent := progress.ProgressPercent
			item.ProgressPercent = &percent
		}
		result = append(result, item)
	}
	return result, nil
}

// VideoWithProgress — урок с процентом просмотра (nil = не начат)
type VideoWithProgress struct {
	models.Video
	ProgressPercent *int `json:"progress_percent"`
}

// AvailableVideos — уроки курса в действующем окне доступа, с прогрессом
func AvailableVideos(db *gorm.DB, user *models.User, courseID uint) ([]VideoWithProgress, error) {
	var videos []models.Video
	err := activeAccess(db.Model(&models.Video{})).
		Joins("JOIN video_access ON video_access.video_id = videos.id").
		Where("video_access.user_id = ?", user.ID).
		Where("videos.course_id = ?", courseID).
		Order("videos.position asc, videos.id asc").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}

	result := make([]VideoWithProgress, 0, len(videos))
	for _, video := range videos {
		item := VideoWithProgress{Video: video}
		var progress models.VideoProgressTracking
		err := db.Where("user_id = ? AND video_id = ?", user.ID, video.ID).
			First(&progress).Error
		if err == nil {
			percent := progress.ProgressPercent
			item.ProgressPercent = &percent
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

// CourseIfAvailable — курс для студента; без действующего доступа — 403
func CourseIfAvailable(db *gorm.DB, user *models.User, courseID uint) (*models.Course, []VideoWithProgress, error) {
	course, err := GetCourse(db, courseID)
	if err != nil {
		return nil, nil, err
	}
	videos, err := AvailableVideos(db, user, courseID)
	if err != nil {
		return nil, nil, err
	}
	if len(videos) == 0 {
		return nil, nil, ErrAccessDenied
	}
	return course, videos, nil
}

// AddCourseApplication — заявка с лендинга
func AddCourseApplication(db *gorm.DB, courseID uint, name, phone, email string) (*models.CourseApplication, error) {
	if _, err := GetCourse(db, courseID); err != nil {
		return nil, err
	}

	var existingUser models.User
	isRegistered := db.First(&existingUser, "email = ?", email).Error == nil

	application := models.CourseApplication{
		CourseID:     courseID,
		Email:        email,
		Phone:        phone,
		Name:         name,
		IsRegistered: isRegistered,
	}
	if err := db.Create(&application).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// ListApplications — заявки для админки
func ListApplications(db *gorm.DB) ([]models.CourseApplication, error) {
	var applications []models.CourseApplication
	err := db.Order("application_date desc").Find(&applications).Error
	return applications, err
}

// DeleteApplication удаляет обработанную заявку
func DeleteApplication(db *gorm.DB, applicationID uint) error {
	result := db.Delete(&models.CourseApplication{}, applicationID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFound("Application")
	}
	return nil
}
