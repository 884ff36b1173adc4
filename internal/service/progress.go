package service

import (
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

// Порог «досмотрено»: плееры редко доходят ровно до 100%
const completionThreshold = 95

// roundProgressPercent нормализует процент от плеера
func roundProgressPercent(progress int) int {
	if progress >= completionThreshold {
		return 100
	}
	return progress
}

// RecordVideoProgress принимает событие прогресса от плеера.
// Записи создаются лениво при первом событии; сохраненный процент
// только растет. При достижении 100% создается тред с домашним
// заданием (см. notifyHomework).
func RecordVideoProgress(db *gorm.DB, user *models.User, videoID uint, reportedPercent int) (*models.VideoProgressTracking, error) {
	var video models.Video
	if err := db.Preload("Homework").First(&video, videoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Video")
		}
		return nil, err
	}

	newProgress := roundProgressPercent(reportedPercent)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var videoProgress models.VideoProgressTracking
	err := tx.Where("user_id = ? AND video_id = ?", user.ID, video.ID).
		First(&videoProgress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		courseProgress, cErr := ensureCourseProgress(tx, user.ID, video.CourseID)
		if cErr != nil {
			tx.Rollback()
			return nil, cErr
		}
		videoProgress = models.VideoProgressTracking{
			UserID:           user.ID,
			VideoID:          video.ID,
			CourseProgressID: courseProgress.ID,
		}
		if err := tx.Create(&videoProgress).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	} else if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Монотонность: меньшие и равные значения игнорируем
	if newProgress > videoProgress.ProgressPercent {
		videoProgress.ProgressPercent = newProgress
		if err := tx.Model(&videoProgress).
			Update("progress_percent", newProgress).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := rollupCourseProgress(tx, videoProgress.CourseProgressID); err != nil {
			tx.Rollback()
			return nil, err
		}
		if newProgress == 100 && video.Homework != nil {
			if err := notifyHomework(tx, user.ID, video.CourseID, video.ID, video.Homework.Message); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := db.Preload("CourseProgress").
		First(&videoProgress, videoProgress.ID).Error; err != nil {
		return nil, err
	}
	return &videoProgress, nil
}

// GetCourseProgress возвращает nil, если прогресса еще нет:
// «нет записей» и «0 процентов» — разные состояния.
func GetCourseProgress(db *gorm.DB, userID, courseID uint) (*models.CourseProgressTracking, error) {
	var courseProgress models.CourseProgressTracking
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&courseProgress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &courseProgress, nil
}

// ensureCourseProgress находит или создает агрегат по курсу.
// Для новой записи сразу считается video_count.
func ensureCourseProgress(tx *gorm.DB, userID, courseID uint) (*models.CourseProgressTracking, error) {
	var courseProgress models.CourseProgressTracking
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&courseProgress).Error
	if err == nil {
		return &courseProgress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	count, err := countAccessibleVideos(tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	courseProgress = models.CourseProgressTracking{
		UserID:     userID,
		CourseID:   courseID,
		VideoCount: int(count),
	}
	if err := tx.Create(&courseProgress).Error; err != nil {
		return nil, err
	}
	return &courseProgress, nil
}

// rollupCourseProgress пересчитывает процент по курсу:
// round(sum(проценты уроков) / video_count)
func rollupCourseProgress(tx *gorm.DB, courseProgressID uint) error {
	var courseProgress models.CourseProgressTracking
	if err := tx.First(&courseProgress, courseProgressID).Error; err != nil {
		return err
	}
	if courseProgress.VideoCount == 0 {
		return nil
	}

	var sum int64
	err := tx.Model(&models.VideoProgressTracking{}).
		Where("course_progress_id = ?", courseProgressID).
		Select("COALESCE(SUM(progress_percent), 0)").
		Scan(&sum).Error
	if err != nil {
		return err
	}

	percent := int(math.Round(float64(sum) / float64(courseProgress.VideoCount)))
	return tx.Model(&courseProgress).Update("progress_percent", percent).Error
}
