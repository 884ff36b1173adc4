package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
)

const (
	// Интервал между открытием соседних уроков: курс выдается
	// постепенно, а не весь сразу.
	accessStaggerInterval = 2 * time.Minute
	// Срок действия доступа, отсчитывается от открытия последнего урока
	accessDuration = 90 * 24 * time.Hour
)

// grantCourseProduct выдает доступ ко всем урокам курса из купленного
// продукта. Уроки открываются по расписанию: i-й через i*интервал от
// момента покупки, общий конец окна один на все уроки. Уже существующие
// записи доступа не трогаем — это и делает повторное подтверждение
// оплаты безопасным.
func grantCourseProduct(tx *gorm.DB, product models.CourseProduct, userID uint) error {
	var videos []models.Video
	if err := tx.Where("course_id = ?", product.CourseID).
		Order("position asc, id asc").
		Find(&videos).Error; err != nil {
		return err
	}
	if len(videos) == 0 {
		return refreshCourseVideoCount(tx, userID, product.CourseID)
	}

	beginDates, endDate := accessTiming(len(videos), time.Now())

	videoIDs := make([]uint, len(videos))
	for i, video := range videos {
		videoIDs[i] = video.ID
	}
	var existing []models.Access
	if err := tx.Where("user_id = ? AND video_id IN ?", userID, videoIDs).
		Find(&existing).Error; err != nil {
		return err
	}
	granted := make(map[uint]bool, len(existing))
	for _, access := range existing {
		granted[access.VideoID] = true
	}

	rows := make([]models.Access, 0, len(videos))
	for i, video := range videos {
		if granted[video.ID] {
			continue
		}
		end := endDate
		rows = append(rows, models.Access{
			UserID:    userID,
			VideoID:   video.ID,
			BeginDate: beginDates[i],
			EndDate:   &end,
		})
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	return refreshCourseVideoCount(tx, userID, product.CourseID)
}

// accessTiming считает даты открытия уроков и общую дату окончания окна
func accessTiming(count int, start time.Time) ([]time.Time, time.Time) {
	beginDates := make([]time.Time, count)
	for i := range beginDates {
		beginDates[i] = start.Add(time.Duration(i) * accessStaggerInterval)
	}
	return beginDates, beginDates[count-1].Add(accessDuration)
}

// activeAccess ограничивает выборку действующими окнами доступа
func activeAccess(db *gorm.DB) *gorm.DB {
	now := time.Now()
	return db.Where("video_access.begin_date <= ?", now).
		Where("video_access.end_date IS NULL OR video_access.end_date >= ?", now)
}

// countAccessibleVideos — количество уроков курса, к которым у
// пользователя сейчас действует доступ
func countAccessibleVideos(tx *gorm.DB, userID, courseID uint) (int64, error) {
	var count int64
	err := activeAccess(tx.Model(&models.Access{})).
		Joins("JOIN videos ON videos.id = video_access.video_id").
		Where("video_access.user_id = ?", userID).
		Where("videos.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// refreshCourseVideoCount пересчитывает кэш video_count; запись
// прогресса по курсу создается при необходимости.
func refreshCourseVideoCount(tx *gorm.DB, userID, courseID uint) error {
	var courseProgress models.CourseProgressTracking
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&courseProgress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		courseProgress = models.CourseProgressTracking{
			UserID:   userID,
			CourseID: courseID,
		}
		if err := tx.Create(&courseProgress).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	count, err := countAccessibleVideos(tx, userID, courseID)
	if err != nil {
		return err
	}
	return tx.Model(&courseProgress).Update("video_count", count).Error
}
