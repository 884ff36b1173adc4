package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/s/courseMarket/internal/models"
)

func TestCreateCourseNested(t *testing.T) {
	db := setupDB(t)
	admin := createUser(t, db, "admin@test.io", models.RoleAdmin)
	teacher := createUser(t, db, "teacher@test.io", models.RoleTeacher)

	course, err := CreateCourse(db, admin, CreateCourseInput{
		Title:      "Go с нуля",
		TeacherIDs: []uint{teacher.ID},
		LandingInfo: map[string]interface{}{
			"header": "Научим за 90 дней",
		},
		Videos: []VideoInput{
			{Position: 0, Title: "Введение", Homework: "Установите Go"},
			{Position: 1, Title: "Типы"},
		},
		CourseProducts: []ProductInput{
			{Title: "Базовый", Price: 5000},
		},
		ServiceProducts: []ProductInput{
			{Title: "Консультация", Price: 1000},
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	videos := courseVideos(t, db, course.ID)
	if len(videos) != 2 {
		t.Fatalf("уроков %d, ожидалось 2", len(videos))
	}
	var homework models.Homework
	if err := db.First(&homework, "video_id = ?", videos[0].ID).Error; err != nil {
		t.Fatalf("домашка не создана: %v", err)
	}

	teachers, err := TeachersOf(db, course.ID)
	if err != nil {
		t.Fatalf("TeachersOf: %v", err)
	}
	if len(teachers) != 1 || teachers[0].ID != teacher.ID {
		t.Fatalf("преподаватели курса: %+v", teachers)
	}
}

func TestCreateCourseUnknownTeacher(t *testing.T) {
	db := setupDB(t)
	admin := createUser(t, db, "admin@test.io", models.RoleAdmin)

	_, err := CreateCourse(db, admin, CreateCourseInput{
		Title:      "Курс",
		TeacherIDs: []uint{9999},
	})
	if code := serviceCode(t, err); code != 404 {
		t.Fatalf("ожидался код 404, получен %d", code)
	}
}

func TestPatchCourseMergesLandingInfo(t *testing.T) {
	db := setupDB(t)
	admin := createUser(t, db, "admin@test.io", models.RoleAdmin)
	course, err := CreateCourse(db, admin, CreateCourseInput{
		Title: "Курс",
		LandingInfo: map[string]interface{}{
			"header": "Старый заголовок",
			"color":  "green",
		},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	patched, err := PatchCourse(db, course.ID, CoursePatch{
		LandingInfo: map[string]interface{}{
			"header": "Новый заголовок",
			"promo":  true,
		},
	})
	if err != nil {
		t.Fatalf("PatchCourse: %v", err)
	}

	var landing map[string]interface{}
	if err := json.Unmarshal(patched.LandingInfo, &landing); err != nil {
		t.Fatalf("landing_info не парсится: %v", err)
	}
	// Новые ключи дописаны, не упомянутые сохранены
	if landing["header"] != "Новый заголовок" {
		t.Fatalf("header = %v", landing["header"])
	}
	if landing["color"] != "green" {
		t.Fatalf("ключ color потерян: %v", landing["color"])
	}
	if landing["promo"] != true {
		t.Fatalf("promo = %v", landing["promo"])
	}
}

func TestPatchCourseForeignVideoRejected(t *testing.T) {
	db := setupDB(t)
	course1, _ := createCourse(t, db, 1, 1000, nil)
	course2, _ := createCourse(t, db, 1, 1000, nil)
	foreignVideo := courseVideos(t, db, course2.ID)[0]

	title := "Новое имя"
	_, err := PatchCourse(db, course1.ID, CoursePatch{
		Videos: []VideoPatch{{VideoID: foreignVideo.ID, Title: &title}},
	})
	if code := serviceCode(t, err); code != 400 {
		t.Fatalf("чужой урок: ожидался код 400, получен %d (%v)", code, err)
	}
}

func TestPatchCourseHomeworkUpsert(t *testing.T) {
	db := setupDB(t)
	course, _ := createCourse(t, db, 1, 1000, nil)
	video := courseVideos(t, db, course.ID)[0]

	// Создание задания
	message := "Сделайте упражнение"
	if _, err := PatchCourse(db, course.ID, CoursePatch{
		Videos: []VideoPatch{{VideoID: video.ID, Homework: &message}},
	}); err != nil {
		t.Fatalf("PatchCourse: %v", err)
	}
	var homework models.Homework
	if err := db.First(&homework, "video_id = ?", video.ID).Error; err != nil {
		t.Fatalf("домашка не создана: %v", err)
	}

	// Пустой текст удаляет задание
	empty := ""
	if _, err := PatchCourse(db, course.ID, CoursePatch{
		Videos: []VideoPatch{{VideoID: video.ID, Homework: &empty}},
	}); err != nil {
		t.Fatalf("PatchCourse: %v", err)
	}
	var count int64
	db.Model(&models.Homework{}).Where("video_id = ?", video.ID).Count(&count)
	if count != 0 {
		t.Fatal("пустой текст должен удалять домашку")
	}
}

func TestCourseIfAvailableDeniedWithoutAccess(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	course, _ := createCourse(t, db, 2, 1000, nil)

	_, _, err := CourseIfAvailable(db, user, course.ID)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("ожидалась ErrAccessDenied, получено: %v", err)
	}
}

func TestAvailableVideosHonorsWindows(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	course, _ := createCourse(t, db, 3, 1000, nil)
	videos := courseVideos(t, db, course.ID)

	// Первый урок открыт, второй еще не открылся, третий истек
	now := time.Now()
	expired := now.Add(-time.Hour)
	rows := []models.Access{
		{UserID: user.ID, VideoID: videos[0].ID, BeginDate: now.Add(-time.Hour)},
		{UserID: user.ID, VideoID: videos[1].ID, BeginDate: now.Add(time.Hour)},
		{UserID: user.ID, VideoID: videos[2].ID, BeginDate: now.Add(-48 * time.Hour), EndDate: &expired},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("доступы не созданы: %v", err)
	}

	available, err := AvailableVideos(db, user, course.ID)
	if err != nil {
		t.Fatalf("AvailableVideos: %v", err)
	}
	if len(available) != 1 || available[0].ID != videos[0].ID {
		t.Fatalf("доступен должен быть только первый урок, получено: %+v", available)
	}
}

func TestCoursesForStudentWithProgress(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	course, _ := createCourse(t, db, 2, 1000, nil)
	openAccess(t, db, user.ID, course.ID)

	// Курс без единого события прогресса: процент не задан
	courses, err := CoursesForStudent(db, user)
	if err != nil {
		t.Fatalf("CoursesForStudent: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("курсов %d, ожидался 1", len(courses))
	}
	if courses[0].ProgressPercent != nil {
		t.Fatalf("прогресса еще нет, получено %v", *courses[0].ProgressPercent)
	}

	videos := courseVideos(t, db, course.ID)
	if _, err := RecordVideoProgress(db, user, videos[0].ID, 100); err != nil {
		t.Fatalf("RecordVideoProgress: %v", err)
	}

	courses, err = CoursesForStudent(db, user)
	if err != nil {
		t.Fatalf("CoursesForStudent: %v", err)
	}
	if courses[0].ProgressPercent == nil || *courses[0].ProgressPercent != 50 {
		t.Fatalf("процент по курсу: %v, ожидалось 50", courses[0].ProgressPercent)
	}
}

func TestCourseApplicationMarksRegistered(t *testing.T) {
	db := setupDB(t)
	course, _ := createCourse(t, db, 1, 1000, nil)
	createUser(t, db, "known@test.io", models.RoleStudent)

	known, err := AddCourseApplication(db, course.ID, "Айбек", "0700123456", "known@test.io")
	if err != nil {
		t.Fatalf("AddCourseApplication: %v", err)
	}
	if !known.IsRegistered {
		t.Fatal("заявка от зарегистрированного email должна иметь is_registered = true")
	}

	unknown, err := AddCourseApplication(db, course.ID, "Гость", "0700000000", "guest@test.io")
	if err != nil {
		t.Fatalf("AddCourseApplication: %v", err)
	}
	if unknown.IsRegistered {
		t.Fatal("заявка от незнакомого email должна иметь is_registered = false")
	}

	applications, err := ListApplications(db)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(applications) != 2 {
		t.Fatalf("заявок %d, ожидалось 2", len(applications))
	}

	if err := DeleteApplication(db, known.ID); err != nil {
		t.Fatalf("DeleteApplication: %v", err)
	}
	if err := DeleteApplication(db, known.ID); err == nil {
		t.Fatal("повторное удаление должно вернуть ошибку")
	}
}

func TestDeleteCourseUnknown(t *testing.T) {
	db := setupDB(t)
	if err := DeleteCourse(db, 777); err == nil {
		t.Fatal("удаление несуществующего курса должно вернуть ошибку")
	}
}
