package personal

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/s/courseMarket/internal/handlers"
	"github.com/s/courseMarket/internal/service"
)

type Service struct {
	handlers.Handler
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// MyCoursesAPI - купленные курсы текущего студента с процентом прохождения
func (s *Service) MyCoursesAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := handlers.UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	courses, err := service.CoursesForStudent(s.DB, user)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// MyCourseAPI - курс с открытыми на сегодня уроками.
// Уроки, чье окно доступа еще не наступило или уже закрылось, не отдаются.
func (s *Service) MyCourseAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := handlers.UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	courseID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		jsonError(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	course, videos, err := service.CourseIfAvailable(s.DB, user, uint(courseID))
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	progress, err := service.GetCourseProgress(s.DB, user.ID, uint(courseID))
	if err != nil {
		handlers.RespondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"course":   course,
		"videos":   videos,
		"progress": progress,
	})
}
