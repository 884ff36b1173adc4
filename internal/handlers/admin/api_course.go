package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/s/courseMarket/internal/handlers"
	"github.com/s/courseMarket/internal/service"
)

var validate = validator.New()

// ==========================================
// Курсы
// ==========================================

// CreateCourseAPI - новый курс вместе с уроками и продуктами
func (serv Service) CreateCourseAPI(w http.ResponseWriter, r *http.Request) {
	author, ok := handlers.UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input service.CreateCourseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	course, err := service.CreateCourse(serv.DB, author, input)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

// GetCourseAPI - курс со всеми связями для формы редактирования
func (serv Service) GetCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	course, err := service.GetCourse(serv.DB, id)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// UpdateCourseAPI - частичное обновление; landing_info сливается по ключам
func (serv Service) UpdateCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	var patch service.CoursePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(patch); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	course, err := service.PatchCourse(serv.DB, id, patch)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (serv Service) DeleteCourseAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	if err := service.DeleteCourse(serv.DB, id); err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
