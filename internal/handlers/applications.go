package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/s/courseMarket/internal/service"
)

// LandingCoursesAPI - публичный каталог курсов для лендинга
func (h *Handler) LandingCoursesAPI(w http.ResponseWriter, r *http.Request) {
	courses, err := service.LandingCourses(h.DB)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// AddApplicationAPI - заявка на курс с лендинга, доступна без входа
func (h *Handler) AddApplicationAPI(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CourseID uint   `json:"course_id" validate:"required"`
		Name     string `json:"name" validate:"required,max=30"`
		Phone    string `json:"phone" validate:"required,len=10,numeric"`
		Email    string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	application, err := service.AddCourseApplication(h.DB, input.CourseID, input.Name, input.Phone, input.Email)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, application)
}
