package admin

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

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	return uint(id), err == nil
}

// ==========================================
// Пользователи
// ==========================================

// GetUsersAPI - список пользователей. Админ видит всех, преподаватель
// только студентов своих курсов.
func (serv Service) GetUsersAPI(w http.ResponseWriter, r *http.Request) {
	current, ok := handlers.UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := service.ListUsers(serv.DB, current)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (serv Service) GetUserAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	user, err := service.GetUser(serv.DB, id)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (serv Service) UpdateUserAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	var patch service.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(patch); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := service.PatchUser(serv.DB, id, patch)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (serv Service) DeleteUserAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := service.DeleteUser(serv.DB, id); err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ==========================================
// Заявки с лендинга
// ==========================================

func (serv Service) GetApplicationsAPI(w http.ResponseWriter, r *http.Request) {
	applications, err := service.ListApplications(serv.DB)
	if err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applications)
}

func (serv Service) DeleteApplicationAPI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, "Invalid application id", http.StatusBadRequest)
		return
	}

	if err := service.DeleteApplication(serv.DB, id); err != nil {
		handlers.RespondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
