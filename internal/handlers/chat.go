package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/s/courseMarket/internal/models"
	"github.com/s/courseMarket/internal/service"
)

// MyChatsAPI - чаты текущего студента
func (h *Handler) MyChatsAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chats, err := service.ChatsForStudent(h.DB, user)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// TeacherChatsAPI - чаты по курсам преподавателя, сгруппированные по курсу
func (h *Handler) TeacherChatsAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	grouped, err := service.ChatsForTeacher(h.DB, user)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// ChatItemsAPI - треды чата с сообщениями; открытие помечает прочитанным.
// ?sender= обязателен: он определяет, чьи флаги прочтения обновлять.
func (h *Handler) ChatItemsAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		jsonError(w, "Invalid chat id", http.StatusBadRequest)
		return
	}
	sender := r.URL.Query().Get("sender")
	if sender != models.SenderStudent && sender != models.SenderTeacher {
		jsonError(w, "Query parameter 'sender' must be STUDENT or TEACHER", http.StatusBadRequest)
		return
	}

	threads, err := service.ChatItems(h.DB, user, uint(chatID), sender)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

// AddChatLineAPI - новое сообщение в тред домашки
func (h *Handler) AddChatLineAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input service.AddChatLineInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	line, err := service.AddChatLine(h.DB, user, input)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}
