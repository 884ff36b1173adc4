package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/s/courseMarket/internal/service"
)

// VideoCallbackAPI - плеер периодически сообщает процент просмотра.
// В ответе прогресс по уроку вместе с агрегатом по курсу.
func (h *Handler) VideoCallbackAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		VideoID         uint `json:"video_id" validate:"required"`
		ProgressPercent int  `json:"progress_percent" validate:"min=0,max=100"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	progress, err := service.RecordVideoProgress(h.DB, user, input.VideoID, input.ProgressPercent)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
