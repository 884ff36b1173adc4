package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
	"github.com/s/courseMarket/internal/payments"
	"github.com/s/courseMarket/internal/service"
	"github.com/s/courseMarket/internal/storage"
)

type Handler struct {
	DB       *gorm.DB
	Store    *sessions.CookieStore
	Config   *oauth2.Config
	Payments payments.Provider
}

func NewHandler(db *gorm.DB, store *sessions.CookieStore, config *oauth2.Config, provider payments.Provider) *Handler {
	return &Handler{
		DB:       db,
		Store:    store,
		Config:   config,
		Payments: provider,
	}
}

var validate = validator.New()

type contextKey string

const userContextKey contextKey = "current_user"

// WithUser кладет аутентифицированного пользователя в контекст запроса
func WithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

// UserFrom достает пользователя, положенного middleware
func UserFrom(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}

// CurrentUser валидирует токен из заголовка Authorization.
// Принимаем и "Bearer <token>", и голый токен.
func (h *Handler) CurrentUser(r *http.Request) (*models.User, error) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	return service.UserByToken(h.DB, token)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RespondError — общая точка входа для подпакетов хендлеров
func RespondError(w http.ResponseWriter, err error) {
	serviceError(w, err)
}

// serviceError переводит типизированную ошибку сервиса в HTTP-ответ
func serviceError(w http.ResponseWriter, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		jsonError(w, svcErr.Message, svcErr.Code)
		return
	}
	log.Printf("Internal error: %v", err)
	jsonError(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// RegisterStartAPI - первый шаг регистрации, создает заявку с хэшом
func (h *Handler) RegisterStartAPI(w http.ResponseWriter, r *http.Request) {
	var input service.StartRegistrationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := service.StartRegistration(h.DB, input)
	if err != nil {
		serviceError(w, err)
		return
	}
	// Пока письма не отправляются, хэш отдаем прямо в ответе
	writeJSON(w, http.StatusCreated, map[string]string{"hash": hash})
}

// RegisterAPI - завершение регистрации: пароль + данные профиля
func (h *Handler) RegisterAPI(w http.ResponseWriter, r *http.Request) {
	var input service.CompleteRegistrationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := service.CompleteRegistration(h.DB, input)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": user.Token,
	})
}

func (h *Handler) LoginAPI(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := service.Login(h.DB, input.Email, input.Password)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": user.Token,
	})
}

func (h *Handler) LogoutAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := service.Logout(h.DB, user); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MeAPI - профиль текущего пользователя
func (h *Handler) MeAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.Config.AuthCodeURL("random_state")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *Handler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("state") != "random_state" {
		jsonError(w, "Invalid state", http.StatusUnauthorized)
		return
	}

	code := r.URL.Query().Get("code")
	token, err := h.Config.Exchange(context.Background(), code)
	if err != nil {
		jsonError(w, "Token exchange error", http.StatusBadRequest)
		return
	}

	client := h.Config.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		jsonError(w, "Google API error", http.StatusBadRequest)
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"given_name"`
		Surname string `json:"family_name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		jsonError(w, "JSON decode error", http.StatusInternalServerError)
		return
	}

	user, err := storage.SaveGoogleUser(h.DB, storage.GoogleProfile{
		GoogleID:      userInfo.ID,
		Email:         userInfo.Email,
		Name:          userInfo.Name,
		LastName:      userInfo.Surname,
		ProfilePicURL: userInfo.Picture,
	})
	if err != nil {
		jsonError(w, "DB save error", http.StatusInternalServerError)
		return
	}

	// Сессия остается для веб-клиента, API-клиенты используют токен
	session, _ := h.Store.Get(r, "session")
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   86400 * 7,
	}
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": user.Token,
	})
}
