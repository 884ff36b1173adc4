package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/s/courseMarket/internal/auth"
	"github.com/s/courseMarket/internal/database"
	"github.com/s/courseMarket/internal/handlers"
	"github.com/s/courseMarket/internal/handlers/admin"
	"github.com/s/courseMarket/internal/handlers/personal"
	"github.com/s/courseMarket/internal/middleware"
	"github.com/s/courseMarket/internal/models"
	"github.com/s/courseMarket/internal/payments"
)

func main() {
	// ---------------------------
	// 0. Загрузка переменных окружения
	// ---------------------------
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: Не удалось загрузить файл .env. Используются системные переменные.")
	}

	// ---------------------------
	// 1. Подключаем GORM (База данных)
	// ---------------------------
	db, err := database.Connect()
	if err != nil {
		log.Fatal("Ошибка подключения к БД:", err)
	}

	// ---------------------------
	// 2. Делаем миграции
	// ---------------------------
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Ошибка миграции:", err)
	}

	// ---------------------------
	// 3. Запускаем сиды
	// ---------------------------
	if err := database.Seed(db); err != nil {
		log.Println("Ошибка сидов (возможно, данные уже есть):", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// ---------------------------
	// 4. Платежный провайдер
	// ---------------------------
	var provider payments.Provider
	if serverKey := os.Getenv("MIDTRANS_SERVER_KEY"); serverKey != "" {
		provider = payments.NewMidtransProvider(serverKey, os.Getenv("MIDTRANS_PRODUCTION") == "true")
		log.Println("Платежи: Midtrans Snap")
	} else {
		baseURL := os.Getenv("PUBLIC_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:" + port
		}
		provider = payments.CallbackProvider{BaseURL: baseURL}
		log.Println("Платежи: заглушка с прямым callback (MIDTRANS_SERVER_KEY не задан)")
	}

	// ---------------------------
	// 5. Google OAuth (опционально)
	// ---------------------------
	var oauthConfig *oauth2.Config
	clientId := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if clientId != "" && clientSecret != "" && redirectURL != "" {
		oauthConfig = auth.InitGoogleOAuthConfig(clientId, clientSecret, redirectURL)
	} else {
		log.Println("Переменные GOOGLE_... не заданы, вход через Google отключен")
	}

	// ---------------------------
	// 6. Настройка сессий
	// ---------------------------
	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		sessionKey = "super-secret-default-key" // Только для разработки!
		log.Println("Внимание: SESSION_KEY не задан, используется дефолтный.")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false, // Поставьте true, если используете HTTPS
	}

	// ---------------------------
	// 7. Инициализация хендлеров
	// ---------------------------
	h := handlers.NewHandler(db, store, oauthConfig, provider)

	adminService := admin.Service{Handler: *h}
	personalService := personal.Service{Handler: *h}

	authRequired := middleware.RequireRole(h)
	teacherOnly := middleware.RequireRole(h, models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRole(h, models.RoleAdmin)

	// ---------------------------
	// 8. Роутинг с Gorilla Mux
	// ---------------------------
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/courses/landing", h.LandingCoursesAPI).Methods("GET")
	api.HandleFunc("/applications", h.AddApplicationAPI).Methods("POST")

	api.HandleFunc("/auth/register/start", h.RegisterStartAPI).Methods("POST")
	api.HandleFunc("/auth/register", h.RegisterAPI).Methods("POST")
	api.HandleFunc("/auth/login", h.LoginAPI).Methods("POST")
	if oauthConfig != nil {
		r.HandleFunc("/auth/google/login", h.HandleGoogleLogin).Methods("GET")
		r.HandleFunc("/auth/google/callback", h.HandleGoogleCallback).Methods("GET")
	}

	// Callback платежей: по ссылке ходит покупатель, по notification - Midtrans
	api.HandleFunc("/payments/callback/{order_id}", h.PaymentCallbackAPI).Methods("GET")
	api.HandleFunc("/payments/notification", h.MidtransNotificationAPI).Methods("POST")

	// --- Кабинет студента ---
	api.HandleFunc("/auth/logout", authRequired(h.LogoutAPI)).Methods("POST")
	api.HandleFunc("/users/me", authRequired(h.MeAPI)).Methods("GET")

	api.HandleFunc("/payments", authRequired(h.CreateOrderAPI)).Methods("POST")

	api.HandleFunc("/courses", authRequired(personalService.MyCoursesAPI)).Methods("GET")
	api.HandleFunc("/courses/{id}", authRequired(personalService.MyCourseAPI)).Methods("GET")
	api.HandleFunc("/videos/callback", authRequired(h.VideoCallbackAPI)).Methods("POST")

	// --- Чаты домашних заданий ---
	// /chats/teacher регистрируем раньше /chats/{id}
	api.HandleFunc("/chats/teacher", teacherOnly(h.TeacherChatsAPI)).Methods("GET")
	api.HandleFunc("/chats", authRequired(h.MyChatsAPI)).Methods("GET")
	api.HandleFunc("/chats/{id}", authRequired(h.ChatItemsAPI)).Methods("GET")
	api.HandleFunc("/chats/lines", authRequired(h.AddChatLineAPI)).Methods("POST")

	// --- АДМИН API (JSON для фронтенда) ---
	api.HandleFunc("/admin/courses", teacherOnly(adminService.CreateCourseAPI)).Methods("POST")
	api.HandleFunc("/admin/courses/{id}", teacherOnly(adminService.GetCourseAPI)).Methods("GET")
	api.HandleFunc("/admin/courses/{id}", teacherOnly(adminService.UpdateCourseAPI)).Methods("PUT")
	api.HandleFunc("/admin/courses/{id}", adminOnly(adminService.DeleteCourseAPI)).Methods("DELETE")

	api.HandleFunc("/admin/users", teacherOnly(adminService.GetUsersAPI)).Methods("GET")
	api.HandleFunc("/admin/users/{id}", adminOnly(adminService.GetUserAPI)).Methods("GET")
	api.HandleFunc("/admin/users/{id}", adminOnly(adminService.UpdateUserAPI)).Methods("PUT")
	api.HandleFunc("/admin/users/{id}", adminOnly(adminService.DeleteUserAPI)).Methods("DELETE")

	api.HandleFunc("/admin/applications", adminOnly(adminService.GetApplicationsAPI)).Methods("GET")
	api.HandleFunc("/admin/applications/{id}", adminOnly(adminService.DeleteApplicationAPI)).Methods("DELETE")

	// ---------------------------
	// 9. Запуск сервера
	// ---------------------------
	corsHandler := corsMiddleware(r)
	fmt.Printf("Сервер запущен: http://localhost:%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с любого источника (для разработки)
		// В продакшене лучше ставить конкретный домен
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
