package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/s/courseMarket/internal/handlers"
)

// RequireRole создает Middleware, пропускающее только перечисленные роли.
// Без списка ролей — достаточно любого валидного токена.
func RequireRole(h *handlers.Handler, roles ...string) func(next http.HandlerFunc) http.HandlerFunc {
	// Возвращаем функцию-обертку, которая принимает следующий обработчик (next)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Проверка аутентификации по токену
			user, err := h.CurrentUser(r)
			if err != nil {
				deny(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. Проверка роли, если список задан
			if len(roles) > 0 {
				allowed := false
				for _, role := range roles {
					if user.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					deny(w, "Access denied", http.StatusForbidden)
					return
				}
			}

			// 3. Кладем пользователя в контекст и идем дальше
			next.ServeHTTP(w, handlers.WithUser(r, user))
		}
	}
}

func deny(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
