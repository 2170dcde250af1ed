package middleware

import (
	"crypto/subtle"
	"net/http"
)

// DebugAuth - middleware для защиты debug/pprof endpoints
//
// Назначение:
// Защищает /debug/pprof/* от неавторизованного доступа через
// HTTP Basic Authentication.
//
// Конфигурация:
// - DEBUG_USERNAME / DEBUG_PASSWORD из конфига процесса
// - Если credentials не заданы, debug endpoints закрыты (403)
//
// Безопасность:
// - Constant-time сравнение для предотвращения timing attacks
func DebugAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Без настроенных credentials debug недоступен
			if username == "" || password == "" {
				http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD.", http.StatusForbidden)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

			if !userMatch || !passMatch {
				w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
