package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liqwatch/internal/api/handlers"
	"liqwatch/internal/api/middleware"
)

// Dependencies содержит зависимости операционного API
type Dependencies struct {
	// Status - источник снапшота счётчиков движка (обычно *watcher.Engine)
	Status handlers.StatusProvider

	// DebugUsername/DebugPassword защищают /debug/pprof
	DebugUsername string
	DebugPassword string
}

// SetupRoutes настраивает HTTP маршруты операционного сервера
//
// Назначение:
// Сервер не пользовательский, а эксплуатационный: liveness-проверка,
// статус цикла ликвидаций, метрики и профилирование.
//
// Структура маршрутов:
//
//	GET /health           - liveness
//	GET /api/v1/status    - снапшот счётчиков движка
//	GET /metrics          - prometheus метрики
//	    /debug/pprof/*    - профилирование (за basic auth)
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. DebugAuth (только для /debug)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler()
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// API v1 routes
	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	var statusProvider handlers.StatusProvider
	if deps != nil {
		statusProvider = deps.Status
	}
	statusHandler := handlers.NewStatusHandler(statusProvider)
	apiRouter.HandleFunc("/status", statusHandler.GetStatus).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Debug/pprof за basic auth
	var debugUser, debugPass string
	if deps != nil {
		debugUser = deps.DebugUsername
		debugPass = deps.DebugPassword
	}
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth(debugUser, debugPass))
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").Handler(http.HandlerFunc(pprof.Index))

	return router
}
