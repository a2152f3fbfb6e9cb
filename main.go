package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"neue-studio-server/modules/auth"
	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/database"
	"neue-studio-server/modules/common/metrics"
	"neue-studio-server/modules/common/redis"
	"neue-studio-server/modules/common/storage"
	"neue-studio-server/modules/consult"
	"neue-studio-server/modules/gallery"
	"neue-studio-server/modules/proxy"
	"neue-studio-server/modules/studio"
)

// proxyPath - 자체 CORS/OPTIONS 처리를 하는 경로
const proxyPath = "/api/generate"

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == proxyPath {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+studio.ClientIDHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "neue-studio-server",
	})
}

// routeRegistrar - 기능 모듈 핸들러
type routeRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// newRouter - 공통 라우트 + 기능 모듈 라우트
func newRouter(registrars ...routeRegistrar) *mux.Router {
	r := mux.NewRouter()

	// CORS 미들웨어 적용
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	for _, registrar := range registrars {
		registrar.RegisterRoutes(r)
	}

	// 메서드가 GET 뿐인 경로도 preflight 는 CORS 미들웨어가 응답하도록 마지막에 등록
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis 가 없으면 메모리 저장소로 동작
	var (
		credentials  studio.CredentialStore
		sessionStore consult.Store
	)
	if rdb := redis.Connect(cfg); rdb != nil {
		defer rdb.Close()
		credentials = studio.NewRedisCredentialStore(rdb)
		sessionStore = consult.NewRedisStore(rdb)
	} else {
		log.Println("⚠️  Redis unavailable - using in-memory credential and session stores")
		credentials = studio.NewMemoryCredentialStore()
		memoryStore := consult.NewMemoryStore()
		memoryStore.StartCleanupRoutine(ctx, 10*time.Minute)
		sessionStore = memoryStore
	}

	dbClient, err := database.NewClient(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create database client: %v", err)
	}

	newModels := studio.DefaultModelsFactory(cfg)

	studioService := studio.NewService(cfg, credentials, sessionStore, newModels)
	consultService := consult.NewService(sessionStore, studioService)
	galleryService := gallery.NewService(dbClient, storage.NewClient(cfg))
	verifier := auth.NewSupabaseVerifier(dbClient.Supabase())

	r := newRouter(
		proxy.NewHandler(cfg, newModels),
		studio.NewHandler(studioService),
		consult.NewHandler(consultService, consult.NewHub(consultService)),
		gallery.NewHandler(galleryService, verifier),
	)

	port := cfg.Port

	log.Printf("🚀 Neue Studio Server starting on port %s", port)
	log.Printf("🎨 Studio: http://localhost:%s/api/studio/generate", port)
	log.Printf("🔀 Proxy: http://localhost:%s%s", port, proxyPath)
	log.Printf("📡 Consult WebSocket: ws://localhost:%s/ws/consult", port)
	log.Printf("❤️  Health check: http://localhost:%s/health", port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", port)

	// 서버 시작
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
