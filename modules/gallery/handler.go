package gallery

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"neue-studio-server/modules/auth"
	"neue-studio-server/modules/common/model"
	"neue-studio-server/modules/studio"
)

type Handler struct {
	service  *Service
	verifier auth.Verifier
}

func NewHandler(service *Service, verifier auth.Verifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// RegisterRoutes - /api/gallery/*
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/gallery", h.HandleList).Methods("GET")
	r.HandleFunc("/api/gallery", h.HandlePublish).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/gallery/likes", h.HandleLikedIDs).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/gallery/{id}/like", h.HandleToggleLike).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/gallery/{id}/use", h.HandleUsePrompt).Methods("POST", "OPTIONS")
}

type publishRequest struct {
	Image  string                  `json:"image"`
	Prompt string                  `json:"prompt"`
	Config studio.GenerationConfig `json:"config"`
}

type listResponse struct {
	Items  []model.GalleryItem `json:"items"`
	Styles []string            `json:"styles"`
}

type likeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// HandleList - GET /api/gallery?sort=trending|newest&style=...&compact=true
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	compact, _ := strconv.ParseBool(q.Get("compact"))
	opts := ListOptions{
		Sort:    q.Get("sort"),
		Style:   q.Get("style"),
		Compact: compact,
	}

	items, styles, err := h.service.Browse(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Styles: styles})
}

// HandlePublish - POST /api/gallery (로그인 필요)
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := auth.RequireUser(r.Context(), h.verifier, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	item, err := h.service.Publish(r.Context(), userID, req.Image, req.Config, req.Prompt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"item": item})
}

// HandleLikedIDs - GET /api/gallery/likes (로그인 필요)
func (h *Handler) HandleLikedIDs(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := auth.RequireUser(r.Context(), h.verifier, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ids, err := h.service.LikedIDs(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ids": ids})
}

// HandleToggleLike - POST /api/gallery/{id}/like (로그인 필요)
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID, err := auth.RequireUser(r.Context(), h.verifier, r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	liked, likes, err := h.service.ToggleLike(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked, Likes: likes})
}

// HandleUsePrompt - POST /api/gallery/{id}/use
func (h *Handler) HandleUsePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	cfg, err := h.service.UsePrompt(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"config": cfg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("❌ [Gallery] %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Gallery] Failed to encode response: %v", err)
	}
}
