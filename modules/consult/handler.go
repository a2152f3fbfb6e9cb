package consult

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"neue-studio-server/modules/studio"
)

type Handler struct {
	service *Service
	hub     *Hub
}

func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// RegisterRoutes - /api/consult/* + /ws/consult
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/consult/sessions", h.HandleCreate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/consult/sessions/{id}", h.HandleGet).Methods("GET")
	r.HandleFunc("/api/consult/sessions/{id}/messages", h.HandleSend).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/consult/sessions/{id}/uploads", h.HandleUpload).Methods("POST", "OPTIONS")
	r.HandleFunc("/ws/consult", h.hub.HandleWebSocket)
}

type createRequest struct {
	Config *studio.GenerationConfig `json:"config"`
}

type sendRequest struct {
	Content string `json:"content"`
}

type uploadRequest struct {
	Count int `json:"count"`
}

type sessionResponse struct {
	Session studio.ConsultSession `json:"session"`
	Reply   string                `json:"reply,omitempty"`
}

// HandleCreate - POST /api/consult/sessions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
	}
	cfg := studio.DefaultGenerationConfig()
	if req.Config != nil {
		cfg = *req.Config
	}

	session, err := h.service.Create(r.Context(), cfg)
	if err != nil {
		log.Printf("❌ [Consult] Create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: session})
}

// HandleGet - GET /api/consult/sessions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: session})
}

// HandleSend - POST /api/consult/sessions/{id}/messages
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	// 전송 잠금(inFlightTTL)이 풀리기 전에 모델 호출이 끝나도록 상한을 둠
	ctx, cancel := context.WithTimeout(r.Context(), sendTimeout)
	defer cancel()

	id := mux.Vars(r)["id"]
	session, reply, err := h.service.Send(ctx, r.Header.Get(studio.ClientIDHeader), id, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.hub.Broadcast(id, Event{Type: EventReply, SessionID: id, Content: reply, Messages: session.Messages})
	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Reply: reply})
}

// HandleUpload - POST /api/consult/sessions/{id}/uploads
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be positive")
		return
	}

	id := mux.Vars(r)["id"]
	session, err := h.service.NoteUpload(r.Context(), id, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.hub.Broadcast(id, Event{Type: EventSession, SessionID: id, Messages: session.Messages})
	writeJSON(w, http.StatusOK, sessionResponse{Session: session})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studio.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("❌ [Consult] %v", err)
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
		log.Printf("❌ [Consult] Failed to encode response: %v", err)
	}
}
