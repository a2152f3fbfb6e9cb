package studio

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ClientIDHeader - 저장 키를 구분하는 클라이언트 식별자
const ClientIDHeader = "X-Client-Id"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - /api/studio/*
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/studio/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/studio/tags", h.HandleListTags).Methods("GET")
	r.HandleFunc("/api/studio/tags", h.HandleInferTags).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/studio/credential", h.HandleCredential).Methods("GET", "PUT", "DELETE", "OPTIONS")
}

// HandleGenerate - POST /api/studio/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Studio] Invalid request: %v", err)
		writeJSON(w, http.StatusBadRequest, GenerateResponse{
			ErrorCode:    CodeInvalidRequest,
			ErrorMessage: "Invalid request format",
		})
		return
	}
	if req.Mode == "" {
		req.Mode = ModeFast
	}

	resp := h.service.Generate(r.Context(), clientID(r), req)
	if resp.Success {
		log.Printf("✅ [Studio] Response sent: model=%s", resp.ModelID)
	} else {
		log.Printf("⚠️ [Studio] Generation not successful: code=%s, model=%s", resp.ErrorCode, resp.ModelID)
	}
	writeJSON(w, StatusForCode(resp.ErrorCode), resp)
}

// HandleListTags - GET /api/studio/tags
func (h *Handler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories":   TagCategories,
		"aspectRatios": AspectRatios,
		"defaults":     DefaultGenerationConfig(),
	})
}

// HandleInferTags - POST /api/studio/tags
func (h *Handler) HandleInferTags(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	suggestion := h.service.InferTags(r.Context(), clientID(r), req.Text)
	resp := TagsResponse{Suggestion: suggestion}
	if req.Config != nil {
		applied := suggestion.ApplyTo(*req.Config)
		resp.Config = &applied
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCredential - GET 상태 / PUT 저장 / DELETE 삭제
func (h *Handler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.service.CredentialStatus(r.Context(), id))
	case http.MethodPut:
		var req CredentialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
			return
		}
		if err := h.service.SaveCredential(r.Context(), id, req.APIKey); err != nil {
			log.Printf("❌ [Studio] Save credential failed: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, h.service.CredentialStatus(r.Context(), id))
	case http.MethodDelete:
		if err := h.service.ClearCredential(r.Context(), id); err != nil {
			log.Printf("❌ [Studio] Clear credential failed: %v", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, h.service.CredentialStatus(r.Context(), id))
	}
}

// StatusForCode - 에러 코드 → HTTP 상태
func StatusForCode(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeSessionNotFound:
		return http.StatusNotFound
	case string(ReasonMissingCredential):
		return http.StatusUnauthorized
	case string(ReasonPermissionDenied):
		return http.StatusForbidden
	case string(ReasonTimeout):
		return http.StatusGatewayTimeout
	case string(ReasonBlockedContent), string(ReasonTextOnly):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func clientID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ClientIDHeader))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Studio] Failed to encode response: %v", err)
	}
}
