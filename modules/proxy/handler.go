package proxy

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/metrics"
	"neue-studio-server/modules/studio"
)

const allowedHeaders = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version"

var errMissingServerKey = errors.New("Server Error: GEMINI_API_KEY is missing in environment.")

// SafetySettings - 호출자 설정과 무관하게 항상 적용
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
		})
	}
	return settings
}

// Handler - POST /api/generate. 서버 키로 프로바이더 호출을 대행
type Handler struct {
	cfg       *config.Config
	newModels studio.ModelsFactory
	limiter   *rate.Limiter
}

func NewHandler(cfg *config.Config, newModels studio.ModelsFactory) *Handler {
	h := &Handler{cfg: cfg, newModels: newModels}
	if cfg.ProxyRateLimit > 0 {
		burst := int(cfg.ProxyRateLimit)
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(cfg.ProxyRateLimit), burst)
		log.Printf("🚦 [Proxy] Rate limit: %.2f req/s (burst %d)", cfg.ProxyRateLimit, burst)
	}
	return h
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/generate", h.HandleGenerate)
}

// errorBody - 4xx/5xx 응답
type errorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
	Stack   string          `json:"stack,omitempty"`
}

// requestBody - contents 는 여러 형태를 허용하므로 원시 JSON 으로 받음
type requestBody struct {
	ModelName string                       `json:"modelName"`
	Contents  json.RawMessage              `json:"contents"`
	Config    *genai.GenerateContentConfig `json:"config"`
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		log.Printf("⚠️ [Proxy] Rate limited")
		h.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too Many Requests"})
		return
	}

	if err := h.generate(w, r); err != nil {
		log.Printf("❌ [Proxy] %v", err)
		resp := errorBody{Error: err.Error()}
		if !h.cfg.IsProduction() {
			resp.Stack = fmt.Sprintf("%+v", err)
		}
		h.writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// generate - 응답을 직접 쓰거나 500 으로 변환될 에러를 반환
func (h *Handler) generate(w http.ResponseWriter, r *http.Request) error {
	if strings.TrimSpace(h.cfg.GeminiAPIKey) == "" && !h.cfg.UseVertexAI {
		return errMissingServerKey
	}

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	if body.ModelName == "" {
		return errors.New("modelName is required")
	}

	contents, err := DecodeContents(body.Contents)
	if err != nil {
		return err
	}

	genConfig := body.Config
	if genConfig == nil {
		genConfig = &genai.GenerateContentConfig{}
	}
	genConfig.SafetySettings = SafetySettings()

	log.Printf("📤 [Proxy] Generating with model: %s (contents: %d)", body.ModelName, len(contents))

	models, err := h.newModels(r.Context(), h.cfg.GeminiAPIKey)
	if err != nil {
		return errors.WithStack(err)
	}

	resp, err := models.GenerateContent(r.Context(), body.ModelName, contents, genConfig)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp == nil {
		return errors.New("No response object returned from Google AI.")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		log.Printf("❌ [Proxy] No candidates returned (feedback: %s)", studio.PromptFeedbackDetail(resp.PromptFeedback))
		body := errorBody{Error: "No candidates returned from AI"}
		if resp.PromptFeedback != nil {
			body.Details = marshalDetails(resp.PromptFeedback)
		}
		h.writeJSON(w, http.StatusInternalServerError, body)
		return nil
	}

	candidate := resp.Candidates[0]
	finishReason := string(candidate.FinishReason)
	if !studio.IsUsableFinishReason(finishReason) {
		log.Printf("⚠️ [Proxy] Generation stopped: %s", finishReason)
		h.writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   fmt.Sprintf("Generation Stopped. Reason: %s", finishReason),
			Details: marshalDetails(candidate),
		})
		return nil
	}

	out := studio.ExtractCandidate(candidate)
	result := studio.ProxyResponse{Success: true, FinishReason: finishReason}
	if out.Image != nil {
		image := studio.DataURI(out.MIMEType, out.Image)
		result.Image = &image
	}
	if out.Text != "" {
		result.Text = &out.Text
	}

	log.Printf("✅ [Proxy] Done: image=%v, finish=%q", result.Image != nil, finishReason)
	h.writeJSON(w, http.StatusOK, result)
	return nil
}

// DecodeContents - 배열 / {contents: ...} / {parts: [...]} / 문자열 모두 허용
func DecodeContents(raw json.RawMessage) ([]*genai.Content, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, errors.New("contents is required")
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errors.Wrap(err, "invalid contents")
		}
		return []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil
	case '[':
		var contents []*genai.Content
		if err := json.Unmarshal(raw, &contents); err != nil {
			return nil, errors.Wrap(err, "invalid contents")
		}
		return contents, nil
	case '{':
		var probe struct {
			Contents json.RawMessage `json:"contents"`
			Parts    json.RawMessage `json:"parts"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, errors.Wrap(err, "invalid contents")
		}
		if probe.Contents != nil {
			return DecodeContents(probe.Contents)
		}
		if probe.Parts != nil {
			var content genai.Content
			if err := json.Unmarshal(raw, &content); err != nil {
				return nil, errors.Wrap(err, "invalid contents")
			}
			if content.Role == "" {
				content.Role = string(genai.RoleUser)
			}
			return []*genai.Content{&content}, nil
		}
	}
	return nil, errors.New("unsupported contents shape")
}

func marshalDetails(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS,PATCH,DELETE,POST,PUT")
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	metrics.ObserveProxyResponse(strconv.Itoa(status))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Proxy] Failed to encode response: %v", err)
	}
}
