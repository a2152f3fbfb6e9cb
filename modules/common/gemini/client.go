package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"neue-studio-server/modules/common/config"
)

// ContentGenerator - generateContent 호출 단위. *genai.Models 가 그대로 만족함
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient - API 키(또는 Vertex 설정)로 genai 클라이언트 생성
// apiKey 가 비어 있고 Vertex 모드가 아니면 에러
func NewClient(ctx context.Context, cfg *config.Config, apiKey string) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	if cfg != nil && cfg.UseVertexAI {
		clientConfig = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.GoogleProject,
			Location: cfg.GoogleLocation,
		}
	} else if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// NewContentGenerator - 요청 단위로 사용할 ContentGenerator 생성
func NewContentGenerator(ctx context.Context, cfg *config.Config, apiKey string) (ContentGenerator, error) {
	client, err := NewClient(ctx, cfg, apiKey)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// IsPermissionError - 모델 접근 거부(403) 계열 에러인지 확인
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden || IsPermissionMessage(apiErr.Message)
	}
	return IsPermissionMessage(err.Error())
}

// IsPermissionMessage - 프로바이더 메시지 문자열 기준 판별
// 상태 코드는 "Error 403" / "status 403" 형태만 인정 (ID, 바이트 수 등의 숫자 오탐 방지)
func IsPermissionMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "error 403") ||
		strings.Contains(lower, "status 403") ||
		strings.Contains(lower, "status code 403") ||
		strings.Contains(lower, "permission_denied") ||
		strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "does not have permission") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "api key not valid")
}

// IsRateLimitError - 429 Rate Limit 에러인지 확인 (로그용, 재시도는 하지 않음)
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)
	return strings.Contains(errStr, "429") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "quota")
}

// LogCallError - 호출 실패 공통 로그
func LogCallError(module, model string, err error) {
	switch {
	case IsPermissionError(err):
		log.Printf("🔒 [%s] Permission denied for model %s: %v", module, model, err)
	case IsRateLimitError(err):
		log.Printf("⚠️  [%s] Rate limited on model %s: %v", module, model, err)
	default:
		log.Printf("❌ [%s] Gemini call failed (model %s): %v", module, model, err)
	}
}
