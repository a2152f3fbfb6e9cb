package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"neue-studio-server/modules/common/gemini"
)

// ProxyTransport - 같은 오리진의 Proxy Endpoint 로 전달 (키는 서버가 보유)
type ProxyTransport struct {
	url        string
	httpClient *http.Client
}

func NewProxyTransport(url string, httpClient *http.Client) *ProxyTransport {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ProxyTransport{url: url, httpClient: httpClient}
}

func (t *ProxyTransport) Send(ctx context.Context, modelID string, contents []*genai.Content, cfg *genai.GenerateContentConfig) GenerationOutcome {
	body, err := json.Marshal(ProxyRequest{
		ModelName: modelID,
		Contents:  contents,
		Config:    cfg,
	})
	if err != nil {
		return Failure(ReasonTransport, fmt.Sprintf("failed to encode proxy request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return Failure(ReasonTransport, fmt.Sprintf("failed to create proxy request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failure(ReasonTimeout, err.Error())
		}
		return Failure(ReasonTransport, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Failure(ReasonTimeout, err.Error())
		}
		return Failure(ReasonTransport, fmt.Sprintf("failed to read proxy response: %v", err))
	}

	return DecodeProxyReply(resp.StatusCode, data)
}

// DecodeProxyReply - 프록시 상태코드 + body → GenerationOutcome
func DecodeProxyReply(status int, body []byte) GenerationOutcome {
	var env ProxyResponse
	envErr := json.Unmarshal(body, &env)

	if status == http.StatusForbidden {
		return Failure(ReasonPermissionDenied, firstNonEmpty(env.Error, string(body)))
	}

	if status == http.StatusOK {
		if !env.Success && env.Error == "" {
			// envelope 이 아닌 원시 프로바이더 응답을 그대로 넘기는 배포
			if raw, ok := DecodeRawResponse(body); ok {
				return NormalizeResponse(raw)
			}
		}
		if envErr != nil {
			return Failure(ReasonTransport, fmt.Sprintf("invalid proxy response: %v", envErr))
		}
		return outcomeFromEnvelope(env)
	}

	if envErr != nil {
		return Failure(ReasonTransport, fmt.Sprintf("proxy returned %d: %s", status, truncateString(string(body), 200)))
	}

	switch {
	case status == http.StatusBadRequest && strings.HasPrefix(env.Error, "Generation Stopped"):
		return Failure(ReasonBlockedContent, blockedReason(env))
	case env.Error == proxyNoCandidatesError:
		return Failure(ReasonNoCandidates, string(env.Details))
	case gemini.IsPermissionMessage(env.Error):
		return Failure(ReasonPermissionDenied, env.Error)
	case status == http.StatusTooManyRequests:
		return Failure(ReasonTransport, firstNonEmpty(env.Error, "rate limited"))
	default:
		return Failure(ReasonTransport, firstNonEmpty(env.Error, http.StatusText(status)))
	}
}

const proxyNoCandidatesError = "No candidates returned from AI"

// blockedReason - details(candidate) 의 finishReason, 없으면 에러 메시지에서 추출
func blockedReason(env ProxyResponse) string {
	var candidate struct {
		FinishReason string `json:"finishReason"`
	}
	if len(env.Details) > 0 && json.Unmarshal(env.Details, &candidate) == nil && candidate.FinishReason != "" {
		return candidate.FinishReason
	}
	if _, reason, ok := strings.Cut(env.Error, "Reason: "); ok {
		return strings.TrimSpace(reason)
	}
	return env.Error
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
