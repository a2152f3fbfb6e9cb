package studio

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// IsUsableFinishReason - STOP, MAX_TOKENS, 또는 비어 있음만 정상 종료
func IsUsableFinishReason(reason string) bool {
	switch reason {
	case "", string(genai.FinishReasonStop), string(genai.FinishReasonMaxTokens):
		return true
	}
	return false
}

// CandidateOutput - 후보 하나에서 뽑은 이미지/텍스트
type CandidateOutput struct {
	Image    []byte
	MIMEType string
	Text     string
}

// ExtractCandidate - 첫 인라인 이미지와 텍스트 파트를 수집
func ExtractCandidate(c *genai.Candidate) CandidateOutput {
	var out CandidateOutput
	if c == nil || c.Content == nil {
		return out
	}

	var texts []string
	for _, part := range c.Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && out.Image == nil {
			out.Image = part.InlineData.Data
			out.MIMEType = part.InlineData.MIMEType
		}
		if part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	out.Text = strings.Join(texts, "\n")
	if out.Image != nil && out.MIMEType == "" {
		out.MIMEType = "image/png"
	}
	return out
}

// PromptFeedbackDetail - 안전 필터 차단 사유 문자열
func PromptFeedbackDetail(fb *genai.GenerateContentResponsePromptFeedback) string {
	if fb == nil {
		return ""
	}
	detail := string(fb.BlockReason)
	if fb.BlockReasonMessage != "" {
		if detail != "" {
			detail += ": "
		}
		detail += fb.BlockReasonMessage
	}
	return detail
}

// NormalizeResponse - SDK 응답 → GenerationOutcome
func NormalizeResponse(resp *genai.GenerateContentResponse) GenerationOutcome {
	if resp == nil {
		return Failure(ReasonTransport, "No response object returned from Google AI.")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return Failure(ReasonNoCandidates, PromptFeedbackDetail(resp.PromptFeedback))
	}

	candidate := resp.Candidates[0]
	finishReason := string(candidate.FinishReason)
	if !IsUsableFinishReason(finishReason) {
		return Failure(ReasonBlockedContent, finishReason)
	}

	out := ExtractCandidate(candidate)
	switch {
	case out.Image != nil:
		o := Success(out.Image, out.MIMEType, finishReason)
		o.Text = out.Text
		return o
	case out.Text != "":
		return TextOnly(out.Text)
	default:
		return Failure(ReasonNoCandidates, "No image generated.")
	}
}

// ProxyResponse - Proxy Endpoint 응답 envelope
type ProxyResponse struct {
	Success      bool            `json:"success,omitempty"`
	Image        *string         `json:"image"`
	Text         *string         `json:"text"`
	FinishReason string          `json:"finishReason,omitempty"`
	Error        string          `json:"error,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	Stack        string          `json:"stack,omitempty"`
}

// ProxyRequest - Proxy Endpoint 요청 body
type ProxyRequest struct {
	ModelName string                       `json:"modelName"`
	Contents  []*genai.Content             `json:"contents"`
	Config    *genai.GenerateContentConfig `json:"config,omitempty"`
}

// DecodeRawResponse - candidates 가 최상위에 있거나 "response" 아래 중첩된 원시 응답을 모두 처리
// 어느 쪽에도 candidates/promptFeedback 이 없으면 ok=false
func DecodeRawResponse(body []byte) (*genai.GenerateContentResponse, bool) {
	var probe struct {
		Candidates     json.RawMessage `json:"candidates"`
		PromptFeedback json.RawMessage `json:"promptFeedback"`
		Response       json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, false
	}

	target := body
	if probe.Candidates == nil && probe.PromptFeedback == nil {
		if probe.Response == nil {
			return nil, false
		}
		target = probe.Response
	}

	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(target, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// outcomeFromEnvelope - 200 envelope 해석
func outcomeFromEnvelope(env ProxyResponse) GenerationOutcome {
	if !IsUsableFinishReason(env.FinishReason) {
		return Failure(ReasonBlockedContent, env.FinishReason)
	}
	if env.Image != nil && *env.Image != "" {
		mimeType, data := SplitDataURI(*env.Image)
		raw, err := decodeBase64(data)
		if err != nil {
			return Failure(ReasonTransport, fmt.Sprintf("invalid image payload from proxy: %v", err))
		}
		if mimeType == "" {
			mimeType = "image/png"
		}
		o := Success(raw, mimeType, env.FinishReason)
		if env.Text != nil {
			o.Text = *env.Text
		}
		return o
	}
	if env.Text != nil && *env.Text != "" {
		return TextOnly(*env.Text)
	}
	return Failure(ReasonNoCandidates, "No image generated.")
}
