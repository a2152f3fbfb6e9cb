package studio

// 생성 모드
const (
	ModeFast         = "fast"
	ModeConsultation = "consultation"
)

// 요청 단위 에러 코드 (FailureReason 이외)
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
)

// GenerateRequest - POST /api/studio/generate
type GenerateRequest struct {
	Config      GenerationConfig `json:"config"`
	Mode        string           `json:"mode"`                  // fast | consultation
	VisionInput string           `json:"visionInput,omitempty"` // fast 모드 자유 입력
	SessionID   string           `json:"sessionId,omitempty"`   // consultation 모드 세션
}

// GenerateResponse - 생성 결과
type GenerateResponse struct {
	Success      bool   `json:"success"`
	Image        string `json:"image,omitempty"` // data URI
	Text         string `json:"text,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	ModelID      string `json:"modelId,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
}

// TagsRequest - POST /api/studio/tags
type TagsRequest struct {
	Text   string            `json:"text"`
	Config *GenerationConfig `json:"config,omitempty"` // 있으면 제안을 적용한 설정도 반환
}

// TagsResponse - 추론 결과
type TagsResponse struct {
	Suggestion TagSuggestion     `json:"suggestion"`
	Config     *GenerationConfig `json:"config,omitempty"`
}

// CredentialRequest - PUT /api/studio/credential
type CredentialRequest struct {
	APIKey string `json:"apiKey"`
}

// CredentialStatus - 저장 키 상태 (키 원문은 내려주지 않음)
type CredentialStatus struct {
	Connected bool             `json:"connected"`
	Source    CredentialSource `json:"source,omitempty"`
	Masked    string           `json:"masked,omitempty"`
}
