package studio

import (
	"errors"
	"fmt"
)

// OutcomeKind - 생성 결과 종류
type OutcomeKind string

const (
	OutcomeSuccess  OutcomeKind = "success"
	OutcomeTextOnly OutcomeKind = "text_only"
	OutcomeFailure  OutcomeKind = "failure"
)

// FailureReason - 실패 분류
type FailureReason string

const (
	ReasonMissingCredential FailureReason = "MISSING_CREDENTIAL"
	ReasonTimeout           FailureReason = "TIMEOUT"
	ReasonPermissionDenied  FailureReason = "PERMISSION_DENIED"
	ReasonNoCandidates      FailureReason = "NO_CANDIDATES"
	ReasonBlockedContent    FailureReason = "BLOCKED_CONTENT"
	ReasonTextOnly          FailureReason = "TEXT_ONLY"
	ReasonTransport         FailureReason = "TRANSPORT_OR_UNKNOWN"
)

// ErrMissingCredential - 사용할 수 있는 API 키가 없음
var ErrMissingCredential = errors.New("API key missing. Please set your API key.")

// GenerationOutcome - 파이프라인 1회 호출의 결과. Kind 에 따라 유효 필드가 다름
//   - success:   Image, MIMEType, FinishReason (Text 는 함께 온 설명문)
//   - text_only: Text
//   - failure:   Reason, Detail, ModelID
type GenerationOutcome struct {
	Kind         OutcomeKind
	Image        []byte
	MIMEType     string
	FinishReason string
	Text         string
	Reason       FailureReason
	Detail       string
	ModelID      string
}

// Success - 이미지 결과
func Success(image []byte, mimeType, finishReason string) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeSuccess, Image: image, MIMEType: mimeType, FinishReason: finishReason}
}

// TextOnly - 이미지 없이 텍스트만 온 경우
func TextOnly(text string) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeTextOnly, Text: text}
}

// Failure - 실패 결과
func Failure(reason FailureReason, detail string) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeFailure, Reason: reason, Detail: detail}
}

// DataURI - 성공 이미지의 data URI. 이미지가 없으면 빈 문자열
func (o GenerationOutcome) DataURI() string {
	if o.Kind != OutcomeSuccess || len(o.Image) == 0 {
		return ""
	}
	return DataURI(o.MIMEType, o.Image)
}

// Err - 성공이 아니면 *GenerationError
func (o GenerationOutcome) Err() error {
	switch o.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeTextOnly:
		return &GenerationError{Reason: ReasonTextOnly, Detail: o.Text, ModelID: o.ModelID}
	default:
		return &GenerationError{Reason: o.Reason, Detail: o.Detail, ModelID: o.ModelID}
	}
}

// GenerationError - 사용자에게 보여줄 수 있는 생성 실패
type GenerationError struct {
	Reason  FailureReason
	Detail  string
	ModelID string
}

func (e *GenerationError) Error() string {
	switch e.Reason {
	case ReasonMissingCredential:
		return ErrMissingCredential.Error()
	case ReasonTimeout:
		return "generation timed out"
	case ReasonPermissionDenied:
		return fmt.Sprintf("permission denied for model %s: %s", e.ModelID, e.Detail)
	case ReasonBlockedContent:
		return fmt.Sprintf("Generation Stopped. Reason: %s", e.Detail)
	case ReasonNoCandidates:
		return "No candidates returned from AI"
	case ReasonTextOnly:
		return "model declined to produce an image"
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "image generation failed"
}

// Unwrap - MissingCredential 은 sentinel 과 매칭
func (e *GenerationError) Unwrap() error {
	if e.Reason == ReasonMissingCredential {
		return ErrMissingCredential
	}
	return nil
}

// Suggestion - 사용자가 취할 수 있는 조치
func (e *GenerationError) Suggestion() string {
	switch e.Reason {
	case ReasonMissingCredential:
		return "Connect an API key to continue."
	case ReasonPermissionDenied:
		return fmt.Sprintf("Your key cannot access %s. Switch to the standard tier or reconnect a key with access.", e.ModelID)
	case ReasonTimeout, ReasonTransport:
		return "Try again."
	case ReasonBlockedContent, ReasonNoCandidates, ReasonTextOnly:
		return "Adjust the tags or instructions and try again."
	}
	return ""
}
