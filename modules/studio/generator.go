package studio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"google.golang.org/genai"

	"neue-studio-server/modules/common/gemini"
	"neue-studio-server/modules/common/metrics"
)

// DefaultTimeout - 클라이언트 측 생성 데드라인
const DefaultTimeout = 15 * time.Second

// Transport - 실제 호출 경로 (direct 또는 proxied)
type Transport interface {
	Send(ctx context.Context, modelID string, contents []*genai.Content, cfg *genai.GenerateContentConfig) GenerationOutcome
}

// DirectTransport - 해석된 키로 프로바이더를 직접 호출
type DirectTransport struct {
	models gemini.ContentGenerator
}

func NewDirectTransport(models gemini.ContentGenerator) *DirectTransport {
	return &DirectTransport{models: models}
}

func (t *DirectTransport) Send(ctx context.Context, modelID string, contents []*genai.Content, cfg *genai.GenerateContentConfig) GenerationOutcome {
	resp, err := t.models.GenerateContent(ctx, modelID, contents, cfg)
	if err != nil {
		gemini.LogCallError("Generator", modelID, err)
		return classifyCallError(ctx, err)
	}
	return NormalizeResponse(resp)
}

// classifyCallError - 호출 에러를 실패 분류로 변환
func classifyCallError(ctx context.Context, err error) GenerationOutcome {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return Failure(ReasonTimeout, err.Error())
	case gemini.IsPermissionError(err):
		return Failure(ReasonPermissionDenied, err.Error())
	default:
		return Failure(ReasonTransport, err.Error())
	}
}

// Generator - 타임아웃 경합 + 결과 정규화. 자동 재시도 없음
type Generator struct {
	transport Transport
	timeout   time.Duration
}

func NewGenerator(transport Transport, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{transport: transport, timeout: timeout}
}

// Generate - 반드시 하나의 결과로 끝남. 타임아웃 시 호출은 버려지고 Timeout 반환
func (g *Generator) Generate(ctx context.Context, payload Payload, modelID string, params ImageParams) GenerationOutcome {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := payload.Contents()
	genConfig := BuildGenerateConfig(params)

	log.Printf("📤 [Generator] Calling %s (images: %d, timeout: %s)", modelID, payload.ImageCount(), g.timeout)

	done := make(chan GenerationOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Failure(ReasonTransport, fmt.Sprintf("transport panic: %v", r))
			}
		}()
		done <- g.transport.Send(ctx, modelID, contents, genConfig)
	}()

	var outcome GenerationOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = Failure(ReasonTimeout, fmt.Sprintf("no response within %s", g.timeout))
		} else {
			outcome = Failure(ReasonTransport, "request cancelled")
		}
	}
	outcome.ModelID = modelID

	elapsed := time.Since(start)
	metrics.ObserveGeneration(string(outcome.Kind), string(outcome.Reason), modelID, elapsed)

	switch outcome.Kind {
	case OutcomeSuccess:
		log.Printf("✅ [Generator] Image generated: %d bytes in %s (finish: %q)", len(outcome.Image), elapsed.Round(time.Millisecond), outcome.FinishReason)
	case OutcomeTextOnly:
		log.Printf("⚠️ [Generator] Model answered with text only: %s", truncateString(outcome.Text, 80))
	default:
		log.Printf("❌ [Generator] %s after %s: %s", outcome.Reason, elapsed.Round(time.Millisecond), truncateString(outcome.Detail, 200))
	}

	return outcome
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
